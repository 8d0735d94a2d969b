package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/repository"
)

type auditListerStub struct {
	filter repository.MaterializationAuditFilter
}

func (s *auditListerStub) List(_ context.Context, filter repository.MaterializationAuditFilter) ([]models.MaterializationAudit, error) {
	s.filter = filter
	return []models.MaterializationAudit{{ID: "a1", Collection: "fees", Outcome: models.AuditOutcomeCreated, CreatedAt: time.Now()}}, nil
}

func TestAuditHandlerList(t *testing.T) {
	stub := &auditListerStub{}
	c, w := newContext(http.MethodGet, "/audit/materializations?collection=fees&key=student:1&limit=20", "", true)

	NewAuditHandler(stub).List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, repository.MaterializationAuditFilter{Collection: "fees", IdentityKey: "student:1", Limit: 20}, stub.filter)
	assert.Contains(t, w.Body.String(), `"collection":"fees"`)
}

func TestAuditHandlerRequiresSession(t *testing.T) {
	c, w := newContext(http.MethodGet, "/audit/materializations", "", false)
	NewAuditHandler(&auditListerStub{}).List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
