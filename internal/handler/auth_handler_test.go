package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
)

type authServiceStub struct {
	resp *models.LoginResponse
	err  error
	req  models.LoginRequest
}

func (s *authServiceStub) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestAuthHandlerLogin(t *testing.T) {
	stub := &authServiceStub{resp: &models.LoginResponse{Token: "jwt"}}
	c, w := newContext(http.MethodPost, "/auth/login", `{"email":"warden@campus.test","password":"secret"}`, false)

	NewAuthHandler(stub).Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "warden@campus.test", stub.req.Email)
	assert.Contains(t, w.Body.String(), `"token":"jwt"`)
}

func TestAuthHandlerLoginInvalidBody(t *testing.T) {
	c, w := newContext(http.MethodPost, "/auth/login", `{"email":`, false)

	NewAuthHandler(&authServiceStub{}).Login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	stub := &authServiceStub{err: appErrors.ErrInvalidCredentials}
	c, w := newContext(http.MethodPost, "/auth/login", `{"email":"a@b.test","password":"x"}`, false)

	NewAuthHandler(stub).Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, w).Error.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	c, w := newContext(http.MethodGet, "/auth/me", "", true)
	NewAuthHandler(&authServiceStub{}).Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_admin":true`)

	c, w = newContext(http.MethodGet, "/auth/me", "", false)
	NewAuthHandler(&authServiceStub{}).Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
