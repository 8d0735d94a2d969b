package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-console-api/internal/middleware"
	"github.com/noah-isme/hostel-console-api/internal/models"
)

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newContext(method, target, body string, withSession bool) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	if withSession {
		c.Set(middleware.ContextSessionKey, &models.Session{
			Token: "token-1",
			User:  models.UserInfo{ID: "7", Email: "warden@campus.test", Roles: []string{"ROLE_ADMIN"}, IsAdmin: true},
		})
	}
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
