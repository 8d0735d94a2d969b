package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-console-api/pkg/config"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/middleware/requestid"
)

type observerStub struct {
	mu       sync.Mutex
	services []string
	statuses []int
}

func (o *observerStub) ObserveUpstream(service, method string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.services = append(o.services, service)
	o.statuses = append(o.statuses, status)
}

func newTestClient(t *testing.T, campus, student http.HandlerFunc) (*Client, *observerStub) {
	t.Helper()
	campusSrv := httptest.NewServer(campus)
	t.Cleanup(campusSrv.Close)
	studentSrv := httptest.NewServer(student)
	t.Cleanup(studentSrv.Close)
	obs := &observerStub{}
	return New(config.UpstreamConfig{CampusURL: campusSrv.URL, StudentURL: studentSrv.URL, Timeout: time.Second}, nil, obs), obs
}

func TestClientRoutesAndAuthenticates(t *testing.T) {
	var gotAuth, gotReqID, gotQuery string
	client, obs := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/attendances", r.URL.Path)
			gotAuth = r.Header.Get("Authorization")
			gotReqID = r.Header.Get(requestid.HeaderKey)
			gotQuery = r.URL.Query().Get("date")
			_, _ = w.Write([]byte(`{"content":[{"id":1,"studentId":2}]}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("student service should not be called")
		},
	)

	ctx := requestid.WithValue(context.Background(), "req-1")
	records, err := client.List(ctx, "tok", Attendances, url.Values{"date": {"2024-05-01"}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "req-1", gotReqID)
	assert.Equal(t, "2024-05-01", gotQuery)
	assert.Equal(t, []string{"campus"}, obs.services)
}

func TestClientMapsUnauthorizedToSessionExpired(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.List(context.Background(), "stale", Fees, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionExpired.Code, appErrors.FromError(err).Code)
}

func TestClientMapsUpstreamMessages(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"fee already exists"}`))
	})

	_, err := client.Create(context.Background(), "tok", Fees, map[string]interface{}{"studentId": "1"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "fee already exists", appErr.Message)
}

func TestClientTransportFailure(t *testing.T) {
	client := New(config.UpstreamConfig{CampusURL: "http://127.0.0.1:1", StudentURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, nil, nil)

	_, err := client.Get(context.Background(), "tok", Rooms, "1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErrors.FromError(err).Code)
}

func TestClientPatchUsesQueryString(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/complaints/9", r.URL.Path)
		assert.Equal(t, "RESOLVED", r.URL.Query().Get("status"))
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": 9, "status": "RESOLVED"})
	}, nil)

	rec, err := client.Patch(context.Background(), "tok", Complaints, "9", url.Values{"status": {"RESOLVED"}})
	require.NoError(t, err)
	assert.Equal(t, "RESOLVED", rec["status"])
}

func TestClientLogin(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`"raw-token"`))
	})

	raw, err := client.Login(context.Background(), "admin@campus.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, `"raw-token"`, string(raw))

	_, err = client.Login(context.Background(), "admin@campus.test", "wrong")
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}
