package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/pkg/config"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/middleware/requestid"
)

// Observer receives timing for every upstream call.
type Observer interface {
	ObserveUpstream(service, method string, status int, duration time.Duration)
}

// Client is the authenticated transport to the campus and student services.
// It never retries; every failure surfaces to the caller.
type Client struct {
	services map[Service]*resty.Client
	logger   *zap.Logger
	observer Observer
}

// New builds a client for both services.
func New(cfg config.UpstreamConfig, logger *zap.Logger, observer Observer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	build := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json")
	}
	return &Client{
		services: map[Service]*resty.Client{
			ServiceCampus:  build(cfg.CampusURL),
			ServiceStudent: build(cfg.StudentURL),
		},
		logger:   logger,
		observer: observer,
	}
}

// List fetches a collection and normalizes its envelope.
func (c *Client) List(ctx context.Context, token string, col Collection, query url.Values) ([]models.Record, error) {
	resp, err := c.do(ctx, token, col, http.MethodGet, col.path(), query, nil)
	if err != nil {
		return nil, err
	}
	records, err := DecodeList(resp.Body())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("unreadable %s list", col))
	}
	return records, nil
}

// Get fetches one entity by id.
func (c *Client) Get(ctx context.Context, token string, col Collection, id string) (models.Record, error) {
	return c.record(ctx, token, col, http.MethodGet, entityPath(col, id), nil, nil)
}

// Create posts a new entity.
func (c *Client) Create(ctx context.Context, token string, col Collection, body interface{}) (models.Record, error) {
	return c.record(ctx, token, col, http.MethodPost, col.path(), nil, body)
}

// Replace performs a full update of an entity.
func (c *Client) Replace(ctx context.Context, token string, col Collection, id string, body interface{}) (models.Record, error) {
	return c.record(ctx, token, col, http.MethodPut, entityPath(col, id), nil, body)
}

// Patch updates selected fields passed as query-string parameters.
func (c *Client) Patch(ctx context.Context, token string, col Collection, id string, params url.Values) (models.Record, error) {
	return c.record(ctx, token, col, http.MethodPatch, entityPath(col, id), params, nil)
}

// Delete removes an entity.
func (c *Client) Delete(ctx context.Context, token string, col Collection, id string) error {
	_, err := c.do(ctx, token, col, http.MethodDelete, entityPath(col, id), nil, nil)
	return err
}

// Login posts credentials to the student/admin service and returns the raw
// response body, which may be a bare token or an object containing one.
func (c *Client) Login(ctx context.Context, email, password string) ([]byte, error) {
	resp, err := c.send(ctx, "", ServiceStudent, http.MethodPost, loginPath, nil, map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	return resp.Body(), nil
}

func (c *Client) record(ctx context.Context, token string, col Collection, method, path string, query url.Values, body interface{}) (models.Record, error) {
	resp, err := c.do(ctx, token, col, method, path, query, body)
	if err != nil {
		return nil, err
	}
	rec, err := DecodeRecord(resp.Body())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, fmt.Sprintf("unreadable %s payload", col))
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, token string, col Collection, method, path string, query url.Values, body interface{}) (*resty.Response, error) {
	resp, err := c.send(ctx, token, ServiceFor(col), method, path, query, body)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		appErr := statusError(resp)
		c.logger.Warn("upstream call rejected",
			zap.String("collection", string(col)),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("code", appErr.Code),
		)
		return nil, appErr
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, token string, svc Service, method, path string, query url.Values, body interface{}) (*resty.Response, error) {
	httpClient, ok := c.services[svc]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("no client for service %s", svc))
	}

	req := httpClient.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.SetHeader(requestid.HeaderKey, id)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	if c.observer != nil {
		c.observer.ObserveUpstream(string(svc), method, status, time.Since(start))
	}
	if err != nil {
		c.logger.Error("upstream call failed",
			zap.String("service", string(svc)),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		if errors.Is(err, context.Canceled) {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "request cancelled")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, fmt.Sprintf("%s service unreachable", svc))
	}
	return resp, nil
}

func statusError(resp *resty.Response) *appErrors.Error {
	message := ""
	if rec, err := DecodeRecord(resp.Body()); err == nil {
		for _, key := range []string{"message", "error"} {
			if s, ok := rec[key].(string); ok && s != "" {
				message = s
				break
			}
		}
	}
	return appErrors.FromStatus(resp.StatusCode(), message)
}

func entityPath(col Collection, id string) string {
	return col.path() + "/" + url.PathEscape(id)
}
