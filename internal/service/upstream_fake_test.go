package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

type upstreamCall struct {
	Method     string
	Collection upstream.Collection
	ID         string
	Body       models.Record
	Params     url.Values
}

// fakeUpstream serves canned collections and records every write.
type fakeUpstream struct {
	mu        sync.Mutex
	lists     map[upstream.Collection][]models.Record
	listErrs  map[upstream.Collection]error
	createErr error
	updateErr error
	patchErr  error
	nextID    int
	calls     []upstreamCall

	// createErrAt applies createErr from the n-th create on; zero fails every create.
	createErrAt int
	creates     int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		lists:    map[upstream.Collection][]models.Record{},
		listErrs: map[upstream.Collection]error{},
	}
}

func (f *fakeUpstream) List(_ context.Context, _ string, col upstream.Collection, _ url.Values) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErrs[col]; err != nil {
		return nil, err
	}
	return f.lists[col], nil
}

func (f *fakeUpstream) Get(_ context.Context, _ string, col upstream.Collection, id string) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.lists[col] {
		if fmt.Sprint(rec["id"]) == id {
			return rec, nil
		}
	}
	return models.Record{"id": id}, nil
}

func (f *fakeUpstream) Create(_ context.Context, _ string, col upstream.Collection, body interface{}) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := body.(models.Record)
	f.calls = append(f.calls, upstreamCall{Method: "POST", Collection: col, Body: rec})
	f.creates++
	if f.createErr != nil && f.creates >= f.createErrAt {
		return nil, f.createErr
	}
	f.nextID++
	created := rec.Clone()
	created["id"] = fmt.Sprintf("%s-%d", col, f.nextID)
	return created, nil
}

func (f *fakeUpstream) Replace(_ context.Context, _ string, col upstream.Collection, id string, body interface{}) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := body.(models.Record)
	f.calls = append(f.calls, upstreamCall{Method: "PUT", Collection: col, ID: id, Body: rec})
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	updated := rec.Clone()
	updated["id"] = id
	return updated, nil
}

func (f *fakeUpstream) Patch(_ context.Context, _ string, col upstream.Collection, id string, params url.Values) (models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, upstreamCall{Method: "PATCH", Collection: col, ID: id, Params: params})
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	return models.Record{"id": id, "status": params.Get("status")}, nil
}

func (f *fakeUpstream) Delete(_ context.Context, _ string, col upstream.Collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, upstreamCall{Method: "DELETE", Collection: col, ID: id})
	return nil
}

func (f *fakeUpstream) callsFor(method string) []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []upstreamCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*models.MaterializationAudit
	err     error
}

func (f *fakeAudit) Create(_ context.Context, entry *models.MaterializationAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return f.err
}

func testSession() *models.Session {
	return &models.Session{Token: "token-1", User: models.UserInfo{ID: "7", Email: "warden@campus.test"}}
}
