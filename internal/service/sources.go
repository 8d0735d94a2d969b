package service

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hostel-console-api/internal/models"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

type collectionLister interface {
	List(ctx context.Context, token string, col upstream.Collection, query url.Values) ([]models.Record, error)
}

// sourceRequest describes one collection fetched for a view. A failed
// non-critical source is replaced by an empty collection.
type sourceRequest struct {
	collection upstream.Collection
	query      url.Values
	critical   bool
}

// sourceSet is the fan-in result of fetchSources.
type sourceSet struct {
	records  map[upstream.Collection][]models.Record
	degraded []string
}

func (s *sourceSet) get(col upstream.Collection) []models.Record {
	if s == nil {
		return nil
	}
	return s.records[col]
}

func critical(col upstream.Collection) sourceRequest {
	return sourceRequest{collection: col, critical: true}
}

func optional(col upstream.Collection) sourceRequest {
	return sourceRequest{collection: col}
}

// fetchSources issues every request concurrently and waits for all of them.
// An expired session always aborts, whatever the source.
func fetchSources(ctx context.Context, client collectionLister, metrics *MetricsService, logger *zap.Logger, token string, requests ...sourceRequest) (*sourceSet, error) {
	results := make([][]models.Record, len(requests))
	failed := make([]bool, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			records, err := client.List(gctx, token, req.collection, req.query)
			if err == nil {
				results[i] = records
				return nil
			}
			if req.critical || errors.Is(err, appErrors.ErrSessionExpired) {
				return err
			}
			logger.Warn("source degraded to empty collection", zap.String("source", string(req.collection)), zap.Error(err))
			failed[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &sourceSet{records: make(map[upstream.Collection][]models.Record, len(requests))}
	for i, req := range requests {
		if failed[i] {
			set.degraded = append(set.degraded, string(req.collection))
			metrics.RecordDegradedSource(string(req.collection))
		}
		set.records[req.collection] = results[i]
	}
	return set, nil
}
