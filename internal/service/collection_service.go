package service

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/dto"
	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

type collectionClient interface {
	collectionLister
	Get(ctx context.Context, token string, col upstream.Collection, id string) (models.Record, error)
	Create(ctx context.Context, token string, col upstream.Collection, body interface{}) (models.Record, error)
	Replace(ctx context.Context, token string, col upstream.Collection, id string, body interface{}) (models.Record, error)
	Patch(ctx context.Context, token string, col upstream.Collection, id string, params url.Values) (models.Record, error)
	Delete(ctx context.Context, token string, col upstream.Collection, id string) error
}

// requiredFields lists the minimum each form must carry. Each entry accepts any
// of its aliases.
var requiredFields = map[upstream.Collection]map[string][]string{
	upstream.Complaints: {
		"title":       {"title", "subject"},
		"description": {"description", "details"},
	},
	upstream.HealthIncidents: {
		"studentId":   reconcile.StudentIDAliases,
		"description": {"description", "details", "symptoms"},
	},
	upstream.Visits: {
		"studentId":   reconcile.StudentIDAliases,
		"visitorName": {"visitorName", "visitor_name", "visitor.name"},
	},
	upstream.MessMenus: {
		"day": {"day", "dayOfWeek", "day_of_week"},
	},
	upstream.Hostels: {
		"name": {"name", "hostelName"},
	},
}

// CollectionService passes single-collection resources through to upstream.
// These records are always authoritative and never synthesized.
type CollectionService struct {
	client    collectionClient
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCollectionService constructs a CollectionService.
func NewCollectionService(client collectionClient, validate *validator.Validate, logger *zap.Logger) *CollectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CollectionService{client: client, validator: validate, logger: logger}
}

// List returns the normalized list for a collection.
func (s *CollectionService) List(ctx context.Context, session *models.Session, col upstream.Collection, query url.Values) ([]models.Record, error) {
	records, err := s.client.List(ctx, session.Token, col, query)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// Get returns one record.
func (s *CollectionService) Get(ctx context.Context, session *models.Session, col upstream.Collection, id string) (models.Record, error) {
	return s.client.Get(ctx, session.Token, col, id)
}

// Create validates the form minimum and creates the record.
func (s *CollectionService) Create(ctx context.Context, session *models.Session, col upstream.Collection, body models.Record) (models.Record, error) {
	if err := validateRequired(col, body); err != nil {
		return nil, err
	}
	created, err := s.client.Create(ctx, session.Token, col, body)
	if err != nil {
		return nil, err
	}
	s.logger.Info("record created", zap.String("collection", string(col)), zap.String("id", reconcile.PickString(created, reconcile.EntityIDAliases...)))
	return created, nil
}

// Replace fully updates a record.
func (s *CollectionService) Replace(ctx context.Context, session *models.Session, col upstream.Collection, id string, body models.Record) (models.Record, error) {
	if err := validateRequired(col, body); err != nil {
		return nil, err
	}
	return s.client.Replace(ctx, session.Token, col, id, body)
}

// UpdateStatus applies a status/remarks change through a query-string patch.
func (s *CollectionService) UpdateStatus(ctx context.Context, session *models.Session, col upstream.Collection, id string, req dto.StatusUpdateRequest) (models.Record, error) {
	req.Status = strings.TrimSpace(req.Status)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required")
	}
	params := url.Values{"status": {req.Status}}
	if req.Remarks != nil {
		params.Set("remarks", *req.Remarks)
	}
	return s.client.Patch(ctx, session.Token, col, id, params)
}

// Delete removes a record.
func (s *CollectionService) Delete(ctx context.Context, session *models.Session, col upstream.Collection, id string) error {
	if err := s.client.Delete(ctx, session.Token, col, id); err != nil {
		return err
	}
	s.logger.Info("record deleted", zap.String("collection", string(col)), zap.String("id", id))
	return nil
}

func validateRequired(col upstream.Collection, body models.Record) error {
	if body == nil {
		return appErrors.Clone(appErrors.ErrValidation, "request body is required")
	}
	var missing []string
	for field, aliases := range requiredFields[col] {
		if _, ok := reconcile.Pick(body, aliases...); !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return appErrors.Clone(appErrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}
