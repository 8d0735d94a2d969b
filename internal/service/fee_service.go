package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/dto"
	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

type feeClient interface {
	collectionLister
	Replace(ctx context.Context, token string, col upstream.Collection, id string, body interface{}) (models.Record, error)
}

type draftMaterializer interface {
	Materialize(ctx context.Context, session *models.Session, row reconcile.Row, intent MutationIntent) (*PersistResult, error)
}

// FeeView is the merged fee table.
type FeeView struct {
	Rows            []models.FeeRow
	DegradedSources []string
}

// FeeService serves the merged fee view. Active allocations are expected to
// have a fee; those without one appear as new rows.
type FeeService struct {
	client       feeClient
	materializer draftMaterializer
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	resolver     reconcile.Resolver
}

// NewFeeService constructs a FeeService.
func NewFeeService(client feeClient, materializer draftMaterializer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FeeService{
		client:       client,
		materializer: materializer,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		resolver:     reconcile.NewNameFallbackResolver(),
	}
}

// List returns the merged fee view.
func (s *FeeService) List(ctx context.Context, session *models.Session) (*FeeView, error) {
	rows, degraded, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	out := make([]models.FeeRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.fee)
	}
	return &FeeView{Rows: out, DegradedSources: degraded}, nil
}

// Preview applies the due/status rule to an edit without persisting it.
func (s *FeeService) Preview(req dto.FeePreviewRequest) (*models.FeeRow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee preview payload")
	}
	total, _ := decimal.NewFromString(req.TotalFee)
	paid, _ := decimal.NewFromString(req.AmountPaid)
	row := &models.FeeRow{TotalFee: total, AmountPaid: paid}
	row.Recalculate()
	return row, nil
}

// Save persists an edit. A new row is materialized through create plus a
// follow-up update; an existing row is replaced in place.
func (s *FeeService) Save(ctx context.Context, session *models.Session, key string, req dto.FeeEditRequest) (*models.FeeRow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	rows, _, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	var target *feeEntry
	for i := range rows {
		if rows[i].fee.Key == key {
			target = &rows[i]
			break
		}
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "fee row not found")
	}

	fee := target.fee
	applyFeeEdit(&fee, req)
	body := feeBody(fee)

	if fee.IsNew {
		result, err := s.materializer.Materialize(ctx, session, target.row, MutationIntent{Plan: FeePlan, Fields: body})
		if err != nil {
			return nil, err
		}
		fee.FeeID = result.ID
		fee.IsNew = false
		return &fee, nil
	}

	if fee.FeeID == "" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "fee row has no upstream id")
	}
	if _, err := s.client.Replace(ctx, session.Token, upstream.Fees, fee.FeeID, body); err != nil {
		return nil, err
	}
	s.logger.Info("fee updated", zap.String("identity_key", fee.Key), zap.String("fee_id", fee.FeeID))
	return &fee, nil
}

type feeEntry struct {
	row reconcile.Row
	fee models.FeeRow
}

func (s *FeeService) load(ctx context.Context, session *models.Session) ([]feeEntry, []string, error) {
	set, err := fetchSources(ctx, s.client, s.metrics, s.logger, session.Token,
		critical(upstream.Fees),
		critical(upstream.Allocations),
		optional(upstream.Students),
		optional(upstream.Rooms),
		optional(upstream.Hostels),
	)
	if err != nil {
		return nil, nil, err
	}

	var active []models.Record
	for _, rec := range set.get(upstream.Allocations) {
		if allocationStatus(rec) == models.ResidentActive {
			active = append(active, rec)
		}
	}

	merger := reconcile.NewMerger(s.resolver, projectFee,
		reconcile.WithLogger(s.logger),
		reconcile.WithDropHook(dropHook(s.metrics)),
	)
	rows := merger.Merge([]reconcile.Source{
		{Kind: reconcile.SourceAllocations, Role: reconcile.RoleExpected, Records: active},
		{Kind: reconcile.SourceFees, Role: reconcile.RoleAuthoritative, Records: set.get(upstream.Fees)},
		{Kind: reconcile.SourceStudents, Role: reconcile.RoleEnrichment, Records: set.get(upstream.Students)},
	}, feePlaceholder)

	hostels := newHostelIndex(set.get(upstream.Rooms), set.get(upstream.Hostels))
	entries := make([]feeEntry, 0, len(rows))
	drafts := 0
	for _, row := range rows {
		if row.IsDraft {
			drafts++
		}
		entries = append(entries, feeEntry{row: row, fee: toFeeRow(row, hostels)})
	}
	s.metrics.ObserveMerge("fees", len(rows), drafts)
	return entries, set.degraded, nil
}

func projectFee(rec models.Record, kind reconcile.SourceKind) models.Record {
	out := models.Record{}
	studentID := reconcile.PickString(rec, reconcile.StudentIDAliases...)
	if studentID == "" && kind == reconcile.SourceStudents {
		studentID = reconcile.PickString(rec, "id", "userId", "user_id")
	}
	setString(out, "studentId", studentID)
	setString(out, "studentName", reconcile.DisplayName(rec))
	setString(out, "roomId", reconcile.PickString(rec, reconcile.RoomIDAliases...))
	setString(out, "roomNumber", reconcile.PickString(rec, reconcile.RoomNumberAliases...))
	setString(out, "hostelId", reconcile.PickString(rec, reconcile.HostelIDAliases...))
	setString(out, "hostelName", reconcile.PickString(rec, reconcile.HostelNameAliases...))
	setAmount(out, "monthlyFee", rec, reconcile.MonthlyFeeAliases...)

	if kind == reconcile.SourceFees {
		setString(out, "feeId", reconcile.PickString(rec, reconcile.FeeIDAliases...))
		setAmount(out, "totalFee", rec, reconcile.TotalFeeAliases...)
		setAmount(out, "amountPaid", rec, reconcile.AmountPaidAliases...)
		setAmount(out, "dueAmount", rec, reconcile.DueAmountAliases...)
		setString(out, "status", strings.ToUpper(reconcile.PickString(rec, reconcile.FeeStatusAliases...)))
		setString(out, "lastPaymentDate", reconcile.PickString(rec, reconcile.LastPaymentDateAliases...))
	}
	return out
}

// feePlaceholder fills a draft fee: nothing paid, the whole monthly fee due.
func feePlaceholder(row reconcile.Row) models.Record {
	total, ok := reconcile.PickDecimal(row.Fields, "monthlyFee")
	if !ok {
		total = decimal.Zero
	}
	return models.Record{
		"totalFee":   total.String(),
		"amountPaid": "0",
		"dueAmount":  total.String(),
		"status":     string(models.FeeDue),
		"isNew":      true,
	}
}

func toFeeRow(row reconcile.Row, hostels *hostelIndex) models.FeeRow {
	f := row.Fields
	_, hostelName := hostels.resolve(f)
	fee := models.FeeRow{
		Key:             string(row.Key),
		FeeID:           reconcile.PickString(f, "feeId"),
		StudentID:       reconcile.PickString(f, "studentId"),
		StudentName:     reconcile.PickString(f, "studentName"),
		RoomNumber:      reconcile.PickString(f, "roomNumber"),
		HostelName:      hostelName,
		LastPaymentDate: reconcile.PickString(f, "lastPaymentDate"),
		IsNew:           row.IsDraft,
	}
	fee.MonthlyFee, _ = reconcile.PickDecimal(f, "monthlyFee")
	fee.TotalFee, _ = reconcile.PickDecimal(f, "totalFee")
	fee.AmountPaid, _ = reconcile.PickDecimal(f, "amountPaid")

	if due, ok := reconcile.PickDecimal(f, "dueAmount"); ok {
		fee.DueAmount = due
	} else {
		fee.DueAmount = fee.TotalFee.Sub(fee.AmountPaid)
	}
	switch status := models.FeeStatus(reconcile.PickString(f, "status")); status {
	case models.FeePaid, models.FeePartiallyPaid, models.FeeDue:
		fee.Status = status
	default:
		fee.Status = models.DeriveFeeStatus(fee.TotalFee, fee.AmountPaid)
	}
	return fee
}

func applyFeeEdit(fee *models.FeeRow, req dto.FeeEditRequest) {
	if req.MonthlyFee != nil {
		fee.MonthlyFee, _ = decimal.NewFromString(*req.MonthlyFee)
	}
	if req.TotalFee != nil {
		fee.TotalFee, _ = decimal.NewFromString(*req.TotalFee)
	}
	if req.AmountPaid != nil {
		fee.AmountPaid, _ = decimal.NewFromString(*req.AmountPaid)
	}
	if req.LastPaymentDate != "" {
		fee.LastPaymentDate = req.LastPaymentDate
	}
	fee.Recalculate()
}

// feeBody is the complete upstream representation of a fee row. Amounts are
// sent as JSON numbers.
func feeBody(fee models.FeeRow) models.Record {
	body := models.Record{
		"studentName": fee.StudentName,
		"hostelName":  fee.HostelName,
		"monthlyFee":  json.Number(fee.MonthlyFee.String()),
		"totalFee":    json.Number(fee.TotalFee.String()),
		"amountPaid":  json.Number(fee.AmountPaid.String()),
		"dueAmount":   json.Number(fee.DueAmount.String()),
		"status":      string(fee.Status),
	}
	setString(body, "studentId", fee.StudentID)
	setString(body, "roomNumber", fee.RoomNumber)
	setString(body, "lastPaymentDate", fee.LastPaymentDate)
	return body
}

func setAmount(out models.Record, key string, rec models.Record, aliases ...string) {
	if d, ok := reconcile.PickDecimal(rec, aliases...); ok {
		out[key] = d.String()
	}
}
