package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hostel-console-api/internal/dto"
	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
	appErrors "github.com/noah-isme/hostel-console-api/pkg/errors"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

type attendanceClient interface {
	collectionLister
	Patch(ctx context.Context, token string, col upstream.Collection, id string, params url.Values) (models.Record, error)
}

type residentSource interface {
	GetActiveResidents(ctx context.Context, session *models.Session) ([]models.Resident, error)
}

type absenceNotifier interface {
	Notify(target NotificationTarget) error
	State(key, date string) string
}

// RosterView is the attendance roster for one date.
type RosterView struct {
	Date string             `json:"date"`
	Rows []models.RosterRow `json:"rows"`
}

// AttendanceService builds the daily roster and drives the attendance state
// machine: NOT_MARKED drafts become PRESENT or ABSENT through a create, and
// PRESENT/ABSENT switch through a partial update.
type AttendanceService struct {
	client       attendanceClient
	residents    residentSource
	materializer draftMaterializer
	notifier     absenceNotifier
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	resolver     reconcile.Resolver
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(client attendanceClient, residents residentSource, materializer draftMaterializer, notifier absenceNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{
		client:       client,
		residents:    residents,
		materializer: materializer,
		notifier:     notifier,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		resolver:     reconcile.NewNameFallbackResolver(),
	}
}

// Roster returns every active resident for the date, with NOT_MARKED drafts
// for residents that have no attendance record yet.
func (s *AttendanceService) Roster(ctx context.Context, session *models.Session, date string) (*RosterView, error) {
	if err := s.validator.Var(date, "required,datetime=2006-01-02"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be formatted as YYYY-MM-DD")
	}
	entries, err := s.load(ctx, session, date)
	if err != nil {
		return nil, err
	}
	rows := make([]models.RosterRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.roster)
	}
	return &RosterView{Date: date, Rows: rows}, nil
}

// Mark records a status for one student on a date.
func (s *AttendanceService) Mark(ctx context.Context, session *models.Session, req dto.MarkAttendanceRequest) (*models.RosterRow, error) {
	req.Status = models.AttendanceStatus(strings.ToUpper(string(req.Status)))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	entries, err := s.load(ctx, session, req.Date)
	if err != nil {
		return nil, err
	}
	key := req.Key
	if key == "" {
		key = req.StudentID
	}
	entry := findRosterEntry(entries, key)
	if entry == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not on the roster for this date")
	}

	row := entry.roster
	previous := row.Status
	if entry.row.IsDraft {
		fields := models.Record{"date": req.Date, "status": string(req.Status)}
		setString(fields, "studentId", row.StudentID)
		if req.Remarks != nil {
			fields["remarks"] = *req.Remarks
		}
		result, err := s.materializer.Materialize(ctx, session, entry.row, MutationIntent{Plan: AttendancePlan, Fields: fields})
		if err != nil {
			return nil, err
		}
		row.AttendanceID = result.ID
		row.IsDraft = false
	} else {
		if row.AttendanceID == "" {
			return nil, appErrors.Clone(appErrors.ErrConflict, "attendance record has no upstream id")
		}
		params := url.Values{"status": {string(req.Status)}}
		if req.Remarks != nil {
			params.Set("remarks", *req.Remarks)
		}
		if _, err := s.client.Patch(ctx, session.Token, upstream.Attendances, row.AttendanceID, params); err != nil {
			return nil, err
		}
	}

	row.Status = req.Status
	if req.Remarks != nil {
		row.Remarks = *req.Remarks
	}
	if row.Status == models.AttendanceAbsent && previous != models.AttendanceAbsent {
		s.notify(row, entry)
	}
	row.Notification = s.notifier.State(row.Key, row.Date)
	return &row, nil
}

// BulkCreate creates a record for every draft on the roster. It refuses a date
// that already has real records. Failures are isolated per student; an expired
// session stops the batch and returns the partial result with the error.
func (s *AttendanceService) BulkCreate(ctx context.Context, session *models.Session, req dto.BulkAttendanceRequest) (*models.BulkResult, error) {
	req.Status = models.AttendanceStatus(strings.ToUpper(string(req.Status)))
	if req.Status == "" {
		req.Status = models.AttendancePresent
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk attendance payload")
	}

	entries, err := s.load(ctx, session, req.Date)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.row.IsDraft {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("attendance already recorded for %s", req.Date))
		}
	}

	result := &models.BulkResult{}
	var errs error
	for i := range entries {
		e := entries[i]
		result.Processed++
		fields := models.Record{"date": req.Date, "status": string(req.Status)}
		setString(fields, "studentId", e.roster.StudentID)
		setString(fields, "remarks", req.Remarks)

		persisted, err := s.materializer.Materialize(ctx, session, e.row, MutationIntent{Plan: AttendancePlan, Fields: fields})
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, models.BulkFailure{Key: e.roster.Key, Reason: appErrors.FromError(err).Message})
			if errors.Is(err, appErrors.ErrSessionExpired) {
				s.logger.Warn("bulk attendance stopped by expired session",
					zap.String("date", req.Date),
					zap.Int("succeeded", result.Succeeded),
				)
				return result, err
			}
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.roster.Key, err))
			continue
		}
		result.Succeeded++
		if req.Status == models.AttendanceAbsent {
			e.roster.AttendanceID = persisted.ID
			s.notify(e.roster, &e)
		}
	}

	if errs != nil {
		s.logger.Warn("bulk attendance partially failed",
			zap.String("date", req.Date),
			zap.Int("failed", result.Failed),
			zap.Error(errs),
		)
	}
	return result, nil
}

// NotificationState returns the delivery state for a roster row.
func (s *AttendanceService) NotificationState(req dto.NotificationRequest) (*dto.NotificationStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification query")
	}
	key := req.RowKey()
	return &dto.NotificationStatus{Key: key, Date: req.Date, State: s.notifier.State(key, req.Date)}, nil
}

// ResendNotification re-sends the absence notification for an absent student.
func (s *AttendanceService) ResendNotification(ctx context.Context, session *models.Session, req dto.NotificationRequest) (*dto.NotificationStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	entries, err := s.load(ctx, session, req.Date)
	if err != nil {
		return nil, err
	}
	entry := findRosterEntry(entries, req.RowKey())
	if entry == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not on the roster for this date")
	}
	if entry.roster.Status != models.AttendanceAbsent {
		return nil, appErrors.Clone(appErrors.ErrConflict, "notifications are only sent for absent students")
	}
	if err := s.notifier.Notify(notificationTarget(entry.roster, entry)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "notification could not be queued")
	}
	key := entry.roster.Key
	return &dto.NotificationStatus{Key: key, Date: req.Date, State: s.notifier.State(key, req.Date)}, nil
}

type rosterEntry struct {
	row    reconcile.Row
	roster models.RosterRow
}

func (s *AttendanceService) load(ctx context.Context, session *models.Session, date string) ([]rosterEntry, error) {
	var (
		residents []models.Resident
		records   []models.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		residents, err = s.residents.GetActiveResidents(gctx, session)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.client.List(gctx, session.Token, upstream.Attendances, url.Values{"date": {date}})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merger := reconcile.NewMerger(s.resolver, projectAttendance,
		reconcile.WithLogger(s.logger),
		reconcile.WithDropHook(dropHook(s.metrics)),
		reconcile.WithComparator(reconcile.ByField("roomNumber")),
	)
	rows := merger.Merge([]reconcile.Source{
		{Kind: reconcile.SourceAttendance, Role: reconcile.RoleAuthoritative, Records: onDate(records, date)},
		{Kind: reconcile.SourceAllocations, Role: reconcile.RoleExpected, Records: residentRecords(residents)},
	}, func(reconcile.Row) models.Record {
		return models.Record{"status": string(models.AttendanceNotMarked), "date": date}
	})

	entries := make([]rosterEntry, 0, len(rows))
	drafts := 0
	for _, row := range rows {
		if row.IsDraft {
			drafts++
		}
		roster := toRosterRow(row, date)
		roster.Notification = s.notifier.State(roster.Key, date)
		entries = append(entries, rosterEntry{row: row, roster: roster})
	}
	s.metrics.ObserveMerge("attendance", len(rows), drafts)
	return entries, nil
}

func (s *AttendanceService) notify(row models.RosterRow, entry *rosterEntry) {
	if err := s.notifier.Notify(notificationTarget(row, entry)); err != nil {
		s.logger.Warn("absence notification failed to start", zap.String("identity_key", row.Key), zap.Error(err))
	}
}

func notificationTarget(row models.RosterRow, entry *rosterEntry) NotificationTarget {
	return NotificationTarget{
		Key:         row.Key,
		Date:        row.Date,
		StudentName: row.StudentName,
		ParentPhone: reconcile.PickString(entry.row.Fields, "parentPhone"),
	}
}

func projectAttendance(rec models.Record, kind reconcile.SourceKind) models.Record {
	out := models.Record{}
	setString(out, "studentId", reconcile.PickString(rec, reconcile.StudentIDAliases...))
	setString(out, "studentName", reconcile.DisplayName(rec))
	setString(out, "roomNumber", reconcile.PickString(rec, reconcile.RoomNumberAliases...))
	setString(out, "hostelName", reconcile.PickString(rec, reconcile.HostelNameAliases...))
	setString(out, "parentPhone", reconcile.PickString(rec, reconcile.ParentPhoneAliases...))
	if kind == reconcile.SourceAttendance {
		setString(out, "attendanceId", reconcile.PickString(rec, reconcile.AttendanceIDAliases...))
		setString(out, "status", strings.ToUpper(reconcile.PickString(rec, reconcile.AttendanceStatusAliases...)))
		setString(out, "remarks", reconcile.PickString(rec, reconcile.RemarksAliases...))
		setString(out, "date", attendanceDate(rec))
	}
	return out
}

func toRosterRow(row reconcile.Row, date string) models.RosterRow {
	f := row.Fields
	hostel := reconcile.PickString(f, "hostelName")
	if hostel == "" {
		hostel = UnknownHostel
	}
	status := models.AttendanceStatus(reconcile.PickString(f, "status"))
	if status == "" {
		status = models.AttendanceNotMarked
	}
	return models.RosterRow{
		Key:          string(row.Key),
		AttendanceID: reconcile.PickString(f, "attendanceId"),
		StudentID:    reconcile.PickString(f, "studentId"),
		StudentName:  reconcile.PickString(f, "studentName"),
		RoomNumber:   reconcile.PickString(f, "roomNumber"),
		HostelName:   hostel,
		Date:         date,
		Status:       status,
		Remarks:      reconcile.PickString(f, "remarks"),
		IsDraft:      row.IsDraft,
	}
}

func residentRecords(residents []models.Resident) []models.Record {
	out := make([]models.Record, 0, len(residents))
	for _, r := range residents {
		rec := models.Record{}
		setString(rec, "studentId", r.StudentID)
		setString(rec, "studentName", r.Name)
		setString(rec, "roomNumber", r.RoomNumber)
		setString(rec, "hostelName", r.HostelName)
		setString(rec, "parentPhone", r.ParentPhone)
		out = append(out, rec)
	}
	return out
}

// onDate keeps records for the date. Records without a date are kept since the
// upstream query was already filtered by date.
func onDate(records []models.Record, date string) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if d := attendanceDate(rec); d == "" || d == date {
			out = append(out, rec)
		}
	}
	return out
}

func attendanceDate(rec models.Record) string {
	d := reconcile.PickString(rec, reconcile.AttendanceDateAliases...)
	if len(d) > 10 {
		d = d[:10]
	}
	return d
}

func findRosterEntry(entries []rosterEntry, key string) *rosterEntry {
	for i := range entries {
		if entries[i].roster.Key == key {
			return &entries[i]
		}
	}
	for i := range entries {
		if key != "" && entries[i].roster.StudentID == key {
			return &entries[i]
		}
	}
	return nil
}
