package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

const residentCacheKey = "residents:directory"

// ResidentView is the merged resident list with the sources that degraded.
type ResidentView struct {
	Residents       []models.Resident
	DegradedSources []string
	Cached          bool
}

type residentSnapshot struct {
	Residents []models.Resident `json:"residents"`
}

// ResidentDirectory is the shared read-through resident list. Allocations are
// authoritative; students without an allocation appear as drafts.
type ResidentDirectory struct {
	client   collectionLister
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	ttl      time.Duration
	resolver reconcile.Resolver
}

// NewResidentDirectory constructs the directory. A nil cache disables caching.
func NewResidentDirectory(client collectionLister, cache *CacheService, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *ResidentDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResidentDirectory{
		client:   client,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		ttl:      ttl,
		resolver: reconcile.NewNameFallbackResolver(),
	}
}

// List returns the merged directory, optionally including draft residents.
func (d *ResidentDirectory) List(ctx context.Context, session *models.Session, includeDrafts bool) (*ResidentView, error) {
	view, err := d.load(ctx, session, false)
	if err != nil {
		return nil, err
	}
	if !includeDrafts {
		view.Residents = activeOnly(view.Residents)
	}
	return view, nil
}

// GetActiveResidents returns allocation-backed residents whose allocation is active.
func (d *ResidentDirectory) GetActiveResidents(ctx context.Context, session *models.Session) ([]models.Resident, error) {
	view, err := d.load(ctx, session, false)
	if err != nil {
		return nil, err
	}
	return activeOnly(view.Residents), nil
}

// Refresh drops the cached directory and reloads it from upstream.
func (d *ResidentDirectory) Refresh(ctx context.Context, session *models.Session) (*ResidentView, error) {
	d.Invalidate(ctx)
	view, err := d.load(ctx, session, true)
	if err != nil {
		return nil, err
	}
	view.Residents = activeOnly(view.Residents)
	return view, nil
}

// Invalidate drops the cached directory. Failures are logged by the cache service.
func (d *ResidentDirectory) Invalidate(ctx context.Context) {
	_ = d.cache.Invalidate(ctx, residentCacheKey)
}

func (d *ResidentDirectory) load(ctx context.Context, session *models.Session, skipCache bool) (*ResidentView, error) {
	if !skipCache {
		var snapshot residentSnapshot
		if hit, _ := d.cache.Get(ctx, residentCacheKey, &snapshot); hit {
			return &ResidentView{Residents: snapshot.Residents, Cached: true}, nil
		}
	}

	set, err := fetchSources(ctx, d.client, d.metrics, d.logger, session.Token,
		critical(upstream.Allocations),
		optional(upstream.Students),
		optional(upstream.Rooms),
		optional(upstream.Hostels),
	)
	if err != nil {
		return nil, err
	}

	residents := d.merge(set)
	if len(set.degraded) == 0 {
		_ = d.cache.Set(ctx, residentCacheKey, residentSnapshot{Residents: residents}, d.ttl)
	}
	return &ResidentView{Residents: residents, DegradedSources: set.degraded}, nil
}

func (d *ResidentDirectory) merge(set *sourceSet) []models.Resident {
	merger := reconcile.NewMerger(d.resolver, projectResident,
		reconcile.WithLogger(d.logger),
		reconcile.WithDropHook(dropHook(d.metrics)),
	)
	rows := merger.Merge([]reconcile.Source{
		{Kind: reconcile.SourceAllocations, Role: reconcile.RoleAuthoritative, Records: currentAllocations(set.get(upstream.Allocations), d.resolver)},
		{Kind: reconcile.SourceStudents, Role: reconcile.RoleExpected, Records: set.get(upstream.Students)},
	}, nil)

	hostels := newHostelIndex(set.get(upstream.Rooms), set.get(upstream.Hostels))
	residents := make([]models.Resident, 0, len(rows))
	drafts := 0
	for _, row := range rows {
		if row.IsDraft {
			drafts++
		}
		residents = append(residents, toResident(row, hostels))
	}
	d.metrics.ObserveMerge("residents", len(rows), drafts)
	return residents
}

func projectResident(rec models.Record, kind reconcile.SourceKind) models.Record {
	out := models.Record{}
	studentID := reconcile.PickString(rec, reconcile.StudentIDAliases...)
	if studentID == "" && kind == reconcile.SourceStudents {
		studentID = reconcile.PickString(rec, "id", "userId", "user_id")
	}
	first := reconcile.PickString(rec, reconcile.FirstNameAliases...)
	last := reconcile.PickString(rec, reconcile.LastNameAliases...)
	name := reconcile.DisplayName(rec)
	if first == "" && last == "" {
		first, last = reconcile.SplitName(name)
	}

	setString(out, "studentId", studentID)
	setString(out, "studentName", name)
	setString(out, "firstName", first)
	setString(out, "lastName", last)
	setString(out, "roomId", reconcile.PickString(rec, reconcile.RoomIDAliases...))
	setString(out, "roomNumber", reconcile.PickString(rec, reconcile.RoomNumberAliases...))
	setString(out, "hostelId", reconcile.PickString(rec, reconcile.HostelIDAliases...))
	setString(out, "hostelName", reconcile.PickString(rec, reconcile.HostelNameAliases...))
	setString(out, "phone", reconcile.PickString(rec, reconcile.PhoneAliases...))
	setString(out, "parentPhone", reconcile.PickString(rec, reconcile.ParentPhoneAliases...))
	if kind == reconcile.SourceAllocations {
		setString(out, "allocationId", reconcile.PickString(rec, reconcile.AllocationIDAliases...))
		setString(out, "status", string(allocationStatus(rec)))
	}
	return out
}

func toResident(row reconcile.Row, hostels *hostelIndex) models.Resident {
	f := row.Fields
	hostelID, hostelName := hostels.resolve(f)
	return models.Resident{
		Key:          string(row.Key),
		StudentID:    reconcile.PickString(f, "studentId"),
		Name:         reconcile.PickString(f, "studentName"),
		FirstName:    reconcile.PickString(f, "firstName"),
		LastName:     reconcile.PickString(f, "lastName"),
		AllocationID: reconcile.PickString(f, "allocationId"),
		RoomID:       reconcile.PickString(f, "roomId"),
		RoomNumber:   reconcile.PickString(f, "roomNumber"),
		HostelID:     hostelID,
		HostelName:   hostelName,
		Phone:        reconcile.PickString(f, "phone"),
		ParentPhone:  reconcile.PickString(f, "parentPhone"),
		Status:       models.ResidentStatus(reconcile.PickString(f, "status")),
		IsDraft:      row.IsDraft,
	}
}

// allocationStatus normalizes the allocation flag. A missing status counts as
// active since allocations are created active and only later checked out.
func allocationStatus(rec models.Record) models.ResidentStatus {
	raw := strings.ToUpper(strings.TrimSpace(reconcile.PickString(rec, reconcile.AllocationStatusAliases...)))
	raw = strings.ReplaceAll(raw, " ", "_")
	switch models.ResidentStatus(raw) {
	case "":
		return models.ResidentActive
	case models.ResidentCheckedOut, "CHECKEDOUT", "VACATED":
		return models.ResidentCheckedOut
	default:
		return models.ResidentStatus(raw)
	}
}

// currentAllocations drops historical allocations of students that hold an
// active one, so fields from a room they left never fill the current row.
// Students with only historical allocations keep all of them.
func currentAllocations(records []models.Record, resolver reconcile.Resolver) []models.Record {
	active := make(map[reconcile.IdentityKey]struct{})
	for _, rec := range records {
		if allocationStatus(rec) != models.ResidentActive {
			continue
		}
		if key, ok := resolver.Resolve(rec, reconcile.SourceAllocations); ok {
			active[key] = struct{}{}
		}
	}

	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if allocationStatus(rec) != models.ResidentActive {
			if key, ok := resolver.Resolve(rec, reconcile.SourceAllocations); ok {
				if _, held := active[key]; held {
					continue
				}
			}
		}
		out = append(out, rec)
	}
	return out
}

func activeOnly(residents []models.Resident) []models.Resident {
	out := make([]models.Resident, 0, len(residents))
	for _, r := range residents {
		if !r.IsDraft && r.Status == models.ResidentActive {
			out = append(out, r)
		}
	}
	return out
}

func dropHook(metrics *MetricsService) func(reconcile.SourceKind) {
	return func(kind reconcile.SourceKind) {
		metrics.RecordDroppedRecord(string(kind))
	}
}

func setString(rec models.Record, key, value string) {
	if strings.TrimSpace(value) != "" {
		rec[key] = value
	}
}
