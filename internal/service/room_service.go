package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

var sharingWords = map[string]int{
	"SINGLE": 1, "ONE": 1,
	"DOUBLE": 2, "TWO": 2, "TWIN": 2,
	"TRIPLE": 3, "THREE": 3,
	"QUAD": 4, "FOUR": 4,
	"FIVE": 5,
	"SIX": 6,
}

var digitsPattern = regexp.MustCompile(`\d+`)

// RoomView is the rooms table.
type RoomView struct {
	Rooms           []models.RoomRow
	DegradedSources []string
}

// RoomService serves the rooms table with inferred capacity and derived status.
type RoomService struct {
	client   collectionLister
	metrics  *MetricsService
	logger   *zap.Logger
	resolver reconcile.Resolver
}

// NewRoomService constructs a RoomService.
func NewRoomService(client collectionLister, metrics *MetricsService, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{
		client:   client,
		metrics:  metrics,
		logger:   logger,
		resolver: reconcile.FieldResolver{Fields: reconcile.EntityIDAliases},
	}
}

// List returns rooms ordered naturally by room number.
func (s *RoomService) List(ctx context.Context, session *models.Session) (*RoomView, error) {
	set, err := fetchSources(ctx, s.client, s.metrics, s.logger, session.Token,
		critical(upstream.Rooms),
		optional(upstream.Hostels),
		optional(upstream.Allocations),
	)
	if err != nil {
		return nil, err
	}

	merger := reconcile.NewMerger(s.resolver, nil,
		reconcile.WithLogger(s.logger),
		reconcile.WithDropHook(dropHook(s.metrics)),
		reconcile.WithComparator(reconcile.ByField("roomNumber")),
	)
	rows := merger.Merge([]reconcile.Source{
		{Kind: reconcile.SourceRooms, Role: reconcile.RoleAuthoritative, Records: normalizeRooms(set.get(upstream.Rooms))},
	}, nil)

	occupancy := countOccupancy(set.get(upstream.Allocations))
	hostels := newHostelIndex(nil, set.get(upstream.Hostels))
	rooms := make([]models.RoomRow, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, toRoomRow(row, hostels, occupancy))
	}
	s.metrics.ObserveMerge("rooms", len(rows), 0)
	return &RoomView{Rooms: rooms, DegradedSources: set.degraded}, nil
}

// normalizeRooms exposes the room number under one name for sorting.
func normalizeRooms(records []models.Record) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		clone := rec.Clone()
		if number := reconcile.PickString(rec, reconcile.RoomNumberAliases...); number != "" {
			clone["roomNumber"] = number
		}
		out = append(out, clone)
	}
	return out
}

func toRoomRow(row reconcile.Row, hostels *hostelIndex, occupancy roomOccupancy) models.RoomRow {
	f := row.Fields
	hostelID, hostelName := hostels.resolve(f)
	sharing := reconcile.PickString(f, reconcile.SharingTypeAliases...)

	capacity, ok := reconcile.PickInt(f, reconcile.CapacityAliases...)
	if !ok {
		capacity = CapacityFromSharing(sharing)
	}
	occupied, ok := reconcile.PickInt(f, reconcile.OccupiedAliases...)
	if !ok {
		occupied = occupancy.count(string(row.Key), reconcile.PickString(f, "roomNumber"))
	}

	return models.RoomRow{
		ID:          string(row.Key),
		RoomNumber:  reconcile.PickString(f, "roomNumber"),
		HostelID:    hostelID,
		HostelName:  hostelName,
		SharingType: sharing,
		Capacity:    capacity,
		Occupied:    occupied,
		Status:      models.DeriveRoomStatus(occupied, capacity),
	}
}

// CapacityFromSharing infers beds from a sharing type such as "DOUBLE",
// "Triple Sharing" or "4-SHARING". Unknown types report zero.
func CapacityFromSharing(sharing string) int {
	upper := strings.ToUpper(strings.TrimSpace(sharing))
	if upper == "" {
		return 0
	}
	for _, word := range strings.FieldsFunc(upper, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}) {
		if n, ok := sharingWords[word]; ok {
			return n
		}
	}
	if digits := digitsPattern.FindString(upper); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			return n
		}
	}
	return 0
}

type roomOccupancy struct {
	byID     map[string]int
	byNumber map[string]int
}

// countOccupancy counts active allocations per room id and per room number.
func countOccupancy(allocations []models.Record) roomOccupancy {
	occ := roomOccupancy{byID: map[string]int{}, byNumber: map[string]int{}}
	for _, rec := range allocations {
		if allocationStatus(rec) != models.ResidentActive {
			continue
		}
		if id := reconcile.PickString(rec, reconcile.RoomIDAliases...); id != "" {
			occ.byID[id]++
			continue
		}
		if number := reconcile.PickString(rec, reconcile.RoomNumberAliases...); number != "" {
			occ.byNumber[number]++
		}
	}
	return occ
}

func (o roomOccupancy) count(id, number string) int {
	return o.byID[id] + o.byNumber[number]
}
