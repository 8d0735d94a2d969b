package reconcile

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-console-api/internal/models"
)

func residentProjector(rec models.Record, kind SourceKind) models.Record {
	out := models.Record{
		"name":       DisplayName(rec),
		"roomNumber": PickString(rec, RoomNumberAliases...),
	}
	if kind == SourceFees {
		out["amountPaid"] = PickString(rec, AmountPaidAliases...)
	}
	return out
}

func TestMergeDraftFeeForUnmatchedAllocation(t *testing.T) {
	m := NewMerger(NewNameFallbackResolver(), residentProjector)
	rows := m.Merge([]Source{
		{Kind: SourceAllocations, Role: RoleExpected, Records: []models.Record{{"studentId": 1, "name": "Ann", "roomNumber": "101"}}},
		{Kind: SourceFees, Role: RoleAuthoritative, Records: nil},
	}, func(row Row) models.Record {
		return models.Record{"amountPaid": "0", "status": "DUE"}
	})

	require.Len(t, rows, 1)
	assert.Equal(t, IdentityKey("1"), rows[0].Key)
	assert.True(t, rows[0].IsDraft)
	assert.Equal(t, "0", rows[0].Fields["amountPaid"])
	assert.Equal(t, "DUE", rows[0].Fields["status"])
	assert.Equal(t, "101", rows[0].Fields["roomNumber"])
}

func TestMergeNonDestructiveFill(t *testing.T) {
	m := NewMerger(NewNameFallbackResolver(), residentProjector)
	rows := m.Merge([]Source{
		{Kind: SourceAllocations, Role: RoleExpected, Records: []models.Record{{"studentId": 1, "name": "Ann", "roomNumber": ""}}},
		{Kind: SourceFees, Role: RoleAuthoritative, Records: []models.Record{{"studentId": "1", "studentName": "Annie", "roomNumber": "202", "amountPaid": "500"}}},
	}, nil)

	require.Len(t, rows, 1)
	assert.False(t, rows[0].IsDraft)
	assert.Equal(t, "Ann", rows[0].Fields["name"])
	assert.Equal(t, "202", rows[0].Fields["roomNumber"])
	assert.Equal(t, "500", rows[0].Fields["amountPaid"])
	assert.Equal(t, []SourceKind{SourceAllocations, SourceFees}, rows[0].Sources)
}

func TestMergeDropsRecordsWithoutIdentity(t *testing.T) {
	var dropped []SourceKind
	m := NewMerger(NewNameFallbackResolver(), residentProjector, WithDropHook(func(kind SourceKind) { dropped = append(dropped, kind) }))
	rows := m.Merge([]Source{
		{Kind: SourceFees, Role: RoleAuthoritative, Records: []models.Record{{"amountPaid": "10"}, {"studentId": 3}}},
	}, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, IdentityKey("3"), rows[0].Key)
	assert.Equal(t, []SourceKind{SourceFees}, dropped)
}

func TestMergeEnrichmentNeverCreatesRows(t *testing.T) {
	m := NewMerger(NewNameFallbackResolver(), nil)
	rows := m.Merge([]Source{
		{Kind: SourceAllocations, Role: RoleAuthoritative, Records: []models.Record{{"studentId": 1}}},
		{Kind: SourceStudents, Role: RoleEnrichment, Records: []models.Record{{"id": 1, "phone": "555"}, {"id": 2, "phone": "777"}}},
	}, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, "555", rows[0].Fields["phone"])
}

func TestMergeInvariantsAndIdempotence(t *testing.T) {
	var allocations, fees, students []models.Record
	for i := 0; i < 30; i++ {
		allocations = append(allocations, models.Record{"studentId": i % 20, "name": fmt.Sprintf("S%d", i%20)})
		if i%3 == 0 {
			fees = append(fees, models.Record{"studentId": fmt.Sprint(i), "amountPaid": "1"})
		}
		students = append(students, models.Record{"name": fmt.Sprintf("S%d", i%25)})
	}
	sources := []Source{
		{Kind: SourceAllocations, Role: RoleExpected, Records: allocations},
		{Kind: SourceFees, Role: RoleAuthoritative, Records: fees},
		{Kind: SourceStudents, Role: RoleExpected, Records: students},
	}
	m := NewMerger(NewNameFallbackResolver(), residentProjector)

	first := m.Merge(sources, func(Row) models.Record { return models.Record{"status": "DUE"} })
	second := m.Merge(sources, func(Row) models.Record { return models.Record{"status": "DUE"} })

	seen := map[IdentityKey]bool{}
	for _, row := range first {
		require.NotEmpty(t, row.Key)
		require.False(t, seen[row.Key], "duplicate key %s", row.Key)
		seen[row.Key] = true
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("merge not idempotent (-first +second):\n%s", diff)
	}
	assert.Equal(t, IdentityKey("0"), first[0].Key)
}

func TestMergeComparator(t *testing.T) {
	m := NewMerger(FieldResolver{Fields: EntityIDAliases}, nil, WithComparator(ByField("roomNumber")))
	rows := m.Merge([]Source{{Kind: SourceRooms, Role: RoleAuthoritative, Records: []models.Record{
		{"id": 1, "roomNumber": "10"},
		{"id": 2, "roomNumber": "2"},
		{"id": 3, "roomNumber": "B1"},
		{"id": 4, "roomNumber": "1"},
	}}}, nil)

	var order []string
	for _, row := range rows {
		order = append(order, PickString(row.Fields, "roomNumber"))
	}
	assert.Equal(t, []string{"1", "2", "10", "B1"}, order)
}
