package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/pkg/upstream"
)

func TestCapacityFromSharing(t *testing.T) {
	cases := map[string]int{
		"SINGLE":         1,
		"double":         2,
		"Triple Sharing": 3,
		"FOUR_SHARING":   4,
		"quad":           4,
		"6-SHARING":      6,
		"":               0,
		"DORMITORY":      0,
	}
	for in, want := range cases {
		assert.Equal(t, want, CapacityFromSharing(in), in)
	}
}

func TestRoomServiceListDerivesStatusAndSorts(t *testing.T) {
	up := newFakeUpstream()
	up.lists[upstream.Rooms] = []models.Record{
		{"id": "r10", "roomNumber": "10", "sharingType": "DOUBLE", "hostelId": "h1"},
		{"id": "r2", "room_number": "2", "capacity": json.Number("1"), "occupied": json.Number("1")},
		{"id": "r9", "roomNumber": "9", "sharingType": "TRIPLE", "hostel": map[string]interface{}{"name": "South"}},
		{"roomNumber": "no-id"},
	}
	up.lists[upstream.Hostels] = []models.Record{{"id": "h1", "name": "North"}}
	up.lists[upstream.Allocations] = []models.Record{
		{"roomId": "r10", "status": "ACTIVE"},
		{"roomId": "r10", "status": "CHECKED_OUT"},
		{"roomNumber": "9"},
	}
	svc := NewRoomService(up, nil, nil)

	view, err := svc.List(context.Background(), testSession())
	require.NoError(t, err)
	require.Len(t, view.Rooms, 3)

	assert.Equal(t, []string{"2", "9", "10"}, []string{view.Rooms[0].RoomNumber, view.Rooms[1].RoomNumber, view.Rooms[2].RoomNumber})

	assert.Equal(t, models.RoomFull, view.Rooms[0].Status)
	assert.Equal(t, UnknownHostel, view.Rooms[0].HostelName)

	assert.Equal(t, 3, view.Rooms[1].Capacity)
	assert.Equal(t, 1, view.Rooms[1].Occupied)
	assert.Equal(t, models.RoomPartiallyFilled, view.Rooms[1].Status)
	assert.Equal(t, "South", view.Rooms[1].HostelName)

	assert.Equal(t, 2, view.Rooms[2].Capacity)
	assert.Equal(t, 1, view.Rooms[2].Occupied)
	assert.Equal(t, "North", view.Rooms[2].HostelName)
}

func TestRoomServiceEmptyRoomIsAvailable(t *testing.T) {
	up := newFakeUpstream()
	up.lists[upstream.Rooms] = []models.Record{{"id": "r1", "roomNumber": "1", "sharingType": "SINGLE"}}
	up.listErrs[upstream.Allocations] = assert.AnError
	svc := NewRoomService(up, nil, nil)

	view, err := svc.List(context.Background(), testSession())
	require.NoError(t, err)
	assert.Equal(t, []string{"allocations"}, view.DegradedSources)
	require.Len(t, view.Rooms, 1)
	assert.Equal(t, models.RoomAvailable, view.Rooms[0].Status)
}
