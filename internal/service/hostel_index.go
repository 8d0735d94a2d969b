package service

import (
	"strings"

	"github.com/noah-isme/hostel-console-api/internal/models"
	"github.com/noah-isme/hostel-console-api/internal/reconcile"
)

// UnknownHostel is displayed when no source names a row's hostel.
const UnknownHostel = "Unknown"

// hostelIndex resolves hostel names for rows that only reference a room or a
// hostel id. Built from the optional rooms and hostels sources.
type hostelIndex struct {
	roomsByID     map[string]models.Record
	roomsByNumber map[string]models.Record
	hostelNames   map[string]string
}

func newHostelIndex(rooms, hostels []models.Record) *hostelIndex {
	idx := &hostelIndex{
		roomsByID:     make(map[string]models.Record, len(rooms)),
		roomsByNumber: make(map[string]models.Record, len(rooms)),
		hostelNames:   make(map[string]string, len(hostels)),
	}
	for _, h := range hostels {
		id := reconcile.PickString(h, reconcile.EntityIDAliases...)
		name := strings.TrimSpace(reconcile.PickString(h, "name", "hostelName", "hostel_name"))
		if id != "" && name != "" {
			idx.hostelNames[id] = name
		}
	}
	for _, r := range rooms {
		if id := reconcile.PickString(r, reconcile.EntityIDAliases...); id != "" {
			idx.roomsByID[id] = r
		}
		if number := reconcile.PickString(r, reconcile.RoomNumberAliases...); number != "" {
			idx.roomsByNumber[number] = r
		}
		if id := reconcile.PickString(r, reconcile.HostelIDAliases...); id != "" {
			if name := strings.TrimSpace(reconcile.PickString(r, reconcile.HostelNameAliases...)); name != "" {
				if _, ok := idx.hostelNames[id]; !ok {
					idx.hostelNames[id] = name
				}
			}
		}
	}
	return idx
}

// resolve returns the hostel id and display name for a record, falling back to
// the record's room and finally to UnknownHostel.
func (h *hostelIndex) resolve(rec models.Record) (string, string) {
	id := reconcile.PickString(rec, reconcile.HostelIDAliases...)
	name := strings.TrimSpace(reconcile.PickString(rec, reconcile.HostelNameAliases...))
	if name != "" {
		return id, name
	}

	if id == "" {
		if room := h.room(rec); room != nil {
			id = reconcile.PickString(room, reconcile.HostelIDAliases...)
			name = strings.TrimSpace(reconcile.PickString(room, reconcile.HostelNameAliases...))
		}
	}
	if name == "" && id != "" {
		name = h.hostelNames[id]
	}
	if name == "" {
		name = UnknownHostel
	}
	return id, name
}

func (h *hostelIndex) room(rec models.Record) models.Record {
	if id := reconcile.PickString(rec, reconcile.RoomIDAliases...); id != "" {
		if room, ok := h.roomsByID[id]; ok {
			return room
		}
	}
	if number := reconcile.PickString(rec, reconcile.RoomNumberAliases...); number != "" {
		if room, ok := h.roomsByNumber[number]; ok {
			return room
		}
	}
	return nil
}
