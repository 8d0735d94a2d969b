package reconcile

import (
	"strings"

	"github.com/noah-isme/hostel-console-api/internal/models"
)

// IdentityKey is the best-effort identity of a merged row.
type IdentityKey string

// SourceKind names the upstream collection a record came from.
type SourceKind string

const (
	SourceAllocations SourceKind = "allocations"
	SourceFees        SourceKind = "fees"
	SourceStudents    SourceKind = "students"
	SourceAttendance  SourceKind = "attendance"
	SourceRooms       SourceKind = "rooms"
	SourceHostels     SourceKind = "hostels"
)

// Resolver produces the identity key of a record. Implementations are swappable
// so a stronger backend-assigned identity can replace the name heuristic without
// touching the Merger.
type Resolver interface {
	Resolve(rec models.Record, kind SourceKind) (IdentityKey, bool)
}

// NameFallbackResolver resolves residents by studentId, then nested student.id,
// then a source-specific id, then the trimmed display name. Two students sharing
// a name and lacking ids resolve to the same key; that false merge is accepted.
type NameFallbackResolver struct {
	SourceIDs map[SourceKind][]string
}

// NewNameFallbackResolver returns the resident resolver. Only the bare student
// list carries a source id that identifies a resident; a fee or allocation id
// names the fee or allocation itself and would never match across sources.
func NewNameFallbackResolver() *NameFallbackResolver {
	return &NameFallbackResolver{SourceIDs: map[SourceKind][]string{
		SourceStudents: {"id", "userId", "user_id"},
	}}
}

// Resolve implements Resolver.
func (r *NameFallbackResolver) Resolve(rec models.Record, kind SourceKind) (IdentityKey, bool) {
	if key, ok := resolveIDs(rec, kind, r.SourceIDs); ok {
		return key, true
	}
	if name := DisplayName(rec); name != "" {
		return IdentityKey(name), true
	}
	return "", false
}

// StrictResolver is NameFallbackResolver without the name heuristic.
type StrictResolver struct {
	SourceIDs map[SourceKind][]string
}

// Resolve implements Resolver.
func (r *StrictResolver) Resolve(rec models.Record, kind SourceKind) (IdentityKey, bool) {
	return resolveIDs(rec, kind, r.SourceIDs)
}

// FieldResolver keys records by their own backend id, for collections such as
// rooms whose identity is the record itself.
type FieldResolver struct {
	Fields []string
}

// Resolve implements Resolver.
func (r FieldResolver) Resolve(rec models.Record, _ SourceKind) (IdentityKey, bool) {
	if id := strings.TrimSpace(PickString(rec, r.Fields...)); id != "" {
		return IdentityKey(id), true
	}
	return "", false
}

func resolveIDs(rec models.Record, kind SourceKind, sourceIDs map[SourceKind][]string) (IdentityKey, bool) {
	if id := strings.TrimSpace(PickString(rec, StudentIDAliases...)); id != "" {
		return IdentityKey(id), true
	}
	if fields := sourceIDs[kind]; len(fields) > 0 {
		if id := strings.TrimSpace(PickString(rec, fields...)); id != "" {
			return IdentityKey(id), true
		}
	}
	return "", false
}
