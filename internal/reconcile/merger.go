package reconcile

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-console-api/internal/models"
)

// Role describes what a source contributes to the merged view.
type Role int

const (
	// RoleAuthoritative rows are persisted entities.
	RoleAuthoritative Role = iota
	// RoleExpected entities must appear; unmatched ones become drafts.
	RoleExpected
	// RoleEnrichment only fills gaps in rows created by other sources.
	RoleEnrichment
)

// Source is one upstream collection taking part in a merge.
type Source struct {
	Kind    SourceKind
	Role    Role
	Records []models.Record
}

// Row is one merged entity.
type Row struct {
	Key     IdentityKey
	Fields  models.Record
	IsDraft bool
	Sources []SourceKind
}

// Projector maps a raw record onto the logical fields of the view.
type Projector func(rec models.Record, kind SourceKind) models.Record

// PlaceholderFunc synthesizes the attributes of a draft row.
type PlaceholderFunc func(row Row) models.Record

// Option configures a Merger.
type Option func(*Merger)

// WithComparator sorts merged rows with a stable sort after merging.
func WithComparator(less func(a, b Row) bool) Option {
	return func(m *Merger) { m.less = less }
}

// WithLogger sets the logger used for dropped-record warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDropHook is called for every record dropped for lack of identity.
func WithDropHook(hook func(kind SourceKind)) Option {
	return func(m *Merger) { m.onDrop = hook }
}

// Merger combines records from several sources into one row per identity.
type Merger struct {
	resolver Resolver
	project  Projector
	less     func(a, b Row) bool
	logger   *zap.Logger
	onDrop   func(kind SourceKind)
}

// NewMerger constructs a Merger. A nil projector keeps records as-is.
func NewMerger(resolver Resolver, project Projector, opts ...Option) *Merger {
	m := &Merger{resolver: resolver, project: project, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge walks sources in priority order and returns rows in first-seen order
// (or comparator order when configured). Later sources only fill absent fields.
// Rows with no authoritative record get placeholder attributes and IsDraft.
func (m *Merger) Merge(sources []Source, placeholder PlaceholderFunc) []Row {
	var (
		rows          []Row
		index         = map[IdentityKey]int{}
		authoritative = map[IdentityKey]bool{}
	)

	for _, src := range sources {
		for _, rec := range src.Records {
			key, ok := m.resolver.Resolve(rec, src.Kind)
			if !ok || key == "" {
				m.logger.Warn("dropping record without identity",
					zap.String("source", string(src.Kind)),
					zap.Any("record", rec),
				)
				if m.onDrop != nil {
					m.onDrop(src.Kind)
				}
				continue
			}

			fields := m.projectRecord(rec, src.Kind)
			pos, seen := index[key]
			switch {
			case seen:
				fill(rows[pos].Fields, fields)
				rows[pos].Sources = appendKind(rows[pos].Sources, src.Kind)
			case src.Role == RoleEnrichment:
				continue
			default:
				index[key] = len(rows)
				rows = append(rows, Row{Key: key, Fields: fields, Sources: []SourceKind{src.Kind}})
			}
			if src.Role == RoleAuthoritative {
				authoritative[key] = true
			}
		}
	}

	for i := range rows {
		if authoritative[rows[i].Key] {
			continue
		}
		rows[i].IsDraft = true
		if placeholder != nil {
			fill(rows[i].Fields, placeholder(rows[i]))
		}
	}

	if m.less != nil {
		sort.SliceStable(rows, func(i, j int) bool { return m.less(rows[i], rows[j]) })
	}
	return rows
}

func (m *Merger) projectRecord(rec models.Record, kind SourceKind) models.Record {
	if m.project == nil {
		return rec.Clone()
	}
	projected := m.project(rec, kind)
	if projected == nil {
		return models.Record{}
	}
	return projected
}

// fill copies values from src into dst without overwriting present values.
func fill(dst, src models.Record) {
	for k, v := range src {
		if isEmpty(v) {
			continue
		}
		if existing, ok := dst[k]; ok && !isEmpty(existing) {
			continue
		}
		dst[k] = v
	}
}

func appendKind(kinds []SourceKind, kind SourceKind) []SourceKind {
	for _, k := range kinds {
		if k == kind {
			return kinds
		}
	}
	return append(kinds, kind)
}
