// Package render lays typed records out into a page-independent document model and
// writes that model as PDF or XLSX.
package render

import (
	"slices"
	"time"

	"github.com/agstack/OpenAgri-ReportingService/models"
)

// Document is a format-independent report layout.
type Document struct {
	Name        string // file name stem, e.g. "irrigations"
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Sections    []Section
}

// Section is a heading followed by any of: paragraphs, a key/value block, a table.
type Section struct {
	Heading string
	Text    []string
	Details []Field
	Table   *Table
}

type Field struct {
	Label string
	Value string
}

// Table holds pre-formatted cells. Rows may be empty, in which case only the header is drawn.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Cells returns every value cell of the document, for inspection.
func (d *Document) Cells() []string {
	var out []string
	for _, s := range d.Sections {
		for _, f := range s.Details {
			out = append(out, f.Value)
		}
		if s.Table != nil {
			for _, row := range s.Table.Rows {
				out = append(out, row...)
			}
		}
	}
	return out
}

// Options carry per-request rendering inputs.
type Options struct {
	GeneratedAt time.Time
	// Enrichment is shown in single-record detail layouts when set.
	Enrichment *models.Enrichment
	// Period is the date filter the records were selected with, shown under the title.
	Period *models.Period
}

func (o Options) subtitle() string {
	p := o.Period
	if p == nil || (p.Begin == nil && p.End == nil) {
		return ""
	}
	switch {
	case p.End == nil:
		return "Period: from " + date(p.Begin)
	case p.Begin == nil:
		return "Period: until " + date(p.End)
	}
	return "Period: " + date(p.Begin) + " - " + date(p.End)
}

func (o Options) generatedAt() time.Time {
	if o.GeneratedAt.IsZero() {
		return time.Now().UTC()
	}
	return o.GeneratedAt
}

// Mode is the layout chosen for a list of records.
type Mode int

const (
	ModeEmpty    Mode = iota // header only
	ModeSingle               // vertical key/value detail
	ModeMultiple             // one table row per record
)

func ModeFor(n int) Mode {
	switch {
	case n == 0:
		return ModeEmpty
	case n == 1:
		return ModeSingle
	default:
		return ModeMultiple
	}
}

// SortByTime returns a copy of items ordered by key ascending. Items without a key
// come first; ties keep their input order.
func SortByTime[T any](items []T, key func(T) *time.Time) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka == nil && kb == nil:
			return 0
		case ka == nil:
			return -1
		case kb == nil:
			return 1
		default:
			return ka.Compare(*kb)
		}
	})
	return out
}

// recordLayout describes how one record kind is shown in each mode.
type recordLayout[T any] struct {
	heading string
	columns []string
	row     func(T) []string
	// detail lists the single-record fields; nil means the table columns.
	detail  func(T) []Field
	sortKey func(T) *time.Time
}

func (l recordLayout[T]) section(records []T, opts Options) Section {
	s := Section{Heading: l.heading}
	switch ModeFor(len(records)) {
	case ModeEmpty:
		s.Table = &Table{Columns: l.columns}
	case ModeSingle:
		s.Details = l.details(records[0])
		if e := opts.Enrichment; e != nil {
			s.Details = append(s.Details,
				Field{Label: "Farm", Value: e.FarmName},
				Field{Label: "Parcel", Value: e.ParcelID},
				Field{Label: "Address", Value: e.Address},
			)
		}
	default:
		sorted := records
		if l.sortKey != nil {
			sorted = SortByTime(records, l.sortKey)
		}
		rows := make([][]string, 0, len(sorted))
		for _, r := range sorted {
			rows = append(rows, l.row(r))
		}
		s.Table = &Table{Columns: l.columns, Rows: rows}
	}
	return s
}

func (l recordLayout[T]) details(rec T) []Field {
	if l.detail != nil {
		return l.detail(rec)
	}
	row := l.row(rec)
	out := make([]Field, len(l.columns))
	for i, c := range l.columns {
		out[i] = Field{Label: c, Value: row[i]}
	}
	return out
}
