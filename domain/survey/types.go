package survey

import (
	"fmt"
	"strconv"

	"surveystat/domain/core"
)

// NullFloat is an optional number. Missing values carry Valid=false and are
// never confused with zero.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Missing returns the missing marker.
func Missing() NullFloat { return NullFloat{} }

// Float wraps a present value.
func Float(v float64) NullFloat { return NullFloat{Float64: v, Valid: true} }

// String renders the value with strconv's shortest form, or "" when missing.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

// Format renders the value with a fixed number of decimals, or "" when missing.
func (n NullFloat) Format(decimals int) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Float64, 'f', decimals, 64)
}

// Segment identifies a sub-population. "All" is an ordinary value, not a wildcard.
type Segment struct {
	Cut    string `yaml:"cut" mapstructure:"cut"`
	Subcut string `yaml:"subcut" mapstructure:"subcut"`
}

// WholeSample is the (All, All) segment.
var WholeSample = Segment{Cut: "All", Subcut: "All"}

func (s Segment) String() string {
	return fmt.Sprintf("%s: %s", s.Cut, s.Subcut)
}

// Record is one row of the long-format indicator table.
type Record struct {
	Country     string
	Year        string
	Cut         string
	Subcut      string
	Indicator   core.IndicatorCode
	Topic       string
	EnglishName string
	Value       NullFloat
	SE          NullFloat
	N           NullFloat
	Method      string
}

// Segment returns the record's (cut, subcut) key.
func (r Record) Segment() Segment {
	return Segment{Cut: r.Cut, Subcut: r.Subcut}
}

// Table is an ordered, read-only set of records. Stages derive new tables
// instead of mutating one.
type Table struct {
	source  string
	header  []string
	records []Record
}

// NewTable copies header and records into a new table.
func NewTable(source string, header []string, records []Record) *Table {
	h := make([]string, len(header))
	copy(h, header)
	rs := make([]Record, len(records))
	copy(rs, records)
	return &Table{source: source, header: h, records: rs}
}

// Source names where the table was read from.
func (t *Table) Source() string { return t.source }

// Header returns a copy of the source column names.
func (t *Table) Header() []string {
	h := make([]string, len(t.header))
	copy(h, t.header)
	return h
}

// Len is the record count.
func (t *Table) Len() int { return len(t.records) }

// At returns the i-th record by value.
func (t *Table) At(i int) Record { return t.records[i] }

// Each calls fn for every record in order until fn returns false.
func (t *Table) Each(fn func(i int, r Record) bool) {
	for i, r := range t.records {
		if !fn(i, r) {
			return
		}
	}
}

// Filter derives a table holding the records keep accepts.
func (t *Table) Filter(keep func(Record) bool) *Table {
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table{source: t.source, header: t.header, records: out}
}

// Descriptor describes one indicator code.
type Descriptor struct {
	Code        core.IndicatorCode `yaml:"code"`
	Topic       string             `yaml:"topic,omitempty"`
	EnglishName string             `yaml:"english_name,omitempty"`
	Label       string             `yaml:"label,omitempty"`
}

// DisplayName prefers the short label, then the English name, then the code.
func (d Descriptor) DisplayName() string {
	switch {
	case d.Label != "":
		return d.Label
	case d.EnglishName != "":
		return d.EnglishName
	default:
		return d.Code.String()
	}
}

// Catalog maps indicator codes to descriptors, remembering insertion order.
type Catalog struct {
	order   []core.IndicatorCode
	entries map[core.IndicatorCode]Descriptor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[core.IndicatorCode]Descriptor)}
}

// Add merges d into the catalog. Non-empty fields of d override, empty ones keep
// what is already known.
func (c *Catalog) Add(d Descriptor) {
	if d.Code == "" {
		return
	}
	existing, ok := c.entries[d.Code]
	if !ok {
		c.order = append(c.order, d.Code)
		c.entries[d.Code] = d
		return
	}
	if d.Topic != "" {
		existing.Topic = d.Topic
	}
	if d.EnglishName != "" {
		existing.EnglishName = d.EnglishName
	}
	if d.Label != "" {
		existing.Label = d.Label
	}
	c.entries[d.Code] = existing
}

// Lookup returns the descriptor for code.
func (c *Catalog) Lookup(code core.IndicatorCode) (Descriptor, bool) {
	if c == nil {
		return Descriptor{}, false
	}
	d, ok := c.entries[code]
	return d, ok
}

// Name returns the display name for code, falling back to the code itself.
func (c *Catalog) Name(code core.IndicatorCode) string {
	if d, ok := c.Lookup(code); ok {
		return d.DisplayName()
	}
	return code.String()
}

// Codes lists catalog codes in insertion order.
func (c *Catalog) Codes() []core.IndicatorCode {
	out := make([]core.IndicatorCode, len(c.order))
	copy(out, c.order)
	return out
}

// Len is the number of known codes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// WideTable holds one row per segment and one column per indicator code.
type WideTable struct {
	Segments []Segment
	Codes    []core.IndicatorCode
	Values   [][]NullFloat // [segment][indicator]
}

// Rows is the number of segments.
func (w *WideTable) Rows() int { return len(w.Segments) }

// Cols is the number of indicator columns.
func (w *WideTable) Cols() int { return len(w.Codes) }

// Column returns a copy of the j-th indicator column.
func (w *WideTable) Column(j int) []NullFloat {
	col := make([]NullFloat, len(w.Values))
	for i, row := range w.Values {
		col[i] = row[j]
	}
	return col
}

// Fingerprint hashes segments, codes and values in order. Equal wide tables
// always share a fingerprint.
func (w *WideTable) Fingerprint() core.Hash {
	h := core.NewHasher()
	for _, c := range w.Codes {
		h.Add(c.String())
	}
	for i, s := range w.Segments {
		h.Add(s.Cut).Add(s.Subcut)
		for _, v := range w.Values[i] {
			h.AddFloat(v.Float64, v.Valid)
		}
	}
	return h.Sum()
}

// LabelledSegment is a segment with the heading used for it in reports.
type LabelledSegment struct {
	Segment `yaml:",inline" mapstructure:",squash"`
	Label   string `yaml:"label" mapstructure:"label"`
}

// Heading is the label, or "cut: subcut" when unlabelled.
func (s LabelledSegment) Heading() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Segment.String()
}

// ComparisonCell is one (segment, indicator) entry of a comparison table.
type ComparisonCell struct {
	Value NullFloat
	SE    NullFloat
	N     NullFloat
	Found bool
}

// Comparison lays indicator values out by segment.
type Comparison struct {
	Segments []LabelledSegment
	Codes    []core.IndicatorCode
	Cells    [][]ComparisonCell // [indicator][segment]
}
