package survey

import (
	"surveystat/domain/core"
	"surveystat/domain/survey"
)

// Extract returns the rows of one segment for the requested codes, at most one
// per code (the first seen), in table order. Matching on cut and subcut is
// exact and case-sensitive. Absent indicators are simply absent.
func Extract(table *survey.Table, codes []core.IndicatorCode, cut, subcut string) []survey.Record {
	wanted := codeSet(codes)
	rows := table.Filter(func(r survey.Record) bool {
		return r.Cut == cut && r.Subcut == subcut && wanted[r.Indicator]
	})

	seen := make(map[core.IndicatorCode]bool, len(wanted))
	var out []survey.Record
	for i := 0; i < rows.Len(); i++ {
		r := rows.At(i)
		if seen[r.Indicator] {
			continue
		}
		seen[r.Indicator] = true
		out = append(out, r)
	}
	return out
}

// Lookup finds the authoritative row for one indicator in one segment.
func Lookup(table *survey.Table, segment survey.Segment, code core.IndicatorCode) (survey.Record, bool) {
	rows := Extract(table, []core.IndicatorCode{code}, segment.Cut, segment.Subcut)
	if len(rows) == 0 {
		return survey.Record{}, false
	}
	return rows[0], true
}

// ValueFor is the segment's value for code, missing when there is no row.
func ValueFor(table *survey.Table, segment survey.Segment, code core.IndicatorCode) survey.NullFloat {
	r, ok := Lookup(table, segment, code)
	if !ok {
		return survey.Missing()
	}
	return r.Value
}

func codeSet(codes []core.IndicatorCode) map[core.IndicatorCode]bool {
	set := make(map[core.IndicatorCode]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}
