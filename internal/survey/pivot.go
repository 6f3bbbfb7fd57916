package survey

import (
	"surveystat/domain/core"
	"surveystat/domain/survey"
)

// PivotFilter narrows which rows take part in a pivot.
type PivotFilter struct {
	// Cuts restricts rows to these segmentation dimensions. Empty keeps all.
	Cuts []string `yaml:"cuts" mapstructure:"cuts"`
}

type segmentKey struct {
	segment   survey.Segment
	indicator core.IndicatorCode
}

// Pivot reshapes the long table into one row per segment and one column per
// code. Duplicate (cut, subcut, indicator) rows keep the first occurrence,
// segments appear in first-seen order, and segments with no present value
// are dropped.
func Pivot(table *survey.Table, codes []core.IndicatorCode, filter PivotFilter) *survey.WideTable {
	codes = uniqueCodes(codes)
	column := make(map[core.IndicatorCode]int, len(codes))
	for j, c := range codes {
		column[c] = j
	}
	allowedCuts := make(map[string]bool, len(filter.Cuts))
	for _, c := range filter.Cuts {
		allowedCuts[c] = true
	}

	seen := make(map[segmentKey]bool)
	rowOf := make(map[survey.Segment]int)
	var (
		segments []survey.Segment
		values   [][]survey.NullFloat
	)

	table.Each(func(_ int, r survey.Record) bool {
		j, wanted := column[r.Indicator]
		if !wanted || r.Subcut == "" {
			return true
		}
		if len(allowedCuts) > 0 && !allowedCuts[r.Cut] {
			return true
		}
		key := segmentKey{segment: r.Segment(), indicator: r.Indicator}
		if seen[key] {
			return true
		}
		seen[key] = true

		i, ok := rowOf[key.segment]
		if !ok {
			i = len(segments)
			rowOf[key.segment] = i
			segments = append(segments, key.segment)
			values = append(values, make([]survey.NullFloat, len(codes)))
		}
		values[i][j] = r.Value
		return true
	})

	out := &survey.WideTable{Codes: codes}
	for i, seg := range segments {
		if !anyPresent(values[i]) {
			continue
		}
		out.Segments = append(out.Segments, seg)
		out.Values = append(out.Values, values[i])
	}
	return out
}

func anyPresent(row []survey.NullFloat) bool {
	for _, v := range row {
		if v.Valid {
			return true
		}
	}
	return false
}

// uniqueCodes copies codes without repeats, keeping first positions.
func uniqueCodes(codes []core.IndicatorCode) []core.IndicatorCode {
	seen := make(map[core.IndicatorCode]bool, len(codes))
	out := make([]core.IndicatorCode, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
