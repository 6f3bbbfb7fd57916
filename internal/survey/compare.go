package survey

import (
	"surveystat/domain/core"
	"surveystat/domain/survey"
)

// Compare builds the segment comparison table. Rows that do not exist stay
// empty rather than zero.
func Compare(table *survey.Table, segments []survey.LabelledSegment, codes []core.IndicatorCode) *survey.Comparison {
	cmp := &survey.Comparison{
		Segments: append([]survey.LabelledSegment(nil), segments...),
		Codes:    uniqueCodes(codes),
	}
	cmp.Cells = make([][]survey.ComparisonCell, len(cmp.Codes))
	for i := range cmp.Cells {
		cmp.Cells[i] = make([]survey.ComparisonCell, len(segments))
	}

	index := make(map[core.IndicatorCode]int, len(cmp.Codes))
	for i, c := range cmp.Codes {
		index[c] = i
	}
	for j, seg := range segments {
		for _, r := range Extract(table, cmp.Codes, seg.Cut, seg.Subcut) {
			cmp.Cells[index[r.Indicator]][j] = survey.ComparisonCell{Value: r.Value, SE: r.SE, N: r.N, Found: true}
		}
	}
	return cmp
}
