package excel

import (
	"strings"

	"surveystat/internal/profiling"
)

// OverviewSheets lays a dataset overview out as Overview, Top Topics, Cuts
// and Numeric Summary sheets, plus Missing Detail when any numeric cell was
// missing.
func OverviewSheets(ov *profiling.Overview) []Sheet {
	overview := Sheet{
		Name:   "Overview",
		Header: []string{"Category", "Count"},
		Rows: [][]interface{}{
			{"Total Records", ov.Rows},
			{"Total Columns", len(ov.Columns)},
			{"Unique Topics", ov.UniqueTopics},
			{"Unique Indicators", ov.UniqueIndicators},
			{"Cuts", len(ov.Cuts)},
		},
		Widths: []float64{30, 12},
		Notes:  []Note{{Text: "Columns: " + strings.Join(ov.Columns, ", ")}},
	}
	for _, m := range ov.Missing {
		overview.Rows = append(overview.Rows, []interface{}{"Missing " + m.Label, m.Count})
	}

	sheets := []Sheet{
		overview,
		labelCountSheet("Top Topics", "Topic", ov.TopTopics(10)),
		labelCountSheet("Cuts", "Cut", ov.Cuts),
		numericSheet(ov.Numeric),
	}
	if len(ov.MissingDetail) > 0 {
		sheets = append(sheets, missingDetailSheet(ov.MissingDetail))
	}
	return sheets
}

func missingDetailSheet(detail []profiling.MissingBreakdown) Sheet {
	rows := make([][]interface{}, len(detail))
	for i, d := range detail {
		rows[i] = []interface{}{d.Field, d.Sentinel, d.Empty, d.Text}
	}
	return Sheet{
		Name:   "Missing Detail",
		Header: []string{"Field", "Sentinel", "Empty", "Non-numeric text"},
		Rows:   rows,
		Widths: []float64{12, 12, 12, 18},
	}
}

func labelCountSheet(name, label string, counts []profiling.LabelCount) Sheet {
	rows := make([][]interface{}, len(counts))
	for i, c := range counts {
		rows[i] = []interface{}{c.Label, c.Count}
	}
	return Sheet{Name: name, Header: []string{label, "Records"}, Rows: rows, Widths: []float64{50, 12}}
}

func numericSheet(summaries []profiling.NumericSummary) Sheet {
	rows := make([][]interface{}, len(summaries))
	for i, s := range summaries {
		rows[i] = []interface{}{s.Field, s.Count, s.Mean, s.StdDev, s.Min, s.Max, s.Median}
	}
	return Sheet{
		Name:   "Numeric Summary",
		Header: []string{"Field", "count", "mean", "std", "min", "max", "median"},
		Rows:   rows,
		Widths: []float64{12, 10, 12, 12, 12, 12, 12},
	}
}
