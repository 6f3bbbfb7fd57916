package excel

import (
	"fmt"
	"math"
	"path/filepath"

	"surveystat/domain/stats"
	"surveystat/domain/survey"
)

// Artifact file names written by WriteReports.
const (
	MatrixFile       = "Table2_Correlation_Matrix.xlsx"
	SignificanceFile = "Table4_Correlation_Significance.xlsx"
	PaperFile        = "Table4_For_Paper.xlsx"
	DetailedFile     = "All_Correlations_Detailed.xlsx"
	ComparisonFile   = "Table1_Segment_Comparison.xlsx"
	CombinedFile     = "Analysis_Results.xlsx"
	OverviewFile     = "Data_Overview.xlsx"
)

// ReportInput is everything the spreadsheet reports are built from.
// Comparison and Wide are optional.
type ReportInput struct {
	Analysis   *stats.Analysis
	Catalog    *survey.Catalog
	Comparison *survey.Comparison
	Wide       *survey.WideTable
}

// WriteReports writes the paper tables and the combined workbook to dir and
// returns the paths written, in order.
func (w *WorkbookWriter) WriteReports(dir string, in ReportInput) ([]string, error) {
	if in.Analysis == nil {
		return nil, fmt.Errorf("no analysis to report")
	}
	a := in.Analysis

	outputs := []struct {
		file   string
		sheets []Sheet
	}{
		{MatrixFile, []Sheet{MatrixSheet(a.Matrix), IndicatorSheet(a.Matrix, in.Catalog)}},
		{SignificanceFile, []Sheet{SignificanceSheet(a, false)}},
		{PaperFile, []Sheet{SignificanceSheet(a, true)}},
		{DetailedFile, []Sheet{DetailedSheet(a.Pairs, in.Catalog)}},
	}
	if in.Comparison != nil {
		outputs = append(outputs, struct {
			file   string
			sheets []Sheet
		}{ComparisonFile, []Sheet{ComparisonSheet(in.Comparison, in.Catalog)}})
	}

	combined := []Sheet{SummarySheet(a)}
	if in.Comparison != nil {
		combined = append(combined, renamed(ComparisonSheet(in.Comparison, in.Catalog), "Table 1 - Segments"))
	}
	combined = append(combined,
		renamed(MatrixSheet(a.Matrix), "Table 2 - Correlations"),
		renamed(SignificanceSheet(a, false), "Table 4 - Significance"),
		renamed(DetailedSheet(a.Pairs, in.Catalog), "All Pairs"),
	)
	if in.Wide != nil {
		combined = append(combined, WideSheet(in.Wide))
	}
	outputs = append(outputs, struct {
		file   string
		sheets []Sheet
	}{CombinedFile, combined})

	written := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := filepath.Join(dir, out.file)
		if err := w.Write(path, out.sheets...); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func renamed(s Sheet, name string) Sheet {
	s.Name = name
	return s
}

// MatrixSheet is the display correlation matrix rounded to two decimals,
// undefined cells shown as 0.
func MatrixSheet(m *stats.Matrix) Sheet {
	header := make([]string, 0, m.Size()+1)
	header = append(header, "")
	for _, c := range m.Codes {
		header = append(header, c.String())
	}
	display := m.Display()
	rows := make([][]interface{}, m.Size())
	for i, code := range m.Codes {
		row := make([]interface{}, 0, m.Size()+1)
		row = append(row, code.String())
		for _, v := range display[i] {
			row = append(row, round2(v))
		}
		rows[i] = row
	}
	widths := make([]float64, len(header))
	widths[0] = 16
	return Sheet{Name: "Correlations", Header: header, Rows: rows, Widths: widths}
}

// IndicatorSheet lists the matrix codes with their descriptors.
func IndicatorSheet(m *stats.Matrix, catalog *survey.Catalog) Sheet {
	rows := make([][]interface{}, len(m.Codes))
	for i, code := range m.Codes {
		d, _ := catalog.Lookup(code)
		rows[i] = []interface{}{code.String(), catalog.Name(code), d.Topic, d.EnglishName}
	}
	return Sheet{
		Name:   "Indicators",
		Header: []string{"Indicator", "Label", "Topic", "English name"},
		Rows:   rows,
		Widths: []float64{16, 30, 25, 60},
	}
}

// SignificanceSheet is Table 4 over the key relationships. The paper variant
// drops the interpretation column and borders every cell.
func SignificanceSheet(a *stats.Analysis, paper bool) Sheet {
	header := []string{"Relationship", "r", "t-value", "p-value", "Significance"}
	if !paper {
		header = append(header, "Interpretation")
	}
	rows := make([][]interface{}, len(a.Key))
	for i, res := range a.Key {
		row := []interface{}{res.Label, round2(res.DisplayR()), tValue(res.T), stats.FormatP(res.P), string(res.Significance)}
		if !paper {
			row = append(row, res.Interpretation)
		}
		rows[i] = row
	}

	if paper {
		return Sheet{
			Name:     "Table 4",
			Header:   header,
			Rows:     rows,
			Widths:   []float64{45, 8, 10, 10, 15},
			Bordered: true,
		}
	}
	return Sheet{
		Name:     "Significance Table",
		Header:   header,
		Rows:     rows,
		Widths:   []float64{45, 8, 10, 10, 15, 50},
		WrapCols: []int{5},
		Notes:    SignificanceNotes(a),
	}
}

// SignificanceNotes is the legend printed below Table 4.
func SignificanceNotes(a *stats.Analysis) []Note {
	return []Note{
		{Text: "Notes:", Bold: true},
		{Text: "Significance levels: *** p<0.001 (highly significant), ** p<0.01 (significant), * p<0.05 (marginally significant), ns = not significant"},
		{Text: fmt.Sprintf("Critical value: |t| > %.2f (based on %d segments, %d degrees of freedom)", a.CriticalT, a.SampleSize, a.DegreesOfFreedom)},
		{Text: ""},
		{Text: "Correlation Strength Categories:", Bold: true},
		{Text: "  - Very strong: |r| > 0.70"},
		{Text: "  - Strong: 0.50 < |r| ≤ 0.70"},
		{Text: "  - Moderate: 0.30 < |r| ≤ 0.50"},
		{Text: "  - Weak: |r| ≤ 0.30"},
	}
}

// DetailedSheet lists every indicator pair in result order.
func DetailedSheet(pairs []stats.PairResult, catalog *survey.Catalog) Sheet {
	rows := make([][]interface{}, len(pairs))
	for i, p := range pairs {
		significant := "No"
		if p.Significant {
			significant = "Yes"
		}
		rows[i] = []interface{}{
			p.X.String(), catalog.Name(p.X),
			p.Y.String(), catalog.Name(p.Y),
			round2(p.DisplayR()), tValue(p.T), p.P,
			string(p.Significance), significant,
		}
	}
	return Sheet{
		Name:   "All Correlations",
		Header: []string{"Indicator 1", "Name 1", "Indicator 2", "Name 2", "r", "t", "p", "sig", "significant"},
		Rows:   rows,
		Widths: []float64{14, 30, 14, 30, 8, 10, 12, 8, 12},
	}
}

// ComparisonSheet is Table 1: value, se and N per segment for each indicator,
// one decimal, missing left blank.
func ComparisonSheet(cmp *survey.Comparison, catalog *survey.Catalog) Sheet {
	header := []string{"Indicator", "Name"}
	for _, seg := range cmp.Segments {
		h := seg.Heading()
		header = append(header, h, h+" (se)", h+" (N)")
	}
	rows := make([][]interface{}, len(cmp.Codes))
	for i, code := range cmp.Codes {
		row := []interface{}{code.String(), catalog.Name(code)}
		for _, c := range cmp.Cells[i] {
			row = append(row, round1(c.Value), round1(c.SE), round1(c.N))
		}
		rows[i] = row
	}
	widths := make([]float64, len(header))
	widths[0], widths[1] = 14, 35
	return Sheet{Name: "Segment Comparison", Header: header, Rows: rows, Widths: widths}
}

// SummarySheet holds the run's headline counts.
func SummarySheet(a *stats.Analysis) Sheet {
	s := a.Summary
	rows := [][]interface{}{
		{"Segments (n)", a.SampleSize},
		{"Degrees of freedom", a.DegreesOfFreedom},
		{"Sample size mode", string(a.Mode)},
		{"Critical t (alpha 0.05, two-tailed)", round2(a.CriticalT)},
		{"Total correlation pairs analyzed", s.TotalPairs},
		{"Defined correlations", s.ValidPairs},
		{"Pairs with |t| above critical", s.SignificantPairs},
		{"Highly significant (p<0.001)", s.TierCounts[stats.TierHighlySignificant]},
		{"Significant (p<0.01)", s.TierCounts[stats.TierSignificant]},
		{"Marginally significant (p<0.05)", s.TierCounts[stats.TierMarginal]},
		{"Not significant (p≥0.05)", s.TierCounts[stats.TierNotSignificant]},
	}
	for _, strength := range stats.Strengths {
		rows = append(rows, []interface{}{"Key relationships: " + string(strength), s.StrengthCounts[strength]})
	}
	return Sheet{Name: "Summary", Header: []string{"Metric", "Value"}, Rows: rows, Widths: []float64{40, 14}}
}

// WideSheet is the pivoted segment × indicator table.
func WideSheet(wide *survey.WideTable) Sheet {
	header := append([]string{"cut", "subcut"}, codeStrings(wide)...)
	rows := make([][]interface{}, wide.Rows())
	for i, seg := range wide.Segments {
		row := []interface{}{seg.Cut, seg.Subcut}
		for _, v := range wide.Values[i] {
			row = append(row, nullValue(v))
		}
		rows[i] = row
	}
	return Sheet{Name: "Pivoted Data", Header: header, Rows: rows, Widths: []float64{18, 40}}
}

func codeStrings(wide *survey.WideTable) []string {
	out := make([]string, len(wide.Codes))
	for i, c := range wide.Codes {
		out[i] = c.String()
	}
	return out
}

func nullValue(v survey.NullFloat) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func round1(v survey.NullFloat) interface{} {
	if !v.Valid {
		return nil
	}
	return math.Round(v.Float64*10) / 10
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}

// tValue rounds finite t to two decimals and leaves the rest for cellValue.
func tValue(t float64) interface{} {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return stats.FormatT(t)
	}
	return round2(t)
}
