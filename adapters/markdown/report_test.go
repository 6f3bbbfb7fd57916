package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/domain/core"
	"surveystat/domain/stats"
	"surveystat/domain/survey"
)

func analysis() *stats.Analysis {
	pair := stats.PairResult{
		X: "t5", Y: "perf3", Label: "Website adoption ↔ Productivity growth",
		R: 0.62, Valid: true, T: 3.62, P: 0.0016,
		Significance:   stats.TierSignificant,
		Strength:       stats.StrengthStrong,
		Direction:      stats.DirectionPositive,
		Interpretation: "Strong positive correlation, significant",
	}
	return &stats.Analysis{
		Mode:             stats.SampleSizeSegments,
		SampleSize:       23,
		DegreesOfFreedom: 21,
		CriticalT:        2.0796,
		Pairs:            []stats.PairResult{pair},
		Key:              []stats.PairResult{pair},
		Summary: stats.Summary{
			TotalPairs:     1,
			TierCounts:     map[stats.SignificanceTier]int{stats.TierSignificant: 1},
			StrengthCounts: map[stats.Strength]int{stats.StrengthStrong: 1},
		},
	}
}

func TestBuildMarkdown(t *testing.T) {
	catalog := survey.NewCatalog()
	catalog.Add(survey.Descriptor{Code: "t5", Label: "Website adoption"})

	md := string(Build(Summary{
		Title:    "Vietnam 2023",
		Analysis: analysis(),
		Catalog:  catalog,
		TopN:     5,
		Comparison: &survey.Comparison{
			Segments: []survey.LabelledSegment{{Segment: survey.WholeSample}},
			Codes:    []core.IndicatorCode{"t5"},
			Cells:    [][]survey.ComparisonCell{{{Value: survey.Float(40.04), Found: true}}},
		},
	}))

	assert.True(t, strings.HasPrefix(md, "# Vietnam 2023\n"))
	assert.Contains(t, md, "| Website adoption ↔ Productivity growth | 0.62 | 3.62 | <0.01 | \\*\\* |")
	assert.Contains(t, md, "| Website adoption | perf3 | 0.62 |")
	assert.Contains(t, md, "| All: All |")
	assert.Contains(t, md, "| Website adoption | 40.0 |")
	assert.Contains(t, md, "Critical value: |t| > 2.08")
}

func TestWriteRendersHTMLTable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := Write(dir, Summary{Title: "Run", Analysis: analysis(), Catalog: survey.NewCatalog()})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	page, err := os.ReadFile(filepath.Join(dir, HTMLFile))
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "<title>Run</title>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "Strong positive correlation, significant")
}

func TestWriteRequiresAnalysis(t *testing.T) {
	_, err := Write(t.TempDir(), Summary{})
	assert.Error(t, err)
}
