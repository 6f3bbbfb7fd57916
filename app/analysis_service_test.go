package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/adapters/excel"
	"surveystat/domain/core"
	"surveystat/domain/run"
	"surveystat/domain/stats"
	"surveystat/domain/survey"
	"surveystat/internal"
	"surveystat/internal/config"
	"surveystat/internal/errors"
	"surveystat/internal/profiling"
	"surveystat/internal/testkit"
)

func writeInputs(t *testing.T) (data, metadata string) {
	t.Helper()
	dir := t.TempDir()
	gen := testkit.NewSurveyDataGenerator(testkit.DefaultSurveyConfig())
	data = testkit.WriteCSV(t, dir, "vietnam_data_clean.csv", gen.GenerateRows())
	metadata = testkit.WriteCSV(t, dir, "indicators.csv", gen.GenerateMetadata())
	return data, metadata
}

func newService() *AnalysisService {
	return NewAnalysisService(internal.Discard(), "test")
}

func TestAnalyzeWritesAllArtifacts(t *testing.T) {
	data, metadata := writeInputs(t)
	out := filepath.Join(t.TempDir(), "output")

	res, err := newService().Analyze(context.Background(), AnalysisRequest{
		InputFile:     data,
		IndicatorFile: metadata,
		OutputDir:     out,
		Workers:       2,
	})
	require.NoError(t, err)

	a := res.Analysis
	assert.Equal(t, len(testkit.DefaultSegments()), a.SampleSize)
	assert.Len(t, a.Pairs, 45)
	assert.Len(t, a.Key, 17)
	assert.Equal(t, a.SampleSize-2, a.DegreesOfFreedom)
	assert.Equal(t, "Website adoption", res.Catalog.Name("t5"))
	assert.Equal(t, "Percent of firms having their own website", mustLookup(t, res.Catalog, "t5").EnglishName)
	require.NotNil(t, res.Comparison)
	assert.Len(t, res.Comparison.Segments, 5)

	for _, name := range []string{
		excel.PivotFile, excel.MatrixFile, excel.SignificanceFile, excel.PaperFile,
		excel.DetailedFile, excel.ComparisonFile, excel.CombinedFile,
		"figures/correlation_heatmap.png", "report.md", "report.html", run.ManifestFile,
	} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	m, err := run.ReadManifest(res.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, res.Manifest.RunID, m.RunID)
	assert.Equal(t, "vietnam-2023-technology", m.Profile)
	assert.Equal(t, 45, m.Counts.Pairs)
	assert.Equal(t, 10, m.Counts.Indicators)
	assert.Len(t, m.Artifacts, 10)
	assert.Equal(t, []string{"load", "pivot", "correlate", "report"}, stageNames(res.Timings))

	opts := heatmapOptions(a.Matrix, res.Catalog)
	require.Len(t, opts.Labels, a.Matrix.Size())
	assert.Equal(t, "Website adoption", opts.Labels[0])
	assert.Equal(t, "E-payment purchases", opts.Labels[len(opts.Labels)-1])
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	data, _ := writeInputs(t)
	svc := newService()

	first, err := svc.Analyze(context.Background(), AnalysisRequest{InputFile: data, OutputDir: t.TempDir(), Workers: 1})
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), AnalysisRequest{InputFile: data, OutputDir: t.TempDir(), Workers: 8})
	require.NoError(t, err)

	assert.NotEqual(t, first.Manifest.RunID, second.Manifest.RunID)
	assert.Equal(t, first.Manifest.Fingerprint, second.Manifest.Fingerprint)
	assert.Equal(t, first.Analysis.Matrix, second.Analysis.Matrix)
	assert.Equal(t, first.Analysis.Pairs, second.Analysis.Pairs)
}

func TestAnalyzeModeOverride(t *testing.T) {
	data, _ := writeInputs(t)
	res, err := newService().Analyze(context.Background(), AnalysisRequest{
		InputFile: data,
		OutputDir: t.TempDir(),
		Mode:      "pairwise",
	})
	require.NoError(t, err)
	assert.Equal(t, stats.SampleSizePairwise, res.Analysis.Mode)
	assert.Equal(t, "pairwise", res.Manifest.Fingerprint.Mode)

	_, err = newService().Analyze(context.Background(), AnalysisRequest{InputFile: data, OutputDir: t.TempDir(), Mode: "rows"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestAnalyzeMissingInput(t *testing.T) {
	out := t.TempDir()
	_, err := newService().Analyze(context.Background(), AnalysisRequest{
		InputFile: filepath.Join(out, "missing.csv"),
		OutputDir: out,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataSource, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrSourceNotFound)

	_, statErr := os.Stat(filepath.Join(out, run.ManifestFile))
	assert.True(t, os.IsNotExist(statErr), "no manifest for a failed run")
}

func TestAnalyzeCancelledContext(t *testing.T) {
	data, _ := writeInputs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService().Analyze(ctx, AnalysisRequest{InputFile: data, OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeUnknownIndicatorsOnly(t *testing.T) {
	data, _ := writeInputs(t)
	profile := config.DefaultProfile()
	profile.Indicators = []config.IndicatorLabel{{Code: "zz1"}, {Code: "zz2"}}
	profile.KeyRelationships = nil

	_, err := newService().Analyze(context.Background(), AnalysisRequest{InputFile: data, OutputDir: t.TempDir(), Profile: profile})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestPivotExtractOverviewSearch(t *testing.T) {
	data, metadata := writeInputs(t)
	out := t.TempDir()
	svc := newService()
	req := AnalysisRequest{InputFile: data, IndicatorFile: metadata, OutputDir: out}

	path, wide, err := svc.Pivot(req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, excel.PivotFile), path)
	assert.Equal(t, 10, wide.Cols())

	records, _, err := svc.Extract(req, survey.WholeSample, []core.IndicatorCode{"t5", "perf3"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "All", records[0].Cut)

	ov, ovPath, err := svc.Overview(req)
	require.NoError(t, err)
	assert.Equal(t, 10, ov.UniqueIndicators, "sampling rows are excluded")
	assert.FileExists(t, ovPath)

	res, err := svc.Search(req, []string{"website", "online"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, core.IndicatorCode("t5"), res.Hits[0].Descriptor.Code)
	assert.Equal(t, 2, res.Counts["online"])
}

func TestLoadFollowsProfileReaderAndCoercion(t *testing.T) {
	rows := testkit.NewSurveyDataGenerator(testkit.DefaultSurveyConfig()).GenerateRows()
	var edited []int
	for i, row := range rows[1:] {
		if row[5] != "_sample" && row[5] != "fieldworkdate" && row[6] != "." {
			edited = append(edited, i+1)
		}
		if len(edited) == 2 {
			break
		}
	}
	require.Len(t, edited, 2)
	rows[edited[0]][6] = "n/a"
	rows[edited[1]][6] = "pending"

	sentinels := 0
	for _, row := range rows[1:] {
		if row[5] != "_sample" && row[5] != "fieldworkdate" && (row[6] == "." || row[6] == "n/a") {
			sentinels++
		}
	}
	data := testkit.WriteXLSXSheet(t, t.TempDir(), "survey.xlsx", "Data", rows)

	profile := config.DefaultProfile()
	profile.Coercion.MissingSentinels = []string{".", "n/a"}
	req := AnalysisRequest{InputFile: data, Profile: profile}

	_, _, err := newService().Overview(req)
	require.Error(t, err, "the first sheet is empty")

	profile.Reader.Sheet = "Data"
	ov, _, err := newService().Overview(req)
	require.NoError(t, err)
	assert.Equal(t, 10, ov.UniqueIndicators)
	require.Len(t, ov.MissingDetail, 1)
	assert.Equal(t, "value", ov.MissingDetail[0].Field)
	assert.Equal(t, sentinels, ov.MissingDetail[0].Sentinel)
	assert.Equal(t, 1, ov.MissingDetail[0].Text)
	assert.Contains(t, ov.Missing, profiling.LabelCount{Label: "value", Count: sentinels + 1})
}

func TestStageRunnerStopsOnFailure(t *testing.T) {
	runner := NewStageRunner(internal.Discard())
	require.NoError(t, runner.Run(context.Background(), "one", func(context.Context) error { return nil }))

	err := runner.Run(context.Background(), "two", func(context.Context) error {
		return errors.InvalidInput("bad")
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), "stage two failed")
	assert.Equal(t, []string{"one"}, stageNames(runner.Timings()))
}

func mustLookup(t *testing.T, c *survey.Catalog, code core.IndicatorCode) survey.Descriptor {
	t.Helper()
	d, ok := c.Lookup(code)
	require.True(t, ok, code)
	return d
}

func stageNames(timings []StageTiming) []string {
	names := make([]string, len(timings))
	for i, st := range timings {
		names[i] = st.Stage
	}
	return names
}
