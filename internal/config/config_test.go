package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/domain/core"
	"surveystat/domain/stats"
	"surveystat/domain/survey"
	"surveystat/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SURVEY_INPUT_FILE", "")
	t.Setenv("SURVEY_OUTPUT_DIR", "")
	t.Setenv("SURVEY_FIGURES_DIR", "")
	t.Setenv("SURVEY_SAMPLE_SIZE_MODE", "")
	t.Setenv("SURVEY_WORKERS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/vietnam_data_clean.csv", cfg.Paths.InputFile)
	assert.Equal(t, "output", cfg.Paths.OutputDir)
	assert.Equal(t, "output/figures", cfg.Paths.FiguresDir)
	assert.Equal(t, 0, cfg.Analysis.Workers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SURVEY_INPUT_FILE", "in.xlsx")
	t.Setenv("SURVEY_OUTPUT_DIR", "out")
	t.Setenv("SURVEY_FIGURES_DIR", "")
	t.Setenv("SURVEY_WORKERS", "4")
	t.Setenv("SURVEY_SAMPLE_SIZE_MODE", "pairwise")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "in.xlsx", cfg.Paths.InputFile)
	assert.Equal(t, "out/figures", cfg.Paths.FiguresDir)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, "pairwise", cfg.Analysis.SampleSizeMode)
}

func TestLoadRejectsBadSampleSizeMode(t *testing.T) {
	t.Setenv("SURVEY_SAMPLE_SIZE_MODE", "bootstrap")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrInvalidSampleSizeMode)
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Validate())

	assert.Len(t, p.Codes(), 10)
	assert.Len(t, p.KeyRelationships, 17)
	assert.Equal(t, stats.SampleSizeSegments, p.Mode())
	assert.Equal(t, []core.IndicatorCode{"_sample", "fieldworkdate"}, p.ExcludedCodes())

	catalog := survey.NewCatalog()
	p.ApplyLabels(catalog)
	assert.Equal(t, "Website adoption", catalog.Name("t5"))
	assert.Equal(t, "E-payment purchases", catalog.Name("bready_fin31"))
}

func TestLoadProfileFromFile(t *testing.T) {
	t.Setenv("SURVEY_PRECISION", "")
	t.Setenv("SURVEY_TOP_N", "")
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `name: custom
indicators:
  - code: t5
    label: Website
  - code: "bready_ fin28"
    label: Online sales
key_relationships:
  - x: t5
    y: bready_fin28
    label: Website vs online sales
comparison_segments:
  - cut: Size
    subcut: Small (5-19)
    label: Small
sample_size_mode: pairwise
precision: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)
	assert.Equal(t, []core.IndicatorCode{"t5", "bready_fin28"}, p.Codes())
	require.Len(t, p.KeyRelationships, 1)
	assert.Equal(t, core.IndicatorCode("bready_fin28"), p.KeyRelationships[0].Y)
	require.Len(t, p.ComparisonSegments, 1)
	assert.Equal(t, "Small (5-19)", p.ComparisonSegments[0].Subcut)
	assert.Equal(t, stats.SampleSizePairwise, p.Mode())
	assert.Equal(t, 2, p.Precision)
	assert.Equal(t, 10, p.TopN, "unset keys keep defaults")
	assert.Equal(t, []string{"."}, p.Coercion.MissingSentinels)
	assert.False(t, p.Coercion.Lenient)
}

func TestLoadProfileReaderAndCoercion(t *testing.T) {
	t.Setenv("SURVEY_READER_SHEET", "")
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `reader:
  sheet: Data
  delimiter: ";"
coercion:
  missing_sentinels: [".", "n/a"]
  lenient: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Data", p.Reader.Sheet)
	assert.Equal(t, ";", p.Reader.Delimiter)
	assert.Equal(t, []string{".", "n/a"}, p.Coercion.MissingSentinels)
	assert.True(t, p.Coercion.Lenient)
	assert.Len(t, p.Indicators, 10, "unset keys keep defaults")

	t.Setenv("SURVEY_READER_SHEET", "Results")
	p, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Results", p.Reader.Sheet)

	p = DefaultProfile()
	p.Reader.Delimiter = ";;"
	err = p.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	p.Reader.Delimiter = "tab"
	assert.NoError(t, p.Validate())
}

func TestLoadProfileEnvironmentOverride(t *testing.T) {
	t.Setenv("SURVEY_PRECISION", "2")
	t.Setenv("SURVEY_TOP_N", "5")

	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Precision)
	assert.Equal(t, 5, p.TopN)
	assert.Len(t, p.Indicators, 10)
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	p := DefaultProfile()
	p.Indicators = append(p.Indicators, IndicatorLabel{Code: "t 5"})
	assert.Error(t, p.Validate(), "duplicate after normalisation")

	p = DefaultProfile()
	p.Alpha = 0
	assert.Error(t, p.Validate())
}

func TestSaveProfileRoundTrip(t *testing.T) {
	t.Setenv("SURVEY_PRECISION", "")
	t.Setenv("SURVEY_TOP_N", "")
	path := filepath.Join(t.TempDir(), "nested", "profile.yaml")

	require.NoError(t, SaveProfile(DefaultProfile(), path, false))
	assert.Error(t, SaveProfile(DefaultProfile(), path, false))
	require.NoError(t, SaveProfile(DefaultProfile(), path, true))

	loaded, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile().Codes(), loaded.Codes())
	assert.Equal(t, DefaultProfile().KeyRelationships, loaded.KeyRelationships)
	assert.Equal(t, DefaultProfile().ComparisonSegments, loaded.ComparisonSegments)
}
