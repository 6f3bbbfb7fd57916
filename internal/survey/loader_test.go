package survey

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/domain/core"
	"surveystat/domain/survey"
	"surveystat/internal"
	apperrors "surveystat/internal/errors"
	"surveystat/internal/testkit"
)

func newLoader(mutate func(*LoaderConfig)) *Loader {
	cfg := DefaultLoaderConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewLoader(cfg, internal.Discard())
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	rows := testkit.NewSurveyDataGenerator(testkit.DefaultSurveyConfig()).GenerateRows()

	paths := map[string]string{
		"csv":  testkit.WriteCSV(t, dir, "survey.csv", rows),
		"tsv":  testkit.WriteCSV(t, dir, "survey.tsv", rows),
		"xlsx": testkit.WriteXLSX(t, dir, "survey.xlsx", rows),
	}

	var lengths []int
	for format, path := range paths {
		t.Run(format, func(t *testing.T) {
			table, err := newLoader(nil).Load(path)
			require.NoError(t, err)
			assert.Equal(t, path, table.Source())
			lengths = append(lengths, table.Len())

			first := table.At(0)
			assert.Equal(t, "Viet Nam2023", first.Country)
			assert.Equal(t, "All", first.Cut)
		})
	}
	require.Len(t, lengths, 3)
	assert.Equal(t, lengths[0], lengths[1])
	assert.Equal(t, lengths[0], lengths[2])
}

func TestLoadExcludesSamplingRows(t *testing.T) {
	rows := testkit.NewSurveyDataGenerator(testkit.DefaultSurveyConfig()).GenerateRows()
	table, err := newLoader(nil).FromRaw(testkit.Raw("gen", rows))
	require.NoError(t, err)

	table.Each(func(_ int, r survey.Record) bool {
		assert.NotEqual(t, core.IndicatorCode("_sample"), r.Indicator)
		assert.NotEqual(t, core.IndicatorCode("fieldworkdate"), r.Indicator)
		return true
	})

	withSamples, err := newLoader(func(c *LoaderConfig) { c.Exclude = nil }).FromRaw(testkit.Raw("gen", rows))
	require.NoError(t, err)
	segments := len(testkit.DefaultSegments())
	assert.Equal(t, table.Len()+2*segments, withSamples.Len())
}

func TestLoadCoercesNumbersAndCodes(t *testing.T) {
	data := testkit.Raw("inline", [][]string{
		{" Cut ", "SUBCUT", "Indicator", "Value", "se", "n", "Topic", "EnglishName"},
		{"All", "All", "bready_ fin28", "42.5", ".", "1000", "Finance", "Online sales"},
		{"All", "All", "t5", ".", "1.2", "abc", "", ""},
	})
	table, err := newLoader(nil).FromRaw(data)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	r := table.At(0)
	assert.Equal(t, core.IndicatorCode("bready_fin28"), r.Indicator)
	assert.Equal(t, survey.Float(42.5), r.Value)
	assert.False(t, r.SE.Valid)
	assert.Equal(t, survey.Float(1000), r.N)
	assert.Equal(t, "Finance", r.Topic)
	assert.Equal(t, "Online sales", r.EnglishName)

	missing := table.At(1)
	assert.False(t, missing.Value.Valid)
	assert.True(t, missing.SE.Valid)
	assert.False(t, missing.N.Valid)
}

func TestLoadCountryFilter(t *testing.T) {
	data := testkit.Raw("inline", [][]string{
		{"country", "cut", "subcut", "indicator", "value"},
		{"Viet Nam2023", "All", "All", "t5", "40"},
		{"Viet Nam2015", "All", "All", "t5", "30"},
		{"VIET NAM2023", "Size", "Small (5-19)", "t5", "20"},
	})
	table, err := newLoader(func(c *LoaderConfig) { c.Country = "viet nam2023" }).FromRaw(data)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "All", table.At(0).Cut)
	assert.Equal(t, "Size", table.At(1).Cut)
}

func TestLoadDataSourceErrors(t *testing.T) {
	dir := t.TempDir()
	missingValue := testkit.WriteCSV(t, dir, "novalue.csv", [][]string{
		{"cut", "subcut", "indicator"},
		{"All", "All", "t5"},
	})
	headerOnly := testkit.WriteCSV(t, dir, "empty.csv", [][]string{{"cut", "subcut", "indicator", "value"}})

	tests := []struct {
		name     string
		path     string
		sentinel error
	}{
		{"missing file", dir + "/nope.csv", core.ErrSourceNotFound},
		{"unsupported extension", dir + "/survey.dta", core.ErrUnsupportedFormat},
		{"missing required column", missingValue, core.ErrMissingColumn},
		{"no data rows", headerOnly, core.ErrEmptySource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := newLoader(nil).Load(tt.path)
			assert.Nil(t, table)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.True(t, core.IsDataSourceError(err))
			assert.Equal(t, apperrors.CodeDataSource, apperrors.GetCode(err))
		})
	}
}

func TestCatalogLoadAndJoin(t *testing.T) {
	gen := testkit.NewSurveyDataGenerator(testkit.DefaultSurveyConfig())
	dir := t.TempDir()
	metaPath := testkit.WriteCSV(t, dir, "indicators.csv", gen.GenerateMetadata())

	loader := newLoader(nil)
	catalog, err := loader.LoadCatalog(metaPath)
	require.NoError(t, err)

	d, ok := catalog.Lookup("bready_fin28")
	require.True(t, ok, "codes are normalised")
	assert.Equal(t, "Finance", d.Topic)

	table, err := loader.FromRaw(testkit.Raw("gen", gen.GenerateRows()))
	require.NoError(t, err)
	joined := JoinCatalog(table, catalog)

	assert.Equal(t, "", table.At(0).Topic, "input table untouched")
	joined.Each(func(_ int, r survey.Record) bool {
		assert.NotEmpty(t, r.Topic, "indicator %s", r.Indicator)
		return true
	})

	merged := CatalogFromTable(joined, catalog)
	assert.Equal(t, catalog.Len(), merged.Len())

	_, err = CatalogFromRaw(testkit.Raw("bad", [][]string{{"Topic"}, {"x"}}))
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}

func TestLoadReaderAndCoercionConfig(t *testing.T) {
	dir := t.TempDir()
	rows := [][]string{
		{"cut", "subcut", "indicator", "value"},
		{"All", "All", "t5", "12,5"},
		{"All", "All", "t7", "(3)"},
	}

	t.Run("named sheet", func(t *testing.T) {
		path := testkit.WriteXLSXSheet(t, dir, "book.xlsx", "Data", rows)

		_, err := newLoader(nil).Load(path)
		require.Error(t, err, "first sheet is empty")

		table, err := newLoader(func(c *LoaderConfig) { c.Reader.Sheet = "Data" }).Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, table.Len())
	})

	t.Run("delimiter and lenient numbers", func(t *testing.T) {
		path := filepath.Join(dir, "semicolon.csv")
		content := "cut;subcut;indicator;value\nAll;All;t5;12,5\nAll;All;t7;(3)\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		strict, err := newLoader(func(c *LoaderConfig) { c.Reader.Delimiter = ";" }).Load(path)
		require.NoError(t, err)
		assert.False(t, strict.At(0).Value.Valid)

		lenient, err := newLoader(func(c *LoaderConfig) {
			c.Reader.Delimiter = ";"
			c.Coercion.Lenient = true
		}).Load(path)
		require.NoError(t, err)
		assert.Equal(t, survey.Float(12.5), lenient.At(0).Value)
		assert.Equal(t, survey.Float(-3), lenient.At(1).Value)
	})
}

func TestRawColumnsFollowRowFilter(t *testing.T) {
	data := testkit.Raw("inline", [][]string{
		{"country", "cut", "subcut", "indicator", "value", "N"},
		{"Viet Nam2023", "All", "All", "t5", ".", "100"},
		{"Viet Nam2023", "All", "All", "_sample", "n/a", ""},
		{"Viet Nam2015", "All", "All", "t5", "30", "90"},
		{"Viet Nam2023", "Size", "Small (5-19)", "t5", "abc", ""},
	})
	loader := newLoader(func(c *LoaderConfig) { c.Country = "viet nam2023" })

	raw, err := loader.RawColumns(data)
	require.NoError(t, err)
	assert.Equal(t, []string{".", "abc"}, raw["value"])
	assert.Equal(t, []string{"100", ""}, raw["N"])
	_, hasSE := raw["se"]
	assert.False(t, hasSE, "no se column in the source")

	table, err := loader.FromRaw(data)
	require.NoError(t, err)
	assert.Equal(t, table.Len(), len(raw["value"]))
}
