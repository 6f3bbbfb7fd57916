package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"surveystat/domain/survey"
)

// SurveyGeneratorConfig configures the synthetic enterprise-survey generator
type SurveyGeneratorConfig struct {
	Country       string           `yaml:"country"`
	Year          string           `yaml:"year"`
	Segments      []survey.Segment `yaml:"segments"`
	Indicators    []IndicatorSpec  `yaml:"indicators"`
	MissingRate   float64          `yaml:"missing_rate"`   // share of cells written as "."
	DuplicateRate float64          `yaml:"duplicate_rate"` // share of rows repeated later with a different value
	SampleRows    bool             `yaml:"sample_rows"`    // emit _sample and fieldworkdate rows
	Seed          int64            `yaml:"seed"`
}

// IndicatorSpec describes one generated indicator. Loading is how strongly the
// indicator follows the shared segment factor, which drives correlations.
type IndicatorSpec struct {
	Code        string  `yaml:"code"`
	Topic       string  `yaml:"topic"`
	EnglishName string  `yaml:"english_name"`
	Loading     float64 `yaml:"loading"`
}

// DefaultSegments mirrors the cuts of the enterprise survey tables.
func DefaultSegments() []survey.Segment {
	return []survey.Segment{
		survey.WholeSample,
		{Cut: "Size", Subcut: "Small (5-19)"},
		{Cut: "Size", Subcut: "Medium (20-99)"},
		{Cut: "Size", Subcut: "Large (100+)"},
		{Cut: "Exporter Type", Subcut: "Direct exports are 10% or more of sales"},
		{Cut: "Exporter Type", Subcut: "Non-exporter"},
		{Cut: "Sector", Subcut: "Manufacturing"},
		{Cut: "Sector", Subcut: "Retail"},
		{Cut: "Sector", Subcut: "Other Services"},
		{Cut: "Region", Subcut: "North"},
		{Cut: "Region", Subcut: "Central"},
		{Cut: "Region", Subcut: "South"},
		{Cut: "Ownership", Subcut: "Domestic"},
		{Cut: "Ownership", Subcut: "Foreign"},
	}
}

// DefaultIndicators are the ten indicators of the technology/performance analysis.
func DefaultIndicators() []IndicatorSpec {
	return []IndicatorSpec{
		{"t5", "Innovation and Technology", "Percent of firms having their own website", 0.9},
		{"t7", "Innovation and Technology", "Percent of firms that introduced a new product/service", 0.6},
		{"t9", "Innovation and Technology", "Percent of firms that introduced a process innovation", 0.55},
		{"perf1", "Performance", "Real annual sales growth (%)", 0.7},
		{"perf2", "Performance", "Annual employment growth (%)", 0.4},
		{"perf3", "Performance", "Annual labor productivity growth (%)", 0.8},
		{"bready_t1", "Innovation and Technology", "Percent of firms with an internationally-recognized quality certification", 0.75},
		{"fin14", "Finance", "Percent of firms with a bank loan/line of credit", 0.3},
		{"bready_fin28", "Finance", "Percent of firms receiving payments for sales online", 0.85},
		{"bready_fin31", "Finance", "Percent of firms making payments for purchases online", 0.8},
	}
}

// DefaultSurveyConfig returns a small, fully reproducible dataset
func DefaultSurveyConfig() SurveyGeneratorConfig {
	return SurveyGeneratorConfig{
		Country:       "Viet Nam2023",
		Year:          "2023",
		Segments:      DefaultSegments(),
		Indicators:    DefaultIndicators(),
		MissingRate:   0.05,
		DuplicateRate: 0.02,
		SampleRows:    true,
		Seed:          42,
	}
}

// SurveyHeader is the column layout the generator writes.
var SurveyHeader = []string{"country", "cabr", "year", "cut", "subcut", "indicator", "value", "se", "N", "method"}

// MetadataHeader is the indicator metadata layout.
var MetadataHeader = []string{"FieldName", "Topic", "EnglishName"}

// SurveyDataGenerator generates long-format indicator tables
type SurveyDataGenerator struct {
	config SurveyGeneratorConfig
	rng    *rand.Rand
}

// NewSurveyDataGenerator creates a new survey data generator
func NewSurveyDataGenerator(config SurveyGeneratorConfig) *SurveyDataGenerator {
	return &SurveyDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRows produces header plus data rows. The same seed always yields the same rows.
func (g *SurveyDataGenerator) GenerateRows() [][]string {
	rows := [][]string{append([]string(nil), SurveyHeader...)}
	var duplicates [][]string

	for _, seg := range g.config.Segments {
		factor := g.rng.Float64()
		size := 30 + g.rng.Intn(900)

		if g.config.SampleRows {
			rows = append(rows, g.row(seg, "_sample", strconv.Itoa(size), ".", "."))
			rows = append(rows, g.row(seg, "fieldworkdate", "2023", ".", "."))
		}

		for _, ind := range g.config.Indicators {
			noise := g.rng.Float64()
			value := 5 + 90*(ind.Loading*factor+(1-ind.Loading)*noise)
			se := 0.5 + 4*g.rng.Float64()
			n := size - g.rng.Intn(size/3+1)

			valueText := formatCell(value)
			if g.rng.Float64() < g.config.MissingRate {
				valueText = "."
			}
			row := g.row(seg, ind.Code, valueText, formatCell(se), strconv.Itoa(n))
			rows = append(rows, row)

			if g.rng.Float64() < g.config.DuplicateRate {
				dup := append([]string(nil), row...)
				dup[6] = formatCell(math.Min(100, value+10))
				duplicates = append(duplicates, dup)
			}
		}
	}
	return append(rows, duplicates...)
}

// GenerateMetadata produces the indicator metadata table. Codes with an
// underscore are written with a stray space after it, as the source files do.
func (g *SurveyDataGenerator) GenerateMetadata() [][]string {
	rows := [][]string{append([]string(nil), MetadataHeader...)}
	for _, ind := range g.config.Indicators {
		code := strings.Replace(ind.Code, "_", "_ ", 1)
		rows = append(rows, []string{code, ind.Topic, ind.EnglishName})
	}
	rows = append(rows, []string{"_sample", "Sample", "Number of firms in the sample"})
	return rows
}

func (g *SurveyDataGenerator) row(seg survey.Segment, code, value, se, n string) []string {
	return []string{g.config.Country, "VNM", g.config.Year, seg.Cut, seg.Subcut, code, value, se, n, "WBES"}
}

func formatCell(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
