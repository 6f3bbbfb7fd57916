package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"surveystat/adapters/datareadiness/coercer"
	"surveystat/adapters/excel"
	"surveystat/domain/core"
	"surveystat/domain/stats"
	"surveystat/domain/survey"
	"surveystat/internal/errors"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// IndicatorLabel pairs an indicator code with its short report label.
type IndicatorLabel struct {
	Code  string `mapstructure:"code" yaml:"code"`
	Label string `mapstructure:"label" yaml:"label"`
}

// Profile is the named set of indicators, labels, key relationships and
// segment choices that drives one analysis run.
type Profile struct {
	Name                 string                   `mapstructure:"name" yaml:"name"`
	Country              string                   `mapstructure:"country" yaml:"country"`
	Indicators           []IndicatorLabel         `mapstructure:"indicators" yaml:"indicators"`
	KeyRelationships     []stats.KeyRelationship  `mapstructure:"key_relationships" yaml:"key_relationships"`
	Cuts                 []string                 `mapstructure:"cuts" yaml:"cuts"`
	Exclude              []string                 `mapstructure:"exclude" yaml:"exclude"`
	ComparisonSegments   []survey.LabelledSegment `mapstructure:"comparison_segments" yaml:"comparison_segments"`
	ComparisonIndicators []string                 `mapstructure:"comparison_indicators" yaml:"comparison_indicators"`
	SampleSizeMode       string                   `mapstructure:"sample_size_mode" yaml:"sample_size_mode"`
	Precision            int                      `mapstructure:"precision" yaml:"precision"`
	Alpha                float64                  `mapstructure:"alpha" yaml:"alpha"`
	TopN                 int                      `mapstructure:"top_n" yaml:"top_n"`
	Reader               excel.ReaderConfig       `mapstructure:"reader" yaml:"reader"`
	Coercion             coercer.CoercionConfig   `mapstructure:"coercion" yaml:"coercion"`
}

// DefaultProfile is the technology/performance analysis of the 2023 Vietnam survey.
func DefaultProfile() *Profile {
	return &Profile{
		Name:    "vietnam-2023-technology",
		Country: "",
		Indicators: []IndicatorLabel{
			{"t5", "Website adoption"},
			{"t7", "Product innovation"},
			{"t9", "Process innovation"},
			{"perf1", "Sales growth"},
			{"perf2", "Employment growth"},
			{"perf3", "Productivity growth"},
			{"bready_t1", "Quality certification"},
			{"fin14", "Bank loan access"},
			{"bready_fin28", "E-payment sales"},
			{"bready_fin31", "E-payment purchases"},
		},
		KeyRelationships: []stats.KeyRelationship{
			{X: "bready_fin28", Y: "perf3", Label: "E-payment sales ↔ Productivity growth"},
			{X: "bready_fin31", Y: "perf3", Label: "E-payment purchases ↔ Productivity growth"},
			{X: "perf1", Y: "perf3", Label: "Sales growth ↔ Productivity growth"},
			{X: "bready_fin28", Y: "bready_fin31", Label: "E-payment sales ↔ E-payment purchases"},
			{X: "bready_fin28", Y: "perf1", Label: "E-payment sales ↔ Sales growth"},
			{X: "t7", Y: "t9", Label: "Product innovation ↔ Process innovation"},
			{X: "t9", Y: "fin14", Label: "Process innovation ↔ Bank loan access"},
			{X: "t5", Y: "bready_t1", Label: "Website ↔ Quality certification"},
			{X: "bready_fin31", Y: "perf1", Label: "E-payment purchases ↔ Sales growth"},
			{X: "t5", Y: "perf3", Label: "Website adoption ↔ Productivity growth"},
			{X: "t5", Y: "bready_fin28", Label: "Website adoption ↔ E-payment sales"},
			{X: "t5", Y: "perf2", Label: "Website adoption ↔ Employment growth"},
			{X: "perf2", Y: "perf3", Label: "Employment growth ↔ Productivity growth"},
			{X: "bready_fin31", Y: "perf2", Label: "E-payment purchases ↔ Employment growth"},
			{X: "t7", Y: "perf3", Label: "Product innovation ↔ Productivity growth"},
			{X: "t7", Y: "perf1", Label: "Product innovation ↔ Sales growth"},
			{X: "t5", Y: "t7", Label: "Website adoption ↔ Product innovation"},
		},
		Cuts:    nil,
		Exclude: []string{"_sample", "fieldworkdate"},
		ComparisonSegments: []survey.LabelledSegment{
			{Segment: survey.Segment{Cut: "Size", Subcut: "Small (5-19)"}, Label: "Small"},
			{Segment: survey.Segment{Cut: "Size", Subcut: "Medium (20-99)"}, Label: "Medium"},
			{Segment: survey.Segment{Cut: "Size", Subcut: "Large (100+)"}, Label: "Large"},
			{Segment: survey.Segment{Cut: "Exporter Type", Subcut: "Direct exports are 10% or more of sales"}, Label: "Exporter"},
			{Segment: survey.Segment{Cut: "Exporter Type", Subcut: "Non-exporter"}, Label: "Non-exporter"},
		},
		ComparisonIndicators: []string{"t5", "t7", "t9", "bready_t1"},
		SampleSizeMode:       string(stats.SampleSizeSegments),
		Precision:            0,
		Alpha:                0.05,
		TopN:                 10,
		Reader:               excel.DefaultReaderConfig(),
		Coercion:             coercer.DefaultCoercionConfig(),
	}
}

// LoadProfile reads a profile YAML file over the built-in defaults.
// SURVEY_-prefixed environment variables override scalar keys
// (SURVEY_PRECISION, SURVEY_TOP_N, SURVEY_COUNTRY, SURVEY_READER_SHEET, ...).
// An empty path returns the defaults with environment overrides applied.
func LoadProfile(path string) (*Profile, error) {
	v := viper.New()
	v.SetEnvPrefix("SURVEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultProfile()
	v.SetDefault("name", d.Name)
	v.SetDefault("country", d.Country)
	v.SetDefault("indicators", d.Indicators)
	v.SetDefault("key_relationships", d.KeyRelationships)
	v.SetDefault("cuts", d.Cuts)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("comparison_segments", d.ComparisonSegments)
	v.SetDefault("comparison_indicators", d.ComparisonIndicators)
	v.SetDefault("sample_size_mode", d.SampleSizeMode)
	v.SetDefault("precision", d.Precision)
	v.SetDefault("alpha", d.Alpha)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("reader.sheet", d.Reader.Sheet)
	v.SetDefault("reader.delimiter", d.Reader.Delimiter)
	v.SetDefault("coercion.missing_sentinels", d.Coercion.MissingSentinels)
	v.SetDefault("coercion.lenient", d.Coercion.Lenient)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("read profile %s: %w", path, err))
		}
	}

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("unmarshal profile: %w", err))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate rejects profiles the engine cannot run.
func (p *Profile) Validate() error {
	if len(p.Indicators) == 0 {
		return errors.ConfigInvalid("profile lists no indicators")
	}
	seen := make(map[core.IndicatorCode]bool, len(p.Indicators))
	for _, ind := range p.Indicators {
		code := core.NormalizeIndicatorCode(ind.Code)
		if code == "" {
			return errors.ConfigInvalid("profile has an indicator with an empty code")
		}
		if seen[code] {
			return errors.ConfigInvalid(fmt.Sprintf("indicator %s listed twice", code))
		}
		seen[code] = true
	}
	for _, rel := range p.KeyRelationships {
		if rel.X == "" || rel.Y == "" {
			return errors.ConfigInvalid(fmt.Sprintf("key relationship %q needs two indicators", rel.Label))
		}
	}
	if _, err := stats.ParseSampleSizeMode(p.SampleSizeMode); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if p.Precision < 0 || p.Precision > 10 {
		return errors.ConfigInvalid("precision must be between 0 and 10")
	}
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return errors.ConfigInvalid("alpha must be in (0, 1)")
	}
	if p.TopN < 0 {
		return errors.ConfigInvalid("top_n cannot be negative")
	}
	switch d := p.Reader.Delimiter; d {
	case "", "tab", `\t`:
	default:
		if utf8.RuneCountInString(d) != 1 {
			return errors.ConfigInvalid(fmt.Sprintf("reader delimiter %q must be a single character or \"tab\"", d))
		}
	}
	return nil
}

// Codes returns the indicator codes in profile order, spaces removed.
func (p *Profile) Codes() []core.IndicatorCode {
	raw := make([]string, len(p.Indicators))
	for i, ind := range p.Indicators {
		raw[i] = ind.Code
	}
	return core.ParseIndicatorCodes(raw)
}

// ExcludedCodes returns the exclusion set as indicator codes.
func (p *Profile) ExcludedCodes() []core.IndicatorCode {
	return core.ParseIndicatorCodes(p.Exclude)
}

// ComparisonCodes returns the comparison-table indicators.
func (p *Profile) ComparisonCodes() []core.IndicatorCode {
	return core.ParseIndicatorCodes(p.ComparisonIndicators)
}

// Mode parses the sample-size mode; Validate has already accepted it.
func (p *Profile) Mode() stats.SampleSizeMode {
	mode, err := stats.ParseSampleSizeMode(p.SampleSizeMode)
	if err != nil {
		return stats.SampleSizeSegments
	}
	return mode
}

// ApplyLabels adds the profile's short labels to catalog.
func (p *Profile) ApplyLabels(catalog *survey.Catalog) {
	for _, ind := range p.Indicators {
		catalog.Add(survey.Descriptor{Code: core.NormalizeIndicatorCode(ind.Code), Label: ind.Label})
	}
}

// MarshalProfile renders p as YAML.
func MarshalProfile(p *Profile) ([]byte, error) {
	b, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return b, nil
}

// SaveProfile writes p to path, creating the directory. An existing file is
// only replaced when overwrite is set.
func SaveProfile(p *Profile, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.ConfigInvalid(fmt.Sprintf("profile already exists: %s", path))
		}
	}
	b, err := MarshalProfile(p)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir profile dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}
