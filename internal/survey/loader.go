package survey

import (
	"fmt"
	"strings"
	"time"

	"surveystat/adapters/datareadiness/coercer"
	"surveystat/adapters/excel"
	"surveystat/domain/core"
	"surveystat/domain/survey"
	"surveystat/internal"
	apperrors "surveystat/internal/errors"
)

// Column aliases, most preferred first.
var (
	colCountry     = []string{"country"}
	colCabr        = []string{"cabr"}
	colYear        = []string{"year"}
	colCut         = []string{"cut"}
	colSubcut      = []string{"subcut"}
	colIndicator   = []string{"indicator"}
	colTopic       = []string{"topic"}
	colEnglishName = []string{"english_name", "englishname"}
	colValue       = []string{"value"}
	colSE          = []string{"se"}
	colN           = []string{"N"}
	colMethod      = []string{"method"}

	colFieldName = []string{"FieldName", "field_name", "indicator", "code"}
	colLabel     = []string{"label"}
)

// DefaultExclusions are sampling-metadata rows that are never indicators.
var DefaultExclusions = []core.IndicatorCode{"_sample", "fieldworkdate"}

// LoaderConfig controls how raw tables become survey records.
type LoaderConfig struct {
	Reader   excel.ReaderConfig
	Coercion coercer.CoercionConfig
	Exclude  []core.IndicatorCode
	// Country keeps rows whose country contains this text, ignoring case. Empty keeps all.
	Country string
}

// DefaultLoaderConfig excludes the sampling rows and keeps every country.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Reader:   excel.DefaultReaderConfig(),
		Coercion: coercer.DefaultCoercionConfig(),
		Exclude:  append([]core.IndicatorCode(nil), DefaultExclusions...),
	}
}

// Loader reads long-format indicator tables and indicator metadata.
type Loader struct {
	config  LoaderConfig
	coercer *coercer.NumericCoercer
	logger  *internal.Logger
}

// NewLoader creates a loader.
func NewLoader(config LoaderConfig, logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Loader{
		config:  config,
		coercer: coercer.NewNumericCoercer(config.Coercion),
		logger:  logger.With("Loader"),
	}
}

// Load reads path into a table. Any failure is a DATA_SOURCE error and no
// partial table is returned.
func (l *Loader) Load(path string) (*survey.Table, error) {
	table, _, err := l.LoadWithRaw(path)
	return table, err
}

// LoadWithRaw is Load that also returns the unparsed value, se and N cells
// of the kept rows (see RawColumns).
func (l *Loader) LoadWithRaw(path string) (*survey.Table, map[string][]string, error) {
	start := time.Now()
	data, err := excel.NewDataReader(path, l.config.Reader).ReadData()
	if err != nil {
		return nil, nil, apperrors.DataSourceError(path, err)
	}
	table, err := l.FromRaw(data)
	if err != nil {
		return nil, nil, apperrors.DataSourceError(path, err)
	}
	raw, err := l.RawColumns(data)
	if err != nil {
		return nil, nil, apperrors.DataSourceError(path, err)
	}
	l.logger.Info("loaded %d records from %s in %s", table.Len(), path, time.Since(start).Round(time.Millisecond))
	return table, raw, nil
}

// columns holds the resolved source header for each record field; optional
// fields missing from the source are "".
type columns struct {
	cut, subcut, indicator, value                          string
	country, cabr, year, topic, englishName, se, n, method string
}

func resolveColumns(data *excel.ExcelData) (columns, error) {
	var cols columns
	for _, req := range []struct {
		name    string
		aliases []string
		dst     *string
	}{
		{"cut", colCut, &cols.cut},
		{"subcut", colSubcut, &cols.subcut},
		{"indicator", colIndicator, &cols.indicator},
		{"value", colValue, &cols.value},
	} {
		header, ok := data.ResolveColumn(req.aliases...)
		if !ok {
			return columns{}, core.NewMissingColumnError(req.name, data.Source)
		}
		*req.dst = header
	}
	optional := func(aliases []string) string {
		header, _ := data.ResolveColumn(aliases...)
		return header
	}
	cols.country = optional(colCountry)
	cols.cabr = optional(colCabr)
	cols.year = optional(colYear)
	cols.topic = optional(colTopic)
	cols.englishName = optional(colEnglishName)
	cols.se = optional(colSE)
	cols.n = optional(colN)
	cols.method = optional(colMethod)
	return cols, nil
}

type rowVerdict int

const (
	keepRow rowVerdict = iota
	excludedRow
	otherCountryRow
)

// rowFilter applies the indicator exclusions and the country filter.
type rowFilter struct {
	excluded map[core.IndicatorCode]bool
	country  string
}

func (l *Loader) newRowFilter() rowFilter {
	excluded := make(map[core.IndicatorCode]bool, len(l.config.Exclude))
	for _, code := range l.config.Exclude {
		excluded[core.NormalizeIndicatorCode(code.String())] = true
	}
	return rowFilter{excluded: excluded, country: strings.ToLower(strings.TrimSpace(l.config.Country))}
}

func (f rowFilter) check(row excel.RawRowData, cols columns) rowVerdict {
	if f.excluded[core.NormalizeIndicatorCode(row[cols.indicator])] {
		return excludedRow
	}
	if f.country != "" && !strings.Contains(strings.ToLower(cell(row, cols.country)), f.country) {
		return otherCountryRow
	}
	return keepRow
}

// FromRaw converts already-read rows. Excluded indicators and rows outside the
// country filter are dropped before anything else sees them.
func (l *Loader) FromRaw(data *excel.ExcelData) (*survey.Table, error) {
	cols, err := resolveColumns(data)
	if err != nil {
		return nil, err
	}
	filter := l.newRowFilter()

	records := make([]survey.Record, 0, len(data.Rows))
	dropped, filtered := 0, 0
	for _, row := range data.Rows {
		switch filter.check(row, cols) {
		case excludedRow:
			dropped++
			continue
		case otherCountryRow:
			filtered++
			continue
		}
		countryName := cell(row, cols.country)
		if countryName == "" {
			countryName = cell(row, cols.cabr)
		}
		records = append(records, survey.Record{
			Country:     countryName,
			Year:        cell(row, cols.year),
			Cut:         row[cols.cut],
			Subcut:      row[cols.subcut],
			Indicator:   core.NormalizeIndicatorCode(row[cols.indicator]),
			Topic:       cell(row, cols.topic),
			EnglishName: cell(row, cols.englishName),
			Value:       l.coercer.Coerce(row[cols.value]),
			SE:          l.coercer.Coerce(cell(row, cols.se)),
			N:           l.coercer.Coerce(cell(row, cols.n)),
			Method:      cell(row, cols.method),
		})
	}

	l.logger.Debug("dropped %d excluded rows, %d rows outside country filter %q", dropped, filtered, l.config.Country)
	return survey.NewTable(data.Source, data.Headers, records), nil
}

// RawColumns returns the unparsed value, se and N cells of the rows FromRaw
// keeps, keyed "value", "se" and "N". Optional columns the source lacks are
// left out.
func (l *Loader) RawColumns(data *excel.ExcelData) (map[string][]string, error) {
	cols, err := resolveColumns(data)
	if err != nil {
		return nil, err
	}
	filter := l.newRowFilter()
	kept := &excel.ExcelData{Source: data.Source, Headers: data.Headers}
	for _, row := range data.Rows {
		if filter.check(row, cols) == keepRow {
			kept.Rows = append(kept.Rows, row)
		}
	}

	out := make(map[string][]string, 3)
	for field, header := range map[string]string{"value": cols.value, "se": cols.se, "N": cols.n} {
		if header != "" {
			out[field] = kept.Column(header)
		}
	}
	return out, nil
}

func cell(row excel.RawRowData, header string) string {
	if header == "" {
		return ""
	}
	return row[header]
}

// LoadCatalog reads an indicator metadata table (FieldName, Topic,
// EnglishName and an optional label column).
func (l *Loader) LoadCatalog(path string) (*survey.Catalog, error) {
	data, err := excel.NewDataReader(path, excel.DefaultReaderConfig()).ReadData()
	if err != nil {
		return nil, apperrors.DataSourceError(path, err)
	}
	catalog, err := CatalogFromRaw(data)
	if err != nil {
		return nil, apperrors.DataSourceError(path, err)
	}
	l.logger.Info("loaded %d indicator descriptors from %s", catalog.Len(), path)
	return catalog, nil
}

// CatalogFromRaw builds a catalog from metadata rows; codes have spaces removed.
func CatalogFromRaw(data *excel.ExcelData) (*survey.Catalog, error) {
	hField, ok := data.ResolveColumn(colFieldName...)
	if !ok {
		return nil, core.NewMissingColumnError("FieldName", data.Source)
	}
	hTopic, _ := data.ResolveColumn(colTopic...)
	hName, _ := data.ResolveColumn(colEnglishName...)
	hLabel, _ := data.ResolveColumn(colLabel...)

	catalog := survey.NewCatalog()
	for _, row := range data.Rows {
		catalog.Add(survey.Descriptor{
			Code:        core.NormalizeIndicatorCode(row[hField]),
			Topic:       cell(row, hTopic),
			EnglishName: cell(row, hName),
			Label:       cell(row, hLabel),
		})
	}
	if catalog.Len() == 0 {
		return nil, fmt.Errorf("%w: no indicator codes in %s", core.ErrEmptySource, data.Source)
	}
	return catalog, nil
}

// JoinCatalog left-joins descriptors onto records by indicator code, filling
// topic and English name where the record has none. The input is not modified.
func JoinCatalog(table *survey.Table, catalog *survey.Catalog) *survey.Table {
	records := make([]survey.Record, 0, table.Len())
	table.Each(func(_ int, r survey.Record) bool {
		if d, ok := catalog.Lookup(r.Indicator); ok {
			if r.Topic == "" {
				r.Topic = d.Topic
			}
			if r.EnglishName == "" {
				r.EnglishName = d.EnglishName
			}
		}
		records = append(records, r)
		return true
	})
	return survey.NewTable(table.Source(), table.Header(), records)
}

// CatalogFromTable adds every indicator seen in the table to base (or a new
// catalog), using the first non-empty topic and English name per code.
func CatalogFromTable(table *survey.Table, base *survey.Catalog) *survey.Catalog {
	catalog := base
	if catalog == nil {
		catalog = survey.NewCatalog()
	}
	table.Each(func(_ int, r survey.Record) bool {
		existing, ok := catalog.Lookup(r.Indicator)
		d := survey.Descriptor{Code: r.Indicator}
		if !ok || existing.Topic == "" {
			d.Topic = r.Topic
		}
		if !ok || existing.EnglishName == "" {
			d.EnglishName = r.EnglishName
		}
		catalog.Add(d)
		return true
	})
	return catalog
}
