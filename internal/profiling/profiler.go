package profiling

import (
	"fmt"
	"sort"

	"surveystat/adapters/datareadiness/coercer"
	"surveystat/domain/survey"
)

// numericFields are the record fields summarised and checked for missing cells.
var numericFields = []string{"value", "se", "N"}

// DataProfiler builds dataset overviews
type DataProfiler struct {
	coercer *coercer.NumericCoercer
}

// NewDataProfiler creates a profiler that classifies raw cells with the
// loader's coercion rules
func NewDataProfiler(coercion coercer.CoercionConfig) *DataProfiler {
	return &DataProfiler{coercer: coercer.NewNumericCoercer(coercion)}
}

// Overview profiles table: dimensions, scope, missing values, numeric
// summaries of value/se/N and row counts per topic. raw holds the unparsed
// value/se/N cells behind table; when present, missing cells are split into
// sentinel, empty and non-numeric text.
func (dp *DataProfiler) Overview(table *survey.Table, raw map[string][]string) (*Overview, error) {
	ov := &Overview{
		Source:  table.Source(),
		Rows:    table.Len(),
		Columns: table.Header(),
	}

	topics := make(map[string]int)
	indicators := make(map[string]bool)
	cutIndex := make(map[string]int)
	var values, ses, ns []float64
	missing := map[string]int{}

	table.Each(func(_ int, r survey.Record) bool {
		if r.Topic != "" {
			topics[r.Topic]++
		} else {
			missing["Topic"]++
		}
		if r.EnglishName == "" {
			missing["EnglishName"]++
		}
		indicators[r.Indicator.String()] = true

		if i, ok := cutIndex[r.Cut]; ok {
			ov.Cuts[i].Count++
		} else {
			cutIndex[r.Cut] = len(ov.Cuts)
			ov.Cuts = append(ov.Cuts, LabelCount{Label: r.Cut, Count: 1})
		}

		values = appendPresent(values, r.Value, missing, "value")
		ses = appendPresent(ses, r.SE, missing, "se")
		ns = appendPresent(ns, r.N, missing, "N")
		return true
	})

	ov.UniqueTopics = len(topics)
	ov.UniqueIndicators = len(indicators)
	for _, field := range []string{"value", "se", "N", "Topic", "EnglishName"} {
		if missing[field] > 0 {
			ov.Missing = append(ov.Missing, LabelCount{Label: field, Count: missing[field]})
		}
	}

	for _, f := range []struct {
		name string
		data []float64
	}{{numericFields[0], values}, {numericFields[1], ses}, {numericFields[2], ns}} {
		s, err := Summarize(f.name, f.data)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", f.name, err)
		}
		ov.Numeric = append(ov.Numeric, s)
	}

	for topic, count := range topics {
		ov.Topics = append(ov.Topics, LabelCount{Label: topic, Count: count})
	}
	sort.Slice(ov.Topics, func(i, j int) bool {
		if ov.Topics[i].Count != ov.Topics[j].Count {
			return ov.Topics[i].Count > ov.Topics[j].Count
		}
		return ov.Topics[i].Label < ov.Topics[j].Label
	})

	for _, field := range numericFields {
		cells, ok := raw[field]
		if !ok {
			continue
		}
		a := dp.coercer.AnalyzeColumn(cells)
		if a.MissingCount() > 0 {
			ov.MissingDetail = append(ov.MissingDetail, MissingBreakdown{
				Field:    field,
				Sentinel: a.SentinelCount,
				Empty:    a.EmptyCount,
				Text:     a.TextCount,
			})
		}
	}
	return ov, nil
}

func appendPresent(dst []float64, v survey.NullFloat, missing map[string]int, field string) []float64 {
	if !v.Valid {
		missing[field]++
		return dst
	}
	return append(dst, v.Float64)
}

// TopTopics returns at most n topics by row count.
func (ov *Overview) TopTopics(n int) []LabelCount {
	if n <= 0 || n > len(ov.Topics) {
		n = len(ov.Topics)
	}
	return ov.Topics[:n]
}
