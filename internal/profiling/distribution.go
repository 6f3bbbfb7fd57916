package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Summarize computes count, mean, sample std, min, max and median of data.
// An empty input yields a zero count and NaN statistics; a single value has a
// NaN standard deviation.
func Summarize(field string, data []float64) (NumericSummary, error) {
	summary := NumericSummary{
		Field:  field,
		Count:  len(data),
		Mean:   math.NaN(),
		StdDev: math.NaN(),
		Min:    math.NaN(),
		Max:    math.NaN(),
		Median: math.NaN(),
	}
	if len(data) == 0 {
		return summary, nil
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return summary, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return summary, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return summary, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return summary, err
	}
	summary.Mean, summary.Min, summary.Max, summary.Median = mean, min, max, median

	if len(data) > 1 {
		std, err := stats.StandardDeviationSample(data)
		if err != nil {
			return summary, err
		}
		summary.StdDev = std
	}
	return summary, nil
}
