package engine

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"surveystat/domain/core"
	"surveystat/domain/stats"
	"surveystat/domain/survey"
	"surveystat/internal"

	"gonum.org/v1/gonum/stat"
)

// Config controls how the engine turns correlations into significance results.
type Config struct {
	Mode      stats.SampleSizeMode
	Precision int     // decimals r is rounded to before t is computed; 0 keeps full precision
	Alpha     float64 // two-tailed level for the critical t
	Workers   int     // bounded parallelism for the pairwise pass; <=0 means GOMAXPROCS
}

// DefaultConfig reproduces the reference computation.
func DefaultConfig() Config {
	return Config{
		Mode:      stats.SampleSizeSegments,
		Precision: 0,
		Alpha:     0.05,
		Workers:   runtime.GOMAXPROCS(0),
	}
}

// StatsEngine provides the correlation and significance computation
type StatsEngine struct {
	config Config
	logger *internal.Logger
}

// NewStatsEngine creates a new statistical engine
func NewStatsEngine(config Config, logger *internal.Logger) *StatsEngine {
	if config.Mode == "" {
		config.Mode = stats.SampleSizeSegments
	}
	if config.Alpha <= 0 || config.Alpha >= 1 {
		config.Alpha = 0.05
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &StatsEngine{config: config, logger: logger.With("StatsEngine")}
}

// Analyze computes the matrix, evaluates every pair and the key relationships,
// and summarises the result. Undefined correlations are marked, never errors.
func (e *StatsEngine) Analyze(ctx context.Context, wide *survey.WideTable, key []stats.KeyRelationship) (*stats.Analysis, error) {
	if wide == nil || wide.Cols() == 0 {
		return nil, core.ErrNoIndicators
	}
	start := time.Now()

	for _, col := range e.ProfileColumns(wide) {
		if col.Present < 2 || col.ZeroVariance {
			e.logger.Warn("indicator %s has %d values and no variance; its correlations are undefined", col.Code, col.Present)
		}
	}

	matrix, err := e.CorrelationMatrix(ctx, wide)
	if err != nil {
		return nil, err
	}

	n := wide.Rows()
	df := n - 2
	critical := CriticalT(df, e.config.Alpha)
	if df < 1 {
		e.logger.Warn("only %d segments; t-statistics have no degrees of freedom", n)
	}

	pairs := e.evaluateAllPairs(matrix)
	keyPairs := e.evaluateKeyRelationships(matrix, key)
	SortByAbsT(pairs)
	SortByAbsT(keyPairs)

	analysis := &stats.Analysis{
		Matrix:           matrix,
		Mode:             e.config.Mode,
		SampleSize:       n,
		DegreesOfFreedom: df,
		CriticalT:        critical,
		Pairs:            pairs,
		Key:              keyPairs,
	}
	analysis.Summary = Summarize(analysis)

	e.logger.Info("analyzed %d indicators over %d segments (%d pairs, %d significant) in %s",
		wide.Cols(), n, len(pairs), analysis.Summary.SignificantPairs, time.Since(start).Round(time.Millisecond))
	return analysis, nil
}

// ColumnProfile summarises one wide-table column.
type ColumnProfile struct {
	Code         core.IndicatorCode `yaml:"code"`
	Present      int                `yaml:"present"`
	MissingRate  float64            `yaml:"missing_rate"`
	Mean         float64            `yaml:"mean"`
	Variance     float64            `yaml:"variance"`
	ZeroVariance bool               `yaml:"zero_variance"`
}

// ProfileColumns profiles every indicator column of the wide table
func (e *StatsEngine) ProfileColumns(wide *survey.WideTable) []ColumnProfile {
	out := make([]ColumnProfile, wide.Cols())
	for j, code := range wide.Codes {
		out[j] = profileColumn(code, wide.Column(j))
	}
	return out
}

// profileColumn profiles a single column
func profileColumn(code core.IndicatorCode, column []survey.NullFloat) ColumnProfile {
	values := presentValues(column)
	p := ColumnProfile{Code: code, Present: len(values)}
	if len(column) > 0 {
		p.MissingRate = 1.0 - float64(len(values))/float64(len(column))
	}
	switch len(values) {
	case 0:
		p.Mean, p.Variance = math.NaN(), math.NaN()
	case 1:
		p.Mean, p.Variance = values[0], 0
	default:
		p.Mean, p.Variance = stat.MeanVariance(values, nil)
	}
	p.ZeroVariance = !(p.Variance > 1e-10)
	return p
}

func presentValues(column []survey.NullFloat) []float64 {
	values := make([]float64, 0, len(column))
	for _, v := range column {
		if v.Valid {
			values = append(values, v.Float64)
		}
	}
	return values
}

func (e *StatsEngine) String() string {
	return fmt.Sprintf("StatsEngine(mode=%s, precision=%d, alpha=%.3f, workers=%d)",
		e.config.Mode, e.config.Precision, e.config.Alpha, e.config.Workers)
}
