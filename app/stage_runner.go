package app

import (
	"context"
	"time"

	"surveystat/internal"
	"surveystat/internal/errors"
)

// StageTiming records how long one pipeline stage took
type StageTiming struct {
	Stage    string        `yaml:"stage"`
	Duration time.Duration `yaml:"duration"`
}

// StageRunner executes pipeline stages in order. The first failing stage
// stops the run and its error names the stage.
type StageRunner struct {
	logger  *internal.Logger
	timings []StageTiming
}

// NewStageRunner creates a new stage runner
func NewStageRunner(logger *internal.Logger) *StageRunner {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &StageRunner{logger: logger.With("StageRunner")}
}

// Run executes fn as the named stage
func (r *StageRunner) Run(ctx context.Context, stage string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "stage %s not started", stage)
	}
	start := time.Now()
	r.logger.Debug("stage %s started", stage)

	if err := fn(ctx); err != nil {
		r.logger.Error("stage %s failed after %s: %v", stage, time.Since(start).Round(time.Millisecond), err)
		return errors.Wrapf(err, "stage %s failed", stage)
	}

	elapsed := time.Since(start)
	r.timings = append(r.timings, StageTiming{Stage: stage, Duration: elapsed})
	r.logger.Info("stage %s completed in %s", stage, elapsed.Round(time.Millisecond))
	return nil
}

// Timings returns the completed stages in execution order
func (r *StageRunner) Timings() []StageTiming {
	return append([]StageTiming(nil), r.timings...)
}
