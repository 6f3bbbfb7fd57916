package engine

import (
	"context"
	"math"

	"surveystat/domain/stats"
	"surveystat/domain/survey"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// perfectTolerance snaps floating-point noise around ±1 to exactly ±1.
const perfectTolerance = 1e-12

// CorrelationMatrix computes pairwise-complete Pearson correlations between
// all indicator columns. Each pair is written to its own fixed slots, so the
// result does not depend on worker scheduling.
func (e *StatsEngine) CorrelationMatrix(ctx context.Context, wide *survey.WideTable) (*stats.Matrix, error) {
	k := wide.Cols()
	columns := make([][]survey.NullFloat, k)
	for j := range columns {
		columns[j] = wide.Column(j)
	}

	cells := make([][]stats.Cell, k)
	for i := range cells {
		cells[i] = make([]stats.Cell, k)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			i, j := i, j
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				cell := pairwiseCorrelation(columns[i], columns[j])
				if i == j {
					cell.R = 1.0
				}
				cells[i][j] = cell
				cells[j][i] = cell
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &stats.Matrix{
		Codes:        append(wide.Codes[:0:0], wide.Codes...),
		Cells:        cells,
		SegmentCount: wide.Rows(),
	}, nil
}

// pairwiseCorrelation correlates the rows where both x and y are present.
func pairwiseCorrelation(x, y []survey.NullFloat) stats.Cell {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if x[i].Valid && y[i].Valid {
			xs = append(xs, x[i].Float64)
			ys = append(ys, y[i].Float64)
		}
	}

	cell := stats.Cell{N: len(xs)}
	if len(xs) < 2 {
		return cell
	}
	if !hasVariance(xs) || !hasVariance(ys) {
		return cell
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return cell
	}
	cell.R = snapUnit(r)
	cell.Valid = true
	return cell
}

func hasVariance(values []float64) bool {
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return stat.Variance(values, nil) > 0
		}
	}
	return false
}

// snapUnit clamps r into [-1, 1] and rounds values within tolerance of ±1.
func snapUnit(r float64) float64 {
	switch {
	case r >= 1-perfectTolerance:
		return 1
	case r <= -1+perfectTolerance:
		return -1
	default:
		return r
	}
}

// RoundTo rounds v half away from zero; decimals <= 0 returns v unchanged.
func RoundTo(v float64, decimals int) float64 {
	if decimals <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// TStatistic is r·sqrt((n-2)/(1-r²)), ±Inf when |r| = 1 and NaN when n < 2.
func TStatistic(r float64, n int) float64 {
	if math.IsNaN(r) || n < 2 {
		return math.NaN()
	}
	if math.Abs(r) >= 1 {
		return math.Copysign(math.Inf(1), r)
	}
	return r * math.Sqrt(float64(n-2)/(1-r*r))
}

// PValue is the two-tailed Student-t p-value. Infinite t gives 0 whatever the
// degrees of freedom; otherwise df < 1 or a NaN t gives NaN.
func PValue(t float64, df int) float64 {
	if math.IsInf(t, 0) {
		return 0
	}
	if math.IsNaN(t) || df < 1 {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	return math.Max(0, math.Min(1, p))
}

// CriticalT is the two-tailed critical value at level alpha, NaN when df < 1.
func CriticalT(df int, alpha float64) float64 {
	if df < 1 {
		return math.NaN()
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return dist.Quantile(1 - alpha/2)
}

// EvaluatePair derives t, p, tiers and the interpretation for one matrix cell.
func (e *StatsEngine) EvaluatePair(matrix *stats.Matrix, i, j int) stats.PairResult {
	cell := matrix.At(i, j)
	res := stats.PairResult{
		X:     matrix.Codes[i],
		Y:     matrix.Codes[j],
		Valid: cell.Valid,
	}

	n := matrix.SegmentCount
	if e.config.Mode == stats.SampleSizePairwise {
		n = cell.N
	}
	res.N = n

	if cell.Valid {
		res.R = RoundTo(cell.R, e.config.Precision)
		res.T = TStatistic(res.R, n)
		res.P = PValue(res.T, n-2)
	} else {
		res.T = math.NaN()
		res.P = math.NaN()
	}

	r := res.DisplayR()
	res.Significance = stats.ClassifySignificance(res.P)
	res.Strength = stats.ClassifyStrength(r)
	res.Direction = stats.ClassifyDirection(r)
	res.Interpretation = stats.Interpret(res.Strength, res.Direction, res.Significance)
	res.Significant = math.Abs(res.T) > CriticalT(n-2, e.config.Alpha)
	return res
}

// evaluateAllPairs walks the upper triangle in (i, j) order.
func (e *StatsEngine) evaluateAllPairs(matrix *stats.Matrix) []stats.PairResult {
	k := matrix.Size()
	pairs := make([]stats.PairResult, 0, k*(k-1)/2)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			res := e.EvaluatePair(matrix, i, j)
			res.Order = len(pairs)
			pairs = append(pairs, res)
		}
	}
	return pairs
}
