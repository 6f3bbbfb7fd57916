package stats

import (
	"fmt"
	"math"
	"strings"

	"surveystat/domain/core"
)

// SampleSizeMode selects the n used for a pair's t-statistic.
type SampleSizeMode string

const (
	// SampleSizeSegments uses the wide table's row count for every pair.
	SampleSizeSegments SampleSizeMode = "segments"
	// SampleSizePairwise uses the pair's complete-case count.
	SampleSizePairwise SampleSizeMode = "pairwise"
)

// ParseSampleSizeMode accepts "segments" or "pairwise"; empty means segments.
func ParseSampleSizeMode(s string) (SampleSizeMode, error) {
	switch SampleSizeMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SampleSizeSegments:
		return SampleSizeSegments, nil
	case SampleSizePairwise:
		return SampleSizePairwise, nil
	default:
		return "", fmt.Errorf("%w: %q (want segments or pairwise)", core.ErrInvalidSampleSizeMode, s)
	}
}

// Cell is one correlation matrix entry. Valid=false marks an undefined
// correlation (fewer than two complete rows or zero variance).
type Cell struct {
	R     float64 `yaml:"r"`
	N     int     `yaml:"n"` // complete-case count
	Valid bool    `yaml:"valid"`
}

// Display is R, or 0.0 for an undefined correlation.
func (c Cell) Display() float64 {
	if !c.Valid {
		return 0
	}
	return c.R
}

// Matrix is a k×k symmetric correlation matrix over indicator columns.
type Matrix struct {
	Codes        []core.IndicatorCode
	Cells        [][]Cell
	SegmentCount int // rows of the wide table it was computed from
}

// Size is k.
func (m *Matrix) Size() int { return len(m.Codes) }

// At returns cell (i, j).
func (m *Matrix) At(i, j int) Cell { return m.Cells[i][j] }

// Display returns the matrix with undefined cells rendered as 0.0.
func (m *Matrix) Display() [][]float64 {
	out := make([][]float64, len(m.Cells))
	for i, row := range m.Cells {
		out[i] = make([]float64, len(row))
		for j, c := range row {
			out[i][j] = c.Display()
		}
	}
	return out
}

// SignificanceTier is a star rating derived from the p-value.
type SignificanceTier string

const (
	TierHighlySignificant SignificanceTier = "***"
	TierSignificant       SignificanceTier = "**"
	TierMarginal          SignificanceTier = "*"
	TierNotSignificant    SignificanceTier = "ns"
)

// Tiers lists every tier from strongest to weakest.
var Tiers = []SignificanceTier{TierHighlySignificant, TierSignificant, TierMarginal, TierNotSignificant}

// ClassifySignificance maps p to a tier. NaN is not significant.
func ClassifySignificance(p float64) SignificanceTier {
	switch {
	case math.IsNaN(p):
		return TierNotSignificant
	case p < 0.001:
		return TierHighlySignificant
	case p < 0.01:
		return TierSignificant
	case p < 0.05:
		return TierMarginal
	default:
		return TierNotSignificant
	}
}

// Phrase is the wording used in interpretations.
func (t SignificanceTier) Phrase() string {
	switch t {
	case TierHighlySignificant:
		return "highly significant"
	case TierSignificant:
		return "significant"
	case TierMarginal:
		return "marginally significant"
	default:
		return "not significant"
	}
}

// Strength classifies |r|.
type Strength string

const (
	StrengthVeryStrong Strength = "Very strong"
	StrengthStrong     Strength = "Strong"
	StrengthModerate   Strength = "Moderate"
	StrengthWeak       Strength = "Weak"
)

// Strengths lists every strength from strongest to weakest.
var Strengths = []Strength{StrengthVeryStrong, StrengthStrong, StrengthModerate, StrengthWeak}

// ClassifyStrength uses strict thresholds: exactly 0.70 is Strong, not Very strong.
func ClassifyStrength(r float64) Strength {
	abs := math.Abs(r)
	switch {
	case abs > 0.70:
		return StrengthVeryStrong
	case abs > 0.50:
		return StrengthStrong
	case abs > 0.30:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// Direction is the sign of r; zero counts as negative.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)

func ClassifyDirection(r float64) Direction {
	if r > 0 {
		return DirectionPositive
	}
	return DirectionNegative
}

// Interpret builds "{strength} {direction} correlation, {phrase}".
func Interpret(strength Strength, direction Direction, tier SignificanceTier) string {
	return fmt.Sprintf("%s %s correlation, %s", strength, direction, tier.Phrase())
}

// FormatP renders a p-value the way the paper tables do.
func FormatP(p float64) string {
	switch {
	case math.IsNaN(p):
		return "n/a"
	case p < 0.001:
		return "<0.001"
	case p < 0.01:
		return "<0.01"
	case p < 0.05:
		return "<0.05"
	default:
		return fmt.Sprintf("%.3f", p)
	}
}

// FormatT renders a t-statistic with two decimals; infinities print as ±∞.
func FormatT(t float64) string {
	switch {
	case math.IsNaN(t):
		return "n/a"
	case math.IsInf(t, 1):
		return "∞"
	case math.IsInf(t, -1):
		return "-∞"
	default:
		return fmt.Sprintf("%.2f", t)
	}
}

// KeyRelationship is a labelled indicator pair singled out for reporting.
type KeyRelationship struct {
	X     core.IndicatorCode `yaml:"x" mapstructure:"x"`
	Y     core.IndicatorCode `yaml:"y" mapstructure:"y"`
	Label string             `yaml:"label" mapstructure:"label"`
}

// PairResult is the significance analysis of one indicator pair.
type PairResult struct {
	X              core.IndicatorCode
	Y              core.IndicatorCode
	Label          string // set for key relationships
	Order          int    // enumeration order, used as the sort tie-break
	R              float64
	Valid          bool
	N              int // sample size the t-statistic used
	T              float64
	P              float64
	Significance   SignificanceTier
	Strength       Strength
	Direction      Direction
	Interpretation string
	Significant    bool // |t| > critical t
}

// DisplayR is R, or 0.0 for an undefined correlation.
func (p PairResult) DisplayR() float64 {
	if !p.Valid {
		return 0
	}
	return p.R
}

// Summary aggregates a result set.
type Summary struct {
	TotalPairs       int                      `yaml:"total_pairs"`
	ValidPairs       int                      `yaml:"valid_pairs"`
	SignificantPairs int                      `yaml:"significant_pairs"`
	TierCounts       map[SignificanceTier]int `yaml:"tier_counts"`
	StrengthCounts   map[Strength]int         `yaml:"strength_counts"` // over key relationships
	CriticalT        float64                  `yaml:"critical_t"`
	DegreesOfFreedom int                      `yaml:"degrees_of_freedom"`
}

// Analysis is everything the correlation engine derives from one wide table.
type Analysis struct {
	Matrix           *Matrix
	Mode             SampleSizeMode
	SampleSize       int // segment count
	DegreesOfFreedom int
	CriticalT        float64
	Pairs            []PairResult // all i<j pairs, sorted by descending |t|
	Key              []PairResult // key relationships, sorted by descending |t|
	Summary          Summary
}

// Top returns at most n pairs from the sorted all-pairs list.
func (a *Analysis) Top(n int) []PairResult {
	if n <= 0 || n > len(a.Pairs) {
		n = len(a.Pairs)
	}
	out := make([]PairResult, n)
	copy(out, a.Pairs[:n])
	return out
}
