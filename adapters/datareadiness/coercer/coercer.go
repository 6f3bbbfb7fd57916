package coercer

import (
	"math"
	"strconv"
	"strings"

	"surveystat/domain/survey"
)

// NumericCoercer turns raw survey cells into optional numbers.
type NumericCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines which cells count as missing and how forgiving parsing is
type CoercionConfig struct {
	MissingSentinels []string `yaml:"missing_sentinels" mapstructure:"missing_sentinels"`
	// Lenient accepts currency symbols, percent signs, (123) negatives and
	// European decimal commas. Off by default: "1,234" is then missing.
	Lenient bool `yaml:"lenient" mapstructure:"lenient"`
}

// DefaultCoercionConfig treats "." as the only sentinel.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		MissingSentinels: []string{"."},
		Lenient:          false,
	}
}

// NewNumericCoercer creates a coercer with the given config
func NewNumericCoercer(config CoercionConfig) *NumericCoercer {
	return &NumericCoercer{config: config}
}

var defaultCoercer = NewNumericCoercer(DefaultCoercionConfig())

// ParseOrMissing coerces raw with the default rules: the "." sentinel, empty
// text and anything non-numeric become missing.
func ParseOrMissing(raw string) survey.NullFloat {
	return defaultCoercer.Coerce(raw)
}

// Coerce converts one cell.
func (c *NumericCoercer) Coerce(raw string) survey.NullFloat {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return survey.Missing()
	}
	for _, sentinel := range c.config.MissingSentinels {
		if cleanVal == sentinel {
			return survey.Missing()
		}
	}

	if c.config.Lenient {
		cleanVal = normalizeInternational(cleanVal)
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return survey.Missing()
	}
	return survey.Float(val)
}

// normalizeInternational rewrites (123), currency, percent and European
// decimal formats into something strconv accepts.
func normalizeInternational(cleanVal string) string {
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "VND", "₫"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(strings.ReplaceAll(cleanVal, "%", ""))

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		commaIdx := strings.LastIndex(cleanVal, ",")
		afterComma := cleanVal[commaIdx+1:]
		if len(afterComma) <= 3 && isDigits(afterComma) && commaIdx > strings.LastIndex(cleanVal, ".") {
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
		}
	case hasComma:
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}
	return cleanVal
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ColumnAnalysis counts how a column of raw cells coerces
type ColumnAnalysis struct {
	TotalCount    int     `yaml:"total_count"`
	NumericCount  int     `yaml:"numeric_count"`
	SentinelCount int     `yaml:"sentinel_count"`
	EmptyCount    int     `yaml:"empty_count"`
	TextCount     int     `yaml:"text_count"`
	NumericRatio  float64 `yaml:"numeric_ratio"`
}

// MissingCount is every cell that did not coerce to a number.
func (a ColumnAnalysis) MissingCount() int {
	return a.TotalCount - a.NumericCount
}

// AnalyzeColumn classifies every cell of a raw column.
func (c *NumericCoercer) AnalyzeColumn(values []string) ColumnAnalysis {
	analysis := ColumnAnalysis{TotalCount: len(values)}
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed == "":
			analysis.EmptyCount++
		case c.isSentinel(trimmed):
			analysis.SentinelCount++
		case c.Coerce(trimmed).Valid:
			analysis.NumericCount++
		default:
			analysis.TextCount++
		}
	}
	if analysis.TotalCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.TotalCount)
	}
	return analysis
}

func (c *NumericCoercer) isSentinel(s string) bool {
	for _, sentinel := range c.config.MissingSentinels {
		if s == sentinel {
			return true
		}
	}
	return false
}
