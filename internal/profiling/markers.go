package profiling

// NumericSummary describes one numeric field: count, mean, std, min, max
type NumericSummary struct {
	Field  string  `yaml:"field"`
	Count  int     `yaml:"count"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std"` // sample standard deviation
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Median float64 `yaml:"median"`
}

// LabelCount pairs a label with a row count
type LabelCount struct {
	Label string `yaml:"label"`
	Count int    `yaml:"count"`
}

// MissingBreakdown splits a numeric field's missing cells by what the source held
type MissingBreakdown struct {
	Field    string `yaml:"field"`
	Sentinel int    `yaml:"sentinel"` // missing-value markers such as "."
	Empty    int    `yaml:"empty"`
	Text     int    `yaml:"text"` // anything else that is not a number
}

// Overview summarises a long-format survey table
type Overview struct {
	Source           string             `yaml:"source"`
	Rows             int                `yaml:"rows"`
	Columns          []string           `yaml:"columns"`
	UniqueTopics     int                `yaml:"unique_topics"`
	UniqueIndicators int                `yaml:"unique_indicators"`
	Cuts             []LabelCount       `yaml:"cuts"`    // first-seen order
	Missing          []LabelCount       `yaml:"missing"` // only fields with missing values
	MissingDetail    []MissingBreakdown `yaml:"missing_detail"`
	Numeric          []NumericSummary   `yaml:"numeric"`
	Topics           []LabelCount       `yaml:"topics"` // descending by count
}
