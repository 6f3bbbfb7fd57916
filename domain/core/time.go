package core

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// String formats the timestamp as RFC3339.
func (t Timestamp) String() string {
	return time.Time(t).Format(time.RFC3339)
}

// MarshalYAML writes the timestamp as an RFC3339 string.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// UnmarshalYAML reads an RFC3339 string.
func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	tm, err := time.Parse(time.RFC3339, value.Value)
	if err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}
