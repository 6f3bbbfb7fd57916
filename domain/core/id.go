package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID         ID
	IndicatorCode ID
)

func (id RunID) String() string         { return ID(id).String() }
func (id IndicatorCode) String() string { return ID(id).String() }

// NewRunID returns a fresh time-ordered run identifier.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// NormalizeIndicatorCode removes every space from a raw indicator code.
// Source tables carry codes like "bready_ fin28"; the metadata table does too.
func NormalizeIndicatorCode(raw string) IndicatorCode {
	return IndicatorCode(strings.ReplaceAll(raw, " ", ""))
}

// ParseIndicatorCodes normalizes a list of raw codes, dropping empties.
func ParseIndicatorCodes(raw []string) []IndicatorCode {
	codes := make([]IndicatorCode, 0, len(raw))
	for _, r := range raw {
		code := NormalizeIndicatorCode(strings.TrimSpace(r))
		if code == "" {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}
