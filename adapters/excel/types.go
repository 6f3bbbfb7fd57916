package excel

import "strings"

// RawRowData represents a row of raw cells keyed by trimmed header
type RawRowData map[string]string

// ExcelData represents a complete raw dataset read from xlsx or delimited text
type ExcelData struct {
	Source  string       // File the data came from
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// ResolveColumn finds the header matching one of names, ignoring case.
// Names are tried in order so callers can list aliases by preference.
func (d *ExcelData) ResolveColumn(names ...string) (string, bool) {
	for _, name := range names {
		for _, header := range d.Headers {
			if strings.EqualFold(header, name) {
				return header, true
			}
		}
	}
	return "", false
}

// Column returns every row's cell for header, "" where absent.
func (d *ExcelData) Column(header string) []string {
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[header]
	}
	return out
}
