package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"surveystat/domain/survey"
	"surveystat/internal/errors"
)

// PivotFile is the wide table export.
const PivotFile = "Pivoted_Data.csv"

// WriteWideCSV writes the wide table as cut, subcut, then one column per
// indicator code. Missing values are empty fields.
func WriteWideCSV(path string, wide *survey.WideTable) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.ReportError(filepath.Base(path), cerr)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write(append([]string{"cut", "subcut"}, codeStrings(wide)...)); err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}
	for i, seg := range wide.Segments {
		record := make([]string, 0, wide.Cols()+2)
		record = append(record, seg.Cut, seg.Subcut)
		for _, v := range wide.Values[i] {
			record = append(record, v.String())
		}
		if err := w.Write(record); err != nil {
			return errors.ReportError(filepath.Base(path), fmt.Errorf("row %d: %w", i+1, err))
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}
	log.Printf("[WideWriter] Wrote %d segments × %d indicators to %s", wide.Rows(), wide.Cols(), path)
	return nil
}
