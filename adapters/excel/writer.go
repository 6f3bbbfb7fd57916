package excel

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"surveystat/internal/errors"

	"github.com/xuri/excelize/v2"
)

const headerFill = "4472C4"

// Note is one line of the block written below a table.
type Note struct {
	Text string
	Bold bool
}

// Sheet describes one worksheet: a header row, data rows, and optional notes
// starting three rows below the last data row.
type Sheet struct {
	Name     string
	Header   []string
	Rows     [][]interface{}
	Widths   []float64 // by column from A; zero keeps the default width
	WrapCols []int     // zero-based columns with wrapped, top-aligned text
	Bordered bool      // thin border around every table cell
	Notes    []Note    // lines after the first are merged across the header width
}

// WorkbookWriter writes styled xlsx workbooks
type WorkbookWriter struct{}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter() *WorkbookWriter {
	return &WorkbookWriter{}
}

// Write saves sheets, in order, to a new workbook at path. The parent
// directory is created when missing.
func (w *WorkbookWriter) Write(path string, sheets ...Sheet) error {
	startTime := time.Now()
	if len(sheets) == 0 {
		return errors.ReportError(filepath.Base(path), fmt.Errorf("no sheets to write"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return errors.ReportError(filepath.Base(path), err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return errors.ReportError(filepath.Base(path), err)
		}
		if err := writeSheet(f, sheet); err != nil {
			return errors.ReportError(filepath.Base(path), fmt.Errorf("sheet %s: %w", sheet.Name, err))
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.ReportError(filepath.Base(path), err)
	}
	log.Printf("[WorkbookWriter] Wrote %s (%d sheets) in %.2fms", path, len(sheets), float64(time.Since(startTime).Nanoseconds())/1e6)
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	name := sheet.Name
	cols := len(sheet.Header)
	if cols == 0 {
		return fmt.Errorf("empty header")
	}
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	header := make([]interface{}, cols)
	for i, h := range sheet.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}

	var border []excelize.Border
	if sheet.Bordered {
		border = thinBorder()
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	lastRow := len(sheet.Rows) + 1
	if sheet.Bordered && len(sheet.Rows) > 0 {
		bodyStyle, err := f.NewStyle(&excelize.Style{
			Border:    border,
			Alignment: &excelize.Alignment{Vertical: "center"},
		})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A2", fmt.Sprintf("%s%d", lastCol, lastRow), bodyStyle); err != nil {
			return err
		}
	}
	if len(sheet.WrapCols) > 0 && len(sheet.Rows) > 0 {
		wrapStyle, err := f.NewStyle(&excelize.Style{
			Border:    border,
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		})
		if err != nil {
			return err
		}
		for _, c := range sheet.WrapCols {
			col, err := excelize.ColumnNumberToName(c + 1)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(name, col+"2", fmt.Sprintf("%s%d", col, lastRow), wrapStyle); err != nil {
				return err
			}
		}
	}

	for i, width := range sheet.Widths {
		if width <= 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}

	return writeNotes(f, name, lastCol, lastRow+3, sheet.Notes)
}

func writeNotes(f *excelize.File, sheet, lastCol string, start int, notes []Note) error {
	if len(notes) == 0 {
		return nil
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, note := range notes {
		row := start + i
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(sheet, cell, note.Text); err != nil {
			return err
		}
		if note.Bold {
			if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
				return err
			}
		}
		if i > 0 && lastCol != "A" {
			if err := f.MergeCell(sheet, cell, fmt.Sprintf("%s%d", lastCol, row)); err != nil {
				return err
			}
		}
	}
	return nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

// cellValue keeps NaN and infinities out of numeric cells.
func cellValue(v interface{}) interface{} {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "∞"
	case math.IsInf(f, -1):
		return "-∞"
	default:
		return f
	}
}
