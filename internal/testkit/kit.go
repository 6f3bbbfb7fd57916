package testkit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"surveystat/adapters/datareadiness/coercer"
	"surveystat/adapters/excel"
	"surveystat/domain/core"
	"surveystat/domain/survey"

	"github.com/xuri/excelize/v2"
)

// Raw turns header-first rows into reader output without touching disk.
func Raw(source string, rows [][]string) *excel.ExcelData {
	data := &excel.ExcelData{Source: source}
	if len(rows) == 0 {
		return data
	}
	for _, h := range rows[0] {
		data.Headers = append(data.Headers, strings.TrimSpace(h))
	}
	for _, row := range rows[1:] {
		r := make(excel.RawRowData, len(data.Headers))
		for j, cell := range row {
			if j < len(data.Headers) {
				r[data.Headers[j]] = strings.TrimSpace(cell)
			}
		}
		data.Rows = append(data.Rows, r)
	}
	return data
}

// WriteCSV writes rows to dir/name and returns the path.
func WriteCSV(t testing.TB, dir, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt") {
		w.Comma = '\t'
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteXLSX writes rows to the first sheet of a new workbook and returns the path.
func WriteXLSX(t testing.TB, dir, name string, rows [][]string) string {
	t.Helper()
	return WriteXLSXSheet(t, dir, name, "Sheet1", rows)
}

// WriteXLSXSheet writes rows to the named sheet. Any other sheet name leaves
// an empty Sheet1 in front of it.
func WriteXLSXSheet(t testing.TB, dir, name, sheet string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet %s: %v", sheet, err)
		}
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cellRef, &values); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

// Rec builds a record with a value; "." or "" makes it missing.
func Rec(cut, subcut, code, value string) survey.Record {
	return survey.Record{
		Cut:       cut,
		Subcut:    subcut,
		Indicator: core.IndicatorCode(code),
		Value:     coercer.ParseOrMissing(value),
	}
}

// Table wraps records in an in-memory table.
func Table(records ...survey.Record) *survey.Table {
	return survey.NewTable("memory", SurveyHeader, records)
}
