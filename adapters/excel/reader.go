package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"surveystat/domain/core"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading Excel and delimited text files
type DataReader struct {
	filePath string
	fileType string // "xlsx", "csv" or "tsv"
	config   ReaderConfig
}

// NewDataReader creates a reader for filePath; the extension selects the format
func NewDataReader(filePath string, config ReaderConfig) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: detectFileType(filePath),
		config:   config,
	}
}

func detectFileType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		return "csv"
	case ".tsv", ".txt", ".tab":
		return "tsv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return ""
	}
}

// ReadData reads the whole file into memory. Every failure wraps core.ErrDataSource.
func (r *DataReader) ReadData() (*ExcelData, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if r.fileType == "" {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, filepath.Ext(r.filePath))
	}
	if _, err := os.Stat(r.filePath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, r.filePath)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrDataSource, err)
	}

	switch r.fileType {
	case "csv":
		return r.readDelimitedData(r.config.comma(','))
	case "tsv":
		return r.readDelimitedData(r.config.comma('\t'))
	default:
		return r.readExcelData()
	}
}

// readExcelData reads the configured sheet, or the first one
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", core.ErrDataSource, err)
	}
	defer f.Close()
	log.Printf("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrEmptySource)
		}
		sheet = sheets[0]
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", core.ErrDataSource, sheet, err)
	}
	log.Printf("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s needs a header row and at least one data row", core.ErrEmptySource, r.filePath)
	}

	return r.processRows(rows)
}

// readDelimitedData reads CSV or TSV data; ragged rows are allowed
func (r *DataReader) readDelimitedData(comma rune) (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open file: %v", core.ErrDataSource, err)
	}
	defer file.Close()

	rows, err := ReadDelimited(file, comma)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s needs a header row and at least one data row", core.ErrEmptySource, r.filePath)
	}

	return r.processRows(rows)
}

// ReadDelimited parses delimited text into raw rows.
func ReadDelimited(src io.Reader, comma rune) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse delimited file: %v", core.ErrDataSource, err)
	}
	log.Printf("[DataReader] delimited file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	log.Printf("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Source:  r.filePath,
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
