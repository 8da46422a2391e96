package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pcgstreams/internal"
	"pcgstreams/internal/errors"
	"pcgstreams/internal/seed"

	"github.com/xuri/excelize/v2"
)

// Column headers recognised in plan files
const (
	SeedColumn   = "seed"
	StreamColumn = "stream"
)

// PlanVectors holds the raw seed and stream columns of a plan file. The two
// vectors are read independently and may differ in length.
type PlanVectors struct {
	Seeds   []seed.Value
	Streams []int
}

// PlanReader reads seed/stream vectors from Excel or CSV files
type PlanReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewPlanReader creates a reader for filePath; .csv files are read as CSV,
// anything else as an xlsx workbook
func NewPlanReader(filePath string) *PlanReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &PlanReader{filePath: filePath, fileType: fileType, sheet: "Sheet1", logger: internal.DefaultLogger}
}

// WithSheet selects the worksheet read from xlsx files
func (r *PlanReader) WithSheet(sheet string) *PlanReader {
	r.sheet = sheet
	return r
}

// ReadPlanVectors reads the seed and stream columns
func (r *PlanReader) ReadPlanVectors() (*PlanVectors, error) {
	r.logger.Debug("[PlanReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}

	vectors, err := processRows(rows)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[PlanReader] Found %d seeds and %d streams", len(vectors.Seeds), len(vectors.Streams))
	return vectors, nil
}

func (r *PlanReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", r.sheet)
	}
	r.logger.Debug("[PlanReader] %s read in %.2fms (%d rows)", r.sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *PlanReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	return rows, nil
}

// processRows extracts both columns. Each column ends at its first blank
// cell, so ragged columns yield vectors of different lengths.
func processRows(rows [][]string) (*PlanVectors, error) {
	if len(rows) == 0 {
		return nil, errors.InvalidInput("plan file has no header row")
	}

	seedCol, streamCol := -1, -1
	for i, header := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case SeedColumn:
			seedCol = i
		case StreamColumn:
			streamCol = i
		}
	}
	if seedCol < 0 || streamCol < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("plan file needs %q and %q columns", SeedColumn, StreamColumn))
	}

	vectors := &PlanVectors{Seeds: []seed.Value{}, Streams: []int{}}
	for _, cell := range column(rows[1:], seedCol) {
		vectors.Seeds = append(vectors.Seeds, seed.Text(cell))
	}
	for i, cell := range column(rows[1:], streamCol) {
		stream, err := strconv.Atoi(cell)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("row %d: invalid stream %q", i+2, cell))
		}
		vectors.Streams = append(vectors.Streams, stream)
	}

	return vectors, nil
}

func column(rows [][]string, idx int) []string {
	var out []string
	for _, row := range rows {
		if idx >= len(row) {
			break
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			break
		}
		out = append(out, cell)
	}
	return out
}
