package excel

import (
	"fmt"
	"strconv"

	"pcgstreams/internal/errors"
	"pcgstreams/internal/streams"

	"github.com/xuri/excelize/v2"
)

// Sheet names written by WriteDraws
const (
	DrawsSheet = "Sheet1"
	PlanSheet  = "Plan"
)

// WriteDraws writes count Uint32 draws per worker to an xlsx workbook, one
// column per worker, plus a Plan sheet with the seed/stream pairs
func WriteDraws(path string, plan *streams.Plan, count int) error {
	if count < 0 {
		return errors.InvalidInput("draw count must not be negative")
	}

	f := excelize.NewFile()
	defer f.Close()

	draws := plan.Draws(count)
	for w, column := range draws {
		if err := setCell(f, DrawsSheet, w+1, 1, fmt.Sprintf("%s_%d", plan.Label, w)); err != nil {
			return err
		}
		for i, v := range column {
			if err := setCell(f, DrawsSheet, w+1, i+2, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(PlanSheet); err != nil {
		return errors.Wrap(err, "failed to add plan sheet")
	}
	for col, header := range []string{"worker", SeedColumn, StreamColumn} {
		if err := setCell(f, PlanSheet, col+1, 1, header); err != nil {
			return err
		}
	}
	for i, e := range plan.Entries {
		// Seeds go in as text; spreadsheet numbers lose uint64 precision.
		row := []interface{}{e.Worker, strconv.FormatUint(e.Seed, 10), e.Stream}
		for col, v := range row {
			if err := setCell(f, PlanSheet, col+1, i+2, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, "failed to save workbook")
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return errors.Wrap(err, "invalid cell coordinates")
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return errors.Wrapf(err, "failed to write %s!%s", sheet, cell)
	}
	return nil
}
