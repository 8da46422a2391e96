package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"pcgstreams/internal"
	"pcgstreams/internal/errors"
	"pcgstreams/internal/seed"
	"pcgstreams/internal/streams"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "plan.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestPlanReader_Excel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Seed", "Stream", "note"},
		{"42", 54, "first"},
		{"0x10", 55, nil},
		{"7", -1, nil},
	})

	vectors, err := NewPlanReader(path).ReadPlanVectors()
	require.NoError(t, err)

	assert.Equal(t, []seed.Value{seed.Text("42"), seed.Text("0x10"), seed.Text("7")}, vectors.Seeds)
	assert.Equal(t, []int{54, 55, -1}, vectors.Streams)

	plan, err := streams.NewPlan("workers", 3, vectors.Seeds, vectors.Streams, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), plan.Entries[1].Seed)
}

func TestPlanReader_RaggedColumns(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"seed", "stream"},
		{"1", 0},
		{"2", 1},
		{"3", nil},
	})

	vectors, err := NewPlanReader(path).ReadPlanVectors()
	require.NoError(t, err)
	assert.Len(t, vectors.Seeds, 3)
	assert.Len(t, vectors.Streams, 2)

	_, err = streams.NewPlan("workers", 3, vectors.Seeds, vectors.Streams, nil)
	require.Error(t, err)
	assert.Equal(t, "number of workers and streams should be the same", err.Error())
}

func TestPlanReader_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.csv")
	require.NoError(t, os.WriteFile(path, []byte("stream,seed\n0,11\n1,12\n,13\n"), 0o600))

	vectors, err := NewPlanReader(path).ReadPlanVectors()
	require.NoError(t, err)
	assert.Equal(t, []seed.Value{seed.Text("11"), seed.Text("12"), seed.Text("13")}, vectors.Seeds)
	assert.Equal(t, []int{0, 1}, vectors.Streams)

	_, err = streams.NewPlan("cells", 3, vectors.Seeds, vectors.Streams, nil)
	require.Error(t, err)
	assert.Equal(t, "number of cells and streams should be the same", err.Error())
}

func TestPlanReader_LogsThroughLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.csv")
	require.NoError(t, os.WriteFile(path, []byte("seed,stream\n1,0\n"), 0o600))

	var buf bytes.Buffer
	r := NewPlanReader(path)
	r.logger = internal.NewLoggerTo(&buf, internal.LogLevelDebug)

	_, err := r.ReadPlanVectors()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[DEBUG] [PlanReader] Reading csv file: "+path)
	assert.Contains(t, buf.String(), "[PlanReader] Found 1 seeds and 1 streams")

	r.logger = internal.NewLoggerTo(&buf, internal.LogLevelInfo)
	buf.Reset()
	_, err = r.ReadPlanVectors()
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestPlanReader_Errors(t *testing.T) {
	_, err := NewPlanReader(filepath.Join(t.TempDir(), "missing.xlsx")).ReadPlanVectors()
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	path := writeWorkbook(t, [][]interface{}{{"seed", "offset"}, {"1", 0}})
	_, err = NewPlanReader(path).ReadPlanVectors()
	require.Error(t, err)
	assert.Equal(t, `plan file needs "seed" and "stream" columns`, err.Error())

	path = writeWorkbook(t, [][]interface{}{{"seed", "stream"}, {"1", "zero"}})
	_, err = NewPlanReader(path).ReadPlanVectors()
	require.Error(t, err)
	assert.Equal(t, `row 2: invalid stream "zero"`, err.Error())
}

func TestWriteDraws(t *testing.T) {
	plan := streams.SplitPlan("chains", 42, 2)
	path := filepath.Join(t.TempDir(), "draws.xlsx")
	require.NoError(t, WriteDraws(path, plan, 3))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(DrawsSheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "chains_1", header)

	draws := plan.Draws(3)
	raw, err := f.GetCellValue(DrawsSheet, "B4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatUint(uint64(draws[1][2]), 10), raw)

	// The plan sheet reads back as a plan file.
	vectors, err := NewPlanReader(path).WithSheet(PlanSheet).ReadPlanVectors()
	require.NoError(t, err)
	restored, err := streams.NewPlan("chains", 2, vectors.Seeds, vectors.Streams, nil)
	require.NoError(t, err)
	assert.Equal(t, plan.Entries, restored.Entries)

	assert.Error(t, WriteDraws(path, plan, -1))
}
