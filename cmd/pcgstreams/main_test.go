package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pcgstreams/adapters/excel"
	"pcgstreams/internal/streams"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", "--count", "2", "--seeds", "42,0x2a", "--streams", "54,-1", "--label", "chains")
	require.NoError(t, err)
	assert.Equal(t, "OK: 2 chains\n0\tseed=42\tstream=54\n1\tseed=42\tstream=-1\n", out)

	_, err = execute(t, "check", "--count", "3", "--seeds", "1,2,3", "--streams", "0,1")
	require.Error(t, err)
	assert.Equal(t, "number of workers and streams should be the same", err.Error())

	_, err = execute(t, "check", "--count", "2", "--seeds", "1", "--streams", "0,1", "--label", "cells")
	require.Error(t, err)
	assert.Equal(t, "number of cells and seeds should be the same", err.Error())

	_, err = execute(t, "check", "--seeds", "abc", "--streams", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abc")
}

func TestDraw(t *testing.T) {
	out, err := execute(t, "draw", "--seed", "42", "--stream", "54", "--n", "3")
	require.NoError(t, err)
	assert.Equal(t, "0xa15c02b7\n0x7b47f409\n0xba1d3330\n", out)

	out, err = execute(t, "draw", "--seed", "42", "--stream", "54", "--n", "2", "--advance", "4")
	require.NoError(t, err)
	assert.Equal(t, "0xbfa4784b\n0xcbed606e\n", out)

	out, err = execute(t, "draw", "--seed", "42", "--stream", "54", "--n", "6", "--bound", "6")
	require.NoError(t, err)
	assert.Equal(t, "3\n3\n2\n1\n1\n4\n", out)
}

func TestPlanImport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "plan.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{{"seed", "stream"}, {"42", 54}, {"7", 1}}
	for r, row := range rows {
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", r+1), &row))
	}
	require.NoError(t, f.SaveAs(in))
	require.NoError(t, f.Close())

	outPath := filepath.Join(dir, "draws.xlsx")
	out, err := execute(t, "plan", "import", in, "--label", "chains", "--count", "2", "--xlsx-out", outPath, "--draws", "4")
	require.NoError(t, err)

	var plan streams.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "chains", plan.Label)
	assert.Equal(t, []streams.Entry{{Worker: 0, Seed: 42, Stream: 54}, {Worker: 1, Seed: 7, Stream: 1}}, plan.Entries)

	vectors, err := excel.NewPlanReader(outPath).WithSheet(excel.PlanSheet).ReadPlanVectors()
	require.NoError(t, err)
	assert.Len(t, vectors.Seeds, 2)

	_, err = execute(t, "plan", "import", in, "--count", "3")
	require.Error(t, err)
	assert.Equal(t, "number of workers and seeds should be the same", err.Error())
}

func TestPlanSaveAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(dir, "ledger.db"))

	in := filepath.Join(dir, "plan.csv")
	require.NoError(t, os.WriteFile(in, []byte("seed,stream\n1,0\n2,1\n"), 0o600))

	out, err := execute(t, "plan", "import", in, "--save")
	require.NoError(t, err)
	var plan streams.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))

	out, err = execute(t, "plan", "list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, plan.ID.String()+"\tworkers\texplicit\t2\t"), out)

	out, err = execute(t, "plan", "show", plan.ID.String())
	require.NoError(t, err)
	var shown streams.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, plan.Entries, shown.Entries)
}

func TestPermute(t *testing.T) {
	args := []string{"permute",
		"--x", "1,2,3,4,5,6,7,8,9,10",
		"--y", "2,4,5,4,6,8,9,9,11,12",
		"--workers", "3", "--seed", "7", "--shuffles", "300"}

	first, err := execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, args...)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(first), &result))
	assert.Equal(t, "7", result["master_seed"])
	assert.Equal(t, float64(300), result["num_permutations"])
	assert.Equal(t, "significant", result["status"])

	_, err = execute(t, "permute", "--x", "1,2", "--y", "1,2", "--seed", "7")
	require.Error(t, err)
}

func TestLogLevelFlag(t *testing.T) {
	_, err := execute(t, "--log-level", "LOUD", "draw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOUD")
}
