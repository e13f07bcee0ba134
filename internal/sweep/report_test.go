package sweep

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	return &Result{
		Search: SearchKeep,
		Best:   1,
		Runs: []Run{
			{
				Search: SearchKeep, Param: 1, Hidden: []int{100, 64}, KeepProb: 1,
				Losses: []float64{2.3, 2.1}, Curve: []float64{0.1, 0.2}, Seconds: []float64{0.5, 1},
				StoppedAt: -1, TestAccuracy: 0.2, ValAccuracy: 0.19,
			},
			{
				Search: SearchKeep, Param: 0.95, Hidden: []int{100, 64}, KeepProb: 0.95,
				Losses: []float64{2.2, 2.0, 2.05}, Curve: []float64{0.15, 0.3, 0.25}, Seconds: []float64{0.5, 1, 1.5},
				StoppedAt: 2, TestAccuracy: 0.25, ValAccuracy: 0.24,
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+2+3)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"keep", "1", "100-64", "0", "2.300000", "0.100000", "0.50", "false", "false"}, records[1])
	assert.Equal(t, []string{"keep", "0.95", "100-64", "2", "2.050000", "0.250000", "1.50", "true", "true"}, records[5])
}

func TestSaveCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := SaveCSV(dir, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "keep.csv"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "search,param,hidden")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, sampleResult())

	out := buf.String()
	assert.Contains(t, out, "///// keep /////")
	assert.Contains(t, out, "* keep=0.95")
	assert.Contains(t, out, "(stopped on epoch 2)")
	assert.Contains(t, out, "test_acc=0.2000")
}

func TestEarlyStopReportNames(t *testing.T) {
	res := sampleResult()
	res.EarlyStop = true

	path, err := SaveCSV(t.TempDir(), res)
	require.NoError(t, err)
	assert.Equal(t, "keep_es.csv", filepath.Base(path))

	var buf bytes.Buffer
	Summary(&buf, res)
	assert.Contains(t, buf.String(), "///// keep (early stopping) /////")
}
