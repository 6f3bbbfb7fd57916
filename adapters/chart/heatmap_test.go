package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/domain/core"
	"surveystat/domain/stats"
)

func TestWriteHeatmap(t *testing.T) {
	m := &stats.Matrix{
		Codes: []core.IndicatorCode{"t5", "t7", "perf1"},
		Cells: [][]stats.Cell{
			{{R: 1, Valid: true}, {R: 0.8, Valid: true}, {R: math.NaN()}},
			{{R: 0.8, Valid: true}, {R: 1, Valid: true}, {R: -0.4, Valid: true}},
			{{R: math.NaN()}, {R: -0.4, Valid: true}, {R: 1, Valid: true}},
		},
	}
	path := filepath.Join(t.TempDir(), "figures", HeatmapFile)

	opts := DefaultHeatmapOptions()
	opts.Size = 300
	require.NoError(t, WriteHeatmap(path, m, opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "file is a PNG")
}

func TestMatrixGridOrientation(t *testing.T) {
	g := matrixGrid{values: [][]float64{{1, 0.5}, {0.5, -1}}}
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, -1.0, g.Z(1, 0), "last matrix row at the bottom")
	assert.Equal(t, 1.0, g.Z(0, 1), "first matrix row at the top")
}

func TestWriteHeatmapRejectsEmptyMatrix(t *testing.T) {
	err := WriteHeatmap(filepath.Join(t.TempDir(), HeatmapFile), &stats.Matrix{}, DefaultHeatmapOptions())
	assert.Error(t, err)
}
