package excel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/domain/core"
	"surveystat/domain/survey"
)

func TestWriteWideCSVRoundTrip(t *testing.T) {
	wide := &survey.WideTable{
		Segments: []survey.Segment{survey.WholeSample, {Cut: "Size", Subcut: "Small (5-19)"}},
		Codes:    []core.IndicatorCode{"t5", "t7"},
		Values: [][]survey.NullFloat{
			{survey.Float(40.5), survey.Missing()},
			{survey.Float(3), survey.Float(0)},
		},
	}
	path := filepath.Join(t.TempDir(), "nested", PivotFile)
	require.NoError(t, WriteWideCSV(path, wide))

	data, err := NewDataReader(path, DefaultReaderConfig()).ReadData()
	require.NoError(t, err)
	assert.Equal(t, []string{"cut", "subcut", "t5", "t7"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "40.5", data.Rows[0]["t5"])
	assert.Equal(t, "", data.Rows[0]["t7"])
	assert.Equal(t, "0", data.Rows[1]["t7"])
	assert.Equal(t, "Small (5-19)", data.Rows[1]["subcut"])
}
