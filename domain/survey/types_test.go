package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveystat/domain/core"
)

func TestNullFloatRendering(t *testing.T) {
	assert.Equal(t, "", Missing().String())
	assert.Equal(t, "", Missing().Format(1))
	assert.Equal(t, "0", Float(0).String())
	assert.Equal(t, "12.3", Float(12.34).Format(1))
	assert.NotEqual(t, Missing(), Float(0))
}

func TestCatalogMergeKeepsKnownFields(t *testing.T) {
	c := NewCatalog()
	c.Add(Descriptor{Code: "t5", Topic: "Innovation and Technology", EnglishName: "% of firms having their own website"})
	c.Add(Descriptor{Code: "t5", Label: "Website adoption"})
	c.Add(Descriptor{Code: "perf3"})
	c.Add(Descriptor{})

	require.Equal(t, 2, c.Len())
	assert.Equal(t, []core.IndicatorCode{"t5", "perf3"}, c.Codes())

	d, ok := c.Lookup("t5")
	require.True(t, ok)
	assert.Equal(t, "Innovation and Technology", d.Topic)
	assert.Equal(t, "Website adoption", c.Name("t5"))
	assert.Equal(t, "perf3", c.Name("perf3"))
	assert.Equal(t, "fin14", c.Name("fin14"))

	var nilCatalog *Catalog
	_, ok = nilCatalog.Lookup("t5")
	assert.False(t, ok)
}

func TestTableFilterDoesNotMutate(t *testing.T) {
	records := []Record{
		{Cut: "All", Subcut: "All", Indicator: "t5", Value: Float(40)},
		{Cut: "Size", Subcut: "Small (5-19)", Indicator: "t5", Value: Float(30)},
	}
	table := NewTable("mem", []string{"cut", "subcut", "indicator", "value"}, records)
	records[0].Cut = "changed"

	small := table.Filter(func(r Record) bool { return r.Cut == "Size" })

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "All", table.At(0).Cut)
	assert.Equal(t, 1, small.Len())
	assert.Equal(t, Segment{Cut: "Size", Subcut: "Small (5-19)"}, small.At(0).Segment())
}

func TestWideTableFingerprint(t *testing.T) {
	build := func(v NullFloat) *WideTable {
		return &WideTable{
			Segments: []Segment{WholeSample},
			Codes:    []core.IndicatorCode{"t5"},
			Values:   [][]NullFloat{{v}},
		}
	}

	assert.Equal(t, build(Float(1)).Fingerprint(), build(Float(1)).Fingerprint())
	assert.NotEqual(t, build(Float(0)).Fingerprint(), build(Missing()).Fingerprint())

	assert.Equal(t, []NullFloat{Float(3)}, build(Float(3)).Column(0))
}
