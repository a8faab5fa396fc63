package component

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSparklineBlocks(t *testing.T) {
	s := NewSparkline(5)
	assert.Equal(t, "▁▁▁▁▁", s.blocks())

	s.SetData([]float64{1, 2, 3})
	assert.Equal(t, "▁▄█  ", s.blocks())
	assert.Equal(t, 5, utf8.RuneCountInString(s.blocks()))

	s.SetData([]float64{2, 2})
	assert.Equal(t, "▄▄   ", s.blocks())
}

func TestSparklineKeepsNewest(t *testing.T) {
	s := NewSparkline(3)
	s.SetData([]float64{9, 1, 2, 3})
	assert.Equal(t, []float64{1, 2, 3}, s.data)

	s.AddDataPoint(4)
	assert.Equal(t, []float64{2, 3, 4}, s.data)

	s.SetWidth(2)
	assert.Equal(t, []float64{3, 4}, s.data)
}

func TestSparklineTrend(t *testing.T) {
	s := NewSparkline(10)
	assert.Equal(t, "→", s.Trend())

	s.SetData([]float64{1, 2})
	assert.Equal(t, "↗", s.Trend())
	assert.InDelta(t, 100.0, s.ChangePercent(), 1e-9)

	s.AddDataPoint(1.5)
	assert.Equal(t, "↘", s.Trend())

	s.AddDataPoint(1.5)
	assert.Equal(t, "→", s.Trend())
}
