package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/launchpad/internal/ui/style"
)

// Spark characters from lowest to highest
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline represents a mini graph component for showing price trends.
// Only the newest width points are kept.
type Sparkline struct {
	data     []float64
	width    int
	style    lipgloss.Style
	color    lipgloss.Color
	showText bool
}

// NewSparkline creates a new sparkline component
func NewSparkline(width int) *Sparkline {
	return &Sparkline{
		width: max(width, 1),
		style: lipgloss.NewStyle(),
		color: style.DefaultPalette().Primary,
	}
}

// SetData replaces the data points, keeping the newest width of them.
func (s *Sparkline) SetData(data []float64) *Sparkline {
	if len(data) > s.width {
		data = data[len(data)-s.width:]
	}
	s.data = append(s.data[:0], data...)
	return s
}

// AddDataPoint adds a new data point to the sparkline
func (s *Sparkline) AddDataPoint(value float64) *Sparkline {
	s.data = append(s.data, value)
	if len(s.data) > s.width {
		s.data = s.data[len(s.data)-s.width:]
	}
	return s
}

// SetWidth sets the width of the sparkline
func (s *Sparkline) SetWidth(width int) *Sparkline {
	s.width = max(width, 1)
	if len(s.data) > s.width {
		s.data = s.data[len(s.data)-s.width:]
	}
	return s
}

// SetColor sets the color for the sparkline
func (s *Sparkline) SetColor(color lipgloss.Color) *Sparkline {
	s.color = color
	return s
}

// ShowText enables the trend arrow after the graph.
func (s *Sparkline) ShowText(show bool) *Sparkline {
	s.showText = show
	return s
}

// View renders the sparkline
func (s *Sparkline) View() string {
	blocks := s.style.Foreground(s.color).Render(s.blocks())
	if !s.showText || len(s.data) < 2 {
		return blocks
	}

	palette := style.DefaultPalette()
	trendColor := palette.TextMuted
	switch s.Trend() {
	case "↗":
		trendColor = palette.Success
	case "↘":
		trendColor = palette.Error
	}
	return blocks + " " + lipgloss.NewStyle().Foreground(trendColor).Render(s.Trend())
}

// blocks maps every point to a spark character and pads to width.
func (s *Sparkline) blocks() string {
	if len(s.data) == 0 {
		return strings.Repeat("▁", s.width)
	}

	lo, hi := s.minMax()

	var b strings.Builder
	for _, v := range s.data {
		// If all values are the same, show a flat line
		if lo == hi {
			b.WriteRune('▄')
			continue
		}
		index := int((v - lo) / (hi - lo) * float64(len(sparkChars)-1))
		index = min(max(index, 0), len(sparkChars)-1)
		b.WriteRune(sparkChars[index])
	}
	b.WriteString(strings.Repeat(" ", s.width-len(s.data)))
	return b.String()
}

func (s *Sparkline) minMax() (float64, float64) {
	lo, hi := s.data[0], s.data[0]
	for _, v := range s.data[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Trend compares the last point with the one before it.
func (s *Sparkline) Trend() string {
	if len(s.data) < 2 {
		return "→"
	}
	last, prev := s.data[len(s.data)-1], s.data[len(s.data)-2]
	switch {
	case last > prev:
		return "↗"
	case last < prev:
		return "↘"
	}
	return "→"
}

// ChangePercent returns the percentage change from first to last data point
func (s *Sparkline) ChangePercent() float64 {
	if len(s.data) < 2 || s.data[0] == 0 {
		return 0
	}
	first, last := s.data[0], s.data[len(s.data)-1]
	return (last - first) / first * 100
}
