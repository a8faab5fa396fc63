package style

import "github.com/charmbracelet/lipgloss"

var (
	// Primary colors
	Cyan    = lipgloss.Color("#00E5FF") // Primary highlight
	Magenta = lipgloss.Color("#FF1B6B") // Accent
	Yellow  = lipgloss.Color("#FFB500") // Warnings
	Green   = lipgloss.Color("#2AFFAA") // Price up / success
	Red     = lipgloss.Color("#FF5555") // Price down / errors
	Blue    = lipgloss.Color("#3B82F6") // Info
	Purple  = lipgloss.Color("#8B5CF6") // Secondary accent

	// Base colors
	Base01 = lipgloss.Color("#6C7280") // Muted text
	Base2  = lipgloss.Color("#ECEFF4") // Primary text
	Base1  = lipgloss.Color("#B4BCC8") // Secondary text
)

// Palette provides a centralized color management
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Info      lipgloss.Color

	Text          lipgloss.Color
	TextMuted     lipgloss.Color
	TextSecondary lipgloss.Color

	// Buy and Sell color trade events; Graduated marks a finished curve.
	Buy       lipgloss.Color
	Sell      lipgloss.Color
	Graduated lipgloss.Color
}

// DefaultPalette returns the default color palette
func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Secondary: Magenta,
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,
		Info:      Blue,

		Text:          Base2,
		TextMuted:     Base01,
		TextSecondary: Base1,

		Buy:       Green,
		Sell:      Red,
		Graduated: Purple,
	}
}

// Styles are the shared styles of the launch viewer.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
	Panel  lipgloss.Style
	Error  lipgloss.Style
	Badge  lipgloss.Style
	Buy    lipgloss.Style
	Sell   lipgloss.Style
	Create lipgloss.Style
}

// NewStyles builds Styles from palette.
func NewStyles(palette Palette) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true),
		Label: lipgloss.NewStyle().
			Foreground(palette.TextMuted).
			Width(15),
		Value: lipgloss.NewStyle().
			Foreground(palette.Text),
		Muted: lipgloss.NewStyle().
			Foreground(palette.TextMuted),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Info).
			Padding(0, 1),
		Error: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true),
		Badge: lipgloss.NewStyle().
			Foreground(palette.Graduated).
			Bold(true),
		Buy:    lipgloss.NewStyle().Foreground(palette.Buy),
		Sell:   lipgloss.NewStyle().Foreground(palette.Sell),
		Create: lipgloss.NewStyle().Foreground(palette.Secondary),
	}
}
