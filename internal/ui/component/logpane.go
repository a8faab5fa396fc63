package component

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/launchpad/internal/ui/style"
	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
)

// logPaneEntries is how many buffered entries the pane renders.
const logPaneEntries = 50

// LogPane shows the newest entries of a log buffer in a scrollable viewport.
type LogPane struct {
	buffer   *logger.Buffer
	viewport viewport.Model
	minLevel zapcore.Level
	visible  bool
	title    string
	seen     uint64

	container lipgloss.Style
	header    lipgloss.Style
	timestamp lipgloss.Style
	levels    map[zapcore.Level]lipgloss.Style
}

// NewLogPane creates a pane over buf. Debug entries are hidden by default.
func NewLogPane(buf *logger.Buffer) *LogPane {
	palette := style.DefaultPalette()

	return &LogPane{
		buffer:   buf,
		viewport: viewport.New(50, 4),
		minLevel: zapcore.InfoLevel,
		visible:  true,
		title:    "Recent Logs",

		container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Info).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Foreground(palette.Info).
			Bold(true),
		timestamp: lipgloss.NewStyle().
			Foreground(palette.TextMuted),
		levels: map[zapcore.Level]lipgloss.Style{
			zapcore.DebugLevel: lipgloss.NewStyle().Foreground(palette.TextMuted),
			zapcore.InfoLevel:  lipgloss.NewStyle().Foreground(palette.Info),
			zapcore.WarnLevel:  lipgloss.NewStyle().Foreground(palette.Warning).Bold(true),
			zapcore.ErrorLevel: lipgloss.NewStyle().Foreground(palette.Error).Bold(true),
		},
	}
}

// SetSize sets the outer size of the pane.
func (p *LogPane) SetSize(width, height int) {
	p.container = p.container.Width(max(width-2, 10))
	p.viewport.Width = max(width-4, 10)
	p.viewport.Height = max(height-3, 2)
	p.refresh(true)
}

// SetVisible toggles the pane.
func (p *LogPane) SetVisible(visible bool) {
	p.visible = visible
}

// IsVisible returns whether the pane is shown.
func (p *LogPane) IsVisible() bool {
	return p.visible
}

// SetMinLevel hides entries below level.
func (p *LogPane) SetMinLevel(level zapcore.Level) {
	p.minLevel = level
	p.refresh(true)
}

// Update passes scroll keys to the viewport and picks up new entries.
func (p *LogPane) Update(msg tea.Msg) tea.Cmd {
	if !p.visible {
		return nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	p.refresh(false)
	return cmd
}

// View renders the pane, or nothing when hidden.
func (p *LogPane) View() string {
	if !p.visible {
		return ""
	}
	p.refresh(false)
	return p.container.Render(lipgloss.JoinVertical(lipgloss.Left,
		p.header.Render(p.title+" [l]toggle"),
		p.viewport.View(),
	))
}

// Lines returns the rendered entries that pass the level filter.
func (p *LogPane) Lines() []string {
	if p.buffer == nil {
		return nil
	}
	var lines []string
	for _, e := range p.buffer.Recent(logPaneEntries) {
		if e.Level < p.minLevel {
			continue
		}
		lines = append(lines, p.format(e))
	}
	return lines
}

// refresh reloads content when the buffer grew. New entries scroll to the
// bottom.
func (p *LogPane) refresh(force bool) {
	if p.buffer == nil {
		p.viewport.SetContent("No log buffer available")
		return
	}
	total := p.buffer.Total()
	if !force && total == p.seen {
		return
	}
	p.seen = total

	lines := p.Lines()
	if len(lines) == 0 {
		p.viewport.SetContent("No logs yet")
		return
	}
	p.viewport.SetContent(strings.Join(lines, "\n"))
	p.viewport.GotoBottom()
}

func (p *LogPane) format(e logger.Entry) string {
	msg := e.Message
	if e.Logger != "" {
		msg = e.Logger + ": " + msg
	}
	st, ok := p.levels[e.Level]
	if !ok {
		st = p.levels[zapcore.ErrorLevel]
	}
	return fmt.Sprintf("%s %s", p.timestamp.Render(e.Time.Format("15:04:05")), st.Render(msg))
}
