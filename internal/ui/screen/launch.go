package screen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/eventlog"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/ui"
	"github.com/rovshanmuradov/launchpad/internal/ui/component"
	"github.com/rovshanmuradov/launchpad/internal/ui/style"
	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
)

const (
	// recentTrades is how many events the trade list shows.
	recentTrades = 8
	// sparklineWidth is the default chart width before the first resize.
	sparklineWidth = 40
	// pollTimeout bounds a single poll.
	pollTimeout = 30 * time.Second
	// maxNotices bounds the demo trader notices kept on screen.
	maxNotices = 3
)

// LaunchScreen shows price, reserves, graduation progress and recent events
// of one launch, refreshed every interval.
type LaunchScreen struct {
	ctx      context.Context
	poller   ui.Poller
	interval time.Duration

	keys    ui.KeyMap
	help    help.Model
	spinner spinner.Model
	bar     progress.Model
	spark   *component.Sparkline
	logs    *component.LogPane
	styles  style.Styles

	snapshot *ui.Snapshot
	trades   []eventlog.PricePoint
	notices  []string
	err      error
	loading  bool
	seq      int
	width    int
}

// NewLaunchScreen creates the screen. logs may be nil when no log buffer is
// attached.
func NewLaunchScreen(ctx context.Context, poller ui.Poller, interval time.Duration, logs *logger.Buffer) *LaunchScreen {
	palette := style.DefaultPalette()

	s := &LaunchScreen{
		ctx:      ctx,
		poller:   poller,
		interval: interval,
		keys:     ui.DefaultKeyMap(),
		help:     help.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(sparklineWidth)),
		spark:    component.NewSparkline(sparklineWidth).SetColor(palette.Primary).ShowText(true),
		logs:     component.NewLogPane(logs),
		styles:   style.NewStyles(palette),
		loading:  true,
	}
	s.spinner.Style = lipgloss.NewStyle().Foreground(palette.Primary)
	if logs == nil {
		s.logs.SetVisible(false)
	}
	return s
}

// Init starts the first poll.
func (s *LaunchScreen) Init() tea.Cmd {
	return tea.Batch(s.spinner.Tick, s.poll())
}

// Update handles keys, poll results and timers.
func (s *LaunchScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg.Width)
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.keys.Quit):
			return s, tea.Quit
		case key.Matches(msg, s.keys.Help):
			s.help.ShowAll = !s.help.ShowAll
			return s, nil
		case key.Matches(msg, s.keys.ToggleLogs):
			s.logs.SetVisible(!s.logs.IsVisible())
			return s, nil
		case key.Matches(msg, s.keys.Refresh):
			if s.loading {
				return s, nil
			}
			s.loading = true
			return s, tea.Batch(s.spinner.Tick, s.poll())
		}
		return s, s.logs.Update(msg)

	case ui.RefreshMsg:
		// A manual refresh superseded this tick.
		if msg.Seq != s.seq || s.loading {
			return s, nil
		}
		s.loading = true
		return s, tea.Batch(s.spinner.Tick, s.poll())

	case ui.SnapshotMsg:
		s.loading = false
		s.err = nil
		s.apply(msg.Snapshot)
		return s, s.scheduleRefresh()

	case ui.ErrorMsg:
		s.loading = false
		s.err = msg.Err
		return s, s.scheduleRefresh()

	case ui.TradeMsg:
		s.notice(msg)
		return s, nil

	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *LaunchScreen) poll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(s.ctx, pollTimeout)
		defer cancel()

		snap, err := s.poller.Poll(ctx)
		if err != nil {
			return ui.ErrorMsg{Err: err}
		}
		return ui.SnapshotMsg{Snapshot: snap}
	}
}

func (s *LaunchScreen) scheduleRefresh() tea.Cmd {
	s.seq++
	seq := s.seq
	return tea.Tick(s.interval, func(t time.Time) tea.Msg {
		return ui.RefreshMsg{Seq: seq, Timestamp: t}
	})
}

func (s *LaunchScreen) apply(snap *ui.Snapshot) {
	s.snapshot = snap
	for _, p := range snap.Points {
		f, _ := p.SOLPerToken.Float64()
		s.spark.AddDataPoint(f)
	}
	s.trades = append(s.trades, snap.Points...)
	if len(s.trades) > recentTrades {
		s.trades = s.trades[len(s.trades)-recentTrades:]
	}
}

func (s *LaunchScreen) notice(msg ui.TradeMsg) {
	line := s.styles.Muted.Render(fmt.Sprintf("demo %s %s -> %s", msg.Side, msg.Amount, shortSig(msg.Signature.String())))
	if msg.Err != nil {
		line = s.styles.Error.Render(fmt.Sprintf("demo %s %s failed: %v", msg.Side, msg.Amount, msg.Err))
	}
	s.notices = append(s.notices, line)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

func (s *LaunchScreen) resize(width int) {
	s.width = width
	inner := max(width-20, 10)
	s.spark.SetWidth(inner)
	s.bar.Width = min(inner, 60)
	s.help.Width = width
	s.logs.SetSize(width, 10)
}

// View renders the screen.
func (s *LaunchScreen) View() string {
	var b strings.Builder

	title := s.styles.Title.Render("launchview")
	if s.loading {
		title += " " + s.spinner.View()
	}
	b.WriteString(title + "\n\n")

	if s.snapshot == nil {
		if s.err != nil {
			b.WriteString(s.styles.Error.Render("Error: "+s.err.Error()) + "\n")
		} else {
			b.WriteString(s.styles.Muted.Render("Loading launch...") + "\n")
		}
		b.WriteString("\n" + s.help.View(s.keys))
		return b.String()
	}

	b.WriteString(s.styles.Panel.Render(s.summary()) + "\n")
	b.WriteString(s.tradeList() + "\n")

	for _, n := range s.notices {
		b.WriteString(n + "\n")
	}
	if s.err != nil {
		b.WriteString(s.styles.Error.Render("Refresh failed: "+s.err.Error()) + "\n")
	}
	if logs := s.logs.View(); logs != "" {
		b.WriteString(logs + "\n")
	}
	b.WriteString(s.help.View(s.keys))
	return b.String()
}

func (s *LaunchScreen) summary() string {
	snap := s.snapshot
	l := snap.Launch

	status := s.styles.Value.Render("active")
	if l.Graduated {
		status = s.styles.Badge.Render("GRADUATED")
	}
	pct, _ := snap.Progress.Float64()

	rows := []struct{ label, value string }{
		{"Mint", l.Mint.String()},
		{"Launch", l.Address.String()},
		{"Price", snap.Price.String() + " SOL"},
		{"SOL reserve", curve.LamportsToSOL(l.SolReserve).String() + " SOL"},
		{"Token reserve", curve.BaseUnitsToTokens(l.TokenReserve).String()},
		{"Fee", fmt.Sprintf("%d bps", l.FeeRateBps)},
		{"Status", status},
		{"Progress", s.bar.ViewAs(min(pct/100, 1)) + " " + snap.Progress.StringFixed(2) + "%"},
		{"Chart", s.spark.View() + fmt.Sprintf(" %+.2f%%", s.spark.ChangePercent())},
		{"Updated", snap.At.Format("15:04:05")},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, s.styles.Label.Render(r.label)+r.value)
	}
	return strings.Join(lines, "\n")
}

func (s *LaunchScreen) tradeList() string {
	if len(s.trades) == 0 {
		return s.styles.Muted.Render("No events yet")
	}
	lines := []string{s.styles.Title.Render("Recent events")}
	for i := len(s.trades) - 1; i >= 0; i-- {
		p := s.trades[i]
		kind := p.Kind
		switch launch.EventKind(p.Kind) {
		case launch.EventBought:
			kind = s.styles.Buy.Render(fmt.Sprintf("%-8s", p.Kind))
		case launch.EventSold:
			kind = s.styles.Sell.Render(fmt.Sprintf("%-8s", p.Kind))
		case launch.EventCreated:
			kind = s.styles.Create.Render(fmt.Sprintf("%-8s", p.Kind))
		}
		line := fmt.Sprintf("%s %s  %s SOL  reserves %s SOL / %s  %s",
			s.styles.Muted.Render(p.BlockTime.Format("15:04:05")),
			kind,
			p.SOLPerToken.StringFixed(12),
			curve.LamportsToSOL(p.SolReserve).StringFixed(3),
			curve.BaseUnitsToTokens(p.TokenReserve).StringFixed(0),
			s.styles.Muted.Render(shortSig(p.Signature.String())),
		)
		if p.Graduated {
			line += " " + s.styles.Badge.Render("graduated")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func shortSig(sig string) string {
	if len(sig) <= 12 {
		return sig
	}
	return sig[:6] + "…" + sig[len(sig)-4:]
}
