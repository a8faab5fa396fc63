package ui

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// SupervisorOptions bound how often a crashed viewer comes back.
type SupervisorOptions struct {
	RestartDelay time.Duration
	MaxRestarts  int
}

// DefaultSupervisorOptions restarts up to five times, one second apart.
func DefaultSupervisorOptions() SupervisorOptions {
	return SupervisorOptions{RestartDelay: time.Second, MaxRestarts: 5}
}

// Supervisor runs the viewer program and rebuilds it after a panic. Queued
// background updates are forwarded to whichever program is current, so the
// demo trader and the feed outlive a restart.
type Supervisor struct {
	logger      *zap.Logger
	opts        SupervisorOptions
	newModel    func() tea.Model
	updates     *UpdateSender
	programOpts []tea.ProgramOption

	mu       sync.Mutex
	program  *tea.Program
	restarts int
	stopped  bool
}

// NewSupervisor builds a supervisor. updates may be nil.
func NewSupervisor(logger *zap.Logger, newModel func() tea.Model, updates *UpdateSender, opts SupervisorOptions, programOpts ...tea.ProgramOption) *Supervisor {
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = DefaultSupervisorOptions().RestartDelay
	}
	if opts.MaxRestarts < 0 {
		opts.MaxRestarts = 0
	}
	return &Supervisor{
		logger:      logger,
		opts:        opts,
		newModel:    newModel,
		updates:     updates,
		programOpts: programOpts,
	}
}

// Run blocks until the viewer quits, ctx ends or the restart budget is
// spent. A clean quit and a cancelled ctx both return nil.
func (s *Supervisor) Run(ctx context.Context) error {
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			s.stop()
		case <-watchDone:
		}
	}()

	for {
		err := s.session(ctx)
		if err == nil || s.isStopped() {
			return nil
		}

		s.mu.Lock()
		s.restarts++
		restarts := s.restarts
		s.mu.Unlock()

		if restarts > s.opts.MaxRestarts {
			return fmt.Errorf("viewer crashed %d times, giving up: %w", restarts, err)
		}
		s.logger.Error("Viewer crashed, restarting",
			zap.Error(err),
			zap.Int("restart", restarts),
			zap.Duration("delay", s.opts.RestartDelay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.opts.RestartDelay):
		}
	}
}

// Restarts returns how many sessions ended in a crash.
func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts
}

func (s *Supervisor) session(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("viewer panic: %v", r)
			s.logger.Error("Viewer panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
		}
	}()

	program := tea.NewProgram(Guard(s.newModel(), s.logger), s.programOpts...)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.program = program
	s.mu.Unlock()

	if s.updates != nil {
		fctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go s.updates.Forward(fctx, program.Send)
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

func (s *Supervisor) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.program != nil {
		s.program.Quit()
		s.program = nil
	}
}

func (s *Supervisor) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// guarded contains panics inside a single model call. A failed View keeps
// showing the last frame that rendered.
type guarded struct {
	model    tea.Model
	logger   *zap.Logger
	lastView string
}

// Guard wraps model so a panic in Init, Update or View is logged instead of
// tearing down the program.
func Guard(model tea.Model, logger *zap.Logger) tea.Model {
	return &guarded{model: model, logger: logger}
}

func (g *guarded) Init() (cmd tea.Cmd) {
	defer g.recover("Init", &cmd)
	return g.model.Init()
}

func (g *guarded) Update(msg tea.Msg) (m tea.Model, cmd tea.Cmd) {
	m = g
	defer g.recover("Update", &cmd)
	g.model, cmd = g.model.Update(msg)
	return g, cmd
}

func (g *guarded) View() (view string) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("View panic recovered",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			view = viewCrashed
			if g.lastView != "" {
				view = g.lastView + "\n" + viewCrashed
			}
		}
	}()
	g.lastView = g.model.View()
	return g.lastView
}

const viewCrashed = "Render failed, showing last frame. Press q to quit."

func (g *guarded) recover(method string, cmd *tea.Cmd) {
	if r := recover(); r != nil {
		g.logger.Error("Model panic recovered",
			zap.String("method", method),
			zap.Any("panic", r),
			zap.String("stack", string(debug.Stack())))
		*cmd = nil
	}
}
