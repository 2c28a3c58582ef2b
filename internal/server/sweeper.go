package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mobile-bank/mobile_bank/internal/auth"
)

// SessionSweeper logs out expired client sessions on a cron schedule so
// abandoned clients do not keep account subscriptions open.
type SessionSweeper struct {
	sessions *auth.Service
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewSessionSweeper schedules sweeps with a six-field (seconds first) spec.
func NewSessionSweeper(sessions *auth.Service, spec string, logger *slog.Logger) (*SessionSweeper, error) {
	s := &SessionSweeper{sessions: sessions, logger: logger, cron: cron.New(cron.WithSeconds())}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return nil, fmt.Errorf("schedule session sweep %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the scheduler in the background.
func (s *SessionSweeper) Start() {
	s.cron.Start()
	s.logger.Info("session sweeper started")
}

// Stop waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("session sweeper stopped")
}

func (s *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.sessions.Sweep(ctx, time.Now())
}
