// Package scheduler runs cron-driven background jobs, primarily the
// periodic snapshot save.
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field, plus descriptors like
// "@every 5m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler wraps a cron runner for background jobs.
type Scheduler struct {
	cron *cron.Cron
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithParser(cronParser)),
	}
}

// AddSave registers a periodic snapshot save. A failed save is logged and
// left for the next tick to retry; the in-memory store stays the source
// of truth either way.
func (s *Scheduler) AddSave(spec string, save func() error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := save(); err != nil {
			slog.Error("scheduled save failed", "error", err)
			return
		}
		slog.Debug("scheduled save complete")
	})
	if err != nil {
		return err
	}
	slog.Info("autosave scheduled", "spec", spec)
	return nil
}

// AddJob registers an arbitrary named job.
func (s *Scheduler) AddJob(spec, name string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		slog.Info("cron firing job", "name", name)
		fn()
	})
	return err
}

// Start begins the cron ticker.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
