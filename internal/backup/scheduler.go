package backup

import (
	"context"
	"log"
	"time"
)

// Scheduler runs backups through a Manager at a fixed interval.
type Scheduler struct {
	manager  *Manager
	interval time.Duration
	logger   *log.Logger
}

// NewScheduler creates a scheduler for the given manager. The interval is a
// duration string such as "24h" or "90m".
func NewScheduler(manager *Manager, interval string, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.Default()
	}

	d, err := time.ParseDuration(interval)
	if err != nil {
		return nil, NewError(ErrValidation, "invalid backup interval", err)
	}
	if d < time.Minute {
		return nil, NewError(ErrValidation, "backup interval must be at least one minute", nil)
	}

	return &Scheduler{
		manager:  manager,
		interval: d,
		logger:   logger,
	}, nil
}

// Interval returns the configured backup interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run executes backups on every tick until the context is cancelled.
// Failures are logged and the schedule keeps going.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Printf("⏰ Backup scheduler started, next backup at %s", time.Now().Add(s.interval).Format(time.RFC3339))

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("ℹ️ Backup scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.manager.RunBackup(ctx); err != nil {
				if IsCanceledError(err) {
					continue
				}
				s.logger.Printf("❌ Scheduled backup failed: %v", err)
			}
		}
	}
}
