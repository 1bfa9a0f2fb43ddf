// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic jobs such as publishing scheduled posts.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/post-connector/internal/lifecycle"
)

// DefaultSpec runs the publish job every minute.
const DefaultSpec = "* * * * *"

// Publisher publishes posts whose scheduled date has passed.
type Publisher interface {
	PublishScheduled(ctx context.Context, now time.Time) (int, error)
}

// Scheduler handles scheduled tasks like publishing posts.
type Scheduler struct {
	publisher Publisher
	cron      *cron.Cron
	spec      string
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new scheduler instance.
func New(publisher Publisher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		publisher: publisher,
		cron:      cron.New(),
		spec:      DefaultSpec,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the scheduler with the publish job.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce publishes due posts. Posts are saved with the cron origin, so no
// webhook fires for them.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	ctx = lifecycle.WithOrigin(ctx, lifecycle.OriginCron)

	n, err := s.publisher.PublishScheduled(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to process scheduled posts", "error", err)
		return 0
	}
	if n > 0 {
		s.logger.Info("published scheduled posts", "count", n)
	}
	return n
}
