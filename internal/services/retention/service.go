package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

// Service deletes generated report blobs older than the configured age on
// a cron schedule.
type Service struct {
	blob    interfaces.BlobStorage
	logger  arbor.ILogger
	cron    *cron.Cron
	prefix  string
	maxAge  time.Duration
	running bool
}

// NewService creates a retention service over blob storage. prefix scopes
// cleanup to generated reports; blobs outside it are never touched.
func NewService(blob interfaces.BlobStorage, logger arbor.ILogger, prefix string, maxAge time.Duration) *Service {
	return &Service{
		blob:   blob,
		logger: logger,
		cron:   cron.New(),
		prefix: prefix,
		maxAge: maxAge,
	}
}

// Start begins scheduled cleanup with the given cron expression.
func (s *Service) Start(cronExpr string) error {
	if s.running {
		return fmt.Errorf("retention service already running")
	}

	if cronExpr == "" {
		cronExpr = "0 3 * * *" // Default: daily at 03:00
	}

	_, err := s.cron.AddFunc(cronExpr, s.runCleanup)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Str("prefix", s.prefix).
		Dur("max_age", s.maxAge).
		Msg("Retention service started")

	return nil
}

// Stop halts scheduled cleanup.
func (s *Service) Stop() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Retention service stopped")
}

func (s *Service) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.Cleanup(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled retention cleanup failed")
	}
}

// Cleanup deletes report blobs older than maxAge and returns the number
// deleted. Individual delete failures are logged and skipped.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.maxAge)

	infos, err := s.blob.List(ctx, s.prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list report blobs: %w", err)
	}

	deleted := 0
	for _, info := range infos {
		if !info.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.blob.Delete(ctx, info.Name); err != nil {
			s.logger.Warn().
				Str("name", info.Name).
				Err(err).
				Msg("Failed to delete expired report blob")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info().
			Int("deleted", deleted).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Expired report blobs deleted")
	}

	return deleted, nil
}
