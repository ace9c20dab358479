package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cardapio/internal/config"

	"github.com/rs/zerolog"
)

const (
	backupPrefix = "cardapio_"
	backupLayout = "20060102_150405.000"
)

// BackupService snapshots the back-office database on a schedule and prunes
// snapshots past the retention window.
type BackupService struct {
	db     *DB
	cfg    config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{db: db, cfg: cfg, logger: logger, now: time.Now}
}

// Start blocks until ctx is done.
func (s *BackupService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("Backups disabled")
		return
	}

	every := s.cfg.Interval
	if every <= 0 {
		every = 24 * time.Hour
	}
	s.logger.Info().Dur("interval", every).Str("dir", s.cfg.StoragePath).Msg("Backups scheduled")

	s.cycle(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *BackupService) cycle(ctx context.Context) {
	if _, err := s.Snapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Backup failed")
		return
	}
	if n := s.Prune(); n > 0 {
		s.logger.Info().Int("removed", n).Msg("Old backups pruned")
	}
}

// Snapshot writes a transactionally consistent copy of the database through
// the live connection and returns its path.
func (s *BackupService) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.cfg.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(s.cfg.StoragePath, backupPrefix+s.now().Format(backupLayout)+".db")
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}

	s.logger.Info().Str("path", path).Msg("Backup written")
	return path, nil
}

// Prune removes snapshots older than RetentionDays and reports how many went.
// Files without the backup prefix are left alone.
func (s *BackupService) Prune() int {
	if s.cfg.RetentionDays <= 0 {
		return 0
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Backup dir unreadable")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.StoragePath, e.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", e.Name()).Msg("Backup not removed")
			continue
		}
		removed++
	}
	return removed
}
