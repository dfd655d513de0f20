// Package backup streams badger snapshots of the workflow store to disk and
// restores them.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aquanode/aqua-engine/pkg/logger"
	"github.com/aquanode/aqua-engine/storage"
)

type Service struct {
	logger    logger.Logger
	db        storage.Storage
	backupDir string

	running  bool
	interval time.Duration
	stop     chan struct{}
}

func NewService(lg logger.Logger, db storage.Storage, backupDir string) *Service {
	return &Service{
		logger:    logger.EnsureLogger(lg),
		db:        db,
		backupDir: backupDir,
		stop:      make(chan struct{}),
	}
}

func (s *Service) StartPeriodicBackup(interval time.Duration) error {
	if s.running {
		return fmt.Errorf("backup service already running")
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("cannot create backup directory: %w", err)
	}

	s.interval = interval
	s.running = true

	go s.backupLoop()

	s.logger.Infof("started periodic backup every %v to %s", interval, s.backupDir)
	return nil
}

func (s *Service) StopPeriodicBackup() {
	if !s.running {
		return
	}

	s.running = false
	close(s.stop)
	s.logger.Info("stopped periodic backup")
}

func (s *Service) backupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if backupFile, err := s.PerformBackup(); err != nil {
				s.logger.Errorf("periodic backup failed: %v", err)
			} else {
				s.logger.Infof("periodic backup completed to %s", backupFile)
			}
		case <-s.stop:
			return
		}
	}
}

// PerformBackup writes one full snapshot into a timestamped subdirectory and
// returns the backup file path.
func (s *Service) PerformBackup() (string, error) {
	timestamp := time.Now().Format("06-01-02-15-04")
	backupPath := filepath.Join(s.backupDir, timestamp)

	if err := os.MkdirAll(backupPath, 0o755); err != nil {
		return "", fmt.Errorf("cannot create backup timestamp directory: %w", err)
	}

	backupFile := filepath.Join(backupPath, "full-backup.db")
	f, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("cannot create backup file: %w", err)
	}
	defer f.Close()

	since := uint64(0) // full backup
	if _, err = s.db.Backup(context.Background(), f, since); err != nil {
		return "", fmt.Errorf("backup operation failed: %w", err)
	}

	s.logger.Infof("backup completed to %s", backupFile)
	return backupFile, nil
}

// Restore loads a snapshot file into the database. The store must not be
// serving traffic while a restore runs.
func (s *Service) Restore(backupFile string) error {
	f, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("cannot open backup file: %w", err)
	}
	defer f.Close()

	if err := s.db.Load(context.Background(), f); err != nil {
		return fmt.Errorf("restore operation failed: %w", err)
	}

	s.logger.Infof("restored database from %s", backupFile)
	return nil
}
