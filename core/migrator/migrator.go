// Package migrator runs one-shot storage migrations at node start. Each
// migration is applied exactly once; a completion marker is written under
// migration:<name>.
package migrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/aquanode/aqua-engine/core/backup"
	"github.com/aquanode/aqua-engine/pkg/logger"
	"github.com/aquanode/aqua-engine/storage"
)

// MigrationFunc mutates stored records and returns how many it updated.
type MigrationFunc func(db storage.Storage) (int, error)

type Migration struct {
	Name     string
	Function MigrationFunc
}

type Migrator struct {
	db         storage.Storage
	migrations []Migration
	backup     *backup.Service
	logger     logger.Logger
	mu         sync.Mutex
}

func NewMigrator(db storage.Storage, backupService *backup.Service, migrations []Migration, lg logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: migrations,
		backup:     backupService,
		logger:     logger.EnsureLogger(lg),
	}
}

func (m *Migrator) Register(name string, fn MigrationFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.migrations = append(m.migrations, Migration{Name: name, Function: fn})
}

func markerKey(name string) []byte {
	return []byte(fmt.Sprintf("migration:%s", name))
}

// Run applies every pending migration in order. A backup is taken first so a
// failed migration never strands the data.
func (m *Migrator) Run() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := false
	for _, migration := range m.migrations {
		exists, err := m.db.Exist(markerKey(migration.Name))
		if err != nil || !exists {
			pending = true
			break
		}
	}
	if !pending {
		return nil
	}

	if m.backup != nil {
		backupFile, err := m.backup.PerformBackup()
		if err != nil {
			return fmt.Errorf("cannot back up before migrations: %w", err)
		}
		m.logger.Infof("pre-migration backup created at %s", backupFile)
	}

	for _, migration := range m.migrations {
		exists, err := m.db.Exist(markerKey(migration.Name))
		if exists && err == nil {
			continue
		}

		m.logger.Infof("running migration %s", migration.Name)
		updated, err := migration.Function(m.db)
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
		m.logger.Infof("migration %s completed, %d records updated", migration.Name, updated)

		marker := fmt.Sprintf("records=%d,ts=%d", updated, time.Now().UnixMilli())
		if err := m.db.Set(markerKey(migration.Name), []byte(marker)); err != nil {
			return fmt.Errorf("cannot mark migration %s as complete: %w", migration.Name, err)
		}
	}

	return nil
}
