package backup

import (
	"os"
	"testing"
	"time"

	"github.com/aquanode/aqua-engine/storage"
)

func newTestDB(t *testing.T) storage.Storage {
	t.Helper()
	db, err := storage.NewWithPath(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStartPeriodicBackup(t *testing.T) {
	service := NewService(nil, newTestDB(t), t.TempDir())

	if err := service.StartPeriodicBackup(time.Hour); err != nil {
		t.Fatalf("StartPeriodicBackup: %v", err)
	}
	defer service.StopPeriodicBackup()

	if !service.running {
		t.Error("service should be running after start")
	}
	if err := service.StartPeriodicBackup(time.Hour); err == nil {
		t.Error("starting twice should return an error")
	}
}

func TestStopPeriodicBackup(t *testing.T) {
	service := NewService(nil, newTestDB(t), t.TempDir())

	_ = service.StartPeriodicBackup(time.Hour)
	service.StopPeriodicBackup()

	if service.running {
		t.Error("service should not be running after stop")
	}

	// Stopping when not running is a no-op.
	service.StopPeriodicBackup()
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	db := newTestDB(t)
	if err := db.Set([]byte("w:anonymous:wf1"), []byte(`{"id":"wf1"}`)); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	service := NewService(nil, db, t.TempDir())
	backupFile, err := service.PerformBackup()
	if err != nil {
		t.Fatalf("PerformBackup: %v", err)
	}
	if _, err := os.Stat(backupFile); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	restored := newTestDB(t)
	restoreService := NewService(nil, restored, t.TempDir())
	if err := restoreService.Restore(backupFile); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	body, err := restored.GetKey([]byte("w:anonymous:wf1"))
	if err != nil {
		t.Fatalf("restored record missing: %v", err)
	}
	if string(body) != `{"id":"wf1"}` {
		t.Errorf("unexpected restored value: %s", body)
	}
}
