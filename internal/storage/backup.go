package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
	ErrBackupExists    = errors.New("backup already exists")
)

const maxAutoBackups = 5

// BackupInfo describes a database snapshot on disk.
type BackupInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// BackupManager writes consistent snapshots of the database next to it.
type BackupManager struct {
	storage *SQLiteStorage
	dir     string
}

// NewBackupManager creates a manager that keeps snapshots in <db dir>/backups.
func (s *SQLiteStorage) NewBackupManager() (*BackupManager, error) {
	if s.dbPath == ":memory:" {
		return nil, errors.New("in-memory databases cannot be backed up")
	}
	dir := filepath.Join(filepath.Dir(s.dbPath), "backups")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}
	return &BackupManager{storage: s, dir: dir}, nil
}

// Create snapshots the database under the given tag.
func (bm *BackupManager) Create(ctx context.Context, tag string) (*BackupInfo, error) {
	return bm.create(ctx, tag, false)
}

// AutoBackup snapshots the database before a risky operation and prunes old automatic snapshots.
func (bm *BackupManager) AutoBackup(ctx context.Context, prefix string) (*BackupInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", prefix, time.Now().Format("2006-01-02-150405"))
	info, err := bm.create(ctx, tag, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create automatic backup: %w", err)
	}
	if err := bm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to prune automatic backups", "error", err)
	}
	return info, nil
}

func (bm *BackupManager) create(ctx context.Context, tag string, auto bool) (*BackupInfo, error) {
	if tag == "" {
		tag = fmt.Sprintf("backup-%s", time.Now().Format("2006-01-02-150405"))
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	dest, err := filepath.Abs(filepath.Join(bm.dir, tag+".db"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup path: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		return nil, ErrBackupExists
	}

	version, err := bm.storage.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	counts := bm.rowCounts(ctx)

	if _, err := bm.storage.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	if strings.ContainsAny(dest, `'";`) {
		return nil, fmt.Errorf("invalid backup path: contains forbidden characters")
	}
	// #nosec G201 - dest is validated above
	if _, err := bm.storage.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	stat, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	info := &BackupInfo{
		ID:            tag,
		CreatedAt:     time.Now(),
		RowCounts:     counts,
		FileSize:      stat.Size(),
		SchemaVersion: version,
		IsAuto:        auto,
	}
	if err := writeMetadata(filepath.Join(bm.dir, tag+".meta.json"), info); err != nil {
		if rmErr := os.Remove(dest); rmErr != nil {
			slog.Error("failed to remove backup after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save backup metadata: %w", err)
	}
	return info, nil
}

// List returns all snapshots, newest first.
func (bm *BackupManager) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := readMetadata(filepath.Join(bm.dir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Verify runs an integrity check against a snapshot.
func (bm *BackupManager) Verify(_ context.Context, id string) error {
	if err := validateTag(id); err != nil {
		return err
	}
	path := filepath.Join(bm.dir, id+".db")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("failed to access backup: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %w", ErrBackupCorrupted, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", ErrBackupCorrupted, result)
	}
	return nil
}

// Delete removes a snapshot and its metadata.
func (bm *BackupManager) Delete(_ context.Context, id string) error {
	if err := validateTag(id); err != nil {
		return err
	}
	path := filepath.Join(bm.dir, id+".db")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("failed to remove backup: %w", err)
	}
	if err := os.Remove(filepath.Join(bm.dir, id+".meta.json")); err != nil {
		slog.Debug("failed to remove backup metadata", "id", id, "error", err)
	}
	return nil
}

func (bm *BackupManager) pruneAuto(ctx context.Context) error {
	backups, err := bm.List(ctx)
	if err != nil {
		return err
	}
	kept := 0
	for _, b := range backups {
		if !b.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoBackups {
			if err := bm.Delete(ctx, b.ID); err != nil {
				slog.Debug("failed to delete old automatic backup", "id", b.ID, "error", err)
			}
		}
	}
	return nil
}

func (bm *BackupManager) rowCounts(ctx context.Context) map[string]int {
	queries := map[string]string{
		"pending_topups": "SELECT COUNT(*) FROM pending_topups",
		"processing_log": "SELECT COUNT(*) FROM processing_log",
		"wallet_credits": "SELECT COUNT(*) FROM wallet_credits",
		"wallets":        "SELECT COUNT(*) FROM wallets",
	}
	counts := make(map[string]int, len(queries))
	for table, query := range queries {
		var n int
		if err := bm.storage.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			// Older schemas may not have the table yet.
			n = 0
		}
		counts[table] = n
	}
	return counts
}

func validateTag(tag string) error {
	if strings.ContainsAny(tag, `/\`) || strings.Contains(tag, "..") {
		return errors.New("invalid backup tag: cannot contain path separators")
	}
	return nil
}

func writeMetadata(path string, info *BackupInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readMetadata(path string) (*BackupInfo, error) {
	// #nosec G304 - path is built from the backups directory listing
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
