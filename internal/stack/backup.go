package stack

import (
	"compress/gzip"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tomorrowflow/nextcloud-compose/internal/telemetry"
)

// Backup dumps the database through compose exec into a gzip file.
type Backup struct {
	Layout Layout
	Runner Runner
	Log    *slog.Logger
	Now    func() time.Time
}

func (b *Backup) Dir() string { return filepath.Join(b.Layout.Dir, "backups") }

// Run writes backups/mariadb_<timestamp>.sql.gz and returns its path. The
// dump runs inside the db container so credentials stay in its environment.
func (b *Backup) Run(ctx context.Context) (string, error) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	if err := ensureDir(b.Dir(), 0o750); err != nil {
		return "", err
	}

	outPath := filepath.Join(b.Dir(), fmt.Sprintf("mariadb_%s.sql.gz", now().UTC().Format("20060102T150405Z")))
	outFile, err := os.OpenFile(outPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer outFile.Close()

	gz := gzip.NewWriter(outFile)
	args := append(ComposeBaseArgs(b.Layout), "exec", "-T", "db", "sh", "-c",
		`mariadb-dump --single-transaction --all-databases -uroot -p"$MYSQL_ROOT_PASSWORD"`)
	if err := b.Runner.Pipe(ctx, gz, "docker", args...); err != nil {
		gz.Close()
		_ = os.Remove(outPath)
		return "", fmt.Errorf("database dump failed: %w", err)
	}
	if err := gz.Close(); err != nil {
		_ = os.Remove(outPath)
		return "", fmt.Errorf("gzip close failed: %w", err)
	}

	telemetry.Success(ctx, b.Log, "wrote backup", "file", outPath)
	return outPath, nil
}
