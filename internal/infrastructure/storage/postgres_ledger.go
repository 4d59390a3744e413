package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"SpectraDL/internal/domain"
	"SpectraDL/internal/ports"
)

// PostgresLedger records transferred files in Postgres. It is optional and
// advisory: the disk check stays authoritative for dedup.
type PostgresLedger struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.DownloadLedger = (*PostgresLedger)(nil)

// NewPostgresLedger wires a sql.DB implementation.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// AlreadyDownloaded returns a map with the remote paths present in the ledger.
func (l *PostgresLedger) AlreadyDownloaded(ctx context.Context, remotePaths []string) (map[string]bool, error) {
	if l.db == nil || len(remotePaths) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := l.builder.
		Select("remote_path").
		From("downloaded_files").
		Where(sq.Eq{"remote_path": remotePaths}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lookup query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan remote path: %w", err)
		}
		result[path] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// SaveDownloaded upserts one transferred file.
func (l *PostgresLedger) SaveDownloaded(ctx context.Context, rec domain.DownloadRecord) error {
	if l.db == nil {
		return nil
	}

	query, args, err := l.builder.
		Insert("downloaded_files").
		Columns("target", "remote_path", "local_dir", "downloaded_at").
		Values(rec.Target, rec.RemotePath, rec.LocalDir, rec.DownloadedAt).
		Suffix(`ON CONFLICT (remote_path) DO UPDATE
                SET local_dir = EXCLUDED.local_dir,
                    downloaded_at = EXCLUDED.downloaded_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert query: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert download record: %w", err)
	}

	return nil
}
