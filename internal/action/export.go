package action

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"dupfind/internal/grouper"
)

const (
	CSVFileName    = "duplicatefiles.csv"
	SQLiteFileName = "duplicatefiles.db"
)

// ExportCSV writes a FileName,FilePath header, one row per file and an empty
// row after each group. With no groups only the header is written.
func ExportCSV(path string, groups []grouper.DuplicateGroup) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"FileName", "FilePath"}); err != nil {
		return err
	}
	for _, g := range groups {
		for _, p := range g.Paths {
			if err := w.Write([]string{filepath.Base(p), p}); err != nil {
				return err
			}
		}
		if err := w.Write(nil); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

//go:embed schema.sql
var schemaSQL string

// ExportSQLite writes groups to a fresh SQLite database at path, replacing
// any existing file. Group ids start at 1 and follow report order; position 0
// is the canonical copy.
func ExportSQLite(ctx context.Context, path string, groups []grouper.DuplicateGroup) error {
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove previous export: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("apply pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO duplicates
        (group_id, position, file_name, file_path, size, fingerprint, canonical)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for gi, g := range groups {
		fp := g.Fingerprint.String()
		for pos, p := range g.Paths {
			canonical := 0
			if pos == 0 {
				canonical = 1
			}
			if _, err := stmt.ExecContext(ctx, gi+1, pos, filepath.Base(p), p, g.Size, fp, canonical); err != nil {
				return fmt.Errorf("insert %s: %w", p, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return db.Close()
}
