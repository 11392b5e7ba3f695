package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/shandysiswandi/goweave/internal/csvrow"
)

// SQLite keeps every table as "<dataset>__<table>" holding one JSON document per row.
type SQLite struct {
	db         *sql.DB
	ids        IDGenerator
	autoCreate bool
}

var _ Inserter = (*SQLite)(nil)

// NewSQLite opens (or creates) the database file at path.
func NewSQLite(path string, ids IDGenerator, autoCreate bool) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY between concurrent inserts.
	db.SetMaxOpenConns(1)

	return &SQLite{db: db, ids: ids, autoCreate: autoCreate}, nil
}

// CreateTable creates the table when it does not exist.
func (s *SQLite) CreateTable(ctx context.Context, ref TableRef) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			insert_id TEXT PRIMARY KEY,
			row_json TEXT NOT NULL,
			inserted_at INTEGER NOT NULL
		);`, sqlName(ref)))
	return err
}

// Exists checks sqlite_master, creating the table first when auto-create is on.
func (s *SQLite) Exists(ctx context.Context, ref TableRef) error {
	if s.autoCreate {
		if err := s.CreateTable(ctx, ref); err != nil {
			return fmt.Errorf("create table %s: %w", ref, err)
		}
	}

	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, sqlName(ref),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", ref, ErrTableNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup table %s: %w", ref, err)
	}

	return nil
}

// Insert writes rows in one transaction. A rejected row does not stop the others.
func (s *SQLite) Insert(ctx context.Context, ref TableRef, rows []csvrow.Row) ([]RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert into %s: %w", ref, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %q (insert_id, row_json, inserted_at) VALUES (?, ?, ?)`, sqlName(ref)))
	if err != nil {
		return nil, fmt.Errorf("prepare insert into %s: %w", ref, err)
	}
	defer stmt.Close()

	ids := insertIDs(s.ids, len(rows))
	now := time.Now().Unix()

	var rowErrs []RowError
	for i, row := range rows {
		id := ids[i]
		if id == "" {
			id = fmt.Sprintf("%d-%d", now, i)
		}

		doc, err := json.Marshal(row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Index: i, InsertID: id, Reason: err.Error()})
			continue
		}

		if _, err := stmt.ExecContext(ctx, id, string(doc), now); err != nil {
			rowErrs = append(rowErrs, RowError{Index: i, InsertID: id, Reason: err.Error()})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert into %s: %w", ref, err)
	}

	return rowErrs, nil
}

// Count returns how many rows the table holds.
func (s *SQLite) Count(ctx context.Context, ref TableRef) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, sqlName(ref))).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
