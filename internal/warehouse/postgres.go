package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shandysiswandi/goweave/internal/csvrow"
)

// Postgres maps dataset to schema and stores each row as JSONB.
type Postgres struct {
	pool       *pgxpool.Pool
	ids        IDGenerator
	autoCreate bool
}

var _ Inserter = (*Postgres)(nil)

// NewPostgres connects a pool to dsn.
func NewPostgres(ctx context.Context, dsn string, ids IDGenerator, autoCreate bool) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Postgres{pool: pool, ids: ids, autoCreate: autoCreate}, nil
}

func pgIdent(ref TableRef) string {
	return pgx.Identifier{ref.Dataset, ref.Table}.Sanitize()
}

// CreateTable creates the schema and table when they do not exist.
func (p *Postgres) CreateTable(ctx context.Context, ref TableRef) error {
	if _, err := p.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{ref.Dataset}.Sanitize()); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+pgIdent(ref)+` (
		insert_id TEXT PRIMARY KEY,
		row JSONB NOT NULL,
		inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

// Exists resolves the table with to_regclass.
func (p *Postgres) Exists(ctx context.Context, ref TableRef) error {
	if p.autoCreate {
		if err := p.CreateTable(ctx, ref); err != nil {
			return fmt.Errorf("create table %s: %w", ref, err)
		}
	}

	var found bool
	if err := p.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, pgIdent(ref)).Scan(&found); err != nil {
		return fmt.Errorf("lookup table %s: %w", ref, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", ref, ErrTableNotFound)
	}

	return nil
}

// Insert writes each row with its own statement so one rejected row leaves
// the others in place.
func (p *Postgres) Insert(ctx context.Context, ref TableRef, rows []csvrow.Row) ([]RowError, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	query := `INSERT INTO ` + pgIdent(ref) + ` (insert_id, row) VALUES ($1, $2)`
	ids := insertIDs(p.ids, len(rows))

	var rowErrs []RowError
	for i, row := range rows {
		if _, err := conn.Exec(ctx, query, ids[i], map[string]string(row)); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			rowErrs = append(rowErrs, RowError{Index: i, InsertID: ids[i], Reason: err.Error()})
		}
	}

	return rowErrs, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
