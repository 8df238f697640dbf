// Package sqldriver provides SQL-backed history drivers for SQLite and
// PostgreSQL. Queries are built with ent's dialect-aware SQL builder so one
// implementation serves both databases; only the schema DDL is written by hand.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/langchat/pkg/history"
)

const turnsTable = "turns"

// turnColumns is the column order used by every insert and select.
var turnColumns = []string{
	"id",
	"session_id",
	"message",
	"response",
	"streamed",
	"enable_skills",
	"enable_mcp",
	"started_at",
	"ended_at",
	"error_text",
}

// Driver implements history.Driver on top of a database/sql connection.
type Driver struct {
	drv     *entsql.Driver
	dialect string
}

func newDriver(ctx context.Context, dialectName string, db *sql.DB) (*Driver, error) {
	d := &Driver{
		drv:     entsql.OpenDB(dialectName, db),
		dialect: dialectName,
	}

	if err := d.migrate(ctx); err != nil {
		d.drv.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return d, nil
}

// Dialect returns the SQL dialect name ("sqlite3" or "postgres").
func (d *Driver) Dialect() string {
	return d.dialect
}

// createTurnsTable is the turns DDL. %[1]s is the dialect's timestamp type.
const createTurnsTable = `CREATE TABLE IF NOT EXISTS turns (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	message TEXT NOT NULL,
	response TEXT NOT NULL,
	streamed BOOLEAN NOT NULL,
	enable_skills BOOLEAN NOT NULL,
	enable_mcp BOOLEAN NOT NULL,
	started_at %[1]s NOT NULL,
	ended_at %[1]s NOT NULL,
	error_text TEXT NOT NULL
)`

const createTurnsIndex = "CREATE INDEX IF NOT EXISTS turns_session_started ON turns (session_id, started_at)"

// schema returns the DDL statements for the driver's dialect.
func (d *Driver) schema() []string {
	timestamp := "TIMESTAMP"
	if d.dialect == dialect.Postgres {
		timestamp = "TIMESTAMPTZ"
	}

	return []string{
		fmt.Sprintf(createTurnsTable, timestamp),
		createTurnsIndex,
	}
}

// migrate creates the turns table and its index when missing. Schema changes
// are append-only.
func (d *Driver) migrate(ctx context.Context) error {
	for _, stmt := range d.schema() {
		if err := d.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("migrating %s: %w", turnsTable, err)
		}
	}

	return nil
}

// Put stores a turn, replacing any turn with the same ID.
func (d *Driver) Put(ctx context.Context, turn *history.Turn) error {
	if turn == nil {
		return errors.New("cannot store nil turn")
	}
	if turn.ID == "" {
		return errors.New("cannot store turn without an ID")
	}

	query, args := entsql.Dialect(d.dialect).
		Insert(turnsTable).
		Columns(turnColumns...).
		Values(
			turn.ID,
			turn.SessionID,
			turn.Message,
			turn.Response,
			turn.Streamed,
			turn.EnableSkills,
			turn.EnableMCP,
			turn.StartedAt.UTC(),
			turn.EndedAt.UTC(),
			turn.Error,
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to store turn %s: %w", turn.ID, err)
	}

	return nil
}

// Get retrieves a turn by its ID.
func (d *Driver) Get(ctx context.Context, id string) (*history.Turn, error) {
	b := entsql.Dialect(d.dialect)
	selector := b.Select(turnColumns...).
		From(b.Table(turnsTable)).
		Where(entsql.EQ("id", id))

	turns, err := d.query(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, history.ErrNotFound{ID: id}
	}

	return turns[0], nil
}

// List returns turns newest first.
func (d *Driver) List(ctx context.Context, opts history.ListOptions) ([]*history.Turn, error) {
	b := entsql.Dialect(d.dialect)
	selector := b.Select(turnColumns...).
		From(b.Table(turnsTable)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id"))

	if opts.SessionID != "" {
		selector.Where(entsql.EQ("session_id", opts.SessionID))
	}
	if opts.Limit > 0 {
		selector.Limit(opts.Limit)
	}

	return d.query(ctx, selector)
}

// Clear deletes every stored turn.
func (d *Driver) Clear(ctx context.Context) error {
	query, args := entsql.Dialect(d.dialect).Delete(turnsTable).Query()
	if err := d.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to clear turns: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.drv.Close()
}

func (d *Driver) query(ctx context.Context, selector *entsql.Selector) ([]*history.Turn, error) {
	query, args := selector.Query()

	rows := &entsql.Rows{}
	if err := d.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []*history.Turn
	for rows.Next() {
		var (
			turn           history.Turn
			started, ended time.Time
		)
		if err := rows.Scan(
			&turn.ID,
			&turn.SessionID,
			&turn.Message,
			&turn.Response,
			&turn.Streamed,
			&turn.EnableSkills,
			&turn.EnableMCP,
			&started,
			&ended,
			&turn.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}

		turn.StartedAt = started.UTC()
		turn.EndedAt = ended.UTC()
		turns = append(turns, &turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}

	return turns, nil
}
