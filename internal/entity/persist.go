package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/songmeta/internal/meta"
)

// Execer is the caller's open handle. *sql.DB, *sql.Tx and *sql.Conn satisfy
// it; transaction boundaries belong to the caller.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func checkCall(q Execer, inst *Instance) error {
	if inst == nil {
		return fmt.Errorf("nil instance: %w", ErrAbstractType)
	}
	if q == nil {
		return fmt.Errorf("%s: %w", inst.typ.name, ErrNoHandle)
	}
	return nil
}

// Insert writes the present columns of inst and returns the rows affected.
// Association types always ignore conflicts; otherwise onConflictIgnore
// decides. A conflict-ignored duplicate returns 0 and no error.
func Insert(ctx context.Context, q Execer, inst *Instance, onConflictIgnore bool) (int64, error) {
	if err := checkCall(q, inst); err != nil {
		return 0, err
	}
	if inst.typ.shape == ShapeAssociation {
		onConflictIgnore = true
	}
	stmt, err := BuildInsert(inst, onConflictIgnore)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", inst.typ.tableName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert %s: rows affected: %w", inst.typ.tableName, err)
	}
	return n, nil
}

// Patch updates the present non-key columns of the row keyed by inst.
// It reports whether a row was changed. With no non-key columns it returns
// false without running a statement.
func Patch(ctx context.Context, q Execer, inst *Instance) (bool, error) {
	if err := checkCall(q, inst); err != nil {
		return false, err
	}
	if inst.typ.shape == ShapeAssociation {
		return false, fmt.Errorf("%s: patch: %w", inst.typ.name, ErrImmutableAssociation)
	}
	stmt, ok, err := BuildPatch(inst)
	if err != nil || !ok {
		return false, err
	}
	res, err := q.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return false, fmt.Errorf("patch %s: %w", inst.typ.tableName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("patch %s: rows affected: %w", inst.typ.tableName, err)
	}
	return n > 0, nil
}

// Upsert patches the row keyed by inst and inserts it when nothing changed.
// An instance holding only its key always falls through to the insert.
func Upsert(ctx context.Context, q Execer, inst *Instance) error {
	if err := checkCall(q, inst); err != nil {
		return err
	}
	if inst.typ.shape == ShapeAssociation {
		return fmt.Errorf("%s: upsert: %w", inst.typ.name, ErrImmutableAssociation)
	}
	changed, err := Patch(ctx, q, inst)
	if err != nil {
		return err
	}
	if changed {
		return nil
	}
	_, err = Insert(ctx, q, inst, false)
	return err
}

// Exists reports whether a row with inst's primary key is stored.
func Exists(ctx context.Context, q Execer, inst *Instance) (bool, error) {
	if err := checkCall(q, inst); err != nil {
		return false, err
	}
	stmt, err := BuildExists(inst)
	if err != nil {
		return false, err
	}
	rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", inst.typ.tableName, err)
	}
	defer rows.Close()
	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("exists %s: %w", inst.typ.tableName, err)
	}
	return found, nil
}

// Fetch loads the row of t keyed by pk. Stored values are converted to each
// column's declared type; a missing row is ErrNotFound.
func Fetch(ctx context.Context, q Execer, t *Type, pk meta.Fields) (*Instance, error) {
	key, err := New(t, pk)
	if err != nil {
		return nil, err
	}
	if err := checkCall(q, key); err != nil {
		return nil, err
	}
	stmt, err := BuildFetch(key)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.tableName, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", t.tableName, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", t.tableName, ErrNotFound)
	}

	raw := make([]any, len(t.slots))
	dest := make([]any, len(t.slots))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("fetch %s: scan: %w", t.tableName, err)
	}

	// Values are stored as read; Get reports any that break the column contract.
	inst := &Instance{typ: t, vals: make(map[string]meta.Value, len(t.slots))}
	for i, col := range t.slots {
		fm, _ := t.table.Field(col)
		v, err := meta.FromDriver(fm.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("fetch %s: column %s: %w", t.tableName, col, err)
		}
		inst.vals[col] = v
	}
	return inst, rows.Err()
}

// Logged wraps q so every statement is logged at debug level.
func Logged(q Execer, logger zerolog.Logger) Execer {
	if q == nil {
		return nil
	}
	return &loggedExecer{q: q, logger: logger}
}

type loggedExecer struct {
	q      Execer
	logger zerolog.Logger
}

func (l *loggedExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := l.q.ExecContext(ctx, query, args...)
	ev := l.logger.Debug().Str("sql", query).Int("args", len(args)).Dur("took", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("exec failed")
		return res, err
	}
	if n, rerr := res.RowsAffected(); rerr == nil {
		ev = ev.Int64("rows", n)
	}
	ev.Msg("exec")
	return res, nil
}

func (l *loggedExecer) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := l.q.QueryContext(ctx, query, args...)
	ev := l.logger.Debug().Str("sql", query).Int("args", len(args)).Dur("took", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("query failed")
		return nil, err
	}
	ev.Msg("query")
	return rows, nil
}

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
