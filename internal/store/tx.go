package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// errDryRun unwinds a dry-run transaction.
var errDryRun = errors.New("dry run")

// WithTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DryRun runs fn in a transaction that is always rolled back. fn sees its own
// writes, so existence checks and patches behave as in a real run.
func (s *Store) DryRun(ctx context.Context, fn func(tx *sql.Tx) error) error {
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		s.logger.Debug().Msg("dry run: rolling back")
		return errDryRun
	})
	if errors.Is(err, errDryRun) {
		return nil
	}
	return err
}
