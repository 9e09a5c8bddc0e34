package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionClosed is returned when a closed session is used.
var ErrSessionClosed = errors.New("session closed")

// Session stages rows and writes them on Commit. It is not safe for
// concurrent use; every worker opens its own.
type Session struct {
	db      *DB
	pending []*PersonRow
	closed  bool
}

// Add stages row for the next Commit.
func (s *Session) Add(row *PersonRow) {
	s.pending = append(s.pending, row)
}

// Pending returns the number of staged rows.
func (s *Session) Pending() int {
	return len(s.pending)
}

// Commit inserts all staged rows in one transaction and sets their IDs.
// The staged rows are dropped whether or not the commit succeeds.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	if len(s.pending) == 0 {
		return nil
	}
	rows := s.pending
	s.pending = nil

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	ids := make([]int64, len(rows))
	query := insertQuery(s.db.dialect)
	for i, row := range rows {
		if err := insertPerson(ctx, tx, query, row, &ids[i]); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	for i, row := range rows {
		row.ID = ids[i]
	}
	return nil
}

// Close discards staged rows. It is safe to call more than once.
func (s *Session) Close() error {
	s.pending = nil
	s.closed = true
	return nil
}

func insertPerson(ctx context.Context, q DBTX, query string, row *PersonRow, id *int64) error {
	if err := q.QueryRowContext(ctx, query, row.values()...).Scan(id); err != nil {
		return fmt.Errorf("insert person %q: %w", row.Name, err)
	}
	return nil
}
