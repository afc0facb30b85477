package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vkrause09/web-to-do/internal/core"
)

// maxCells is the widest sheet layout: completed tasks carry
// name, priority, completed_at, comment, status and the failure flag.
const maxCells = 6

var (
	// ErrSheetNotFound reports a missing record set, distinct from a
	// sheet that exists but holds no rows.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrRowNotFound reports a delete aimed at a position with no row.
	ErrRowNotFound = errors.New("row not found")
)

// Sheets lists the record sets present in the store, in name order.
func (s *Store) Sheets(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT name FROM sheets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sheet name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Rows returns the data rows of a sheet in position order, with cell values
// exactly as SQLite stored them.
func (s *Store) Rows(ctx context.Context, sheet string) ([]core.Row, error) {
	if err := s.ensureSheet(ctx, sheet); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT pos, c0, c1, c2, c3, c4, c5
		FROM sheet_rows
		WHERE sheet = ?
		ORDER BY pos
	`, sheet)
	if err != nil {
		return nil, fmt.Errorf("query sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var result []core.Row
	for rows.Next() {
		row := core.Row{Cells: make([]any, maxCells)}
		dest := make([]any, 0, maxCells+1)
		dest = append(dest, &row.Pos)
		for i := range row.Cells {
			dest = append(dest, &row.Cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan sheet row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Append adds a row after the sheet's last position. Short rows are padded
// with NULL cells so trailing optional fields read back as absent.
func (s *Store) Append(ctx context.Context, sheet string, cells []any) error {
	if len(cells) > maxCells {
		return fmt.Errorf("append to %s: %d cells exceeds the sheet width of %d", sheet, len(cells), maxCells)
	}
	if err := s.ensureSheet(ctx, sheet); err != nil {
		return err
	}
	padded := make([]any, maxCells)
	copy(padded, cells)

	args := make([]any, 0, maxCells+2)
	args = append(args, sheet)
	args = append(args, padded...)
	args = append(args, sheet)
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, pos, c0, c1, c2, c3, c4, c5)
		SELECT ?, COALESCE(MAX(pos), 0) + 1, ?, ?, ?, ?, ?, ?
		FROM sheet_rows WHERE sheet = ?
	`, args...)
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}

// DeleteRow removes the row at the given position.
func (s *Store) DeleteRow(ctx context.Context, sheet string, pos int64) error {
	if err := s.ensureSheet(ctx, sheet); err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ? AND pos = ?`, sheet, pos)
	if err != nil {
		return fmt.Errorf("delete row %d from %s: %w", pos, sheet, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRowNotFound
	}
	return nil
}

// InTx runs fn against a store view bound to a single write transaction.
// A nested call reuses the transaction already in flight.
func (s *Store) InTx(ctx context.Context, fn func(core.Store) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{DB: s.DB, StateDir: s.StateDir, q: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) ensureSheet(ctx context.Context, sheet string) error {
	var count int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM sheets WHERE name = ?`, sheet).Scan(&count); err != nil {
		return fmt.Errorf("check sheet %s: %w", sheet, err)
	}
	if count == 0 {
		return fmt.Errorf("%s: %w", sheet, ErrSheetNotFound)
	}
	return nil
}
