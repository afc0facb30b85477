package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkrause09/web-to-do/internal/core"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSeedsStandardSheets(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, sheet := range []string{
		core.SheetAllTasks,
		core.SheetCompletedTasks,
		core.SheetPassFail,
		core.SheetTurnAround,
		core.SheetOpenClose,
		core.SheetTypes,
	} {
		rows, err := s.Rows(ctx, sheet)
		require.NoError(t, err, sheet)
		assert.Empty(t, rows, sheet)
	}
}

func TestSheetsListsSeededNames(t *testing.T) {
	s := setupTestStore(t)

	names, err := s.Sheets(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		core.SheetAllTasks,
		core.SheetCompletedTasks,
		core.SheetPassFail,
		core.SheetTurnAround,
		core.SheetOpenClose,
		core.SheetTypes,
	}, names)
}

func TestRowsMissingSheet(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Rows(context.Background(), "NoSuchSheet")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestAppendAssignsIncreasingPositions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, core.SheetAllTasks, []any{"first", "1", "2024-01-01 09:00:00"}))
	require.NoError(t, s.Append(ctx, core.SheetAllTasks, []any{"second", "2", "2024-01-02 09:00:00"}))

	rows, err := s.Rows(ctx, core.SheetAllTasks)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Pos)
	assert.Equal(t, int64(2), rows[1].Pos)
	assert.Equal(t, "first", rows[0].Cells[0])
	assert.Equal(t, "second", rows[1].Cells[0])
}

func TestHeterogeneousCellsKeepTheirTypes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, core.SheetTypes, []any{"Hardware", int64(7), 2.5}))

	rows, err := s.Rows(ctx, core.SheetTypes)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	cells := rows[0].Cells
	require.Len(t, cells, 6)
	assert.Equal(t, "Hardware", cells[0])
	assert.Equal(t, int64(7), cells[1])
	assert.Equal(t, 2.5, cells[2])
	assert.Nil(t, cells[3])
	assert.Nil(t, cells[4])
	assert.Nil(t, cells[5])
}

func TestAppendRejectsWideRows(t *testing.T) {
	s := setupTestStore(t)

	err := s.Append(context.Background(), core.SheetTypes, []any{1, 2, 3, 4, 5, 6, 7})
	require.Error(t, err)
}

func TestDeleteRow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, core.SheetAllTasks, []any{"doomed", "1", "2024-01-01 09:00:00"}))
	require.NoError(t, s.DeleteRow(ctx, core.SheetAllTasks, 1))

	rows, err := s.Rows(ctx, core.SheetAllTasks)
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = s.DeleteRow(ctx, core.SheetAllTasks, 1)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestInTxCommits(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx core.Store) error {
		if err := tx.Append(ctx, core.SheetAllTasks, []any{"kept", "1", "2024-01-01 09:00:00"}); err != nil {
			return err
		}
		return tx.Append(ctx, core.SheetCompletedTasks, []any{"done", "1", "2024-01-02 09:00:00"})
	})
	require.NoError(t, err)

	open, err := s.Rows(ctx, core.SheetAllTasks)
	require.NoError(t, err)
	assert.Len(t, open, 1)
	completed, err := s.Rows(ctx, core.SheetCompletedTasks)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx core.Store) error {
		if err := tx.Append(ctx, core.SheetAllTasks, []any{"ghost", "1", "2024-01-01 09:00:00"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rows, err := s.Rows(ctx, core.SheetAllTasks)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
