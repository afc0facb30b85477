package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vkrause09/web-to-do/internal/notify"
)

// CompleteOutcome distinguishes the results of a completion attempt so
// callers are not left guessing whether the task existed.
type CompleteOutcome string

const (
	CompleteOK       CompleteOutcome = "completed"
	CompleteNotFound CompleteOutcome = "not_found"
)

// Lifecycle moves tasks from the open sheet to the completed sheet. The
// whole transition runs inside one exclusive store transaction so two
// concurrent completions cannot both move the same row.
type Lifecycle struct {
	store    Store
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
	notifier notify.Notifier
}

// NewLifecycle constructs the engine. now may be nil for the system clock;
// notifier may be nil to disable completion notifications.
func NewLifecycle(store Store, logger *slog.Logger, loc *time.Location, now func() time.Time, notifier notify.Notifier) *Lifecycle {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if notifier == nil {
		notifier = &notify.NoOpNotifier{}
	}
	return &Lifecycle{store: store, logger: logger, loc: loc, now: now, notifier: notifier}
}

// Complete moves the first open row whose name cell equals name (exact,
// case-sensitive) to the completed sheet. The completion timestamp replaces
// the original add-date; comment and status are appended as trailing cells,
// and a "Cannot Complete" status additionally sets the failure flag cell.
// Duplicate names are not enforced at write time, so only the first match
// moves and any later duplicates stay behind.
func (l *Lifecycle) Complete(ctx context.Context, name, comment, status string) (CompleteOutcome, error) {
	if status == "" {
		status = StatusCompleted
	}

	outcome := CompleteNotFound
	err := l.store.InTx(ctx, func(tx Store) error {
		rows, err := tx.Rows(ctx, SheetAllTasks)
		if err != nil {
			return fmt.Errorf("read open sheet: %w", err)
		}
		for _, row := range rows {
			cellName, ok := cellString(cell(row, 0))
			if !ok || cellName != name {
				continue
			}
			flag := int64(0)
			if status == StatusCannotComplete {
				flag = 1
			}
			completed := []any{
				cell(row, 0),
				cell(row, 1),
				l.now().In(l.loc).Format(DateLayout),
				comment,
				status,
				flag,
			}
			if err := tx.Append(ctx, SheetCompletedTasks, completed); err != nil {
				return fmt.Errorf("append completed row: %w", err)
			}
			if err := tx.DeleteRow(ctx, SheetAllTasks, row.Pos); err != nil {
				return fmt.Errorf("delete open row: %w", err)
			}
			outcome = CompleteOK
			return nil
		}
		return nil
	})
	if err != nil {
		return CompleteNotFound, err
	}

	switch outcome {
	case CompleteNotFound:
		l.logger.Warn("complete task: no matching open task", "name", name)
	case CompleteOK:
		l.logger.Info("task completed", "name", name, "status", status)
		if status == StatusCannotComplete {
			if err := l.notifier.Send(ctx, "Task could not be completed", fmt.Sprintf("%s: %s", name, comment)); err != nil {
				l.logger.Warn("send completion notification", "name", name, "err", err)
			}
		}
	}
	return outcome, nil
}
