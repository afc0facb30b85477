package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Rollup appends a daily open/close volume sample to the OpenClose sheet,
// counting tasks added to and completed from the store during the current
// day. It gives the monthly volume series a producer inside the service;
// externally appended samples continue to work alongside it.
type Rollup struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time

	spec string
	cron *cron.Cron

	ctx context.Context
}

// NewRollup validates the cron expression and constructs the job. The
// expression uses the standard 5-field form.
func NewRollup(store Store, logger *slog.Logger, loc *time.Location, now func() time.Time, spec string) (*Rollup, error) {
	if _, err := ParseCron(spec); err != nil {
		return nil, fmt.Errorf("rollup schedule: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(loc),
	)
	return &Rollup{store: store, logger: logger, loc: loc, now: now, spec: spec, cron: c}, nil
}

// Start schedules the job. ctx bounds the store operations of each run.
func (r *Rollup) Start(ctx context.Context) error {
	r.ctx = ctx
	if _, err := r.cron.AddFunc(r.spec, func() {
		if err := r.RecordDay(r.ctx); err != nil {
			r.logger.Error("volume rollup", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule rollup: %w", err)
	}
	r.cron.Start()

	if schedule, err := ParseCron(r.spec); err == nil {
		next := NextOccurrences(schedule, r.now().In(r.loc), 1)
		r.logger.Info("volume rollup scheduled", "cron", r.spec, "next", next[0].Format(DateLayout))
	}
	return nil
}

// Stop halts the schedule; the returned context is done once any in-flight
// run has finished.
func (r *Rollup) Stop() context.Context {
	return r.cron.Stop()
}

// RecordDay counts open-sheet rows added today and completed-sheet rows
// finished today, then appends the sample. Malformed rows are ignored for
// counting purposes; they are already surfaced by the aggregation paths.
func (r *Rollup) RecordDay(ctx context.Context) error {
	now := r.now().In(r.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	inDay := func(t time.Time) bool {
		return !t.Before(dayStart) && t.Before(dayEnd)
	}

	opened := 0
	rows, err := r.store.Rows(ctx, SheetAllTasks)
	if err != nil {
		return fmt.Errorf("read open sheet: %w", err)
	}
	for _, row := range rows {
		task, err := ParseTask(row, r.loc)
		if err != nil {
			r.logger.Debug("rollup skipping row", "sheet", SheetAllTasks, "pos", row.Pos, "reason", err.Error())
			continue
		}
		if inDay(task.DateAdded) {
			opened++
		}
	}

	closed := 0
	rows, err = r.store.Rows(ctx, SheetCompletedTasks)
	if err != nil {
		return fmt.Errorf("read completed sheet: %w", err)
	}
	for _, row := range rows {
		task, err := ParseCompletedTask(row, r.loc, false)
		if err != nil {
			r.logger.Debug("rollup skipping row", "sheet", SheetCompletedTasks, "pos", row.Pos, "reason", err.Error())
			continue
		}
		if inDay(task.CompletedAt) {
			closed++
		}
	}

	sample := []any{dayStart.Format(DateLayout), int64(opened), int64(closed)}
	if err := r.store.Append(ctx, SheetOpenClose, sample); err != nil {
		return fmt.Errorf("append volume sample: %w", err)
	}
	r.logger.Info("volume rollup recorded", "date", dayStart.Format(DateLayout), "open", opened, "close", closed)
	return nil
}
