package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
)

// windowMonths is the rolling cutoff for the monthly series, and also the
// cap on how many buckets a series may return. The cutoff is a rolling
// "now minus N months" instant, so more than windowMonths calendar months
// can qualify; only the most recent windowMonths buckets are kept.
const windowMonths = 5

// Metrics computes read-only summaries over the record store. Every method
// degrades to an empty result on sheet-level failures and skips malformed
// rows, reporting both through the returned ScanReport.
type Metrics struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewMetrics constructs the aggregator. now may be nil, in which case the
// system clock is used; tests pin it to a fixed instant.
func NewMetrics(store Store, logger *slog.Logger, loc *time.Location, now func() time.Time) *Metrics {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Metrics{store: store, logger: logger, loc: loc, now: now}
}

// TaskListing returns the open tasks sorted ascending by (priority,
// date added) with priority compared as its raw string, plus the completed
// history in sheet order.
func (m *Metrics) TaskListing(ctx context.Context) (Listing, *ScanReport) {
	report := &ScanReport{}
	listing := Listing{All: []Task{}, Completed: []CompletedTask{}}

	for _, row := range m.scan(ctx, SheetAllTasks, report) {
		task, err := ParseTask(row, m.loc)
		if err != nil {
			m.skipRow(report, SheetAllTasks, row, KindTask, err)
			continue
		}
		listing.All = append(listing.All, task)
	}
	sort.SliceStable(listing.All, func(i, j int) bool {
		if listing.All[i].Priority != listing.All[j].Priority {
			return listing.All[i].Priority < listing.All[j].Priority
		}
		return listing.All[i].DateAdded.Before(listing.All[j].DateAdded)
	})

	for _, row := range m.scan(ctx, SheetCompletedTasks, report) {
		task, err := ParseCompletedTask(row, m.loc, true)
		if err != nil {
			m.skipRow(report, SheetCompletedTasks, row, KindCompletedTask, err)
			continue
		}
		listing.Completed = append(listing.Completed, task)
	}
	return listing, report
}

// LatestPassFail returns the snapshot with the maximum date, found in a
// single linear scan. Equal dates do not replace the incumbent, so the
// first row of a tied date wins. Returns nil when the sheet is absent
// or holds no valid rows.
func (m *Metrics) LatestPassFail(ctx context.Context) (*PassFailSnapshot, *ScanReport) {
	report := &ScanReport{}
	var latest *PassFailSnapshot
	for _, row := range m.scan(ctx, SheetPassFail, report) {
		snap, err := ParsePassFail(row, m.loc)
		if err != nil {
			m.skipRow(report, SheetPassFail, row, KindPassFail, err)
			continue
		}
		if latest == nil || snap.Date.After(latest.Date) {
			s := snap
			latest = &s
		}
	}
	return latest, report
}

// TurnAroundMonthly averages turnaround samples per calendar month over the
// rolling window, rounded to two decimals, in ascending bucket order.
func (m *Metrics) TurnAroundMonthly(ctx context.Context) ([]MonthlyAverage, *ScanReport) {
	report := &ScanReport{}
	cutoff := m.now().In(m.loc).AddDate(0, -windowMonths, 0)

	type bucket struct {
		sum   float64
		count int
	}
	buckets := map[time.Time]*bucket{}
	for _, row := range m.scan(ctx, SheetTurnAround, report) {
		sample, err := ParseTurnAround(row, m.loc)
		if err != nil {
			m.skipRow(report, SheetTurnAround, row, KindTurnAround, err)
			continue
		}
		if sample.Date.Before(cutoff) {
			continue
		}
		key := monthStart(sample.Date, m.loc)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += sample.TurnAround
		b.count++
	}

	result := make([]MonthlyAverage, 0, len(buckets))
	for key, b := range buckets {
		result = append(result, MonthlyAverage{
			Date:       key,
			TurnAround: math.Round(b.sum/float64(b.count)*100) / 100,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	if len(result) > windowMonths {
		result = result[len(result)-windowMonths:]
	}
	return result, report
}

// OpenCloseMonthly sums open and close counts per calendar month over the
// same rolling window and cap as TurnAroundMonthly.
func (m *Metrics) OpenCloseMonthly(ctx context.Context) ([]MonthlyVolume, *ScanReport) {
	report := &ScanReport{}
	cutoff := m.now().In(m.loc).AddDate(0, -windowMonths, 0)

	buckets := map[time.Time]*MonthlyVolume{}
	for _, row := range m.scan(ctx, SheetOpenClose, report) {
		sample, err := ParseOpenClose(row, m.loc)
		if err != nil {
			m.skipRow(report, SheetOpenClose, row, KindOpenClose, err)
			continue
		}
		if sample.Date.Before(cutoff) {
			continue
		}
		key := monthStart(sample.Date, m.loc)
		b, ok := buckets[key]
		if !ok {
			b = &MonthlyVolume{Date: key}
			buckets[key] = b
		}
		b.Open += sample.Open
		b.Close += sample.Close
	}

	result := make([]MonthlyVolume, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	if len(result) > windowMonths {
		result = result[len(result)-windowMonths:]
	}
	return result, report
}

// TypeCounts returns one entry per category row. Duplicate labels stay
// separate; the sheet is reported as stored, not merged.
func (m *Metrics) TypeCounts(ctx context.Context) ([]TypeCount, *ScanReport) {
	report := &ScanReport{}
	counts := []TypeCount{}
	for _, row := range m.scan(ctx, SheetTypes, report) {
		tc, err := ParseTypeCount(row)
		if err != nil {
			m.skipRow(report, SheetTypes, row, KindTypeCount, err)
			continue
		}
		counts = append(counts, tc)
	}
	return counts, report
}

// CompletedThisWeek counts completions inside the current calendar week,
// Monday 00:00:00 through Sunday 23:59:59 inclusive, anchored to now.
func (m *Metrics) CompletedThisWeek(ctx context.Context) (int, *ScanReport) {
	report := &ScanReport{}
	start, end := weekBounds(m.now().In(m.loc), m.loc)

	count := 0
	for _, row := range m.scan(ctx, SheetCompletedTasks, report) {
		task, err := ParseCompletedTask(row, m.loc, false)
		if err != nil {
			m.skipRow(report, SheetCompletedTasks, row, KindCompletedTask, err)
			continue
		}
		if !task.CompletedAt.Before(start) && task.CompletedAt.Before(end) {
			count++
		}
	}
	return count, report
}

// scan loads a sheet's rows, folding sheet-level failures into the report
// so the caller's loop simply sees no rows.
func (m *Metrics) scan(ctx context.Context, sheet string, report *ScanReport) []Row {
	rows, err := m.store.Rows(ctx, sheet)
	if err != nil {
		m.logger.Error("read sheet", "sheet", sheet, "err", err)
		report.Err = errors.Join(report.Err, fmt.Errorf("read sheet %s: %w", sheet, err))
		return nil
	}
	report.Scanned += len(rows)
	return rows
}

func (m *Metrics) skipRow(report *ScanReport, sheet string, row Row, kind RecordKind, err error) {
	m.logger.Warn("skipping malformed row",
		"sheet", sheet, "pos", row.Pos, "kind", string(kind), "reason", err.Error(), "cells", fmt.Sprintf("%v", row.Cells))
	report.skip(sheet, row.Pos, kind, err)
}

// monthStart normalizes a timestamp to the first day of its calendar month
// at midnight.
func monthStart(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// weekBounds returns the Monday midnight opening the week containing now
// and the Monday midnight that closes it (exclusive). Stored timestamps
// have second precision, so the half-open range matches the inclusive
// Sunday 23:59:59 upper bound.
func weekBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -daysSinceMonday)
	return start, start.AddDate(0, 0, 7)
}
