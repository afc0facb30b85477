package core

import (
	"context"
	"time"
)

// DateLayout is the wall-clock format used for every date cell in the
// record store. Dates are stored without a zone and interpreted in the
// service's configured location.
const DateLayout = "2006-01-02 15:04:05"

// Sheet names inside the record store.
const (
	SheetAllTasks       = "AllTasks"
	SheetCompletedTasks = "CompletedTasks"
	SheetPassFail       = "Pass Fail"
	SheetTurnAround     = "TurnAroundTime"
	SheetOpenClose      = "OpenClose"
	SheetTypes          = "Types"
)

// Terminal statuses attached to completed tasks. StatusCannotComplete marks
// the completed row with the failure flag.
const (
	StatusCompleted      = "Completed"
	StatusCannotComplete = "Cannot Complete"
)

// Row is one record-store row: its position within the sheet plus the raw
// cell values as the driver returned them (int64, float64, string or nil).
type Row struct {
	Pos   int64
	Cells []any
}

// Task is a not-yet-completed work item from the open sheet.
type Task struct {
	Name      string
	Priority  string
	DateAdded time.Time
}

// CompletedTask is a resolved work item. CompletedAt is stamped at
// transition time; the original add-date is not preserved.
type CompletedTask struct {
	Name        string
	Priority    string
	CompletedAt time.Time
	Comment     string
	Status      string
	Flagged     bool
}

// PassFailSnapshot is one dated pass/fail count pair.
type PassFailSnapshot struct {
	Date time.Time
	Pass int
	Fail int
}

// TurnAroundSample is the elapsed turnaround recorded for one resolved item.
type TurnAroundSample struct {
	Date       time.Time
	TurnAround float64
}

// OpenCloseSample is one dated open/close volume pair.
type OpenCloseSample struct {
	Date  time.Time
	Open  int
	Close int
}

// TypeCount is one category row. Duplicate type labels are kept as
// separate entries, matching the source sheet row for row.
type TypeCount struct {
	Type string
	Qty  int
}

// MonthlyAverage is a calendar-month turnaround mean. Date is normalized to
// the first day of the month at midnight.
type MonthlyAverage struct {
	Date       time.Time
	TurnAround float64
}

// MonthlyVolume is a calendar-month open/close sum, normalized like
// MonthlyAverage.
type MonthlyVolume struct {
	Date  time.Time
	Open  int
	Close int
}

// Listing pairs the sorted open tasks with the completed history.
type Listing struct {
	All       []Task
	Completed []CompletedTask
}

// Store abstracts the record store used by the lifecycle engine, the
// metrics aggregator and the rollup job.
type Store interface {
	// Rows returns the data rows of a sheet in position order.
	// Returns ErrSheetNotFound (from the store implementation) when the
	// sheet itself is absent, which callers must not conflate with an
	// empty sheet.
	Rows(ctx context.Context, sheet string) ([]Row, error)
	// Append adds a row after the sheet's last position.
	Append(ctx context.Context, sheet string, cells []any) error
	// DeleteRow removes the row at the given position.
	DeleteRow(ctx context.Context, sheet string, pos int64) error
	// InTx runs fn against a store view holding an exclusive write
	// transaction. fn returning an error rolls everything back.
	InTx(ctx context.Context, fn func(Store) error) error
}
