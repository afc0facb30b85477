package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RecordKind names the typed record a raw row is coerced into. It appears in
// scan diagnostics so bad input can be traced back to its sheet.
type RecordKind string

const (
	KindTask          RecordKind = "task"
	KindCompletedTask RecordKind = "completed_task"
	KindPassFail      RecordKind = "pass_fail"
	KindTurnAround    RecordKind = "turn_around"
	KindOpenClose     RecordKind = "open_close"
	KindTypeCount     RecordKind = "type_count"
)

// RowIssue records one skipped row with enough context to diagnose it.
type RowIssue struct {
	Sheet  string
	Pos    int64
	Kind   RecordKind
	Reason string
}

// ScanReport is the structured diagnostic attached to every aggregation
// result. A scan that hit malformed rows still produces data; Issues lists
// what was skipped. Err is set only for sheet-level failures (store
// unreadable, sheet missing), in which case the result degrades to empty.
type ScanReport struct {
	Scanned int
	Issues  []RowIssue
	Err     error
}

// Skipped reports how many rows were dropped during the scan.
func (r *ScanReport) Skipped() int {
	return len(r.Issues)
}

func (r *ScanReport) skip(sheet string, pos int64, kind RecordKind, err error) {
	r.Issues = append(r.Issues, RowIssue{Sheet: sheet, Pos: pos, Kind: kind, Reason: err.Error()})
}

// cell returns the value at index i, or nil when the row is shorter.
func cell(row Row, i int) any {
	if i < 0 || i >= len(row.Cells) {
		return nil
	}
	return row.Cells[i]
}

func cellString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

func cellFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func cellInt(v any) (int, bool) {
	f, ok := cellFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// cellTime accepts a text cell in DateLayout or a numeric cell holding Unix
// seconds. Anything else fails the coercion.
func cellTime(v any, loc *time.Location) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		parsed, err := time.ParseInLocation(DateLayout, strings.TrimSpace(t), loc)
		return parsed, err == nil
	case int64:
		return time.Unix(t, 0).In(loc), true
	case float64:
		return time.Unix(int64(t), 0).In(loc), true
	default:
		return time.Time{}, false
	}
}

func cellBool(v any) bool {
	switch b := v.(type) {
	case int64:
		return b != 0
	case float64:
		return b != 0
	case string:
		return b == "1" || strings.EqualFold(b, "true")
	default:
		return false
	}
}

// ParseTask coerces an open-sheet row. The first three cells (name,
// priority, date added) are mandatory; a nil or uncoercible cell rejects
// the row.
func ParseTask(row Row, loc *time.Location) (Task, error) {
	name, priority, date, err := coreFields(row, loc)
	if err != nil {
		return Task{}, err
	}
	return Task{Name: name, Priority: priority, DateAdded: date}, nil
}

// ParseCompletedTask coerces a completed-sheet row. When withMeta is set the
// optional trailing cells (comment, status, flag) are read as well; absent
// values default to empty with status falling back to "Completed".
func ParseCompletedTask(row Row, loc *time.Location, withMeta bool) (CompletedTask, error) {
	name, priority, date, err := coreFields(row, loc)
	if err != nil {
		return CompletedTask{}, err
	}
	task := CompletedTask{Name: name, Priority: priority, CompletedAt: date, Status: StatusCompleted}
	if !withMeta {
		return task, nil
	}
	if comment, ok := cellString(cell(row, 3)); ok {
		task.Comment = comment
	}
	if status, ok := cellString(cell(row, 4)); ok && status != "" {
		task.Status = status
	}
	task.Flagged = cellBool(cell(row, 5))
	return task, nil
}

func coreFields(row Row, loc *time.Location) (string, string, time.Time, error) {
	for i := 0; i < 3; i++ {
		if cell(row, i) == nil {
			return "", "", time.Time{}, fmt.Errorf("cell %d is empty", i)
		}
	}
	name, ok := cellString(cell(row, 0))
	if !ok || name == "" {
		return "", "", time.Time{}, fmt.Errorf("name %v is not a usable string", cell(row, 0))
	}
	priority, ok := cellString(cell(row, 1))
	if !ok {
		// Priorities occasionally arrive as bare numbers; keep their
		// textual form since the sort key is the raw string.
		f, numeric := cellFloat(cell(row, 1))
		if !numeric {
			return "", "", time.Time{}, fmt.Errorf("priority %v is not usable", cell(row, 1))
		}
		priority = strconv.FormatFloat(f, 'f', -1, 64)
	}
	date, ok := cellTime(cell(row, 2), loc)
	if !ok {
		return "", "", time.Time{}, fmt.Errorf("date %v is not a timestamp", cell(row, 2))
	}
	return name, priority, date, nil
}

// ParsePassFail coerces a pass/fail snapshot row: date, pass count,
// fail count.
func ParsePassFail(row Row, loc *time.Location) (PassFailSnapshot, error) {
	date, ok := cellTime(cell(row, 0), loc)
	if !ok {
		return PassFailSnapshot{}, fmt.Errorf("date %v is not a timestamp", cell(row, 0))
	}
	pass, ok := cellInt(cell(row, 1))
	if !ok {
		return PassFailSnapshot{}, fmt.Errorf("pass count %v is not numeric", cell(row, 1))
	}
	fail, ok := cellInt(cell(row, 2))
	if !ok {
		return PassFailSnapshot{}, fmt.Errorf("fail count %v is not numeric", cell(row, 2))
	}
	return PassFailSnapshot{Date: date, Pass: pass, Fail: fail}, nil
}

// ParseTurnAround coerces a turnaround sample row: date, elapsed value.
func ParseTurnAround(row Row, loc *time.Location) (TurnAroundSample, error) {
	date, ok := cellTime(cell(row, 0), loc)
	if !ok {
		return TurnAroundSample{}, fmt.Errorf("date %v is not a timestamp", cell(row, 0))
	}
	val, ok := cellFloat(cell(row, 1))
	if !ok {
		return TurnAroundSample{}, fmt.Errorf("turnaround %v is not numeric", cell(row, 1))
	}
	if val < 0 {
		return TurnAroundSample{}, fmt.Errorf("turnaround %v is negative", val)
	}
	return TurnAroundSample{Date: date, TurnAround: val}, nil
}

// ParseOpenClose coerces an open/close volume row: date, open count,
// close count.
func ParseOpenClose(row Row, loc *time.Location) (OpenCloseSample, error) {
	date, ok := cellTime(cell(row, 0), loc)
	if !ok {
		return OpenCloseSample{}, fmt.Errorf("date %v is not a timestamp", cell(row, 0))
	}
	open, ok := cellInt(cell(row, 1))
	if !ok {
		return OpenCloseSample{}, fmt.Errorf("open count %v is not numeric", cell(row, 1))
	}
	closed, ok := cellInt(cell(row, 2))
	if !ok {
		return OpenCloseSample{}, fmt.Errorf("close count %v is not numeric", cell(row, 2))
	}
	return OpenCloseSample{Date: date, Open: open, Close: closed}, nil
}

// ParseTypeCount coerces a category row: label, quantity.
func ParseTypeCount(row Row) (TypeCount, error) {
	label, ok := cellString(cell(row, 0))
	if !ok || label == "" {
		return TypeCount{}, fmt.Errorf("type label %v is not a usable string", cell(row, 0))
	}
	qty, ok := cellInt(cell(row, 1))
	if !ok {
		return TypeCount{}, fmt.Errorf("qty %v is not numeric", cell(row, 1))
	}
	return TypeCount{Type: label, Qty: qty}, nil
}
