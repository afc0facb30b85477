package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkrause09/web-to-do/internal/core"
)

func row(cells ...any) core.Row {
	return core.Row{Pos: 1, Cells: cells}
}

func TestParseTask(t *testing.T) {
	task, err := core.ParseTask(row("fix printer", "2", "2024-01-05 10:30:00"), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "fix printer", task.Name)
	assert.Equal(t, "2", task.Priority)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), task.DateAdded)
}

func TestParseTaskRejectsMissingCoreFields(t *testing.T) {
	cases := map[string]core.Row{
		"nil name":     row(nil, "1", "2024-01-05 10:30:00"),
		"nil priority": row("a", nil, "2024-01-05 10:30:00"),
		"nil date":     row("a", "1", nil),
		"short row":    row("a", "1"),
		"empty name":   row("", "1", "2024-01-05 10:30:00"),
		"bad date":     row("a", "1", "05/01/2024"),
	}
	for name, r := range cases {
		_, err := core.ParseTask(r, time.UTC)
		assert.Error(t, err, name)
	}
}

func TestParseTaskNumericPriority(t *testing.T) {
	task, err := core.ParseTask(row("a", int64(3), "2024-01-05 10:30:00"), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "3", task.Priority)
}

func TestParseTaskUnixDate(t *testing.T) {
	stamp := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	task, err := core.ParseTask(row("a", "1", stamp.Unix()), time.UTC)
	require.NoError(t, err)
	assert.True(t, task.DateAdded.Equal(stamp))
}

func TestParseCompletedTaskDefaults(t *testing.T) {
	task, err := core.ParseCompletedTask(row("a", "1", "2024-01-05 10:30:00"), time.UTC, true)
	require.NoError(t, err)
	assert.Equal(t, "", task.Comment)
	assert.Equal(t, core.StatusCompleted, task.Status)
	assert.False(t, task.Flagged)
}

func TestParseCompletedTaskMeta(t *testing.T) {
	task, err := core.ParseCompletedTask(
		row("a", "1", "2024-01-05 10:30:00", "vendor never replied", core.StatusCannotComplete, int64(1)),
		time.UTC, true)
	require.NoError(t, err)
	assert.Equal(t, "vendor never replied", task.Comment)
	assert.Equal(t, core.StatusCannotComplete, task.Status)
	assert.True(t, task.Flagged)
}

func TestParsePassFail(t *testing.T) {
	snap, err := core.ParsePassFail(row("2024-01-05 00:00:00", int64(5), int64(1)), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Pass)
	assert.Equal(t, 1, snap.Fail)

	_, err = core.ParsePassFail(row("2024-01-05 00:00:00", "many", int64(1)), time.UTC)
	assert.Error(t, err)
}

func TestParseTurnAround(t *testing.T) {
	sample, err := core.ParseTurnAround(row("2024-01-05 00:00:00", 3.5), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3.5, sample.TurnAround)

	// Numeric text coerces; arbitrary text does not.
	sample, err = core.ParseTurnAround(row("2024-01-05 00:00:00", "4.25"), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4.25, sample.TurnAround)

	_, err = core.ParseTurnAround(row("2024-01-05 00:00:00", "slow"), time.UTC)
	assert.Error(t, err)

	_, err = core.ParseTurnAround(row("2024-01-05 00:00:00", -1.0), time.UTC)
	assert.Error(t, err)
}

func TestParseTypeCount(t *testing.T) {
	tc, err := core.ParseTypeCount(row("Hardware", int64(12)))
	require.NoError(t, err)
	assert.Equal(t, "Hardware", tc.Type)
	assert.Equal(t, 12, tc.Qty)

	_, err = core.ParseTypeCount(row(nil, int64(12)))
	assert.Error(t, err)

	_, err = core.ParseTypeCount(row("Hardware", "dozen"))
	assert.Error(t, err)
}
