package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ai-fitness-planner/internal/database"
	"ai-fitness-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestStore_DailyUsage(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordMeta(shared.AgentMeta{
		AgentName: "MealPlanner",
		Attempt:   1,
		Outcome:   "ok",
		Usage:     shared.TokenUsage{PromptTokens: 1000, CompletionTokens: 3000, Model: "m"},
		Latency:   2 * time.Second,
	}))
	require.NoError(t, store.RecordMeta(shared.AgentMeta{
		AgentName: "WorkoutPlanner",
		Attempt:   1,
		Outcome:   "parse_error",
		Usage:     shared.TokenUsage{PromptTokens: 800, CompletionTokens: 1200, Model: "m"},
	}))

	usage, err := store.GetDailyUsage(7)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), usage[0].Date)
	assert.Equal(t, 1800, usage[0].TotalPrompt)
	assert.Equal(t, 4200, usage[0].TotalCompletion)
	assert.Equal(t, 2, usage[0].TotalExecution)
	assert.Equal(t, 1, usage[0].Failures)
}

func TestStore_Cleanup(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Record(ExecutionMetric{AgentName: "old", Timestamp: time.Now().AddDate(0, 0, -40)}))
	require.NoError(t, store.Record(ExecutionMetric{AgentName: "new"}))

	removed, err := store.Cleanup(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	usage, err := store.GetDailyUsage(60)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].TotalExecution)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.size))
	}
}

func TestGetSysHealth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "health.db")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	h := GetSysHealth(path)
	assert.Equal(t, "2.0 KB", h.DatabaseSize)
	assert.Positive(t, h.Goroutines)

	assert.Equal(t, "0 B", GetSysHealth(filepath.Join(t.TempDir(), "missing.db")).DatabaseSize)
}
