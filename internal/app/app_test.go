package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/database"
	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unavailableGenerator struct{}

func (unavailableGenerator) GenerateContent(context.Context, llm.Prompt) (llm.ContentResponse, error) {
	return llm.ContentResponse{Content: "Sorry, I can't do that right now."}, nil
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "app.db")
	db, err := database.NewDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{DatabasePath: dbPath, PlanMaxRetries: 1, PlanLanguage: "English"}
	var out bytes.Buffer
	return newApp(cfg, db, unavailableGenerator{}, &out), &out
}

func TestApp_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a, out := newTestApp(t)

	require.NoError(t, a.SetProfile(ctx, &profile.Profile{
		ID: "cli-user", Name: "Dan", Sex: "masculin", Age: 35, HeightCM: 182, WeightKG: 90,
		ActivityLevel: "activ", Objective: "slabire",
	}))
	assert.Contains(t, out.String(), "Profile cli-user saved")

	require.NoError(t, a.LogMeal(ctx, "cli-user", profile.MealLog{Name: "Pizza", MealType: "dinner", Calories: 1100}))
	require.NoError(t, a.LogWeight(ctx, "cli-user", 89.2))

	out.Reset()
	require.NoError(t, a.GenerateWeeklyPlans(ctx, "cli-user", planner.Questionnaire{
		"weight_goal":    "6 kg",
		"timeframe_goal": []any{"3 months"},
	}))
	assert.Contains(t, out.String(), "a standard plan was stored instead")
	assert.Contains(t, out.String(), "WEEKLY MEAL PLAN")
	assert.Contains(t, out.String(), "WEEKLY WORKOUT PLAN")

	current, err := a.service.GetCurrentPlans(ctx, "cli-user")
	require.NoError(t, err)
	require.NotNil(t, current.MealPlan)

	out.Reset()
	require.NoError(t, a.UpdateMealStatus(ctx, "cli-user", current.MealPlan.ID, 0, true, false))
	assert.Contains(t, out.String(), "[x] Sunday")

	out.Reset()
	require.NoError(t, a.UpdateWorkoutStatus(ctx, "cli-user", current.WorkoutPlan.ID, 1, false, true))
	assert.Contains(t, out.String(), "[-] Monday")

	err = a.UpdateMealStatus(ctx, "cli-user", current.MealPlan.ID, 21, true, false)
	assert.ErrorIs(t, err, planner.ErrIndexOutOfRange)

	out.Reset()
	require.NoError(t, a.ShowCurrentPlans(ctx, "cli-user", true))
	assert.Contains(t, out.String(), `"source": "fallback"`)

	out.Reset()
	require.NoError(t, a.PrintShoppingList(ctx, "cli-user", true))
	assert.Contains(t, out.String(), "olive oil")

	out.Reset()
	require.NoError(t, a.PrintMetrics(7))
	assert.Contains(t, out.String(), "calls   2")
	assert.Contains(t, out.String(), "failed   2")
}

func TestApp_GenerateUnknownUser(t *testing.T) {
	a, _ := newTestApp(t)
	err := a.GenerateWeeklyPlans(context.Background(), "nobody", planner.Questionnaire{})
	assert.ErrorIs(t, err, planner.ErrUserNotFound)
}

func TestApp_ShowCurrentPlans_Empty(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.ShowCurrentPlans(context.Background(), "nobody", false))
	assert.Equal(t, "No plans for this week.\n", out.String())
}

func TestApp_PrintShoppingList_NoPlan(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.PrintShoppingList(context.Background(), "nobody", false))
	assert.Equal(t, "No meal plan for this week.\n", out.String())
}

func TestApp_CleanupMetrics(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.CleanupMetrics(30))
	assert.Contains(t, out.String(), "removed 0 old metric records")
}
