package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_SucceedsFirstAttempt(t *testing.T) {
	meal, workout := validPlanJSON(2000)
	gen := &MockTextGenerator{meal: []string{meal}, workout: []string{workout}}
	o := NewOrchestrator(gen, OrchestratorConfig{MaxRetries: 3})

	res := o.Run(context.Background(), testPlanningContext(2000))

	assert.Equal(t, SourceGenerated, res.Source)
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.LastFailure)
	assert.Equal(t, 2, gen.Calls())
	assert.Len(t, res.Meals.Meals, 21)
	assert.Len(t, res.Workouts.Workouts, 7)

	require.Len(t, res.Metas, 2)
	for _, m := range res.Metas {
		assert.Equal(t, OutcomeOK, m.Outcome)
		assert.Equal(t, 1, m.Attempt)
		assert.Equal(t, "mock", m.Usage.Model)
	}
}

func TestOrchestrator_RetriesThenSucceeds(t *testing.T) {
	meal, workout := validPlanJSON(2000)
	gen := &MockTextGenerator{
		meal:    []string{"not json", meal},
		workout: []string{workout},
	}
	o := NewOrchestrator(gen, OrchestratorConfig{MaxRetries: 3})

	res := o.Run(context.Background(), testPlanningContext(2000))

	assert.Equal(t, SourceGenerated, res.Source)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 4, gen.Calls())
	require.Len(t, res.Metas, 4)
	assert.Equal(t, OutcomeParseError, res.Metas[0].Outcome)
	assert.Equal(t, OutcomeOK, res.Metas[1].Outcome)
}

func TestOrchestrator_RepairsPartialWeek(t *testing.T) {
	// Only Sunday's meals; the repair step fills the rest of the week.
	partial := `{"meals": [
		{"day": 0, "mealType": "breakfast", "name": "Oats", "ingredients": ["oats"], "macros": {"calories": 500, "protein": 20, "carbs": 70, "fat": 12}},
		{"day": 0, "mealType": "lunch", "name": "Chicken", "ingredients": ["chicken"], "macros": {"calories": 800, "protein": 50, "carbs": 80, "fat": 25}},
		{"day": 0, "mealType": "dinner", "name": "Salmon", "ingredients": ["salmon"], "macros": {"calories": 700, "protein": 40, "carbs": 50, "fat": 30}}
	]}`
	_, workout := validPlanJSON(2000)
	gen := &MockTextGenerator{meal: []string{partial}, workout: []string{workout}}

	res := NewOrchestrator(gen, OrchestratorConfig{MaxRetries: 1}).Run(context.Background(), testPlanningContext(2000))

	require.Equal(t, SourceGenerated, res.Source)
	require.Len(t, res.Meals.Meals, 21)
	assert.Equal(t, "Salmon (variant for day 7)", res.Meals.Meals[20].Name)
	assert.Equal(t, 7*2000, res.Meals.TotalNutrition.Calories)
}

func TestOrchestrator_MealResponseWithoutMealsFallsBack(t *testing.T) {
	// The built-in default meals add up to 1200 kcal, so filling an empty
	// response would pass the caloric check at this target.
	_, workout := validPlanJSON(1200)
	gen := &MockTextGenerator{
		meal:    []string{`{"error": "I cannot create this plan"}`},
		workout: []string{workout},
	}

	res := NewOrchestrator(gen, OrchestratorConfig{MaxRetries: 3}).Run(context.Background(), testPlanningContext(1200))

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 3, res.Attempts)
	assert.ErrorIs(t, res.LastFailure, ErrParse)
	fallback, _ := Synthesize(1200, testPlanningContext(1200).Sex)
	assert.Equal(t, fallback.Meals, res.Meals.Meals)
}

func TestOrchestrator_FallsBackAfterExhaustingRetries(t *testing.T) {
	gen := &MockTextGenerator{meal: []string{"garbage"}, workout: []string{"more garbage"}}
	o := NewOrchestrator(gen, OrchestratorConfig{MaxRetries: 3})

	res := o.Run(context.Background(), testPlanningContext(2000))

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 6, gen.Calls())
	assert.ErrorIs(t, res.LastFailure, ErrParse)
	assert.Len(t, res.Metas, 6)

	expected, expectedWorkouts := Synthesize(2000, testPlanningContext(2000).Sex)
	assert.Equal(t, expected, res.Meals)
	assert.Equal(t, expectedWorkouts, res.Workouts)
}

func TestOrchestrator_ValidationFailureFallsBack(t *testing.T) {
	// Valid structure, but sized for a different target.
	meal, workout := validPlanJSON(3000)
	gen := &MockTextGenerator{meal: []string{meal}, workout: []string{workout}}

	res := NewOrchestrator(gen, OrchestratorConfig{MaxRetries: 2}).Run(context.Background(), testPlanningContext(2000))

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 2, res.Attempts)
	assert.ErrorIs(t, res.LastFailure, ErrValidation)
	assert.Equal(t, OutcomeValidationError, res.Metas[0].Outcome)
	assert.Equal(t, OutcomeOK, res.Metas[1].Outcome)
}

func TestOrchestrator_GenerationError(t *testing.T) {
	gen := &MockTextGenerator{err: errors.New("quota exceeded")}
	res := NewOrchestrator(gen, OrchestratorConfig{MaxRetries: 2}).Run(context.Background(), testPlanningContext(2000))

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 2, res.Attempts)
	assert.ErrorIs(t, res.LastFailure, ErrGeneration)
	assert.Equal(t, OutcomeGenerationError, res.Metas[0].Outcome)
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &MockTextGenerator{}
	res := NewOrchestrator(gen, OrchestratorConfig{MaxRetries: 5}).Run(ctx, testPlanningContext(2000))

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 1, res.Attempts)
	assert.ErrorIs(t, res.LastFailure, context.Canceled)
	assert.Len(t, res.Meals.Meals, 21)
}

func TestNewOrchestrator_Defaults(t *testing.T) {
	o := NewOrchestrator(&MockTextGenerator{}, OrchestratorConfig{MaxRetries: 0, Backoff: -1})
	assert.Equal(t, DefaultMaxRetries, o.cfg.MaxRetries)
	assert.Zero(t, o.cfg.Backoff)
}
