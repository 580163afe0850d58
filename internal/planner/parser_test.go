package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMealPlan(t *testing.T) {
	t.Run("code fenced output", func(t *testing.T) {
		raw := "Here you go:\n```json\n" + `{
			"meals": [{"day": 0, "mealType": "Breakfast", "name": "Oats", "ingredients": ["60 g oats"],
				"macros": {"calories": 400, "protein": 15, "carbs": 60, "fat": 10}}],
			"totalNutrition": {"calories": 400, "protein": 15, "carbs": 60, "fat": 10}
		}` + "\n```"

		plan, err := ParseMealPlan(raw)
		require.NoError(t, err)
		require.Len(t, plan.Meals, 1)
		assert.Equal(t, Breakfast, plan.Meals[0].MealType)
		assert.Equal(t, 400, plan.Meals[0].Macros.Calories)
		require.NotNil(t, plan.TotalNutrition)
		assert.Equal(t, 400, plan.TotalNutrition.Calories)
	})

	t.Run("loose number and ingredient formats", func(t *testing.T) {
		raw := `{"meals": [{"day": "2", "mealType": "cina", "name": "Fish",
			"ingredients": [{"name": "cod", "quantity": "200", "unit": "g"}, "lemon"],
			"macros": {"calories": "450 kcal", "protein": 40.4, "carbs": "10g", "fat": 12}}]}`

		plan, err := ParseMealPlan(raw)
		require.NoError(t, err)
		require.Len(t, plan.Meals, 1)
		m := plan.Meals[0]
		assert.Equal(t, 2, m.Day)
		assert.Equal(t, Dinner, m.MealType)
		assert.Equal(t, []string{"200 g cod", "lemon"}, m.Ingredients)
		assert.Equal(t, Macros{Calories: 450, Protein: 40, Carbs: 10, Fat: 12}, Macros{
			Calories: m.Macros.Calories, Protein: m.Macros.Protein, Carbs: m.Macros.Carbs, Fat: m.Macros.Fat,
		})
	})

	t.Run("fences do not change the result", func(t *testing.T) {
		body := `{"meals": [{"day": 3, "mealType": "lunch", "name": "Bowl", "ingredients": ["rice", "tofu"],
			"macros": {"calories": 700, "protein": 30, "carbs": 90, "fat": 20}}],
			"totalNutrition": {"calories": 700, "protein": 30, "carbs": 90, "fat": 20}}`

		plain, err := ParseMealPlan(body)
		require.NoError(t, err)
		fenced, err := ParseMealPlan("```json\n" + body + "\n```")
		require.NoError(t, err)
		require.Equal(t, plain, fenced)
	})

	t.Run("garbage around a broken object", func(t *testing.T) {
		_, err := ParseMealPlan("garbage{not json}more garbage")
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("object without meals", func(t *testing.T) {
		for _, raw := range []string{
			`{"error": "I cannot create this plan"}`,
			`{"meals": [], "totalNutrition": {"calories": 0, "protein": 0, "carbs": 0, "fat": 0}}`,
			`{"meals": null}`,
		} {
			_, err := ParseMealPlan(raw)
			assert.ErrorIs(t, err, ErrParse, raw)
		}
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := ParseMealPlan("I'm sorry, I cannot help with that.")
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("recovers well-formed entries", func(t *testing.T) {
		raw := `{"meals": [
			{"day": 0, "mealType": "breakfast", "name": "A", "ingredients": ["x"], "macros": {"calories": 500, "protein": 1, "carbs": 1, "fat": 1}},
			{"day": 1, "mealType": "lunch", "name": "B", "ingredients": ["y"], "macros": {"calories": 600, "protein": 2, "carbs": 2, "fat": 2},},
			{"mealType": "dinner", "name": "no day"},
			{"day": 2 "mealType": "broken"}
		], "totalNutrition": {"calories": 1100`

		plan, err := ParseMealPlan(raw)
		require.NoError(t, err)
		require.Len(t, plan.Meals, 2)
		assert.Equal(t, "A", plan.Meals[0].Name)
		assert.Equal(t, "B", plan.Meals[1].Name)
		assert.Nil(t, plan.TotalNutrition)
	})

	t.Run("nothing recoverable", func(t *testing.T) {
		_, err := ParseMealPlan(`{"meals": [{"name": "no day",}], "oops"}`)
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestParseWorkoutPlan(t *testing.T) {
	raw := "```\n" + `{"workouts": [{"day": 1, "name": "Legs", "description": "Lower body",
		"exercises": [{"name": "Squat", "sets": "4", "reps": 8, "restTime": 90}],
		"duration": "50 min", "intensity": "hard", "caloriesBurned": 400}]}` + "\n```"

	plan, err := ParseWorkoutPlan(raw)
	require.NoError(t, err)
	require.Len(t, plan.Workouts, 1)

	w := plan.Workouts[0]
	assert.Equal(t, 1, w.Day)
	assert.Equal(t, 50, w.Duration)
	assert.Equal(t, IntensityHigh, w.Intensity)
	require.Len(t, w.Exercises, 1)
	assert.Equal(t, 4, w.Exercises[0].Sets)
	assert.Equal(t, "8", w.Exercises[0].Reps)

	_, err = ParseWorkoutPlan("")
	assert.ErrorIs(t, err, ErrParse)

	_, err = ParseWorkoutPlan(`{"error": "quota exceeded"}`)
	assert.ErrorIs(t, err, ErrParse)

	_, err = ParseWorkoutPlan(`{"workouts": []}`)
	assert.ErrorIs(t, err, ErrParse)
}
