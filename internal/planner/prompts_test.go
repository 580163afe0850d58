package planner

import (
	"strings"
	"testing"

	"ai-fitness-planner/internal/nutrition"
	"ai-fitness-planner/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMealPrompt(t *testing.T) {
	pc := testPlanningContext(2000)
	pc.Objective = nutrition.WeightLoss
	pc.DietaryRestrictions = []string{"gluten", "peanuts"}
	pc.RecentMeals = []profile.MealLog{{Name: "Pizza", Calories: 900}}

	prompt, err := BuildMealPrompt(pc)
	require.NoError(t, err)

	assert.Contains(t, prompt.System, "# Weekly Meal Plan")
	assert.Contains(t, prompt.System, "Daily target: 2000 kcal")
	assert.Contains(t, prompt.System, "Breakfast: 500 kcal (±50 kcal)")
	assert.Contains(t, prompt.System, "Lunch: 800 kcal (±50 kcal)")
	assert.Contains(t, prompt.System, "Dinner: 700 kcal (±50 kcal)")
	assert.Contains(t, prompt.System, "gluten, peanuts")
	assert.Contains(t, prompt.System, mealFraming[nutrition.WeightLoss])
	assert.Contains(t, prompt.System, `"totalNutrition"`)
	assert.Contains(t, prompt.System, "Respond with a single JSON object")

	assert.Contains(t, prompt.User, `"targetDailyCalories": 2000`)
	assert.Contains(t, prompt.User, `"Pizza"`)
	assert.Contains(t, prompt.User, `"weight_goal": "0 kg"`)
}

func TestBuildMealPrompt_NoRestrictions(t *testing.T) {
	prompt, err := BuildMealPrompt(testPlanningContext(1800))
	require.NoError(t, err)
	assert.NotContains(t, prompt.System, "Dietary restrictions")
	assert.Contains(t, prompt.User, `"dietaryRestrictions": []`)
	assert.Contains(t, prompt.User, `"recentMeals": []`)
}

func TestBuildWorkoutPrompt(t *testing.T) {
	pc := testPlanningContext(2600)
	pc.Objective = nutrition.MuscleGain
	pc.ActivityLevel = ""
	pc.Language = "Romanian"

	prompt, err := BuildWorkoutPrompt(pc)
	require.NoError(t, err)

	assert.Contains(t, prompt.System, "# Weekly Workout Plan")
	assert.Contains(t, prompt.System, workoutFraming[nutrition.MuscleGain])
	assert.Contains(t, prompt.System, "Activity level: moderate")
	assert.Contains(t, prompt.System, "in Romanian")
	assert.Contains(t, prompt.System, `"workouts"`)
	assert.Contains(t, prompt.User, `"objective": "muscle-gain"`)
}

func TestBuildUserMessage_LimitsHistory(t *testing.T) {
	pc := testPlanningContext(2000)
	for i := 0; i < 30; i++ {
		pc.RecentMeals = append(pc.RecentMeals, profile.MealLog{Name: "meal"})
	}
	for i := 0; i < 10; i++ {
		pc.WeightProgress = append(pc.WeightProgress, profile.WeightEntry{WeightKG: 70})
	}

	msg, err := buildUserMessage(pc)
	require.NoError(t, err)
	assert.Equal(t, maxRecentMeals, strings.Count(msg, `"name": "meal"`))
	assert.Equal(t, maxWeightEntries, strings.Count(msg, `"weight": 70`))
}
