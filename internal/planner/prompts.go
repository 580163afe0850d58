package planner

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/nutrition"
	"ai-fitness-planner/internal/profile"
)

//go:embed meal_prompt.md
var mealPrompt string

//go:embed workout_prompt.md
var workoutPrompt string

var promptFuncs = template.FuncMap{"join": strings.Join}

var (
	mealTmpl    = template.Must(template.New("meal").Funcs(promptFuncs).Parse(mealPrompt))
	workoutTmpl = template.Must(template.New("workout").Funcs(promptFuncs).Parse(workoutPrompt))
)

// SlotTolerance is the per-meal calorie slack given to the model.
const SlotTolerance = 50

// Prompt context limits.
const (
	maxRecentMeals   = 20
	maxWeightEntries = 5
)

// PlanningContext is everything the prompts are built from. It is not mutated
// once generation starts.
type PlanningContext struct {
	UserID              string
	Name                string
	Age                 int
	Sex                 nutrition.Sex
	HeightCM            float64
	WeightKG            float64
	ActivityLevel       string
	Objective           nutrition.Objective
	DietaryRestrictions []string
	RecentMeals         []profile.MealLog
	WeightProgress      []profile.WeightEntry
	Questionnaire       Questionnaire
	Targets             nutrition.Targets
	Language            string
}

var mealFraming = map[nutrition.Objective]string{
	nutrition.WeightLoss:  "The user wants to lose weight. The daily target already includes a safe deficit. Favour high-protein, high-fibre, filling meals and keep added sugar and fried food low.",
	nutrition.MuscleGain:  "The user wants to build muscle. The daily target already includes a surplus. Put a solid protein source in every meal (about 1.6-2.2 g per kg of body weight per day) and enough carbohydrate to fuel training.",
	nutrition.Maintenance: "The user wants to maintain their weight. Build balanced meals with lean protein, whole grains, vegetables and healthy fats.",
}

var workoutFraming = map[nutrition.Objective]string{
	nutrition.WeightLoss:  "The user wants to lose weight. Combine full-body strength work with cardio and interval sessions, and keep one or two easier recovery days.",
	nutrition.MuscleGain:  "The user wants to build muscle. Use a progressive-overload strength split built around compound lifts, with limited cardio and at least one recovery day.",
	nutrition.Maintenance: "The user wants to stay fit. Balance strength, cardio and mobility across the week with at least one recovery day.",
}

type promptData struct {
	Framing       string
	Target        int
	Allocation    nutrition.MealAllocation
	Tolerance     int
	Restrictions  []string
	Language      string
	ActivityLevel string
}

// BuildMealPrompt renders the meal plan instructions and the user profile message.
func BuildMealPrompt(pc PlanningContext) (llm.Prompt, error) {
	return buildPrompt(mealTmpl, pc, mealFraming)
}

// BuildWorkoutPrompt renders the workout plan instructions and the user profile message.
func BuildWorkoutPrompt(pc PlanningContext) (llm.Prompt, error) {
	return buildPrompt(workoutTmpl, pc, workoutFraming)
}

func buildPrompt(tmpl *template.Template, pc PlanningContext, framing map[nutrition.Objective]string) (llm.Prompt, error) {
	f, ok := framing[pc.Objective]
	if !ok {
		f = framing[nutrition.Maintenance]
	}
	lang := pc.Language
	if lang == "" {
		lang = "English"
	}
	activity := pc.ActivityLevel
	if activity == "" {
		activity = "moderate"
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		Framing:       f,
		Target:        pc.Targets.TargetDailyCalories,
		Allocation:    nutrition.Allocate(pc.Targets.TargetDailyCalories),
		Tolerance:     SlotTolerance,
		Restrictions:  pc.DietaryRestrictions,
		Language:      lang,
		ActivityLevel: activity,
	})
	if err != nil {
		return llm.Prompt{}, fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}

	user, err := buildUserMessage(pc)
	if err != nil {
		return llm.Prompt{}, err
	}
	return llm.Prompt{System: buf.String(), User: user}, nil
}

type userContext struct {
	Name                string                `json:"name,omitempty"`
	Age                 int                   `json:"age"`
	Gender              nutrition.Sex         `json:"gender"`
	HeightCM            float64               `json:"heightCm"`
	WeightKG            float64               `json:"weightKg"`
	Objective           nutrition.Objective   `json:"objective"`
	ActivityLevel       string                `json:"activityLevel,omitempty"`
	DietaryRestrictions []string              `json:"dietaryRestrictions"`
	RecentMeals         []profile.MealLog     `json:"recentMeals"`
	WeightProgress      []profile.WeightEntry `json:"weightProgress"`
	Questionnaire       Questionnaire         `json:"questionnaire"`
	Targets             targetsContext        `json:"targets"`
}

type targetsContext struct {
	BMR                 int `json:"bmr"`
	TDEE                int `json:"tdee"`
	TargetDailyCalories int `json:"targetDailyCalories"`
	WeightChangeKG      int `json:"weightChangeGoalKg"`
	TimeframeMonths     int `json:"timeframeMonths"`
}

func buildUserMessage(pc PlanningContext) (string, error) {
	uc := userContext{
		Name:                pc.Name,
		Age:                 pc.Age,
		Gender:              pc.Sex,
		HeightCM:            pc.HeightCM,
		WeightKG:            pc.WeightKG,
		Objective:           pc.Objective,
		ActivityLevel:       pc.ActivityLevel,
		DietaryRestrictions: nonNil(pc.DietaryRestrictions),
		RecentMeals:         nonNil(limit(pc.RecentMeals, maxRecentMeals)),
		WeightProgress:      nonNil(limit(pc.WeightProgress, maxWeightEntries)),
		Questionnaire:       pc.Questionnaire,
		Targets: targetsContext{
			BMR:                 int(pc.Targets.BMR + 0.5),
			TDEE:                int(pc.Targets.TDEE + 0.5),
			TargetDailyCalories: pc.Targets.TargetDailyCalories,
			WeightChangeKG:      pc.Targets.WeightChangeKG,
			TimeframeMonths:     pc.Targets.TimeframeMonths,
		},
	}
	b, err := json.MarshalIndent(uc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal user context: %w", err)
	}
	return "Create the plan for this user profile:\n" + string(b), nil
}

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
