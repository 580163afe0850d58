package planner

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ai-fitness-planner/internal/nutrition"
)

// DaysPerWeek is the length of a plan window. Day 0 is Sunday.
const DaysPerWeek = 7

// Questionnaire is the free-form answer bag submitted with a generation request.
type Questionnaire map[string]any

// Source records whether a plan came from the model or the built-in synthesizer.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// MealType is one of the three daily meal slots.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes lists the slots in serving order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

var mealTypeAliases = map[string]MealType{
	"breakfast": Breakfast,
	"mic dejun": Breakfast,
	"micdejun":  Breakfast,
	"lunch":     Lunch,
	"pranz":     Lunch,
	"prânz":     Lunch,
	"dinner":    Dinner,
	"supper":    Dinner,
	"cina":      Dinner,
	"cină":      Dinner,
}

func parseMealType(s string) MealType {
	key := strings.ToLower(strings.TrimSpace(s))
	if mt, ok := mealTypeAliases[key]; ok {
		return mt
	}
	return MealType(key)
}

// Slot returns the serving position of the meal type, or -1 for anything else.
func (m MealType) Slot() int {
	for i, mt := range MealTypes {
		if m == mt {
			return i
		}
	}
	return -1
}

// Intensity of a workout session.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

func parseIntensity(s string) Intensity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light", "low", "easy", "none", "rest", "usoara", "ușoară":
		return IntensityLight
	case "high", "hard", "intense", "vigorous", "ridicata", "ridicată":
		return IntensityHigh
	default:
		return IntensityModerate
	}
}

// Macros holds calories (kcal) and macronutrients (grams).
type Macros struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`

	missing []string
}

// Add returns the element-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// UnmarshalJSON accepts numbers, numeric strings ("450 kcal") and records absent fields.
func (m *Macros) UnmarshalJSON(b []byte) error {
	var raw struct {
		Calories *looseInt `json:"calories"`
		Protein  *looseInt `json:"protein"`
		Carbs    *looseInt `json:"carbs"`
		Fat      *looseInt `json:"fat"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = Macros{}
	m.Calories = raw.Calories.take("calories", &m.missing)
	m.Protein = raw.Protein.take("protein", &m.missing)
	m.Carbs = raw.Carbs.take("carbs", &m.missing)
	m.Fat = raw.Fat.take("fat", &m.missing)
	return nil
}

// MealEntry is a single meal in the weekly plan.
type MealEntry struct {
	Day         int      `json:"day"`
	MealType    MealType `json:"mealType"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Recipe      string   `json:"recipe"`
	Ingredients []string `json:"ingredients"`
	Macros      Macros   `json:"macros"`
	Completed   bool     `json:"completed"`
	Skipped     bool     `json:"skipped"`

	missing []string
}

func (m MealEntry) clone() MealEntry {
	c := m
	c.Ingredients = append([]string(nil), m.Ingredients...)
	c.missing = append([]string(nil), m.missing...)
	c.Macros.missing = append([]string(nil), m.Macros.missing...)
	return c
}

// UnmarshalJSON decodes a model-produced meal, tolerating loose number and
// ingredient formats and remembering which required fields were absent.
func (m *MealEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Day         *looseInt         `json:"day"`
		MealType    *string           `json:"mealType"`
		Name        *string           `json:"name"`
		Description string            `json:"description"`
		Recipe      looseText         `json:"recipe"`
		Ingredients []json.RawMessage `json:"ingredients"`
		Macros      *Macros           `json:"macros"`
		Completed   bool              `json:"completed"`
		Skipped     bool              `json:"skipped"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*m = MealEntry{
		Description: raw.Description,
		Recipe:      string(raw.Recipe),
		Completed:   raw.Completed,
		Skipped:     raw.Skipped,
	}
	m.Day = raw.Day.take("day", &m.missing)
	if raw.MealType == nil {
		m.missing = append(m.missing, "mealType")
	} else {
		m.MealType = parseMealType(*raw.MealType)
	}
	if raw.Name == nil {
		m.missing = append(m.missing, "name")
	} else {
		m.Name = *raw.Name
	}
	if raw.Ingredients == nil {
		m.missing = append(m.missing, "ingredients")
	}
	for _, item := range raw.Ingredients {
		if s := ingredientText(item); s != "" {
			m.Ingredients = append(m.Ingredients, s)
		}
	}
	if raw.Macros == nil {
		m.missing = append(m.missing, "macros")
	} else {
		m.Macros = *raw.Macros
	}
	return nil
}

// Exercise is one movement within a workout.
type Exercise struct {
	Name     string `json:"name"`
	Sets     int    `json:"sets"`
	Reps     string `json:"reps"`
	RestTime int    `json:"restTime"`
	Notes    string `json:"notes"`

	missing []string
}

// UnmarshalJSON accepts reps as a number or a range string and records absent fields.
func (e *Exercise) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name     *string    `json:"name"`
		Sets     *looseInt  `json:"sets"`
		Reps     *looseText `json:"reps"`
		RestTime *looseInt  `json:"restTime"`
		Notes    string     `json:"notes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Exercise{Notes: raw.Notes}
	if raw.Name == nil {
		e.missing = append(e.missing, "name")
	} else {
		e.Name = *raw.Name
	}
	e.Sets = raw.Sets.take("sets", &e.missing)
	if raw.Reps == nil {
		e.missing = append(e.missing, "reps")
	} else {
		e.Reps = string(*raw.Reps)
	}
	if raw.RestTime != nil {
		e.RestTime = int(*raw.RestTime)
	}
	return nil
}

// WorkoutEntry is a single session in the weekly plan.
type WorkoutEntry struct {
	Day            int        `json:"day"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Exercises      []Exercise `json:"exercises"`
	Duration       int        `json:"duration"`
	Intensity      Intensity  `json:"intensity"`
	CaloriesBurned int        `json:"caloriesBurned"`
	Completed      bool       `json:"completed"`
	Skipped        bool       `json:"skipped"`

	missing []string
}

// UnmarshalJSON decodes a model-produced workout and records absent required fields.
func (w *WorkoutEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Day            *looseInt  `json:"day"`
		Name           *string    `json:"name"`
		Description    *string    `json:"description"`
		Exercises      []Exercise `json:"exercises"`
		Duration       *looseInt  `json:"duration"`
		Intensity      string     `json:"intensity"`
		CaloriesBurned *looseInt  `json:"caloriesBurned"`
		Completed      bool       `json:"completed"`
		Skipped        bool       `json:"skipped"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*w = WorkoutEntry{
		Exercises: raw.Exercises,
		Intensity: parseIntensity(raw.Intensity),
		Completed: raw.Completed,
		Skipped:   raw.Skipped,
	}
	w.Day = raw.Day.take("day", &w.missing)
	if raw.Name == nil {
		w.missing = append(w.missing, "name")
	} else {
		w.Name = *raw.Name
	}
	if raw.Description == nil {
		w.missing = append(w.missing, "description")
	} else {
		w.Description = *raw.Description
	}
	if raw.Exercises == nil {
		w.missing = append(w.missing, "exercises")
	}
	w.Duration = raw.Duration.take("duration", &w.missing)
	if raw.CaloriesBurned != nil {
		w.CaloriesBurned = int(*raw.CaloriesBurned)
	}
	return nil
}

// MealPlanData is the meal half of a generated or synthesized week.
type MealPlanData struct {
	Meals          []MealEntry `json:"meals"`
	TotalNutrition *Macros     `json:"totalNutrition,omitempty"`
}

// WorkoutPlanData is the workout half of a generated or synthesized week.
type WorkoutPlanData struct {
	Workouts []WorkoutEntry `json:"workouts"`
}

// SumMacros adds up the macros of every entry.
func SumMacros(meals []MealEntry) Macros {
	var total Macros
	for _, m := range meals {
		total = total.Add(m.Macros)
	}
	return total
}

// MealPlan is a persisted weekly meal plan.
type MealPlan struct {
	ID             string              `json:"id"`
	UserID         string              `json:"userId"`
	StartDate      time.Time           `json:"startDate"`
	EndDate        time.Time           `json:"endDate"`
	Objective      nutrition.Objective `json:"objective"`
	Source         Source              `json:"source"`
	Meals          []MealEntry         `json:"meals"`
	TotalNutrition Macros              `json:"totalNutrition"`
	Questionnaire  Questionnaire       `json:"questionnaire"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// WorkoutPlan is a persisted weekly workout plan.
type WorkoutPlan struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	StartDate     time.Time           `json:"startDate"`
	EndDate       time.Time           `json:"endDate"`
	Objective     nutrition.Objective `json:"objective"`
	Source        Source              `json:"source"`
	Workouts      []WorkoutEntry      `json:"workouts"`
	Questionnaire Questionnaire       `json:"questionnaire"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// MealsForDay returns the plan indices and entries scheduled on day.
func (p *MealPlan) MealsForDay(day int) ([]int, []MealEntry) {
	var idx []int
	var meals []MealEntry
	for i, m := range p.Meals {
		if m.Day == day {
			idx = append(idx, i)
			meals = append(meals, m)
		}
	}
	return idx, meals
}

// WorkoutsForDay returns the plan indices and entries scheduled on day.
func (p *WorkoutPlan) WorkoutsForDay(day int) ([]int, []WorkoutEntry) {
	var idx []int
	var workouts []WorkoutEntry
	for i, w := range p.Workouts {
		if w.Day == day {
			idx = append(idx, i)
			workouts = append(workouts, w)
		}
	}
	return idx, workouts
}

var leadingNumberRe = regexp.MustCompile(`^-?\d+(\.\d+)?`)

// looseInt decodes JSON numbers (rounded) and strings that start with a number.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = leadingNumberRe.FindString(strings.TrimSpace(str))
		if s == "" {
			return fmt.Errorf("not a number: %q", str)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", s)
	}
	*n = looseInt(math.Round(f))
	return nil
}

func (n *looseInt) take(field string, missing *[]string) int {
	if n == nil {
		*missing = append(*missing, field)
		return 0
	}
	return int(*n)
}

// looseText decodes strings as-is, numbers as their literal, and lists of strings joined by newlines.
type looseText string

func (t *looseText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = looseText(s)
		return nil
	}
	var parts []string
	if err := json.Unmarshal(b, &parts); err == nil {
		*t = looseText(strings.Join(parts, "\n"))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err == nil {
		*t = looseText(num.String())
		return nil
	}
	return fmt.Errorf("unsupported text value: %s", string(b))
}

// ingredientText flattens "200g chicken" or {"name": "chicken", "quantity": "200g"}.
func ingredientText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Name     string    `json:"name"`
		Item     string    `json:"item"`
		Quantity looseText `json:"quantity"`
		Amount   looseText `json:"amount"`
		Unit     string    `json:"unit"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	name := obj.Name
	if name == "" {
		name = obj.Item
	}
	qty := string(obj.Quantity)
	if qty == "" {
		qty = string(obj.Amount)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(strings.Join([]string{qty, obj.Unit, name}, " ")), " "))
}
