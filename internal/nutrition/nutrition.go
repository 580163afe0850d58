// Package nutrition computes energy targets from biometrics and pulls weight
// and timeframe goals out of questionnaire answers. Everything here is pure.
package nutrition

import (
	"fmt"
	"math"
	"strings"
)

// Sex selects the Mifflin–St Jeor constant and the healthy calorie floor.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// ParseSex normalizes free-form input. Anything not recognized as male is female,
// matching how the BMR formula treats the value.
func ParseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "masculin", "man":
		return Male
	default:
		return Female
	}
}

// Objective is the user's goal for the plan window.
type Objective string

const (
	WeightLoss  Objective = "weight-loss"
	MuscleGain  Objective = "muscle-gain"
	Maintenance Objective = "maintenance"
)

var objectiveAliases = map[string]Objective{
	"weight-loss": WeightLoss,
	"weight_loss": WeightLoss,
	"weightloss":  WeightLoss,
	"lose":        WeightLoss,
	"slabire":     WeightLoss,
	"muscle-gain": MuscleGain,
	"muscle_gain": MuscleGain,
	"musclegain":  MuscleGain,
	"gain":        MuscleGain,
	"muschi":      MuscleGain,
	"maintenance": Maintenance,
	"maintain":    Maintenance,
	"mentinere":   Maintenance,
}

// ParseObjective maps English and Romanian spellings onto an Objective.
func ParseObjective(s string) (Objective, error) {
	if o, ok := objectiveAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return o, nil
	}
	return "", fmt.Errorf("unknown objective %q", s)
}

// DefaultActivityFactor is used for unknown or missing activity levels.
const DefaultActivityFactor = 1.55

var activityFactors = map[string]float64{
	"sedentary":    1.2,
	"sedentar":     1.2,
	"light":        1.375,
	"usor":         1.375,
	"moderate":     1.55,
	"moderat":      1.55,
	"active":       1.725,
	"activ":        1.725,
	"very-active":  1.9,
	"very active":  1.9,
	"foarte activ": 1.9,
	"foarteactiv":  1.9,
}

// ActivityFactor returns the TDEE multiplier for an activity level.
func ActivityFactor(level string) float64 {
	if f, ok := activityFactors[strings.ToLower(strings.TrimSpace(level))]; ok {
		return f
	}
	return DefaultActivityFactor
}

// BMR uses the Mifflin–St Jeor equation. Weight in kg, height in cm.
func BMR(sex Sex, weightKG, heightCM float64, age int) float64 {
	base := 10*weightKG + 6.25*heightCM - 5*float64(age)
	if sex == Male {
		return base + 5
	}
	return base - 161
}

// MinHealthyCalories is the lowest daily target a weight-loss plan may prescribe.
func MinHealthyCalories(sex Sex) int {
	if sex == Male {
		return 1500
	}
	return 1200
}

// KcalPerKG is the energy content of one kilogram of body fat.
const KcalPerKG = 7700

// Input is the subset of a user profile needed for target computation.
type Input struct {
	Sex           Sex
	Age           int
	HeightCM      float64
	WeightKG      float64
	ActivityLevel string
	Objective     Objective
}

// Targets are derived once per generation request.
type Targets struct {
	BMR                 float64
	TDEE                float64
	TargetDailyCalories int
	WeightChangeKG      int
	TimeframeMonths     int
	DailyDelta          float64
}

// ComputeTargets derives BMR, TDEE and the daily calorie target.
// The weight change goal only moves the target for weight-loss and muscle-gain.
func ComputeTargets(in Input, answers map[string]any) Targets {
	bmr := BMR(in.Sex, in.WeightKG, in.HeightCM, in.Age)
	tdee := bmr * ActivityFactor(in.ActivityLevel)

	t := Targets{
		BMR:             bmr,
		TDEE:            tdee,
		TimeframeMonths: ExtractTimeframeMonths(answers),
	}
	if in.Objective == WeightLoss || in.Objective == MuscleGain {
		t.WeightChangeKG = ExtractWeightChangeGoal(answers)
	}
	t.DailyDelta = math.Abs(DailyDelta(t.WeightChangeKG, t.TimeframeMonths))

	switch in.Objective {
	case WeightLoss:
		t.TargetDailyCalories = max(int(math.Round(tdee-t.DailyDelta)), MinHealthyCalories(in.Sex))
	case MuscleGain:
		t.TargetDailyCalories = int(math.Round(tdee + t.DailyDelta))
	default:
		t.TargetDailyCalories = int(math.Round(tdee))
	}
	return t
}

// DailyDelta spreads the energy of a weight change over the timeframe (30-day months).
func DailyDelta(weightChangeKG, months int) float64 {
	if months <= 0 {
		months = DefaultTimeframeMonths
	}
	return float64(weightChangeKG) * KcalPerKG / float64(months*30)
}

// MealAllocation is the per-slot calorie budget handed to the prompt.
type MealAllocation struct {
	Breakfast int
	Lunch     int
	Dinner    int
}

// Slot shares of the daily target.
const (
	BreakfastShare = 0.25
	LunchShare     = 0.40
	DinnerShare    = 0.35
)

// Allocate splits the daily target 25/40/35 across breakfast, lunch and dinner.
func Allocate(targetDailyCalories int) MealAllocation {
	t := float64(targetDailyCalories)
	return MealAllocation{
		Breakfast: int(math.Round(t * BreakfastShare)),
		Lunch:     int(math.Round(t * LunchShare)),
		Dinner:    int(math.Round(t * DinnerShare)),
	}
}
