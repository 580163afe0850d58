package planner

import (
	"sort"
	"strings"
)

// Daily calories must land within this band around the target.
const (
	CalorieLowerBound = 0.85
	CalorieUpperBound = 1.15
)

// ValidateMealStructure checks that every entry is fully populated and that the
// plan carries a complete totalNutrition. It returns nil when the plan is valid.
func ValidateMealStructure(p MealPlanData) error {
	if len(p.Meals) == 0 {
		return invalid("meal", "no meal entries")
	}
	for i, m := range p.Meals {
		if len(m.missing) > 0 {
			return invalid("meal", "entry %d missing %s", i, strings.Join(m.missing, ", "))
		}
		if len(m.Macros.missing) > 0 {
			return invalid("meal", "entry %d macros missing %s", i, strings.Join(m.Macros.missing, ", "))
		}
		if m.Day < 0 || m.Day >= DaysPerWeek {
			return invalid("meal", "entry %d has day %d", i, m.Day)
		}
		if m.MealType.Slot() < 0 {
			return invalid("meal", "entry %d has meal type %q", i, m.MealType)
		}
		if strings.TrimSpace(m.Name) == "" {
			return invalid("meal", "entry %d has an empty name", i)
		}
		if len(m.Ingredients) == 0 {
			return invalid("meal", "entry %d has no ingredients", i)
		}
	}
	if p.TotalNutrition == nil {
		return invalid("meal", "totalNutrition missing")
	}
	if len(p.TotalNutrition.missing) > 0 {
		return invalid("meal", "totalNutrition missing %s", strings.Join(p.TotalNutrition.missing, ", "))
	}
	return nil
}

// ValidateCalories groups meals by day and requires at least seven days, each
// summing to within [0.85, 1.15] of target. Per-macro bounds are not checked.
func ValidateCalories(p MealPlanData, targetDailyCalories int) error {
	perDay := make(map[int]int)
	for _, m := range p.Meals {
		perDay[m.Day] += m.Macros.Calories
	}
	if len(perDay) < DaysPerWeek {
		return invalid("meal", "only %d days present", len(perDay))
	}

	days := make([]int, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Ints(days)

	lo := float64(targetDailyCalories) * CalorieLowerBound
	hi := float64(targetDailyCalories) * CalorieUpperBound
	for _, d := range days {
		total := float64(perDay[d])
		if total < lo || total > hi {
			return invalid("meal", "day %d totals %d kcal, outside %.0f-%.0f", d, perDay[d], lo, hi)
		}
	}
	return nil
}

// ValidateWorkoutStructure checks required workout fields and that every day of
// the week has at least one entry.
func ValidateWorkoutStructure(p WorkoutPlanData) error {
	if len(p.Workouts) == 0 {
		return invalid("workout", "no workout entries")
	}
	var covered [DaysPerWeek]bool
	for i, w := range p.Workouts {
		if len(w.missing) > 0 {
			return invalid("workout", "entry %d missing %s", i, strings.Join(w.missing, ", "))
		}
		if w.Day < 0 || w.Day >= DaysPerWeek {
			return invalid("workout", "entry %d has day %d", i, w.Day)
		}
		if strings.TrimSpace(w.Name) == "" || strings.TrimSpace(w.Description) == "" {
			return invalid("workout", "entry %d has an empty name or description", i)
		}
		if len(w.Exercises) == 0 {
			return invalid("workout", "entry %d has no exercises", i)
		}
		for j, e := range w.Exercises {
			if len(e.missing) > 0 {
				return invalid("workout", "entry %d exercise %d missing %s", i, j, strings.Join(e.missing, ", "))
			}
			if strings.TrimSpace(e.Name) == "" {
				return invalid("workout", "entry %d exercise %d has an empty name", i, j)
			}
		}
		covered[w.Day] = true
	}
	for d, ok := range covered {
		if !ok {
			return invalid("workout", "day %d has no workout", d)
		}
	}
	return nil
}
