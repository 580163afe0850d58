package planner

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

var defaultMeals = map[MealType]MealEntry{
	Breakfast: {
		MealType:    Breakfast,
		Name:        "Vegetable omelette",
		Description: "Fluffy egg omelette with peppers, spinach and tomatoes.",
		Recipe:      "Whisk the eggs, sauté the vegetables for 3 minutes, pour the eggs over and cook on low heat until set.",
		Ingredients: []string{"3 eggs", "1 bell pepper", "1 handful spinach", "1 tomato", "1 tsp olive oil"},
		Macros:      Macros{Calories: 350, Protein: 25, Carbs: 10, Fat: 24},
	},
	Lunch: {
		MealType:    Lunch,
		Name:        "Chicken breast salad",
		Description: "Grilled chicken on mixed greens with a light vinaigrette.",
		Recipe:      "Grill the seasoned chicken for 6 minutes per side, slice and serve over the greens with the dressing.",
		Ingredients: []string{"150 g chicken breast", "mixed greens", "1 cucumber", "cherry tomatoes", "1 tbsp olive oil", "lemon juice"},
		Macros:      Macros{Calories: 400, Protein: 40, Carbs: 15, Fat: 20},
	},
	Dinner: {
		MealType:    Dinner,
		Name:        "Baked fish with vegetables",
		Description: "Oven-baked white fish with a tray of roasted vegetables.",
		Recipe:      "Bake the fish and chopped vegetables at 200°C for 20 minutes, season with lemon and herbs.",
		Ingredients: []string{"180 g white fish fillet", "1 zucchini", "1 carrot", "1 red onion", "1 tbsp olive oil", "lemon", "herbs"},
		Macros:      Macros{Calories: 450, Protein: 35, Carbs: 20, Fat: 25},
	},
}

// EnsureCompleteDays rewrites p.Meals to exactly one entry per (day, meal type),
// ordered by day then slot, and recomputes TotalNutrition from the entries.
// Entries outside the grid and duplicate slots are dropped. Gaps are filled by
// cloning the first entry of the same meal type, or a built-in default.
func EnsureCompleteDays(p *MealPlanData) {
	var (
		grid    [DaysPerWeek][3]*MealEntry
		first   [3]*MealEntry
		dropped int
		filled  int
	)
	for i := range p.Meals {
		m := p.Meals[i]
		slot := m.MealType.Slot()
		if slot < 0 || m.Day < 0 || m.Day >= DaysPerWeek || grid[m.Day][slot] != nil {
			dropped++
			continue
		}
		grid[m.Day][slot] = &m
		if first[slot] == nil {
			first[slot] = &m
		}
	}

	meals := make([]MealEntry, 0, DaysPerWeek*len(MealTypes))
	for day := 0; day < DaysPerWeek; day++ {
		for slot, mt := range MealTypes {
			if m := grid[day][slot]; m != nil {
				meals = append(meals, *m)
				continue
			}
			filled++
			var fill MealEntry
			if src := first[slot]; src != nil {
				fill = src.clone()
				fill.Name = fmt.Sprintf("%s (variant for day %d)", src.Name, day+1)
			} else {
				fill = defaultMeals[mt].clone()
			}
			fill.Day = day
			fill.Completed, fill.Skipped = false, false
			meals = append(meals, fill)
		}
	}

	if dropped > 0 || filled > 0 {
		log.Debug().Int("dropped", dropped).Int("filled", filled).Msg("meal plan completed")
	}

	p.Meals = meals
	total := SumMacros(meals)
	p.TotalNutrition = &total
}
