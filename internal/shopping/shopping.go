// Package shopping turns the remaining meals of a plan into a shopping list.
package shopping

import (
	"sort"
	"strings"

	"ai-fitness-planner/internal/planner"
)

// Item is one ingredient line and how many meals need it.
type Item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// List is the shopping list for part of a plan window.
type List struct {
	MealPlanID string `json:"mealPlanId"`
	FromDay    int    `json:"fromDay"`
	Items      []Item `json:"items"`
}

// Build collects the ingredients of every meal on or after fromDay that is
// neither completed nor skipped. Identical lines (case-insensitive) are merged.
func Build(plan *planner.MealPlan, fromDay int) List {
	list := List{MealPlanID: plan.ID, FromDay: fromDay}

	index := make(map[string]int)
	for _, m := range plan.Meals {
		if m.Day < fromDay || m.Completed || m.Skipped {
			continue
		}
		for _, ing := range m.Ingredients {
			name := strings.Join(strings.Fields(ing), " ")
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if i, ok := index[key]; ok {
				list.Items[i].Count++
				continue
			}
			index[key] = len(list.Items)
			list.Items = append(list.Items, Item{Name: name, Count: 1})
		}
	}

	sort.SliceStable(list.Items, func(i, j int) bool {
		return strings.ToLower(list.Items[i].Name) < strings.ToLower(list.Items[j].Name)
	})
	return list
}
