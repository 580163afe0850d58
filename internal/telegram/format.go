package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ai-fitness-planner/internal/metrics"
	"ai-fitness-planner/internal/nutrition"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"
	"ai-fitness-planner/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `🏋️ *Fitness Planner*

/profile - show or set your profile
/weight 72.5 - record a weigh-in
/plan - create this week's meal and workout plans
/today - today's meals and workout with done/skip buttons
/week - overview of the whole week
/shopping - ingredients for the rest of the week
/cancel - abort the current questionnaire`

const profileUsage = "Set your profile with:\n`/profile sex=female age=31 height=168 weight=64.5 activity=moderate goal=weight-loss restrictions=lactose,nuts`\n\n" +
	"activity: sedentary, light, moderate, active, very-active\ngoal: weight-loss, muscle-gain, maintenance"

const timeframeQuestion = "⏳ In how much time do you want to get there? (e.g. _3 months_)"

func weightGoalQuestion(obj nutrition.Objective) string {
	if obj == nutrition.MuscleGain {
		return "💪 How many kilograms do you want to gain? (e.g. _4 kg_)"
	}
	return "⚖️ How many kilograms do you want to lose? (e.g. _5 kg_)"
}

// parseProfileArgs reads key=value pairs from a /profile command.
func parseProfileArgs(userID, name, args string) (*profile.Profile, error) {
	p := &profile.Profile{ID: userID, Name: name}
	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok || value == "" {
			return nil, fmt.Errorf("expected key=value, got %q", field)
		}
		var err error
		switch strings.ToLower(key) {
		case "sex", "gender":
			p.Sex = nutrition.Sex(value)
		case "age":
			p.Age, err = strconv.Atoi(value)
		case "height":
			p.HeightCM, err = parseNumber(value)
		case "weight":
			p.WeightKG, err = parseNumber(value)
		case "activity":
			p.ActivityLevel = strings.ReplaceAll(value, "_", "-")
		case "goal", "objective":
			p.Objective = nutrition.Objective(value)
		case "restrictions":
			for _, r := range strings.Split(value, ",") {
				if r = strings.TrimSpace(r); r != "" {
					p.DietaryRestrictions = append(p.DietaryRestrictions, r)
				}
			}
		default:
			return nil, fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", key, value)
		}
	}
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

func formatProfile(p *profile.Profile) string {
	var sb strings.Builder
	sb.WriteString("👤 *Your profile*\n")
	fmt.Fprintf(&sb, "• Sex: %s\n• Age: %d\n• Height: %.0f cm\n• Weight: %.1f kg\n", p.Sex, p.Age, p.HeightCM, p.WeightKG)
	if p.ActivityLevel != "" {
		fmt.Fprintf(&sb, "• Activity: %s\n", escape(p.ActivityLevel))
	}
	fmt.Fprintf(&sb, "• Goal: %s\n", p.Objective)
	if len(p.DietaryRestrictions) > 0 {
		fmt.Fprintf(&sb, "• Avoid: %s\n", escape(strings.Join(p.DietaryRestrictions, ", ")))
	}
	return sb.String()
}

func formatWeeklySummary(plans *planner.WeeklyPlans) string {
	var sb strings.Builder
	sb.WriteString("📅 *Your week is ready*\n")
	fmt.Fprintf(&sb, "%s to %s\n\n", plans.MealPlan.StartDate.Format("Jan 2"), plans.MealPlan.EndDate.Format("Jan 2"))
	fmt.Fprintf(&sb, "🎯 Daily target: *%d kcal*\n", plans.Targets.TargetDailyCalories)

	alloc := nutrition.Allocate(plans.Targets.TargetDailyCalories)
	fmt.Fprintf(&sb, "Breakfast %d · Lunch %d · Dinner %d\n", alloc.Breakfast, alloc.Lunch, alloc.Dinner)

	total := plans.MealPlan.TotalNutrition
	fmt.Fprintf(&sb, "Week total: %d kcal, %dg protein, %dg carbs, %dg fat\n", total.Calories, total.Protein, total.Carbs, total.Fat)
	fmt.Fprintf(&sb, "\n🍽 %d meals · 🏋️ %d workouts\n", len(plans.MealPlan.Meals), len(plans.WorkoutPlan.Workouts))

	if plans.MealPlan.Source == planner.SourceFallback {
		sb.WriteString("\nℹ️ _The AI planner was unavailable, so this is a standard plan sized to your target. Send /plan later to try again._\n")
	}
	sb.WriteString("\nSend /today to start tracking.")
	return sb.String()
}

func dayName(day int) string {
	return time.Weekday(day).String()
}

func statusMark(completed, skipped bool) string {
	switch {
	case completed:
		return "✅"
	case skipped:
		return "⏭️"
	default:
		return "▫️"
	}
}

// formatToday renders today's entries. The keyboard is nil when there is nothing to track.
func formatToday(current *planner.CurrentPlans) (string, *tgbotapi.InlineKeyboardMarkup) {
	if current.MealPlan == nil && current.WorkoutPlan == nil {
		return "You have no plans for this week yet. Send /plan to create them.", nil
	}

	var (
		sb   strings.Builder
		rows [][]tgbotapi.InlineKeyboardButton
	)
	fmt.Fprintf(&sb, "📆 *%s*\n", dayName(current.CurrentDay))

	if mp := current.MealPlan; mp != nil {
		idx, meals := mp.MealsForDay(current.CurrentDay)
		sb.WriteString("\n🍽 *Meals*\n")
		for i, m := range meals {
			fmt.Fprintf(&sb, "%s *%s*: %s (%d kcal)\n", statusMark(m.Completed, m.Skipped), mealLabel(m.MealType), escape(m.Name), m.Macros.Calories)
			fmt.Fprintf(&sb, "    P %dg · C %dg · F %dg\n", m.Macros.Protein, m.Macros.Carbs, m.Macros.Fat)
			rows = append(rows, statusRow(kindMeal, mealLabel(m.MealType), mp.ID, idx[i]))
		}
	}

	if wp := current.WorkoutPlan; wp != nil {
		idx, workouts := wp.WorkoutsForDay(current.CurrentDay)
		sb.WriteString("\n🏋️ *Workout*\n")
		for i, w := range workouts {
			fmt.Fprintf(&sb, "%s *%s* (%d min, %s)\n", statusMark(w.Completed, w.Skipped), escape(w.Name), w.Duration, w.Intensity)
			for _, e := range w.Exercises {
				fmt.Fprintf(&sb, "    • %s %dx%s\n", escape(e.Name), e.Sets, escape(e.Reps))
			}
			rows = append(rows, statusRow(kindWorkout, "Workout", wp.ID, idx[i]))
		}
	}

	if len(rows) == 0 {
		return sb.String(), nil
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return sb.String(), &keyboard
}

func statusRow(kind, label, planID string, index int) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ "+label, callbackAction{Kind: kind, Status: statusDone, PlanID: planID, Index: index}.String()),
		tgbotapi.NewInlineKeyboardButtonData("⏭️ Skip", callbackAction{Kind: kind, Status: statusSkip, PlanID: planID, Index: index}.String()),
	)
}

func mealLabel(mt planner.MealType) string {
	switch mt {
	case planner.Breakfast:
		return "Breakfast"
	case planner.Lunch:
		return "Lunch"
	case planner.Dinner:
		return "Dinner"
	}
	return string(mt)
}

func formatWeek(current *planner.CurrentPlans) string {
	if current.MealPlan == nil && current.WorkoutPlan == nil {
		return "You have no plans for this week yet. Send /plan to create them."
	}

	var sb strings.Builder
	sb.WriteString("🗓 *This week*\n")
	for day := 0; day < planner.DaysPerWeek; day++ {
		marker := ""
		if day == current.CurrentDay {
			marker = " 👈"
		}
		fmt.Fprintf(&sb, "\n*%s*%s\n", dayName(day), marker)

		if current.MealPlan != nil {
			_, meals := current.MealPlan.MealsForDay(day)
			kcal := 0
			for _, m := range meals {
				kcal += m.Macros.Calories
				fmt.Fprintf(&sb, "%s %s\n", statusMark(m.Completed, m.Skipped), escape(m.Name))
			}
			if len(meals) > 0 {
				fmt.Fprintf(&sb, "    %d kcal\n", kcal)
			}
		}
		if current.WorkoutPlan != nil {
			_, workouts := current.WorkoutPlan.WorkoutsForDay(day)
			for _, w := range workouts {
				fmt.Fprintf(&sb, "%s 🏋️ %s (%d min)\n", statusMark(w.Completed, w.Skipped), escape(w.Name), w.Duration)
			}
		}
	}
	return sb.String()
}

func formatShoppingList(list shopping.List) string {
	if len(list.Items) == 0 {
		return "🛒 Nothing left to buy this week."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 *Shopping list* (%s to Saturday)\n\n", dayName(list.FromDay))
	for _, it := range list.Items {
		if it.Count > 1 {
			fmt.Fprintf(&sb, "• %s (×%d)\n", escape(it.Name), it.Count)
			continue
		}
		fmt.Fprintf(&sb, "• %s\n", escape(it.Name))
	}
	return sb.String()
}

func formatMetricsReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d calls, %d failed)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.Failures)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Database: %s\n", health.DatabaseSize)
	return sb.String()
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
