package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/database"
	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/metrics"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"
	"ai-fitness-planner/internal/shopping"
	"ai-fitness-planner/internal/telegram"

	"github.com/rs/zerolog/log"
)

// App holds the application's dependencies.
type App struct {
	cfg      *config.Config
	db       *database.DB
	profiles *profile.Repository
	plans    *planner.PlanRepository
	metrics  *metrics.Store
	sessions *telegram.SessionRepository
	service  *planner.Service
	out      io.Writer

	closers []func() error
}

// New opens the database, builds the configured text generator and wires the
// plan service. Close releases both.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	textGen, closeGen, err := llm.NewTextGenerator(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create text generator: %w", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		closeGen()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := newApp(cfg, db, textGen, os.Stdout)
	a.closers = append(a.closers, closeGen, db.Close)
	return a, nil
}

func newApp(cfg *config.Config, db *database.DB, textGen llm.TextGenerator, out io.Writer) *App {
	profiles := profile.NewRepository(db.SQL)
	plans := planner.NewPlanRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	orchestrator := planner.NewOrchestrator(textGen, planner.OrchestratorConfig{
		MaxRetries:  cfg.PlanMaxRetries,
		Backoff:     cfg.PlanRetryBackoff,
		CallTimeout: cfg.GenerationTimeout,
	})
	service := planner.NewService(profiles, profiles, plans, orchestrator, metricsStore, planner.ServiceConfig{
		Language:       cfg.PlanLanguage,
		RequestTimeout: cfg.PlanRequestTimeout,
	})

	return &App{
		cfg:      cfg,
		db:       db,
		profiles: profiles,
		plans:    plans,
		metrics:  metricsStore,
		sessions: telegram.NewSessionRepository(db.SQL),
		service:  service,
		out:      out,
	}
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// NewTelegramBot builds the bot on top of the app's service and stores.
func (a *App) NewTelegramBot() (*telegram.Bot, error) {
	return telegram.NewBot(a.cfg, a.service, a.profiles, a.sessions, a.metrics)
}

// CleanupSessions removes expired bot sessions.
func (a *App) CleanupSessions(ctx context.Context) (int64, error) {
	return a.sessions.CleanupExpired(ctx, time.Now())
}

// SetProfile creates or updates a user profile.
func (a *App) SetProfile(ctx context.Context, p *profile.Profile) error {
	if err := a.profiles.Save(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Profile %s saved (%s, %d y, %.0f cm, %.1f kg, goal %s).\n", p.ID, p.Sex, p.Age, p.HeightCM, p.WeightKG, p.Objective)
	return nil
}

// LogMeal records a meal in the user's history.
func (a *App) LogMeal(ctx context.Context, userID string, m profile.MealLog) error {
	if m.LoggedAt.IsZero() {
		m.LoggedAt = time.Now()
	}
	if err := a.profiles.LogMeal(ctx, userID, m); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged %q (%d kcal).\n", m.Name, m.Calories)
	return nil
}

// LogWeight records a weigh-in and updates the profile weight.
func (a *App) LogWeight(ctx context.Context, userID string, kg float64) error {
	if err := a.profiles.LogWeight(ctx, userID, profile.WeightEntry{WeightKG: kg, RecordedAt: time.Now()}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recorded %.1f kg.\n", kg)
	return nil
}

// GenerateWeeklyPlans creates this week's plans and prints them.
func (a *App) GenerateWeeklyPlans(ctx context.Context, userID string, answers planner.Questionnaire) error {
	fmt.Fprintf(a.out, "Generating weekly plans for %s...\n", userID)

	plans, err := a.service.GenerateWeeklyPlans(ctx, userID, answers)
	if err != nil {
		return fmt.Errorf("failed to generate plans: %w", err)
	}

	t := plans.Targets
	fmt.Fprintf(a.out, "\nBMR %.0f kcal, TDEE %.0f kcal, daily target %d kcal\n", t.BMR, t.TDEE, t.TargetDailyCalories)
	if plans.MealPlan.Source == planner.SourceFallback {
		fmt.Fprintf(a.out, "NOTE: generation failed after %d attempts, a standard plan was stored instead.\n", plans.Attempts)
	}
	a.printPlans(plans.MealPlan, plans.WorkoutPlan, -1)
	return nil
}

// ShowCurrentPlans prints this week's plans, or writes them as JSON.
func (a *App) ShowCurrentPlans(ctx context.Context, userID string, asJSON bool) error {
	current, err := a.service.GetCurrentPlans(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load current plans: %w", err)
	}
	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(current)
	}
	if current.MealPlan == nil && current.WorkoutPlan == nil {
		fmt.Fprintln(a.out, "No plans for this week.")
		return nil
	}
	a.printPlans(current.MealPlan, current.WorkoutPlan, current.CurrentDay)
	return nil
}

// PrintShoppingList prints the ingredients of the meals not yet eaten or
// skipped, from today on unless all is set.
func (a *App) PrintShoppingList(ctx context.Context, userID string, all bool) error {
	current, err := a.service.GetCurrentPlans(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load current plans: %w", err)
	}
	if current.MealPlan == nil {
		fmt.Fprintln(a.out, "No meal plan for this week.")
		return nil
	}
	from := current.CurrentDay
	if all {
		from = 0
	}
	list := shopping.Build(current.MealPlan, from)
	if len(list.Items) == 0 {
		fmt.Fprintln(a.out, "Nothing left to buy.")
		return nil
	}
	for _, it := range list.Items {
		fmt.Fprintf(a.out, "- %s", it.Name)
		if it.Count > 1 {
			fmt.Fprintf(a.out, " (x%d)", it.Count)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// UpdateMealStatus sets the completed/skipped flags of one meal.
func (a *App) UpdateMealStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) error {
	plan, err := a.service.UpdateMealStatus(ctx, userID, planID, index, completed, skipped)
	if err != nil {
		return err
	}
	m := plan.Meals[index]
	fmt.Fprintf(a.out, "%s %s: %s\n", mark(m.Completed, m.Skipped), time.Weekday(m.Day), m.Name)
	return nil
}

// UpdateWorkoutStatus sets the completed/skipped flags of one workout.
func (a *App) UpdateWorkoutStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) error {
	plan, err := a.service.UpdateWorkoutStatus(ctx, userID, planID, index, completed, skipped)
	if err != nil {
		return err
	}
	w := plan.Workouts[index]
	fmt.Fprintf(a.out, "%s %s: %s\n", mark(w.Completed, w.Skipped), time.Weekday(w.Day), w.Name)
	return nil
}

// PrintMetrics prints daily token usage and process health.
func (a *App) PrintMetrics(days int) error {
	usage, err := a.metrics.GetDailyUsage(days)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "=== LLM USAGE (last %d days) ===\n", days)
	if len(usage) == 0 {
		fmt.Fprintln(a.out, "No data yet.")
	}
	for _, d := range usage {
		fmt.Fprintf(a.out, "%s  prompt %7d  completion %7d  calls %3d  failed %3d\n",
			d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution, d.Failures)
	}

	h := metrics.GetSysHealth(a.cfg.DatabasePath)
	fmt.Fprintln(a.out, "\n=== HEALTH ===")
	fmt.Fprintf(a.out, "RAM %d MB alloc / %d MB sys, %d GCs, %d goroutines, database %s\n",
		h.AllocMB, h.SysMB, h.NumGC, h.Goroutines, h.DatabaseSize)
	return nil
}

// CleanupMetrics removes metric records older than days.
func (a *App) CleanupMetrics(days int) error {
	affected, err := a.metrics.Cleanup(days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	log.Info().Int64("removed", affected).Int("days", days).Msg("metrics cleanup finished")
	fmt.Fprintf(a.out, "Successfully removed %d old metric records.\n", affected)
	return nil
}

func (a *App) printPlans(meal *planner.MealPlan, workout *planner.WorkoutPlan, today int) {
	if meal != nil {
		fmt.Fprintf(a.out, "\n=== WEEKLY MEAL PLAN %s (%s to %s, %s) ===\n",
			meal.ID, meal.StartDate.Format("2006-01-02"), meal.EndDate.Format("2006-01-02"), meal.Source)
		for i, m := range meal.Meals {
			fmt.Fprintf(a.out, "%s [%2d] %-9s %-9s %4d kcal  %s\n",
				mark(m.Completed, m.Skipped), i, dayLabel(m.Day, today), m.MealType, m.Macros.Calories, m.Name)
		}
		t := meal.TotalNutrition
		fmt.Fprintf(a.out, "Total: %d kcal, %dg protein, %dg carbs, %dg fat\n", t.Calories, t.Protein, t.Carbs, t.Fat)
	}
	if workout != nil {
		fmt.Fprintf(a.out, "\n=== WEEKLY WORKOUT PLAN %s (%s) ===\n", workout.ID, workout.Source)
		for i, w := range workout.Workouts {
			fmt.Fprintf(a.out, "%s [%d] %-9s %s (%d min, %s)\n",
				mark(w.Completed, w.Skipped), i, dayLabel(w.Day, today), w.Name, w.Duration, w.Intensity)
			names := make([]string, 0, len(w.Exercises))
			for _, e := range w.Exercises {
				names = append(names, fmt.Sprintf("%s %dx%s", e.Name, e.Sets, e.Reps))
			}
			fmt.Fprintf(a.out, "        %s\n", strings.Join(names, "; "))
		}
	}
}

func dayLabel(day, today int) string {
	label := time.Weekday(day).String()[:3]
	if day == today {
		label += "*"
	}
	return label
}

func mark(completed, skipped bool) string {
	switch {
	case completed:
		return "[x]"
	case skipped:
		return "[-]"
	default:
		return "[ ]"
	}
}
