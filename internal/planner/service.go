package planner

import (
	"context"
	"fmt"
	"time"

	"ai-fitness-planner/internal/nutrition"
	"ai-fitness-planner/internal/profile"
	"ai-fitness-planner/internal/shared"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ProfileStore looks up user profiles. Get returns nil, nil for unknown users.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
}

// ActivityStore provides optional history used to enrich prompts.
type ActivityStore interface {
	RecentMeals(ctx context.Context, userID string, limit int) ([]profile.MealLog, error)
	RecentWeights(ctx context.Context, userID string, limit int) ([]profile.WeightEntry, error)
}

// PlanStore persists generated plans.
type PlanStore interface {
	ReplaceWindow(ctx context.Context, meal *MealPlan, workout *WorkoutPlan) error
	GetMealPlan(ctx context.Context, userID, planID string) (*MealPlan, error)
	GetWorkoutPlan(ctx context.Context, userID, planID string) (*WorkoutPlan, error)
	FindCurrentMealPlan(ctx context.Context, userID string, day time.Time) (*MealPlan, error)
	FindCurrentWorkoutPlan(ctx context.Context, userID string, day time.Time) (*WorkoutPlan, error)
	SetMealStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) (bool, error)
	SetWorkoutStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) (bool, error)
}

// MetricsRecorder receives one record per generation call.
type MetricsRecorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// ServiceConfig holds Service tunables.
type ServiceConfig struct {
	Language string
	// RequestTimeout bounds the whole retry loop of one generation request.
	RequestTimeout time.Duration
}

// Service exposes plan generation, lookup and status updates.
type Service struct {
	profiles     ProfileStore
	activity     ActivityStore
	plans        PlanStore
	orchestrator *Orchestrator
	metrics      MetricsRecorder
	cfg          ServiceConfig
	now          func() time.Time
}

// NewService creates a new Service. activity and metrics may be nil.
func NewService(profiles ProfileStore, activity ActivityStore, plans PlanStore, orchestrator *Orchestrator, metrics MetricsRecorder, cfg ServiceConfig) *Service {
	return &Service{
		profiles:     profiles,
		activity:     activity,
		plans:        plans,
		orchestrator: orchestrator,
		metrics:      metrics,
		cfg:          cfg,
		now:          time.Now,
	}
}

// WeeklyPlans is the result of GenerateWeeklyPlans.
type WeeklyPlans struct {
	MealPlan    *MealPlan
	WorkoutPlan *WorkoutPlan
	Targets     nutrition.Targets
	Attempts    int
}

// CurrentPlans is the result of GetCurrentPlans. Either plan may be nil.
type CurrentPlans struct {
	MealPlan    *MealPlan
	WorkoutPlan *WorkoutPlan
	// CurrentDay is today's index in the plan window, 0 for Sunday.
	CurrentDay int
}

// GenerateWeeklyPlans builds and stores a new meal and workout plan for the
// current week, replacing any plans already stored for that window. Generation
// problems never fail the call: the synthesized fallback is stored instead and
// marked with SourceFallback.
func (s *Service) GenerateWeeklyPlans(ctx context.Context, userID string, answers Questionnaire) (*WeeklyPlans, error) {
	if answers == nil {
		return nil, fmt.Errorf("%w: questionnaire responses are required", ErrInput)
	}

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	targets := nutrition.ComputeTargets(p.NutritionInput(), answers)
	pc := PlanningContext{
		UserID:              p.ID,
		Name:                p.Name,
		Age:                 p.Age,
		Sex:                 p.Sex,
		HeightCM:            p.HeightCM,
		WeightKG:            p.WeightKG,
		ActivityLevel:       p.ActivityLevel,
		Objective:           p.Objective,
		DietaryRestrictions: p.DietaryRestrictions,
		Questionnaire:       answers,
		Targets:             targets,
		Language:            s.cfg.Language,
	}
	pc.RecentMeals, pc.WeightProgress = s.recentActivity(ctx, userID)

	log.Info().
		Str("user", userID).
		Str("objective", string(p.Objective)).
		Int("target_kcal", targets.TargetDailyCalories).
		Msg("generating weekly plans")

	genCtx := ctx
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	res := s.orchestrator.Run(genCtx, pc)
	s.recordMetrics(res.Metas)

	now := s.now()
	start, end := WeekWindow(now)
	meal := &MealPlan{
		ID:             uuid.NewString(),
		UserID:         userID,
		StartDate:      start,
		EndDate:        end,
		Objective:      p.Objective,
		Source:         res.Source,
		Meals:          res.Meals.Meals,
		TotalNutrition: SumMacros(res.Meals.Meals),
		Questionnaire:  answers,
		CreatedAt:      now,
	}
	workout := &WorkoutPlan{
		ID:            uuid.NewString(),
		UserID:        userID,
		StartDate:     start,
		EndDate:       end,
		Objective:     p.Objective,
		Source:        res.Source,
		Workouts:      res.Workouts.Workouts,
		Questionnaire: answers,
		CreatedAt:     now,
	}

	if err := s.plans.ReplaceWindow(ctx, meal, workout); err != nil {
		return nil, fmt.Errorf("failed to save weekly plans: %w", err)
	}

	return &WeeklyPlans{MealPlan: meal, WorkoutPlan: workout, Targets: targets, Attempts: res.Attempts}, nil
}

// GetCurrentPlans returns the plans whose window contains today.
func (s *Service) GetCurrentPlans(ctx context.Context, userID string) (*CurrentPlans, error) {
	now := s.now()
	meal, err := s.plans.FindCurrentMealPlan(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	workout, err := s.plans.FindCurrentWorkoutPlan(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	return &CurrentPlans{MealPlan: meal, WorkoutPlan: workout, CurrentDay: int(now.Weekday())}, nil
}

// UpdateMealStatus sets the completed and skipped flags of one meal.
func (s *Service) UpdateMealStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) (*MealPlan, error) {
	plan, err := s.plans.GetMealPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: meal plan %s", ErrPlanNotFound, planID)
	}
	if index < 0 || index >= len(plan.Meals) {
		return nil, fmt.Errorf("%w: meal %d of %d", ErrIndexOutOfRange, index, len(plan.Meals))
	}

	ok, err := s.plans.SetMealStatus(ctx, userID, planID, index, completed, skipped)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: meal plan %s", ErrPlanNotFound, planID)
	}

	updated, err := s.plans.GetMealPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: meal plan %s", ErrPlanNotFound, planID)
	}
	return updated, nil
}

// UpdateWorkoutStatus sets the completed and skipped flags of one workout.
func (s *Service) UpdateWorkoutStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) (*WorkoutPlan, error) {
	plan, err := s.plans.GetWorkoutPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: workout plan %s", ErrPlanNotFound, planID)
	}
	if index < 0 || index >= len(plan.Workouts) {
		return nil, fmt.Errorf("%w: workout %d of %d", ErrIndexOutOfRange, index, len(plan.Workouts))
	}

	ok, err := s.plans.SetWorkoutStatus(ctx, userID, planID, index, completed, skipped)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: workout plan %s", ErrPlanNotFound, planID)
	}

	updated, err := s.plans.GetWorkoutPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: workout plan %s", ErrPlanNotFound, planID)
	}
	return updated, nil
}

// recentActivity tolerates a missing or failing store by returning empty history.
func (s *Service) recentActivity(ctx context.Context, userID string) ([]profile.MealLog, []profile.WeightEntry) {
	if s.activity == nil {
		return nil, nil
	}
	meals, err := s.activity.RecentMeals(ctx, userID, maxRecentMeals)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("recent meals unavailable")
		meals = nil
	}
	weights, err := s.activity.RecentWeights(ctx, userID, maxWeightEntries)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("weight history unavailable")
		weights = nil
	}
	return meals, weights
}

func (s *Service) recordMetrics(metas []shared.AgentMeta) {
	if s.metrics == nil {
		return
	}
	for _, m := range metas {
		if err := s.metrics.RecordMeta(m); err != nil {
			log.Warn().Err(err).Str("agent", m.AgentName).Msg("failed to record metric")
		}
	}
}
