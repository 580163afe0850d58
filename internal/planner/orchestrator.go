package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/shared"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Orchestrator defaults.
const (
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = time.Second
)

// Agent names recorded in metrics.
const (
	MealAgent    = "MealPlanner"
	WorkoutAgent = "WorkoutPlanner"
)

// Metric outcomes for a single generation call.
const (
	OutcomeOK              = "ok"
	OutcomeGenerationError = "generation_error"
	OutcomeParseError      = "parse_error"
	OutcomeValidationError = "validation_error"
)

// OrchestratorConfig tunes the retry loop.
type OrchestratorConfig struct {
	MaxRetries int
	Backoff    time.Duration
	// CallTimeout bounds each remote call. Zero means only the caller's deadline applies.
	CallTimeout time.Duration
}

// Orchestrator drives generate, parse, repair and validate up to MaxRetries
// times and falls back to Synthesize when every attempt fails.
type Orchestrator struct {
	textGen llm.TextGenerator
	cfg     OrchestratorConfig
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(textGen llm.TextGenerator, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}
	return &Orchestrator{textGen: textGen, cfg: cfg}
}

// GenerationResult is the plan pair produced by Run.
type GenerationResult struct {
	Meals    MealPlanData
	Workouts WorkoutPlanData
	Source   Source
	Attempts int
	// LastFailure is the reason the final attempt failed. Nil when Source is generated.
	LastFailure error
	Metas       []shared.AgentMeta
}

type orchestratorState int

const (
	stateAttempting orchestratorState = iota
	stateSucceeded
	stateExhausted
)

type attemptOutcome struct {
	kind     string
	err      error
	meals    MealPlanData
	workouts WorkoutPlanData
	metas    []shared.AgentMeta
}

// Run always returns a usable plan pair. When ctx expires the loop stops and
// the synthesized fallback is returned.
func (o *Orchestrator) Run(ctx context.Context, pc PlanningContext) GenerationResult {
	var res GenerationResult

	mealPrompt, err := BuildMealPrompt(pc)
	if err == nil {
		var workoutPrompt llm.Prompt
		workoutPrompt, err = BuildWorkoutPrompt(pc)
		if err == nil {
			return o.loop(ctx, pc, mealPrompt, workoutPrompt)
		}
	}

	log.Error().Err(err).Str("user", pc.UserID).Msg("failed to build prompts, using fallback plans")
	res.LastFailure = err
	res.Meals, res.Workouts = Synthesize(pc.Targets.TargetDailyCalories, pc.Sex)
	res.Source = SourceFallback
	return res
}

func (o *Orchestrator) loop(ctx context.Context, pc PlanningContext, mealPrompt, workoutPrompt llm.Prompt) GenerationResult {
	var res GenerationResult
	state := stateAttempting
	attempt := 1

	for {
		switch state {
		case stateAttempting:
			out := o.attempt(ctx, attempt, pc.Targets.TargetDailyCalories, mealPrompt, workoutPrompt)
			res.Attempts = attempt
			res.Metas = append(res.Metas, out.metas...)

			if out.kind == OutcomeOK {
				res.Meals, res.Workouts = out.meals, out.workouts
				res.LastFailure = nil
				state = stateSucceeded
				continue
			}

			res.LastFailure = out.err
			log.Warn().Err(out.err).
				Str("user", pc.UserID).
				Int("attempt", attempt).
				Int("max_attempts", o.cfg.MaxRetries).
				Str("outcome", out.kind).
				Msg("plan generation attempt failed")

			if attempt >= o.cfg.MaxRetries || ctx.Err() != nil {
				state = stateExhausted
				continue
			}
			if err := sleep(ctx, o.cfg.Backoff); err != nil {
				state = stateExhausted
				continue
			}
			attempt++

		case stateSucceeded:
			res.Source = SourceGenerated
			log.Info().Str("user", pc.UserID).Int("attempts", res.Attempts).Msg("weekly plans generated")
			return res

		case stateExhausted:
			res.Meals, res.Workouts = Synthesize(pc.Targets.TargetDailyCalories, pc.Sex)
			res.Source = SourceFallback
			log.Warn().Str("user", pc.UserID).Int("attempts", res.Attempts).Msg("generation budget exhausted, using fallback plans")
			return res
		}
	}
}

// attempt runs one generate-parse-repair-validate cycle. The meal and workout
// calls are independent and issued concurrently.
func (o *Orchestrator) attempt(ctx context.Context, n, target int, mealPrompt, workoutPrompt llm.Prompt) attemptOutcome {
	var (
		mealResp, workoutResp llm.ContentResponse
		mealMeta              = shared.AgentMeta{AgentName: MealAgent, Attempt: n, Outcome: OutcomeOK}
		workoutMeta           = shared.AgentMeta{AgentName: WorkoutAgent, Attempt: n, Outcome: OutcomeOK}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mealResp, err = o.call(gctx, mealPrompt, &mealMeta)
		return err
	})
	g.Go(func() error {
		var err error
		workoutResp, err = o.call(gctx, workoutPrompt, &workoutMeta)
		return err
	})
	genErr := g.Wait()

	out := attemptOutcome{}
	finish := func(kind string, err error) attemptOutcome {
		out.kind, out.err = kind, err
		out.metas = []shared.AgentMeta{mealMeta, workoutMeta}
		return out
	}

	if genErr != nil {
		return finish(OutcomeGenerationError, fmt.Errorf("%w: %w", ErrGeneration, genErr))
	}

	meals, mealErr := ParseMealPlan(mealResp.Content)
	workouts, workoutErr := ParseWorkoutPlan(workoutResp.Content)
	if mealErr != nil {
		mealMeta.Outcome = OutcomeParseError
	}
	if workoutErr != nil {
		workoutMeta.Outcome = OutcomeParseError
	}
	if err := errors.Join(mealErr, workoutErr); err != nil {
		return finish(OutcomeParseError, err)
	}

	EnsureCompleteDays(&meals)

	mealErr = ValidateMealStructure(meals)
	if mealErr == nil {
		mealErr = ValidateCalories(meals, target)
	}
	workoutErr = ValidateWorkoutStructure(workouts)
	if mealErr != nil {
		mealMeta.Outcome = OutcomeValidationError
	}
	if workoutErr != nil {
		workoutMeta.Outcome = OutcomeValidationError
	}
	if err := errors.Join(mealErr, workoutErr); err != nil {
		return finish(OutcomeValidationError, err)
	}

	out.meals, out.workouts = meals, workouts
	return finish(OutcomeOK, nil)
}

func (o *Orchestrator) call(ctx context.Context, prompt llm.Prompt, meta *shared.AgentMeta) (llm.ContentResponse, error) {
	if o.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := o.textGen.GenerateContent(ctx, prompt)
	meta.Latency = time.Since(start)
	meta.Usage = resp.Usage
	if err != nil {
		meta.Outcome = OutcomeGenerationError
		return resp, fmt.Errorf("%s: %w", meta.AgentName, err)
	}
	return resp, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
