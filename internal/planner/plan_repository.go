package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-fitness-planner/internal/nutrition"
)

const dateLayout = "2006-01-02"

// WeekWindow returns the Sunday-aligned plan window containing now:
// Sunday 00:00 through the following Saturday.
func WeekWindow(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	start = midnight.AddDate(0, 0, -int(now.Weekday()))
	return start, start.AddDate(0, 0, DaysPerWeek-1)
}

// PlanRepository is a database-backed repository for meal and workout plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// ReplaceWindow deletes the user's plans inside the new pair's window and
// inserts the pair, all in one transaction.
func (r *PlanRepository) ReplaceWindow(ctx context.Context, meal *MealPlan, workout *WorkoutPlan) error {
	mealsJSON, err := json.Marshal(meal.Meals)
	if err != nil {
		return fmt.Errorf("failed to marshal meals: %w", err)
	}
	totalJSON, err := json.Marshal(meal.TotalNutrition)
	if err != nil {
		return fmt.Errorf("failed to marshal total nutrition: %w", err)
	}
	workoutsJSON, err := json.Marshal(workout.Workouts)
	if err != nil {
		return fmt.Errorf("failed to marshal workouts: %w", err)
	}
	questionnaireJSON, err := json.Marshal(meal.Questionnaire)
	if err != nil {
		return fmt.Errorf("failed to marshal questionnaire: %w", err)
	}

	start, end := meal.StartDate.Format(dateLayout), meal.EndDate.Format(dateLayout)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"meal_plans", "workout_plans"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE user_id = ? AND start_date >= ? AND end_date <= ?`,
			meal.UserID, start, end,
		); err != nil {
			return fmt.Errorf("failed to delete %s in window: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meal_plans (id, user_id, start_date, end_date, objective, source, meals, total_nutrition, questionnaire, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meal.ID, meal.UserID, start, end, string(meal.Objective), string(meal.Source),
		string(mealsJSON), string(totalJSON), string(questionnaireJSON), meal.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert meal plan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO workout_plans (id, user_id, start_date, end_date, objective, source, workouts, questionnaire, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		workout.ID, workout.UserID, workout.StartDate.Format(dateLayout), workout.EndDate.Format(dateLayout),
		string(workout.Objective), string(workout.Source), string(workoutsJSON), string(questionnaireJSON), workout.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert workout plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan replacement: %w", err)
	}
	return nil
}

const (
	mealPlanColumns    = `id, user_id, start_date, end_date, objective, source, meals, total_nutrition, questionnaire, created_at`
	workoutPlanColumns = `id, user_id, start_date, end_date, objective, source, workouts, questionnaire, created_at`
)

// GetMealPlan returns the plan if it exists and belongs to userID, otherwise nil.
func (r *PlanRepository) GetMealPlan(ctx context.Context, userID, planID string) (*MealPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+mealPlanColumns+` FROM meal_plans WHERE id = ? AND user_id = ?`, planID, userID)
	return scanMealPlan(row)
}

// GetWorkoutPlan returns the plan if it exists and belongs to userID, otherwise nil.
func (r *PlanRepository) GetWorkoutPlan(ctx context.Context, userID, planID string) (*WorkoutPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+workoutPlanColumns+` FROM workout_plans WHERE id = ? AND user_id = ?`, planID, userID)
	return scanWorkoutPlan(row)
}

// FindCurrentMealPlan returns the newest meal plan whose window contains day, or nil.
func (r *PlanRepository) FindCurrentMealPlan(ctx context.Context, userID string, day time.Time) (*MealPlan, error) {
	d := day.Format(dateLayout)
	row := r.db.QueryRowContext(ctx, `SELECT `+mealPlanColumns+` FROM meal_plans
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY created_at DESC LIMIT 1`, userID, d, d)
	return scanMealPlan(row)
}

// FindCurrentWorkoutPlan returns the newest workout plan whose window contains day, or nil.
func (r *PlanRepository) FindCurrentWorkoutPlan(ctx context.Context, userID string, day time.Time) (*WorkoutPlan, error) {
	d := day.Format(dateLayout)
	row := r.db.QueryRowContext(ctx, `SELECT `+workoutPlanColumns+` FROM workout_plans
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY created_at DESC LIMIT 1`, userID, d, d)
	return scanWorkoutPlan(row)
}

// SetMealStatus updates the completed/skipped flags of one meal in place.
// It reports false when the plan or the index does not exist.
func (r *PlanRepository) SetMealStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) (bool, error) {
	return r.setStatus(ctx, "meal_plans", "meals", userID, planID, index, completed, skipped)
}

// SetWorkoutStatus updates the completed/skipped flags of one workout in place.
// It reports false when the plan or the index does not exist.
func (r *PlanRepository) SetWorkoutStatus(ctx context.Context, userID, planID string, index int, completed, skipped bool) (bool, error) {
	return r.setStatus(ctx, "workout_plans", "workouts", userID, planID, index, completed, skipped)
}

// setStatus edits only the two flags of a single array element, so concurrent
// toggles on other entries are never overwritten.
func (r *PlanRepository) setStatus(ctx context.Context, table, column, userID, planID string, index int, completed, skipped bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET `+column+` = json_set(`+column+`, '$['||?1||'].completed', json(?2), '$['||?1||'].skipped', json(?3))
		WHERE id = ?4 AND user_id = ?5 AND ?1 >= 0 AND ?1 < json_array_length(`+column+`)`,
		index, jsonBool(completed), jsonBool(skipped), planID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update %s status: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func jsonBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMealPlan(row rowScanner) (*MealPlan, error) {
	var (
		p                           MealPlan
		start, end, obj, src        string
		meals, total, questionnaire string
	)
	err := row.Scan(&p.ID, &p.UserID, &start, &end, &obj, &src, &meals, &total, &questionnaire, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan meal plan: %w", err)
	}
	if err := fillCommon(&p.StartDate, &p.EndDate, &p.Objective, &p.Source, &p.Questionnaire, start, end, obj, src, questionnaire); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meals), &p.Meals); err != nil {
		return nil, fmt.Errorf("failed to decode meals of plan %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(total), &p.TotalNutrition); err != nil {
		return nil, fmt.Errorf("failed to decode total nutrition of plan %s: %w", p.ID, err)
	}
	return &p, nil
}

func scanWorkoutPlan(row rowScanner) (*WorkoutPlan, error) {
	var (
		p                       WorkoutPlan
		start, end, obj, src    string
		workouts, questionnaire string
	)
	err := row.Scan(&p.ID, &p.UserID, &start, &end, &obj, &src, &workouts, &questionnaire, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan workout plan: %w", err)
	}
	if err := fillCommon(&p.StartDate, &p.EndDate, &p.Objective, &p.Source, &p.Questionnaire, start, end, obj, src, questionnaire); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(workouts), &p.Workouts); err != nil {
		return nil, fmt.Errorf("failed to decode workouts of plan %s: %w", p.ID, err)
	}
	return &p, nil
}

func fillCommon(startDst, endDst *time.Time, objDst *nutrition.Objective, srcDst *Source, qDst *Questionnaire, start, end, obj, src, questionnaire string) error {
	var err error
	if *startDst, err = time.ParseInLocation(dateLayout, start, time.Local); err != nil {
		return fmt.Errorf("failed to parse start date %q: %w", start, err)
	}
	if *endDst, err = time.ParseInLocation(dateLayout, end, time.Local); err != nil {
		return fmt.Errorf("failed to parse end date %q: %w", end, err)
	}
	*objDst = nutrition.Objective(obj)
	*srcDst = Source(src)
	if questionnaire != "" {
		if err := json.Unmarshal([]byte(questionnaire), qDst); err != nil {
			return fmt.Errorf("failed to decode questionnaire: %w", err)
		}
	}
	return nil
}
