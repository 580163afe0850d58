package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-fitness-planner/internal/nutrition"
)

// Repository persists profiles and the recent activity used to enrich prompts.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts or updates a profile after normalizing it.
func (r *Repository) Save(ctx context.Context, p *Profile) error {
	if err := p.Normalize(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	restrictions, err := json.Marshal(p.DietaryRestrictions)
	if err != nil {
		return fmt.Errorf("failed to marshal dietary restrictions: %w", err)
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, sex, age, height_cm, weight_kg, activity_level, objective, dietary_restrictions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			sex = excluded.sex,
			age = excluded.age,
			height_cm = excluded.height_cm,
			weight_kg = excluded.weight_kg,
			activity_level = excluded.activity_level,
			objective = excluded.objective,
			dietary_restrictions = excluded.dietary_restrictions,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, string(p.Sex), p.Age, p.HeightCM, p.WeightKG, p.ActivityLevel,
		string(p.Objective), string(restrictions), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.ID, err)
	}
	return nil
}

// Get returns the profile or nil when the user does not exist.
func (r *Repository) Get(ctx context.Context, userID string) (*Profile, error) {
	var (
		p            Profile
		sex, obj     string
		restrictions string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, sex, age, height_cm, weight_kg, activity_level, objective, dietary_restrictions, created_at, updated_at
		FROM users WHERE id = ?`, userID,
	).Scan(&p.ID, &p.Name, &sex, &p.Age, &p.HeightCM, &p.WeightKG, &p.ActivityLevel, &obj, &restrictions, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}
	p.Sex = nutrition.ParseSex(sex)
	if p.Objective, err = nutrition.ParseObjective(obj); err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}
	if restrictions != "" {
		if err := json.Unmarshal([]byte(restrictions), &p.DietaryRestrictions); err != nil {
			return nil, fmt.Errorf("failed to decode dietary restrictions for %s: %w", userID, err)
		}
	}
	return &p, nil
}

// LogMeal records a meal in the user's history.
func (r *Repository) LogMeal(ctx context.Context, userID string, m MealLog) error {
	if m.LoggedAt.IsZero() {
		m.LoggedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_logs (user_id, name, meal_type, calories, logged_at) VALUES (?, ?, ?, ?, ?)`,
		userID, m.Name, m.MealType, m.Calories, m.LoggedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to log meal for %s: %w", userID, err)
	}
	return nil
}

// LogWeight records a weigh-in and updates the profile's current weight.
func (r *Repository) LogWeight(ctx context.Context, userID string, w WeightEntry) error {
	if w.RecordedAt.IsZero() {
		w.RecordedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO weight_entries (user_id, weight_kg, recorded_at) VALUES (?, ?, ?)`,
		userID, w.WeightKG, w.RecordedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to log weight for %s: %w", userID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET weight_kg = ?, updated_at = ? WHERE id = ?`,
		w.WeightKG, time.Now().UTC(), userID,
	); err != nil {
		return fmt.Errorf("failed to update weight for %s: %w", userID, err)
	}
	return tx.Commit()
}

// RecentMeals returns the user's latest meal logs, newest first.
func (r *Repository) RecentMeals(ctx context.Context, userID string, limit int) ([]MealLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, meal_type, calories, logged_at FROM meal_logs
		WHERE user_id = ? ORDER BY logged_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals for %s: %w", userID, err)
	}
	defer rows.Close()

	var meals []MealLog
	for rows.Next() {
		var m MealLog
		if err := rows.Scan(&m.Name, &m.MealType, &m.Calories, &m.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal log: %w", err)
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// RecentWeights returns the user's latest weigh-ins, newest first.
func (r *Repository) RecentWeights(ctx context.Context, userID string, limit int) ([]WeightEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT weight_kg, recorded_at FROM weight_entries
		WHERE user_id = ? ORDER BY recorded_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list weights for %s: %w", userID, err)
	}
	defer rows.Close()

	var weights []WeightEntry
	for rows.Next() {
		var w WeightEntry
		if err := rows.Scan(&w.WeightKG, &w.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weight entry: %w", err)
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}
