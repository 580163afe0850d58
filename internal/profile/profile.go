package profile

import (
	"fmt"
	"strings"
	"time"

	"ai-fitness-planner/internal/nutrition"
)

// Profile is the biometric and goal data a plan is generated from.
type Profile struct {
	ID                  string              `yaml:"id" json:"id"`
	Name                string              `yaml:"name" json:"name"`
	Sex                 nutrition.Sex       `yaml:"sex" json:"sex"`
	Age                 int                 `yaml:"age" json:"age"`
	HeightCM            float64             `yaml:"height_cm" json:"heightCm"`
	WeightKG            float64             `yaml:"weight_kg" json:"weightKg"`
	ActivityLevel       string              `yaml:"activity_level" json:"activityLevel"`
	Objective           nutrition.Objective `yaml:"objective" json:"objective"`
	DietaryRestrictions []string            `yaml:"dietary_restrictions" json:"dietaryRestrictions"`
	CreatedAt           time.Time           `yaml:"-" json:"createdAt"`
	UpdatedAt           time.Time           `yaml:"-" json:"updatedAt"`
}

// Normalize maps aliases (e.g. "masculin", "slabire") onto canonical values and
// checks the fields target computation depends on.
func (p *Profile) Normalize() error {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	p.Sex = nutrition.ParseSex(string(p.Sex))

	obj, err := nutrition.ParseObjective(string(p.Objective))
	if err != nil {
		return err
	}
	p.Objective = obj

	if p.Age <= 0 || p.HeightCM <= 0 || p.WeightKG <= 0 {
		return fmt.Errorf("age, height and weight must be positive")
	}
	return nil
}

// NutritionInput converts the profile into the nutrition package's input.
func (p *Profile) NutritionInput() nutrition.Input {
	return nutrition.Input{
		Sex:           p.Sex,
		Age:           p.Age,
		HeightCM:      p.HeightCM,
		WeightKG:      p.WeightKG,
		ActivityLevel: p.ActivityLevel,
		Objective:     p.Objective,
	}
}

// MealLog is a meal the user recorded eating.
type MealLog struct {
	Name     string    `json:"name"`
	MealType string    `json:"mealType,omitempty"`
	Calories int       `json:"calories"`
	LoggedAt time.Time `json:"date"`
}

// WeightEntry is a single weigh-in.
type WeightEntry struct {
	WeightKG   float64   `json:"weight"`
	RecordedAt time.Time `json:"date"`
}
