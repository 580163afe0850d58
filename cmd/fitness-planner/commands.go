package main

import (
	"fmt"
	"os"

	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *cli) newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage user profiles and activity history",
	}

	var file string
	set := &cobra.Command{
		Use:   "set",
		Short: "Create or update a profile from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p profile.Profile
			if err := readYAML(file, &p); err != nil {
				return err
			}
			return c.app.SetProfile(cmd.Context(), &p)
		},
	}
	set.Flags().StringVarP(&file, "file", "f", "", "profile YAML file")
	_ = set.MarkFlagRequired("file")

	var (
		mealUser string
		meal     profile.MealLog
	)
	logMeal := &cobra.Command{
		Use:   "log-meal",
		Short: "Record a meal the user ate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.LogMeal(cmd.Context(), mealUser, meal)
		},
	}
	logMeal.Flags().StringVar(&mealUser, "user", "", "user ID")
	logMeal.Flags().StringVar(&meal.Name, "name", "", "meal name")
	logMeal.Flags().StringVar(&meal.MealType, "type", "", "breakfast, lunch, dinner or snack")
	logMeal.Flags().IntVar(&meal.Calories, "calories", 0, "calories in kcal")
	_ = logMeal.MarkFlagRequired("user")
	_ = logMeal.MarkFlagRequired("name")

	var (
		weightUser string
		kg         float64
	)
	logWeight := &cobra.Command{
		Use:   "log-weight",
		Short: "Record a weigh-in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kg <= 0 {
				return fmt.Errorf("--kg must be positive")
			}
			return c.app.LogWeight(cmd.Context(), weightUser, kg)
		},
	}
	logWeight.Flags().StringVar(&weightUser, "user", "", "user ID")
	logWeight.Flags().Float64Var(&kg, "kg", 0, "body weight in kg")
	_ = logWeight.MarkFlagRequired("user")
	_ = logWeight.MarkFlagRequired("kg")

	cmd.AddCommand(set, logMeal, logWeight)
	return cmd
}

func (c *cli) newGenerateCommand() *cobra.Command {
	var userID, answersFile string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate this week's meal and workout plans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			answers := planner.Questionnaire{}
			if answersFile != "" {
				if err := readYAML(answersFile, &answers); err != nil {
					return err
				}
			}
			return c.app.GenerateWeeklyPlans(cmd.Context(), userID, answers)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVarP(&answersFile, "answers", "a", "", "questionnaire answers YAML file (weight_goal, timeframe_goal, ...)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) newCurrentCommand() *cobra.Command {
	var (
		userID string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the plans covering today",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.ShowCurrentPlans(cmd.Context(), userID, asJSON)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) newShoppingCommand() *cobra.Command {
	var (
		userID string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "shopping",
		Short: "List the ingredients still needed this week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.PrintShoppingList(cmd.Context(), userID, all)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().BoolVar(&all, "all", false, "include days already past")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) newStatusCommand(use, short string) *cobra.Command {
	var (
		userID, planID     string
		index              int
		completed, skipped bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if use == "meal-status" {
				return c.app.UpdateMealStatus(cmd.Context(), userID, planID, index, completed, skipped)
			}
			return c.app.UpdateWorkoutStatus(cmd.Context(), userID, planID, index, completed, skipped)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&planID, "plan", "", "plan ID")
	cmd.Flags().IntVar(&index, "index", 0, "entry index within the plan")
	cmd.Flags().BoolVar(&completed, "completed", false, "mark as completed")
	cmd.Flags().BoolVar(&skipped, "skipped", false, "mark as skipped")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func (c *cli) newMetricsCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show LLM usage for the last days",
		RunE: func(*cobra.Command, []string) error {
			return c.app.PrintMetrics(days)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to report")

	var keep int
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old metric records and expired bot sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.CleanupMetrics(keep); err != nil {
				return err
			}
			removed, err := c.app.CleanupSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d expired bot sessions.\n", removed)
			return nil
		},
	}
	cleanup.Flags().IntVar(&keep, "days", 30, "keep records for the last N days")
	cmd.AddCommand(cleanup)
	return cmd
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
