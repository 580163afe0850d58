package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ai-fitness-planner/internal/app"
	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/logger"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cli carries the application opened by the root command's pre-run hook.
type cli struct {
	app *app.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "fitness-planner",
		Short:         "Generate and track weekly meal and workout plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewFromEnv()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger.Init(cfg.LogLevel, cfg.LogFormat)

			c.app, err = app.New(cmd.Context(), cfg)
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			if err := c.app.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close application")
			}
			return nil
		},
	}

	root.AddCommand(
		c.newProfileCommand(),
		c.newGenerateCommand(),
		c.newCurrentCommand(),
		c.newShoppingCommand(),
		c.newStatusCommand("meal-status", "Mark a meal as completed or skipped"),
		c.newStatusCommand("workout-status", "Mark a workout as completed or skipped"),
		c.newMetricsCommand(),
	)
	return root
}
