package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"alfredoptarigan/assignment-grader/internal/config"
	applog "alfredoptarigan/assignment-grader/internal/logger"
)

type commandContext struct {
	cfg *config.Config
	log zerolog.Logger

	logLevel string
}

func (c *commandContext) load() {
	c.cfg = config.Load()
	level := c.cfg.Log.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	c.log = applog.New(level, c.cfg.Log.Pretty)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "grader",
		Short:         "Grade assignment submissions against a rubric",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newIngestRubricCommand(ctx))

	return rootCmd
}
