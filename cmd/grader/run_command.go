package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"alfredoptarigan/assignment-grader/internal/bootstrap"
	"alfredoptarigan/assignment-grader/internal/models"
	"alfredoptarigan/assignment-grader/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var apiKey string
	var provider string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Grade .docx, .pdf and .zip submissions and write an .xlsx report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			if provider != "" {
				cfg.Grader.Provider = strings.ToLower(provider)
			}
			if concurrency > 0 {
				cfg.Pipeline.Concurrency = concurrency
			}
			if apiKey == "" {
				apiKey = cfg.Grader.APIKey
			}

			inputs, err := readInputs(args)
			if err != nil {
				return err
			}

			rubric := bootstrap.RubricSource(cmd.Context(), cfg, ctx.log)
			pipeline := bootstrap.Pipeline(cfg, rubric, ctx.log)

			stderr := cmd.ErrOrStderr()
			result, err := pipeline.Run(cmd.Context(), services.BatchInput{Files: inputs, APIKey: apiKey}, func(ev models.Event) {
				printEvent(stderr, ev)
			})
			if err != nil {
				return err
			}

			buf, err := services.NewXLSXRenderer().Render(result.Rows)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = services.ReportFileName(time.Now())
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(result.Rows) > 0 {
				fmt.Fprintln(out, renderResults(result.Rows))
			}
			fmt.Fprintln(out, renderStats(result.Stats, result.Dropped))
			fmt.Fprintf(out, "Report written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Report path (default assignment_report_<timestamp>.xlsx)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Grading service API key (default from GRADER_API_KEY)")
	cmd.Flags().StringVar(&provider, "provider", "", "Grading provider: gemini or anthropic")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Documents graded in parallel")

	return cmd
}

func readInputs(paths []string) ([]models.RawSubmission, error) {
	inputs := make([]models.RawSubmission, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		inputs = append(inputs, models.RawSubmission{
			Name: filepath.Base(p),
			Path: p,
			Data: data,
		})
	}
	return inputs, nil
}

func printEvent(w io.Writer, ev models.Event) {
	switch ev.Kind {
	case models.EventProgress:
		fmt.Fprintf(w, "[%d/%d] %s\n", ev.Index, ev.Total, ev.Filename)
	case models.EventWarning:
		fmt.Fprintf(w, "warning: %s\n", ev.Message)
	case models.EventTruncated:
		fmt.Fprintf(w, "warning: %s\n", ev.Message)
	case models.EventCompleted:
		fmt.Fprintf(w, "graded %d of %d documents\n", ev.Stats.Count, ev.Total)
	}
}
