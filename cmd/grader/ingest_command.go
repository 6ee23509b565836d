package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"alfredoptarigan/assignment-grader/internal/bootstrap"
	"alfredoptarigan/assignment-grader/internal/services"
)

func newIngestRubricCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "ingest-rubric",
		Short: "Chunk, embed and store a rubric in the vector collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := services.LoadRubricFile(file, services.NewPDFParserService())
			if err != nil {
				return err
			}

			embedder, store, err := bootstrap.VectorStore(cmd.Context(), ctx.cfg, ctx.log)
			if err != nil {
				return fmt.Errorf("connect vector store: %w", err)
			}

			n, err := services.NewRubricIngester(embedder, store, ctx.log).Ingest(cmd.Context(), text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d rubric chunks in %s\n", n, ctx.cfg.Qdrant.Collection)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Rubric file (.txt or .pdf)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
