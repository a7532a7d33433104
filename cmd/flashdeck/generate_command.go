package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"flashdeck/internal/notion"
	"flashdeck/internal/pipeline"
	"flashdeck/internal/services/llm"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath string
		deckName   string
		cards      int
		workers    int
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate <page-url-or-id>",
		Short: "Generate a flashcard package from a Notion page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			source := notion.NewClient(notion.Config{
				Token:          cfg.Notion.Token,
				BaseURL:        cfg.Notion.BaseURL,
				Version:        cfg.Notion.Version,
				TimeoutSeconds: cfg.Notion.TimeoutSeconds,
			})
			backend := llm.NewClient(llm.Config{
				APIKey:         cfg.LLM.APIKey,
				BaseURL:        cfg.LLM.BaseURL,
				Model:          cfg.LLM.Model,
				Referer:        cfg.LLM.Referer,
				Title:          cfg.LLM.Title,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			})

			controller, err := pipeline.New(cfg, source, backend, logger)
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			result, err := controller.Run(runCtx, pipeline.Request{
				PageRef:         args[0],
				DeckName:        deckName,
				OutputPath:      outputPath,
				CardsPerConcept: cards,
				Workers:         workers,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderRunSummary(result))
			if result.Empty {
				fmt.Fprintln(out, "No cards were generated; the package contains an empty deck.")
			}
			fmt.Fprintf(out, "Wrote %s\n", result.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination path for the .apkg file")
	cmd.Flags().StringVar(&deckName, "deck-name", "", "Deck name (defaults to the page title)")
	cmd.Flags().IntVar(&cards, "cards", 0, "Cards to request per concept")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent generation requests")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall run timeout (e.g. 5m)")
	return cmd
}
