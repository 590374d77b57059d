package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperbase-cli/internal/watcher"
)

var (
	consumeTitle         string
	consumeCreated       string
	consumeCorrespondent int64
	consumeDocumentType  int64
	consumeTags          []int64
)

var consumeCmd = &cobra.Command{
	Use:   "consume [file...]",
	Short: "Consume documents into the archive",
	Long: `Runs the consumption pipeline for each file: text extraction,
duplicate detection, classification, placement and indexing.
Successfully consumed source files are removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsume,
}

func init() {
	consumeCmd.Flags().StringVar(&consumeTitle, "title", "", "override the document title")
	consumeCmd.Flags().StringVar(&consumeCreated, "created", "", "override the document date (YYYY-MM-DD)")
	consumeCmd.Flags().Int64Var(&consumeCorrespondent, "correspondent", 0, "override the correspondent id")
	consumeCmd.Flags().Int64Var(&consumeDocumentType, "document-type", 0, "override the document type id")
	consumeCmd.Flags().Int64SliceVar(&consumeTags, "tag", nil, "override the tag ids, replacing automatic tagging")
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(cmd *cobra.Command, args []string) error {
	overrides, err := buildOverrides()
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range args {
		doc, err := consumerService.Consume(cmd.Context(), path, overrides)
		switch {
		case err == nil:
			cmd.Printf("Consumed %s as document %d\n", path, doc.ID)
		case domain.IsDuplicate(err):
			cmd.Printf("Skipped %s: %v\n", path, err)
		default:
			failed++
			cmd.PrintErrf("Failed %s: %v\n", path, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func buildOverrides() (driving.ConsumeOverrides, error) {
	overrides := driving.ConsumeOverrides{TagIDs: consumeTags}
	if consumeTitle != "" {
		overrides.Title = &consumeTitle
	}
	if consumeCorrespondent != 0 {
		overrides.CorrespondentID = &consumeCorrespondent
	}
	if consumeDocumentType != 0 {
		overrides.DocumentTypeID = &consumeDocumentType
	}
	if consumeCreated != "" {
		created, err := time.Parse("2006-01-02", consumeCreated)
		if err != nil {
			return overrides, fmt.Errorf("invalid --created date %q, want YYYY-MM-DD", consumeCreated)
		}
		overrides.Created = &created
	}
	return overrides, nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the consumption directory",
	Long: `Watches the configured consumption directory and consumes every
file dropped into it. Existing files are consumed on startup. Runs
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if cfg == nil {
		return errors.New("watch requires the full configuration")
	}
	w := watcher.New(cfg.Paths.ConsumptionDir, consumerService, cfg.WorkerCount())
	err := w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
