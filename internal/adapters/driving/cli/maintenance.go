package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
)

var retagOpts driving.RetagOptions

var retagCmd = &cobra.Command{
	Use:   "retag",
	Short: "Re-apply matching rules to existing documents",
	Long: `Reprocesses correspondents, document types and tags of archived
documents from the current matching rules and classifier model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := retagOpts
		if !opts.Correspondent && !opts.DocumentType && !opts.Tags {
			// Nothing selected means everything.
			opts.Correspondent = true
			opts.DocumentType = true
			opts.Tags = true
		}
		return maintenanceService.Retag(cmd.Context(), opts)
	},
}

func init() {
	retagCmd.Flags().BoolVarP(&retagOpts.Correspondent, "correspondents", "c", false, "reprocess correspondents")
	retagCmd.Flags().BoolVarP(&retagOpts.DocumentType, "document-types", "T", false, "reprocess document types")
	retagCmd.Flags().BoolVarP(&retagOpts.Tags, "tags", "t", false, "reprocess tags")
	retagCmd.Flags().BoolVarP(&retagOpts.InboxOnly, "inbox-only", "i", false, "only documents carrying an inbox tag")
	retagCmd.Flags().BoolVar(&retagOpts.Overwrite, "overwrite", false, "replace labels that are already assigned")
	retagCmd.Flags().BoolVar(&retagOpts.UseFirst, "use-first", false, "pick the first of several rule matches")
	rootCmd.AddCommand(retagCmd)
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the document classifier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		changed, err := maintenanceService.Train(cmd.Context())
		if err != nil {
			return err
		}
		if changed {
			cmd.Println("Classifier model updated.")
		} else {
			cmd.Println("Training data unchanged, model kept.")
		}
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the record store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return maintenanceService.Reindex(cmd.Context())
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compact the search index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return maintenanceService.OptimizeIndex(cmd.Context())
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Recompute canonical filenames for all documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return maintenanceService.RenameAll(cmd.Context())
	},
}

var thumbnailsCmd = &cobra.Command{
	Use:   "thumbnails",
	Short: "Regenerate all document thumbnails",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return maintenanceService.RegenerateThumbnails(cmd.Context())
	},
}

var sanityCmd = &cobra.Command{
	Use:   "sanity",
	Short: "Cross-check records against the files on disk",
	Args:  cobra.NoArgs,
	RunE:  runSanity,
}

func runSanity(cmd *cobra.Command, _ []string) error {
	messages, err := maintenanceService.CheckSanity(cmd.Context())
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		cmd.Println("No issues found.")
		return nil
	}

	errors := 0
	for _, m := range messages {
		if m.Severity == domain.SanityError {
			errors++
		}
		cmd.Println(m.String())
	}
	cmd.Printf("\n%d findings, %d errors\n", len(messages), errors)
	return nil
}

func init() {
	rootCmd.AddCommand(trainCmd, reindexCmd, optimizeCmd, renameCmd, thumbnailsCmd, sanityCmd)
}
