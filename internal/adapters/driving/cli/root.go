// Package cli wires the cobra command surface to the core services.
// Commands talk to the driving ports only; construction of the real
// adapters happens once in initServices.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperbase-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/paperbase-cli/internal/adapters/driven/hooks"
	"github.com/custodia-labs/paperbase-cli/internal/adapters/driven/index/fts"
	"github.com/custodia-labs/paperbase-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperbase-cli/internal/core/services"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
	"github.com/custodia-labs/paperbase-cli/internal/parsers"
	imageparser "github.com/custodia-labs/paperbase-cli/internal/parsers/image"
	"github.com/custodia-labs/paperbase-cli/internal/parsers/pdf"
	"github.com/custodia-labs/paperbase-cli/internal/parsers/plaintext"
)

const version = "0.1.0"

var (
	configDir string
	verbose   bool
)

// The services commands run against. Tests swap these for mocks.
var (
	cfg                *file.Config
	consumerService    driving.Consumer
	searchService      driving.SearchService
	maintenanceService driving.Maintenance
	bulkService        driving.BulkEditor

	closers []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "paperbase",
	Short: "Personal document archive",
	Long: `Paperbase consumes scanned and digital documents into a searchable
archive: text extraction, automatic tagging, full-text search and
consistent file placement.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn("closing resources: %v", err)
			}
		}
		closers = nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.paperbase)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// ExecuteContext runs the root command. The context cancels long
// running commands such as watch.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// initServices builds the full adapter stack. A test that pre-populated
// the service variables keeps its mocks.
func initServices() error {
	if consumerService != nil {
		return nil
	}

	loaded, err := file.Load(configDir)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg = loaded

	store, err := sqlite.NewStore(cfg.Paths.DataDir)
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}
	closers = append(closers, store)

	index, err := fts.NewIndex(cfg.Paths.IndexDir)
	if err != nil {
		return fmt.Errorf("opening search index: %w", err)
	}
	closers = append(closers, index)

	registry := parsers.NewRegistry()
	registry.Register(func() driven.DocumentParser { return plaintext.New() })
	registry.Register(func() driven.DocumentParser { return pdf.New() })
	registry.Register(func() driven.DocumentParser { return imageparser.New() })

	docs := store.DocumentStore()
	meta := store.MetadataStore()

	files := services.NewFileManager(cfg.Paths.MediaRoot, cfg.Storage.FilenameFormat, meta, docs)
	docs.AddObserver(files.AsRenameObserver())

	classifier := services.NewClassifier(cfg.Paths.ModelFile, docs, meta)
	if err := classifier.Load(); err != nil {
		logger.Warn("loading classification model: %v", err)
	}
	matcher := services.NewMatcher(meta, classifier)

	rules, err := domain.NewFilenameRules(rewriteRules(cfg))
	if err != nil {
		return fmt.Errorf("compiling filename rewrite rules: %w", err)
	}

	consumerService = services.NewConsumerService(services.ConsumerConfig{
		Docs:             docs,
		Meta:             meta,
		Registry:         registry,
		Index:            index,
		Files:            files,
		Matcher:          matcher,
		Classifier:       classifier,
		Hooks:            hooks.NewScriptRunner(cfg.Consumer.PreConsumeScript, cfg.Consumer.PostConsumeScript),
		FilenameRules:    rules,
		InboxTags:        cfg.Consumer.InboxTags,
		DeleteDuplicates: cfg.Consumer.DeleteDuplicates,
	})
	searchService = services.NewSearchService(docs, index)
	maintenanceService = services.NewMaintenanceService(docs, meta, index, registry, files, classifier, matcher)
	bulkService = services.NewBulkEditService(docs, meta, index, files)
	return nil
}

func rewriteRules(cfg *file.Config) []domain.RewriteRule {
	rules := make([]domain.RewriteRule, 0, len(cfg.Rewrites))
	for _, r := range cfg.Rewrites {
		rules = append(rules, domain.RewriteRule{Pattern: r.Pattern, Replacement: r.Replacement})
	}
	return rules
}
