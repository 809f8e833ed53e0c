package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/afgc/registry/internal/config"
	"github.com/afgc/registry/internal/model"
	"github.com/afgc/registry/internal/service"
	"github.com/afgc/registry/internal/store"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the certification registry artifact",
	Long: `Publish fetches all certification records from the source, validates and
normalizes each one, and writes the registry artifact and schema copy to the
output directory.

The run is all-or-nothing: any fetch failure or invalid record aborts the
whole batch and leaves the previously published artifact untouched.

Examples:
  # Publish using environment configuration (AFGC_SOURCE_API_KEY etc.)
  ./afgc-registry publish

  # Publish with an explicit config file
  ./afgc-registry publish --config afgc.yaml`,
	Run: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateSource(); err != nil {
		log.Fatalf("Cannot start: %v", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	client := service.NewAirtableClient(
		cfg.Source.APIURL,
		cfg.Source.APIKey,
		cfg.Source.BaseID,
		cfg.Source.TableID,
		cfg.Source.PageSize,
		cfg.Source.Timeout,
	)
	publisher := service.NewPublisher(client, service.NewMapper(), service.PublishOptions{
		OutputDir:           cfg.Publish.OutputDir,
		ArtifactName:        cfg.Publish.ArtifactName,
		SchemaPath:          cfg.Publish.SchemaPath,
		PublisherName:       cfg.Publish.PublisherName,
		PublisherDisclaimer: cfg.Publish.PublisherDisclaimer,
	})

	log.Println("Starting registry publish...")
	stats, err := publisher.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Publish cancelled")
			os.Exit(1)
		}
		log.Fatalf("Publish failed: %v", err)
	}
	publisher.PrintSummary(stats)

	// Archive the run when a database is configured. Publishing already
	// succeeded at this point, so an archive problem is reported but does
	// not fail the run.
	if cfg.Database.URL != "" {
		if err := archiveRun(ctx, cfg.Database.URL, stats); err != nil {
			log.Printf("Warning: failed to archive publish run: %v", err)
		} else {
			log.Println("Publish run archived")
		}
	}
}

func archiveRun(ctx context.Context, dbURL string, stats *service.PublishStats) error {
	db, err := store.NewDB(dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	runStore := store.NewRunStore(db)
	if err := runStore.EnsureSchema(ctx); err != nil {
		return err
	}

	return runStore.InsertRun(ctx, &model.PublishRun{
		GeneratedUTC:   stats.GeneratedUTC,
		RecordCount:    stats.Records,
		EntryCount:     stats.Entries,
		ArtifactSHA256: stats.ArtifactSHA256,
		DurationMS:     stats.Duration.Milliseconds(),
	})
}
