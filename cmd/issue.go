package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/afgc/registry/internal/config"
	"github.com/afgc/registry/internal/service"
)

var issueDryRun bool

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Generate issuance packs for approved certifications",
	Long: `Issue fetches certifications that are active, flagged for issuance, and
not yet packed, generates one issuance pack document per certification, and
writes the pack URL, SHA-256, and dispatch status back to the source record.

Unlike publish, issuance is per-record: a failing certification is marked
Failed at the source and the run continues with the rest.

Examples:
  # Generate packs and update source records
  ./afgc-registry issue

  # Generate packs locally without touching the source
  ./afgc-registry issue --dry-run`,
	Run: runIssue,
}

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.Flags().BoolVar(&issueDryRun, "dry-run", false, "Generate packs without updating source records")
}

func runIssue(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateSource(); err != nil {
		log.Fatalf("Cannot start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	issuer := service.NewIssuer(client, cfg.Issuance.OutputDir, cfg.Issuance.PackBaseURL, issueDryRun)

	if issueDryRun {
		log.Println("Starting issuance (DRY RUN)...")
	} else {
		log.Println("Starting issuance...")
	}

	stats, err := issuer.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Issuance cancelled")
			os.Exit(1)
		}
		log.Fatalf("Issuance failed: %v", err)
	}
	issuer.PrintSummary(stats)

	if stats.Failed > 0 {
		os.Exit(1)
	}
}
