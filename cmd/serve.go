package cmd

import (
	"log"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"

	"github.com/afgc/registry/internal/config"
	"github.com/afgc/registry/internal/handlers"
	"github.com/afgc/registry/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the published registry over HTTP",
	Long: `Serve exposes the published registry artifact, its schema, and the entry
list as read-only JSON endpoints. When a database is configured, the publish
run history is served as well.

Examples:
  # Serve on the configured port (default 8080)
  ./afgc-registry serve

  # Serve on an explicit port
  ./afgc-registry serve --port 9090`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		app := fiber.New(fiber.Config{
			AppName: "AFGC Registry",
		})

		app.Use(logger.New())

		outDir := cfg.Publish.OutputDir
		schemaName := filepath.Base(cfg.Publish.SchemaPath)

		app.Get("/healthz", handlers.HealthHandler())
		app.Get("/registry.json", handlers.RegistryHandler(outDir, cfg.Publish.ArtifactName))
		app.Get("/schema.json", handlers.SchemaHandler(outDir, schemaName))
		app.Get("/entries", handlers.EntriesHandler(outDir, cfg.Publish.ArtifactName))
		app.Get("/entries/:id", handlers.EntryDetailHandler(outDir, cfg.Publish.ArtifactName))

		// Run history only exists when the archive database is configured
		if cfg.Database.URL != "" {
			db, err := store.NewDB(cfg.Database.URL)
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer db.Close()

			app.Get("/runs", handlers.RunsHandler(store.NewRunStore(db)))
		}

		log.Printf("Starting server on :%d", port)
		if err := app.Listen(":" + strconv.Itoa(port)); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides server.port)")
}
