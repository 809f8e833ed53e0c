package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "afgc-registry",
	Short: "AFGC certification registry publishing tools",
	Long: `afgc-registry publishes the public AFGC certification registry.

The publish command pulls certification records from the source of truth,
validates and normalizes them, and writes a versioned JSON artifact plus a
copy of the registry schema for downstream consumers. The issue command
generates issuance packs for approved certifications, and serve exposes the
published files over HTTP.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file (default: ./afgc.yaml if present)")
}
