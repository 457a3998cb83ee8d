package main

import (
	"github.com/spf13/cobra"

	"github.com/creedhall/doctrine/version"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "doctrine",
	Short: "Doctrine ingestion pipeline for paginated source documents",
	Long: `Doctrine compiles a paginated source document into an immutable,
per-chapter set of validated structured records.

The pipeline detects chapter boundaries, extracts doctrinal content through
an LLM oracle in parallel, and commits results in strict chapter order with
crash-safe, idempotent storage. Re-running over a partially completed book
skips everything already committed.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.doctrine/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "doctrine home directory (default: ~/.doctrine)",
	)

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
