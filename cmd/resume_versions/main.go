// Package main provides the resume_versions CLI: the HTTP API server plus commands for browsing
// and editing company version histories from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	configPath   string
	storeBackend string
	dataDir      string
	logMode      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "resume_versions",
		Short:         "Company-tailored resume version history",
		Long:          "resume_versions keeps an append-only history of resumes tailored per company and generates new versions with an LLM.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a JSON config file")
	flags.StringVar(&opts.storeBackend, "store", "", "Store backend: file, memory, postgres or redis")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory for the file store")
	flags.StringVar(&opts.logMode, "log-mode", "", "Log mode: dev, prod or silent")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newCompaniesCmd(opts),
		newSwitchCmd(opts),
		newTailorCmd(opts),
		newModifyCmd(opts),
	)
	return cmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
