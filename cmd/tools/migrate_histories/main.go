// Command migrate_histories copies company version histories written by the file store into
// the postgres store.
//
// This is a one-time migration for deployments moving off the on-disk store.
//
// Usage:
//
//	go run ./cmd/tools/migrate_histories --data-dir data/company-versions
//
// Requires DATABASE_URL environment variable to be set.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-versions/internal/config"
	"github.com/jonathan/resume-versions/internal/db"
	"github.com/jonathan/resume-versions/internal/logger"
	"github.com/jonathan/resume-versions/internal/store"
)

func main() {
	_ = godotenv.Load()

	var dataDir string
	var overwrite bool
	cmd := &cobra.Command{
		Use:          "migrate_histories",
		Short:        "Copy file-store histories into postgres",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				return fmt.Errorf("DATABASE_URL environment variable not set")
			}
			return run(cmd.Context(), dsn, dataDir, overwrite)
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", config.DefaultDataDir, "File store directory to read")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace histories that already exist in postgres")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn, dataDir string, overwrite bool) error {
	log := logger.NewNop()

	database, err := db.Connect(ctx, dsn, log)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	fmt.Println("=== History Migration ===")
	fmt.Printf("Source: %s\n\n", dataDir)

	res, err := store.Copy(ctx, database, store.NewFileStore(dataDir, log), overwrite,
		func(companyID, outcome string, err error) {
			switch outcome {
			case "copied":
				fmt.Printf("  ✓ Copied: %s\n", companyID)
			case "skipped":
				fmt.Printf("  • Existing: %s\n", companyID)
			default:
				fmt.Printf("  ✗ %s: %v\n", companyID, err)
			}
		})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("=== Migration Summary ===")
	fmt.Printf("  Copied: %d\n", res.Copied)
	fmt.Printf("  Existing: %d\n", res.Skipped)
	fmt.Printf("  Failed: %d\n", res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d histories failed to copy", res.Failed)
	}
	return nil
}
