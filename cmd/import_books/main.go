package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"community-library/config"
	"community-library/library"
	"community-library/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootCmd loads delimited files straight into the store, without a login. It is
// meant for setting up a new library from spreadsheets.
func rootCmd() *cobra.Command {
	var (
		envFile    string
		driver     string
		dbPath     string
		target     string
		approvedBy string
		reset      bool
	)

	cmd := &cobra.Command{
		Use:          "import_books [flags] <file>...",
		Short:        "Bulk load books or members into the library store",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target != "books" && target != "members" {
				return fmt.Errorf("--target must be books or members, got %q", target)
			}
			var envFiles []string
			if envFile != "" {
				envFiles = append(envFiles, envFile)
			}
			cfg, err := config.NewConfig(envFiles, config.WithStore(driver, dbPath))
			if err != nil {
				return err
			}
			log := logger.NewLogger(cfg.Log, "import")
			defer log.Sync()

			if reset && cfg.Store.Driver == config.DriverSQLite {
				resetDatabase(cfg.Store.Path, log)
			}

			mgr, err := library.Open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer mgr.Close()

			successCount, errorCount := 0, 0
			for _, path := range args {
				fmt.Printf("Importing %s from %s... ", target, path)
				raw, err := os.ReadFile(filepath.Clean(path))
				if err != nil {
					fmt.Printf("ERROR - %v\n", err)
					errorCount++
					continue
				}

				var n int
				if target == "books" {
					n, err = mgr.ImportBooks(cmd.Context(), string(raw))
				} else {
					n, err = mgr.ImportMembers(cmd.Context(), string(raw), approvedBy)
				}
				if err != nil {
					fmt.Printf("ERROR - %v\n", err)
					errorCount++
					continue
				}
				fmt.Printf("SUCCESS (%d rows)\n", n)
				successCount += n
			}

			fmt.Printf("\nImport complete!\n")
			fmt.Printf("Successfully imported: %d %s\n", successCount, target)
			fmt.Printf("Files with errors: %d\n", errorCount)
			if target == "books" && successCount > 0 {
				printCatalog(mgr.Books())
			}
			if errorCount > 0 {
				return fmt.Errorf("%d file(s) failed", errorCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Env file to load (default .env)")
	cmd.Flags().StringVar(&driver, "store", "", "Store driver: sqlite, redis or memory")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVarP(&target, "target", "t", "books", "What the files contain: books or members")
	cmd.Flags().StringVar(&approvedBy, "approved-by", "Import", "Recorded as the approver of imported members")
	cmd.Flags().BoolVar(&reset, "reset", false, "Remove the SQLite database first (start from the seed)")
	return cmd
}

func resetDatabase(path string, log *zap.Logger) {
	for _, file := range []string{path, path + "-shm", path + "-wal"} {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			log.Warn("could not remove database file", zap.String("file", file), zap.Error(err))
		}
	}
	log.Info("database reset", zap.String("path", path))
}

func printCatalog(books []library.Book) {
	fmt.Println("\nCatalog:")
	fmt.Printf("%-10s %-40s %-30s %s\n", "ID", "Title", "Author", "Status")
	fmt.Println(strings.Repeat("-", 95))
	for _, b := range books {
		fmt.Printf("%-10s %-40s %-30s %s\n", truncateString(b.ID, 10), truncateString(b.Title, 40), truncateString(b.Author, 30), b.Status)
	}
}

// truncateString cuts s to at most maxLen characters, never inside a multi-byte rune.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
