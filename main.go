package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"community-library/config"
	"community-library/library"
	"community-library/pkg/logger"
)

// app carries what every subcommand needs once the root command has opened the store.
type app struct {
	cfg *config.Config
	log *zap.Logger
	mgr *library.LibraryManager
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		envFile string
		driver  string
		dbPath  string
		seed    string
		verbose bool
		a       = &app{}
	)

	cmd := &cobra.Command{
		Use:   "library",
		Short: "Community library catalog",
		Long: `Browse and reserve books as a member; manage inventory, members
and loans as an administrator. State is kept in a key-value store
(sqlite by default) and written back after every change.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var envFiles []string
			if envFile != "" {
				envFiles = append(envFiles, envFile)
			}
			opts := []config.Option{config.WithStore(driver, dbPath), config.WithSeedFile(seed)}
			if verbose {
				opts = append(opts, config.WithLogLevel(zapcore.DebugLevel))
			}
			cfg, err := config.NewConfig(envFiles, opts...)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.NewLogger(cfg.Log, "library")
			a.mgr, err = library.Open(cmd.Context(), cfg, a.log)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			_ = a.log.Sync()
			if a.mgr == nil {
				return nil
			}
			return a.mgr.Close()
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load (default .env)")
	cmd.PersistentFlags().StringVar(&driver, "store", "", "Store driver: sqlite, redis or memory")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.PersistentFlags().StringVar(&seed, "seed", "", "YAML catalog used when the store is empty")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(
		booksCmd(a),
		membersCmd(a),
		importCmd(a),
		reserveCmd(a),
		reservationsCmd(a),
		loansCmd(a),
		checkoutCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		profileCmd(a),
		checkCmd(a),
	)
	return cmd
}

// readPassword securely reads a password with masking
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println() // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

// requireAdmin prints nothing itself; callers return its error from RunE.
func (a *app) requireAdmin() (library.Member, error) {
	u, err := a.mgr.RequireAdmin()
	if err != nil {
		return library.Member{}, fmt.Errorf("%w (use 'library login' with an administrator account)", err)
	}
	return u, nil
}

// reportChange tells the user whether an operation did anything.
func reportChange(ch library.Change, done string) {
	if ch.None() {
		fmt.Println("Nothing changed (unknown id or already in that state).")
		return
	}
	fmt.Println(done)
}

// truncateString cuts s to at most maxLength characters, never inside a multi-byte rune.
func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
