package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// settings carries what the persistent pre-run resolved for subcommands.
type settings struct {
	cfg    *config.Config
	logger *applog.Logger
	dbPath string
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	cmd := &cobra.Command{
		Use:           "fintrackctl",
		Short:         "Administer a fintrack database",
		Long:          `Run migrations, manage accounts and print reports against the fintrack SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			s.logger = cli.SetupLogger(applog.ComponentCLI)
			s.cfg = config.Load()
			if s.dbPath == "" {
				s.dbPath = s.cfg.SQLiteDBPath
			}
			if s.dbPath == "" {
				return fmt.Errorf("no database: set --db or SQLITE_DB_PATH")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&s.dbPath, "db", "", "SQLite database path (default: $SQLITE_DB_PATH)")

	cmd.AddCommand(migrateCmd(s))
	cmd.AddCommand(signupCmd(s))
	cmd.AddCommand(usersCmd(s))
	cmd.AddCommand(reportCmd(s))
	return cmd
}
