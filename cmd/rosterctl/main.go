// Command rosterctl reconciles sign-up screenshots against a local SQLite roster and
// manages members and promotions without running the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AccelByte/extend-roster-reconciliation/internal/bootstrap"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/ocr"
	"github.com/AccelByte/extend-roster-reconciliation/pkg/pipeline"
)

const programName = "rosterctl"

var globalFlags = struct {
	debug      bool
	dbPath     string
	configFile string
	ocrBinary  string
	ocrLang    string
}{}

// openManager opens the roster database and builds a pipeline manager over it. The
// returned function closes the database.
func openManager() (*pipeline.Manager, func(), error) {
	reconCfg, err := bootstrap.LoadReconciliationConfig(globalFlags.configFile)
	if err != nil {
		return nil, nil, err
	}
	store, err := bootstrap.InitSQLiteStore(globalFlags.dbPath)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logrus.Errorf("failed to close %s: %v", globalFlags.dbPath, err)
		}
	}

	runner := ocr.NewRunner(ocr.Config{
		Binary:   globalFlags.ocrBinary,
		Language: globalFlags.ocrLang,
	})
	manager, err := pipeline.NewManager(reconCfg, store, store, runner)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return manager, closeStore, nil
}

// withManager adapts a command body that needs a manager into a cobra RunE.
func withManager(run func(ctx context.Context, cmd *cobra.Command, m *pipeline.Manager, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m, closeStore, err := openManager()
		if err != nil {
			return err
		}
		defer closeStore()
		return run(cmd.Context(), cmd, m, args)
	}
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Reconcile sign-up rosters and manage clan members",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetOutput(cmd.ErrOrStderr())
			logrus.SetLevel(logrus.WarnLevel)
			if globalFlags.debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.dbPath, "db", "data/roster.db", "path to the roster database")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.configFile, "config", "", "path to reconciliation config file (defaults when empty)")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.ocrBinary, "ocr-binary", ocr.DefaultBinary, "text recognition binary")
	rootCmd.PersistentFlags().
		StringVar(&globalFlags.ocrLang, "ocr-lang", ocr.DefaultLanguage, "text recognition language")

	// Subcommands
	rootCmd.AddCommand(reconcileCommand())
	rootCmd.AddCommand(membersCommand())
	rootCmd.AddCommand(importCommand())
	rootCmd.AddCommand(renameCommand())
	rootCmd.AddCommand(deleteCommand())
	rootCmd.AddCommand(promoteCommand())
	rootCmd.AddCommand(demoteCommand())
	rootCmd.AddCommand(eligibilityCommand())
	rootCmd.AddCommand(sessionsCommand())

	return rootCmd
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
