package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/jira2ado/internal/config"
	"github.com/steveyegge/jira2ado/internal/credential"
	"github.com/steveyegge/jira2ado/internal/debug"
	"github.com/steveyegge/jira2ado/internal/telemetry"
	"github.com/steveyegge/jira2ado/internal/transport"
)

var (
	configFile  string
	dotEnvFile  string
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: jira2ado.yaml in . or ~/.config/jira2ado)")
	rootCmd.PersistentFlags().StringVar(&dotEnvFile, "env-file", ".env", "Load environment variables from this file if it exists")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

var rootCmd = &cobra.Command{
	Use:   "jira2ado",
	Short: "jira2ado - copy Jira issues into Azure DevOps",
	Long: `Copies every issue of one Jira project into an Azure DevOps project as
work items. Bugs become Bug work items, stories and tasks become User Stories,
and everything else is skipped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "jira2ado version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupSignalContext()
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)

		if err := config.LoadDotEnv(dotEnvFile); err != nil {
			return err
		}
		if err := telemetry.Init(rootCtx, "jira2ado", Version); err != nil {
			debug.Warnf("telemetry disabled: %v\n", err)
		}
		return nil
	},
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadSettings reads the config file and validates the merged settings.
// Secrets missing from flags, env and file are looked up in the OS keyring.
// When jiraOnly is set, Azure DevOps settings are not required.
func loadSettings(v *viper.Viper, jiraOnly bool) (config.Config, error) {
	if err := config.ReadFile(v, configFile); err != nil {
		return config.Config{}, err
	}

	var secrets config.SecretStore
	if store, err := credential.Open(); err == nil {
		secrets = store
	} else {
		debug.Logf("keyring unavailable: %v\n", err)
	}

	if jiraOnly {
		return config.LoadJira(v, secrets)
	}
	return config.Load(v, secrets)
}

// shutdown flushes telemetry and releases the signal context. Cobra skips
// post-run hooks when RunE fails, so main calls this after every command.
func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	telemetry.Shutdown(ctx)

	if rootCancel != nil {
		rootCancel()
	}
}

// errorHint suggests a fix for errors the user can act on, or returns "".
func errorHint(err error) string {
	var se *transport.StatusError
	if !errors.As(err, &se) || !se.IsAuthError() {
		return ""
	}
	if se.Service == "jira" {
		return "check jira.username and jira.password, or store the password with 'jira2ado credentials set jira'"
	}
	return "check azure.pat and its scopes, or store the token with 'jira2ado credentials set ado'"
}

func main() {
	err := rootCmd.Execute()
	shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
