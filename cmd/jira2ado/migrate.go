package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jira2ado/internal/azuredevops"
	"github.com/steveyegge/jira2ado/internal/config"
	"github.com/steveyegge/jira2ado/internal/debug"
	"github.com/steveyegge/jira2ado/internal/jira"
	"github.com/steveyegge/jira2ado/internal/migrate"
	"github.com/steveyegge/jira2ado/internal/report"
	"github.com/steveyegge/jira2ado/internal/telemetry"
	"github.com/steveyegge/jira2ado/internal/ui"
)

// migrateFlags maps migrate flags to the settings they override.
var migrateFlags = map[string]string{
	"jira-url":          config.KeyJiraURL,
	"jira-username":     config.KeyJiraUsername,
	"project":           config.KeyJiraProjectKey,
	"page-size":         config.KeyJiraPageSize,
	"azure-url":         config.KeyAzureOrganizationURL,
	"azure-project":     config.KeyAzureProject,
	"delay-ms":          config.KeyAzureRequestDelayMS,
	"continue-on-error": config.KeyContinueOnError,
	"retry-max-elapsed": config.KeyRetryMaxElapsed,
	"report":            config.KeyReportPath,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy every issue of a Jira project into Azure DevOps",
	Long: `Reads every issue of the configured Jira project, oldest key first, and
creates one Azure DevOps work item per Bug, Story or Task. Work items whose
Jira status maps to an Azure DevOps state are moved to that state.

The run stops at the first failure unless --continue-on-error is set.

Configuration (flags, JIRA2ADO_* env vars, or jira2ado.yaml):
  jira.url, jira.username, jira.password, jira.project_key, jira.page_size
  azure.organization_url, azure.project, azure.pat, azure.request_delay_ms

Secrets can be stored in the OS keyring with 'jira2ado credentials set'.

Examples:
  jira2ado migrate
  jira2ado migrate --project PROJ --azure-project Acme --delay-ms 500
  jira2ado migrate --continue-on-error --report run.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.New()
		if err := config.BindFlags(settings, cmd.Flags(), migrateFlags); err != nil {
			return err
		}
		cfg, err := loadSettings(settings, false)
		if err != nil {
			return err
		}
		_, err = runMigration(rootCtx, cfg, cmd.OutOrStdout())
		return err
	},
}

func init() {
	migrateCmd.Flags().String("jira-url", "", "Jira instance URL")
	migrateCmd.Flags().String("jira-username", "", "Jira username")
	migrateCmd.Flags().String("project", "", "Jira project key to migrate")
	migrateCmd.Flags().Int("page-size", 0, "Issues per Jira search request")
	migrateCmd.Flags().String("azure-url", "", "Azure DevOps organization URL")
	migrateCmd.Flags().String("azure-project", "", "Azure DevOps project name")
	migrateCmd.Flags().Int("delay-ms", 0, "Minimum milliseconds between work item creations")
	migrateCmd.Flags().Bool("continue-on-error", false, "Record failed issues and keep going")
	migrateCmd.Flags().String("retry-max-elapsed", "0s", "Retry throttled requests for up to this long (0 disables)")
	migrateCmd.Flags().String("report", "", "Write a run report (.json, .yaml or .toml)")
	rootCmd.AddCommand(migrateCmd)
}

// runMigration wires the Jira source and Azure DevOps sink for cfg, runs the
// migration and prints a summary to out. The report is written to
// cfg.ReportPath even when the run fails.
func runMigration(ctx context.Context, cfg config.Config, out io.Writer) (*migrate.Report, error) {
	jc := jira.NewClient(cfg.JiraURL, cfg.JiraUsername, cfg.JiraPassword)
	jc.RetryMaxElapsed = cfg.RetryMaxElapsed

	extractor := migrate.NewExtractor(telemetry.WrapPages(jira.NewSource(jc)))
	extractor.OnMessage = narrate

	ac := azuredevops.NewClient(cfg.AzureOrganizationURL, cfg.AzureProject, cfg.AzurePAT)
	ac.RetryMaxElapsed = cfg.RetryMaxElapsed
	sink := telemetry.WrapSink(azuredevops.NewSink(ac))

	orch := migrate.NewOrchestrator(extractor, sink, migrate.Options{
		SourceProject:      cfg.JiraProjectKey,
		PageSize:           cfg.JiraPageSize,
		DestinationProject: cfg.AzureProject,
		Delay:              cfg.RequestDelay,
		ContinueOnError:    cfg.ContinueOnError,
	})
	orch.OnMessage = narrate
	orch.OnWarning = func(msg string) {
		debug.Warnf("%s\n", msg)
	}
	recorder := telemetry.NewOutcomeRecorder()
	orch.OnOutcome = func(ctx context.Context, o migrate.Outcome) {
		recorder.Record(ctx, o)
		if o.Status == migrate.StatusCreated {
			debug.Logf("%s: created %s\n", o.SourceKey, ac.BuildWorkItemURL(o.DestinationID))
		} else {
			debug.Logf("%s: %s\n", o.SourceKey, o.Status)
		}
	}

	debug.Logf("migrate: %s (%s) -> %s (%s)\n", cfg.JiraProjectKey, cfg.JiraURL, cfg.AzureProject, cfg.AzureOrganizationURL)
	rep, runErr := orch.Run(ctx)

	if !debug.IsQuiet() {
		ui.WriteSummary(out, rep, verboseFlag)
	}

	if cfg.ReportPath != "" {
		if err := report.Write(cfg.ReportPath, rep); err != nil {
			if runErr == nil {
				return rep, err
			}
			debug.Warnf("failed to write report: %v\n", err)
		} else {
			debug.PrintNormal("Report written to %s\n", cfg.ReportPath)
		}
	}
	return rep, runErr
}

// narrate prints a progress message unless quiet mode is enabled.
func narrate(msg string) {
	debug.PrintlnNormal(msg)
}
