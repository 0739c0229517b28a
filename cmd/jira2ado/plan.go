package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/steveyegge/jira2ado/internal/config"
	"github.com/steveyegge/jira2ado/internal/jira"
	"github.com/steveyegge/jira2ado/internal/migrate"
	"github.com/steveyegge/jira2ado/internal/telemetry"
	"github.com/steveyegge/jira2ado/internal/ui"
)

var planFlags = map[string]string{
	"jira-url":      config.KeyJiraURL,
	"jira-username": config.KeyJiraUsername,
	"project":       config.KeyJiraProjectKey,
	"page-size":     config.KeyJiraPageSize,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview how each Jira issue would be migrated",
	Long: `Reads the Jira project and prints, for every issue, the work item type it
would become and the state it would be moved to. Nothing is written to Azure
DevOps, so only the jira.* settings are required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.New()
		if err := config.BindFlags(settings, cmd.Flags(), planFlags); err != nil {
			return err
		}
		cfg, err := loadSettings(settings, true)
		if err != nil {
			return err
		}
		return runPlan(rootCtx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	planCmd.Flags().String("jira-url", "", "Jira instance URL")
	planCmd.Flags().String("jira-username", "", "Jira username")
	planCmd.Flags().String("project", "", "Jira project key to preview")
	planCmd.Flags().Int("page-size", 0, "Issues per Jira search request")
	rootCmd.AddCommand(planCmd)
}

// planEntry is the migration decision for one issue.
type planEntry struct {
	Key          string
	WorkItemType string // empty when skipped
	State        string // empty when the status has no mapping
	Status       string
}

func buildPlan(issues []migrate.SourceIssue) []planEntry {
	entries := make([]planEntry, 0, len(issues))
	for _, issue := range issues {
		e := planEntry{Key: issue.Key, Status: issue.StatusName}
		dest := migrate.Classify(issue.TypeName)
		if dest == migrate.Skip {
			entries = append(entries, e)
			continue
		}
		e.WorkItemType = dest.WorkItemTypeName()
		if state, ok := migrate.MapStatus(issue.StatusName); ok {
			e.State = state
		}
		entries = append(entries, e)
	}
	return entries
}

func runPlan(ctx context.Context, cfg config.Config, out io.Writer) error {
	jc := jira.NewClient(cfg.JiraURL, cfg.JiraUsername, cfg.JiraPassword)
	jc.RetryMaxElapsed = cfg.RetryMaxElapsed

	extractor := migrate.NewExtractor(telemetry.WrapPages(jira.NewSource(jc)))
	extractor.OnMessage = narrate

	issues, err := extractor.FetchAll(ctx, cfg.JiraProjectKey, cfg.JiraPageSize)
	if err != nil {
		return err
	}

	var migrating, skipped int
	fmt.Fprintln(out, ui.RenderCategory("Plan for "+cfg.JiraProjectKey))
	fmt.Fprintln(out, ui.RenderSeparator())
	for _, e := range buildPlan(issues) {
		if e.WorkItemType == "" {
			skipped++
			fmt.Fprintf(out, "  %s %s %s\n", ui.RenderSkipIcon(), e.Key, ui.RenderMuted("skip"))
			continue
		}
		migrating++
		state := e.State
		if state == "" {
			state = ui.RenderWarn(fmt.Sprintf("unmapped status %q", e.Status))
		}
		fmt.Fprintf(out, "  %s %s → %s, %s\n", ui.RenderPassIcon(), e.Key, e.WorkItemType, state)
	}
	fmt.Fprintf(out, "\n%d to migrate, %d to skip\n", migrating, skipped)
	return nil
}
