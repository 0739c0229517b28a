package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/jira2ado/internal/ui"
)

// fileSettings is the layout of jira2ado.yaml written by init. Secrets are
// left out; they belong in the keyring or the environment.
type fileSettings struct {
	Jira struct {
		URL        string `yaml:"url"`
		Username   string `yaml:"username,omitempty"`
		ProjectKey string `yaml:"project_key"`
		PageSize   int    `yaml:"page_size"`
	} `yaml:"jira"`
	Azure struct {
		OrganizationURL string `yaml:"organization_url"`
		Project         string `yaml:"project"`
		RequestDelayMS  int    `yaml:"request_delay_ms"`
	} `yaml:"azure"`
	Migration struct {
		ContinueOnError bool `yaml:"continue_on_error"`
	} `yaml:"migration"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write a jira2ado.yaml config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		fs, err := runInitForm()
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Init cancelled.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("form error: %w", err)
		}

		data, err := yaml.Marshal(fs)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.RenderPassIcon(), path)
		fmt.Fprintln(cmd.OutOrStdout(), "Store secrets with 'jira2ado credentials set jira' and 'jira2ado credentials set ado'.")
		return nil
	},
}

func init() {
	initCmd.Flags().StringP("output", "o", "jira2ado.yaml", "Path of the config file to write")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInitForm() (*fileSettings, error) {
	fs := &fileSettings{}
	pageSize := "50"
	delay := "250"
	continueOnError := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Jira URL").
				Placeholder("https://company.atlassian.net").
				Value(&fs.Jira.URL).
				Validate(validateHTTPURL),
			huh.NewInput().
				Title("Jira username").
				Description("Account used for Basic auth").
				Value(&fs.Jira.Username).
				Validate(requireText("username")),
			huh.NewInput().
				Title("Jira project key").
				Placeholder("PROJ").
				Value(&fs.Jira.ProjectKey).
				Validate(requireText("project key")),
			huh.NewInput().
				Title("Page size").
				Value(&pageSize).
				Validate(validateInt(1)),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Azure DevOps organization URL").
				Placeholder("https://dev.azure.com/company").
				Value(&fs.Azure.OrganizationURL).
				Validate(validateHTTPURL),
			huh.NewInput().
				Title("Azure DevOps project").
				Value(&fs.Azure.Project).
				Validate(requireText("project")),
			huh.NewInput().
				Title("Delay between work item creations (ms)").
				Value(&delay).
				Validate(validateInt(0)),
			huh.NewConfirm().
				Title("Keep going after a failed issue?").
				Affirmative("Continue").
				Negative("Abort").
				Value(&continueOnError),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return nil, err
	}

	// Both values already passed validateInt.
	fs.Jira.PageSize, _ = parseInt(pageSize)
	fs.Azure.RequestDelayMS, _ = parseInt(delay)
	fs.Migration.ContinueOnError = continueOnError
	return fs, nil
}

func requireText(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func validateHTTPURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL")
	}
	return nil
}

// parseInt reads a form field as an integer, ignoring surrounding whitespace.
func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func validateInt(min int) func(string) error {
	return func(s string) error {
		n, err := parseInt(s)
		if err != nil {
			return fmt.Errorf("must be a whole number")
		}
		if n < min {
			return fmt.Errorf("must be at least %d", min)
		}
		return nil
	}
}
