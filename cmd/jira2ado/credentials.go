package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steveyegge/jira2ado/internal/config"
	"github.com/steveyegge/jira2ado/internal/credential"
)

// secretNames maps the names accepted on the command line to keyring entries.
var secretNames = map[string]string{
	"jira": config.SecretJiraPassword,
	"ado":  config.SecretAzurePAT,
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage secrets stored in the OS keyring",
	Long: `Stores the Jira password (or API token) and the Azure DevOps PAT in the
OS keyring, so they do not have to live in the config file or environment.
Secrets given by flag, env var or config file take precedence.

Names:
  jira   Jira password or API token
  ado    Azure DevOps personal access token`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <jira|ado>",
	Short: "Store a secret (read from the terminal or stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := secretName(args[0])
		if err != nil {
			return err
		}
		value, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("empty secret, nothing stored")
		}
		store, err := credential.Open()
		if err != nil {
			return err
		}
		if err := store.Set(name, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in keyring\n", name)
		return nil
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <jira|ado>",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := secretName(args[0])
		if err != nil {
			return err
		}
		store, err := credential.Open()
		if err != nil {
			return err
		}
		if err := store.Delete(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from keyring\n", name)
		return nil
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsDeleteCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func secretName(arg string) (string, error) {
	name, ok := secretNames[strings.ToLower(arg)]
	if !ok {
		return "", fmt.Errorf("unknown credential %q (want jira or ado)", arg)
	}
	return name, nil
}

// readSecret prompts without echo when in is a terminal, and otherwise reads
// the first line of in.
func readSecret(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Secret: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
