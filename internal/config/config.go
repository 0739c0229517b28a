// Package config loads and validates the settings of a migration run.
//
// Settings are layered by viper: flags bound with BindFlags win over
// JIRA2ADO_* environment variables, which win over the config file. The two
// secrets may also come from the OS keyring through a SecretStore.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/steveyegge/jira2ado/internal/debug"
	"github.com/steveyegge/jira2ado/internal/report"
)

// EnvPrefix prefixes every environment variable, e.g. JIRA2ADO_JIRA_URL.
const EnvPrefix = "JIRA2ADO"

// Setting keys.
const (
	KeyJiraURL              = "jira.url"
	KeyJiraUsername         = "jira.username"
	KeyJiraPassword         = "jira.password"
	KeyJiraProjectKey       = "jira.project_key"
	KeyJiraPageSize         = "jira.page_size"
	KeyAzureOrganizationURL = "azure.organization_url"
	KeyAzureProject         = "azure.project"
	KeyAzurePAT             = "azure.pat"
	KeyAzureRequestDelayMS  = "azure.request_delay_ms"
	KeyContinueOnError      = "migration.continue_on_error"
	KeyRetryMaxElapsed      = "migration.retry_max_elapsed"
	KeyReportPath           = "migration.report_path"
)

// Keyring entry names for the secrets.
const (
	SecretJiraPassword = "jira-password"
	SecretAzurePAT     = "azure-pat"
)

// Config is the validated configuration of one run. Load returns it by value;
// nothing in the program mutates it afterwards.
type Config struct {
	JiraURL        string
	JiraUsername   string
	JiraPassword   string
	JiraProjectKey string
	JiraPageSize   int

	AzureOrganizationURL string
	AzureProject         string
	AzurePAT             string
	RequestDelay         time.Duration

	ContinueOnError bool
	RetryMaxElapsed time.Duration
	ReportPath      string
}

// SecretStore looks up a secret by name. Implementations return an error
// when the secret is not stored.
type SecretStore interface {
	Get(name string) (string, error)
}

// New returns a viper instance with env binding and defaults applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyContinueOnError, false)
	v.SetDefault(KeyRetryMaxElapsed, "0s")
	v.SetDefault(KeyReportPath, "")
	return v
}

// BindFlags binds command flags to setting keys. flagToKey maps a flag name
// to the setting it overrides; flags missing from fs are ignored.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, flagToKey map[string]string) error {
	for flag, key := range flagToKey {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", flag, err)
		}
	}
	return nil
}

// DefaultSearchPaths lists the directories searched for jira2ado.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "jira2ado"))
	}
	return paths
}

// ReadFile loads the config file. An explicit path must exist; without one,
// jira2ado.{yaml,toml,json} is searched in DefaultSearchPaths and its absence
// is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jira2ado")
		for _, p := range DefaultSearchPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			debug.Logf("config: no jira2ado config file found, using env and flags\n")
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	debug.Logf("config: loaded %s\n", v.ConfigFileUsed())
	return nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load builds and validates a Config from v. Secrets missing from v are
// looked up in secrets when it is non-nil. Every invalid setting is reported;
// the returned error joins one *ConfigurationError per problem.
func Load(v *viper.Viper, secrets SecretStore) (Config, error) {
	cfg, errs := load(v, secrets)
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// LoadJira is Load restricted to the jira.* settings. Read-only commands use
// it so they run without Azure DevOps credentials.
func LoadJira(v *viper.Viper, secrets SecretStore) (Config, error) {
	cfg, errs := load(v, secrets)
	var kept []error
	for _, err := range errs {
		var ce *ConfigurationError
		if errors.As(err, &ce) && strings.HasPrefix(ce.Setting, "jira.") {
			kept = append(kept, err)
		}
	}
	if len(kept) > 0 {
		return Config{}, errors.Join(kept...)
	}
	return cfg, nil
}

func load(v *viper.Viper, secrets SecretStore) (Config, []error) {
	var errs []error
	fail := func(key, reason string) {
		errs = append(errs, &ConfigurationError{Setting: key, Reason: reason})
	}

	required := func(key, what string) string {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" {
			fail(key, "Cannot migrate with missing "+what)
		}
		return s
	}

	secret := func(key, name, what string) string {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" && secrets != nil {
			if stored, err := secrets.Get(name); err == nil {
				s = strings.TrimSpace(stored)
			} else {
				debug.Logf("config: keyring lookup of %s failed: %v\n", name, err)
			}
		}
		if s == "" {
			fail(key, "Cannot migrate with missing "+what)
		}
		return s
	}

	absoluteURL := func(key, what string) string {
		s := required(key, what)
		if s == "" {
			return ""
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail(key, fmt.Sprintf("%s %q must be an absolute http(s) URL", what, s))
		}
		return strings.TrimSuffix(s, "/")
	}

	integer := func(key, what string, min int) int {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" || !v.IsSet(key) {
			fail(key, what+" must be provided")
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			fail(key, fmt.Sprintf("%s must be a valid integer, got %q", what, s))
			return 0
		}
		if n < min {
			fail(key, fmt.Sprintf("%s must be at least %d, got %d", what, min, n))
			return 0
		}
		return n
	}

	cfg := Config{
		JiraURL:        absoluteURL(KeyJiraURL, "JIRA instance URL"),
		JiraUsername:   required(KeyJiraUsername, "JIRA username"),
		JiraPassword:   secret(KeyJiraPassword, SecretJiraPassword, "JIRA password"),
		JiraProjectKey: required(KeyJiraProjectKey, "JIRA project key"),
		JiraPageSize:   integer(KeyJiraPageSize, "A maximum number of issues to query from JIRA", 1),

		AzureOrganizationURL: absoluteURL(KeyAzureOrganizationURL, "Azure organization URL"),
		AzureProject:         required(KeyAzureProject, "Azure project name"),
		AzurePAT:             secret(KeyAzurePAT, SecretAzurePAT, "Azure personal access token (PAT)"),
		RequestDelay:         time.Duration(integer(KeyAzureRequestDelayMS, "Milliseconds between Azure requests", 0)) * time.Millisecond,

		ContinueOnError: v.GetBool(KeyContinueOnError),
		ReportPath:      strings.TrimSpace(v.GetString(KeyReportPath)),
	}

	if cfg.ReportPath != "" {
		if _, err := report.FormatFor(cfg.ReportPath); err != nil {
			fail(KeyReportPath, fmt.Sprintf("Report file %q: %v", cfg.ReportPath, err))
		}
	}

	retry, err := time.ParseDuration(strings.TrimSpace(v.GetString(KeyRetryMaxElapsed)))
	switch {
	case err != nil:
		fail(KeyRetryMaxElapsed, fmt.Sprintf("retry budget must be a duration such as 30s: %v", err))
	case retry < 0:
		fail(KeyRetryMaxElapsed, "retry budget must not be negative")
	default:
		cfg.RetryMaxElapsed = retry
	}
	return cfg, errs
}
