package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a setting that is missing or fails to parse.
type ConfigurationError struct {
	Setting string // Setting key, e.g. "jira.page_size"
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s, please configure %s (or %s)", e.Reason, e.Setting, EnvVar(e.Setting))
}

// EnvVar returns the environment variable that sets key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
