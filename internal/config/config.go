// Package config loads orchestratord settings from the environment
// (and an optional config file) via viper. agentd does not use it: it
// reads its settings from its own environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the orchestrator and agent runtime configuration.
// Every field has a default so both binaries run unconfigured against
// a local workspace root.
type Settings struct {
	// AppName identifies this deployment in logs and traces.
	AppName string `mapstructure:"app_name"`
	Debug   bool   `mapstructure:"debug"`

	// WorkspacesPath is the root directory under which the Workspace
	// Manager provisions per-task checkouts.
	WorkspacesPath string `mapstructure:"workspaces_path"`

	// MaxTaskAttempts is loaded with a default of 3 but nothing reads
	// it. The handoff bound is the orchestrator's maxHandoffAttempts
	// constant (one extra attempt), and task retries are never automatic.
	MaxTaskAttempts int `mapstructure:"max_task_attempts"`

	// AgentTimeoutSeconds is the default coding-tool execution deadline.
	AgentTimeoutSeconds int `mapstructure:"agent_timeout_seconds"`

	// DefaultCodingCLI names the coding-tool adapter used when a task
	// doesn't specify one explicitly.
	DefaultCodingCLI string `mapstructure:"default_coding_cli"`

	// PollIntervalSeconds is the supervisor's fixed polling interval,
	// used as the fallback when the fsnotify fast path is unavailable.
	PollIntervalSeconds float64 `mapstructure:"poll_interval_seconds"`

	// IdlePollIntervalSeconds is the agent loop's idle sleep when no
	// eligible task is found.
	IdlePollIntervalSeconds float64 `mapstructure:"idle_poll_interval_seconds"`

	// DBPath is the sqlite file backing the container provisioner's
	// worker registry. The orchestrator's audit trail is a separate
	// JSONL file, not stored here.
	DBPath string `mapstructure:"db_path"`

	// SecretStoreAddr is the external secret store endpoint.
	SecretStoreAddr string `mapstructure:"secret_store_addr"`

	// OTLPEndpoint, if set, exports spans over OTLP/gRPC instead of
	// stdout.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// Provider API keys. These are loaded but nothing reads them: the
	// worker credential lookup in orchestratord reads the provider
	// environment variables directly through secretstore.EnvFallback.
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	GoogleAPIKey    string `mapstructure:"google_api_key"`

	// GitHubAppName is the GitHub App slug used to resolve
	// installation-scoped credentials in the secret store.
	GitHubAppName string `mapstructure:"github_app_name"`
}

// AgentTimeout returns AgentTimeoutSeconds as a time.Duration.
func (s Settings) AgentTimeout() time.Duration {
	return time.Duration(s.AgentTimeoutSeconds) * time.Second
}

// PollInterval returns PollIntervalSeconds as a time.Duration.
func (s Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds * float64(time.Second))
}

// IdlePollInterval returns IdlePollIntervalSeconds as a time.Duration.
func (s Settings) IdlePollInterval() time.Duration {
	return time.Duration(s.IdlePollIntervalSeconds * float64(time.Second))
}

func defaults() Settings {
	return Settings{
		AppName:                 "Cloud Code",
		Debug:                   false,
		WorkspacesPath:          "/var/cloud-code/workspaces",
		MaxTaskAttempts:         3,
		AgentTimeoutSeconds:     3600,
		DefaultCodingCLI:        "claude-code",
		PollIntervalSeconds:     5.0,
		IdlePollIntervalSeconds: 10.0,
		DBPath:                  "/var/cloud-code/orchestrator.db",
		SecretStoreAddr:         "http://vault:8200",
		GitHubAppName:           "cloud-code",
	}
}

// Load binds the caller's *viper.Viper to the CLOUD_CODE_ env prefix,
// applies defaults, and optionally reads a config file, then decodes
// into a Settings struct.
func Load(v *viper.Viper, configFile string) (Settings, error) {
	d := defaults()
	v.SetEnvPrefix("cloud_code")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_name", d.AppName)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("workspaces_path", d.WorkspacesPath)
	v.SetDefault("max_task_attempts", d.MaxTaskAttempts)
	v.SetDefault("agent_timeout_seconds", d.AgentTimeoutSeconds)
	v.SetDefault("default_coding_cli", d.DefaultCodingCLI)
	v.SetDefault("poll_interval_seconds", d.PollIntervalSeconds)
	v.SetDefault("idle_poll_interval_seconds", d.IdlePollIntervalSeconds)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("secret_store_addr", d.SecretStoreAddr)
	v.SetDefault("github_app_name", d.GitHubAppName)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
