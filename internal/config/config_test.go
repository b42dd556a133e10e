package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	s, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "Cloud Code", s.AppName)
	require.Equal(t, "claude-code", s.DefaultCodingCLI)
	require.Equal(t, 3, s.MaxTaskAttempts)
	require.Equal(t, 3600, s.AgentTimeoutSeconds)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("CLOUD_CODE_DEFAULT_CODING_CLI", "aider")
	t.Setenv("CLOUD_CODE_AGENT_TIMEOUT_SECONDS", "120")

	s, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "aider", s.DefaultCodingCLI)
	require.Equal(t, 120, s.AgentTimeoutSeconds)
}

func TestSettings_DurationHelpers(t *testing.T) {
	s, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, float64(3600), s.AgentTimeout().Seconds())
	require.Equal(t, float64(5), s.PollInterval().Seconds())
	require.Equal(t, float64(10), s.IdlePollInterval().Seconds())
}
