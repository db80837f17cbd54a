package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *AppFlags {
	t.Helper()
	flags := &AppFlags{}
	fs := pflag.NewFlagSet("unitwatch", pflag.ContinueOnError)
	flags.register(fs)
	require.NoError(t, fs.Parse(args))
	return flags
}

func TestAppFlags_OnlyExplicitFlagsOverride(t *testing.T) {
	cfg := config.NewDefaultGlobalConfig()
	cfg.MonitorConfig.CheckIntervalSeconds = 45
	cfg.NotificationConfig.Push.Method = config.PushMethodWork

	parseFlags(t).Apply(cfg)

	assert.Equal(t, 45, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, config.PushMethodWork, cfg.NotificationConfig.Push.Method)
	assert.True(t, cfg.FetcherConfig.Headless)
}

func TestAppFlags_Apply(t *testing.T) {
	cfg := config.NewDefaultGlobalConfig()

	parseFlags(t, "-i", "30", "--wechat-method", "serverchan", "--no-headless", "--max-checks", "2", "--metrics-addr", "127.0.0.1:9100").Apply(cfg)

	assert.Equal(t, 30, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, config.PushMethodServerChan, cfg.NotificationConfig.Push.Method)
	assert.False(t, cfg.FetcherConfig.Headless)
	assert.Equal(t, 2, cfg.MonitorConfig.MaxChecks)
	assert.Equal(t, "127.0.0.1:9100", cfg.MonitorConfig.MetricsAddr)
}

func TestRootCmd_RejectsInvalidInput(t *testing.T) {
	missingEnv := filepath.Join(t.TempDir(), "none.env")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "zero interval", args: []string{"--interval", "0"}, want: "CheckIntervalSeconds"},
		{name: "unknown push method", args: []string{"--wechat-method", "telegram"}, want: "pushmethod"},
		{name: "missing config file", args: []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, want: "config file does not exist"},
		{name: "positional argument", args: []string{"extra"}, want: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := rootCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(append(tt.args, "--env-file", missingEnv))

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
