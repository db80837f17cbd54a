package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, DefaultTargetURL, cfg.MonitorConfig.TargetURL)
	assert.Equal(t, 20, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, FetcherEngineBrowser, cfg.FetcherConfig.Engine)
	assert.True(t, cfg.FetcherConfig.Headless)
	assert.Equal(t, PushMethodPushPlus, cfg.NotificationConfig.Push.Method)
	assert.Equal(t, 587, cfg.NotificationConfig.Email.SMTPPort)
	require.NotNil(t, cfg.FilterConfig.MinBedrooms)
	assert.Equal(t, 2, *cfg.FilterConfig.MinBedrooms)
	assert.Empty(t, cfg.FilterConfig.FloorPlans)
	assert.Equal(t, DefaultSnapshotFile, cfg.StorageConfig.SnapshotFile)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig("/nonexistent/config.json")

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	configData := `
monitor_config:
  check_interval_seconds: 45
fetcher_config:
  engine: static
filter_config:
  floor_plans: ["a", "b"]
  min_bedrooms: null
notification_config:
  push:
    method: work
log_config:
  log_level: debug
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.MonitorConfig.CheckIntervalSeconds)
	assert.Equal(t, DefaultTargetURL, cfg.MonitorConfig.TargetURL, "unset values keep defaults")
	assert.Equal(t, FetcherEngineStatic, cfg.FetcherConfig.Engine)
	assert.True(t, cfg.FetcherConfig.Headless)
	assert.Equal(t, []string{"a", "b"}, cfg.FilterConfig.FloorPlans)
	assert.Nil(t, cfg.FilterConfig.MinBedrooms, "null disables the size filter")
	assert.Equal(t, PushMethodWork, cfg.NotificationConfig.Push.Method)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	configData := `{
		"monitor_config": {"target_url": "https://example.com/floorplans/"},
		"storage_config": {"snapshot_file": "state/units.json"}
	}`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/floorplans/", cfg.MonitorConfig.TargetURL)
	assert.Equal(t, "state/units.json", cfg.StorageConfig.SnapshotFile)
}

func TestLoadGlobalConfig_InvalidContent(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configFile, []byte("{not json"), 0644))

	cfg, err := LoadGlobalConfig(configFile)
	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "failed to parse config content")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *GlobalConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *GlobalConfig) {},
		},
		{
			name:    "unknown push method",
			mutate:  func(cfg *GlobalConfig) { cfg.NotificationConfig.Push.Method = "telegram" },
			wantErr: "NotificationConfig.Push.Method': rule 'pushmethod'",
		},
		{
			name:   "empty push method disables the channel",
			mutate: func(cfg *GlobalConfig) { cfg.NotificationConfig.Push.Method = "" },
		},
		{
			name:    "zero interval",
			mutate:  func(cfg *GlobalConfig) { cfg.MonitorConfig.CheckIntervalSeconds = 0 },
			wantErr: "MonitorConfig.CheckIntervalSeconds': rule 'min'",
		},
		{
			name:    "unknown engine",
			mutate:  func(cfg *GlobalConfig) { cfg.FetcherConfig.Engine = "selenium" },
			wantErr: "rule 'fetchengine'",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *GlobalConfig) { cfg.LogConfig.LogLevel = "loud" },
			wantErr: "rule 'loglevel'",
		},
		{
			name:    "bad recipient",
			mutate:  func(cfg *GlobalConfig) { cfg.NotificationConfig.Email.To = []string{"not-an-address"} },
			wantErr: "rule 'email'",
		},
		{
			name:    "bad notification proxy",
			mutate:  func(cfg *GlobalConfig) { cfg.NotificationConfig.Proxy = "not a proxy" },
			wantErr: "NotificationConfig.Proxy': rule 'url'",
		},
		{
			name: "negative minimum bedrooms",
			mutate: func(cfg *GlobalConfig) {
				v := -1
				cfg.FilterConfig.MinBedrooms = &v
			},
			wantErr: "rule 'min'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGlobalConfig_Clone(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.FilterConfig.FloorPlans = []string{"A"}
	cfg.NotificationConfig.Email.To = []string{"a@example.com"}

	clone := cfg.Clone()
	clone.FilterConfig.FloorPlans[0] = "Z"
	clone.NotificationConfig.Email.To[0] = "z@example.com"
	*clone.FilterConfig.MinBedrooms = 9

	assert.Equal(t, "A", cfg.FilterConfig.FloorPlans[0])
	assert.Equal(t, "a@example.com", cfg.NotificationConfig.Email.To[0])
	assert.Equal(t, 2, *cfg.FilterConfig.MinBedrooms)
}

func TestChannelEnabled(t *testing.T) {
	assert.False(t, PushConfig{Method: PushMethodPushPlus}.Enabled())
	assert.True(t, PushConfig{Method: PushMethodPushPlus, Token: "t"}.Enabled())

	email := EmailConfig{
		To:           []string{"a@example.com"},
		From:         "me@example.com",
		SMTPServer:   "smtp.example.com",
		SMTPPort:     587,
		SMTPPassword: "secret",
	}
	assert.True(t, email.Enabled())
	assert.Equal(t, "me@example.com", email.Username())

	email.SMTPUsername = "login"
	assert.Equal(t, "login", email.Username())

	email.SMTPPassword = ""
	assert.False(t, email.Enabled())
}

func fakeEnv(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestSecretsResolver_PushTokenPrecedence(t *testing.T) {
	dir := t.TempDir()
	env := fakeEnv(map[string]string{EnvPushToken: "env-token"})
	nc := NewDefaultNotificationConfig()
	nc.Push.Token = "config-token"

	resolver := NewSecretsResolver(dir, zerolog.Nop()).WithLookupEnv(env)
	assert.Equal(t, "env-token", resolver.Resolve(nc).Push.Token)

	require.NoError(t, os.WriteFile(filepath.Join(dir, PushTokenFile), []byte("  file-token\n"), 0600))
	assert.Equal(t, "file-token", resolver.Resolve(nc).Push.Token)

	empty := NewSecretsResolver(t.TempDir(), zerolog.Nop()).WithLookupEnv(fakeEnv(nil))
	assert.Equal(t, "config-token", empty.Resolve(nc).Push.Token)
}

func TestSecretsResolver_EmailPrecedence(t *testing.T) {
	dir := t.TempDir()
	emailJSON := `{
		"email_to": "file@example.com",
		"email_from": "file-sender@example.com",
		"smtp_server": "smtp.file.example.com",
		"smtp_port": 465,
		"smtp_password": "file-pass"
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, EmailConfigFile), []byte(emailJSON), 0600))

	env := fakeEnv(map[string]string{
		EnvEmailTo:    "a@example.com, b@example.com,",
		EnvSMTPServer: "smtp.env.example.com",
	})

	nc := NewDefaultNotificationConfig()
	nc.Email.SMTPUsername = "config-user"

	resolved := NewSecretsResolver(dir, zerolog.Nop()).WithLookupEnv(env).Resolve(nc)

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, resolved.Email.To)
	assert.Equal(t, "file-sender@example.com", resolved.Email.From)
	assert.Equal(t, "smtp.env.example.com", resolved.Email.SMTPServer)
	assert.Equal(t, 465, resolved.Email.SMTPPort)
	assert.Equal(t, "file-pass", resolved.Email.SMTPPassword)
	assert.Equal(t, "config-user", resolved.Email.SMTPUsername)
	assert.True(t, resolved.Email.Enabled())
}

func TestSecretsResolver_EnvPortWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EmailConfigFile), []byte(`{"smtp_port": 465, "email_to": ["x@example.com"]}`), 0600))

	resolved := NewSecretsResolver(dir, zerolog.Nop()).
		WithLookupEnv(fakeEnv(map[string]string{EnvSMTPPort: "2525"})).
		Resolve(NewDefaultNotificationConfig())
	assert.Equal(t, 2525, resolved.Email.SMTPPort)
	assert.Equal(t, []string{"x@example.com"}, resolved.Email.To)

	invalid := NewSecretsResolver(t.TempDir(), zerolog.Nop()).
		WithLookupEnv(fakeEnv(map[string]string{EnvSMTPPort: "abc"})).
		Resolve(NewDefaultNotificationConfig())
	assert.Equal(t, DefaultSMTPPort, invalid.Email.SMTPPort)
}

func TestSecretsResolver_CorruptEmailConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EmailConfigFile), []byte("{"), 0600))

	resolved := NewSecretsResolver(dir, zerolog.Nop()).WithLookupEnv(fakeEnv(nil)).Resolve(NewDefaultNotificationConfig())
	assert.Empty(t, resolved.Email.To)
	assert.False(t, resolved.Email.Enabled())
}

func TestLoadDotEnv(t *testing.T) {
	loaded, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
	assert.False(t, loaded)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("UNITWATCH_TEST_DOTENV=from-file\n"), 0600))
	t.Setenv("UNITWATCH_TEST_DOTENV", "from-env")

	loaded, err = LoadDotEnv(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "from-env", os.Getenv("UNITWATCH_TEST_DOTENV"), "existing variables are not overridden")
}
