package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aleister1102/unitwatch/internal/common/errorwrapper"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment variables carrying channel credentials.
const (
	EnvPushToken    = "WECHAT_TOKEN"
	EnvEmailTo      = "EMAIL_TO"
	EnvEmailFrom    = "EMAIL_FROM"
	EnvSMTPServer   = "SMTP_SERVER"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUsername = "SMTP_USERNAME"
	EnvSMTPPassword = "SMTP_PASSWORD"
)

// Files looked up inside the secrets directory.
const (
	PushTokenFile   = "wechat_token.txt"
	EmailConfigFile = "email_config.json"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already present in the environment win. A missing file is not an error.
func LoadDotEnv(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, errorwrapper.WrapErrorf(err, "failed to load env file '%s'", path)
	}
	return true, nil
}

// emailSecrets mirrors secrets/email_config.json.
type emailSecrets struct {
	EmailTo      stringList `json:"email_to"`
	EmailFrom    string     `json:"email_from"`
	SMTPServer   string     `json:"smtp_server"`
	SMTPPort     int        `json:"smtp_port"`
	SMTPUsername string     `json:"smtp_username"`
	SMTPPassword string     `json:"smtp_password"`
}

// stringList accepts either a single JSON string or an array of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = splitList(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = compactList(many)
	return nil
}

// SecretsResolver fills channel credentials from secrets files and the environment.
// Push token: secrets file, then environment, then config file.
// Email fields: environment, then email_config.json, then config file.
type SecretsResolver struct {
	dir       string
	lookupEnv func(string) (string, bool)
	logger    zerolog.Logger
}

// NewSecretsResolver creates a resolver reading files from dir and the process environment.
func NewSecretsResolver(dir string, logger zerolog.Logger) *SecretsResolver {
	return &SecretsResolver{
		dir:       dir,
		lookupEnv: os.LookupEnv,
		logger:    logger.With().Str("component", "SecretsResolver").Logger(),
	}
}

// WithLookupEnv replaces the environment lookup.
func (r *SecretsResolver) WithLookupEnv(fn func(string) (string, bool)) *SecretsResolver {
	r.lookupEnv = fn
	return r
}

// Resolve returns a copy of nc with credentials filled in.
func (r *SecretsResolver) Resolve(nc NotificationConfig) NotificationConfig {
	out := nc
	out.Email.To = compactList(nc.Email.To)

	out.Push.Token = r.resolvePushToken(nc.Push.Token)
	out.Email = r.resolveEmail(out.Email)
	return out
}

func (r *SecretsResolver) resolvePushToken(fromConfig string) string {
	tokenPath := filepath.Join(r.dir, PushTokenFile)
	if data, err := os.ReadFile(tokenPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			r.logger.Info().Str("file", tokenPath).Msg("Push token loaded from secrets file")
			return token
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn().Err(err).Str("file", tokenPath).Msg("Failed to read push token file")
	}

	if token := r.env(EnvPushToken); token != "" {
		r.logger.Info().Str("env", EnvPushToken).Msg("Push token loaded from environment variable")
		return token
	}
	return fromConfig
}

func (r *SecretsResolver) resolveEmail(cfg EmailConfig) EmailConfig {
	fileSecrets := r.readEmailSecrets()

	if to := splitList(r.env(EnvEmailTo)); len(to) > 0 {
		cfg.To = to
	} else if len(fileSecrets.EmailTo) > 0 {
		cfg.To = fileSecrets.EmailTo
	}
	cfg.From = firstNonEmpty(r.env(EnvEmailFrom), fileSecrets.EmailFrom, cfg.From)
	cfg.SMTPServer = firstNonEmpty(r.env(EnvSMTPServer), fileSecrets.SMTPServer, cfg.SMTPServer)
	cfg.SMTPUsername = firstNonEmpty(r.env(EnvSMTPUsername), fileSecrets.SMTPUsername, cfg.SMTPUsername)
	cfg.SMTPPassword = firstNonEmpty(r.env(EnvSMTPPassword), fileSecrets.SMTPPassword, cfg.SMTPPassword)

	if rawPort := r.env(EnvSMTPPort); rawPort != "" {
		port, err := strconv.Atoi(rawPort)
		if err != nil || port <= 0 {
			r.logger.Warn().Str("env", EnvSMTPPort).Str("value", rawPort).Msg("Ignoring invalid SMTP port")
		} else {
			cfg.SMTPPort = port
			return cfg
		}
	}
	if fileSecrets.SMTPPort > 0 {
		cfg.SMTPPort = fileSecrets.SMTPPort
	}
	return cfg
}

func (r *SecretsResolver) readEmailSecrets() emailSecrets {
	var secrets emailSecrets
	path := filepath.Join(r.dir, EmailConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn().Err(err).Str("file", path).Msg("Failed to read email config")
		}
		return secrets
	}
	if err := json.Unmarshal(data, &secrets); err != nil {
		r.logger.Warn().Err(err).Str("file", path).Msg("Failed to parse email config")
		return emailSecrets{}
	}
	r.logger.Info().Str("file", path).Msg("Email config loaded from secrets file")
	return secrets
}

func (r *SecretsResolver) env(key string) string {
	v, ok := r.lookupEnv(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	return compactList(strings.Split(raw, ","))
}

func compactList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
