package config

import (
	"slices"
	"time"
)

const (
	// Monitor Defaults
	DefaultTargetURL            = "https://www.windsorcommunities.com/properties/windsor-winchester/floorplans/"
	DefaultCheckIntervalSeconds = 20
	DefaultFetchTimeoutSecs     = 60

	// Fetcher Defaults
	DefaultFetcherEngine    = "browser"
	DefaultFetcherUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultWindowWidth      = 1920
	DefaultWindowHeight     = 1080
	DefaultWaitForUnitsSecs = 15
	DefaultFallbackWaitSecs = 3

	// Filter Defaults
	DefaultMinBedrooms = 2

	// Notification Defaults
	DefaultPushMethod      = "pushplus"
	DefaultSMTPPort        = 587
	DefaultSendTimeoutSecs = 10
	DefaultSecretsDir      = "secrets"

	// Storage Defaults
	DefaultSnapshotFile = "available_apartments.json"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3
)

// Fetcher engines
const (
	FetcherEngineBrowser = "browser"
	FetcherEngineStatic  = "static"
)

// Push methods
const (
	PushMethodPushPlus   = "pushplus"
	PushMethodServerChan = "serverchan"
	PushMethodWork       = "work"
)

// PushMethods lists the accepted push method tags in CLI help order.
var PushMethods = []string{PushMethodPushPlus, PushMethodServerChan, PushMethodWork}

type GlobalConfig struct {
	FetcherConfig      FetcherConfig      `json:"fetcher_config,omitempty" yaml:"fetcher_config,omitempty"`
	FilterConfig       FilterConfig       `json:"filter_config,omitempty" yaml:"filter_config,omitempty"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MonitorConfig      MonitorConfig      `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		FetcherConfig:      NewDefaultFetcherConfig(),
		FilterConfig:       NewDefaultFilterConfig(),
		LogConfig:          NewDefaultLogConfig(),
		MonitorConfig:      NewDefaultMonitorConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
	}
}

// Clone returns a deep copy so callers can hand out values without sharing slices.
func (c *GlobalConfig) Clone() *GlobalConfig {
	dst := *c
	dst.FetcherConfig.BrowserArgs = slices.Clone(c.FetcherConfig.BrowserArgs)
	dst.FilterConfig.FloorPlans = slices.Clone(c.FilterConfig.FloorPlans)
	if c.FilterConfig.MinBedrooms != nil {
		v := *c.FilterConfig.MinBedrooms
		dst.FilterConfig.MinBedrooms = &v
	}
	dst.NotificationConfig.Email.To = slices.Clone(c.NotificationConfig.Email.To)
	return &dst
}

type MonitorConfig struct {
	TargetURL            string `json:"target_url,omitempty" yaml:"target_url,omitempty" validate:"required,url"`
	CheckIntervalSeconds int    `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"min=1"`
	FetchTimeoutSecs     int    `json:"fetch_timeout_secs,omitempty" yaml:"fetch_timeout_secs,omitempty" validate:"min=1"`
	// MaxChecks stops the loop after that many checks. 0 runs until interrupted.
	MaxChecks int `json:"max_checks,omitempty" yaml:"max_checks,omitempty" validate:"min=0"`
	// MetricsAddr serves Prometheus metrics on host:port when set.
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty" validate:"omitempty,hostname_port"`
}

func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		TargetURL:            DefaultTargetURL,
		CheckIntervalSeconds: DefaultCheckIntervalSeconds,
		FetchTimeoutSecs:     DefaultFetchTimeoutSecs,
	}
}

// CheckInterval returns the sleep between two checks.
func (mc MonitorConfig) CheckInterval() time.Duration {
	return time.Duration(mc.CheckIntervalSeconds) * time.Second
}

// FetchTimeout returns the bound of a single fetch attempt.
func (mc MonitorConfig) FetchTimeout() time.Duration {
	return time.Duration(mc.FetchTimeoutSecs) * time.Second
}

type FetcherConfig struct {
	Engine           string   `json:"engine,omitempty" yaml:"engine,omitempty" validate:"fetchengine"`
	Headless         bool     `json:"headless" yaml:"headless"`
	ChromePath       string   `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	UserDataDir      string   `json:"user_data_dir,omitempty" yaml:"user_data_dir,omitempty"`
	UserAgent        string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	WindowWidth      int      `json:"window_width,omitempty" yaml:"window_width,omitempty" validate:"omitempty,min=100"`
	WindowHeight     int      `json:"window_height,omitempty" yaml:"window_height,omitempty" validate:"omitempty,min=100"`
	WaitForUnitsSecs int      `json:"wait_for_units_secs,omitempty" yaml:"wait_for_units_secs,omitempty" validate:"omitempty,min=1"`
	FallbackWaitSecs int      `json:"fallback_wait_secs,omitempty" yaml:"fallback_wait_secs,omitempty" validate:"omitempty,min=0"`
	BrowserArgs      []string `json:"browser_args,omitempty" yaml:"browser_args,omitempty"`
}

func NewDefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Engine:           DefaultFetcherEngine,
		Headless:         true,
		UserAgent:        DefaultFetcherUserAgent,
		WindowWidth:      DefaultWindowWidth,
		WindowHeight:     DefaultWindowHeight,
		WaitForUnitsSecs: DefaultWaitForUnitsSecs,
		FallbackWaitSecs: DefaultFallbackWaitSecs,
		BrowserArgs:      []string{},
	}
}

// FilterConfig declares which units are worth a notification.
type FilterConfig struct {
	FloorPlans  []string `json:"floor_plans,omitempty" yaml:"floor_plans,omitempty" validate:"omitempty,dive,required"`
	MinBedrooms *int     `json:"min_bedrooms,omitempty" yaml:"min_bedrooms,omitempty" validate:"omitempty,min=0"`
}

func NewDefaultFilterConfig() FilterConfig {
	minBedrooms := DefaultMinBedrooms
	return FilterConfig{
		FloorPlans:  []string{},
		MinBedrooms: &minBedrooms,
	}
}

type NotificationConfig struct {
	SendTimeoutSecs int         `json:"send_timeout_secs,omitempty" yaml:"send_timeout_secs,omitempty" validate:"min=1"`
	SecretsDir      string      `json:"secrets_dir,omitempty" yaml:"secrets_dir,omitempty"`
	Proxy           string      `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	Push            PushConfig  `json:"push,omitempty" yaml:"push,omitempty"`
	Email           EmailConfig `json:"email,omitempty" yaml:"email,omitempty"`
}

func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		SendTimeoutSecs: DefaultSendTimeoutSecs,
		SecretsDir:      DefaultSecretsDir,
		Push: PushConfig{
			Method: DefaultPushMethod,
		},
		Email: EmailConfig{
			To:       []string{},
			SMTPPort: DefaultSMTPPort,
		},
	}
}

// SendTimeout returns the bound of a single channel send.
func (nc NotificationConfig) SendTimeout() time.Duration {
	return time.Duration(nc.SendTimeoutSecs) * time.Second
}

// PushConfig configures the push-message channel. Endpoint overrides the provider host.
type PushConfig struct {
	Method   string `json:"method,omitempty" yaml:"method,omitempty" validate:"pushmethod"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
}

// Enabled reports whether every required field is set.
func (pc PushConfig) Enabled() bool {
	return pc.Method != "" && pc.Token != ""
}

type EmailConfig struct {
	To           []string `json:"email_to,omitempty" yaml:"email_to,omitempty" validate:"omitempty,dive,email"`
	From         string   `json:"email_from,omitempty" yaml:"email_from,omitempty" validate:"omitempty,email"`
	SMTPServer   string   `json:"smtp_server,omitempty" yaml:"smtp_server,omitempty" validate:"omitempty,hostname|ip"`
	SMTPPort     int      `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
	SMTPUsername string   `json:"smtp_username,omitempty" yaml:"smtp_username,omitempty"`
	SMTPPassword string   `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
}

// Enabled reports whether every required field is set.
func (ec EmailConfig) Enabled() bool {
	return len(ec.To) > 0 && ec.From != "" && ec.SMTPServer != "" && ec.SMTPPort > 0 && ec.SMTPPassword != ""
}

// Username returns the SMTP login, falling back to the sender address.
func (ec EmailConfig) Username() string {
	if ec.SMTPUsername != "" {
		return ec.SMTPUsername
	}
	return ec.From
}

type StorageConfig struct {
	SnapshotFile string `json:"snapshot_file,omitempty" yaml:"snapshot_file,omitempty" validate:"required"`
	ReportFile   string `json:"report_file,omitempty" yaml:"report_file,omitempty"`
}

func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		SnapshotFile: DefaultSnapshotFile,
	}
}

type LogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty"`
}

func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFile:       DefaultLogFile,
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
	}
}
