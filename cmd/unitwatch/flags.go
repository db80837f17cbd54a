package main

import (
	"fmt"
	"strings"

	"github.com/aleister1102/unitwatch/internal/config"
	"github.com/spf13/pflag"
)

// AppFlags holds the command-line overrides. Only flags the user set are applied.
type AppFlags struct {
	GlobalConfigFile string
	IntervalSeconds  int
	PushMethod       string
	NoHeadless       bool
	MaxChecks        int
	MetricsAddr      string
	EnvFile          string

	set *pflag.FlagSet
}

func (f *AppFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.GlobalConfigFile, "config", "c", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	fs.IntVarP(&f.IntervalSeconds, "interval", "i", config.DefaultCheckIntervalSeconds, "Check interval in seconds")
	fs.StringVar(&f.PushMethod, "wechat-method", config.DefaultPushMethod,
		fmt.Sprintf("Push notification method (%s)", strings.Join(config.PushMethods, ", ")))
	fs.BoolVar(&f.NoHeadless, "no-headless", false, "Show the browser window")
	fs.IntVar(&f.MaxChecks, "max-checks", 0, "Stop after this many checks (0 runs until interrupted)")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on host:port")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "Optional KEY=VALUE file loaded before reading the environment")
	f.set = fs
}

// Apply copies every explicitly set flag onto cfg.
func (f *AppFlags) Apply(cfg *config.GlobalConfig) {
	if f.changed("interval") {
		cfg.MonitorConfig.CheckIntervalSeconds = f.IntervalSeconds
	}
	if f.changed("wechat-method") {
		cfg.NotificationConfig.Push.Method = f.PushMethod
	}
	if f.NoHeadless {
		cfg.FetcherConfig.Headless = false
	}
	if f.changed("max-checks") {
		cfg.MonitorConfig.MaxChecks = f.MaxChecks
	}
	if f.changed("metrics-addr") {
		cfg.MonitorConfig.MetricsAddr = f.MetricsAddr
	}
}

func (f *AppFlags) changed(name string) bool {
	return f.set != nil && f.set.Changed(name)
}
