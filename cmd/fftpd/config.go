package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// appConfig holds the fully-resolved server configuration, after
// flags and environment overrides (FFTPD_*) have been applied.
type appConfig struct {
	addr            string
	root            string
	chunkSize       int
	daemon          bool
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
	forward         bool
	cacheIdleTO     time.Duration
	mdnsEnable      bool
	mdnsName        string
}

func parseFlags(args []string) (*appConfig, bool, error) {
	fs := flag.NewFlagSet("fftpd", flag.ContinueOnError)
	cfg := &appConfig{}

	bufSize := fs.Int("buffer-size", 4096, "Preferred chunk size for Part data (bytes)")
	fs.IntVar(bufSize, "b", 4096, "Shorthand for --buffer-size")
	daemon := fs.Bool("daemon", false, "Detach from the controlling terminal")
	fs.BoolVar(daemon, "d", false, "Shorthand for --daemon")
	logFormat := fs.String("log-format", "text", "Log format: text|json")
	logLevel := fs.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := fs.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := fs.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters")
	forward := fs.Bool("upnp", false, "Acquire a UPnP/IGD port mapping for the bind address")
	cacheIdleTO := fs.Duration("cache-idle-timeout", 0, "Evict file handles idle longer than this (0 disables eviction)")
	mdnsEnable := fs.Bool("mdns-enable", false, "Enable mDNS/LAN advertisement")
	mdnsName := fs.String("mdns-name", "", "mDNS instance name (default fftpd-<hostname>)")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if *showVersion {
		return nil, true, nil
	}

	pos := fs.Args()
	if len(pos) < 2 {
		return nil, false, errors.New("usage: fftpd ADDR PATH [flags]")
	}
	cfg.addr = pos[0]
	cfg.root = pos[1]
	cfg.chunkSize = *bufSize
	cfg.daemon = *daemon
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.forward = *forward
	cfg.cacheIdleTO = *cacheIdleTO
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName

	set := map[string]struct{}{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = struct{}{} })
	if err := applyEnvOverrides(cfg, set); err != nil {
		return nil, false, err
	}
	if err := cfg.validate(); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// validate checks the resolved values. Its only filesystem access is a
// stat of PATH to confirm it is a directory; it does not touch the
// network (binding happens in server.Serve).
func (c *appConfig) validate() error {
	if c.addr == "" {
		return errors.New("ADDR is required")
	}
	if c.root == "" {
		return errors.New("PATH is required")
	}
	info, err := os.Stat(c.root)
	if err != nil {
		return fmt.Errorf("PATH: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("PATH %q is not a directory", c.root)
	}
	if c.chunkSize <= 0 {
		return fmt.Errorf("buffer-size must be > 0 (got %d)", c.chunkSize)
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.cacheIdleTO < 0 {
		return errors.New("cache-idle-timeout must be >= 0")
	}
	return nil
}

// applyEnvOverrides maps FFTPD_* environment variables onto cfg,
// unless the corresponding flag was explicitly set (flags win).
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	// The -b and -d shorthands set the same values as their long forms.
	if _, ok := set["b"]; ok {
		set["buffer-size"] = struct{}{}
	}
	if _, ok := set["d"]; ok {
		set["daemon"] = struct{}{}
	}

	if _, ok := set["buffer-size"]; !ok {
		if v, ok := get("FFTPD_BUFFER_SIZE"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.chunkSize = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid FFTPD_BUFFER_SIZE: %w", err)
			}
		}
	}
	if _, ok := set["daemon"]; !ok {
		if v, ok := get("FFTPD_DAEMON"); ok && v != "" {
			c.daemon = truthy(v)
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("FFTPD_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("FFTPD_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("FFTPD_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("FFTPD_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid FFTPD_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	if _, ok := set["upnp"]; !ok {
		if v, ok := get("FFTPD_UPNP"); ok && v != "" {
			c.forward = truthy(v)
		}
	}
	if _, ok := set["cache-idle-timeout"]; !ok {
		if v, ok := get("FFTPD_CACHE_IDLE_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.cacheIdleTO = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid FFTPD_CACHE_IDLE_TIMEOUT: %w", err)
			}
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("FFTPD_MDNS_ENABLE"); ok && v != "" {
			c.mdnsEnable = truthy(v)
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("FFTPD_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	return firstErr
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
