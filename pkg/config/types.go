package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent thoughtwire configuration stored as
// config.toml in the .thoughtwire/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Relay       RelayConfig       `toml:"relay"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Render      RenderConfig      `toml:"render"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// StorageConfig selects the message store shared by the relay and API.
// PostgresDSN wins over SQLitePath; with neither set, storage is in-memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// RelayConfig holds relay settings.
type RelayConfig struct {
	Listen       string `toml:"listen,omitempty"`
	Upstream     string `toml:"upstream,omitempty"`
	UpstreamPath string `toml:"upstream_path,omitempty"`
	Timeout      string `toml:"timeout,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to the running
// relay and API servers (e.g. thoughtwire chat). Targets are full URLs
// (scheme + host + port).
type ClientConfig struct {
	RelayTarget string `toml:"relay_target,omitempty"`
	APITarget   string `toml:"api_target,omitempty"`
	UserID      string `toml:"user_id,omitempty"`
}

// RenderConfig holds transcript rendering settings for the chat TUI.
type RenderConfig struct {
	Profile  string `toml:"profile,omitempty"`
	WindowMS uint   `toml:"window_ms,omitempty"`
}

// EventStreamConfig selects where persisted-message events are published.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// BrokerList splits the comma separated broker list.
func (e EventStreamConfig) BrokerList() []string {
	var brokers []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func oneOf(key string, allowed ...string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return fmt.Errorf("invalid value for %s: %q (want one of %s)", key, v, strings.Join(allowed, ", "))
	}
}

var (
	validProfile     = oneOf("render.profile", "auto", "compact", "verbose")
	validEventStream = oneOf("eventstream.provider", "nop", "kafka")
)

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"relay.listen": {
		get: func(c *Config) string { return c.Relay.Listen },
		set: func(c *Config, v string) error { c.Relay.Listen = v; return nil },
	},
	"relay.upstream": {
		get: func(c *Config) string { return c.Relay.Upstream },
		set: func(c *Config, v string) error { c.Relay.Upstream = v; return nil },
	},
	"relay.upstream_path": {
		get: func(c *Config) string { return c.Relay.UpstreamPath },
		set: func(c *Config, v string) error { c.Relay.UpstreamPath = v; return nil },
	},
	"relay.timeout": {
		get: func(c *Config) string { return c.Relay.Timeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for relay.timeout: %w", err)
			}
			c.Relay.Timeout = v
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.relay_target": {
		get: func(c *Config) string { return c.Client.RelayTarget },
		set: func(c *Config, v string) error { c.Client.RelayTarget = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.user_id": {
		get: func(c *Config) string { return c.Client.UserID },
		set: func(c *Config, v string) error { c.Client.UserID = v; return nil },
	},
	"render.profile": {
		get: func(c *Config) string { return c.Render.Profile },
		set: func(c *Config, v string) error {
			if err := validProfile(v); err != nil {
				return err
			}
			c.Render.Profile = v
			return nil
		},
	},
	"render.window_ms": {
		get: func(c *Config) string {
			if c.Render.WindowMS == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Render.WindowMS), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for render.window_ms: %w", err)
			}
			c.Render.WindowMS = uint(n)
			return nil
		},
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			if err := validEventStream(v); err != nil {
				return err
			}
			c.EventStream.Provider = v
			return nil
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.EventStream.Brokers },
		set: func(c *Config, v string) error { c.EventStream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}

// TimeoutDuration parses Relay.Timeout. An empty value means no override.
func (r RelayConfig) TimeoutDuration() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid relay timeout %q: %w", r.Timeout, err)
	}
	return d, nil
}
