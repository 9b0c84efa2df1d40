package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server ServerConfig
	Chat   ChatConfig
	Remote RemoteConfig
	Log    LogConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// ChatConfig tunes the session behaviour.
type ChatConfig struct {
	MinDelay      time.Duration
	MaxDelay      time.Duration
	IdleTTL       time.Duration
	SweepInterval time.Duration
	ResponsesFile string
}

// RemoteConfig points sessions at an external chat endpoint.
type RemoteConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// Enabled reports whether replies should come from the remote endpoint.
func (c RemoteConfig) Enabled() bool {
	return c.Endpoint != ""
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Level       string
	Development bool
}

const (
	keyPort          = "port"
	keyMinDelay      = "chat.min_delay"
	keyMaxDelay      = "chat.max_delay"
	keyIdleTTL       = "chat.idle_ttl"
	keySweepInterval = "chat.sweep_interval"
	keyResponsesFile = "chat.responses_file"
	keyAPIEndpoint   = "chat.api_endpoint"
	keyAPITimeout    = "chat.api_timeout"
	keyLogLevel      = "log.level"
	keyLogDev        = "log.development"
)

// New returns a viper instance bound to the environment with defaults set.
// Nested keys map to upper-case env names, e.g. chat.min_delay -> CHAT_MIN_DELAY.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyMinDelay, "1s")
	v.SetDefault(keyMaxDelay, "3s")
	v.SetDefault(keyIdleTTL, "30m")
	v.SetDefault(keySweepInterval, "1m")
	v.SetDefault(keyResponsesFile, "")
	v.SetDefault(keyAPIEndpoint, "")
	v.SetDefault(keyAPITimeout, "10s")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogDev, false)
	return v
}

// Load reads configuration from the environment and, when configFile is
// set, from that YAML file. Environment values win over the file.
func Load(configFile string) (*Config, error) {
	v := New()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	server, err := loadServerConfig(v)
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig(v)
	if err != nil {
		return nil, err
	}

	remote, err := loadRemoteConfig(v)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Chat:   chat,
		Remote: remote,
		Log: LogConfig{
			Level:       strings.TrimSpace(v.GetString(keyLogLevel)),
			Development: v.GetBool(keyLogDev),
		},
	}, nil
}

// loadServerConfig resolves the listen address.
func loadServerConfig(v *viper.Viper) (ServerConfig, error) {
	port := strings.TrimSpace(v.GetString(keyPort))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are taken as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadChatConfig(v *viper.Viper) (ChatConfig, error) {
	minDelay, err := parseDuration(v, keyMinDelay)
	if err != nil {
		return ChatConfig{}, err
	}
	maxDelay, err := parseDuration(v, keyMaxDelay)
	if err != nil {
		return ChatConfig{}, err
	}
	if minDelay < 0 || maxDelay < minDelay {
		return ChatConfig{}, fmt.Errorf("invalid typing delay range [%s, %s]", minDelay, maxDelay)
	}

	idleTTL, err := parseDuration(v, keyIdleTTL)
	if err != nil {
		return ChatConfig{}, err
	}
	sweep, err := parseDuration(v, keySweepInterval)
	if err != nil {
		return ChatConfig{}, err
	}
	if sweep <= 0 {
		return ChatConfig{}, errors.New("CHAT_SWEEP_INTERVAL must be positive")
	}

	return ChatConfig{
		MinDelay:      minDelay,
		MaxDelay:      maxDelay,
		IdleTTL:       idleTTL,
		SweepInterval: sweep,
		ResponsesFile: strings.TrimSpace(v.GetString(keyResponsesFile)),
	}, nil
}

func loadRemoteConfig(v *viper.Viper) (RemoteConfig, error) {
	timeout, err := parseDuration(v, keyAPITimeout)
	if err != nil {
		return RemoteConfig{}, err
	}

	return RemoteConfig{
		Endpoint: strings.TrimSpace(v.GetString(keyAPIEndpoint)),
		Timeout:  timeout,
	}, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", envName(key), raw, err)
	}
	return val, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
