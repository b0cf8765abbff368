package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-mpris-bridge/logger"
)

const (
	AppName     = "mpris-bridge"
	AppVersion  = "0.1.0"
	serviceType = "_mpris-ws._tcp"
	domain      = "local."
)

type Config struct {
	Bind     string
	WS       *WSConfig
	Art      *ArtConfig
	MPRIS    *MPRISConfig
	Zeroconf *ZeroConfig
	LogLevel logger.Level
}

type WSConfig struct {
	Port int
}

type ArtConfig struct {
	Port int
	// BaseURL is the address prefix clients use to fetch rewritten art URLs,
	// e.g. "http://localhost:8766".
	BaseURL     string
	Placeholder string
	CacheTTL    time.Duration
}

type MPRISConfig struct {
	Timeout         time.Duration
	RefreshInterval time.Duration
}

type ZeroConfig struct {
	Enabled      bool
	InstanceName string
	ServiceType  string
	Domain       string
	Port         int
	TxtRecords   []string
}

// parseLogLevel converts a string to a logger.Level
func parseLogLevel(levelStr string) logger.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return logger.DEBUG
	case "INFO":
		return logger.INFO
	case "WARN":
		return logger.WARN
	case "ERROR":
		return logger.ERROR
	case "FATAL":
		return logger.FATAL
	default:
		return logger.INFO
	}
}

func validatePort(key string) (int, error) {
	port := viper.GetInt(key)
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid %s: %d", key, port)
	}
	return port, nil
}

func New() (*Config, error) {
	viper.SetDefault("bind", "0.0.0.0")
	viper.SetDefault("ws.port", 8765)

	viper.SetDefault("art.port", 8766)
	viper.SetDefault("art.base_url", "")
	viper.SetDefault("art.placeholder", "")
	viper.SetDefault("art.cache_ttl", "10s")

	viper.SetDefault("mpris.timeout", "5s")
	viper.SetDefault("refresh.interval", "5s")

	viper.SetDefault("zeroconf.enabled", true)
	viper.SetDefault("LogLevel", "INFO")

	// Load from configuration file when present, defaults otherwise
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(filepath.Join("/etc", AppName))
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", AppName))
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with defaults if not found
		if _, isNotFound := err.(viper.ConfigFileNotFoundError); !isNotFound {
			logger.Warn("failed to read config: %v", err)
		}
	}

	wsPort, err := validatePort("ws.port")
	if err != nil {
		return nil, err
	}
	artPort, err := validatePort("art.port")
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(viper.GetString("art.base_url"), "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", artPort)
	}

	cacheTTL := viper.GetDuration("art.cache_ttl")
	if cacheTTL < 0 {
		cacheTTL = 0
	}

	mprisTimeout := viper.GetDuration("mpris.timeout")
	if mprisTimeout <= 0 {
		mprisTimeout = 5 * time.Second
	}

	refreshInterval := viper.GetDuration("refresh.interval")
	if refreshInterval < time.Second {
		refreshInterval = 5 * time.Second
	}

	cfg := Config{
		Bind: viper.GetString("bind"),
		WS: &WSConfig{
			Port: wsPort,
		},
		Art: &ArtConfig{
			Port:        artPort,
			BaseURL:     baseURL,
			Placeholder: viper.GetString("art.placeholder"),
			CacheTTL:    cacheTTL,
		},
		MPRIS: &MPRISConfig{
			Timeout:         mprisTimeout,
			RefreshInterval: refreshInterval,
		},
		Zeroconf: &ZeroConfig{
			Enabled:      viper.GetBool("zeroconf.enabled"),
			InstanceName: AppName,
			ServiceType:  serviceType,
			Domain:       domain,
			Port:         wsPort,
			TxtRecords:   []string{"version=" + AppVersion},
		},
		LogLevel: parseLogLevel(viper.GetString("LogLevel")),
	}

	return &cfg, nil
}

// Watch applies LogLevel changes from the config file at runtime.
// Only the log level is hot-reloaded; ports and addresses need a restart.
func Watch() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.SetLevel(parseLogLevel(viper.GetString("LogLevel")))
		logger.Info("[config] reloaded %s", e.Name)
	})
	viper.WatchConfig()
}
