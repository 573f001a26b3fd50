package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/iTrooz/webcache"
	"github.com/iTrooz/webcache/transport"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Cache     CacheConfig     `koanf:"cache"`
	Auth      AuthConfig      `koanf:"auth"`
	Transport TransportConfig `koanf:"transport"`
	Server    ServerConfig    `koanf:"server"`
	Rules     RulesConfig     `koanf:"rules"`
	Log       LogConfig       `koanf:"log"`
}

// CacheConfig contains cache-related configuration
type CacheConfig struct {
	Dir         string        `koanf:"dir"`
	Life        string        `koanf:"life"`        // e.g. "1h", "30m", "3600"
	Permissions string        `koanf:"permissions"` // octal, e.g. "0600"; empty keeps the default
	Enabled     bool          `koanf:"enabled"`
	Compress    bool          `koanf:"compress"`
	Backend     string        `koanf:"backend"` // "disk", "leveldb" or "redis"
	LevelDB     LevelDBConfig `koanf:"leveldb"`
	Redis       RedisConfig   `koanf:"redis"`
}

type LevelDBConfig struct {
	Path string `koanf:"path"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// AuthConfig describes the credentials sent with every fetch.
// User and pass both present select basic auth, otherwise header is sent as
// the Authorization value.
type AuthConfig struct {
	User   *string `koanf:"user"`
	Pass   *string `koanf:"pass"`
	Header string  `koanf:"header"`
}

type TransportConfig struct {
	Timeout string `koanf:"timeout"`
}

// ServerConfig contains proxy server configuration
type ServerConfig struct {
	Port  int         `koanf:"port"`
	HTTPS HTTPSConfig `koanf:"https"`
}

// HTTPSConfig controls TLS interception of CONNECT requests
type HTTPSConfig struct {
	Intercept  bool   `koanf:"intercept"`
	CACertFile string `koanf:"ca_cert_file"`
	CAKeyFile  string `koanf:"ca_key_file"`
}

// RulesConfig selects which URLs the proxy serves through the cache
type RulesConfig struct {
	Mode  string      `koanf:"mode"` // "whitelist" or "blacklist"
	Rules []CacheRule `koanf:"rules"`
}

// CacheRule matches URLs by prefix
type CacheRule struct {
	BaseURI string `koanf:"base_uri"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when no file overrides it
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Dir:     webcache.DefaultDir,
			Life:    webcache.DefaultLife,
			Enabled: true,
			Backend: "disk",
			LevelDB: LevelDBConfig{Path: "cache.leveldb"},
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Transport: TransportConfig{Timeout: transport.DefaultTimeout.String()},
		Server:    ServerConfig{Port: 8080},
		Rules:     RulesConfig{Mode: "blacklist"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load loads configuration from a YAML file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &config, nil
}

// GetLife returns the cache lifetime
func (c *Config) GetLife() time.Duration {
	return webcache.ParseLife(c.Cache.Life)
}

// GetPermissions parses the octal file mode; zero means unset
func (c *Config) GetPermissions() (os.FileMode, error) {
	if c.Cache.Permissions == "" {
		return 0, nil
	}
	mode, err := strconv.ParseUint(c.Cache.Permissions, 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(mode), nil
}

// GetTimeout parses the transport timeout duration
func (c *Config) GetTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Transport.Timeout)
}

// GetAuth resolves the configured credentials
func (c *Config) GetAuth() transport.Auth {
	return transport.ParseAuth(c.Auth.User, c.Auth.Pass, c.Auth.Header)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Cache.Life == "" {
		return fmt.Errorf("cache life is required")
	}

	if _, err := c.GetPermissions(); err != nil {
		return fmt.Errorf("invalid cache permissions %q: %w", c.Cache.Permissions, err)
	}

	if _, err := c.GetTimeout(); err != nil {
		return fmt.Errorf("invalid transport timeout format: %w", err)
	}

	switch c.Cache.Backend {
	case "disk":
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache dir is required")
		}
	case "leveldb":
		if c.Cache.LevelDB.Path == "" {
			return fmt.Errorf("cache leveldb path is required")
		}
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache redis addr is required")
		}
	default:
		return fmt.Errorf("cache backend must be 'disk', 'leveldb' or 'redis', got: %s", c.Cache.Backend)
	}

	if c.Rules.Mode != "whitelist" && c.Rules.Mode != "blacklist" {
		return fmt.Errorf("rules mode must be 'whitelist' or 'blacklist', got: %s", c.Rules.Mode)
	}

	if (c.Server.HTTPS.CACertFile == "") != (c.Server.HTTPS.CAKeyFile == "") {
		return fmt.Errorf("https ca_cert_file and ca_key_file must be set together")
	}

	return nil
}
