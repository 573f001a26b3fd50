package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iTrooz/webcache/store"
	"github.com/iTrooz/webcache/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "test_config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	return configFile
}

func TestLoad(t *testing.T) {
	configFile := writeConfig(t, `
server:
  port: 9999
cache:
  dir: "./test_cache"
  life: "30m"
  permissions: "0600"
  compress: true
auth:
  user: "user"
  pass: "s3cr3t"
rules:
  mode: "whitelist"
  rules:
    - base_uri: "https://example.com"
`)

	config, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "./test_cache", config.Cache.Dir)
	assert.Equal(t, 30*time.Minute, config.GetLife())
	assert.True(t, config.Cache.Compress)
	assert.Equal(t, "whitelist", config.Rules.Mode)
	require.Len(t, config.Rules.Rules, 1)
	assert.Equal(t, "https://example.com", config.Rules.Rules[0].BaseURI)

	perm, err := config.GetPermissions()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), perm)

	assert.Equal(t, transport.AuthBasic, config.GetAuth().Kind())

	// untouched keys keep their defaults
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, "disk", config.Cache.Backend)
	assert.Equal(t, "info", config.Log.Level)
	assert.NoError(t, config.Validate())
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Cache, config.Cache)
	assert.Equal(t, want.Server, config.Server)
	assert.Equal(t, want.Transport, config.Transport)
	assert.Equal(t, want.Log, config.Log)
	assert.Equal(t, "blacklist", config.Rules.Mode)
	assert.Empty(t, config.Rules.Rules)
	assert.Equal(t, time.Hour, config.GetLife())
	assert.Equal(t, transport.AuthNone, config.GetAuth().Kind())
	assert.NoError(t, config.Validate())
}

func TestLoadDisabled(t *testing.T) {
	config, err := Load(writeConfig(t, "cache:\n  enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, config.Cache.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = -1 }, wantErr: true},
		{name: "missing life", mutate: func(c *Config) { c.Cache.Life = "" }, wantErr: true},
		{name: "invalid permissions", mutate: func(c *Config) { c.Cache.Permissions = "0999" }, wantErr: true},
		{name: "invalid timeout", mutate: func(c *Config) { c.Transport.Timeout = "soon" }, wantErr: true},
		{name: "invalid backend", mutate: func(c *Config) { c.Cache.Backend = "s3" }, wantErr: true},
		{name: "leveldb without path", mutate: func(c *Config) { c.Cache.Backend = "leveldb"; c.Cache.LevelDB.Path = "" }, wantErr: true},
		{name: "redis backend", mutate: func(c *Config) { c.Cache.Backend = "redis" }, wantErr: false},
		{name: "invalid mode", mutate: func(c *Config) { c.Rules.Mode = "invalid" }, wantErr: true},
		{name: "ca cert without key", mutate: func(c *Config) { c.Server.HTTPS.CACertFile = "ca.pem" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetAuth(t *testing.T) {
	config := Default()
	config.Auth.Header = "Bearer t0k3n"

	value, ok := config.GetAuth().Opaque()
	assert.True(t, ok)
	assert.Equal(t, "Bearer t0k3n", value)
}

func TestLoadAuthPresence(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want transport.AuthKind
	}{
		{name: "empty pass", yaml: "auth:\n  user: \"a\"\n  pass: \"\"\n", want: transport.AuthBasic},
		{name: "user without pass", yaml: "auth:\n  user: \"a\"\n", want: transport.AuthNone},
		{name: "user without pass uses header", yaml: "auth:\n  user: \"a\"\n  header: \"Bearer x\"\n", want: transport.AuthOpaque},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Load(writeConfig(t, tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, config.GetAuth().Kind())
		})
	}
}

func TestNewCache(t *testing.T) {
	config := Default()
	config.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	config.Cache.Life = "10m"
	config.Cache.Permissions = "0640"

	c, closer, err := config.NewCache()
	require.NoError(t, err)
	defer func() { _ = closer.Close() }()

	assert.Equal(t, config.Cache.Dir, c.Dir())
	assert.Equal(t, 10*time.Minute, c.Life())
	assert.Equal(t, os.FileMode(0640), c.Permissions())
	assert.True(t, c.Enabled())
	assert.IsType(t, &store.Disk{}, c.Store())
}

func TestNewCacheLevelDB(t *testing.T) {
	config := Default()
	config.Cache.Backend = "leveldb"
	config.Cache.LevelDB.Path = filepath.Join(t.TempDir(), "db")
	config.Cache.Enabled = false

	c, closer, err := config.NewCache()
	require.NoError(t, err)
	defer func() { _ = closer.Close() }()

	assert.IsType(t, &store.LevelDB{}, c.Store())
	assert.False(t, c.Enabled())
}
