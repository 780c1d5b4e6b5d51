package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "v2", cfg.Search.SolarReturn.Engine)
	require.Equal(t, 400.0, cfg.Search.LongitudeMatch.WindowDays)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":9090"
search:
  solarReturn:
    engine: v1
    windowDays: 5
cache:
  ttl: 2h
aspects:
  defaultProfile: strict
`), 0o644))

	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "v1", cfg.Search.SolarReturn.Engine)
	require.Equal(t, 5.0, cfg.Search.SolarReturn.WindowDays)
	require.Equal(t, time.Hour, cfg.Search.SolarReturn.SweepStep)
	require.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "strict", cfg.Aspects.DefaultProfile)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_DotEnvFillsMissingVariables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TIMELINE_PARALLELISM=7\n"), 0o644))
	t.Chdir(dir)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("TIMELINE_PARALLELISM", "")
	require.NoError(t, os.Unsetenv("TIMELINE_PARALLELISM"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Timeline.Parallelism)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"empty address":       func(c *Config) { c.HTTP.Address = "" },
		"unknown engine":      func(c *Config) { c.Search.SolarReturn.Engine = "v7" },
		"zero window":         func(c *Config) { c.Search.LongitudeMatch.WindowDays = 0 },
		"zero tolerance":      func(c *Config) { c.Search.SolarReturn.ToleranceDeg = 0 },
		"short secret":        func(c *Config) { c.Auth.Secret = "short" },
		"valkey without addr": func(c *Config) { c.Cache.Valkey.Enabled = true },
		"watch without file":  func(c *Config) { c.Aspects.Watch = true },
		"zero parallelism":    func(c *Config) { c.Timeline.Parallelism = 0 },
		"negative ttl":        func(c *Config) { c.Cache.TTL = -time.Second },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestAstroConfigMapping(t *testing.T) {
	cfg := defaultConfig()
	cfg.Search.SolarReturn.Engine = "v1"
	cfg.Cache.TTL = time.Minute

	astroCfg := cfg.AstroConfig()
	require.Equal(t, "v1", astroCfg.SolarReturn.Engine)
	require.Equal(t, cfg.Search.LongitudeMatch.WindowDays, astroCfg.LongitudeMatch.WindowDays)
	require.Equal(t, time.Minute, astroCfg.CacheTTL)
	require.Equal(t, cfg.Timeline.Parallelism, astroCfg.TimelineParallelism)
	require.True(t, astroCfg.PersistEvents)

	authCfg := cfg.AuthConfig()
	require.Equal(t, "astro-api", authCfg.Issuer)
	require.Equal(t, time.Hour, authCfg.TokenTTL)
}
