package config

import (
	"github.com/yanqian/astro-api/internal/domain/astro"
	"github.com/yanqian/astro-api/internal/domain/auth"
)

// AstroConfig maps the search, cache and timeline sections onto the chart service config.
func (c *Config) AstroConfig() astro.Config {
	return astro.Config{
		SolarReturn:         c.Search.SolarReturn.toSearch(),
		LongitudeMatch:      c.Search.LongitudeMatch.toSearch(),
		CacheTTL:            c.Cache.TTL,
		TimelineParallelism: c.Timeline.Parallelism,
		PersistEvents:       c.Events.Persist,
	}
}

// AuthConfig maps the auth section onto the auth service config.
func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		Secret:          c.Auth.Secret,
		Issuer:          c.Auth.Issuer,
		TokenTTL:        c.Auth.TokenTTL,
		RefreshTokenTTL: c.Auth.RefreshTokenTTL,
		Clients:         c.Auth.Clients,
	}
}

func (e EngineConfig) toSearch() astro.SearchConfig {
	return astro.SearchConfig{
		Engine:        e.Engine,
		WindowDays:    e.WindowDays,
		SweepStep:     e.SweepStep,
		BracketStep:   e.BracketStep,
		ToleranceDeg:  e.ToleranceDeg,
		MaxIterations: e.MaxIterations,
		TimeTolerance: e.TimeTolerance,
	}
}
