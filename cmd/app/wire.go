//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/astro-api/internal/bootstrap"
	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/astro"
	"github.com/yanqian/astro-api/internal/domain/auth"
	"github.com/yanqian/astro-api/internal/infra/config"
	httpiface "github.com/yanqian/astro-api/internal/interface/http"
	"github.com/yanqian/astro-api/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAstroConfig,
		provideAuthConfig,
		provideGateway,
		provideProfileRegistry,
		provideProfileWatcher,
		provideChartCache,
		provideEventRepository,
		wire.Bind(new(astro.ProfileResolver), new(*aspects.Registry)),
		astro.NewService,
		auth.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
