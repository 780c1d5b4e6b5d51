package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-api/internal/domain/auth"
	"github.com/yanqian/astro-api/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/healthz", handler.Health)

	limiter := newRateLimiter(cfg.HTTP.RateLimit)
	api := router.Group("/api/v1")

	public := api.Group("/auth")
	public.Use(rateLimitMiddleware(limiter, handler.logger))
	{
		public.POST("/token", handler.IssueToken)
		public.POST("/refresh", handler.RefreshToken)
	}

	// limit after auth so buckets are per API client
	protected := api.Group("")
	protected.Use(authMiddleware(authSvc), rateLimitMiddleware(limiter, handler.logger))
	{
		protected.POST("/time/resolve", handler.ResolveTime)
		protected.POST("/charts/positions", handler.Positions)
		protected.POST("/solar-return", handler.SolarReturn)
		protected.POST("/solar-return/timeline", handler.SolarTimeline)
		protected.POST("/longitude-match", handler.LongitudeMatch)
		protected.POST("/transits/daily", handler.DailyTransits)
		protected.POST("/progressions/secondary", handler.Progressions)
		protected.POST("/moon/phase", handler.Lunation)
		protected.POST("/moon/timeline", handler.MoonTimeline)
		protected.GET("/events/:id", handler.GetEvent)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		attrs := []any{"method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds(), "request_id", requestID(c)}
		if claims, ok := claimsFrom(c); ok {
			attrs = append(attrs, "subject", claims.Subject, "client", claims.ClientID)
		}
		logger.Info("http request", attrs...)
	}
}
