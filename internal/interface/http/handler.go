package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-api/internal/domain/astro"
	"github.com/yanqian/astro-api/internal/domain/auth"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	astroSvc astro.Service
	authSvc  auth.Service
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(astroSvc astro.Service, authSvc auth.Service, logger *slog.Logger) *Handler {
	return &Handler{
		astroSvc: astroSvc,
		authSvc:  authSvc,
		logger:   logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// IssueToken exchanges an API key for tokens.
func (h *Handler) IssueToken(c *gin.Context) {
	var req auth.TokenRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authSvc.IssueToken(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshToken rotates a refresh token into a new token pair.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req auth.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, authError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResolveTime converts a civil time into a UTC instant.
func (h *Handler) ResolveTime(c *gin.Context) {
	var req astro.TimeRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.ResolveTime(c.Request.Context(), req)
	respond(c, resp, err)
}

// Positions returns a body snapshot.
func (h *Handler) Positions(c *gin.Context) {
	var req astro.ChartRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.Positions(c.Request.Context(), req)
	respond(c, resp, err)
}

// SolarReturn locates the yearly solar return.
func (h *Handler) SolarReturn(c *gin.Context) {
	var req astro.SolarReturnRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.SolarReturn(c.Request.Context(), req)
	respond(c, resp, err)
}

// SolarTimeline lists the year's solar aspects to natal points.
func (h *Handler) SolarTimeline(c *gin.Context) {
	var req astro.TimelineRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.SolarTimeline(c.Request.Context(), req)
	respond(c, resp, err)
}

// LongitudeMatch finds when a body reaches a longitude.
func (h *Handler) LongitudeMatch(c *gin.Context) {
	var req astro.LongitudeMatchRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.LongitudeMatch(c.Request.Context(), req)
	respond(c, resp, err)
}

// DailyTransits scores and curates a day of transits.
func (h *Handler) DailyTransits(c *gin.Context) {
	var req astro.TransitsRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.DailyTransits(c.Request.Context(), req)
	respond(c, resp, err)
}

// Progressions returns the secondary progressed chart.
func (h *Handler) Progressions(c *gin.Context) {
	var req astro.ProgressionsRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.Progressions(c.Request.Context(), req)
	respond(c, resp, err)
}

// Lunation reports the Moon's phase for a day.
func (h *Handler) Lunation(c *gin.Context) {
	var req astro.LunationRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.Lunation(c.Request.Context(), req)
	respond(c, resp, err)
}

// MoonTimeline reports the Moon's phase for a range of days.
func (h *Handler) MoonTimeline(c *gin.Context) {
	var req astro.MoonTimelineRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.astroSvc.MoonTimeline(c.Request.Context(), req)
	respond(c, resp, err)
}

// GetEvent fetches a persisted event.
func (h *Handler) GetEvent(c *gin.Context) {
	ev, err := h.astroSvc.Event(c.Request.Context(), c.Param("id"))
	respond(c, ev, err)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return false
	}
	return true
}

func respond(c *gin.Context, body any, err error) {
	if err != nil {
		abortWithError(c, astroError(err))
		return
	}
	c.JSON(http.StatusOK, body)
}
