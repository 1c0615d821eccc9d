package api

import (
	"context"
	"net/http"

	models "VolScreen/internal/domain/models"
	"VolScreen/internal/service/ratelimit"
	xhttp "VolScreen/pkg/http"
	xlogger "VolScreen/pkg/logger"
	"VolScreen/pkg/util"

	"github.com/labstack/echo/v4"
)

// Screener runs one screening pass; *usecase.ScreeningService implements it.
type Screener interface {
	Run(ctx context.Context, watchlist []string, topN int) *models.ScreenResult
}

// ScreenEchoHandler exposes the screener over HTTP.
type ScreenEchoHandler struct {
	logger      *xlogger.Logger
	screener    Screener
	limiter     *ratelimit.Limiter
	defaultTopN int
}

func NewScreenEchoHandler(logger *xlogger.Logger, screener Screener, limiter *ratelimit.Limiter, defaultTopN int) *ScreenEchoHandler {
	return &ScreenEchoHandler{logger: logger, screener: screener, limiter: limiter, defaultTopN: defaultTopN}
}

func (h *ScreenEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api", h.rateLimit)
	g.GET("/volatile-stocks", h.VolatileStocks)
	g.GET("/screen", h.Screen)
}

// VolatileStocks returns the ranked records only.
func (h *ScreenEchoHandler) VolatileStocks(c echo.Context) error {
	res, verr := h.run(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, res.Results)
}

// Screen returns the whole run envelope.
func (h *ScreenEchoHandler) Screen(c echo.Context) error {
	res, verr := h.run(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScreenEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ScreenEchoHandler) run(c echo.Context) (*models.ScreenResult, interface{}) {
	req := &models.ScreenRequest{TopN: h.defaultTopN}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, verr
	}

	res := h.screener.Run(c.Request().Context(), util.SplitList(req.Symbols), req.TopN)
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	c.Response().Header().Set("X-Run-Id", res.RunID)
	return res, nil
}

func (h *ScreenEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			h.logger.Warn("rate limited", xlogger.String("remote", c.RealIP()), xlogger.String("path", c.Path()))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests, slow down"))
		}
		return next(c)
	}
}
