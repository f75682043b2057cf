package api

import (
	"context"
	"errors"
	"strings"
	"time"

	models "MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	"MarketIntel/internal/service/metrics"
	"MarketIntel/internal/service/ratelimit"
	"MarketIntel/pkg/cache"
	xhttp "MarketIntel/pkg/http"
	xlogger "MarketIntel/pkg/logger"

	"github.com/labstack/echo/v4"
)

func init() {
	err := xhttp.RegisterValidation("interval", "%s must be a supported candle interval", func(s string) bool {
		return domrepo.IsValidInterval(domrepo.Interval(s))
	})
	if err != nil {
		panic(err)
	}
}

// Analytics is the use case surface served over HTTP.
type Analytics interface {
	Signal(ctx context.Context, symbol string, interval domrepo.Interval) (*models.SignalAnalysis, error)
	Volatility(ctx context.Context, symbol string, interval domrepo.Interval) (*models.VolatilityAnalysis, error)
	Arbitrage(ctx context.Context, symbols []string, gasPriceGwei *float64) (*models.ArbitrageAnalysis, error)
	Sentiment(ctx context.Context, symbol string) (*models.SentimentAnalysis, error)
	Risk(ctx context.Context, account string) (*models.RiskAnalysis, error)
	Overview(ctx context.Context, symbol string, interval domrepo.Interval) (*models.MarketOverview, error)
}

// TTLs are the response cache lifetimes per endpoint. Zero disables caching.
type TTLs struct {
	Signal     time.Duration
	Volatility time.Duration
	Arbitrage  time.Duration
	Sentiment  time.Duration
	Risk       time.Duration
	Overview   time.Duration
}

// AnalyticsEchoHandler serves the analytics endpoints.
type AnalyticsEchoHandler struct {
	svc   Analytics
	cache cache.Service
	ttl   TTLs
	rl    *ratelimit.Limiter
	l     *xlogger.Logger
}

// NewAnalyticsEchoHandler creates the handler. c and rl may be nil.
func NewAnalyticsEchoHandler(svc Analytics, c cache.Service, ttl TTLs, rl *ratelimit.Limiter) *AnalyticsEchoHandler {
	metrics.Register()
	return &AnalyticsEchoHandler{svc: svc, cache: c, ttl: ttl, rl: rl, l: xlogger.Nop()}
}

// SetLogger injects a structured logger.
func (h *AnalyticsEchoHandler) SetLogger(l *xlogger.Logger) {
	if l != nil {
		h.l = l
	}
}

func (h *AnalyticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/signal", h.Signal)
	g.GET("/volatility", h.Volatility)
	g.GET("/arbitrage", h.Arbitrage)
	g.GET("/sentiment", h.Sentiment)
	g.GET("/risk", h.Risk)
	g.GET("/overview", h.Overview)
}

func (h *AnalyticsEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl != nil && !h.rl.Allow(c.RealIP()) {
			metrics.RateLimited.WithLabelValues(endpointName(c)).Inc()
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}

func (h *AnalyticsEchoHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := xhttp.NormalizeTicker(req.Symbol)
	iv := domrepo.Interval(req.Interval)
	key := cache.Key("signal", symbol, iv)
	return serve(h, c, "signal", key, h.ttl.Signal, func(ctx context.Context) (*models.SignalAnalysis, error) {
		return h.svc.Signal(ctx, symbol, iv)
	})
}

func (h *AnalyticsEchoHandler) Volatility(c echo.Context) error {
	req := &models.VolatilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := xhttp.NormalizeTicker(req.Symbol)
	iv := domrepo.Interval(req.Interval)
	key := cache.Key("volatility", symbol, iv)
	return serve(h, c, "volatility", key, h.ttl.Volatility, func(ctx context.Context) (*models.VolatilityAnalysis, error) {
		return h.svc.Volatility(ctx, symbol, iv)
	})
}

func (h *AnalyticsEchoHandler) Arbitrage(c echo.Context) error {
	req := &models.ArbitrageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbols := xhttp.SplitTickers(req.Symbols)
	var gas *float64
	if req.GasPrice > 0 {
		gas = &req.GasPrice
	}
	key := cache.Key("arbitrage", strings.Join(symbols, ","), req.GasPrice)
	return serve(h, c, "arbitrage", key, h.ttl.Arbitrage, func(ctx context.Context) (*models.ArbitrageAnalysis, error) {
		return h.svc.Arbitrage(ctx, symbols, gas)
	})
}

func (h *AnalyticsEchoHandler) Sentiment(c echo.Context) error {
	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := xhttp.NormalizeTicker(req.Symbol)
	key := cache.Key("sentiment", symbol)
	return serve(h, c, "sentiment", key, h.ttl.Sentiment, func(ctx context.Context) (*models.SentimentAnalysis, error) {
		return h.svc.Sentiment(ctx, symbol)
	})
}

func (h *AnalyticsEchoHandler) Risk(c echo.Context) error {
	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	account := strings.TrimSpace(req.Account)
	key := cache.Key("risk", account)
	return serve(h, c, "risk", key, h.ttl.Risk, func(ctx context.Context) (*models.RiskAnalysis, error) {
		return h.svc.Risk(ctx, account)
	})
}

func (h *AnalyticsEchoHandler) Overview(c echo.Context) error {
	req := &models.OverviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := xhttp.NormalizeTicker(req.Symbol)
	iv := domrepo.Interval(req.Interval)
	key := cache.Key("overview", symbol, iv)
	return serve(h, c, "overview", key, h.ttl.Overview, func(ctx context.Context) (*models.MarketOverview, error) {
		return h.svc.Overview(ctx, symbol, iv)
	})
}

// serve answers from the response cache or runs load, then writes the
// envelope. Domain errors are mapped to transport errors here.
func serve[T any](h *AnalyticsEchoHandler, c echo.Context, endpoint, key string, ttl time.Duration, load func(context.Context) (T, error)) error {
	start := time.Now()
	defer func() {
		metrics.AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	res, hit, err := cache.GetOrLoad(c.Request().Context(), h.cache, key, ttl, load)
	if err != nil {
		appErr := toAppError(err)
		metrics.AnalyticsErrors.WithLabelValues(endpoint, appErr.Code).Inc()
		h.l.Error(endpoint+" usecase error",
			xlogger.String("key", key),
			xlogger.String("code", appErr.Code),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, appErr)
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheLookups.WithLabelValues(endpoint, result).Inc()
	return xhttp.CachedResponse(c, res, ttl)
}

func toAppError(err error) *xhttp.AppError {
	var upstream *models.UpstreamError
	switch {
	case errors.As(err, &upstream):
		return xhttp.BadGatewayError(upstream.Error()).WithError(err)
	case errors.Is(err, models.ErrDataInsufficient):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.BadGatewayError("upstream timeout").WithError(err)
	default:
		return xhttp.InternalError("analytics computation failed").WithError(err)
	}
}

func endpointName(c echo.Context) string {
	p := c.Path()
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
