package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/service/metrics"
	"TrendPulse/internal/service/ratelimit"
	"TrendPulse/pkg/cache"
	xhttp "TrendPulse/pkg/http"
	xlogger "TrendPulse/pkg/logger"
)

type TrendCollector interface {
	Collect(ctx context.Context) (models.TrendAnalysis, error)
}

type Predictor interface {
	Predict(ctx context.Context, days int) (*models.ForecastResponse, error)
}

type Recommender interface {
	Recommend(ctx context.Context, topic string) (models.Recommendations, error)
	Generate(ctx context.Context, contentType, topic string) (models.GeneratedContent, error)
}

type StreamServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

type HealthChecker interface {
	Health(ctx context.Context) error
}

// CacheTTLs holds response cache lifetimes per endpoint.
type CacheTTLs struct {
	Predictions     time.Duration
	Recommendations time.Duration
}

// TrendsEchoHandler serves the trend API.
type TrendsEchoHandler struct {
	logger    *xlogger.Logger
	collector TrendCollector
	predictor Predictor
	recs      Recommender
	stream    StreamServer
	health    []HealthChecker
	cache     cache.Service
	ttl       CacheTTLs
	limiter   *ratelimit.Limiter
}

type HandlerOption func(*TrendsEchoHandler)

// WithCache caches prediction and recommendation responses. A nil service disables caching.
func WithCache(c cache.Service, ttl CacheTTLs) HandlerOption {
	return func(h *TrendsEchoHandler) {
		h.cache = c
		h.ttl = ttl
	}
}

// WithRateLimiter limits GET /api/trends per client IP.
func WithRateLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *TrendsEchoHandler) { h.limiter = l }
}

func WithStream(s StreamServer) HandlerOption {
	return func(h *TrendsEchoHandler) { h.stream = s }
}

// WithHealth adds dependencies probed by GET /healthz.
func WithHealth(checks ...HealthChecker) HandlerOption {
	return func(h *TrendsEchoHandler) { h.health = append(h.health, checks...) }
}

func NewTrendsEchoHandler(
	logger *xlogger.Logger,
	collector TrendCollector,
	predictor Predictor,
	recs Recommender,
	opts ...HandlerOption,
) *TrendsEchoHandler {
	metrics.Register()
	h := &TrendsEchoHandler{
		logger:    logger,
		collector: collector,
		predictor: predictor,
		recs:      recs,
		ttl:       CacheTTLs{Predictions: time.Minute, Recommendations: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TrendsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/trends", h.Trends)
	g.GET("/trends/stream", h.Stream)
	g.GET("/recommendations", h.Recommendations)
	g.GET("/trend-predictions", h.Predictions)
	g.POST("/generate-content", h.GenerateContent)
}

func (h *TrendsEchoHandler) Trends(c echo.Context) error {
	const endpoint = "trends"
	defer metrics.ObserveSince(endpoint, time.Now())

	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		metrics.RateLimited.WithLabelValues(endpoint).Inc()
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many collection requests, retry later"))
	}

	analysis, err := h.collector.Collect(c.Request().Context())
	if err != nil {
		return h.fail(c, endpoint, "collect trends", err)
	}
	return xhttp.SuccessResponse(c, analysis)
}

func (h *TrendsEchoHandler) Recommendations(c echo.Context) error {
	const endpoint = "recommendations"
	defer metrics.ObserveSince(endpoint, time.Now())

	req := &models.RecommendationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := cache.GenerateKeyWithParams("recommendations", req.Topic)
	recs, hit, err := cache.GetOrLoad(c.Request().Context(), h.cache, key, h.ttl.Recommendations,
		func(ctx context.Context) (models.Recommendations, error) {
			return h.recs.Recommend(ctx, req.Topic)
		})
	if err != nil {
		return h.fail(c, endpoint, "recommend", err)
	}
	h.cacheResult(endpoint, hit)
	return xhttp.SuccessResponse(c, recs)
}

func (h *TrendsEchoHandler) Predictions(c echo.Context) error {
	const endpoint = "trend_predictions"
	defer metrics.ObserveSince(endpoint, time.Now())

	req := &models.PredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := cache.GenerateKeyWithParams("predictions", req.Days)
	resp, hit, err := cache.GetOrLoad(c.Request().Context(), h.cache, key, h.ttl.Predictions,
		func(ctx context.Context) (*models.ForecastResponse, error) {
			return h.predictor.Predict(ctx, req.Days)
		})
	if err != nil {
		return h.fail(c, endpoint, "predict", err)
	}
	h.cacheResult(endpoint, hit)
	return xhttp.SuccessResponse(c, resp)
}

func (h *TrendsEchoHandler) GenerateContent(c echo.Context) error {
	const endpoint = "generate_content"
	defer metrics.ObserveSince(endpoint, time.Now())

	req := &models.GenerateContentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	content, err := h.recs.Generate(c.Request().Context(), req.ContentType, req.Topic)
	if err != nil {
		return h.fail(c, endpoint, "generate content", err)
	}
	return xhttp.SuccessResponse(c, content)
}

func (h *TrendsEchoHandler) Stream(c echo.Context) error {
	if h.stream == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("live feed disabled"))
	}
	if err := h.stream.ServeWS(c.Response(), c.Request()); err != nil {
		h.logger.Debug("websocket upgrade failed", xlogger.Error(err))
	}
	return nil
}

func (h *TrendsEchoHandler) Health(c echo.Context) error {
	for _, hc := range h.health {
		if err := hc.Health(c.Request().Context()); err != nil {
			h.logger.Warn("health check failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("dependency unavailable"))
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *TrendsEchoHandler) fail(c echo.Context, endpoint, op string, err error) error {
	metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
	h.logger.Error(op+" failed", xlogger.String("endpoint", endpoint), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("%s failed", op).WithError(err))
}

func (h *TrendsEchoHandler) cacheResult(endpoint string, hit bool) {
	if h.cache != nil {
		metrics.CacheResult(endpoint, hit)
	}
}

var _ xhttp.RouteRegistrar = (*TrendsEchoHandler)(nil)
