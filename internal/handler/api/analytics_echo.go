package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	models "FXRisk/internal/domain/models"
	"FXRisk/internal/service/metrics"
	"FXRisk/internal/service/ratelimit"
	xhttp "FXRisk/pkg/http"
	xlogger "FXRisk/pkg/logger"

	"github.com/labstack/echo/v4"
)

type riskConeService interface {
	Compute(ctx context.Context, req models.RiskConeRequest) (*models.RiskConeTable, error)
}

type bigMovesService interface {
	Compute(ctx context.Context, req models.BigMovesRequest) (*models.BigMovesTable, error)
}

type indicatorsService interface {
	Snapshot(ctx context.Context, req models.IndicatorsRequest) (*models.IndicatorSnapshot, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// AnalyticsEchoHandler serves risk cones, big moves and indicator snapshots.
type AnalyticsEchoHandler struct {
	logger     *xlogger.Logger
	riskCone   riskConeService
	bigMoves   bigMovesService
	indicators indicatorsService
	limiter    *ratelimit.Limiter
	checks     map[string]HealthCheck
}

func NewAnalyticsEchoHandler(logger *xlogger.Logger, rc riskConeService, bm bigMovesService, ind indicatorsService, limiter *ratelimit.Limiter) *AnalyticsEchoHandler {
	metrics.Register()
	return &AnalyticsEchoHandler{
		logger:     logger,
		riskCone:   rc,
		bigMoves:   bm,
		indicators: ind,
		limiter:    limiter,
		checks:     make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency probed by /healthz.
func (h *AnalyticsEchoHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *AnalyticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	if h.limiter != nil {
		g.Use(h.limiter.Middleware())
	}
	g.GET("/riskcone", h.RiskCone)
	g.GET("/bigmoves", h.BigMoves)
	g.GET("/indicators", h.Indicators)
}

func (h *AnalyticsEchoHandler) RiskCone(c echo.Context) error {
	start := time.Now()
	defer observeLatency("riskcone", start)

	req := &models.RiskConeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); len(verr) > 0 {
		metrics.EndpointErrors.WithLabelValues("riskcone", verr[0].Code).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	table, err := h.riskCone.Compute(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "riskcone", err)
	}
	if req.Format == "csv" {
		name := fmt.Sprintf("riskcone_%s_%s.csv", table.Pair, table.PricingDate.Format(models.DateLayout))
		return xhttp.CSVResponse(c, name, table.Records())
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, table)
}

func (h *AnalyticsEchoHandler) BigMoves(c echo.Context) error {
	start := time.Now()
	defer observeLatency("bigmoves", start)

	req := &models.BigMovesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); len(verr) > 0 {
		metrics.EndpointErrors.WithLabelValues("bigmoves", verr[0].Code).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	table, err := h.bigMoves.Compute(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "bigmoves", err)
	}
	if req.Format == "csv" {
		return xhttp.CSVResponse(c, fmt.Sprintf("bigmoves_%s.csv", table.Pair), table.Records())
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, table)
}

func (h *AnalyticsEchoHandler) Indicators(c echo.Context) error {
	start := time.Now()
	defer observeLatency("indicators", start)

	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); len(verr) > 0 {
		metrics.EndpointErrors.WithLabelValues("indicators", verr[0].Code).Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, err := h.indicators.Snapshot(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "indicators", err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// Health reports each registered dependency; any failure yields 503.
func (h *AnalyticsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	report := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	return xhttp.DataResponse(c, status, report)
}

func (h *AnalyticsEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.EndpointErrors.WithLabelValues(endpoint, appErr.Code).Inc()
	if h.logger != nil {
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
		} else {
			h.logger.Debug(endpoint+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
		}
	}
	return xhttp.AppErrorResponse(c, appErr)
}

var inputErrorCodes = []struct {
	target error
	code   string
}{
	{models.ErrInvalidTenor, "ERR_INVALID_TENOR"},
	{models.ErrTenorExceedsRange, "ERR_TENOR_EXCEEDS_RANGE"},
	{models.ErrInvalidPeriod, "ERR_INVALID_PERIOD"},
	{models.ErrUnsupportedWindowSize, "ERR_UNSUPPORTED_WINDOW_SIZE"},
	{models.ErrInvalidPercentile, "ERR_INVALID_PERCENTILE"},
	{models.ErrInvalidFrequency, "ERR_INVALID_FREQUENCY"},
	{models.ErrInvalidEndDate, "ERR_INVALID_END_DATE"},
	{models.ErrInvalidRequest, "ERR_BAD_REQUEST"},
}

// toAppError maps domain errors onto HTTP statuses: caller input is 400,
// missing history is 404, failing collaborators are 502.
func toAppError(err error) *xhttp.AppError {
	if appErr, ok := xhttp.AsAppError(err); ok {
		return appErr
	}
	for _, ec := range inputErrorCodes {
		if errors.Is(err, ec.target) {
			return xhttp.NewAppError(ec.code, "", err.Error(), http.StatusBadRequest).WithError(err)
		}
	}
	if errors.Is(err, models.ErrEmptySeries) {
		return xhttp.NewAppError("ERR_NO_DATA", "", err.Error(), http.StatusNotFound).WithError(err)
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) || errors.Is(err, context.DeadlineExceeded) {
		return xhttp.BadGatewayError("upstream pricing or market data failed").WithError(err)
	}
	return xhttp.InternalError("Something went wrong").WithError(err)
}

func observeLatency(endpoint string, start time.Time) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

var _ xhttp.Handler = (*AnalyticsEchoHandler)(nil)
