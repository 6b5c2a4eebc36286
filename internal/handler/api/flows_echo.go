package api

import (
	"errors"
	"time"

	"FundFlow/internal/domain/models"
	drepo "FundFlow/internal/domain/repository"
	xhttp "FundFlow/pkg/http"
	applogger "FundFlow/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FlowsEchoHandler exposes the read-only flow API over Echo.
type FlowsEchoHandler struct {
	logger *applogger.Logger
	repo   drepo.FlowRepository
}

func NewFlowsEchoHandler(logger *applogger.Logger, repo drepo.FlowRepository) *FlowsEchoHandler {
	return &FlowsEchoHandler{logger: logger, repo: repo}
}

func (h *FlowsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/spy")
	g.GET("/latest", h.Latest)
	g.GET("/date/:date", h.ByDate)
	g.GET("/range", h.Range)
	g.GET("/recent/:days", h.Recent)
	g.GET("/stats", h.Stats)
	g.GET("/raw/:date", h.RawByDate)
	g.GET("/health", h.Health)
}

func (h *FlowsEchoHandler) Latest(c echo.Context) error {
	result, err := h.repo.FindLatestResult(c.Request().Context())
	if err != nil {
		return h.repoError(c, "latest result lookup failed", err)
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *FlowsEchoHandler) ByDate(c echo.Context) error {
	req := &models.DateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	result, err := h.repo.FindResultByDate(c.Request().Context(), date)
	if err != nil {
		return h.repoError(c, "result lookup failed", err)
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *FlowsEchoHandler) Range(c echo.Context) error {
	req := &models.RangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, err := models.ParseDate(req.Start)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	end, err := models.ParseDate(req.End)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if end.Before(start.Time) {
		return xhttp.BadRequestResponse(c, "start must not be after end")
	}

	results, err := h.repo.FindResultsInRange(c.Request().Context(), start, end)
	if err != nil {
		return h.repoError(c, "range lookup failed", err)
	}
	return xhttp.ListResponse(c, results, int64(len(results)))
}

func (h *FlowsEchoHandler) Recent(c echo.Context) error {
	req := &models.RecentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	since := models.Today().AddDays(-req.Days)
	results, err := h.repo.FindRecentResults(c.Request().Context(), since)
	if err != nil {
		return h.repoError(c, "recent lookup failed", err)
	}
	return xhttp.ListResponse(c, results, int64(len(results)))
}

type statsResponse struct {
	WindowDays       int                          `json:"windowDays"`
	Confidence       *models.ConfidenceStats      `json:"confidence"`
	NetInflow        *models.NetInflowStats       `json:"netInflow"`
	AvgQualityScore  float64                      `json:"avgQualityScore"`
	ValidationFailed int64                        `json:"validationFailed"`
	Sources          []*models.SourceAvailability `json:"sources"`
}

func (h *FlowsEchoHandler) Stats(c echo.Context) error {
	req := &models.StatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	since := models.Today().AddDays(-req.Days)

	confidence, err := h.repo.ConfidenceStats(ctx, since)
	if err != nil {
		return h.repoError(c, "confidence stats failed", err)
	}
	netInflow, err := h.repo.NetInflowStats(ctx, since)
	if err != nil {
		return h.repoError(c, "net inflow stats failed", err)
	}
	avgQuality, err := h.repo.AverageQualityScore(ctx, since)
	if err != nil {
		return h.repoError(c, "quality stats failed", err)
	}
	failed, err := h.repo.CountValidationFailed(ctx, since)
	if err != nil {
		return h.repoError(c, "validation stats failed", err)
	}
	sources, err := h.repo.SourceStats(ctx, since)
	if err != nil {
		return h.repoError(c, "source stats failed", err)
	}

	return xhttp.SuccessResponse(c, &statsResponse{
		WindowDays:       req.Days,
		Confidence:       confidence,
		NetInflow:        netInflow,
		AvgQualityScore:  avgQuality,
		ValidationFailed: failed,
		Sources:          sources,
	})
}

func (h *FlowsEchoHandler) RawByDate(c echo.Context) error {
	req := &models.DateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	snapshots, err := h.repo.FindRawByDate(c.Request().Context(), date)
	if err != nil {
		return h.repoError(c, "raw lookup failed", err)
	}
	return xhttp.ListResponse(c, snapshots, int64(len(snapshots)))
}

type healthResponse struct {
	Status       string `json:"status"`
	LastDataDate string `json:"lastDataDate,omitempty"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
}

// Health reports pipeline liveness. HEALTHY means the store is reachable and
// the newest result is from today or yesterday; staler data degrades to
// WARNING without failing the endpoint.
func (h *FlowsEchoHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	now := time.Now().UTC().Format(time.RFC3339)

	if err := h.repo.Health(ctx); err != nil {
		h.logger.Error("storage health check failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("storage unreachable"))
	}

	latest, err := h.repo.FindLatestResult(ctx)
	if errors.Is(err, models.ErrNoData) {
		return xhttp.SuccessResponse(c, &healthResponse{
			Status:    "WARNING",
			Message:   "no flow data collected yet",
			Timestamp: now,
		})
	}
	if err != nil {
		return h.repoError(c, "latest result lookup failed", err)
	}

	status := "WARNING"
	message := "latest data is stale"
	if !latest.DataDate.Before(models.Today().AddDays(-1).Time) {
		status = "HEALTHY"
		message = "data collection is current"
	}
	return xhttp.SuccessResponse(c, &healthResponse{
		Status:       status,
		LastDataDate: latest.DataDate.String(),
		Message:      message,
		Timestamp:    now,
	})
}

func (h *FlowsEchoHandler) repoError(c echo.Context, msg string, err error) error {
	if errors.Is(err, models.ErrNoData) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no flow data for the requested period"))
	}
	h.logger.Error(msg, applogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
