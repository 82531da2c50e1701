package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estia-crm/matchmaking/internal/api/response"
	"github.com/estia-crm/matchmaking/internal/config"
	"github.com/estia-crm/matchmaking/internal/matchmaking"
	"github.com/estia-crm/matchmaking/internal/repository"
)

// AnalyticsHandler handles the match analytics endpoint.
type AnalyticsHandler struct {
	matchRepo *repository.MatchRepository
	cfg       *config.MatchingConfig
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(matchRepo *repository.MatchRepository, cfg *config.MatchingConfig) *AnalyticsHandler {
	return &AnalyticsHandler{matchRepo: matchRepo, cfg: cfg}
}

// HandleGetAnalytics handles GET /api/v1/analytics/matches.
// Aggregates are computed over the latest succeeded run unless run_id is given.
func (h *AnalyticsHandler) HandleGetAnalytics(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	opts := matchmaking.AnalyticsOptions{
		Threshold: h.cfg.ScoreThreshold,
		TopLimit:  h.cfg.TopLimit,
	}

	if thresholdParam := c.Query("threshold"); thresholdParam != "" {
		t, err := strconv.Atoi(thresholdParam)
		if err != nil || t < 0 || t > 100 {
			response.BadRequest(c, "threshold must be an integer between 0 and 100", nil)
			return
		}
		opts.Threshold = t
	}

	if topParam := c.Query("top"); topParam != "" {
		top, err := strconv.Atoi(topParam)
		if err != nil || top < 1 || top > 100 {
			response.BadRequest(c, "top must be an integer between 1 and 100", nil)
			return
		}
		opts.TopLimit = top
	}

	var runID uuid.UUID
	if runIDParam := c.Query("run_id"); runIDParam != "" {
		parsed, err := uuid.Parse(runIDParam)
		if err != nil {
			response.BadRequest(c, "invalid run_id format", nil)
			return
		}

		run, err := h.matchRepo.GetRun(c.Request.Context(), tenantID, parsed)
		if err != nil {
			response.InternalError(c, fmt.Sprintf("failed to retrieve run: %v", err))
			return
		}
		if run == nil {
			response.NotFound(c, "run not found")
			return
		}
		runID = run.ID
	} else {
		run, err := h.matchRepo.LatestSucceededRun(c.Request.Context(), tenantID)
		if err != nil {
			response.InternalError(c, fmt.Sprintf("failed to retrieve latest run: %v", err))
			return
		}
		if run == nil {
			response.NotFound(c, "no completed matching run for tenant")
			return
		}
		runID = run.ID
	}

	results, err := h.matchRepo.ListResultsByRun(c.Request.Context(), tenantID, runID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve match results: %v", err))
		return
	}

	analytics := matchmaking.BuildAnalytics(results, opts)

	result := gin.H{
		"run_id":    runID,
		"analytics": analytics,
	}

	response.Success(c, http.StatusOK, result)
}
