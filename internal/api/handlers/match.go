package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estia-crm/matchmaking/internal/api/response"
	"github.com/estia-crm/matchmaking/internal/matchmaking"
	"github.com/estia-crm/matchmaking/internal/models"
	"github.com/estia-crm/matchmaking/internal/repository"
)

// MatchHandler handles matching run and match retrieval endpoints.
type MatchHandler struct {
	clientRepo *repository.ClientRepository
	matchRepo  *repository.MatchRepository
	pipeline   *matchmaking.Pipeline
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(
	clientRepo *repository.ClientRepository,
	matchRepo *repository.MatchRepository,
	pipeline *matchmaking.Pipeline,
) *MatchHandler {
	return &MatchHandler{
		clientRepo: clientRepo,
		matchRepo:  matchRepo,
		pipeline:   pipeline,
	}
}

// HandleRunMatches handles POST /api/v1/matches/run.
// Creates a run record and executes the matching pipeline asynchronously.
func (h *MatchHandler) HandleRunMatches(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	run := &models.MatchRun{
		ID:       uuid.New(),
		TenantID: tenantID,
		Status:   repository.RunStatusPending,
	}

	if err := h.matchRepo.CreateRun(c.Request.Context(), run); err != nil {
		response.InternalError(c, fmt.Sprintf("failed to create run: %v", err))
		return
	}

	// Launch matching pipeline asynchronously
	go func() {
		bgCtx := context.Background()
		_ = h.pipeline.Execute(bgCtx, run)
	}()

	response.Success(c, http.StatusAccepted, run)
}

// HandleGetRun handles GET /api/v1/matches/runs/:run_id.
func (h *MatchHandler) HandleGetRun(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	runID, err := uuid.Parse(c.Param("run_id"))
	if err != nil {
		response.BadRequest(c, "invalid run_id format", nil)
		return
	}

	run, err := h.matchRepo.GetRun(c.Request.Context(), tenantID, runID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve run: %v", err))
		return
	}
	if run == nil {
		response.NotFound(c, "run not found")
		return
	}

	response.Success(c, http.StatusOK, run)
}

// HandleGetClientMatches handles GET /api/v1/clients/:client_id/matches.
// Returns the client's matches from the latest succeeded run, best first.
func (h *MatchHandler) HandleGetClientMatches(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)
	clientID := c.Param("client_id")

	limit := 20
	if limitParam := c.Query("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	client, err := h.clientRepo.GetByID(c.Request.Context(), tenantID, clientID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve client: %v", err))
		return
	}
	if client == nil {
		response.NotFound(c, "client not found")
		return
	}

	run, err := h.matchRepo.LatestSucceededRun(c.Request.Context(), tenantID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve latest run: %v", err))
		return
	}
	if run == nil {
		response.NotFound(c, "no completed matching run for tenant")
		return
	}

	matches, err := h.matchRepo.ListResultsByClient(c.Request.Context(), tenantID, run.ID, clientID, limit)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve matches: %v", err))
		return
	}

	result := gin.H{
		"run_id":    run.ID,
		"client_id": clientID,
		"matches":   matches,
	}

	response.Success(c, http.StatusOK, result)
}
