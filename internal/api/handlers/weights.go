package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estia-crm/matchmaking/internal/api/response"
	"github.com/estia-crm/matchmaking/internal/matchmaking"
	"github.com/estia-crm/matchmaking/internal/repository"
)

// WeightsHandler handles tenant criterion weight configuration endpoints.
type WeightsHandler struct {
	weightRepo *repository.WeightConfigRepository
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(weightRepo *repository.WeightConfigRepository) *WeightsHandler {
	return &WeightsHandler{weightRepo: weightRepo}
}

// HandleGetWeights handles GET /api/v1/config/weights.
// Returns the effective weight table: defaults merged with tenant overrides.
func (h *WeightsHandler) HandleGetWeights(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	overrides, err := h.weightRepo.Get(c.Request.Context(), tenantID)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve weight overrides: %v", err))
		return
	}

	weights, err := matchmaking.ResolveWeights(overrides)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("stored weight overrides are invalid: %v", err))
		return
	}

	result := gin.H{
		"weights":       weights,
		"has_overrides": len(overrides) > 0,
	}

	response.Success(c, http.StatusOK, result)
}

// HandleUpdateWeights handles PUT /api/v1/config/weights.
// The body is a JSON object of criterion name to weight; it is validated
// against the known criteria before being stored.
func (h *WeightsHandler) HandleUpdateWeights(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "failed to read request body", nil)
		return
	}

	overrides := json.RawMessage(body)
	weights, err := matchmaking.ResolveWeights(overrides)
	if err != nil {
		response.BadRequest(c, fmt.Sprintf("invalid weight overrides: %v", err), nil)
		return
	}

	if err := h.weightRepo.Upsert(c.Request.Context(), tenantID, overrides); err != nil {
		response.InternalError(c, fmt.Sprintf("failed to store weight overrides: %v", err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"weights": weights})
}
