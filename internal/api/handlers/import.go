package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estia-crm/matchmaking/internal/api/response"
	"github.com/estia-crm/matchmaking/internal/config"
	"github.com/estia-crm/matchmaking/internal/ingest"
	"github.com/estia-crm/matchmaking/internal/repository"
)

// ImportHandler handles the property CSV import endpoint.
type ImportHandler struct {
	propertyRepo *repository.PropertyRepository
	cfg          *config.ImportConfig
}

// NewImportHandler creates a new import handler.
func NewImportHandler(propertyRepo *repository.PropertyRepository, cfg *config.ImportConfig) *ImportHandler {
	return &ImportHandler{propertyRepo: propertyRepo, cfg: cfg}
}

// HandleImportProperties handles POST /api/v1/properties/import.
// Accepts a multipart CSV upload and upserts the parsed listings.
func (h *ImportHandler) HandleImportProperties(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file field in multipart form", nil)
		return
	}

	if fileHeader.Size > h.cfg.MaxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds maximum size of %d bytes", h.cfg.MaxFileSize), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to open uploaded file: %v", err))
		return
	}
	defer file.Close()

	properties, warnings, err := ingest.ParseProperties(file, tenantID)
	if err != nil {
		response.BadRequest(c, fmt.Sprintf("failed to parse CSV: %v", err), warnings)
		return
	}

	for start := 0; start < len(properties); start += h.cfg.BatchInsertSize {
		end := start + h.cfg.BatchInsertSize
		if end > len(properties) {
			end = len(properties)
		}
		if err := h.propertyRepo.BulkInsert(c.Request.Context(), properties[start:end]); err != nil {
			response.InternalError(c, fmt.Sprintf("failed to insert properties: %v", err))
			return
		}
	}

	result := gin.H{
		"imported_count": len(properties),
		"warning_count":  len(warnings),
		"warnings":       warnings,
	}

	response.Success(c, http.StatusCreated, result)
}
