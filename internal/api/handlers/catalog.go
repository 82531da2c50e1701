package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estia-crm/matchmaking/internal/api/response"
	"github.com/estia-crm/matchmaking/internal/models"
	"github.com/estia-crm/matchmaking/internal/repository"
)

// CatalogHandler handles client and property listing endpoints.
type CatalogHandler struct {
	clientRepo   *repository.ClientRepository
	propertyRepo *repository.PropertyRepository
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(
	clientRepo *repository.ClientRepository,
	propertyRepo *repository.PropertyRepository,
) *CatalogHandler {
	return &CatalogHandler{
		clientRepo:   clientRepo,
		propertyRepo: propertyRepo,
	}
}

func parsePagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if pageParam := c.Query("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}
	if pageSizeParam := c.Query("page_size"); pageSizeParam != "" {
		if ps, err := strconv.Atoi(pageSizeParam); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return page, pageSize
}

func buildPagination(page, pageSize, total int) models.Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return models.Pagination{
		Page:         page,
		PageSize:     pageSize,
		TotalResults: total,
		TotalPages:   totalPages,
	}
}

// HandleListClients handles GET /api/v1/clients.
func (h *CatalogHandler) HandleListClients(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)
	page, pageSize := parsePagination(c)

	clients, total, err := h.clientRepo.List(c.Request.Context(), tenantID, page, pageSize)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve clients: %v", err))
		return
	}

	result := gin.H{
		"clients":    clients,
		"pagination": buildPagination(page, pageSize, total),
	}

	response.Success(c, http.StatusOK, result)
}

// HandleGetClient handles GET /api/v1/clients/:client_id.
func (h *CatalogHandler) HandleGetClient(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	client, err := h.clientRepo.GetByID(c.Request.Context(), tenantID, c.Param("client_id"))
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve client: %v", err))
		return
	}
	if client == nil {
		response.NotFound(c, "client not found")
		return
	}

	response.Success(c, http.StatusOK, client)
}

// HandleListProperties handles GET /api/v1/properties.
func (h *CatalogHandler) HandleListProperties(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)
	page, pageSize := parsePagination(c)

	properties, total, err := h.propertyRepo.List(c.Request.Context(), tenantID, page, pageSize)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve properties: %v", err))
		return
	}

	result := gin.H{
		"properties": properties,
		"pagination": buildPagination(page, pageSize, total),
	}

	response.Success(c, http.StatusOK, result)
}

// HandleGetProperty handles GET /api/v1/properties/:property_id.
func (h *CatalogHandler) HandleGetProperty(c *gin.Context) {
	tenantID := c.MustGet("tenant_id").(uuid.UUID)

	property, err := h.propertyRepo.GetByID(c.Request.Context(), tenantID, c.Param("property_id"))
	if err != nil {
		response.InternalError(c, fmt.Sprintf("failed to retrieve property: %v", err))
		return
	}
	if property == nil {
		response.NotFound(c, "property not found")
		return
	}

	response.Success(c, http.StatusOK, property)
}
