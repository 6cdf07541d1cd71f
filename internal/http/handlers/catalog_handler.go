package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adukenov/uslugi-backend/internal/http/handlers/common"
	"github.com/adukenov/uslugi-backend/internal/service"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListServices GET /catalog/services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalog.ListMainServices(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// ListSubServices GET /catalog/services/:id/sub-services
func (h *CatalogHandler) ListSubServices(c *gin.Context) {
	mainServiceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	subServices, err := h.catalog.ListSubServices(c.Request.Context(), &mainServiceID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_services": subServices})
}

// GetMySubServices GET /specialists/me/sub-services
func (h *CatalogHandler) GetMySubServices(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	ids, err := h.catalog.ListSpecialistSubServices(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_service_ids": ids})
}

// SetMySubServices PUT /specialists/me/sub-services
func (h *CatalogHandler) SetMySubServices(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		SubServiceIDs []uuid.UUID `json:"sub_service_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "список подуслуг обязателен")
		return
	}

	if err := h.catalog.SetSpecialistSubServices(c.Request.Context(), userID, req.SubServiceIDs); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_service_ids": req.SubServiceIDs})
}
