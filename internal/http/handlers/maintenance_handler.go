package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adukenov/uslugi-backend/internal/service"
)

type MaintenanceHandler struct {
	sweeper *service.SweeperService
}

func NewMaintenanceHandler(sweeper *service.SweeperService) *MaintenanceHandler {
	return &MaintenanceHandler{sweeper: sweeper}
}

// ExpireOrders POST /admin/maintenance/expire-orders
// Ручной запуск того же прогона, что выполняет фоновый тикер.
func (h *MaintenanceHandler) ExpireOrders(c *gin.Context) {
	expired, err := h.sweeper.ExpireStaleOrders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}
