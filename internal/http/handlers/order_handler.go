package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adukenov/uslugi-backend/internal/http/handlers/common"
	"github.com/adukenov/uslugi-backend/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		SubServiceID   uuid.UUID       `json:"sub_service_id" binding:"required"`
		Description    string          `json:"description" binding:"required"`
		SuggestedPrice decimal.Decimal `json:"suggested_price" binding:"required"`
		ScheduledDate  time.Time       `json:"scheduled_date" binding:"required"`
		Address        *string         `json:"address"`
		VisibleUntil   *time.Time      `json:"visible_until"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректные данные заказа")
		return
	}

	order, err := h.orders.Create(c.Request.Context(), userID, service.CreateOrderInput{
		SubServiceID:   req.SubServiceID,
		Description:    req.Description,
		SuggestedPrice: req.SuggestedPrice,
		ScheduledDate:  req.ScheduledDate,
		Address:        req.Address,
		VisibleUntil:   req.VisibleUntil,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListMy GET /orders/my
func (h *OrderHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orders, err := h.orders.ListMyOrders(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// ListAvailable GET /orders/available
func (h *OrderHandler) ListAvailable(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orders, err := h.orders.ListAvailable(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), userID, role, orderID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// SubmitProposal POST /orders/:id/proposals
func (h *OrderHandler) SubmitProposal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		ProposedPrice     decimal.Decimal `json:"proposed_price" binding:"required"`
		EstimatedDuration string          `json:"estimated_duration" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректные данные отклика")
		return
	}

	duration, err := time.ParseDuration(req.EstimatedDuration)
	if err != nil {
		common.RespondBadRequest(c, "срок выполнения должен быть длительностью, например 2h30m")
		return
	}

	proposal, err := h.orders.SubmitProposal(c.Request.Context(), userID, orderID, service.SubmitProposalInput{
		ProposedPrice:     req.ProposedPrice,
		EstimatedDuration: duration,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

// ListProposals GET /orders/:id/proposals
func (h *OrderHandler) ListProposals(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposals, err := h.orders.ListProposals(c.Request.Context(), userID, role, orderID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// SelectProposal POST /orders/:id/select
func (h *OrderHandler) SelectProposal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		ProposalID uuid.UUID `json:"proposal_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "proposal_id обязателен")
		return
	}

	order, err := h.orders.SelectProposal(c.Request.Context(), userID, orderID, req.ProposalID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Start POST /orders/:id/start
func (h *OrderHandler) Start(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Start(c.Request.Context(), userID, orderID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Complete POST /orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, debit, credit, err := h.orders.Complete(c.Request.Context(), userID, orderID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":  order,
		"debit":  debit,
		"credit": credit,
	})
}

// Cancel POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), orderID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}
