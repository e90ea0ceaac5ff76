package handler

import (
	"net/http"
	"strconv"

	"taxsync/internal/middleware"
	"taxsync/internal/service"
	"taxsync/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	lifecycle service.OrderTaxLifecycle
	sync      service.OrderSyncService
	secret    []byte
}

func NewOrderHandler(lifecycle service.OrderTaxLifecycle, sync service.OrderSyncService, secret []byte) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle, sync: sync, secret: secret}
}

// RegisterRoutes binds the host-facing order endpoints.
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	orders.Use(middleware.RequireRole(h.secret, middleware.RoleHost, middleware.RoleAdmin))
	{
		orders.POST("", h.UpsertOrder)
		orders.POST("/:id/events", h.DispatchEvent)
		orders.GET("/:id/tax-state", h.GetTaxState)
		orders.POST("/:id/commit-cart-document", middleware.RequireRole(h.secret, middleware.RoleAdmin), h.CommitCartDocument)
	}
}

// UpsertOrder stores the host's current snapshot of an order
// @Summary      Upsert order snapshot
// @Description  Stores the order, its items, refunds, customer and catalog rows as the host currently sees them
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.OrderSnapshot  true  "Order snapshot"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) UpsertOrder(c *gin.Context) {
	var req service.OrderSnapshot
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.sync.Sync(c.Request.Context(), &req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DispatchEvent runs one lifecycle event for the order in the path
// @Summary      Report order lifecycle event
// @Description  order_created, order_completed, order_items_saved, order_status_changed, refund_added, refund_deleted or order_deleted
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int            true  "Order ID"
// @Param        payload  body      service.Event  true  "Event"
// @Success      200      {object}  response.Response{data=service.DispatchResult}
// @Failure      400      {object}  response.Response
// @Router       /api/orders/{id}/events [post]
func (h *OrderHandler) DispatchEvent(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var ev service.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if ev.Type == service.EventRetryFired {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "retry_fired is internal"))
		return
	}
	ev.OrderID = orderID

	result, err := h.lifecycle.Dispatch(c.Request.Context(), ev)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetTaxState returns the filing state of an order
// @Summary      Get order tax state
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.OrderTaxState}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/tax-state [get]
func (h *OrderHandler) GetTaxState(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	state, err := h.lifecycle.GetTaxState(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
}

// CommitCartDocument files the checkout document for the order.
func (h *OrderHandler) CommitCartDocument(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	state, err := h.lifecycle.CommitCartDocument(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
}

func orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid order ID"))
		return 0, false
	}
	return id, true
}
