package handler

import (
	"net/http"

	"taxsync/internal/middleware"
	"taxsync/internal/service"
	"taxsync/internal/websocket"
	"taxsync/pkg/pagination"
	"taxsync/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxLogHandler struct {
	taxLog service.TaxLogService
	hub    *websocket.Hub
	secret []byte
}

func NewTaxLogHandler(taxLog service.TaxLogService, hub *websocket.Hub, secret []byte) *TaxLogHandler {
	return &TaxLogHandler{taxLog: taxLog, hub: hub, secret: secret}
}

func (h *TaxLogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/tax-logs", middleware.RequireRole(h.secret, middleware.RoleAdmin), h.ListTaxLogs)
	if h.hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			h.hub.ServeWs(c, h.secret)
		})
	}
}

// ListTaxLogs returns the debug log, newest first
// @Summary      List tax debug log
// @Tags         tax-logs
// @Produce      json
// @Security     BearerAuth
// @Param        order_id  query     int  false  "Only entries for this order"
// @Param        page      query     int  false  "Page number"
// @Param        limit     query     int  false  "Items per page"
// @Success      200       {object}  response.Response{data=service.TaxLogPage}
// @Router       /api/tax-logs [get]
func (h *TaxLogHandler) ListTaxLogs(c *gin.Context) {
	p := pagination.Parse(c)
	page, err := h.taxLog.List(c.Request.Context(), pagination.OptionalInt64(c, "order_id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}
