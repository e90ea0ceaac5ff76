package handler

import (
	"net/http"

	"taxsync/internal/middleware"
	"taxsync/internal/service"
	"taxsync/pkg/pagination"
	"taxsync/pkg/response"

	"github.com/gin-gonic/gin"
)

type RetryHandler struct {
	scheduler service.RetryScheduler
	runner    service.RetryRunner
	secret    []byte
}

func NewRetryHandler(scheduler service.RetryScheduler, runner service.RetryRunner, secret []byte) *RetryHandler {
	return &RetryHandler{scheduler: scheduler, runner: runner, secret: secret}
}

func (h *RetryHandler) RegisterRoutes(router *gin.RouterGroup) {
	retries := router.Group("/api/retries")
	retries.Use(middleware.RequireRole(h.secret, middleware.RoleAdmin))
	{
		retries.GET("", h.ListRetries)
		retries.POST("/run", h.RunDue)
	}
}

// ListRetries returns scheduled retries, newest first
// @Summary      List scheduled retries
// @Tags         retries
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "PENDING, DONE or CANCELLED"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Items per page"
// @Success      200     {object}  response.Response{data=service.RetryPage}
// @Router       /api/retries [get]
func (h *RetryHandler) ListRetries(c *gin.Context) {
	p := pagination.Parse(c)
	page, err := h.scheduler.List(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, page))
}

// RunDue fires every retry whose time has come
// @Summary      Run due retries
// @Tags         retries
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.RunSummary}
// @Router       /api/retries/run [post]
func (h *RetryHandler) RunDue(c *gin.Context) {
	summary, err := h.runner.RunDue(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
