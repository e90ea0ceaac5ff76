package handler

import (
	"net/http"

	"taxsync/internal/middleware"
	"taxsync/internal/service"
	"taxsync/internal/taxapi"
	"taxsync/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	activation service.ActivationService
	codes      service.TaxCodeService
	secret     []byte
}

func NewAdminHandler(activation service.ActivationService, codes service.TaxCodeService, secret []byte) *AdminHandler {
	return &AdminHandler{activation: activation, codes: codes, secret: secret}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.RequireRole(h.secret, middleware.RoleAdmin))
	{
		admin.POST("/activate", h.Activate)
		admin.GET("/tax-codes", h.ListTaxCodes)
		admin.POST("/verify-address", h.VerifyAddress)
		admin.GET("/version", h.Version)
	}
}

// Activate checks the API key and schedules the historical backfill once
// @Summary      Activate integration
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ActivationResult}
// @Failure      502  {object}  response.Response
// @Router       /api/admin/activate [post]
func (h *AdminHandler) Activate(c *gin.Context) {
	result, err := h.activation.Activate(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListTaxCodes returns the item taxability codes
// @Summary      List tax codes
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        refresh  query     bool  false  "Bypass the cached list"
// @Success      200      {object}  response.Response{data=service.TaxCodesResponse}
// @Router       /api/admin/tax-codes [get]
func (h *AdminHandler) ListTaxCodes(c *gin.Context) {
	refresh := c.Query("refresh") == "true"
	codes, err := h.codes.List(c.Request.Context(), refresh)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, codes))
}

// VerifyAddress asks the tax service to normalize an address.
func (h *AdminHandler) VerifyAddress(c *gin.Context) {
	var addr taxapi.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	if addr.Country == "" || addr.PostalCode == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "country and postal_code are required"))
		return
	}

	result, err := h.codes.VerifyAddress(c.Request.Context(), addr)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *AdminHandler) Version(c *gin.Context) {
	v, err := h.codes.Version(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, v))
}
