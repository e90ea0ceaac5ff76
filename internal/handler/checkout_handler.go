package handler

import (
	"net/http"

	"taxsync/internal/middleware"
	"taxsync/internal/model"
	"taxsync/internal/service"
	"taxsync/pkg/response"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
	secret   []byte
}

func NewCheckoutHandler(checkout service.CheckoutService, secret []byte) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, secret: secret}
}

func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/cart/tax", middleware.RequireRole(h.secret, middleware.RoleHost), h.CalculateCart)
}

// CalculateCart prices a checkout cart without filing it
// @Summary      Calculate cart tax
// @Description  Returns the taxes for the cart; applied=false means no tax could be calculated this pass
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      model.Cart  true  "Cart"
// @Success      200      {object}  response.Response{data=service.CartTaxResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/cart/tax [post]
func (h *CheckoutHandler) CalculateCart(c *gin.Context) {
	var cart model.Cart
	if err := c.ShouldBindJSON(&cart); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	resp, err := h.checkout.CalculateCart(c.Request.Context(), &cart)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}
