package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"taxsync/internal/model"
	"taxsync/internal/taxapi"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const cartDocumentPrefix = "cart_"

// --- DTOs ---

// CartTaxResponse is what checkout shows. Applied is false when no tax
// could be calculated this pass; totals then carry no tax.
type CartTaxResponse struct {
	DocumentKey string     `json:"document_key"`
	CustomerKey string     `json:"customer_key"`
	Applied     bool       `json:"applied"`
	Totals      CartTotals `json:"totals"`
}

// --- Interface ---

type CheckoutService interface {
	CalculateCart(ctx context.Context, cart *model.Cart) (*CartTaxResponse, error)
}

type checkoutService struct {
	client           taxapi.Client
	resolver         AddressResolver
	builder          LineItemBuilder
	reconciler       TaxReconciler
	taxLog           TaxLogService
	log              *zap.Logger
	taxExemptEnabled bool
}

func NewCheckoutService(client taxapi.Client, resolver AddressResolver, builder LineItemBuilder, reconciler TaxReconciler,
	taxLog TaxLogService, log *zap.Logger, taxExemptEnabled bool) CheckoutService {
	return &checkoutService{
		client:           client,
		resolver:         resolver,
		builder:          builder,
		reconciler:       reconciler,
		taxLog:           taxLog,
		log:              log.Named("checkout"),
		taxExemptEnabled: taxExemptEnabled,
	}
}

// --- Implementation ---

// CalculateCart prices the cart without committing. Remote failures degrade
// to an untaxed cart; only local errors are returned.
func (s *checkoutService) CalculateCart(ctx context.Context, cart *model.Cart) (*CartTaxResponse, error) {
	if cart.DocumentKey == "" {
		cart.DocumentKey = cartDocumentPrefix + strings.ToLower(ulid.Make().String())
	}

	resp := &CartTaxResponse{
		DocumentKey: cart.DocumentKey,
		CustomerKey: cartCustomerKey(cart),
		Totals:      untaxedTotals(cart),
	}

	addr, err := s.cartAddress(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 || !s.resolver.Valid(addr) {
		return resp, nil
	}

	lines, shipping, err := s.builder.BuildCartLines(ctx, cart)
	if err != nil {
		return nil, err
	}
	if shipping != nil {
		lines = append(lines, *shipping)
	}

	exempt := s.taxExemptEnabled && cart.TaxExempt
	req := taxapi.TaxRequest{
		DocumentKey: cart.DocumentKey,
		CustomerKey: resp.CustomerKey,
		IsCommitted: false,
		Origin:      s.resolver.StoreAddress(),
		Destination: &addr,
		Lines:       lines,
		Discounts:   []taxapi.Discount{},
	}
	if exempt {
		req.IsExempt = taxapi.ExemptCode
	}

	result, err := s.client.CalculateTax(ctx, req)
	if err != nil {
		s.taxLog.Error(ctx, 0, fmt.Sprintf("cart %s calculation failed", cart.DocumentKey), err)
		return resp, nil
	}

	resp.Applied = true
	resp.Totals = s.reconciler.ApplyToCart(result, cart, exempt)
	return resp, nil
}

// cartAddress prefers what was typed at checkout over the saved profile.
func (s *checkoutService) cartAddress(ctx context.Context, cart *model.Cart) (taxapi.Address, error) {
	if cart.Billing.Postcode != "" || cart.Shipping.Postcode != "" {
		return s.resolver.ResolveSessionAddress(cart), nil
	}
	return s.resolver.ResolveCartAddress(ctx, cart.CustomerID)
}

func cartCustomerKey(cart *model.Cart) string {
	if cart.CustomerID > 0 {
		return strconv.FormatInt(cart.CustomerID, 10)
	}
	if cart.SessionID != "" {
		return cart.SessionID
	}
	return cart.DocumentKey
}

func untaxedTotals(cart *model.Cart) CartTotals {
	contents := lo.Reduce(cart.Items, func(sum decimal.Decimal, item model.CartItem, _ int) decimal.Decimal {
		return sum.Add(item.LineTotal)
	}, decimal.Zero)
	return CartTotals{
		TaxTotals:       TaxTotals{OrderTax: decimal.Zero, ShippingTax: decimal.Zero, TotalTax: decimal.Zero},
		LineTaxes:       map[string]decimal.Decimal{},
		CalculatedTotal: contents.Add(cart.ShippingTotal),
	}
}
