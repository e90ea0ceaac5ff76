package service

import (
	"taxsync/internal/config"
	"taxsync/internal/model"
	"taxsync/internal/taxapi"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

// TaxTotals is what a calculation contributes to a cart or order.
// TotalTax excludes ShippingTax.
type TaxTotals struct {
	OrderTax    decimal.Decimal `json:"order_tax"`
	ShippingTax decimal.Decimal `json:"shipping_tax"`
	TotalTax    decimal.Decimal `json:"total_tax"`
}

// CartTotals adds the recalculated grand total of a cart.
type CartTotals struct {
	TaxTotals
	LineTaxes       map[string]decimal.Decimal `json:"line_taxes"`
	CalculatedTotal decimal.Decimal            `json:"calculated_total"`
}

// --- Interface ---

type TaxReconciler interface {
	ApplyToCart(result *taxapi.TaxResult, cart *model.Cart, exempt bool) CartTotals
	ApplyToOrder(result *taxapi.TaxResult, order *model.Order, exempt bool) TaxTotals
	IsShippingTaxable(methodID string) bool
}

type taxReconciler struct {
	settings config.StoreSettings
}

func NewTaxReconciler(settings config.StoreSettings) TaxReconciler {
	return &taxReconciler{settings: settings}
}

// --- Implementation ---

func (r *taxReconciler) IsShippingTaxable(methodID string) bool {
	return isShippingTaxable(r.settings, methodID)
}

// ApplyToOrder writes per-item line tax and the order tax totals.
func (r *taxReconciler) ApplyToOrder(result *taxapi.TaxResult, order *model.Order, exempt bool) TaxTotals {
	index := make(map[int64]int, len(order.Items))
	for i := range order.Items {
		order.Items[i].LineTax = decimal.Zero
		if _, ok := index[order.Items[i].ProductKey()]; !ok {
			index[order.Items[i].ProductKey()] = i
		}
	}

	totals := reconcile(result, func(lineNumber int64, amount decimal.Decimal) bool {
		i, ok := index[lineNumber]
		if ok {
			order.Items[i].LineTax = order.Items[i].LineTax.Add(amount)
		}
		return ok
	})

	if exempt {
		for i := range order.Items {
			order.Items[i].LineTax = decimal.Zero
		}
		totals = TaxTotals{OrderTax: decimal.Zero, ShippingTax: decimal.Zero, TotalTax: decimal.Zero}
	}

	order.CartTax = totals.OrderTax
	order.ShippingTax = totals.ShippingTax
	order.TotalTax = totals.TotalTax
	return totals
}

// ApplyToCart writes per-item line tax and returns the cart totals.
func (r *taxReconciler) ApplyToCart(result *taxapi.TaxResult, cart *model.Cart, exempt bool) CartTotals {
	index := make(map[int64]int, len(cart.Items))
	for i := range cart.Items {
		cart.Items[i].LineTax = decimal.Zero
		if _, ok := index[cart.Items[i].ProductKey()]; !ok {
			index[cart.Items[i].ProductKey()] = i
		}
	}

	totals := reconcile(result, func(lineNumber int64, amount decimal.Decimal) bool {
		i, ok := index[lineNumber]
		if ok {
			cart.Items[i].LineTax = cart.Items[i].LineTax.Add(amount)
		}
		return ok
	})

	if exempt {
		for i := range cart.Items {
			cart.Items[i].LineTax = decimal.Zero
		}
		totals = TaxTotals{OrderTax: decimal.Zero, ShippingTax: decimal.Zero, TotalTax: decimal.Zero}
	}

	contents := lo.Reduce(cart.Items, func(sum decimal.Decimal, item model.CartItem, _ int) decimal.Decimal {
		return sum.Add(item.LineTotal)
	}, decimal.Zero)

	lineTaxes := make(map[string]decimal.Decimal, len(cart.Items))
	for _, item := range cart.Items {
		lineTaxes[item.Key] = item.LineTax
	}

	return CartTotals{
		TaxTotals:       totals,
		LineTaxes:       lineTaxes,
		CalculatedTotal: contents.Add(cart.ShippingTotal).Add(totals.TotalTax).Add(totals.ShippingTax),
	}
}

// reconcile joins response lines to source rows via assign, which reports
// whether the line number belongs to a row.
func reconcile(result *taxapi.TaxResult, assign func(lineNumber int64, amount decimal.Decimal) bool) TaxTotals {
	totals := TaxTotals{OrderTax: decimal.Zero, ShippingTax: decimal.Zero, TotalTax: decimal.Zero}
	if result == nil {
		return totals
	}

	for _, line := range result.Lines {
		if line.ItemKey == taxapi.ShippingItemKey {
			totals.ShippingTax = line.SalesTaxAmount
			continue
		}
		if line.ItemKey == "" {
			continue
		}
		if assign(line.LineNumber, line.SalesTaxAmount) {
			totals.OrderTax = totals.OrderTax.Add(line.SalesTaxAmount)
		}
	}

	// Prefer the merged line total only when both parts are present, so a
	// lone header amount is not counted twice.
	if !totals.ShippingTax.IsZero() && !totals.OrderTax.IsZero() {
		totals.TotalTax = totals.OrderTax
	} else {
		totals.TotalTax = result.SalesTaxAmount
	}
	return totals
}
