package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"taxsync/internal/config"
	"taxsync/internal/model"
	"taxsync/internal/repository"
	"taxsync/internal/taxapi"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// --- Interface ---

// LineItemBuilder turns cart and order contents into tax service lines.
// The shipping line is returned separately and is nil when shipping is
// untaxed or free.
type LineItemBuilder interface {
	BuildCartLines(ctx context.Context, cart *model.Cart) ([]taxapi.LineItem, *taxapi.LineItem, error)
	BuildOrderLines(ctx context.Context, order *model.Order) ([]taxapi.LineItem, *taxapi.LineItem, error)
	BuildRefundDiscounts(order *model.Order) []taxapi.Discount
}

type lineItemBuilder struct {
	settings    config.StoreSettings
	products    repository.ProductRepository
	storePrefix string
}

func NewLineItemBuilder(settings config.StoreSettings, products repository.ProductRepository, storePrefix string) LineItemBuilder {
	return &lineItemBuilder{settings: settings, products: products, storePrefix: storePrefix}
}

// --- Implementation ---

type lineSource struct {
	productKey int64
	name       string
	quantity   int
	total      decimal.Decimal
}

func (b *lineItemBuilder) BuildCartLines(ctx context.Context, cart *model.Cart) ([]taxapi.LineItem, *taxapi.LineItem, error) {
	rows := lo.Map(cart.Items, func(item model.CartItem, _ int) lineSource {
		return lineSource{productKey: item.ProductKey(), quantity: item.Quantity, total: item.LineTotal}
	})
	lines, err := b.buildLines(ctx, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("build cart lines: %w", err)
	}
	return lines, b.shippingLine(cart.ShippingMethodID, cart.ShippingTotal), nil
}

func (b *lineItemBuilder) BuildOrderLines(ctx context.Context, order *model.Order) ([]taxapi.LineItem, *taxapi.LineItem, error) {
	rows := lo.Map(order.Items, func(item model.OrderItem, _ int) lineSource {
		return lineSource{productKey: item.ProductKey(), name: item.Name, quantity: item.Quantity, total: item.LineTotal}
	})
	lines, err := b.buildLines(ctx, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("build order %d lines: %w", order.ID, err)
	}
	return lines, b.shippingLine(order.ShippingMethodID, order.ShippingTotal), nil
}

// BuildRefundDiscounts sends every non-empty refund as a positive discount.
func (b *lineItemBuilder) BuildRefundDiscounts(order *model.Order) []taxapi.Discount {
	discounts := make([]taxapi.Discount, 0, len(order.Refunds))
	for _, r := range order.Refunds {
		if r.Amount.IsZero() {
			continue
		}
		discounts = append(discounts, taxapi.Discount{
			Code:   fmt.Sprintf("Refund #%d for Order# %d", r.ID, order.ID),
			Amount: r.Amount.Abs(),
			Type:   taxapi.DiscountRefund,
		})
	}
	return discounts
}

func (b *lineItemBuilder) buildLines(ctx context.Context, rows []lineSource) ([]taxapi.LineItem, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	catalog, err := b.loadCatalog(ctx, lo.Map(rows, func(r lineSource, _ int) int64 { return r.productKey }))
	if err != nil {
		return nil, err
	}

	lines := make([]taxapi.LineItem, 0, len(rows))
	for _, row := range rows {
		product := catalog[row.productKey]
		name := row.name
		if name == "" {
			name = product.Name
		}
		qty := row.quantity
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, taxapi.LineItem{
			LineNumber:         row.productKey,
			ItemKey:            b.itemKey(product),
			Description:        name,
			ExtendedPrice:      row.total,
			TaxIncludedInPrice: b.settings.PricesIncludeTax,
			Quantity:           qty,
			TaxabilityCode:     b.taxabilityCode(product, catalog),
		})
	}
	return lines, nil
}

// loadCatalog fetches the products and, for variations, their parents.
func (b *lineItemBuilder) loadCatalog(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	catalog, err := b.products.FindByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var parents []int64
	for _, p := range catalog {
		if _, ok := catalog[p.ParentID]; p.ParentID != 0 && !ok {
			parents = append(parents, p.ParentID)
		}
	}
	if len(parents) == 0 {
		return catalog, nil
	}

	more, err := b.products.FindByIDs(ctx, lo.Uniq(parents))
	if err != nil {
		return nil, fmt.Errorf("load parent products: %w", err)
	}
	for id, p := range more {
		catalog[id] = p
	}
	return catalog, nil
}

func (b *lineItemBuilder) itemKey(p model.Product) string {
	key := p.ItemKey()
	if key == "" {
		key = fmt.Sprintf("%d", p.ID)
	}
	if b.storePrefix == "" {
		return key
	}
	return b.storePrefix + "-" + key
}

// taxabilityCode resolves, in order: variation class, parent class, the
// product's own class, then the native tax status.
func (b *lineItemBuilder) taxabilityCode(p model.Product, catalog map[int64]model.Product) string {
	if b.settings.PricesIncludeTax || p.TaxStatus == model.TaxStatusNone {
		return taxapi.TaxabilityNone
	}
	if p.TaxClass != "" {
		return p.TaxClass
	}
	if parent, ok := catalog[p.ParentID]; ok && p.ParentID != 0 {
		if parent.TaxClass != "" {
			return parent.TaxClass
		}
		if p.TaxStatus == "" {
			return b.nativeStatus(parent.TaxStatus)
		}
	}
	return b.nativeStatus(p.TaxStatus)
}

func (b *lineItemBuilder) nativeStatus(status string) string {
	switch status {
	case model.TaxStatusTaxable:
		return taxapi.TaxabilityTaxable
	case model.TaxStatusShipping:
		return taxapi.TaxabilityShipping
	case "":
		if b.settings.TaxEnabled {
			return taxapi.TaxabilityTaxable
		}
	}
	return taxapi.TaxabilityNone
}

func (b *lineItemBuilder) shippingLine(methodID string, cost decimal.Decimal) *taxapi.LineItem {
	if cost.IsZero() || !isShippingTaxable(b.settings, methodID) {
		return nil
	}
	return &taxapi.LineItem{
		ItemKey:        taxapi.ShippingItemKey,
		ExtendedPrice:  cost,
		Quantity:       1,
		TaxabilityCode: taxapi.TaxabilityShipping,
	}
}

// isShippingTaxable looks up the store's per-method setting. Unknown
// methods are not taxable.
func isShippingTaxable(settings config.StoreSettings, methodID string) bool {
	key := NormalizeShippingMethod(methodID)
	if key == "" {
		return false
	}
	status, ok := settings.ShippingMethods[key]
	return ok && strings.EqualFold(status, model.TaxStatusTaxable)
}

// NormalizeShippingMethod maps a rate id to its settings key:
// "flat_rate:3" becomes "flat_rate_3", "free_shipping:abc" becomes "free_shipping".
func NormalizeShippingMethod(methodID string) string {
	methodID = strings.TrimSpace(methodID)
	if methodID == "" {
		return ""
	}
	last := rune(methodID[len(methodID)-1])
	if unicode.IsDigit(last) {
		return strings.ReplaceAll(methodID, ":", "_")
	}
	if i := strings.Index(methodID, ":"); i > 0 {
		return methodID[:i]
	}
	return methodID
}
