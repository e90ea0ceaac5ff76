package service_test

import (
	"context"
	"strings"
	"testing"

	"taxsync/internal/config"
	"taxsync/internal/model"
	"taxsync/internal/service"
	"taxsync/internal/taxapi"
	"taxsync/internal/taxapi/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTestCheckout(t *testing.T, exemptEnabled bool) (service.CheckoutService, *mocks.MockClient, *fakeTaxLogRepo) {
	t.Helper()
	client := mocks.NewMockClient(gomock.NewController(t))
	settings := storeSettings(config.TaxBasedOnShipping)
	logs := &fakeTaxLogRepo{}
	products := newFakeProductRepo(model.Product{ID: 7, SKU: "MUG-7", TaxStatus: model.TaxStatusTaxable})

	svc := service.NewCheckoutService(
		client,
		service.NewAddressResolver(settings, &fakeCustomerRepo{}),
		service.NewLineItemBuilder(settings, products, "shop"),
		service.NewTaxReconciler(settings),
		service.NewTaxLogService(logs, nil, zap.NewNop(), true),
		zap.NewNop(),
		exemptEnabled,
	)
	return svc, client, logs
}

func scenarioCart() *model.Cart {
	return &model.Cart{
		SessionID:        "sess-1",
		Shipping:         model.Address{State: "CA", Postcode: "93650", Country: "US"},
		ShippingMethodID: "flat_rate:3",
		ShippingTotal:    dec("5.00"),
		Items:            []model.CartItem{{Key: "k7", ProductID: 7, Quantity: 2, LineTotal: dec("25.00")}},
	}
}

func TestCheckout_CalculateCart(t *testing.T) {
	svc, client, _ := newTestCheckout(t, true)

	client.EXPECT().CalculateTax(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req taxapi.TaxRequest) (*taxapi.TaxResult, error) {
			assert.True(t, strings.HasPrefix(req.DocumentKey, "cart_"))
			assert.Equal(t, "sess-1", req.CustomerKey)
			assert.False(t, req.IsCommitted)
			require.Len(t, req.Lines, 2)
			return scenarioResult(), nil
		})

	resp, err := svc.CalculateCart(context.Background(), scenarioCart())
	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.True(t, strings.HasPrefix(resp.DocumentKey, "cart_"))
	assert.True(t, resp.Totals.TotalTax.Equal(dec("2.00")))
	assert.True(t, resp.Totals.ShippingTax.Equal(dec("0.40")))
	assert.True(t, resp.Totals.CalculatedTotal.Equal(dec("32.40")))
}

func TestCheckout_KeepsExistingDocumentKey(t *testing.T) {
	svc, client, _ := newTestCheckout(t, true)
	cart := scenarioCart()
	cart.DocumentKey = "cart_existing"
	cart.CustomerID = 9

	client.EXPECT().CalculateTax(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req taxapi.TaxRequest) (*taxapi.TaxResult, error) {
			assert.Equal(t, "cart_existing", req.DocumentKey)
			assert.Equal(t, "9", req.CustomerKey)
			return scenarioResult(), nil
		})

	resp, err := svc.CalculateCart(context.Background(), cart)
	require.NoError(t, err)
	assert.Equal(t, "cart_existing", resp.DocumentKey)
}

func TestCheckout_RemoteFailureDegradesToNoTax(t *testing.T) {
	svc, client, logs := newTestCheckout(t, true)
	client.EXPECT().CalculateTax(gomock.Any(), gomock.Any()).Return(nil, unavailable())

	resp, err := svc.CalculateCart(context.Background(), scenarioCart())
	require.NoError(t, err)
	assert.False(t, resp.Applied)
	assert.True(t, resp.Totals.TotalTax.IsZero())
	assert.True(t, resp.Totals.CalculatedTotal.Equal(dec("30.00")))
	assert.Len(t, logs.entries, 1)
}

func TestCheckout_InvalidAddressSkipsRemote(t *testing.T) {
	svc, _, logs := newTestCheckout(t, true)
	cart := scenarioCart()
	cart.Shipping.Country = "GB"

	resp, err := svc.CalculateCart(context.Background(), cart)
	require.NoError(t, err)
	assert.False(t, resp.Applied)
	assert.Empty(t, logs.entries)
}

func TestCheckout_TaxExempt(t *testing.T) {
	tests := []struct {
		name          string
		exemptEnabled bool
		wantExempt    string
		wantTax       string
	}{
		{"exempt checkbox enabled", true, taxapi.ExemptCode, "0"},
		{"exempt checkbox disabled", false, "", "2.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, client, _ := newTestCheckout(t, tt.exemptEnabled)
			cart := scenarioCart()
			cart.TaxExempt = true

			client.EXPECT().CalculateTax(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, req taxapi.TaxRequest) (*taxapi.TaxResult, error) {
					assert.Equal(t, tt.wantExempt, req.IsExempt)
					return scenarioResult(), nil
				})

			resp, err := svc.CalculateCart(context.Background(), cart)
			require.NoError(t, err)
			assert.True(t, resp.Totals.TotalTax.Equal(dec(tt.wantTax)))
		})
	}
}
