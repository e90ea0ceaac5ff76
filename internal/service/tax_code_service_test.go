package service_test

import (
	"context"
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

func TestTaxCodeService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("configured classes win", func(t *testing.T) {
		client := mocks.NewMockClient(gomock.NewController(t))
		settings := config.DefaultStoreSettings()
		settings.TaxClasses = []string{"food", "clothing"}

		res, err := service.NewTaxCodeService(client, &fakeOptionRepo{}, settings, zap.NewNop()).List(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, "config", res.Source)
		assert.Equal(t, []string{"food", "clothing"}, res.Codes)
	})

	t.Run("remote codes are cached", func(t *testing.T) {
		client := mocks.NewMockClient(gomock.NewController(t))
		options := &fakeOptionRepo{}
		svc := service.NewTaxCodeService(client, options, config.DefaultStoreSettings(), zap.NewNop())

		client.EXPECT().GetCodes(gomock.Any()).Return([]string{"A", "B"}, nil).Times(1)

		first, err := svc.List(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, "remote", first.Source)
		assert.JSONEq(t, `["A","B"]`, options.values[model.OptionTaxClasses])

		second, err := svc.List(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, "cache", second.Source)
		assert.Equal(t, []string{"A", "B"}, second.Codes)
	})

	t.Run("refresh bypasses cache", func(t *testing.T) {
		client := mocks.NewMockClient(gomock.NewController(t))
		options := &fakeOptionRepo{values: map[string]string{model.OptionTaxClasses: `["OLD"]`}}
		svc := service.NewTaxCodeService(client, options, config.DefaultStoreSettings(), zap.NewNop())

		client.EXPECT().GetCodes(gomock.Any()).Return([]string{"NEW"}, nil)

		res, err := svc.List(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"NEW"}, res.Codes)
	})
}

func TestTaxCodeService_VerifyAndVersion(t *testing.T) {
	client := mocks.NewMockClient(gomock.NewController(t))
	svc := service.NewTaxCodeService(client, &fakeOptionRepo{}, config.DefaultStoreSettings(), zap.NewNop())
	addr := taxapi.Address{Street1: "1 Main", City: "Fresno", Region: "CA", PostalCode: "93650", Country: "US"}

	client.EXPECT().VerifyAddress(gomock.Any(), addr).
		Return(&taxapi.AddressResult{Status: taxapi.StatusSuccess, Address: addr}, nil)
	client.EXPECT().GetVersion(gomock.Any()).Return("1.1.0", nil)

	res, err := svc.VerifyAddress(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, taxapi.StatusSuccess, res.Status)

	v, err := svc.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.Version)
}
