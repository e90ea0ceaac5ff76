package taxapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/taxapi"
	"taxsync/internal/taxapi/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTestClient(transport taxapi.Transport) taxapi.Client {
	return taxapi.NewClient(transport, taxapi.ClientConfig{
		Credentials: taxapi.Credentials{PartnerKey: "partner", Password: "secret"},
		StorePrefix: "shop",
	}, zap.NewNop(), nil)
}

func orderRequest() taxapi.TaxRequest {
	return taxapi.TaxRequest{
		DocumentKey: "100",
		CustomerKey: "42",
		TaxDate:     time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC),
		IsCommitted: true,
		Destination: &taxapi.Address{Street1: "1 Main St", City: "Los Angeles", Region: "CA", PostalCode: "90001", Country: "US"},
		Lines: []taxapi.LineItem{
			{LineNumber: 7, ItemKey: "shop-SKU7", ExtendedPrice: decimal.RequireFromString("50"), Quantity: 2, TaxabilityCode: taxapi.TaxabilityTaxable},
			{ItemKey: taxapi.ShippingItemKey, ExtendedPrice: decimal.RequireFromString("5"), Quantity: 1, TaxabilityCode: taxapi.TaxabilityShipping},
		},
	}
}

// fillOut decodes a JSON document into the transport's response value.
func fillOut(doc string) func(ctx context.Context, method string, in, out any) error {
	return func(_ context.Context, _ string, _, out any) error {
		return json.Unmarshal([]byte(doc), out)
	}
}

func TestCalculateTax_EmptyRequestNeverCallsTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)

	result, err := newTestClient(transport).CalculateTax(context.Background(), taxapi.TaxRequest{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, taxapi.ErrEmptyRequest)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
}

func TestCalculateTax_InvalidRequestNeverCallsTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)

	req := orderRequest()
	req.DocumentKey = ""

	_, err := newTestClient(transport).CalculateTax(context.Background(), req)
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
}

func TestCalculateTax_SendsPrefixedKeysAndMapsResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)

	var sent map[string]any
	transport.EXPECT().
		Call(gomock.Any(), taxapi.MethodCalculateTax, gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, method string, in, out any) error {
			raw, err := json.Marshal(in)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, &sent))
			return fillOut(`{"CalculateTaxResult":{
				"ResponseStatus":"Success",
				"SalesTaxAmount":"2.40",
				"TaxLineDetails":{"TaxLineDetail":[
					{"LineNumber":"7","ItemKey":"shop-SKU7","SalesTaxAmount":"2.00"},
					{"LineNumber":"","ItemKey":"shipping_cost","SalesTaxAmount":"0.40"}
				]}}}`)(ctx, method, in, out)
		})

	result, err := newTestClient(transport).CalculateTax(context.Background(), orderRequest())
	require.NoError(t, err)

	assert.Equal(t, "shop-100", sent["DocumentKey"])
	assert.Equal(t, "shop-42", sent["CustomerKey"])
	assert.Equal(t, "2024-03-09", sent["TaxDate"])
	assert.Equal(t, true, sent["IsCommited"])
	security := sent["Security"].(map[string]any)
	assert.Equal(t, "partner", security["PartnerKey"])
	assert.Equal(t, "secret", security["Password"])

	assert.Equal(t, taxapi.StatusSuccess, result.Status)
	assert.True(t, result.SalesTaxAmount.Equal(decimal.RequireFromString("2.40")))
	require.Len(t, result.Lines, 2)
	assert.Equal(t, int64(7), result.Lines[0].LineNumber)
	assert.Equal(t, int64(0), result.Lines[1].LineNumber)
	assert.True(t, result.Lines[1].SalesTaxAmount.Equal(decimal.RequireFromString("0.40")))
}

func TestCalculateTax_TransportErrorIsRemoteUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Call(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := newTestClient(transport).CalculateTax(context.Background(), orderRequest())

	assert.ErrorIs(t, err, apperr.ErrRemoteUnavailable)
	assert.Equal(t, "remote_unavailable", apperr.Kind(err))
}

func TestCalculateTax_FailureStatusIsRemoteRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Call(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(fillOut(`{"CalculateTaxResult":{"ResponseStatus":"Failure","Errors":{"Error":[{"Code":"E12","Message":"Invalid PostalCode"}]}}}`))

	_, err := newTestClient(transport).CalculateTax(context.Background(), orderRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRemoteRejected)
	var rejected *taxapi.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, []string{"Invalid PostalCode"}, rejected.Messages)
}

func TestCancelTax(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		setupMocks func(transport *mocks.MockTransport)
		wantErr    error
	}{
		{
			name:       "empty key is a no-op",
			key:        "",
			setupMocks: func(*mocks.MockTransport) {},
			wantErr:    taxapi.ErrEmptyRequest,
		},
		{
			name: "success",
			key:  "100",
			setupMocks: func(transport *mocks.MockTransport) {
				transport.EXPECT().Call(gomock.Any(), taxapi.MethodCancelTax, gomock.Any(), gomock.Any()).
					DoAndReturn(fillOut(`{"CancelTaxResult":{"ResponseStatus":"Success"}}`))
			},
		},
		{
			name: "rejected",
			key:  "100",
			setupMocks: func(transport *mocks.MockTransport) {
				transport.EXPECT().Call(gomock.Any(), taxapi.MethodCancelTax, gomock.Any(), gomock.Any()).
					DoAndReturn(fillOut(`{"CancelTaxResult":{"ResponseStatus":"Failure","Errors":{"Error":[{"Message":"Document not found"}]}}}`))
			},
			wantErr: apperr.ErrRemoteRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			transport := mocks.NewMockTransport(ctrl)
			tt.setupMocks(transport)

			result, err := newTestClient(transport).CancelTax(context.Background(), tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, taxapi.StatusSuccess, result.Status)
		})
	}
}

func TestCommitTax_RequiresBothKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)

	_, err := newTestClient(transport).CommitTax(context.Background(), "cart_1", "")
	assert.ErrorIs(t, err, taxapi.ErrEmptyRequest)
}

func TestGetCodes_TrimsAndDropsBlanks(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Call(gomock.Any(), taxapi.MethodGetCodes, gomock.Any(), gomock.Any()).
		DoAndReturn(fillOut(`{"GetCodesResult":{"ResponseStatus":"Success","Codes":{"string":[" CLOTHING ","","FOOD"]}}}`))

	codes, err := newTestClient(transport).GetCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CLOTHING", "FOOD"}, codes)
}

func TestGetVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Call(gomock.Any(), taxapi.MethodGetVersion, gomock.Any(), gomock.Any()).
		DoAndReturn(fillOut(`{"GetVersionResult":{"ResponseStatus":"Success","Version":"1.1.0"}}`))

	version, err := newTestClient(transport).GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", version)
}

func TestVerifyAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().Call(gomock.Any(), taxapi.MethodVerifyAddress, gomock.Any(), gomock.Any()).
		DoAndReturn(fillOut(`{"VerifyAddressResult":{"ResponseStatus":"Success","Address":{"Street1":"1 MAIN ST","City":"LOS ANGELES","Region":"CA","PostalCode":"90001-1234","Country":"US"}}}`))

	result, err := newTestClient(transport).VerifyAddress(context.Background(), taxapi.Address{Street1: "1 main st", City: "los angeles", Region: "CA", PostalCode: "90001", Country: "US"})
	require.NoError(t, err)
	assert.Equal(t, "90001-1234", result.Address.PostalCode)
}
