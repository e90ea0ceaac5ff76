package taxapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taxsync/internal/apperr"
	"taxsync/internal/metrics"

	"go.uber.org/zap"
)

const (
	MethodCalculateTax  = "CalculateTax"
	MethodCancelTax     = "CancelTax"
	MethodCommitTax     = "CommitTax"
	MethodVerifyAddress = "VerifyAddress"
	MethodGetCodes      = "GetCodes"
	MethodGetVersion    = "GetVersion"

	codeTypeItem = "Item"
	taxDateFmt   = "2006-01-02"
)

// ErrEmptyRequest is returned, without any network traffic, for zero-value requests.
var ErrEmptyRequest = fmt.Errorf("empty tax request: %w", apperr.ErrInvalidRequest)

// RejectedError is an explicit Failure answer from the tax service.
type RejectedError struct {
	Method   string
	Messages []string
}

func (e *RejectedError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s rejected", e.Method)
	}
	return fmt.Sprintf("%s rejected: %s", e.Method, strings.Join(e.Messages, "; "))
}

func (e *RejectedError) Unwrap() error { return apperr.ErrRemoteRejected }

// Transport moves one operation to the remote service and decodes its answer into out.
// Any failure to obtain a decodable answer is returned as an error.
type Transport interface {
	Call(ctx context.Context, method string, in, out any) error
}

// Client is the remote tax service as seen by the engine.
//
// Every method returns either a value or an error wrapping
// apperr.ErrRemoteUnavailable (transport failure) or a *RejectedError
// (explicit Failure status).
type Client interface {
	CalculateTax(ctx context.Context, req TaxRequest) (*TaxResult, error)
	CancelTax(ctx context.Context, documentKey string) (*Result, error)
	CommitTax(ctx context.Context, documentKey, committedDocumentKey string) (*Result, error)
	VerifyAddress(ctx context.Context, addr Address) (*AddressResult, error)
	GetCodes(ctx context.Context) ([]string, error)
	GetVersion(ctx context.Context) (string, error)
}

// Credentials authenticate every call; callers never see them.
type Credentials struct {
	PartnerKey string
	Password   string
}

type ClientConfig struct {
	Credentials Credentials
	StorePrefix string
}

type client struct {
	transport Transport
	cfg       ClientConfig
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewClient(transport Transport, cfg ClientConfig, log *zap.Logger, m *metrics.Metrics) Client {
	return &client{transport: transport, cfg: cfg, log: log, metrics: m}
}

func (c *client) security() security {
	return security{PartnerKey: c.cfg.Credentials.PartnerKey, Password: c.cfg.Credentials.Password}
}

// prefixed namespaces a key by store so several stores can share one account.
func (c *client) prefixed(key string) string {
	if key == "" || c.cfg.StorePrefix == "" {
		return key
	}
	return c.cfg.StorePrefix + "-" + key
}

func (c *client) CalculateTax(ctx context.Context, req TaxRequest) (*TaxResult, error) {
	if req.IsEmpty() {
		c.metrics.ObserveRemoteCall(MethodCalculateTax, "skipped", 0)
		return nil, ErrEmptyRequest
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	taxDate := req.TaxDate
	if taxDate.IsZero() {
		taxDate = time.Now()
	}

	wreq := calculateTaxRequest{
		Security:               c.security(),
		DocumentKey:            c.prefixed(req.DocumentKey),
		TaxDate:                taxDate.Format(taxDateFmt),
		IsCommited:             req.IsCommitted,
		CustomerKey:            c.prefixed(req.CustomerKey),
		CustomerTaxabilityCode: req.IsExempt,
		OriginAddress:          toWireAddress(req.Origin),
		DestinationAddress:     toWireAddress(req.Destination),
	}
	for _, line := range req.Lines {
		wreq.Lines.TaxRequestLine = append(wreq.Lines.TaxRequestLine, wireLine{
			LineNumber:          line.LineNumber,
			ItemKey:             line.ItemKey,
			ActualExtendedPrice: line.ExtendedPrice.StringFixed(2),
			TaxIncludedInPrice:  line.TaxIncludedInPrice,
			Quantity:            line.Quantity,
			ItemDescription:     line.Description,
			ItemTaxabilityCode:  line.TaxabilityCode,
		})
	}
	if len(req.Discounts) > 0 {
		wreq.Discounts = &wireDiscounts{}
		for i, d := range req.Discounts {
			wreq.Discounts.Discount = append(wreq.Discounts.Discount, wireDiscount{
				Order:        i + 1,
				Code:         d.Code,
				Amount:       d.Amount.StringFixed(2),
				DiscountType: string(d.Type),
			})
		}
	}

	var resp calculateTaxResponse
	if err := c.call(ctx, MethodCalculateTax, wreq, &resp); err != nil {
		return nil, err
	}

	result := &TaxResult{
		Status:         Status(resp.Result.ResponseStatus),
		SalesTaxAmount: parseAmount(resp.Result.SalesTaxAmount),
		Errors:         resp.Result.Errors.messages(),
	}
	for _, d := range resp.Result.TaxLineDetails.TaxLineDetail {
		result.Lines = append(result.Lines, TaxLineDetail{
			ItemKey:        d.ItemKey,
			LineNumber:     parseLineNumber(d.LineNumber),
			SalesTaxAmount: parseAmount(d.SalesTaxAmount),
		})
	}

	if err := c.checkStatus(MethodCalculateTax, result.Status, result.Errors); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *client) CancelTax(ctx context.Context, documentKey string) (*Result, error) {
	if documentKey == "" {
		c.metrics.ObserveRemoteCall(MethodCancelTax, "skipped", 0)
		return nil, ErrEmptyRequest
	}

	var resp cancelTaxResponse
	req := cancelTaxRequest{Security: c.security(), DocumentKey: c.prefixed(documentKey)}
	if err := c.call(ctx, MethodCancelTax, req, &resp); err != nil {
		return nil, err
	}
	return c.statusResult(MethodCancelTax, resp.Result)
}

func (c *client) CommitTax(ctx context.Context, documentKey, committedDocumentKey string) (*Result, error) {
	if documentKey == "" || committedDocumentKey == "" {
		c.metrics.ObserveRemoteCall(MethodCommitTax, "skipped", 0)
		return nil, ErrEmptyRequest
	}

	var resp commitTaxResponse
	req := commitTaxRequest{
		Security:            c.security(),
		DocumentKey:         c.prefixed(documentKey),
		CommitedDocumentKey: c.prefixed(committedDocumentKey),
	}
	if err := c.call(ctx, MethodCommitTax, req, &resp); err != nil {
		return nil, err
	}
	return c.statusResult(MethodCommitTax, resp.Result)
}

func (c *client) VerifyAddress(ctx context.Context, addr Address) (*AddressResult, error) {
	if addr == (Address{}) {
		c.metrics.ObserveRemoteCall(MethodVerifyAddress, "skipped", 0)
		return nil, ErrEmptyRequest
	}

	var resp verifyAddressResponse
	req := verifyAddressRequest{Security: c.security(), wireAddress: *toWireAddress(&addr)}
	if err := c.call(ctx, MethodVerifyAddress, req, &resp); err != nil {
		return nil, err
	}

	result := &AddressResult{
		Status:  Status(resp.Result.ResponseStatus),
		Address: fromWireAddress(resp.Result.Address),
		Errors:  resp.Result.Errors.messages(),
	}
	if err := c.checkStatus(MethodVerifyAddress, result.Status, result.Errors); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *client) GetCodes(ctx context.Context) ([]string, error) {
	var resp getCodesResponse
	req := getCodesRequest{Security: c.security(), CodeType: codeTypeItem}
	if err := c.call(ctx, MethodGetCodes, req, &resp); err != nil {
		return nil, err
	}
	if err := c.checkStatus(MethodGetCodes, Status(resp.Result.ResponseStatus), resp.Result.Errors.messages()); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(resp.Result.Codes.String))
	for _, code := range resp.Result.Codes.String {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func (c *client) GetVersion(ctx context.Context) (string, error) {
	var resp getVersionResponse
	if err := c.call(ctx, MethodGetVersion, getVersionRequest{Security: c.security()}, &resp); err != nil {
		return "", err
	}
	if err := c.checkStatus(MethodGetVersion, Status(resp.Result.ResponseStatus), resp.Result.Errors.messages()); err != nil {
		return "", err
	}
	return resp.Result.Version, nil
}

// call runs the transport and normalizes every failure into ErrRemoteUnavailable.
func (c *client) call(ctx context.Context, method string, in, out any) error {
	start := time.Now()
	err := c.transport.Call(ctx, method, in, out)
	if err != nil {
		c.metrics.ObserveRemoteCall(method, "unavailable", time.Since(start))
		c.log.Error("tax service call failed", zap.String("method", method), zap.Error(err))
		if errors.Is(err, apperr.ErrRemoteUnavailable) {
			return err
		}
		return fmt.Errorf("%s: %w: %v", method, apperr.ErrRemoteUnavailable, err)
	}
	c.metrics.ObserveRemoteCall(method, "answered", time.Since(start))
	return nil
}

func (c *client) statusResult(method string, r statusResult) (*Result, error) {
	result := &Result{Status: Status(r.ResponseStatus), Errors: r.Errors.messages()}
	if err := c.checkStatus(method, result.Status, result.Errors); err != nil {
		return nil, err
	}
	return result, nil
}

// checkStatus turns a Failure (or unknown) status into a logged *RejectedError.
func (c *client) checkStatus(method string, status Status, messages []string) error {
	if status == StatusSuccess {
		return nil
	}
	if status != StatusFailure && len(messages) == 0 {
		messages = []string{fmt.Sprintf("unexpected response status %q", status)}
	}
	c.metrics.ObserveRemoteCall(method, "rejected", 0)
	c.log.Error("tax service rejected request", zap.String("method", method), zap.Strings("messages", messages))
	return &RejectedError{Method: method, Messages: messages}
}
