package taxapi

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Wire shapes shared by the SOAP and REST transports. Field names follow the
// remote service's contract, including its "Commited" spelling.

type security struct {
	PartnerKey string `xml:"PartnerKey" json:"PartnerKey"`
	Password   string `xml:"Password" json:"Password"`
}

type wireAddress struct {
	FirstName  string `xml:"FirstName,omitempty" json:"FirstName,omitempty"`
	LastName   string `xml:"LastName,omitempty" json:"LastName,omitempty"`
	Company    string `xml:"Company" json:"Company"`
	Street1    string `xml:"Street1" json:"Street1"`
	Street2    string `xml:"Street2" json:"Street2"`
	City       string `xml:"City" json:"City"`
	Region     string `xml:"Region" json:"Region"`
	PostalCode string `xml:"PostalCode" json:"PostalCode"`
	Country    string `xml:"Country" json:"Country"`
	Email      string `xml:"Email,omitempty" json:"Email,omitempty"`
	Phone      string `xml:"Phone,omitempty" json:"Phone,omitempty"`
}

type wireLine struct {
	LineNumber          int64  `xml:"LineNumber,omitempty" json:"LineNumber,omitempty"`
	ItemKey             string `xml:"ItemKey" json:"ItemKey"`
	ActualExtendedPrice string `xml:"ActualExtendedPrice" json:"ActualExtendedPrice"`
	TaxIncludedInPrice  bool   `xml:"TaxIncludedInPrice" json:"TaxIncludedInPrice"`
	Quantity            int    `xml:"Quantity" json:"Quantity"`
	ItemDescription     string `xml:"ItemDescription,omitempty" json:"ItemDescription,omitempty"`
	ItemTaxabilityCode  string `xml:"ItemTaxabilityCode" json:"ItemTaxabilityCode"`
}

type wireLines struct {
	TaxRequestLine []wireLine `xml:"TaxRequestLine" json:"TaxRequestLine"`
}

type wireDiscount struct {
	Order        int    `xml:"Order" json:"Order"`
	Code         string `xml:"Code" json:"Code"`
	Amount       string `xml:"Amount" json:"Amount"`
	DiscountType string `xml:"DiscountType" json:"DiscountType"`
}

type wireDiscounts struct {
	Discount []wireDiscount `xml:"Discount" json:"Discount"`
}

type calculateTaxRequest struct {
	Security                   security       `xml:"Security" json:"Security"`
	DocumentKey                string         `xml:"DocumentKey" json:"DocumentKey"`
	TaxDate                    string         `xml:"TaxDate" json:"TaxDate"`
	IsCommited                 bool           `xml:"IsCommited" json:"IsCommited"`
	CustomerKey                string         `xml:"CustomerKey" json:"CustomerKey"`
	CustomerTaxabilityCode     string         `xml:"CustomerTaxabilityCode" json:"CustomerTaxabilityCode"`
	CustomerRegistrationNumber string         `xml:"CustomerRegistrationNumber" json:"CustomerRegistrationNumber"`
	OriginAddress              *wireAddress   `xml:"OriginAddress,omitempty" json:"OriginAddress,omitempty"`
	DestinationAddress         *wireAddress   `xml:"DestinationAddress,omitempty" json:"DestinationAddress,omitempty"`
	Lines                      wireLines      `xml:"Lines" json:"Lines"`
	Discounts                  *wireDiscounts `xml:"Discounts,omitempty" json:"Discounts,omitempty"`
}

type cancelTaxRequest struct {
	Security    security `xml:"Security" json:"Security"`
	DocumentKey string   `xml:"DocumentKey" json:"DocumentKey"`
}

type commitTaxRequest struct {
	Security            security `xml:"Security" json:"Security"`
	DocumentKey         string   `xml:"DocumentKey" json:"DocumentKey"`
	CommitedDocumentKey string   `xml:"CommitedDocumentKey" json:"CommitedDocumentKey"`
}

type verifyAddressRequest struct {
	Security security `xml:"Security" json:"Security"`
	wireAddress
}

type getCodesRequest struct {
	Security security `xml:"Security" json:"Security"`
	CodeType string   `xml:"CodeType" json:"CodeType"`
}

type getVersionRequest struct {
	Security security `xml:"Security" json:"Security"`
}

type wireError struct {
	Code    string `xml:"Code" json:"Code"`
	Message string `xml:"Message" json:"Message"`
}

type wireErrors struct {
	Error []wireError `xml:"Error" json:"Error"`
}

func (e wireErrors) messages() []string {
	out := make([]string, 0, len(e.Error))
	for _, err := range e.Error {
		if err.Message != "" {
			out = append(out, err.Message)
		}
	}
	return out
}

// flexString decodes JSON strings, numbers and null alike.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(raw)
	return nil
}

type wireTaxLineDetail struct {
	LineNumber     flexString `xml:"LineNumber" json:"LineNumber"`
	ItemKey        string     `xml:"ItemKey" json:"ItemKey"`
	SalesTaxAmount flexString `xml:"SalesTaxAmount" json:"SalesTaxAmount"`
}

type calculateTaxResult struct {
	ResponseStatus string     `xml:"ResponseStatus" json:"ResponseStatus"`
	SalesTaxAmount flexString `xml:"SalesTaxAmount" json:"SalesTaxAmount"`
	TaxLineDetails struct {
		TaxLineDetail []wireTaxLineDetail `xml:"TaxLineDetail" json:"TaxLineDetail"`
	} `xml:"TaxLineDetails" json:"TaxLineDetails"`
	Errors wireErrors `xml:"Errors" json:"Errors"`
}

type calculateTaxResponse struct {
	Result calculateTaxResult `xml:"CalculateTaxResult" json:"CalculateTaxResult"`
}

type statusResult struct {
	ResponseStatus string     `xml:"ResponseStatus" json:"ResponseStatus"`
	Errors         wireErrors `xml:"Errors" json:"Errors"`
}

type cancelTaxResponse struct {
	Result statusResult `xml:"CancelTaxResult" json:"CancelTaxResult"`
}

type commitTaxResponse struct {
	Result statusResult `xml:"CommitTaxResult" json:"CommitTaxResult"`
}

type verifyAddressResponse struct {
	Result struct {
		statusResult
		Address wireAddress `xml:"Address" json:"Address"`
	} `xml:"VerifyAddressResult" json:"VerifyAddressResult"`
}

type getCodesResponse struct {
	Result struct {
		statusResult
		Codes struct {
			String []string `xml:"string" json:"string"`
		} `xml:"Codes" json:"Codes"`
	} `xml:"GetCodesResult" json:"GetCodesResult"`
}

type getVersionResponse struct {
	Result struct {
		statusResult
		Version string `xml:"Version" json:"Version"`
	} `xml:"GetVersionResult" json:"GetVersionResult"`
}

func toWireAddress(a *Address) *wireAddress {
	if a == nil {
		return nil
	}
	return &wireAddress{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Company:    a.Company,
		Street1:    a.Street1,
		Street2:    a.Street2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Email:      a.Email,
		Phone:      a.Phone,
	}
}

func fromWireAddress(w wireAddress) Address {
	return Address{
		FirstName:  w.FirstName,
		LastName:   w.LastName,
		Company:    w.Company,
		Street1:    w.Street1,
		Street2:    w.Street2,
		City:       w.City,
		Region:     w.Region,
		PostalCode: w.PostalCode,
		Country:    w.Country,
		Email:      w.Email,
		Phone:      w.Phone,
	}
}

// parseAmount reads a decimal the service may send empty.
func parseAmount(s flexString) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(s)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseLineNumber(s flexString) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(string(s)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
