package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"taxsync/internal/apperr"
	"taxsync/internal/config"
	"taxsync/internal/model"
	"taxsync/internal/repository"
	"taxsync/internal/taxapi"
)

var usPostcode = regexp.MustCompile(`^([0-9]{5})(-[0-9]{4})?$`)

// --- Interface ---

// AddressResolver picks the destination address tax is based on and decides
// whether it is eligible for remote calculation (US only).
type AddressResolver interface {
	ResolveCartAddress(ctx context.Context, customerID int64) (taxapi.Address, error)
	ResolveSessionAddress(cart *model.Cart) taxapi.Address
	ResolveOrderAddress(order *model.Order) taxapi.Address
	StoreAddress() *taxapi.Address
	Valid(addr taxapi.Address) bool
}

type addressResolver struct {
	settings  config.StoreSettings
	customers repository.CustomerRepository
}

func NewAddressResolver(settings config.StoreSettings, customers repository.CustomerRepository) AddressResolver {
	return &addressResolver{settings: settings, customers: customers}
}

// --- Implementation ---

// ResolveCartAddress uses the saved addresses of a registered customer.
// Unknown or guest customers resolve to an empty (invalid) address unless
// tax is based on the store address.
func (r *addressResolver) ResolveCartAddress(ctx context.Context, customerID int64) (taxapi.Address, error) {
	if r.settings.TaxBasedOn == config.TaxBasedOnBase {
		return r.baseAddress(), nil
	}
	if customerID == 0 {
		return taxapi.Address{}, nil
	}

	customer, err := r.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return taxapi.Address{}, nil
		}
		return taxapi.Address{}, fmt.Errorf("resolve cart address: %w", err)
	}
	return r.pick(customer.Billing, customer.Shipping), nil
}

// ResolveSessionAddress uses the addresses entered during a guest checkout.
func (r *addressResolver) ResolveSessionAddress(cart *model.Cart) taxapi.Address {
	if r.settings.TaxBasedOn == config.TaxBasedOnBase {
		return r.baseAddress()
	}
	return r.pick(cart.Billing, cart.Shipping)
}

func (r *addressResolver) ResolveOrderAddress(order *model.Order) taxapi.Address {
	if r.settings.TaxBasedOn == config.TaxBasedOnBase {
		return r.baseAddress()
	}
	return r.pick(order.Billing, order.Shipping)
}

// StoreAddress is the origin address, or nil when the store has no postcode set.
func (r *addressResolver) StoreAddress() *taxapi.Address {
	if strings.TrimSpace(r.settings.BaseAddress.Zip) == "" {
		return nil
	}
	addr := r.baseAddress()
	return &addr
}

func (r *addressResolver) Valid(addr taxapi.Address) bool {
	if strings.TrimSpace(addr.Country) == "" || strings.TrimSpace(addr.Region) == "" || strings.TrimSpace(addr.PostalCode) == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(addr.Country)) {
	case "us", "usa", "united states":
		return true
	}
	return false
}

// pick applies the tax_based_on mode. Shipping falls back to billing when
// no shipping postcode was entered.
func (r *addressResolver) pick(billing, shipping model.Address) taxapi.Address {
	if r.settings.TaxBasedOn == config.TaxBasedOnShipping && strings.TrimSpace(shipping.Postcode) != "" {
		addr := toTaxAddress(shipping)
		if addr.Email == "" {
			addr.Email = billing.Email
		}
		if addr.Phone == "" {
			addr.Phone = billing.Phone
		}
		return addr
	}
	return toTaxAddress(billing)
}

func (r *addressResolver) baseAddress() taxapi.Address {
	b := r.settings.BaseAddress
	return taxapi.Address{
		Company:    b.Company,
		Street1:    b.Street1,
		Street2:    b.Street2,
		City:       b.City,
		Region:     b.State,
		PostalCode: b.Zip,
		Country:    b.Country,
		Email:      b.Email,
		Phone:      b.Phone,
	}
}

func toTaxAddress(a model.Address) taxapi.Address {
	return taxapi.Address{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Company:    a.Company,
		Street1:    a.Address1,
		Street2:    a.Address2,
		City:       a.City,
		Region:     a.State,
		PostalCode: a.Postcode,
		Country:    a.Country,
		Email:      a.Email,
		Phone:      a.Phone,
	}
}

// IsUSPostcode reports whether zip is a 5 or 5+4 digit US ZIP code.
func IsUSPostcode(zip string) bool {
	return usPostcode.MatchString(strings.TrimSpace(zip))
}
