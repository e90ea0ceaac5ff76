package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Address modes for tax_based_on.
const (
	TaxBasedOnBilling  = "billing"
	TaxBasedOnShipping = "shipping"
	TaxBasedOnBase     = "base"
)

// StoreSettings mirrors the host store's tax settings the engine depends on.
type StoreSettings struct {
	TaxBasedOn       string            `yaml:"tax_based_on"`
	PricesIncludeTax bool              `yaml:"prices_include_tax"`
	TaxEnabled       bool              `yaml:"tax_enabled"`
	BaseAddress      BaseAddress       `yaml:"base_address"`
	ShippingMethods  map[string]string `yaml:"shipping_methods"`
	TaxClasses       []string          `yaml:"tax_classes"`
}

// BaseAddress is the store's own address, used as origin and for "base" mode.
type BaseAddress struct {
	Company string `yaml:"company"`
	Street1 string `yaml:"street1"`
	Street2 string `yaml:"street2"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	Zip     string `yaml:"zip"`
	Country string `yaml:"country"`
	Email   string `yaml:"email"`
	Phone   string `yaml:"phone"`
}

// DefaultStoreSettings matches a freshly installed store.
func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		TaxBasedOn:      TaxBasedOnShipping,
		TaxEnabled:      true,
		ShippingMethods: map[string]string{},
	}
}

// LoadStoreSettings parses the YAML settings file. A missing file yields defaults.
func LoadStoreSettings(path string) (StoreSettings, error) {
	settings := DefaultStoreSettings()
	if path == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return StoreSettings{}, fmt.Errorf("read store settings: %w", err)
	}
	return ParseStoreSettings(raw)
}

// ParseStoreSettings decodes YAML on top of the defaults.
func ParseStoreSettings(raw []byte) (StoreSettings, error) {
	settings := DefaultStoreSettings()
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return StoreSettings{}, fmt.Errorf("parse store settings: %w", err)
	}

	settings.TaxBasedOn = strings.ToLower(strings.TrimSpace(settings.TaxBasedOn))
	switch settings.TaxBasedOn {
	case TaxBasedOnBilling, TaxBasedOnShipping, TaxBasedOnBase:
	case "":
		settings.TaxBasedOn = TaxBasedOnShipping
	default:
		return StoreSettings{}, fmt.Errorf("unknown tax_based_on %q", settings.TaxBasedOn)
	}

	if settings.ShippingMethods == nil {
		settings.ShippingMethods = map[string]string{}
	}
	return settings, nil
}
