package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PriceTier is the price and SLA commitment of one urgency class
type PriceTier struct {
	PriceCents int64 `yaml:"price_cents"`
	SLAHours   int   `yaml:"sla_hours"`
}

// SLA returns the tier's SLA as a duration
func (t PriceTier) SLA() time.Duration {
	return time.Duration(t.SLAHours) * time.Hour
}

// PricingConfig is the price/SLA table keyed by urgency class
type PricingConfig struct {
	Currency string    `yaml:"currency"`
	Standard PriceTier `yaml:"standard"`
	Urgent   PriceTier `yaml:"urgent"`
}

// pricingFile mirrors the YAML layout of PRICING_FILE
type pricingFile struct {
	Currency string               `yaml:"currency"`
	Tiers    map[string]PriceTier `yaml:"tiers"`
}

// Tier returns the tier for an urgency class name
func (p PricingConfig) Tier(urgency string) (PriceTier, bool) {
	switch strings.ToLower(urgency) {
	case "standard":
		return p.Standard, true
	case "urgent":
		return p.Urgent, true
	}
	return PriceTier{}, false
}

// Validate checks that every tier is usable
func (p PricingConfig) Validate() error {
	if p.Currency == "" {
		return fmt.Errorf("pricing currency must be set")
	}
	for name, tier := range map[string]PriceTier{"standard": p.Standard, "urgent": p.Urgent} {
		if tier.PriceCents <= 0 {
			return fmt.Errorf("%s price must be greater than 0", name)
		}
		if tier.SLAHours <= 0 {
			return fmt.Errorf("%s SLA hours must be greater than 0", name)
		}
	}
	return nil
}

// LoadPricingFile reads a YAML price table:
//
//	currency: usd
//	tiers:
//	  standard: {price_cents: 4900, sla_hours: 24}
//	  urgent:   {price_cents: 9900, sla_hours: 6}
func LoadPricingFile(path string) (*PricingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing file: %w", err)
	}

	var raw pricingFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pricing file: %w", err)
	}

	pricing := &PricingConfig{Currency: strings.ToLower(raw.Currency)}
	if pricing.Currency == "" {
		pricing.Currency = "usd"
	}
	for name, tier := range raw.Tiers {
		switch strings.ToLower(name) {
		case "standard":
			pricing.Standard = tier
		case "urgent":
			pricing.Urgent = tier
		default:
			return nil, fmt.Errorf("unknown urgency tier %q in pricing file", name)
		}
	}

	if err := pricing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing file: %w", err)
	}
	return pricing, nil
}
