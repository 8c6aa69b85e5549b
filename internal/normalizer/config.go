// Package normalizer converts raw statement fields into canonical values.
//
// Each normalizer records every attempt it made, successful or not, so a
// rejected value can be explained field by field instead of disappearing
// behind a generic parse failure.
package normalizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// PayeePattern is a labeled pattern whose first capture group is the payee
type PayeePattern struct {
	Label   string `json:"label"`
	Pattern string `json:"pattern"`
}

// Config holds configuration for date, amount and payee normalization
type Config struct {
	// DateConnectors separate a date from a trailing time ("27.07.2025 в 08:16").
	DateConnectors []string `json:"date_connectors"`
	// DateTemplates are Go time layouts tried in order.
	DateTemplates []string `json:"date_templates"`

	// CurrencyMarks are stripped from amounts before parsing.
	CurrencyMarks []string `json:"currency_marks"`
	// AmountScale multiplies parsed amounts before rounding to an integer.
	// 1 keeps whole currency units, 100 yields hundredths.
	AmountScale decimal.Decimal `json:"amount_scale"`

	PayeePatterns []PayeePattern `json:"payee_patterns"`
}

// DefaultConfig returns the configuration for the default statement layout
func DefaultConfig() *Config {
	return &Config{
		DateConnectors: []string{"в", "at"},
		DateTemplates: []string{
			"2.1.2006",
			"2.1.2006 в 15:04",
			"2006-1-2",
			"2/1/2006",
			"2006.1.2",
		},
		CurrencyMarks: []string{"₽", "руб.", "RUB"},
		AmountScale:   decimal.NewFromInt(1),
		PayeePatterns: []PayeePattern{
			{Label: "incoming_sbp", Pattern: `Входящий перевод СБП, ([^,]+)`},
			{Label: "outgoing_sbp", Pattern: `Исходящий перевод СБП, ([^,]+)`},
			{Label: "merchant", Pattern: `Оплата товаров и услуг ([A-Z_0-9]+)`},
		},
	}
}

// Validate checks if the normalizer configuration is valid
func (c *Config) Validate() error {
	if len(c.DateTemplates) == 0 {
		return fmt.Errorf("at least one date template is required")
	}
	for i, tmpl := range c.DateTemplates {
		if strings.TrimSpace(tmpl) == "" {
			return fmt.Errorf("date template %d cannot be empty", i)
		}
	}
	for i, conn := range c.DateConnectors {
		if strings.TrimSpace(conn) == "" {
			return fmt.Errorf("date connector %d cannot be empty", i)
		}
	}

	if !c.AmountScale.IsPositive() {
		return fmt.Errorf("amount scale must be positive, got %s", c.AmountScale)
	}

	for _, p := range c.PayeePatterns {
		if strings.TrimSpace(p.Label) == "" {
			return fmt.Errorf("payee pattern label cannot be empty")
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return fmt.Errorf("invalid payee pattern %s: %w", p.Label, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("payee pattern %s must capture the payee name", p.Label)
		}
	}

	return nil
}

// Normalizer bundles the date, amount and payee normalizers built from one Config
type Normalizer struct {
	Dates   *DateNormalizer
	Amounts *AmountNormalizer
	Payees  *PayeeExtractor
}

// New creates all normalizers from config
func New(config *Config) (*Normalizer, error) {
	dates, err := NewDateNormalizer(config)
	if err != nil {
		return nil, err
	}
	amounts, err := NewAmountNormalizer(config)
	if err != nil {
		return nil, err
	}
	payees, err := NewPayeeExtractor(config)
	if err != nil {
		return nil, err
	}
	return &Normalizer{Dates: dates, Amounts: amounts, Payees: payees}, nil
}
