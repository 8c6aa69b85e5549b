package normalizer

import (
	"testing"

	"github.com/shopspring/decimal"

	"golang-statement-importer/pkg/errors"
)

func newAmountNormalizer(t *testing.T, scale int64) *AmountNormalizer {
	t.Helper()
	config := DefaultConfig()
	config.AmountScale = decimal.NewFromInt(scale)
	an, err := NewAmountNormalizer(config)
	if err != nil {
		t.Fatalf("NewAmountNormalizer() error = %v", err)
	}
	return an
}

func TestAmountNormalizer_Normalize(t *testing.T) {
	an := newAmountNormalizer(t, 1)

	tests := []struct {
		name     string
		input    string
		sign     Sign
		value    string
		units    int64
		wantCode errors.ErrorCode
	}{
		{name: "grouped income", input: "+1 200,50 ₽", sign: Positive, value: "1200.5", units: 1200},
		{name: "en dash", input: "–500,00 ₽", sign: Negative, value: "500", units: 500},
		{name: "em dash", input: "—500,00 ₽", sign: Negative, value: "500", units: 500},
		{name: "hyphen", input: "-75,25", sign: Negative, value: "75.25", units: 75},
		{name: "unicode minus", input: "−3,00 ₽", sign: Negative, value: "3", units: 3},
		{name: "no sign defaults positive", input: "42,00 ₽", sign: Positive, value: "42", units: 42},
		{name: "no-break spaces", input: "+1\u00a0234\u202f567,89\u00a0₽", sign: Positive, value: "1234567.89", units: 1234568},
		{name: "space after sign", input: "- 10,00 ₽", sign: Negative, value: "10", units: 10},
		{name: "integer", input: "+7 ₽", sign: Positive, value: "7", units: 7},
		{name: "period decimal", input: "+2.40", sign: Positive, value: "2.4", units: 2},
		{name: "half rounds to even down", input: "+2,50 ₽", sign: Positive, value: "2.5", units: 2},
		{name: "half rounds to even up", input: "+3,50 ₽", sign: Positive, value: "3.5", units: 4},
		{name: "above half rounds up", input: "-0,51 ₽", sign: Negative, value: "0.51", units: 1},
		{name: "zero", input: "+0,00 ₽", wantCode: errors.CodeZeroAmount},
		{name: "rounds to zero", input: "-0,50 ₽", wantCode: errors.CodeZeroAmount},
		{name: "letters", input: "+12a,00 ₽", wantCode: errors.CodeInvalidAmount},
		{name: "two signs", input: "--5,00 ₽", wantCode: errors.CodeInvalidAmount},
		{name: "exponent", input: "+1e5", wantCode: errors.CodeInvalidAmount},
		{name: "two decimal separators", input: "+1,000,00", wantCode: errors.CodeInvalidAmount},
		{name: "sign only", input: "+ ₽", wantCode: errors.CodeInvalidAmount},
		{name: "empty", input: "", wantCode: errors.CodeInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := an.Normalize(tt.input)
			if tt.wantCode != "" {
				if !errors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s for %q, got %v (%+v)", tt.wantCode, tt.input, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if got.Sign != tt.sign {
				t.Errorf("sign = %s, want %s", got.Sign, tt.sign)
			}
			if !got.Value.Equal(decimal.RequireFromString(tt.value)) {
				t.Errorf("value = %s, want %s", got.Value, tt.value)
			}
			if got.MinorUnits != tt.units {
				t.Errorf("minor units = %d, want %d", got.MinorUnits, tt.units)
			}
			if got.Signed() != int64(tt.sign)*tt.units {
				t.Errorf("signed = %d", got.Signed())
			}
		})
	}
}

func TestAmountNormalizer_Scale(t *testing.T) {
	an := newAmountNormalizer(t, 100)

	tests := []struct {
		input string
		units int64
	}{
		{"+1 200,50 ₽", 120050},
		{"–500,00 ₽", 50000},
		{"+0,01 ₽", 1},
		{"+0,125", 12},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := an.Normalize(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MinorUnits != tt.units {
				t.Errorf("minor units = %d, want %d", got.MinorUnits, tt.units)
			}
		})
	}
}

func TestAmountNormalizer_ParseResult(t *testing.T) {
	an := newAmountNormalizer(t, 1)

	result := an.Parse("–1 000,00 ₽")
	if result.Kind != AmountParsed {
		t.Fatalf("expected parsed, got %s (%v)", result.Kind, result.Err)
	}
	if result.Cleaned != "1000.00" {
		t.Errorf("cleaned = %q, want %q", result.Cleaned, "1000.00")
	}
	if result.Amount.IsIncome() {
		t.Error("negative amount is not income")
	}

	zero := an.Parse("+0,00 ₽")
	if zero.Kind != AmountZero || zero.Err != nil {
		t.Errorf("expected zero without error, got %s / %v", zero.Kind, zero.Err)
	}

	invalid := an.Parse("abc")
	if invalid.Kind != AmountInvalid || invalid.Err == nil {
		t.Errorf("expected invalid with error, got %s / %v", invalid.Kind, invalid.Err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no templates", func(c *Config) { c.DateTemplates = nil }, true},
		{"blank template", func(c *Config) { c.DateTemplates = []string{" "} }, true},
		{"blank connector", func(c *Config) { c.DateConnectors = []string{""} }, true},
		{"zero scale", func(c *Config) { c.AmountScale = decimal.Zero }, true},
		{"negative scale", func(c *Config) { c.AmountScale = decimal.NewFromInt(-1) }, true},
		{"payee without group", func(c *Config) { c.PayeePatterns = []PayeePattern{{Label: "x", Pattern: "abc"}} }, true},
		{"payee bad regex", func(c *Config) { c.PayeePatterns = []PayeePattern{{Label: "x", Pattern: "(("}} }, true},
		{"payee without label", func(c *Config) { c.PayeePatterns = []PayeePattern{{Pattern: "(a)"}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if _, err := New(config); (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
