package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// Sign of a normalized amount
type Sign int

const (
	// Positive amounts are income
	Positive Sign = 1
	// Negative amounts are outcome
	Negative Sign = -1
)

// String returns the sign character
func (s Sign) String() string {
	if s == Negative {
		return "-"
	}
	return "+"
}

// AmountKind tells how amount parsing ended
type AmountKind int

const (
	// AmountParsed: a nonzero amount was produced
	AmountParsed AmountKind = iota
	// AmountInvalid: the numeral could not be parsed
	AmountInvalid
	// AmountZero: the amount parsed but rounds to zero
	AmountZero
)

// String returns the string representation of AmountKind
func (k AmountKind) String() string {
	switch k {
	case AmountParsed:
		return "parsed"
	case AmountInvalid:
		return "invalid"
	case AmountZero:
		return "zero"
	default:
		return fmt.Sprintf("amount(%d)", int(k))
	}
}

// Amount is a normalized signed amount
type Amount struct {
	Sign Sign
	// Value is the parsed amount before scaling and rounding, always non-negative.
	Value decimal.Decimal
	// MinorUnits is Value scaled and rounded half to even, always non-negative.
	MinorUnits int64
}

// Signed returns the minor units carrying the sign
func (a Amount) Signed() int64 {
	return int64(a.Sign) * a.MinorUnits
}

// IsIncome reports whether the amount is income
func (a Amount) IsIncome() bool {
	return a.Sign == Positive
}

// AmountResult is the trace of normalizing one amount string
type AmountResult struct {
	Input   string
	Cleaned string
	Kind    AmountKind
	Amount  Amount
	Err     error
}

var plainNumeral = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

var maxMinorUnits = decimal.NewFromInt(1 << 62)

// AmountNormalizer converts signed, locale-formatted numerals to minor units
type AmountNormalizer struct {
	currencyMarks []string
	scale         decimal.Decimal
	logger        logger.Logger
}

// NewAmountNormalizer creates an amount normalizer
func NewAmountNormalizer(config *Config) (*AmountNormalizer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid normalizer configuration: %w", err)
	}

	return &AmountNormalizer{
		currencyMarks: config.CurrencyMarks,
		scale:         config.AmountScale,
		logger:        logger.GetGlobalLogger().WithComponent("amount_normalizer"),
	}, nil
}

// Normalize returns the amount for raw, or an error coded invalid_amount or
// zero_amount.
func (an *AmountNormalizer) Normalize(raw string) (Amount, error) {
	result := an.Parse(raw)
	switch result.Kind {
	case AmountParsed:
		return result.Amount, nil
	case AmountZero:
		return Amount{}, errors.NormalizationError(errors.CodeZeroAmount, raw, nil)
	default:
		an.logger.WithFields(logger.Fields{
			"raw":     raw,
			"cleaned": result.Cleaned,
		}).WithError(result.Err).Debug("Amount rejected")
		return Amount{}, errors.NormalizationError(errors.CodeInvalidAmount, raw, result.Err).
			WithContext("cleaned", result.Cleaned)
	}
}

// Parse strips whitespace and currency marks, reads the sign, swaps the
// decimal comma for a period and rounds the scaled value half to even.
func (an *AmountNormalizer) Parse(raw string) AmountResult {
	result := AmountResult{Input: raw}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	for _, mark := range an.currencyMarks {
		cleaned = strings.ReplaceAll(cleaned, mark, "")
	}

	sign := Positive
	for _, prefix := range []string{"+", "-", "–", "—", "−"} {
		if strings.HasPrefix(cleaned, prefix) {
			if prefix != "+" {
				sign = Negative
			}
			cleaned = strings.TrimPrefix(cleaned, prefix)
			break
		}
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	result.Cleaned = cleaned

	if !plainNumeral.MatchString(cleaned) {
		result.Kind = AmountInvalid
		result.Err = fmt.Errorf("%q is not a decimal numeral", cleaned)
		return result
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		result.Kind = AmountInvalid
		result.Err = err
		return result
	}

	units := value.Mul(an.scale).RoundBank(0)
	if units.GreaterThan(maxMinorUnits) {
		result.Kind = AmountInvalid
		result.Err = fmt.Errorf("amount %s is out of range", value)
		return result
	}

	result.Amount = Amount{Sign: sign, Value: value, MinorUnits: units.IntPart()}
	if result.Amount.MinorUnits == 0 {
		result.Kind = AmountZero
		return result
	}
	result.Kind = AmountParsed
	return result
}
