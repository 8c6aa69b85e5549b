package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MinDescriptionLength is the shortest description accepted as a real transaction.
const MinDescriptionLength = 5

// ISODateLayout is the canonical calendar date layout.
const ISODateLayout = "2006-01-02"

// Direction tells which side of a ledger record carries the amount
type Direction string

const (
	// DirectionIncome marks money arriving in the account
	DirectionIncome Direction = "income"
	// DirectionOutcome marks money leaving the account
	DirectionOutcome Direction = "outcome"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionIncome || d == DirectionOutcome
}

// Span is a half-open byte range [Start, End) of the sanitized statement text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Overlaps reports whether two spans share at least one byte
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Before reports whether s ends at or before the start of other
func (s Span) Before(other Span) bool {
	return s.End <= other.Start
}

// IntermediateTransaction holds the raw fields of one statement segment.
// Values are copied verbatim from the statement text; nothing is normalized yet.
type IntermediateTransaction struct {
	Index               int    `json:"index"`
	Span                Span   `json:"span"`
	Description         string `json:"description"`
	TransactionDateTime string `json:"transaction_date_time"`
	ProcessingDate      string `json:"processing_date"`
	CardSuffix          string `json:"card_suffix,omitempty"`
	TransactionAmount   string `json:"transaction_amount"`
	AccountAmount       string `json:"account_amount"`
}

// RawDate returns the date text that should be normalized: the processing
// date when present, otherwise the transaction date and time.
func (t *IntermediateTransaction) RawDate() string {
	if strings.TrimSpace(t.ProcessingDate) != "" {
		return t.ProcessingDate
	}
	return t.TransactionDateTime
}

// RawAmount returns the account-currency amount, or the transaction-currency
// amount when the former is empty.
func (t *IntermediateTransaction) RawAmount() string {
	if strings.TrimSpace(t.AccountAmount) != "" {
		return t.AccountAmount
	}
	return t.TransactionAmount
}

// String returns a string representation of the IntermediateTransaction
func (t *IntermediateTransaction) String() string {
	return fmt.Sprintf("Segment{#%d, Date: %s, Amount: %s, Description: %q}",
		t.Index, t.RawDate(), t.RawAmount(), t.Description)
}

// ResolutionContext carries the ledger identifiers resolved once per batch.
type ResolutionContext struct {
	AccountID    string `json:"account_id"`
	InstrumentID int64  `json:"instrument_id"`
	UserID       int64  `json:"user_id"`
}

// Validate performs basic validation on the ResolutionContext
func (c ResolutionContext) Validate() error {
	if strings.TrimSpace(c.AccountID) == "" {
		return fmt.Errorf("account ID cannot be empty")
	}
	if c.InstrumentID <= 0 {
		return fmt.Errorf("instrument ID must be positive, got %d", c.InstrumentID)
	}
	if c.UserID <= 0 {
		return fmt.Errorf("user ID must be positive, got %d", c.UserID)
	}
	return nil
}

// CanonicalTransaction is a fully normalized record ready for submission.
type CanonicalTransaction struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	ChangedAt         time.Time `json:"changed_at"`
	UserID            int64     `json:"user_id"`
	AccountID         string    `json:"account_id"`
	CurrencyID        int64     `json:"currency_id"`
	IncomeMinorUnits  int64     `json:"income"`
	OutcomeMinorUnits int64     `json:"outcome"`
	Payee             string    `json:"payee,omitempty"`
	Comment           string    `json:"comment"`
	Date              string    `json:"date"`
	Deleted           bool      `json:"deleted"`
}

// Direction returns which side of the record carries the amount
func (t *CanonicalTransaction) Direction() Direction {
	if t.IncomeMinorUnits > 0 {
		return DirectionIncome
	}
	return DirectionOutcome
}

// Amount returns the populated side's amount, negative for outcome.
func (t *CanonicalTransaction) Amount() int64 {
	if t.IncomeMinorUnits > 0 {
		return t.IncomeMinorUnits
	}
	return -t.OutcomeMinorUnits
}

// Validate checks the record invariants
func (t *CanonicalTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}
	if t.IncomeMinorUnits < 0 || t.OutcomeMinorUnits < 0 {
		return fmt.Errorf("amounts cannot be negative: income=%d outcome=%d",
			t.IncomeMinorUnits, t.OutcomeMinorUnits)
	}
	if (t.IncomeMinorUnits == 0) == (t.OutcomeMinorUnits == 0) {
		return fmt.Errorf("exactly one of income and outcome must be nonzero: income=%d outcome=%d",
			t.IncomeMinorUnits, t.OutcomeMinorUnits)
	}
	if _, err := time.Parse(ISODateLayout, t.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", t.Date, err)
	}
	if utf8.RuneCountInString(t.Comment) < MinDescriptionLength {
		return fmt.Errorf("comment %q is shorter than %d characters", t.Comment, MinDescriptionLength)
	}
	if t.CreatedAt.IsZero() || t.ChangedAt.IsZero() {
		return fmt.Errorf("timestamps cannot be zero")
	}
	return nil
}

// String returns a string representation of the CanonicalTransaction
func (t *CanonicalTransaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Date: %s, %s: %d, Comment: %q}",
		t.ID, t.Date, t.Direction(), t.Amount(), t.Comment)
}

// ToLedger converts the record into the ledger's wire shape. Only the
// populated side gets the account; both sides carry the instrument.
func (t *CanonicalTransaction) ToLedger() *LedgerTransaction {
	account := t.AccountID
	lt := &LedgerTransaction{
		ID:                t.ID,
		Changed:           t.ChangedAt.Unix(),
		Created:           t.CreatedAt.Unix(),
		User:              t.UserID,
		Deleted:           t.Deleted,
		IncomeInstrument:  t.CurrencyID,
		OutcomeInstrument: t.CurrencyID,
		Income:            NewLedgerAmount(t.IncomeMinorUnits),
		Outcome:           NewLedgerAmount(t.OutcomeMinorUnits),
		Tag:               []string{},
		Date:              t.Date,
	}
	if t.Direction() == DirectionIncome {
		lt.IncomeAccount = &account
	} else {
		lt.OutcomeAccount = &account
	}
	if t.Payee != "" {
		payee := t.Payee
		lt.Payee = &payee
	}
	comment := t.Comment
	lt.Comment = &comment
	return lt
}
