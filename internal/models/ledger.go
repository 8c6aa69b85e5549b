package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerAmount is a decimal that travels as a bare JSON number.
type LedgerAmount struct {
	decimal.Decimal
}

// NewLedgerAmount creates a LedgerAmount from an integer amount
func NewLedgerAmount(v int64) LedgerAmount {
	return LedgerAmount{Decimal: decimal.NewFromInt(v)}
}

// MarshalJSON writes the amount without quotes
func (a LedgerAmount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts numbers, quoted numbers and null
func (a *LedgerAmount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	if err := a.Decimal.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid ledger amount %s: %w", string(data), err)
	}
	return nil
}

// LedgerTransaction is a transaction as exchanged with the ledger diff API.
type LedgerTransaction struct {
	ID                  string        `json:"id"`
	Changed             int64         `json:"changed"`
	Created             int64         `json:"created"`
	User                int64         `json:"user"`
	Deleted             bool          `json:"deleted"`
	IncomeInstrument    int64         `json:"incomeInstrument"`
	IncomeAccount       *string       `json:"incomeAccount"`
	IncomeBankID        *string       `json:"incomeBankID"`
	Income              LedgerAmount  `json:"income"`
	OutcomeInstrument   int64         `json:"outcomeInstrument"`
	OutcomeAccount      *string       `json:"outcomeAccount"`
	OutcomeBankID       *string       `json:"outcomeBankID"`
	Outcome             LedgerAmount  `json:"outcome"`
	Tag                 []string      `json:"tag"`
	Merchant            *string       `json:"merchant"`
	Payee               *string       `json:"payee"`
	OriginalPayee       *string       `json:"originalPayee"`
	Comment             *string       `json:"comment"`
	Date                string        `json:"date"`
	Mcc                 *int          `json:"mcc"`
	ReminderMarker      *string       `json:"reminderMarker"`
	OpIncome            *LedgerAmount `json:"opIncome"`
	OpIncomeInstrument  *int64        `json:"opIncomeInstrument"`
	OpOutcome           *LedgerAmount `json:"opOutcome"`
	OpOutcomeInstrument *int64        `json:"opOutcomeInstrument"`
	Latitude            *float64      `json:"latitude"`
	Longitude           *float64      `json:"longitude"`
}

// AccountID returns the income account, or the outcome account when the
// income side is empty.
func (t *LedgerTransaction) AccountID() string {
	if t.IncomeAccount != nil && *t.IncomeAccount != "" {
		return *t.IncomeAccount
	}
	if t.OutcomeAccount != nil {
		return *t.OutcomeAccount
	}
	return ""
}

// MarkDeleted returns a copy flagged as deleted, stamped with now and owned by user.
func (t *LedgerTransaction) MarkDeleted(user int64, now time.Time) *LedgerTransaction {
	deleted := *t
	deleted.Deleted = true
	deleted.Changed = now.Unix()
	deleted.User = user
	if deleted.Created == 0 {
		deleted.Created = now.Unix()
	}
	if deleted.Tag == nil {
		deleted.Tag = []string{}
	}
	if deleted.Comment == nil {
		empty := ""
		deleted.Comment = &empty
	}
	return &deleted
}

// Account is a ledger account
type Account struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Type       string        `json:"type,omitempty"`
	Instrument int64         `json:"instrument"`
	Archive    bool          `json:"archive"`
	Deleted    bool          `json:"deleted,omitempty"`
	Balance    *LedgerAmount `json:"balance,omitempty"`
}

// Instrument is a ledger currency
type Instrument struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	ShortTitle string `json:"shortTitle"`
	Symbol     string `json:"symbol,omitempty"`
}

// User is a ledger user
type User struct {
	ID    int64   `json:"id"`
	Login *string `json:"login,omitempty"`
}
