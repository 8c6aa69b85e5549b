package ledger

import (
	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
)

// DefaultUserID is used when the diff carries no user
const DefaultUserID int64 = 1

// diffRequest is the body of every diff call
type diffRequest struct {
	CurrentClientTimestamp int64                       `json:"currentClientTimestamp"`
	ServerTimestamp        int64                       `json:"serverTimestamp"`
	Transaction            []*models.LedgerTransaction `json:"transaction,omitempty"`
}

// Diff is the subset of the ledger state the importer works with
type Diff struct {
	ServerTimestamp int64                       `json:"serverTimestamp"`
	Account         []models.Account            `json:"account"`
	Instrument      []models.Instrument         `json:"instrument"`
	User            []models.User               `json:"user"`
	Transaction     []*models.LedgerTransaction `json:"transaction"`
}

// Currency identifies the instrument records are created in
type Currency struct {
	Code  string
	Title string
}

// FindAccount returns the first account whose title equals title exactly
func (d *Diff) FindAccount(title string) (*models.Account, bool) {
	for i := range d.Account {
		if d.Account[i].Title == title {
			return &d.Account[i], true
		}
	}
	return nil, false
}

// FindInstrument returns the first instrument matching the currency code or title
func (d *Diff) FindInstrument(currency Currency) (*models.Instrument, bool) {
	for i := range d.Instrument {
		inst := &d.Instrument[i]
		if (currency.Code != "" && inst.ShortTitle == currency.Code) ||
			(currency.Title != "" && inst.Title == currency.Title) {
			return inst, true
		}
	}
	return nil, false
}

// InstrumentByID returns the instrument with the given id
func (d *Diff) InstrumentByID(id int64) (*models.Instrument, bool) {
	for i := range d.Instrument {
		if d.Instrument[i].ID == id {
			return &d.Instrument[i], true
		}
	}
	return nil, false
}

// UserID returns the first user's id, or DefaultUserID
func (d *Diff) UserID() int64 {
	if len(d.User) > 0 && d.User[0].ID > 0 {
		return d.User[0].ID
	}
	return DefaultUserID
}

// Resolve builds the resolution context for an account title and currency.
// The account must match exactly.
func (d *Diff) Resolve(accountTitle string, currency Currency) (models.ResolutionContext, error) {
	account, ok := d.FindAccount(accountTitle)
	if !ok {
		return models.ResolutionContext{}, errors.ResolutionError(errors.CodeAccountNotFound, accountTitle).
			WithContext("accounts", len(d.Account))
	}

	instrument, ok := d.FindInstrument(currency)
	if !ok {
		name := currency.Code
		if name == "" {
			name = currency.Title
		}
		return models.ResolutionContext{}, errors.ResolutionError(errors.CodeCurrencyNotFound, name)
	}

	return models.ResolutionContext{
		AccountID:    account.ID,
		InstrumentID: instrument.ID,
		UserID:       d.UserID(),
	}, nil
}

// DeleteFilter selects the transactions Delete removes. Dates are ISO
// calendar dates compared as strings; empty fields do not filter.
type DeleteFilter struct {
	Account   string
	StartDate string
	EndDate   string
	All       bool
}

// IsEmpty reports whether the filter would select every transaction
// without All being set
func (f DeleteFilter) IsEmpty() bool {
	return !f.All && f.Account == "" && f.StartDate == "" && f.EndDate == ""
}

// Select returns the live transactions matching the filter
func (d *Diff) Select(filter DeleteFilter) ([]*models.LedgerTransaction, error) {
	accountID := ""
	if filter.Account != "" {
		account, ok := d.FindAccount(filter.Account)
		if !ok {
			return nil, errors.ResolutionError(errors.CodeAccountNotFound, filter.Account)
		}
		accountID = account.ID
	}

	var selected []*models.LedgerTransaction
	for _, tx := range d.Transaction {
		if tx == nil || tx.Deleted {
			continue
		}
		if accountID != "" && tx.AccountID() != accountID {
			continue
		}
		if filter.StartDate != "" && tx.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && tx.Date > filter.EndDate {
			continue
		}
		selected = append(selected, tx)
	}
	return selected, nil
}

// AccountSummary is an account with its currency resolved for display
type AccountSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Currency string `json:"currency"`
}

// Accounts returns the non-deleted accounts with their currency short title,
// "?" when the instrument is unknown
func (d *Diff) Accounts() []AccountSummary {
	summaries := make([]AccountSummary, 0, len(d.Account))
	for _, acc := range d.Account {
		if acc.Deleted {
			continue
		}
		currency := "?"
		if inst, ok := d.InstrumentByID(acc.Instrument); ok && inst.ShortTitle != "" {
			currency = inst.ShortTitle
		}
		summaries = append(summaries, AccountSummary{ID: acc.ID, Title: acc.Title, Currency: currency})
	}
	return summaries
}
