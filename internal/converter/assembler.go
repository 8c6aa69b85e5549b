package converter

import (
	"time"

	"github.com/google/uuid"

	"golang-statement-importer/internal/models"
	"golang-statement-importer/internal/normalizer"
	"golang-statement-importer/pkg/errors"
)

// NormalizedFields are the values of one transaction after date and amount
// normalization, before ledger identifiers are attached.
type NormalizedFields struct {
	Segment     int
	Date        string
	Amount      normalizer.Amount
	Payee       string
	Description string
}

// RecordAssembler turns normalized fields into canonical transactions for one
// resolved account, currency and user.
type RecordAssembler struct {
	context models.ResolutionContext
	now     func() time.Time
	newID   func() string
}

// NewRecordAssembler creates an assembler bound to a resolution context
func NewRecordAssembler(rc models.ResolutionContext) (*RecordAssembler, error) {
	if err := rc.Validate(); err != nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "record assembly", err)
	}
	return &RecordAssembler{
		context: rc,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}, nil
}

// Context returns the resolution context the assembler was built with
func (ra *RecordAssembler) Context() models.ResolutionContext {
	return ra.context
}

// Assemble builds one record per input. All records share a single creation
// timestamp.
func (ra *RecordAssembler) Assemble(batch []NormalizedFields) []*models.CanonicalTransaction {
	now := ra.now().UTC().Truncate(time.Second)
	records := make([]*models.CanonicalTransaction, 0, len(batch))
	for _, f := range batch {
		records = append(records, ra.assembleOne(f, now))
	}
	return records
}

func (ra *RecordAssembler) assembleOne(f NormalizedFields, now time.Time) *models.CanonicalTransaction {
	tx := &models.CanonicalTransaction{
		ID:         ra.newID(),
		CreatedAt:  now,
		ChangedAt:  now,
		UserID:     ra.context.UserID,
		AccountID:  ra.context.AccountID,
		CurrencyID: ra.context.InstrumentID,
		Payee:      f.Payee,
		Comment:    f.Description,
		Date:       f.Date,
	}
	if f.Amount.IsIncome() {
		tx.IncomeMinorUnits = f.Amount.MinorUnits
	} else {
		tx.OutcomeMinorUnits = f.Amount.MinorUnits
	}
	return tx
}
