package parsers

import (
	"fmt"

	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// SegmentState is the last state a candidate segment reached.
type SegmentState int

const (
	// StateAnchored: the date-time anchor was found
	StateAnchored SegmentState = iota
	// StateWindowed: the post-anchor window and description region are fixed
	StateWindowed
	// StateExtracted: all required fields were located in the window
	StateExtracted
	// StateValidated: the description passed structural validation
	StateValidated
)

// String returns the string representation of SegmentState
func (s SegmentState) String() string {
	switch s {
	case StateAnchored:
		return "anchored"
	case StateWindowed:
		return "windowed"
	case StateExtracted:
		return "extracted"
	case StateValidated:
		return "validated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// anchorMatch is the result of the anchor state
type anchorMatch struct {
	index int
	start int
	end   int
	date  string
	time  string
}

// segmentWindow is the result of the window state
type segmentWindow struct {
	anchor    anchorMatch
	descStart int
	end       int
}

// SegmentOutcome records how far one candidate segment got. Exactly one of
// Transaction and Skip is set.
type SegmentOutcome struct {
	Index       int
	Anchor      string
	State       SegmentState
	Span        models.Span
	Transaction *models.IntermediateTransaction
	Skip        *errors.ImportError
}

// Emitted reports whether the segment produced a transaction
func (o *SegmentOutcome) Emitted() bool {
	return o.Transaction != nil
}

// Segmenter splits sanitized statement text into candidate transactions.
type Segmenter struct {
	layout    *Layout
	extractor *FieldExtractor
	logger    logger.Logger
}

// NewSegmenter creates a segmenter for the given layout
func NewSegmenter(layout *Layout) *Segmenter {
	return &Segmenter{
		layout:    layout,
		extractor: NewFieldExtractor(layout),
		logger:    logger.GetGlobalLogger().WithComponent("segmenter"),
	}
}

// Segment returns the transactions found in text, in document order, along
// with counts of what was skipped and why.
func (s *Segmenter) Segment(text string) ([]models.IntermediateTransaction, *SegmentStats) {
	outcomes := s.Trace(text)
	stats := NewSegmentStats()
	stats.AnchorsFound = len(outcomes)

	transactions := make([]models.IntermediateTransaction, 0, len(outcomes))
	for i := range outcomes {
		outcome := &outcomes[i]
		if outcome.Emitted() {
			transactions = append(transactions, *outcome.Transaction)
			stats.SegmentsEmitted++
			continue
		}
		stats.AddSkip(outcome.Skip)
		s.logger.WithFields(logger.Fields{
			"segment": outcome.Index,
			"reason":  outcome.Skip.Code,
			"state":   outcome.State.String(),
			"raw":     outcome.Anchor,
		}).Debug("Segment skipped")
	}

	s.logger.WithFields(logger.Fields{
		"anchors": stats.AnchorsFound,
		"emitted": stats.SegmentsEmitted,
		"skipped": stats.SkippedTotal(),
	}).Debug("Segmentation complete")

	return transactions, stats
}

// Trace runs every anchor through the state machine and returns one outcome
// per anchor, skipped ones included. Spans are pairwise disjoint and ordered.
func (s *Segmenter) Trace(text string) []SegmentOutcome {
	anchors := s.findAnchors(text)
	outcomes := make([]SegmentOutcome, 0, len(anchors))

	consumed := 0
	for i, anchor := range anchors {
		end := len(text)
		if i+1 < len(anchors) {
			end = anchors[i+1].start
		}
		window := segmentWindow{anchor: anchor, descStart: consumed, end: end}

		outcome := s.step(text, window)
		consumed = outcome.Span.End
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

func (s *Segmenter) findAnchors(text string) []anchorMatch {
	locs := s.layout.anchor.FindAllStringSubmatchIndex(text, -1)
	anchors := make([]anchorMatch, 0, len(locs))
	for i, loc := range locs {
		anchors = append(anchors, anchorMatch{
			index: i,
			start: loc[0],
			end:   loc[1],
			date:  text[loc[2]:loc[3]],
			time:  text[loc[4]:loc[5]],
		})
	}
	return anchors
}

// step advances one segment from StateWindowed as far as it can go.
func (s *Segmenter) step(text string, w segmentWindow) SegmentOutcome {
	dateTime := w.anchor.date
	if w.anchor.time != "" {
		dateTime = w.anchor.date + " " + s.layout.config.TimeConnector + " " + w.anchor.time
	}

	outcome := SegmentOutcome{
		Index:  w.anchor.index,
		Anchor: dateTime,
		State:  StateWindowed,
	}

	fields, skip := s.extractor.Extract(text, w.anchor.end, w.end, w.anchor.index, dateTime)
	outcome.Span = models.Span{Start: w.descStart, End: fields.End}
	if skip != nil {
		outcome.Skip = skip
		return outcome
	}
	outcome.State = StateExtracted

	description := s.extractor.Description(text[w.descStart:w.anchor.start])
	if verr := s.extractor.Validate(description); verr != nil {
		outcome.Skip = verr.WithContext("segment", w.anchor.index)
		return outcome
	}
	outcome.State = StateValidated

	outcome.Transaction = &models.IntermediateTransaction{
		Index:               w.anchor.index,
		Span:                outcome.Span,
		Description:         description,
		TransactionDateTime: dateTime,
		ProcessingDate:      fields.ProcessingDate.Text,
		CardSuffix:          fields.CardSuffix.Text,
		TransactionAmount:   fields.TransactionAmount.Text,
		AccountAmount:       fields.AccountAmount.Text,
	}
	return outcome
}
