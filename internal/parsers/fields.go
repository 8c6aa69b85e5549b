package parsers

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang-statement-importer/pkg/errors"
)

// Located is a field value together with its byte range in the statement text.
type Located struct {
	Text  string
	Start int
	End   int
}

// Found reports whether the field was located
func (l Located) Found() bool {
	return l.End > l.Start
}

// Fields holds what the extractor found in one post-anchor window.
type Fields struct {
	ProcessingDate    Located
	CardSuffix        Located
	TransactionAmount Located
	AccountAmount     Located
	// End is the end of the last located field, or the window start when
	// nothing was found.
	End int
}

// FieldExtractor pulls the structured fields of a segment out of raw text
// and applies the structural checks that reject table furniture.
type FieldExtractor struct {
	layout *Layout
}

// NewFieldExtractor creates a field extractor for the given layout
func NewFieldExtractor(layout *Layout) *FieldExtractor {
	return &FieldExtractor{layout: layout}
}

// Extract scans text[start:end] for the processing date, card suffix and the
// first two signed amounts. The returned Fields is never nil so callers can
// still advance past whatever was consumed when the segment is skipped.
func (fe *FieldExtractor) Extract(text string, start, end int, segment int, anchor string) (*Fields, *errors.ImportError) {
	window := text[start:end]
	fields := &Fields{End: start}

	if loc := fe.layout.processingDate.FindStringSubmatchIndex(window); loc != nil {
		fields.ProcessingDate = Located{
			Text:  window[loc[2]:loc[3]],
			Start: start + loc[0],
			End:   start + loc[1],
		}
		fields.extend(fields.ProcessingDate)
	}

	amounts := fe.layout.amount.FindAllStringIndex(window, 2)
	if len(amounts) > 0 {
		fields.TransactionAmount = fe.locate(text, start, amounts[0])
		fields.extend(fields.TransactionAmount)
	}
	if len(amounts) > 1 {
		fields.AccountAmount = fe.locate(text, start, amounts[1])
		fields.extend(fields.AccountAmount)
	}

	if fe.layout.cardSuffix != nil {
		if loc := fe.layout.cardSuffix.FindStringSubmatchIndex(window); loc != nil {
			card := Located{
				Text:  "*" + window[loc[2]:loc[3]],
				Start: start + loc[0],
				End:   start + loc[1],
			}
			// A card number after the amounts only belongs to this segment when
			// nothing but whitespace separates them; otherwise it is part of
			// the next description.
			if card.Start < fields.End || strings.TrimSpace(text[fields.End:card.Start]) == "" {
				fields.CardSuffix = card
				fields.extend(card)
			}
		}
	}

	if !fields.ProcessingDate.Found() {
		return fields, errors.SegmentationError(errors.CodeMissingProcessingDate, segment, anchor)
	}
	if len(amounts) < 2 {
		return fields, errors.SegmentationError(errors.CodeMissingAmounts, segment, anchor).
			WithContext("amounts_found", len(amounts))
	}

	return fields, nil
}

func (fe *FieldExtractor) locate(text string, offset int, loc []int) Located {
	return Located{
		Text:  strings.TrimSpace(text[offset+loc[0] : offset+loc[1]]),
		Start: offset + loc[0],
		End:   offset + loc[1],
	}
}

func (f *Fields) extend(l Located) {
	if l.End > f.End {
		f.End = l.End
	}
}

// Description cleans the raw text preceding an anchor: trailing amounts are
// stripped and whitespace runs collapse to single spaces.
func (fe *FieldExtractor) Description(raw string) string {
	raw = strings.TrimSpace(raw)
	if fe.layout.amountSuffix != nil {
		raw = fe.layout.amountSuffix.ReplaceAllString(raw, "")
	}
	return strings.Join(strings.FieldsFunc(raw, unicode.IsSpace), " ")
}

// Validate rejects descriptions that are too short or that carry table
// heading keywords.
func (fe *FieldExtractor) Validate(description string) *errors.ImportError {
	for _, keyword := range fe.layout.config.HeaderKeywords {
		if strings.Contains(description, keyword) {
			return errors.ValidationError(errors.CodeHeaderArtifact, "description", description, nil).
				WithContext("keyword", keyword)
		}
	}

	if utf8.RuneCountInString(description) < fe.layout.config.MinDescriptionLength {
		return errors.ValidationError(errors.CodeDescriptionTooShort, "description", description, nil).
			WithContext("min_length", fe.layout.config.MinDescriptionLength)
	}

	return nil
}
