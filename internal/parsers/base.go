// Package parsers turns bank-statement text into raw transaction segments.
//
// Statement text is irregular: it is whatever a PDF extractor recovered from a
// printed table, with page furniture mixed in and no field separators. The
// package works in three steps:
//
//   - Sanitizer removes page counters, continuation notices and balance lines.
//   - Segmenter finds every date-time anchor and cuts the text into disjoint
//     spans, one per candidate transaction.
//   - FieldExtractor locates the processing date, card suffix and the two
//     signed amounts inside each span and rejects table headings.
//
// Every candidate ends either as an IntermediateTransaction or as a skip with
// a categorized reason, so nothing disappears silently.
//
// Example usage:
//
//	parser, err := NewStatementParser(DefaultLayoutConfig())
//	transactions, stats := parser.Parse(text)
//	fmt.Println(stats)
//
// Nothing here normalizes values; see package normalizer for that.
package parsers

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// SegmentStats holds statistics about a segmentation run
type SegmentStats struct {
	AnchorsFound    int
	SegmentsEmitted int
	Skipped         map[errors.ErrorCode]int
	Errors          []*errors.ImportError
}

// NewSegmentStats creates a new SegmentStats instance
func NewSegmentStats() *SegmentStats {
	return &SegmentStats{
		Skipped: make(map[errors.ErrorCode]int),
		Errors:  make([]*errors.ImportError, 0),
	}
}

// AddSkip records a skipped segment
func (ss *SegmentStats) AddSkip(err *errors.ImportError) {
	if err == nil {
		return
	}
	ss.Skipped[err.Code]++
	ss.Errors = append(ss.Errors, err)
}

// SkippedTotal returns the number of skipped segments
func (ss *SegmentStats) SkippedTotal() int {
	return len(ss.Errors)
}

// HasSkips returns true if any segment was skipped
func (ss *SegmentStats) HasSkips() bool {
	return len(ss.Errors) > 0
}

// String returns a human-readable summary of segmentation statistics
func (ss *SegmentStats) String() string {
	if len(ss.Skipped) == 0 {
		return fmt.Sprintf("Found %d anchors, %d segments", ss.AnchorsFound, ss.SegmentsEmitted)
	}

	var reasons []string
	for code, count := range ss.Skipped {
		reasons = append(reasons, fmt.Sprintf("%s: %d", code, count))
	}
	sort.Strings(reasons)

	return fmt.Sprintf("Found %d anchors, %d segments, %d skipped (%s)",
		ss.AnchorsFound, ss.SegmentsEmitted, ss.SkippedTotal(), strings.Join(reasons, ", "))
}

// GetSampleErrors returns a sample of the skip reasons for logging/debugging
func (ss *SegmentStats) GetSampleErrors(maxSamples int) []string {
	if len(ss.Errors) == 0 {
		return nil
	}

	limit := len(ss.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, ss.Errors[i].Error())
	}
	return samples
}

// StatementParser runs the sanitizer and segmenter for one layout.
type StatementParser struct {
	layout    *Layout
	sanitizer *Sanitizer
	segmenter *Segmenter
	logger    logger.Logger
}

// NewStatementParser creates a parser for the given layout
func NewStatementParser(config *LayoutConfig) (*StatementParser, error) {
	if config == nil {
		config = DefaultLayoutConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout configuration: %w", err)
	}

	layout, err := config.Compile()
	if err != nil {
		return nil, fmt.Errorf("invalid layout configuration: %w", err)
	}

	log := logger.GetGlobalLogger().WithComponent("statement_parser")
	log.WithField("layout", config.Name).Debug("Created statement parser")

	return &StatementParser{
		layout:    layout,
		sanitizer: NewSanitizer(layout),
		segmenter: NewSegmenter(layout),
		logger:    log,
	}, nil
}

// Parse sanitizes and segments raw statement text
func (sp *StatementParser) Parse(text string) ([]models.IntermediateTransaction, *SegmentStats) {
	return sp.segmenter.Segment(sp.sanitizer.Sanitize(text))
}

// Trace sanitizes text and returns every segment outcome, skipped ones included
func (sp *StatementParser) Trace(text string) []SegmentOutcome {
	return sp.segmenter.Trace(sp.sanitizer.Sanitize(text))
}

// ReadTextFile reads an already-extracted statement from a UTF-8 text file
func ReadTextFile(filePath string) (string, error) {
	log := logger.GetGlobalLogger().WithComponent("statement_parser")
	log.WithField("file_path", filePath).Debug("Reading statement text")

	data, err := os.ReadFile(filePath)
	if err != nil {
		log.WithError(err).WithField("file_path", filePath).Error("Failed to read statement text")
		if os.IsNotExist(err) {
			return "", errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return "", errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return "", errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	if err := validateEncoding(string(data), filePath); err != nil {
		return "", err
	}

	return string(data), nil
}

// validateEncoding checks that every line is valid UTF-8
func validateEncoding(text, filePath string) error {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.FileError(errors.CodeFileCorrupted, filePath, fmt.Errorf("invalid UTF-8 encoding detected")).
				WithContext("line", lineNum).
				WithSuggestion("save the file in UTF-8 encoding and try again")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	return nil
}
