package converter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang-statement-importer/internal/parsers"
	"golang-statement-importer/pkg/errors"
)

// ConversionStats summarizes one conversion run
type ConversionStats struct {
	AnchorsFound    int                      `json:"anchors_found"`
	SegmentsEmitted int                      `json:"segments_emitted"`
	Normalized      int                      `json:"normalized"`
	Assembled       int                      `json:"assembled"`
	Skipped         map[errors.ErrorCode]int `json:"skipped"`
	Errors          *errors.ErrorSummary     `json:"errors"`
	Duration        time.Duration            `json:"duration"`
}

// NewConversionStats creates empty statistics
func NewConversionStats() *ConversionStats {
	return &ConversionStats{
		Skipped: make(map[errors.ErrorCode]int),
		Errors:  errors.NewErrorSummary(nil),
	}
}

func (cs *ConversionStats) addSegmentStats(ss *parsers.SegmentStats) {
	cs.AnchorsFound += ss.AnchorsFound
	cs.SegmentsEmitted += ss.SegmentsEmitted
	for _, err := range ss.Errors {
		cs.AddSkip(err)
	}
}

// AddSkip records a dropped segment or transaction
func (cs *ConversionStats) AddSkip(err *errors.ImportError) {
	if err == nil {
		return
	}
	cs.Skipped[err.Code]++
	cs.Errors.Add(err)
}

// SkippedTotal returns the number of dropped candidates
func (cs *ConversionStats) SkippedTotal() int {
	total := 0
	for _, n := range cs.Skipped {
		total += n
	}
	return total
}

// SkipCodes returns the skip reasons in a stable order
func (cs *ConversionStats) SkipCodes() []errors.ErrorCode {
	codes := make([]errors.ErrorCode, 0, len(cs.Skipped))
	for code := range cs.Skipped {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// String returns a human-readable summary
func (cs *ConversionStats) String() string {
	base := fmt.Sprintf("Found %d anchors, %d segments, %d records",
		cs.AnchorsFound, cs.SegmentsEmitted, cs.Assembled)
	if len(cs.Skipped) == 0 {
		return base
	}

	reasons := make([]string, 0, len(cs.Skipped))
	for _, code := range cs.SkipCodes() {
		reasons = append(reasons, fmt.Sprintf("%s: %d", code, cs.Skipped[code]))
	}
	return fmt.Sprintf("%s, %d skipped (%s)", base, cs.SkippedTotal(), strings.Join(reasons, ", "))
}
