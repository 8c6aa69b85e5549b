package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// AttemptKind tells how a single parse attempt ended
type AttemptKind int

const (
	// AttemptMatched: the attempt produced a valid value
	AttemptMatched AttemptKind = iota
	// AttemptNoMatch: the input did not have the shape the attempt expects
	AttemptNoMatch
	// AttemptInvalidCalendar: the shape matched but names no real calendar day
	AttemptInvalidCalendar
)

// String returns the string representation of AttemptKind
func (k AttemptKind) String() string {
	switch k {
	case AttemptMatched:
		return "matched"
	case AttemptNoMatch:
		return "no_match"
	case AttemptInvalidCalendar:
		return "invalid_calendar"
	default:
		return fmt.Sprintf("attempt(%d)", int(k))
	}
}

const (
	strategyDayMonth = "fallback:day-month"
	strategyMonthDay = "fallback:month-day"
	strategyNumerals = "fallback:numerals"
)

// DateAttempt is the outcome of one template or fallback interpretation
type DateAttempt struct {
	Strategy string
	Kind     AttemptKind
	Date     time.Time
	Err      error
}

// DateResult is the full trace of normalizing one date string
type DateResult struct {
	Input    string
	Value    string
	Attempts []DateAttempt
}

// OK reports whether some attempt produced a date
func (r DateResult) OK() bool {
	return r.Value != ""
}

// Winner returns the successful attempt
func (r DateResult) Winner() (DateAttempt, bool) {
	for _, a := range r.Attempts {
		if a.Kind == AttemptMatched {
			return a, true
		}
	}
	return DateAttempt{}, false
}

var numeralDate = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})[./](\d{4})`)

// DateNormalizer converts free-form statement dates to YYYY-MM-DD
type DateNormalizer struct {
	templates  []string
	connectors []*regexp.Regexp
	logger     logger.Logger
}

// NewDateNormalizer creates a date normalizer
func NewDateNormalizer(config *Config) (*DateNormalizer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid normalizer configuration: %w", err)
	}

	dn := &DateNormalizer{
		templates: config.DateTemplates,
		logger:    logger.GetGlobalLogger().WithComponent("date_normalizer"),
	}
	for _, conn := range config.DateConnectors {
		re, err := regexp.Compile(`[\s\x{00A0}\x{202F}]+` + regexp.QuoteMeta(conn) + `[\s\x{00A0}\x{202F}]`)
		if err != nil {
			return nil, fmt.Errorf("invalid date connector %q: %w", conn, err)
		}
		dn.connectors = append(dn.connectors, re)
	}
	return dn, nil
}

// Normalize returns the ISO date for raw or a normalization error
func (dn *DateNormalizer) Normalize(raw string) (string, error) {
	result := dn.Parse(raw)
	if result.OK() {
		return result.Value, nil
	}

	tried := make([]string, 0, len(result.Attempts))
	for _, a := range result.Attempts {
		tried = append(tried, a.Strategy+"="+a.Kind.String())
	}
	dn.logger.WithFields(logger.Fields{
		"raw":      raw,
		"attempts": strings.Join(tried, ", "),
	}).Debug("No date interpretation succeeded")

	return "", errors.NormalizationError(errors.CodeInvalidDate, raw, nil).
		WithContext("attempts", tried)
}

// Parse tries every template and then the numeral fallback, stopping at the
// first valid date. Ambiguous numerals are read day first; this is a locale
// guess, not a guarantee for month-first statements.
func (dn *DateNormalizer) Parse(raw string) DateResult {
	cleaned := strings.TrimSpace(raw)
	result := DateResult{Input: raw}

	datePart := cleaned
	for _, re := range dn.connectors {
		if loc := re.FindStringIndex(datePart); loc != nil {
			datePart = strings.TrimSpace(datePart[:loc[0]])
		}
	}

	for _, layout := range dn.templates {
		t, err := time.Parse(layout, datePart)
		if err != nil {
			result.Attempts = append(result.Attempts, DateAttempt{
				Strategy: "template:" + layout,
				Kind:     AttemptNoMatch,
				Err:      err,
			})
			continue
		}
		result.Attempts = append(result.Attempts, DateAttempt{
			Strategy: "template:" + layout,
			Kind:     AttemptMatched,
			Date:     t,
		})
		result.Value = t.Format(models.ISODateLayout)
		return result
	}

	m := numeralDate.FindStringSubmatch(cleaned)
	if m == nil {
		result.Attempts = append(result.Attempts, DateAttempt{
			Strategy: strategyNumerals,
			Kind:     AttemptNoMatch,
			Err:      fmt.Errorf("no day, month and year numerals in %q", cleaned),
		})
		return result
	}

	// Both groups have at most two digits and the year four, so Atoi cannot fail.
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	var candidates []DateAttempt
	switch {
	case a > 12:
		candidates = []DateAttempt{calendarAttempt(strategyDayMonth, year, b, a)}
	case b > 12:
		candidates = []DateAttempt{calendarAttempt(strategyMonthDay, year, a, b)}
	default:
		candidates = []DateAttempt{
			calendarAttempt(strategyDayMonth, year, b, a),
			calendarAttempt(strategyMonthDay, year, a, b),
		}
	}

	for _, attempt := range candidates {
		result.Attempts = append(result.Attempts, attempt)
		if attempt.Kind == AttemptMatched {
			result.Value = attempt.Date.Format(models.ISODateLayout)
			return result
		}
	}

	return result
}

// calendarAttempt builds a date from numerals, rejecting values that
// time.Date would silently roll over (31 April becomes 1 May).
func calendarAttempt(strategy string, year, month, day int) DateAttempt {
	if month < 1 || month > 12 || day < 1 {
		return DateAttempt{
			Strategy: strategy,
			Kind:     AttemptInvalidCalendar,
			Err:      fmt.Errorf("no such date: year %d month %d day %d", year, month, day),
		}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return DateAttempt{
			Strategy: strategy,
			Kind:     AttemptInvalidCalendar,
			Err:      fmt.Errorf("no such date: year %d month %d day %d", year, month, day),
		}
	}
	return DateAttempt{Strategy: strategy, Kind: AttemptMatched, Date: t}
}
