package normalizer

import (
	"fmt"
	"regexp"
	"strings"
)

// PayeeMatch is the payee found in a description and the pattern that found it
type PayeeMatch struct {
	Label string
	Name  string
}

type compiledPayee struct {
	label string
	re    *regexp.Regexp
}

// PayeeExtractor derives a counterparty name from a description
type PayeeExtractor struct {
	patterns []compiledPayee
}

// NewPayeeExtractor creates a payee extractor
func NewPayeeExtractor(config *Config) (*PayeeExtractor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid normalizer configuration: %w", err)
	}

	pe := &PayeeExtractor{}
	for _, p := range config.PayeePatterns {
		pe.patterns = append(pe.patterns, compiledPayee{label: p.Label, re: regexp.MustCompile(p.Pattern)})
	}
	return pe, nil
}

// Match tries the patterns in order and returns the first non-empty capture.
// No match is not an error.
func (pe *PayeeExtractor) Match(description string) (PayeeMatch, bool) {
	for _, p := range pe.patterns {
		m := p.re.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		if name := strings.TrimSpace(m[1]); name != "" {
			return PayeeMatch{Label: p.label, Name: name}, true
		}
	}
	return PayeeMatch{}, false
}

// Extract returns the payee name, or "" when none is found
func (pe *PayeeExtractor) Extract(description string) string {
	m, _ := pe.Match(description)
	return m.Name
}
