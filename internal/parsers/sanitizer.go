package parsers

import (
	"golang-statement-importer/pkg/logger"
)

// Sanitizer strips page furniture and balance lines from statement text.
type Sanitizer struct {
	layout *Layout
	logger logger.Logger
}

// NewSanitizer creates a sanitizer for the given layout
func NewSanitizer(layout *Layout) *Sanitizer {
	return &Sanitizer{
		layout: layout,
		logger: logger.GetGlobalLogger().WithComponent("sanitizer"),
	}
}

// Sanitize removes every boilerplate match. Passes repeat until the text
// stops changing, so removing one pattern cannot leave another behind and
// Sanitize(Sanitize(x)) == Sanitize(x).
func (s *Sanitizer) Sanitize(text string) string {
	removed := 0
	for {
		before := text
		for _, re := range s.layout.boilerplate {
			if n := len(re.FindAllStringIndex(text, -1)); n > 0 {
				removed += n
				text = re.ReplaceAllString(text, "")
			}
		}
		if text == before {
			break
		}
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Debug("Removed boilerplate")
	}
	return text
}
