package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"golang-statement-importer/internal/models"
)

// sep matches the separators a statement may put between digit groups:
// ASCII whitespace plus the no-break spaces PDF extractors tend to emit.
const sep = `[\s\x{00A0}\x{202F}]`

// LayoutConfig describes the textual layout of one bank's statement.
type LayoutConfig struct {
	Name string `json:"name"`

	// Boilerplate patterns removed by the sanitizer, applied in order.
	Boilerplate []string `json:"boilerplate"`

	// Anchor marks the start of a transaction's metadata block. It must
	// capture the date in group 1 and the time in group 2.
	Anchor string `json:"anchor"`
	// TimeConnector joins date and time in the emitted date-time text.
	TimeConnector string `json:"time_connector"`

	ProcessingDate string `json:"processing_date"`
	CardSuffix     string `json:"card_suffix"`
	// Amount must capture the sign in group 1 and the numeral in group 2.
	Amount string `json:"amount"`
	// AmountSuffix strips trailing amounts from a description.
	AmountSuffix string `json:"amount_suffix"`
	CurrencyMark string `json:"currency_mark"`

	HeaderKeywords       []string `json:"header_keywords"`
	MinDescriptionLength int      `json:"min_description_length"`
}

// DefaultLayoutConfig returns the layout of the Russian retail bank statement
// the importer was written for.
func DefaultLayoutConfig() *LayoutConfig {
	return &LayoutConfig{
		Name: "ru-retail",
		Boilerplate: []string{
			`Страница \d+ из \d+`,
			`Продолжение на следующей странице`,
			`Входящий остаток.*?₽`,
			`Исходящий остаток.*?₽`,
		},
		Anchor:               `(\d{2}\.\d{2}\.\d{4})` + sep + `+в` + sep + `+(\d{2}:\d{2})`,
		TimeConnector:        "в",
		ProcessingDate:       `(\d{2}\.\d{2}\.\d{4})`,
		CardSuffix:           `\*(\d{4,5})`,
		Amount:               `([+\-–])` + sep + `*(\d{1,3}(?:` + sep + `+\d{3})*(?:,\d{2})?)` + sep + `*₽`,
		AmountSuffix:         `(?m)[+\-–]` + sep + `*\d.*?₽` + sep + `*$`,
		CurrencyMark:         "₽",
		HeaderKeywords:       []string{"Описание операции", "Дата и время", "МСК", "Страница"},
		MinDescriptionLength: models.MinDescriptionLength,
	}
}

// Validate checks if the layout configuration is valid
func (lc *LayoutConfig) Validate() error {
	if strings.TrimSpace(lc.Name) == "" {
		return fmt.Errorf("layout name cannot be empty")
	}

	required := map[string]string{
		"anchor":          lc.Anchor,
		"processing_date": lc.ProcessingDate,
		"amount":          lc.Amount,
	}
	for name, pattern := range required {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("%s pattern cannot be empty", name)
		}
	}

	if _, err := lc.Compile(); err != nil {
		return err
	}

	if lc.MinDescriptionLength < 0 {
		return fmt.Errorf("minimum description length cannot be negative")
	}

	return nil
}

// Layout is the compiled form of a LayoutConfig
type Layout struct {
	config         *LayoutConfig
	boilerplate    []*regexp.Regexp
	anchor         *regexp.Regexp
	processingDate *regexp.Regexp
	cardSuffix     *regexp.Regexp
	amount         *regexp.Regexp
	amountSuffix   *regexp.Regexp
}

// Compile compiles every pattern of the layout
func (lc *LayoutConfig) Compile() (*Layout, error) {
	layout := &Layout{config: lc}

	for i, pattern := range lc.Boilerplate {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid boilerplate pattern %d: %w", i, err)
		}
		layout.boilerplate = append(layout.boilerplate, re)
	}

	var err error
	if layout.anchor, err = compileGroups("anchor", lc.Anchor, 2); err != nil {
		return nil, err
	}
	if layout.processingDate, err = compileGroups("processing_date", lc.ProcessingDate, 1); err != nil {
		return nil, err
	}
	if layout.amount, err = compileGroups("amount", lc.Amount, 2); err != nil {
		return nil, err
	}
	if lc.CardSuffix != "" {
		if layout.cardSuffix, err = compileGroups("card_suffix", lc.CardSuffix, 1); err != nil {
			return nil, err
		}
	}
	if lc.AmountSuffix != "" {
		if layout.amountSuffix, err = regexp.Compile(lc.AmountSuffix); err != nil {
			return nil, fmt.Errorf("invalid amount_suffix pattern: %w", err)
		}
	}

	return layout, nil
}

func compileGroups(name, pattern string, groups int) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s pattern: %w", name, err)
	}
	if re.NumSubexp() < groups {
		return nil, fmt.Errorf("%s pattern must have at least %d capture groups, has %d",
			name, groups, re.NumSubexp())
	}
	return re, nil
}

// Config returns the configuration the layout was compiled from
func (l *Layout) Config() *LayoutConfig {
	return l.config
}
