// Package statementgen renders synthetic bank-statement text with a known
// answer key. It is used by tests and by the testdata generator command.
package statementgen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one rendered statement line and what a parser should make of it
type Row struct {
	Description    string
	DateTime       time.Time
	ProcessingDate time.Time
	Card           string
	Amount         decimal.Decimal
	// Malformed rows are rendered with a single amount and must be skipped.
	Malformed bool
}

// Payee returns the counterparty a payee extractor should find, if any
func (r Row) Payee() string {
	for _, d := range descriptions {
		if d.text == r.Description {
			return d.payee
		}
	}
	return ""
}

// Statement is rendered text plus the rows it was rendered from
type Statement struct {
	Text string
	Rows []Row
}

// ValidRows returns the rows a parser is expected to emit
func (s *Statement) ValidRows() []Row {
	var rows []Row
	for _, r := range s.Rows {
		if !r.Malformed {
			rows = append(rows, r)
		}
	}
	return rows
}

// Config controls generation
type Config struct {
	Seed          int64
	Count         int
	Start         time.Time
	MinAmount     decimal.Decimal
	MaxAmount     decimal.Decimal
	MalformedRate float64
	// PageBreakEvery inserts page furniture after every n rows; 0 disables it.
	PageBreakEvery int
	// Balances wraps the rows in opening and closing balance lines.
	Balances bool
}

// DefaultConfig returns a small deterministic configuration
func DefaultConfig() Config {
	return Config{
		Seed:           42,
		Count:          20,
		Start:          time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		MinAmount:      decimal.NewFromInt(1),
		MaxAmount:      decimal.NewFromInt(250000),
		MalformedRate:  0.1,
		PageBreakEvery: 7,
		Balances:       true,
	}
}

type description struct {
	text   string
	payee  string
	income bool
}

var descriptions = []description{
	{text: "Входящий перевод СБП, Иван Петрович С., Сбербанк", payee: "Иван Петрович С.", income: true},
	{text: "Исходящий перевод СБП, Мария Андреевна К., Альфа-Банк", payee: "Мария Андреевна К."},
	{text: "Оплата товаров и услуг YANDEX_GO", payee: "YANDEX_GO"},
	{text: "Оплата товаров и услуг PYATEROCHKA_1123", payee: "PYATEROCHKA_1123"},
	{text: "Оплата в кафе Шоколадница", payee: ""},
	{text: "Пополнение через банкомат", payee: "", income: true},
	{text: "Кэшбэк за покупки", payee: "", income: true},
	{text: "Плата за обслуживание", payee: ""},
}

var separators = []string{" ", "\u00a0", "\u202f"}

// Generator produces statements from a seeded source
type Generator struct {
	config Config
	rng    *rand.Rand
}

// New creates a generator
func New(config Config) *Generator {
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate renders a statement
func (g *Generator) Generate() *Statement {
	rows := make([]Row, 0, g.config.Count)
	at := g.config.Start
	for i := 0; i < g.config.Count; i++ {
		at = at.Add(time.Duration(1+g.rng.Intn(36*60)) * time.Minute)
		rows = append(rows, g.row(at))
	}
	return &Statement{Text: g.Render(rows), Rows: rows}
}

func (g *Generator) row(at time.Time) Row {
	d := descriptions[g.rng.Intn(len(descriptions))]

	span := g.config.MaxAmount.Sub(g.config.MinAmount).IntPart()
	units := g.config.MinAmount.IntPart()
	if span > 0 {
		units += g.rng.Int63n(span)
	}
	amount := decimal.New(units*100+int64(g.rng.Intn(100)), -2)
	if !d.income {
		amount = amount.Neg()
	}

	card := ""
	if g.rng.Intn(2) == 0 {
		card = fmt.Sprintf("*%04d", g.rng.Intn(10000))
	}

	return Row{
		Description:    d.text,
		DateTime:       at,
		ProcessingDate: at.AddDate(0, 0, g.rng.Intn(3)),
		Card:           card,
		Amount:         amount,
		Malformed:      g.rng.Float64() < g.config.MalformedRate,
	}
}

// Render lays rows out the way the statement PDF extracts to text
func (g *Generator) Render(rows []Row) string {
	var b strings.Builder
	if g.config.Balances {
		b.WriteString("Входящий остаток на 01.07.2025 12 000,00 ₽\n")
	}
	for i, r := range rows {
		b.WriteString(r.Description)
		b.WriteString("\n")
		b.WriteString(r.DateTime.Format("02.01.2006"))
		b.WriteString(" в ")
		b.WriteString(r.DateTime.Format("15:04"))
		b.WriteString("\n")
		b.WriteString(r.ProcessingDate.Format("02.01.2006"))
		b.WriteString(" ")
		amount := g.FormatAmount(r.Amount)
		b.WriteString(amount)
		if !r.Malformed {
			b.WriteString(" ")
			b.WriteString(amount)
		}
		if r.Card != "" {
			b.WriteString(" ")
			b.WriteString(r.Card)
		}
		b.WriteString("\n")
		if g.config.PageBreakEvery > 0 && (i+1)%g.config.PageBreakEvery == 0 {
			page := (i + 1) / g.config.PageBreakEvery
			fmt.Fprintf(&b, "Продолжение на следующей странице\nСтраница %d из %d\n", page, page+1)
		}
	}
	if g.config.Balances {
		b.WriteString("Исходящий остаток на 31.07.2025 9 500,00 ₽\n")
	}
	return b.String()
}

// FormatAmount renders a signed amount with grouped thousands, a decimal
// comma and the currency mark, picking separators and dashes at random.
func (g *Generator) FormatAmount(amount decimal.Decimal) string {
	sign := "+"
	if amount.IsNegative() {
		sign = []string{"-", "–"}[g.rng.Intn(2)]
	}
	abs := amount.Abs()
	whole := abs.Truncate(0).String()
	cents := abs.Sub(abs.Truncate(0)).Shift(2).IntPart()

	sep := separators[g.rng.Intn(len(separators))]
	var groups []string
	for len(whole) > 3 {
		groups = append([]string{whole[len(whole)-3:]}, groups...)
		whole = whole[:len(whole)-3]
	}
	groups = append([]string{whole}, groups...)

	return fmt.Sprintf("%s%s,%02d ₽", sign, strings.Join(groups, sep), cents)
}
