// Package reporter renders conversion results for review before submission.
//
// Supported output formats:
//   - Console: a short human-readable preview for the terminal
//   - JSON: the summary and every record, for programmatic consumption
//   - CSV: one row per record, for spreadsheet applications
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"golang-statement-importer/internal/converter"
	"golang-statement-importer/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// MaxItems limits the records listed in the console preview.
	MaxItems int `json:"max_items"`
	// IncludeSkipped lists sample skip reasons in console and JSON output.
	IncludeSkipped bool `json:"include_skipped"`
	// CommentWidth truncates comments in the console preview.
	CommentWidth int `json:"comment_width"`
	// AmountScale divides stored amounts back into currency units for display.
	AmountScale decimal.Decimal `json:"amount_scale"`

	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:         FormatConsole,
		MaxItems:       10,
		IncludeSkipped: false,
		CommentWidth:   50,
		AmountScale:    decimal.NewFromInt(1),
		CSVDelimiter:   ',',
		CSVHeaders:     true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max items cannot be negative, got %d", c.MaxItems)
	}
	if c.CommentWidth < 10 {
		return fmt.Errorf("comment width must be at least 10 characters, got %d", c.CommentWidth)
	}
	if !c.AmountScale.IsPositive() {
		return fmt.Errorf("amount scale must be positive, got %s", c.AmountScale)
	}
	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n' || c.CSVDelimiter == '\r' {
		return fmt.Errorf("invalid CSV delimiter %q", c.CSVDelimiter)
	}
	return nil
}

// ReportGenerator generates previews in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport writes a preview of result to writer
func (rg *ReportGenerator) GenerateReport(result *converter.Result, writer io.Writer) error {
	if result == nil || result.Stats == nil {
		return fmt.Errorf("conversion result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *converter.Result, writer io.Writer) error {
	w := &errWriter{w: writer}

	w.printf("STATEMENT PREVIEW\n")
	w.printf("Account: %s  Currency: %d  User: %d\n\n",
		result.Context.AccountID, result.Context.InstrumentID, result.Context.UserID)

	w.printf("=== SUMMARY ===\n")
	rg.printSummaryTable(result.Stats, w)
	w.printf("\n")

	txs := result.Transactions
	if len(txs) == 0 {
		w.printf("No transactions to import\n")
	} else {
		w.printf("=== TRANSACTIONS ===\n")
		rg.printTransactionList(txs, w)
	}

	if rg.config.IncludeSkipped && result.Stats.Errors != nil && len(result.Stats.Errors.SampleErrors) > 0 {
		w.printf("\n=== SKIPPED (samples) ===\n")
		for _, err := range result.Stats.Errors.SampleErrors {
			w.printf("  - [%s] %s\n", err.Code, err.Message)
		}
	}

	return w.err
}

type jsonReport struct {
	Summary      *converter.ConversionStats `json:"summary"`
	Context      models.ResolutionContext   `json:"context"`
	Transactions []jsonTransaction          `json:"transactions"`
	Skipped      []string                   `json:"skipped,omitempty"`
}

type jsonTransaction struct {
	*models.CanonicalTransaction
	Direction models.Direction `json:"direction"`
	Amount    string           `json:"amount"`
}

func (rg *ReportGenerator) generateJSONReport(result *converter.Result, writer io.Writer) error {
	report := jsonReport{
		Summary:      result.Stats,
		Context:      result.Context,
		Transactions: make([]jsonTransaction, 0, len(result.Transactions)),
	}
	for _, tx := range result.Transactions {
		report.Transactions = append(report.Transactions, jsonTransaction{
			CanonicalTransaction: tx,
			Direction:            tx.Direction(),
			Amount:               rg.formatAmount(tx),
		})
	}
	if rg.config.IncludeSkipped && result.Stats.Errors != nil {
		for _, err := range result.Stats.Errors.SampleErrors {
			report.Skipped = append(report.Skipped, err.Error())
		}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (rg *ReportGenerator) generateCSVReport(result *converter.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		headers := []string{"date", "direction", "amount", "payee", "comment", "id"}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, tx := range result.Transactions {
		record := []string{
			tx.Date,
			tx.Direction().String(),
			rg.formatAmount(tx),
			tx.Payee,
			tx.Comment,
			tx.ID,
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write transaction record %s: %w", tx.ID, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) printSummaryTable(stats *converter.ConversionStats, w *errWriter) {
	w.printf("Anchors found:    %d\n", stats.AnchorsFound)
	w.printf("Segments emitted: %d\n", stats.SegmentsEmitted)
	w.printf("Records:          %d\n", stats.Assembled)
	w.printf("Skipped:          %d\n", stats.SkippedTotal())
	for _, code := range stats.SkipCodes() {
		w.printf("  %-24s %d\n", code+":", stats.Skipped[code])
	}
}

func (rg *ReportGenerator) printTransactionList(txs []*models.CanonicalTransaction, w *errWriter) {
	limit := len(txs)
	if rg.config.MaxItems > 0 && rg.config.MaxItems < limit {
		limit = rg.config.MaxItems
	}

	for i := 0; i < limit; i++ {
		tx := txs[i]
		w.printf("  %d. %s | %s | %s\n", i+1, tx.Date, truncate(tx.Comment, rg.config.CommentWidth), rg.formatAmount(tx))
	}
	if len(txs) > limit {
		w.printf("  ... and %d more\n", len(txs)-limit)
	}
}

// formatAmount renders the signed amount in currency units
func (rg *ReportGenerator) formatAmount(tx *models.CanonicalTransaction) string {
	value := decimal.NewFromInt(tx.Amount()).Div(rg.config.AmountScale)
	places := int32(0)
	if !rg.config.AmountScale.Equal(decimal.NewFromInt(1)) {
		places = 2
	}
	if value.IsPositive() {
		return "+" + value.StringFixed(places)
	}
	return value.StringFixed(places)
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:width-1])) + "…"
}

// errWriter keeps the first write error so console output can be written
// without checking every Fprintf.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
