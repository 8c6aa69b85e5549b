package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"golang-statement-importer/internal/converter"
	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
)

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{
			name:        "default config",
			config:      nil,
			expectError: false,
		},
		{
			name:        "valid config",
			config:      DefaultReportConfig(),
			expectError: false,
		},
		{
			name: "invalid format",
			config: func() *ReportConfig {
				c := DefaultReportConfig()
				c.Format = "invalid"
				return c
			}(),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if generator == nil {
					t.Errorf("expected generator but got nil")
				}
			}
		})
	}
}

func TestOutputFormatValidation(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{FormatConsole, true},
		{FormatJSON, true},
		{FormatCSV, true},
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if tt.format.IsValid() != tt.valid {
				t.Errorf("expected IsValid() = %v for format %s", tt.valid, tt.format)
			}
		})
	}
}

func TestReportConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ReportConfig)
		expectError bool
	}{
		{"valid config", func(*ReportConfig) {}, false},
		{"unlimited items", func(c *ReportConfig) { c.MaxItems = 0 }, false},
		{"negative items", func(c *ReportConfig) { c.MaxItems = -1 }, true},
		{"narrow comments", func(c *ReportConfig) { c.CommentWidth = 5 }, true},
		{"zero scale", func(c *ReportConfig) { c.AmountScale = decimal.Zero }, true},
		{"quote delimiter", func(c *ReportConfig) { c.CSVDelimiter = '"' }, true},
		{"semicolon delimiter", func(c *ReportConfig) { c.CSVDelimiter = ';' }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultReportConfig()
			tt.mutate(config)
			err := config.Validate()

			if tt.expectError && err == nil {
				t.Errorf("expected validation error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func createSampleResult(n int) *converter.Result {
	stamp := time.Date(2025, 7, 28, 10, 0, 0, 0, time.UTC)
	rc := models.ResolutionContext{AccountID: "acc-1", InstrumentID: 2, UserID: 7}

	txs := make([]*models.CanonicalTransaction, 0, n)
	for i := 0; i < n; i++ {
		tx := &models.CanonicalTransaction{
			ID:         fmt.Sprintf("id-%d", i+1),
			CreatedAt:  stamp,
			ChangedAt:  stamp,
			UserID:     rc.UserID,
			AccountID:  rc.AccountID,
			CurrencyID: rc.InstrumentID,
			Comment:    fmt.Sprintf("Оплата товаров и услуг SHOP_%d", i+1),
			Payee:      fmt.Sprintf("SHOP_%d", i+1),
			Date:       "2025-07-28",
		}
		if i%2 == 0 {
			tx.IncomeMinorUnits = int64(100 * (i + 1))
		} else {
			tx.OutcomeMinorUnits = int64(100 * (i + 1))
		}
		txs = append(txs, tx)
	}

	stats := converter.NewConversionStats()
	stats.AnchorsFound = n + 2
	stats.SegmentsEmitted = n + 1
	stats.Normalized = n
	stats.Assembled = n
	stats.AddSkip(errors.SegmentationError(errors.CodeMissingAmounts, n+1, "28.07.2025 в 09:00"))
	stats.AddSkip(errors.NormalizationError(errors.CodeZeroAmount, "+0,00 ₽", nil))

	return &converter.Result{Transactions: txs, Stats: stats, Context: rc}
}

func TestGenerateReport(t *testing.T) {
	result := createSampleResult(3)

	tests := []struct {
		name        string
		format      OutputFormat
		checkOutput func(t *testing.T, output string)
	}{
		{
			name:   "console format",
			format: FormatConsole,
			checkOutput: func(t *testing.T, output string) {
				for _, want := range []string{
					"STATEMENT PREVIEW",
					"=== SUMMARY ===",
					"Records:          3",
					"Skipped:          2",
					"missing_amounts:",
					"zero_amount:",
					"1. 2025-07-28 | Оплата товаров и услуг SHOP_1 | +100",
					"2. 2025-07-28 | Оплата товаров и услуг SHOP_2 | -200",
				} {
					if !strings.Contains(output, want) {
						t.Errorf("console output should contain %q\n%s", want, output)
					}
				}
				if strings.Contains(output, "SKIPPED") {
					t.Error("skipped samples are off by default")
				}
			},
		},
		{
			name:   "JSON format",
			format: FormatJSON,
			checkOutput: func(t *testing.T, output string) {
				var report struct {
					Summary struct {
						Assembled int            `json:"assembled"`
						Skipped   map[string]int `json:"skipped"`
					} `json:"summary"`
					Transactions []map[string]interface{} `json:"transactions"`
				}
				if err := json.Unmarshal([]byte(output), &report); err != nil {
					t.Fatalf("output should be valid JSON: %v", err)
				}
				if report.Summary.Assembled != 3 || report.Summary.Skipped["zero_amount"] != 1 {
					t.Errorf("unexpected summary %+v", report.Summary)
				}
				if len(report.Transactions) != 3 {
					t.Fatalf("expected 3 transactions, got %d", len(report.Transactions))
				}
				first := report.Transactions[0]
				if first["direction"] != "income" || first["amount"] != "+100" || first["id"] != "id-1" {
					t.Errorf("unexpected first transaction %v", first)
				}
			},
		},
		{
			name:   "CSV format",
			format: FormatCSV,
			checkOutput: func(t *testing.T, output string) {
				records, err := csv.NewReader(strings.NewReader(output)).ReadAll()
				if err != nil {
					t.Fatalf("output should be valid CSV: %v", err)
				}
				if len(records) != 4 {
					t.Fatalf("expected header plus 3 rows, got %d", len(records))
				}
				if strings.Join(records[0], ",") != "date,direction,amount,payee,comment,id" {
					t.Errorf("unexpected header %v", records[0])
				}
				want := []string{"2025-07-28", "outcome", "-200", "SHOP_2", "Оплата товаров и услуг SHOP_2", "id-2"}
				if strings.Join(records[2], "|") != strings.Join(want, "|") {
					t.Errorf("row 2 = %v, want %v", records[2], want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultReportConfig()
			config.Format = tt.format
			generator, err := NewReportGenerator(config)
			if err != nil {
				t.Fatalf("failed to create generator: %v", err)
			}

			var buf bytes.Buffer
			if err := generator.GenerateReport(result, &buf); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.checkOutput(t, buf.String())
		})
	}

	t.Run("nil result", func(t *testing.T) {
		generator, _ := NewReportGenerator(nil)
		if err := generator.GenerateReport(nil, &bytes.Buffer{}); err == nil {
			t.Error("expected error for nil result")
		}
	})
}

func TestConsolePreviewLimit(t *testing.T) {
	generator, _ := NewReportGenerator(nil)

	var buf bytes.Buffer
	if err := generator.GenerateReport(createSampleResult(13), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "10. 2025-07-28") {
		t.Error("expected the tenth record")
	}
	if strings.Contains(output, "11. 2025-07-28") {
		t.Error("console preview must stop after MaxItems records")
	}
	if !strings.Contains(output, "... and 3 more") {
		t.Errorf("expected remainder notice\n%s", output)
	}
}

func TestConsoleSkippedSamples(t *testing.T) {
	config := DefaultReportConfig()
	config.IncludeSkipped = true
	generator, _ := NewReportGenerator(config)

	var buf bytes.Buffer
	if err := generator.GenerateReport(createSampleResult(1), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "=== SKIPPED (samples) ===") || !strings.Contains(output, "[zero_amount]") {
		t.Errorf("expected skipped samples\n%s", output)
	}
}

func TestEmptyResultHandling(t *testing.T) {
	result := &converter.Result{Stats: converter.NewConversionStats()}

	for _, format := range []OutputFormat{FormatConsole, FormatJSON, FormatCSV} {
		t.Run(string(format), func(t *testing.T) {
			config := DefaultReportConfig()
			config.Format = format
			generator, _ := NewReportGenerator(config)

			var buf bytes.Buffer
			if err := generator.GenerateReport(result, &buf); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if format == FormatConsole && !strings.Contains(buf.String(), "No transactions to import") {
				t.Errorf("expected empty notice, got %s", buf.String())
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name  string
		scale int64
		tx    models.CanonicalTransaction
		want  string
	}{
		{"whole income", 1, models.CanonicalTransaction{IncomeMinorUnits: 1200}, "+1200"},
		{"whole outcome", 1, models.CanonicalTransaction{OutcomeMinorUnits: 500}, "-500"},
		{"hundredths income", 100, models.CanonicalTransaction{IncomeMinorUnits: 120050}, "+1200.50"},
		{"hundredths outcome", 100, models.CanonicalTransaction{OutcomeMinorUnits: 7}, "-0.07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultReportConfig()
			config.AmountScale = decimal.NewFromInt(tt.scale)
			generator, err := NewReportGenerator(config)
			if err != nil {
				t.Fatalf("NewReportGenerator() error = %v", err)
			}
			if got := generator.formatAmount(&tt.tx); got != tt.want {
				t.Errorf("formatAmount() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("короткий", 10); got != "короткий" {
		t.Errorf("truncate() = %q", got)
	}
	got := truncate("Входящий перевод СБП, Иван Петрович С., Сбербанк", 20)
	if got != "Входящий перевод СБ…" {
		t.Errorf("truncate() = %q", got)
	}
}

func TestUpdateConfiguration(t *testing.T) {
	generator, _ := NewReportGenerator(nil)

	bad := DefaultReportConfig()
	bad.Format = "xml"
	if err := generator.UpdateConfiguration(bad); err == nil {
		t.Error("expected error for invalid configuration")
	}
	if generator.GetConfiguration().Format != FormatConsole {
		t.Error("invalid configuration must not be applied")
	}

	good := DefaultReportConfig()
	good.Format = FormatCSV
	if err := generator.UpdateConfiguration(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if generator.GetConfiguration().Format != FormatCSV {
		t.Error("configuration not updated")
	}
}

func TestSafeReportGenerator(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		config := DefaultReportConfig()
		config.Format = "xml"
		_, err := NewSafeReportGenerator(config, nil)
		if !errors.HasCode(err, errors.CodeInvalidConfig) {
			t.Errorf("expected invalid_config, got %v", err)
		}
	})

	t.Run("missing inputs", func(t *testing.T) {
		srg, err := NewSafeReportGenerator(nil, nil)
		if err != nil {
			t.Fatalf("NewSafeReportGenerator() error = %v", err)
		}
		if err := srg.GenerateReportSafely(nil, &bytes.Buffer{}); !errors.HasCode(err, errors.CodeMissingField) {
			t.Errorf("expected missing_field for nil result, got %v", err)
		}
		if err := srg.GenerateReportSafely(createSampleResult(1), nil); !errors.HasCode(err, errors.CodeMissingField) {
			t.Errorf("expected missing_field for nil writer, got %v", err)
		}
	})

	t.Run("closed file falls back to backup", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "preview.json")
		file, err := os.Create(path)
		if err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
		file.Close()

		config := DefaultReportConfig()
		config.Format = FormatJSON
		srg, _ := NewSafeReportGenerator(config, nil)

		if err := srg.GenerateReportSafely(createSampleResult(2), file); err != nil {
			t.Fatalf("expected fallback to succeed, got %v", err)
		}

		data, err := os.ReadFile(generateBackupPath(path))
		if err != nil {
			t.Fatalf("backup file missing: %v", err)
		}
		if !json.Valid(data) {
			t.Errorf("backup should hold the JSON report, got %s", data)
		}
	})
}

func TestGenerateBackupPath(t *testing.T) {
	got := generateBackupPath(filepath.Join("out", "preview.csv"))
	if got != filepath.Join("out", "preview_backup.csv") {
		t.Errorf("generateBackupPath() = %q", got)
	}
}

func BenchmarkGenerateConsoleReport(b *testing.B) {
	result := createSampleResult(200)
	generator, _ := NewReportGenerator(nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		_ = generator.GenerateReport(result, &buf)
	}
}

func BenchmarkGenerateCSVReport(b *testing.B) {
	result := createSampleResult(200)
	config := DefaultReportConfig()
	config.Format = FormatCSV
	generator, _ := NewReportGenerator(config)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		_ = generator.GenerateReport(result, &buf)
	}
}
