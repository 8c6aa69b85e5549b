package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"golang-statement-importer/internal/statementgen"
)

// Usage:
//
//	go run ./testdata/generators/statement_generator.go -count=200 -output=statement.txt -key=statement_key.csv

func main() {
	defaults := statementgen.DefaultConfig()

	var (
		output        = flag.String("output", "generated_statement.txt", "Output statement text file path")
		keyFile       = flag.String("key", "", "Optional answer key CSV with the expected record per row")
		count         = flag.Int("count", defaults.Count, "Number of statement rows to generate")
		startDate     = flag.String("start-date", defaults.Start.Format("2006-01-02"), "First transaction date (YYYY-MM-DD)")
		minAmount     = flag.Float64("min-amount", 1, "Minimum amount in currency units")
		maxAmount     = flag.Float64("max-amount", 250000, "Maximum amount in currency units")
		malformedRate = flag.Float64("malformed-rate", defaults.MalformedRate, "Share of rows rendered with a single amount (0.0-1.0)")
		pageBreak     = flag.Int("page-break", defaults.PageBreakEvery, "Insert page furniture after every n rows, 0 disables")
		balances      = flag.Bool("balances", defaults.Balances, "Wrap rows in opening and closing balance lines")
		seed          = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	if *count <= 0 {
		log.Fatal("count must be positive")
	}
	if *malformedRate < 0 || *malformedRate > 1 {
		log.Fatal("malformed-rate must be between 0.0 and 1.0")
	}
	if *minAmount <= 0 || *maxAmount < *minAmount {
		log.Fatal("amount range must be positive with min-amount <= max-amount")
	}

	generator := statementgen.New(statementgen.Config{
		Seed:           *seed,
		Count:          *count,
		Start:          start.Add(9 * time.Hour),
		MinAmount:      decimal.NewFromFloat(*minAmount),
		MaxAmount:      decimal.NewFromFloat(*maxAmount),
		MalformedRate:  *malformedRate,
		PageBreakEvery: *pageBreak,
		Balances:       *balances,
	})
	statement := generator.Generate()

	if err := os.WriteFile(*output, []byte(statement.Text), 0644); err != nil {
		log.Fatalf("Failed to write statement: %v", err)
	}

	if *keyFile != "" {
		if err := writeKey(*keyFile, statement); err != nil {
			log.Fatalf("Failed to write answer key: %v", err)
		}
	}

	fmt.Printf("Generated %d rows (%d importable) in %s\n", len(statement.Rows), len(statement.ValidRows()), *output)
	if *keyFile != "" {
		fmt.Printf("Answer key: %s\n", *keyFile)
	}
	fmt.Printf("Seed used: %d\n", *seed)
}

// writeKey writes one CSV line per row with the values an import should produce
func writeKey(filename string, statement *statementgen.Statement) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"row", "date", "amount", "payee", "card", "skipped", "description"}); err != nil {
		return err
	}

	for i, row := range statement.Rows {
		record := []string{
			strconv.Itoa(i + 1),
			row.ProcessingDate.Format("2006-01-02"),
			row.Amount.StringFixed(2),
			row.Payee(),
			row.Card,
			strconv.FormatBool(row.Malformed),
			row.Description,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
