// Package converter runs the whole statement pipeline: segmentation,
// normalization and record assembly for one resolved account.
//
// Records that cannot be converted are dropped and counted in
// ConversionStats. Only a failed resolution aborts a conversion, and it does
// so before any record is assembled.
package converter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-statement-importer/internal/models"
	"golang-statement-importer/internal/normalizer"
	"golang-statement-importer/internal/parsers"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// Resolver supplies the ledger identifiers for an account title
type Resolver interface {
	ResolveContext(ctx context.Context, accountTitle string) (models.ResolutionContext, error)
}

// Config holds configuration for the converter
type Config struct {
	Layout     *parsers.LayoutConfig
	Normalizer *normalizer.Config
}

// DefaultConfig returns a default converter configuration
func DefaultConfig() *Config {
	return &Config{
		Layout:     parsers.DefaultLayoutConfig(),
		Normalizer: normalizer.DefaultConfig(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Layout == nil {
		return fmt.Errorf("layout configuration is required")
	}
	if c.Normalizer == nil {
		return fmt.Errorf("normalizer configuration is required")
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := c.Normalizer.Validate(); err != nil {
		return fmt.Errorf("normalizer: %w", err)
	}
	return nil
}

// Result is the outcome of converting one statement
type Result struct {
	Transactions []*models.CanonicalTransaction `json:"transactions"`
	Stats        *ConversionStats               `json:"summary"`
	Context      models.ResolutionContext       `json:"context"`
}

// Converter converts statement text into canonical transactions
type Converter struct {
	parser     *parsers.StatementParser
	normalizer *normalizer.Normalizer
	logger     logger.Logger
}

// New creates a converter
func New(config *Config) (*Converter, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "converter", "", err)
	}

	parser, err := parsers.NewStatementParser(config.Layout)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "layout", config.Layout.Name, err)
	}
	norm, err := normalizer.New(config.Normalizer)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "normalizer", "", err)
	}

	return &Converter{
		parser:     parser,
		normalizer: norm,
		logger:     logger.GetGlobalLogger().WithComponent("converter"),
	}, nil
}

// Run resolves accountTitle once and converts text. A resolution failure is
// returned unchanged and nothing is converted.
func (c *Converter) Run(ctx context.Context, text, accountTitle string, resolver Resolver) (*Result, error) {
	rc, err := resolver.ResolveContext(ctx, accountTitle)
	if err != nil {
		c.logger.WithError(err).WithField("account", accountTitle).Error("Resolution failed, nothing converted")
		return nil, err
	}
	return c.Convert(ctx, text, rc)
}

// Convert parses, normalizes and assembles every transaction in text
func (c *Converter) Convert(ctx context.Context, text string, rc models.ResolutionContext) (*Result, error) {
	assembler, err := NewRecordAssembler(rc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	fields, stats, err := c.Normalize(ctx, text)
	if err != nil {
		return nil, err
	}

	records := assembler.Assemble(fields)
	for _, tx := range records {
		if err := tx.Validate(); err != nil {
			return nil, errors.InternalError(errors.CodeUnexpectedError, "record assembly", err).
				WithContext("transaction", tx.String())
		}
	}
	stats.Assembled = len(records)
	stats.Duration = time.Since(start)

	c.logger.WithFields(logger.Fields{
		"anchors":   stats.AnchorsFound,
		"segments":  stats.SegmentsEmitted,
		"assembled": stats.Assembled,
		"skipped":   stats.SkippedTotal(),
		"duration":  stats.Duration.String(),
	}).Info("Conversion completed")

	return &Result{Transactions: records, Stats: stats, Context: rc}, nil
}

// Normalize parses text and normalizes every emitted segment without
// attaching ledger identifiers.
func (c *Converter) Normalize(ctx context.Context, text string) ([]NormalizedFields, *ConversionStats, error) {
	stats := NewConversionStats()

	segments, segStats := c.parser.Parse(text)
	stats.addSegmentStats(segStats)
	if segStats.HasSkips() {
		c.logger.WithFields(logger.Fields{
			"skipped": segStats.SkippedTotal(),
			"samples": segStats.GetSampleErrors(5),
		}).Debug("Segments dropped before normalization")
	}

	fields := make([]NormalizedFields, 0, len(segments))
	for i := range segments {
		if err := ctx.Err(); err != nil {
			return nil, stats, errors.InternalError(errors.CodeUnexpectedError, "normalization", err)
		}

		f, skip := c.normalizeOne(&segments[i])
		if skip != nil {
			stats.AddSkip(skip)
			continue
		}
		fields = append(fields, f)
	}
	stats.Normalized = len(fields)

	return fields, stats, nil
}

func (c *Converter) normalizeOne(it *models.IntermediateTransaction) (NormalizedFields, *errors.ImportError) {
	rawDate := it.RawDate()
	rawAmount := it.RawAmount()

	for _, required := range []struct{ field, value string }{
		{"description", it.Description},
		{"date", rawDate},
		{"amount", rawAmount},
	} {
		if strings.TrimSpace(required.value) == "" {
			skip := errors.ValidationError(errors.CodeMissingField, required.field, "", nil).
				WithContext("segment", it.Index)
			c.logDrop(it.Index, skip, "")
			return NormalizedFields{}, skip
		}
	}

	date, err := c.normalizer.Dates.Normalize(rawDate)
	if err != nil {
		skip := errors.WrapIfNeeded(err, errors.CategoryNormalization, errors.CodeInvalidDate, "cannot parse date").
			WithContext("segment", it.Index)
		c.logDrop(it.Index, skip, rawDate)
		return NormalizedFields{}, skip
	}

	amount, err := c.normalizer.Amounts.Normalize(rawAmount)
	if err != nil {
		skip := errors.WrapIfNeeded(err, errors.CategoryNormalization, errors.CodeInvalidAmount, "cannot parse amount").
			WithContext("segment", it.Index)
		c.logDrop(it.Index, skip, rawAmount)
		return NormalizedFields{}, skip
	}

	return NormalizedFields{
		Segment:     it.Index,
		Date:        date,
		Amount:      amount,
		Payee:       c.normalizer.Payees.Extract(it.Description),
		Description: it.Description,
	}, nil
}

func (c *Converter) logDrop(segment int, skip *errors.ImportError, raw string) {
	entry := c.logger.WithFields(logger.Fields{
		"segment": segment,
		"reason":  string(skip.Code),
		"raw":     raw,
	})
	if skip.Category == errors.CategoryNormalization {
		entry.Warn("Dropped transaction")
		return
	}
	entry.Debug("Dropped transaction")
}
