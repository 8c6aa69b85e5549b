// Package extractor recovers statement text from the documents a bank issues.
//
// PDFs are read with ledongthuc/pdf page by page. Plain-text statements
// (already extracted elsewhere) are read as they are.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"golang-statement-importer/internal/parsers"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// Config holds configuration for text extraction
type Config struct {
	// TextExtensions are read as plain text instead of PDF.
	TextExtensions []string
	// MinTextLength is the least amount of non-space text a document must yield.
	MinTextLength int
}

// DefaultConfig returns the default extraction configuration
func DefaultConfig() *Config {
	return &Config{
		TextExtensions: []string{".txt", ".text"},
		MinTextLength:  1,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MinTextLength < 0 {
		return fmt.Errorf("minimum text length cannot be negative")
	}
	for _, ext := range c.TextExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("text extension %q must start with a dot", ext)
		}
	}
	return nil
}

// Extractor turns statement documents into text
type Extractor struct {
	config *Config
	logger logger.Logger
}

// New creates an extractor
func New(config *Config) (*Extractor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "extractor", "", err)
	}
	return &Extractor{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("extractor"),
	}, nil
}

// IsText reports whether path should be read as plain text
func (e *Extractor) IsText(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range e.config.TextExtensions {
		if ext == t {
			return true
		}
	}
	return false
}

// ExtractFile returns the text of the statement at path. forceText skips PDF
// decoding regardless of the extension.
func (e *Extractor) ExtractFile(path string, forceText bool) (string, error) {
	if forceText || e.IsText(path) {
		text, err := parsers.ReadTextFile(path)
		if err != nil {
			return "", err
		}
		return text, e.checkLength(text, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return "", errors.FileError(errors.CodeFilePermission, path, err)
		}
		return "", errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return "", errors.FileError(errors.CodeFilePermission, path, err)
		}
		return "", errors.FileError(errors.CodeFileNotFound, path, err)
	}
	defer f.Close()

	return e.extractPDF(f, info.Size(), path)
}

// ExtractPDF returns the text of an in-memory PDF. name only labels errors.
func (e *Extractor) ExtractPDF(data []byte, name string) (string, error) {
	return e.extractPDF(bytes.NewReader(data), int64(len(data)), name)
}

func (e *Extractor) extractPDF(r io.ReaderAt, size int64, name string) (text string, err error) {
	// The PDF library panics on some malformed documents.
	defer func() {
		if p := recover(); p != nil {
			text = ""
			err = errors.ExtractionError(errors.CodeUnreadableDocument, name, fmt.Errorf("pdf reader panic: %v", p))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", errors.ExtractionError(errors.CodeUnreadableDocument, name, err)
	}

	pages := reader.NumPage()
	if pages == 0 {
		return "", errors.ExtractionError(errors.CodeEmptyDocument, name, nil)
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		b.WriteString(pageText(page))
		b.WriteString("\n")
	}
	text = b.String()

	e.logger.WithFields(logger.Fields{
		"document": name,
		"pages":    pages,
		"chars":    len(text),
	}).Debug("Extracted PDF text")

	return text, e.checkLength(text, name)
}

// pageText prefers the font-aware plain text and falls back to row
// reconstruction when that yields nothing.
func pageText(page pdf.Page) string {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	if text, err := page.GetPlainText(fonts); err == nil && strings.TrimSpace(text) != "" {
		return text
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func (e *Extractor) checkLength(text, name string) error {
	if len(strings.TrimSpace(text)) < e.config.MinTextLength {
		return errors.ExtractionError(errors.CodeEmptyDocument, name, nil)
	}
	return nil
}
