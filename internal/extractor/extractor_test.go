package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"golang-statement-importer/pkg/errors"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestExtractor_IsText(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		path string
		want bool
	}{
		{"statement.txt", true},
		{"STATEMENT.TXT", true},
		{"statement.text", true},
		{"statement.pdf", false},
		{"statement", false},
		{"archive.txt.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := e.IsText(tt.path); got != tt.want {
				t.Errorf("IsText(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtractor_ExtractFile(t *testing.T) {
	e := newTestExtractor(t)
	statement := "Оплата товаров и услуг YANDEX_GO\n27.07.2025 в 12:40\n28.07.2025 –500,00 ₽ –500,00 ₽\n"

	t.Run("text by extension", func(t *testing.T) {
		path := writeFile(t, "statement.txt", []byte(statement))
		got, err := e.ExtractFile(path, false)
		if err != nil {
			t.Fatalf("ExtractFile() error = %v", err)
		}
		if got != statement {
			t.Errorf("ExtractFile() = %q", got)
		}
	})

	t.Run("forced text", func(t *testing.T) {
		path := writeFile(t, "statement.pdf", []byte(statement))
		got, err := e.ExtractFile(path, true)
		if err != nil {
			t.Fatalf("ExtractFile() error = %v", err)
		}
		if got != statement {
			t.Errorf("ExtractFile() = %q", got)
		}
	})

	tests := []struct {
		name      string
		file      string
		data      []byte
		forceText bool
		wantCode  errors.ErrorCode
	}{
		{name: "not a pdf", file: "statement.pdf", data: []byte("plain words, no pdf header"), wantCode: errors.CodeUnreadableDocument},
		{name: "truncated pdf", file: "statement.pdf", data: []byte("%PDF-1.4\n1 0 obj\n<<"), wantCode: errors.CodeUnreadableDocument},
		{name: "empty pdf", file: "statement.pdf", data: []byte{}, wantCode: errors.CodeUnreadableDocument},
		{name: "blank text", file: "statement.txt", data: []byte(" \n\t\n"), wantCode: errors.CodeEmptyDocument},
		{name: "invalid utf-8", file: "statement.txt", data: []byte{0xff, 0xfe, 'a', '\n'}, wantCode: errors.CodeFileCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			_, err := e.ExtractFile(path, tt.forceText)
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}

	t.Run("missing pdf", func(t *testing.T) {
		_, err := e.ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"), false)
		if !errors.HasCode(err, errors.CodeFileNotFound) {
			t.Errorf("expected file_not_found, got %v", err)
		}
		importErr, _ := errors.AsImportError(err)
		if importErr.GetExitCode() != 2 {
			t.Errorf("file errors exit with 2, got %d", importErr.GetExitCode())
		}
	})

	t.Run("missing text", func(t *testing.T) {
		_, err := e.ExtractFile(filepath.Join(t.TempDir(), "missing.txt"), false)
		if !errors.HasCode(err, errors.CodeFileNotFound) {
			t.Errorf("expected file_not_found, got %v", err)
		}
	})
}

func TestExtractor_ExtractPDF(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractPDF([]byte("definitely not a pdf"), "upload")
	if !errors.HasCode(err, errors.CodeUnreadableDocument) {
		t.Fatalf("expected unreadable_document, got %v", err)
	}
	importErr, _ := errors.AsImportError(err)
	if importErr.Context["file_path"] != "upload" {
		t.Errorf("expected document name in context, got %v", importErr.Context)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"negative length", &Config{MinTextLength: -1}, true},
		{"extension without dot", &Config{TextExtensions: []string{"txt"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
