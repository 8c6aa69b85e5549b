package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"golang-statement-importer/internal/converter"
	"golang-statement-importer/internal/extractor"
	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
)

const statement = `Входящий перевод СБП, Иван И., Сбербанк
27.07.2025 в 08:16
28.07.2025 +1 200,50 ₽ +1 200,50 ₽
Оплата товаров и услуг YANDEX_GO
27.07.2025 в 12:40
28.07.2025 –500,00 ₽ –500,00 ₽ *1234
Перевод без второй суммы
28.07.2025 в 09:00
29.07.2025 -10,00 ₽
`

type stubResolver struct {
	accounts map[string]string
	err      error
}

func (r *stubResolver) ResolveContext(_ context.Context, title string) (models.ResolutionContext, error) {
	if r.err != nil {
		return models.ResolutionContext{}, r.err
	}
	id, ok := r.accounts[title]
	if !ok {
		return models.ResolutionContext{}, errors.ResolutionError(errors.CodeAccountNotFound, title)
	}
	return models.ResolutionContext{AccountID: id, InstrumentID: 2, UserID: 7}, nil
}

func setupTestApp(t *testing.T, resolver converter.Resolver) *fiber.App {
	t.Helper()
	conv, err := converter.New(nil)
	if err != nil {
		t.Fatalf("converter.New() error = %v", err)
	}
	ext, err := extractor.New(nil)
	if err != nil {
		t.Fatalf("extractor.New() error = %v", err)
	}
	if resolver == nil {
		resolver = &stubResolver{accounts: map[string]string{"Карта": "acc-card"}}
	}
	server, err := NewServer(nil, conv, resolver, ext)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return server.App()
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeResponse(t *testing.T, resp *http.Response) ConvertResponse {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var result ConvertResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response %s: %v", body, err)
	}
	return result
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
}

func TestConvertEndpoint(t *testing.T) {
	app := setupTestApp(t, nil)

	resp, err := app.Test(formRequest(url.Values{"account": {"Карта"}, "text": {statement}}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := decodeResponse(t, resp)
	if !result.Success || result.Count != 2 || len(result.Transactions) != 2 {
		t.Fatalf("unexpected response %+v", result)
	}
	if result.Transactions[0].AccountID != "acc-card" {
		t.Errorf("record bound to %q, want acc-card", result.Transactions[0].AccountID)
	}
	if result.Transactions[0].IncomeMinorUnits != 1200 || result.Transactions[1].OutcomeMinorUnits != 500 {
		t.Errorf("unexpected amounts %+v / %+v", result.Transactions[0], result.Transactions[1])
	}
	if result.Summary == nil || result.Summary.Skipped[errors.CodeMissingAmounts] != 1 {
		t.Errorf("expected summary with one missing_amounts skip, got %+v", result.Summary)
	}
}

func TestConvertEndpointUpload(t *testing.T) {
	app := setupTestApp(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("account", "Карта")
	part, _ := mw.CreateFormFile("file", "statement.txt")
	_, _ = part.Write([]byte(statement))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if result := decodeResponse(t, resp); result.Count != 2 {
		t.Errorf("expected 2 records, got %d", result.Count)
	}
}

func TestConvertEndpointErrors(t *testing.T) {
	tests := []struct {
		name     string
		resolver converter.Resolver
		values   url.Values
		status   int
		code     errors.ErrorCode
	}{
		{
			name:   "missing account",
			values: url.Values{"text": {statement}},
			status: fiber.StatusBadRequest,
			code:   errors.CodeMissingField,
		},
		{
			name:   "missing text",
			values: url.Values{"account": {"Карта"}},
			status: fiber.StatusBadRequest,
			code:   errors.CodeMissingField,
		},
		{
			name:   "unknown account",
			values: url.Values{"account": {"Вклад"}, "text": {statement}},
			status: fiber.StatusUnprocessableEntity,
			code:   errors.CodeAccountNotFound,
		},
		{
			name:     "unknown currency",
			resolver: &stubResolver{err: errors.ResolutionError(errors.CodeCurrencyNotFound, "RUB")},
			values:   url.Values{"account": {"Карта"}, "text": {statement}},
			status:   fiber.StatusUnprocessableEntity,
			code:     errors.CodeCurrencyNotFound,
		},
		{
			name:     "ledger unreachable",
			resolver: &stubResolver{err: errors.NetworkError(errors.CodeConnectionFailed, "https://ledger", nil)},
			values:   url.Values{"account": {"Карта"}, "text": {statement}},
			status:   fiber.StatusBadGateway,
			code:     errors.CodeConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(t, tt.resolver)

			resp, err := app.Test(formRequest(tt.values))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			result := decodeResponse(t, resp)
			if result.Success || result.Code != tt.code {
				t.Errorf("expected failure with %s, got %+v", tt.code, result)
			}
			if len(result.Transactions) != 0 {
				t.Errorf("failed request must not return records")
			}
		})
	}
}

func TestConvertEndpointUnreadablePDF(t *testing.T) {
	app := setupTestApp(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("account", "Карта")
	part, _ := mw.CreateFormFile("file", "statement.pdf")
	_, _ = part.Write([]byte("not a pdf at all"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
	if result := decodeResponse(t, resp); result.Code != errors.CodeUnreadableDocument {
		t.Errorf("expected unreadable_document, got %s", result.Code)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"empty listen", func(c *Config) { c.Listen = "" }, true},
		{"zero body limit", func(c *Config) { c.BodyLimit = 0 }, true},
		{"zero timeout", func(c *Config) { c.ReadTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
