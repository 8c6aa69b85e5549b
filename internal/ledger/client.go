// Package ledger talks to the ZenMoney diff API.
//
// Every call is a POST of a diff request to one endpoint. Reading sends
// serverTimestamp=0 and gets the full state back; writing sends the records
// together with the last known server timestamp. The client never retries.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// DefaultAPIURL is the public diff endpoint
const DefaultAPIURL = "https://api.zenmoney.ru/v8/diff/"

// maxErrorBody caps how much of a failed response is kept in the error
const maxErrorBody = 2048

// Config holds configuration for the ledger client
type Config struct {
	APIURL   string
	Token    string
	Timeout  time.Duration
	Currency Currency
}

// DefaultConfig returns a configuration for the public API without a token
func DefaultConfig() *Config {
	return &Config{
		APIURL:  DefaultAPIURL,
		Timeout: 30 * time.Second,
		Currency: Currency{
			Code:  "RUB",
			Title: "Российский рубль",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("API URL cannot be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("API URL must be http or https, got %q", c.APIURL)
	}
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Currency.Code == "" && c.Currency.Title == "" {
		return fmt.Errorf("currency code or title is required")
	}
	return nil
}

// Client is a ZenMoney diff API client
type Client struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time
	logger     logger.Logger
}

// NewClient creates a ledger client
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		if strings.TrimSpace(config.Token) == "" {
			return nil, errors.ConfigurationError(errors.CodeMissingConfig, "token", "", err)
		}
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "ledger", config.APIURL, err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		now:        time.Now,
		logger:     logger.GetGlobalLogger().WithComponent("ledger_client"),
	}, nil
}

// FetchDiff downloads the full ledger state
func (c *Client) FetchDiff(ctx context.Context) (*Diff, error) {
	var diff Diff
	if err := c.post(ctx, diffRequest{CurrentClientTimestamp: c.now().Unix()}, &diff); err != nil {
		return nil, err
	}

	c.logger.WithFields(logger.Fields{
		"server_timestamp": diff.ServerTimestamp,
		"accounts":         len(diff.Account),
		"instruments":      len(diff.Instrument),
		"transactions":     len(diff.Transaction),
	}).Debug("Fetched ledger diff")

	return &diff, nil
}

// ResolveContext fetches the diff and resolves accountTitle in the configured currency
func (c *Client) ResolveContext(ctx context.Context, accountTitle string) (models.ResolutionContext, error) {
	diff, err := c.FetchDiff(ctx)
	if err != nil {
		return models.ResolutionContext{}, err
	}
	return diff.Resolve(accountTitle, c.config.Currency)
}

// ListAccounts returns the live accounts with their currencies
func (c *Client) ListAccounts(ctx context.Context) ([]AccountSummary, error) {
	diff, err := c.FetchDiff(ctx)
	if err != nil {
		return nil, err
	}
	return diff.Accounts(), nil
}

// Submit sends all records in one request. Nothing is sent for an empty batch.
func (c *Client) Submit(ctx context.Context, txs []*models.CanonicalTransaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	records := make([]*models.LedgerTransaction, 0, len(txs))
	for _, tx := range txs {
		records = append(records, tx.ToLedger())
	}

	if err := c.push(ctx, records); err != nil {
		return 0, err
	}

	c.logger.WithField("count", len(records)).Info("Submitted transactions")
	return len(records), nil
}

// Delete marks every live transaction selected by filter as deleted in one
// request and returns how many were deleted.
func (c *Client) Delete(ctx context.Context, filter DeleteFilter) (int, error) {
	if filter.IsEmpty() {
		return 0, errors.ValidationError(errors.CodeMissingField, "filter", "", nil).
			WithSuggestion("use --account, --start-date/--end-date or --all")
	}

	diff, err := c.FetchDiff(ctx)
	if err != nil {
		return 0, err
	}

	selected, err := diff.Select(filter)
	if err != nil {
		return 0, err
	}
	if len(selected) == 0 {
		c.logger.Info("Nothing to delete")
		return 0, nil
	}

	now := c.now()
	user := diff.UserID()
	records := make([]*models.LedgerTransaction, 0, len(selected))
	for _, tx := range selected {
		records = append(records, tx.MarkDeleted(user, now))
	}

	body := diffRequest{
		CurrentClientTimestamp: now.Unix(),
		ServerTimestamp:        diff.ServerTimestamp,
		Transaction:            records,
	}
	if err := c.post(ctx, body, nil); err != nil {
		return 0, err
	}

	c.logger.WithFields(logger.Fields{
		"count":   len(records),
		"account": filter.Account,
		"start":   filter.StartDate,
		"end":     filter.EndDate,
	}).Info("Deleted transactions")
	return len(records), nil
}

// push fetches the current server timestamp and posts records against it
func (c *Client) push(ctx context.Context, records []*models.LedgerTransaction) error {
	diff, err := c.FetchDiff(ctx)
	if err != nil {
		return err
	}
	body := diffRequest{
		CurrentClientTimestamp: c.now().Unix(),
		ServerTimestamp:        diff.ServerTimestamp,
		Transaction:            records,
	}
	return c.post(ctx, body, nil)
}

func (c *Client) post(ctx context.Context, body diffRequest, out interface{}) error {
	endpoint := c.config.APIURL

	payload, err := json.Marshal(body)
	if err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "encode diff request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.NetworkError(errors.CodeConnectionFailed, endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logger.Fields{
		"endpoint":         endpoint,
		"server_timestamp": body.ServerTimestamp,
		"transactions":     len(body.Transaction),
	}).Debug("Posting diff")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NetworkError(errors.CodeConnectionFailed, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.NetworkError(errors.CodeUnexpectedStatus, endpoint,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))).
			WithContext("status", resp.StatusCode).
			WithContext("body", string(snippet))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NetworkError(errors.CodeInvalidResponse, endpoint, err)
	}
	return nil
}
