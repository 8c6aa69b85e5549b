// Package api serves conversion previews over HTTP.
//
// The API never submits anything to the ledger: it resolves the account,
// converts the uploaded statement and returns what an import would send.
package api

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"golang-statement-importer/internal/converter"
	"golang-statement-importer/internal/extractor"
	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// Config holds configuration for the HTTP server
type Config struct {
	Listen       string
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Listen:       ":8080",
		BodyLimit:    32 << 20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.BodyLimit <= 0 {
		return fmt.Errorf("body limit must be positive, got %d", c.BodyLimit)
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// ConvertResponse is the JSON response of /api/convert
type ConvertResponse struct {
	Success      bool                           `json:"success"`
	Error        string                         `json:"error,omitempty"`
	Code         errors.ErrorCode               `json:"code,omitempty"`
	Suggestion   string                         `json:"suggestion,omitempty"`
	Summary      *converter.ConversionStats     `json:"summary,omitempty"`
	Transactions []*models.CanonicalTransaction `json:"transactions"`
	Count        int                            `json:"count"`
}

// Server is the preview HTTP server
type Server struct {
	config    *Config
	app       *fiber.App
	converter *converter.Converter
	resolver  converter.Resolver
	extractor *extractor.Extractor
	logger    logger.Logger
}

// NewServer creates a server around a converter, a resolver and an extractor
func NewServer(config *Config, conv *converter.Converter, resolver converter.Resolver, ext *extractor.Extractor) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "listen", config.Listen, err)
	}
	if conv == nil || resolver == nil || ext == nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "server setup",
			fmt.Errorf("converter, resolver and extractor are required"))
	}

	s := &Server{
		config:    config,
		converter: conv,
		resolver:  resolver,
		extractor: ext,
		logger:    logger.GetGlobalLogger().WithComponent("api"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "zenimport",
		BodyLimit:             config.BodyLimit,
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Get("/api/health", s.handleHealth)
	s.app.Post("/api/convert", s.handleConvert)

	return s, nil
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called
func (s *Server) Listen() error {
	s.logger.WithField("listen", s.config.Listen).Info("Starting preview API")
	return s.app.Listen(s.config.Listen)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"engine": "fiber",
	})
}

func (s *Server) handleConvert(c *fiber.Ctx) error {
	account := strings.TrimSpace(c.FormValue("account"))
	if account == "" {
		return s.fail(c, fiber.StatusBadRequest,
			errors.ValidationError(errors.CodeMissingField, "account", "", nil))
	}

	text, err := s.statementText(c)
	if err != nil {
		return s.fail(c, statusFor(err), err)
	}

	result, err := s.converter.Run(c.UserContext(), text, account, s.resolver)
	if err != nil {
		return s.fail(c, statusFor(err), err)
	}

	s.logger.WithFields(logger.Fields{
		"account": account,
		"records": len(result.Transactions),
		"skipped": result.Stats.SkippedTotal(),
	}).Info("Converted statement preview")

	return c.JSON(ConvertResponse{
		Success:      true,
		Summary:      result.Stats,
		Transactions: result.Transactions,
		Count:        len(result.Transactions),
	})
}

// statementText reads the "text" field, or the "file" upload when no text is given
func (s *Server) statementText(c *fiber.Ctx) (string, error) {
	if text := c.FormValue("text"); strings.TrimSpace(text) != "" {
		return text, nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return "", errors.ValidationError(errors.CodeMissingField, "text", "", nil).
			WithSuggestion("send the statement as form field 'text' or upload it as 'file'")
	}

	file, err := header.Open()
	if err != nil {
		return "", errors.FileError(errors.CodeFileCorrupted, header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", errors.FileError(errors.CodeFileCorrupted, header.Filename, err)
	}

	if s.extractor.IsText(header.Filename) {
		return string(data), nil
	}
	return s.extractor.ExtractPDF(data, header.Filename)
}

func (s *Server) fail(c *fiber.Ctx, status int, err error) error {
	resp := ConvertResponse{Success: false, Error: err.Error(), Transactions: []*models.CanonicalTransaction{}}
	if importErr, ok := errors.AsImportError(err); ok {
		resp.Error = importErr.Message
		resp.Code = importErr.Code
		resp.Suggestion = importErr.Suggestion
	}

	s.logger.WithError(err).WithField("status", status).Warn("Conversion request failed")
	return c.Status(status).JSON(resp)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		status = fe.Code
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// statusFor maps error categories to HTTP status codes
func statusFor(err error) int {
	importErr, ok := errors.AsImportError(err)
	if !ok {
		return fiber.StatusInternalServerError
	}
	switch importErr.Category {
	case errors.CategoryValidation, errors.CategoryFile:
		return fiber.StatusBadRequest
	case errors.CategoryResolution, errors.CategoryExtraction:
		return fiber.StatusUnprocessableEntity
	case errors.CategoryNetwork:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
