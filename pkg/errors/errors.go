package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryExtraction    ErrorCategory = "extraction"
	CategorySegmentation  ErrorCategory = "segmentation"
	CategoryValidation    ErrorCategory = "validation"
	CategoryNormalization ErrorCategory = "normalization"
	CategoryResolution    ErrorCategory = "resolution"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryNetwork       ErrorCategory = "network"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Extraction errors
	CodeUnreadableDocument ErrorCode = "unreadable_document"
	CodeEmptyDocument      ErrorCode = "empty_document"

	// Segmentation skips
	CodeMissingProcessingDate ErrorCode = "missing_processing_date"
	CodeMissingAmounts        ErrorCode = "missing_amounts"

	// Validation skips
	CodeDescriptionTooShort ErrorCode = "description_too_short"
	CodeHeaderArtifact      ErrorCode = "header_artifact"
	CodeMissingField        ErrorCode = "missing_field"

	// Normalization errors
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeZeroAmount    ErrorCode = "zero_amount"

	// Resolution errors
	CodeAccountNotFound  ErrorCode = "account_not_found"
	CodeCurrencyNotFound ErrorCode = "currency_not_found"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Network errors
	CodeConnectionFailed ErrorCode = "connection_failed"
	CodeUnexpectedStatus ErrorCode = "unexpected_status"
	CodeInvalidResponse  ErrorCode = "invalid_response"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ImportError is the base error type for all application errors
type ImportError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ImportError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ImportError) Unwrap() error {
	return e.Cause
}

// IsSkip reports whether the error describes a dropped record rather than a failed batch.
func (e *ImportError) IsSkip() bool {
	switch e.Category {
	case CategorySegmentation, CategoryValidation, CategoryNormalization:
		return true
	default:
		return false
	}
}

// GetExitCode returns an appropriate exit code for the error
func (e *ImportError) GetExitCode() int {
	switch e.Category {
	case CategoryFile, CategoryExtraction:
		return 2
	case CategorySegmentation, CategoryValidation, CategoryNormalization:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryResolution:
		return 5
	case CategoryNetwork:
		return 6
	case CategoryInternal:
		return 7
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ImportError) WithContext(key string, value interface{}) *ImportError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ImportError) WithSuggestion(suggestion string) *ImportError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ImportError
func New(category ErrorCategory, code ErrorCode, message string) *ImportError {
	return &ImportError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ImportError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ImportError {
	if err == nil {
		return nil
	}

	return &ImportError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(err error, category ErrorCategory, code ErrorCode, message string) *ImportError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "re-download the statement from the bank and try again"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return build(err, CategoryFile, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ExtractionError creates an error for documents whose text could not be recovered
func ExtractionError(code ErrorCode, path string, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeUnreadableDocument:
		message = fmt.Sprintf("could not extract text from %s", path)
		suggestion = "the document may be scanned; export the statement as text and use --text"
	case CodeEmptyDocument:
		message = fmt.Sprintf("no text found in %s", path)
		suggestion = "make sure the file is the original statement issued by the bank"
	default:
		message = fmt.Sprintf("extraction error: %s", path)
		suggestion = "check the document and try again"
	}

	return build(err, CategoryExtraction, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// SegmentationError describes a candidate segment dropped because a required field is missing
func SegmentationError(code ErrorCode, segment int, anchor string) *ImportError {
	var message string

	switch code {
	case CodeMissingProcessingDate:
		message = fmt.Sprintf("segment %d (%s) has no processing date", segment, anchor)
	case CodeMissingAmounts:
		message = fmt.Sprintf("segment %d (%s) has fewer than two amounts", segment, anchor)
	default:
		message = fmt.Sprintf("segment %d (%s) could not be segmented", segment, anchor)
	}

	return New(CategorySegmentation, code, message).
		WithContext("segment", segment).
		WithContext("anchor", anchor)
}

// ValidationError describes a segment or field rejected by structural validation
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeDescriptionTooShort:
		message = fmt.Sprintf("description in field '%s' is too short: %v", field, value)
	case CodeHeaderArtifact:
		message = fmt.Sprintf("field '%s' looks like a table heading: %v", field, value)
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
	}

	result := build(err, CategoryValidation, code, message).
		WithContext("field", field).
		WithContext("value", value)
	if suggestion != "" {
		result.WithSuggestion(suggestion)
	}
	return result
}

// NormalizationError creates an error for a raw date or amount that cannot be normalized
func NormalizationError(code ErrorCode, raw string, err error) *ImportError {
	var message string

	switch code {
	case CodeInvalidDate:
		message = fmt.Sprintf("cannot parse date %q", raw)
	case CodeInvalidAmount:
		message = fmt.Sprintf("cannot parse amount %q", raw)
	case CodeZeroAmount:
		message = fmt.Sprintf("amount %q is zero", raw)
	default:
		message = fmt.Sprintf("cannot normalize %q", raw)
	}

	return build(err, CategoryNormalization, code, message).
		WithContext("raw", raw)
}

// ResolutionError creates an error for an account or currency missing from the ledger
func ResolutionError(code ErrorCode, title string) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeAccountNotFound:
		message = fmt.Sprintf("account %q not found", title)
		suggestion = "run 'zenimport accounts' to see the exact account titles"
	case CodeCurrencyNotFound:
		message = fmt.Sprintf("currency %q not found", title)
		suggestion = "check the currency-code and currency-title settings"
	default:
		message = fmt.Sprintf("cannot resolve %q", title)
		suggestion = "check the ledger data and try again"
	}

	return New(CategoryResolution, code, message).
		WithSuggestion(suggestion).
		WithContext("title", title)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this setting as a flag, a ZEN_ environment variable or in .env"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return build(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// NetworkError creates a network-related error
func NetworkError(code ErrorCode, endpoint string, err error) *ImportError {
	var message string
	var suggestion string

	switch code {
	case CodeConnectionFailed:
		message = fmt.Sprintf("connection failed to %s", endpoint)
		suggestion = "check network connectivity and endpoint availability"
	case CodeUnexpectedStatus:
		message = fmt.Sprintf("unexpected response from %s", endpoint)
		suggestion = "check that the token is valid and not expired"
	case CodeInvalidResponse:
		message = fmt.Sprintf("malformed response from %s", endpoint)
		suggestion = "the ledger API may have changed; try again later"
	default:
		message = fmt.Sprintf("network error: %s", endpoint)
		suggestion = "check network connection and try again"
	}

	return build(err, CategoryNetwork, code, message).
		WithSuggestion(suggestion).
		WithContext("endpoint", endpoint)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ImportError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	return build(err, CategoryInternal, code, message).
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*ImportError        `json:"-"`
	SampleErrors []*ImportError        `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*ImportError) *ErrorSummary {
	summary := &ErrorSummary{
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     []*ImportError{},
	}
	for _, err := range errs {
		summary.Add(err)
	}
	return summary
}

// Add records one more error in the summary
func (es *ErrorSummary) Add(err *ImportError) {
	if err == nil {
		return
	}
	es.Total++
	es.ByCategory[err.Category]++
	es.ByCode[err.Code]++
	es.Errors = append(es.Errors, err)

	// Include sample errors (max 5)
	if len(es.SampleErrors) < 5 {
		es.SampleErrors = append(es.SampleErrors, err)
	}
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}
	sort.Strings(categories)

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.ByCategory[category] > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// IsImportError checks if an error is an ImportError
func IsImportError(err error) bool {
	_, ok := AsImportError(err)
	return ok
}

// AsImportError extracts an ImportError from an error chain
func AsImportError(err error) (*ImportError, bool) {
	var importErr *ImportError
	if errors.As(err, &importErr) {
		return importErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an ImportError with the given code
func HasCode(err error, code ErrorCode) bool {
	importErr, ok := AsImportError(err)
	return ok && importErr.Code == code
}

// WrapIfNeeded wraps an error if it's not already an ImportError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ImportError {
	if err == nil {
		return nil
	}

	if importErr, ok := AsImportError(err); ok {
		return importErr
	}

	return Wrap(err, category, code, message)
}
