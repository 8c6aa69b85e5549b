package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"golang-statement-importer/internal/api"
	"golang-statement-importer/internal/converter"
	"golang-statement-importer/internal/ledger"
	"golang-statement-importer/internal/reporter"
	"golang-statement-importer/pkg/logger"
)

// EnvPrefix is prepended to every key read from the environment (ZEN_TOKEN feeds "token")
const EnvPrefix = "ZEN"

// Configuration keys
const (
	KeyToken         = "token"
	KeyAPIURL        = "api-url"
	KeyTimeout       = "timeout"
	KeyCurrencyCode  = "currency-code"
	KeyCurrencyTitle = "currency-title"
	KeyAmountScale   = "amount-scale"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyVerbose       = "verbose"
	KeyListen        = "listen"
)

// Settings is the resolved CLI configuration
type Settings struct {
	Token         string
	APIURL        string
	Timeout       time.Duration
	CurrencyCode  string
	CurrencyTitle string
	AmountScale   decimal.Decimal
	LogLevel      string
	LogFormat     string
	Verbose       bool
	Listen        string
}

// SetDefaults registers defaults and environment binding on v
func SetDefaults(v *viper.Viper) {
	ledgerDefaults := ledger.DefaultConfig()
	apiDefaults := api.DefaultConfig()
	logDefaults := logger.DefaultConfig()

	v.SetDefault(KeyAPIURL, ledgerDefaults.APIURL)
	v.SetDefault(KeyTimeout, ledgerDefaults.Timeout)
	v.SetDefault(KeyCurrencyCode, ledgerDefaults.Currency.Code)
	v.SetDefault(KeyCurrencyTitle, ledgerDefaults.Currency.Title)
	v.SetDefault(KeyAmountScale, "1")
	v.SetDefault(KeyLogLevel, string(logDefaults.Level))
	v.SetDefault(KeyLogFormat, string(logDefaults.Format))
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyListen, apiDefaults.Listen)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv reads ZEN_* assignments from a dotenv file. Values from the
// file sit below real environment variables and flags. A missing file is
// not an error.
func LoadDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("env")
	if err := file.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	prefix := strings.ToLower(EnvPrefix) + "_"
	for _, key := range file.AllKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.ReplaceAll(strings.TrimPrefix(key, prefix), "_", "-")
		v.SetDefault(name, file.Get(key))
	}
	return nil
}

// Load reads the settings from v
func Load(v *viper.Viper) (*Settings, error) {
	scale, err := decimal.NewFromString(strings.TrimSpace(v.GetString(KeyAmountScale)))
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", KeyAmountScale, v.GetString(KeyAmountScale), err)
	}

	return &Settings{
		Token:         strings.TrimSpace(v.GetString(KeyToken)),
		APIURL:        v.GetString(KeyAPIURL),
		Timeout:       v.GetDuration(KeyTimeout),
		CurrencyCode:  v.GetString(KeyCurrencyCode),
		CurrencyTitle: v.GetString(KeyCurrencyTitle),
		AmountScale:   scale,
		LogLevel:      strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:     strings.ToLower(v.GetString(KeyLogFormat)),
		Verbose:       v.GetBool(KeyVerbose),
		Listen:        v.GetString(KeyListen),
	}, nil
}

// CreateLoggerConfig builds the logger configuration. Verbose wins over log-level.
func CreateLoggerConfig(s *Settings) *logger.Config {
	config := logger.DefaultConfig()
	if s.Verbose {
		config = logger.DebugConfig()
	} else if s.LogLevel != "" {
		config.Level = logger.Level(s.LogLevel)
	}
	if s.LogFormat != "" {
		config.Format = logger.Format(s.LogFormat)
	}
	return config
}

// CreateConverterConfig builds the converter configuration with the configured amount scale
func CreateConverterConfig(s *Settings) *converter.Config {
	config := converter.DefaultConfig()
	config.Normalizer.AmountScale = s.AmountScale
	return config
}

// CreateLedgerConfig builds the ledger client configuration
func CreateLedgerConfig(s *Settings) *ledger.Config {
	config := ledger.DefaultConfig()
	config.APIURL = s.APIURL
	config.Token = s.Token
	config.Timeout = s.Timeout
	config.Currency = ledger.Currency{Code: s.CurrencyCode, Title: s.CurrencyTitle}
	return config
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string, s *Settings) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = reporter.OutputFormat(format)
	config.AmountScale = s.AmountScale

	switch config.Format {
	case reporter.FormatConsole:
		config.IncludeSkipped = s.Verbose
	case reporter.FormatJSON:
		config.IncludeSkipped = true
	case reporter.FormatCSV:
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	}

	return config
}

// CreateAPIConfig builds the HTTP server configuration
func CreateAPIConfig(s *Settings) *api.Config {
	config := api.DefaultConfig()
	if s.Listen != "" {
		config.Listen = s.Listen
	}
	return config
}

// ValidateConfig validates that all derived configurations are valid. The
// ledger configuration is left to ledger.NewClient, which reports a missing
// token as missing_config.
func ValidateConfig(s *Settings) error {
	if err := CreateLoggerConfig(s).Validate(); err != nil {
		return fmt.Errorf("invalid logger config: %w", err)
	}
	if err := CreateConverterConfig(s).Validate(); err != nil {
		return fmt.Errorf("invalid converter config: %w", err)
	}
	if err := CreateAPIConfig(s).Validate(); err != nil {
		return fmt.Errorf("invalid api config: %w", err)
	}
	return nil
}
