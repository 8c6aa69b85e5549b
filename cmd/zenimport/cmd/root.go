package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-statement-importer/cmd/zenimport/config"
	"golang-statement-importer/internal/ledger"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

// dotEnvFile is read from the working directory at startup when present
const dotEnvFile = ".env"

var (
	cfgFile  string
	settings *config.Settings
	initErr  error
	version  = "dev"
	commit   = "unknown"
	date     = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zenimport",
	Short: "Bank statement importer for ZenMoney",
	Long: `Zenimport reads a bank statement (PDF or extracted text), turns every
transaction block into a ZenMoney transaction and submits the batch to the
ZenMoney diff API after a preview.

The API token is read from --token, the ZEN_TOKEN environment variable or a
.env file in the working directory containing ZEN_TOKEN=<token>.

Examples:
  zenimport accounts
  zenimport import statement.pdf --account "Яндекс Банк" --dry-run
  zenimport import statement.txt --account "Яндекс Банк" --yes
  zenimport delete --account "Яндекс Банк" --start-date 2025-07-01 --end-date 2025-07-31
  zenimport serve --listen :8080`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, cancelled on interrupt by main.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (optional)")
	flags.BoolP(config.KeyVerbose, "v", false, "verbose output")
	flags.String(config.KeyToken, "", "ZenMoney API token (default: $ZEN_TOKEN)")
	flags.String(config.KeyLogFormat, "text", "log format: text, json")
	flags.String(config.KeyLogLevel, "warn", "log level: debug, info, warn, error")

	for _, key := range []string{config.KeyVerbose, config.KeyToken, config.KeyLogFormat, config.KeyLogLevel} {
		viper.BindPFlag(key, flags.Lookup(key))
	}
}

// initConfig reads the .env file, the config file and ENV variables.
func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)

	if err := config.LoadDotEnv(v, dotEnvFile); err != nil {
		initErr = errors.ConfigurationError(errors.CodeInvalidConfig, "env_file", dotEnvFile, err).
			WithSuggestion("use KEY=value lines in .env, for example ZEN_TOKEN=<token>")
		return
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			initErr = errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
				WithSuggestion("check that the --config file exists and is valid YAML, JSON or TOML")
		}
	}
}

// loadSettings resolves the settings and installs the global logger before any command runs
func loadSettings(cmd *cobra.Command, args []string) error {
	if initErr != nil {
		return initErr
	}

	s, err := config.Load(viper.GetViper())
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, config.KeyAmountScale,
			viper.GetString(config.KeyAmountScale), err)
	}
	if err := config.ValidateConfig(s); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "settings", nil, err).
			WithSuggestion("check --log-level, --log-format, amount-scale and listen values")
	}

	log, err := logger.NewLogger(config.CreateLoggerConfig(s))
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "logger", nil, err)
	}
	logger.SetGlobalLogger(log)

	if used := viper.ConfigFileUsed(); used != "" {
		log.WithField("file", used).Debug("Using config file")
	}

	settings = s
	return nil
}

// newLedgerClient builds the ledger client from the loaded settings
func newLedgerClient() (*ledger.Client, error) {
	client, err := ledger.NewClient(config.CreateLedgerConfig(settings))
	if err != nil {
		if errors.HasCode(err, errors.CodeMissingConfig) {
			importErr, _ := errors.AsImportError(err)
			return nil, importErr.WithSuggestion("pass --token, set ZEN_TOKEN or add ZEN_TOKEN=<token> to .env")
		}
		return nil, err
	}
	return client, nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
