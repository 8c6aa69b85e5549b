package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"golang-statement-importer/cmd/zenimport/config"
	"golang-statement-importer/internal/converter"
	"golang-statement-importer/internal/extractor"
	"golang-statement-importer/internal/reporter"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

type importOptions struct {
	Path       string
	Account    string
	DryRun     bool
	Yes        bool
	ForceText  bool
	Format     string
	OutputFile string
}

var importOpts importOptions

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <statement>",
	Short: "Import transactions from a bank statement",
	Long: `Import extracts the text of a bank statement, converts every transaction
block into a ZenMoney transaction bound to the given account, shows a preview
and submits the batch in one request after confirmation.

PDF statements are read with the built-in PDF text extractor. Files ending in
.txt are read as plain text; use --text for other plain text files.

Examples:
  # Preview only
  zenimport import statement.pdf --account "Яндекс Банк" --dry-run

  # Submit without the confirmation prompt
  zenimport import statement.pdf --account "Яндекс Банк" --yes

  # Machine readable preview
  zenimport import statement.txt --account "Карта" --dry-run --format json --output-file preview.json`,

	Args:    cobra.ExactArgs(1),
	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importOpts.Account, "account", "a", "", "ZenMoney account title (required)")
	importCmd.Flags().BoolVar(&importOpts.DryRun, "dry-run", false, "show the preview without submitting")
	importCmd.Flags().BoolVarP(&importOpts.Yes, "yes", "y", false, "submit without asking for confirmation")
	importCmd.Flags().BoolVar(&importOpts.ForceText, "text", false, "treat the statement as plain text")
	importCmd.Flags().StringVarP(&importOpts.Format, "format", "f", "console", "preview format: console, json, csv")
	importCmd.Flags().StringVarP(&importOpts.OutputFile, "output-file", "o", "", "write the preview to a file (default: stdout)")

	importCmd.MarkFlagRequired("account")
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	importOpts.Path = args[0]
	return importOpts.Validate()
}

// Validate checks the import options before any work is done
func (o importOptions) Validate() error {
	if strings.TrimSpace(o.Account) == "" {
		return errors.ValidationError(errors.CodeMissingField, "account", "", nil).
			WithSuggestion("pass --account with a title listed by 'zenimport accounts'")
	}

	if err := validateFileExists(o.Path, "statement"); err != nil {
		return err
	}

	if !reporter.OutputFormat(o.Format).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "format", o.Format, nil).
			WithSuggestion("valid formats: console, json, csv")
	}

	if o.OutputFile != "" {
		dir := filepath.Dir(o.OutputFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return errors.FileError(errors.CodeFileNotFound, dir, err).
				WithSuggestion("create the output directory first")
		}
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	return importStatement(cmd.Context(), importOpts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// importStatement runs extract, convert, preview, confirm and submit. The
// preview goes to out, progress and the prompt to status.
func importStatement(ctx context.Context, opts importOptions, in io.Reader, out, status io.Writer) error {
	log := logger.GetGlobalLogger().WithComponent("cli")

	ext, err := extractor.New(nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(status, "Reading statement: %s\n", opts.Path)
	text, err := ext.ExtractFile(opts.Path, opts.ForceText)
	if err != nil {
		return err
	}

	conv, err := converter.New(config.CreateConverterConfig(settings))
	if err != nil {
		return err
	}
	client, err := newLedgerClient()
	if err != nil {
		return err
	}

	fmt.Fprintf(status, "Converting transactions for account '%s'...\n", opts.Account)
	result, err := conv.Run(ctx, text, opts.Account, client)
	if err != nil {
		return err
	}
	fmt.Fprintln(status, result.Stats.String())

	if err := writePreview(opts, result, out, log); err != nil {
		return err
	}

	count := len(result.Transactions)
	if count == 0 {
		fmt.Fprintln(status, "No transactions found in the statement")
		return nil
	}

	if opts.DryRun {
		fmt.Fprintln(status, "Dry run: nothing was sent. Run without --dry-run to submit.")
		return nil
	}

	if !opts.Yes {
		ok, err := confirm(in, status, fmt.Sprintf("Submit %d transactions to ZenMoney?", count))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(status, "Cancelled")
			return nil
		}
	}

	var sent int
	err = logger.TimedOperation("submit", log, func() error {
		var submitErr error
		sent, submitErr = client.Submit(ctx, result.Transactions)
		return submitErr
	})
	if err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"account": opts.Account,
		"count":   sent,
	}).Info("Import completed")
	fmt.Fprintf(status, "Submitted %d transactions\n", sent)
	return nil
}

func writePreview(opts importOptions, result *converter.Result, out io.Writer, log logger.Logger) error {
	generator, err := reporter.NewSafeReportGenerator(config.CreateReportConfig(opts.Format, settings), log)
	if err != nil {
		return err
	}

	if opts.OutputFile == "" {
		return generator.GenerateReportSafely(result, out)
	}

	file, err := os.Create(opts.OutputFile)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, opts.OutputFile, err)
	}
	defer file.Close()

	return generator.GenerateReportSafely(result, file)
}
