package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"golang-statement-importer/internal/ledger"
	"golang-statement-importer/internal/models"
	"golang-statement-importer/pkg/errors"
)

type deleteOptions struct {
	Account   string
	StartDate string
	EndDate   string
	All       bool
	Yes       bool
}

var deleteOpts deleteOptions

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete transactions from ZenMoney",
	Long: `Delete marks ZenMoney transactions as deleted. At least one filter or
--all is required. Dates are inclusive and use YYYY-MM-DD.

Examples:
  # Everything imported into one account
  zenimport delete --account "Яндекс Банк"

  # One month across all accounts, no prompt
  zenimport delete --start-date 2025-07-01 --end-date 2025-07-31 --yes

  # Everything
  zenimport delete --all`,

	Args:    cobra.NoArgs,
	PreRunE: validateDeleteFlags,
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVarP(&deleteOpts.Account, "account", "a", "", "delete only transactions of this account")
	deleteCmd.Flags().StringVar(&deleteOpts.StartDate, "start-date", "", "first date to delete (YYYY-MM-DD)")
	deleteCmd.Flags().StringVar(&deleteOpts.EndDate, "end-date", "", "last date to delete (YYYY-MM-DD)")
	deleteCmd.Flags().BoolVar(&deleteOpts.All, "all", false, "delete ALL transactions")
	deleteCmd.Flags().BoolVarP(&deleteOpts.Yes, "yes", "y", false, "delete without asking for confirmation")
}

func validateDeleteFlags(cmd *cobra.Command, args []string) error {
	return deleteOpts.Validate()
}

// Filter converts the options into a ledger delete filter
func (o deleteOptions) Filter() ledger.DeleteFilter {
	return ledger.DeleteFilter{
		Account:   o.Account,
		StartDate: o.StartDate,
		EndDate:   o.EndDate,
		All:       o.All,
	}
}

// Validate checks that a filter is given and the dates are well formed
func (o deleteOptions) Validate() error {
	if o.Filter().IsEmpty() {
		return errors.ValidationError(errors.CodeMissingField, "filter", "", nil).
			WithSuggestion("use --account, --start-date/--end-date or --all")
	}

	var start, end time.Time
	var err error
	if o.StartDate != "" {
		if start, err = time.Parse(models.ISODateLayout, o.StartDate); err != nil {
			return errors.ValidationError(errors.CodeInvalidDate, "start-date", o.StartDate, err).
				WithSuggestion("use YYYY-MM-DD")
		}
	}
	if o.EndDate != "" {
		if end, err = time.Parse(models.ISODateLayout, o.EndDate); err != nil {
			return errors.ValidationError(errors.CodeInvalidDate, "end-date", o.EndDate, err).
				WithSuggestion("use YYYY-MM-DD")
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return errors.ValidationError(errors.CodeInvalidDate, "start-date", o.StartDate, nil).
			WithSuggestion("start date cannot be after end date")
	}

	return nil
}

// describe says what the options will delete
func (o deleteOptions) describe() string {
	switch {
	case o.All && o.Account == "" && o.StartDate == "" && o.EndDate == "":
		return "ALL transactions"
	case o.Account != "" && (o.StartDate != "" || o.EndDate != ""):
		return fmt.Sprintf("transactions of account '%s' from %s to %s", o.Account, orEllipsis(o.StartDate), orEllipsis(o.EndDate))
	case o.Account != "":
		return fmt.Sprintf("transactions of account '%s'", o.Account)
	default:
		return fmt.Sprintf("transactions from %s to %s", orEllipsis(o.StartDate), orEllipsis(o.EndDate))
	}
}

func orEllipsis(s string) string {
	if s == "" {
		return "..."
	}
	return s
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := newLedgerClient()
	if err != nil {
		return err
	}
	return deleteTransactions(cmd.Context(), client, deleteOpts, cmd.InOrStdin(), cmd.OutOrStdout())
}

func deleteTransactions(ctx context.Context, client *ledger.Client, opts deleteOptions, in io.Reader, out io.Writer) error {
	target := opts.describe()

	if !opts.Yes {
		ok, err := confirm(in, out, fmt.Sprintf("Delete %s?", target))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled")
			return nil
		}
	}

	fmt.Fprintf(out, "Deleting %s...\n", target)
	count, err := client.Delete(ctx, opts.Filter())
	if err != nil {
		return err
	}

	if count == 0 {
		fmt.Fprintln(out, "Nothing to delete")
		return nil
	}
	fmt.Fprintf(out, "Deleted %d transactions\n", count)
	return nil
}
