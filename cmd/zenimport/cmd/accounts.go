package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"golang-statement-importer/internal/ledger"
)

// accountsCmd represents the accounts command
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List ZenMoney accounts",
	Long: `Accounts lists the live ZenMoney accounts with their id and currency.
Use the exact title with 'zenimport import --account'.`,

	Args: cobra.NoArgs,
	RunE: runAccounts,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}

func runAccounts(cmd *cobra.Command, args []string) error {
	client, err := newLedgerClient()
	if err != nil {
		return err
	}
	return listAccounts(cmd.Context(), client, cmd.OutOrStdout())
}

func listAccounts(ctx context.Context, client *ledger.Client, out io.Writer) error {
	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		fmt.Fprintln(out, "No accounts found")
		return nil
	}

	fmt.Fprintf(out, "Accounts: %d\n\n", len(accounts))
	fmt.Fprintf(out, "%-30s %-40s %s\n", "TITLE", "ID", "CURRENCY")
	fmt.Fprintln(out, strings.Repeat("-", 80))
	for _, acc := range accounts {
		fmt.Fprintf(out, "%-30s %-40s %s\n", acc.Title, acc.ID, acc.Currency)
	}
	return nil
}
