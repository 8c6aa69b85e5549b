package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-statement-importer/cmd/zenimport/config"
	"golang-statement-importer/internal/api"
	"golang-statement-importer/internal/converter"
	"golang-statement-importer/internal/extractor"
	"golang-statement-importer/pkg/errors"
	"golang-statement-importer/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP preview API",
	Long: `Serve starts an HTTP server that converts uploaded statements and returns
the transactions an import would submit. Nothing is sent to ZenMoney.

Endpoints:
  GET  /api/health
  POST /api/convert   form fields: account, text or file

Examples:
  zenimport serve --listen :8080`,

	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String(config.KeyListen, ":8080", "address to listen on")
	viper.BindPFlag(config.KeyListen, serveCmd.Flags().Lookup(config.KeyListen))
}

func runServe(cmd *cobra.Command, args []string) error {
	conv, err := converter.New(config.CreateConverterConfig(settings))
	if err != nil {
		return err
	}
	ext, err := extractor.New(nil)
	if err != nil {
		return err
	}
	client, err := newLedgerClient()
	if err != nil {
		return err
	}

	server, err := api.NewServer(config.CreateAPIConfig(settings), conv, client, ext)
	if err != nil {
		return err
	}
	return serve(cmd.Context(), server)
}

// serve runs server until ctx is cancelled or the listener fails
func serve(ctx context.Context, server *api.Server) error {
	log := logger.GetGlobalLogger().WithComponent("cli")

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- server.Listen()
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, config.KeyListen, settings.Listen, err).
				WithSuggestion("choose a free address with --listen")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down preview API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "server shutdown", err)
	}
	return nil
}
