package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/natserract/pipedrive/pkg/pipedrive"
	"github.com/natserract/pipedrive/pkg/tokenstore/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App carries the logger and the lazily built API client shared by all
// commands.
type App struct {
	logger *zap.Logger
	client pipedrive.PipedriveClient
	db     *postgres.DB
	debug  bool
}

// NewApp returns an App that builds its client from the environment on
// first use.
func NewApp() *App {
	return &App{}
}

// NewAppWithClient returns an App bound to an existing client.
func NewAppWithClient(client pipedrive.PipedriveClient, logger *zap.Logger) *App {
	return &App{client: client, logger: logger}
}

// NewRootCommand builds the pipedrive command tree.
func NewRootCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipedrive",
		Short: "Pipedrive CRM API CLI",
		Long: `A command-line interface for the Pipedrive CRM REST API.

Credentials are read from PIPEDRIVE_* environment variables or a .env file.
When DB_HOST is set, refreshed tokens are stored in Postgres and loaded on
start-up.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initLogger()
		},
	}

	cmd.PersistentFlags().BoolVar(&app.debug, "debug", false, "development logging and response body dumps")

	cmd.AddCommand(NewVersionCommand())
	cmd.AddCommand(NewEntityNameCommand())
	cmd.AddCommand(NewCallLogsCommand(app))
	cmd.AddCommand(NewWebhooksCommand(app))
	cmd.AddCommand(NewTokenCommand(app))

	return cmd
}

// NewVersionCommand prints the client version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pipedrive-go %s\n", pipedrive.Version)
		},
	}
}

func (a *App) initLogger() error {
	if a.logger != nil {
		return nil
	}

	var (
		logger *zap.Logger
		err    error
	)
	if a.debug || os.Getenv("PIPEDRIVE_DEBUG") == "true" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// Client returns the API client, building it from the environment on the
// first call.
func (a *App) Client(ctx context.Context) (pipedrive.PipedriveClient, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.initLogger(); err != nil {
		return nil, err
	}

	cfg, err := pipedrive.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if a.debug {
		cfg.ClientOptions.Debug = true
	}

	if os.Getenv("DB_HOST") != "" {
		if err := a.attachTokenStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	a.client = pipedrive.NewWithLogger(*cfg, a.logger)
	return a.client, nil
}

// attachTokenStore swaps in the stored token pair and persists every
// refresh from now on.
func (a *App) attachTokenStore(ctx context.Context, cfg *pipedrive.Config) error {
	db, err := postgres.New(ctx, postgres.NewConfig(), a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to token store: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return err
	}
	a.db = db

	store := postgres.NewStore(db, a.logger)
	token, err := store.Load(ctx, cfg.ClientID)
	switch {
	case errors.Is(err, postgres.ErrTokenNotFound):
		a.logger.Info("No stored tokens, using environment", zap.String("client_id", cfg.ClientID))
	case err != nil:
		return err
	default:
		cfg.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			cfg.RefreshToken = token.RefreshToken
		}
		a.logger.Info("Loaded stored tokens",
			zap.String("client_id", cfg.ClientID),
			zap.Time("updated_at", token.UpdatedAt))
	}

	cfg.AuthenticationCallback = store.Callback(cfg.ClientID)
	return nil
}

// Close releases the database pool and flushes the logger.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// printEnvelope writes env as indented JSON and turns a failure envelope
// into the command error.
func printEnvelope(w io.Writer, env pipedrive.Envelope) error {
	if err := printJSON(w, env); err != nil {
		return err
	}
	return env.Err()
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
