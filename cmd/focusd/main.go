package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/focus-ledger/internal/application"
	"github.com/example/focus-ledger/internal/config"
	"github.com/example/focus-ledger/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	envFile      string
	databasePath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "focusd",
		Short:         "Focus timer ledger and dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	root.PersistentFlags().StringVar(&opts.databasePath, "db", "", "SQLite database path (overrides FOCUS_DATABASE_PATH)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newUsersCmd(opts))
	root.AddCommand(newLoginCodeCmd(opts))
	root.AddCommand(newStreakCmd(opts))
	return root
}

// load reads the configuration and wires the application for one command.
func (o *rootOptions) load(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadFrom(o.envFile)
	if err != nil {
		return nil, err
	}
	if o.databasePath != "" {
		cfg.DatabasePath = o.databasePath
	}
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel).With("command", cmd.Name())
	return newApp(cmd.Context(), cfg, logger)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)
			return serve(cmd.Context(), a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	a.logger.Info("focus ledger API listening", "addr", server.Addr, "database", a.cfg.DatabasePath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and print the schema status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			status, err := a.storage.MigrationStatus(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "schema version %s\n", status.CurrentVersion)
			for _, applied := range status.Applied {
				_, _ = fmt.Fprintf(out, "applied\t%s\t%s\n", applied.Version, applied.AppliedAt.UTC().Format(time.RFC3339))
			}
			_, _ = fmt.Fprintf(out, "pending\t%d\n", len(status.Pending))
			return nil
		},
	}
}

func newUsersCmd(opts *rootOptions) *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Manage user accounts"}

	var input application.IdentityInput
	upsert := &cobra.Command{
		Use:   "upsert",
		Short: "Create or refresh a user from identity provider fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			user, created, err := a.users.UpsertIdentity(cmd.Context(), input)
			if err != nil {
				return describe(err)
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s <%s>\n", verb, user.ID, user.Email)
			return nil
		},
	}
	upsert.Flags().StringVar(&input.ProviderID, "provider-id", "", "stable identity provider subject")
	upsert.Flags().StringVar(&input.Email, "email", "", "email address")
	upsert.Flags().StringVar(&input.Name, "name", "", "display name")
	upsert.Flags().StringVar(&input.PhotoURL, "photo", "", "avatar URL")
	_ = upsert.MarkFlagRequired("provider-id")
	_ = upsert.MarkFlagRequired("email")

	users.AddCommand(upsert)
	return users
}

func newLoginCodeCmd(opts *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login-code",
		Short: "Print a one-time code for POST /auth/exchange",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			user, err := a.users.FindByEmail(cmd.Context(), email)
			if err != nil {
				return describe(err)
			}
			code, record, err := a.auth.IssueLoginCode(cmd.Context(), user.ID)
			if err != nil {
				return describe(err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), code)
			a.logger.Info("login code issued", "user_id", user.ID, "expires_at", record.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newStreakCmd(opts *rootOptions) *cobra.Command {
	streak := &cobra.Command{Use: "streak", Short: "Streak maintenance"}

	var email string
	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute a user's streak from the daily aggregates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			user, err := a.users.FindByEmail(cmd.Context(), email)
			if err != nil {
				return describe(err)
			}
			state, err := a.streaks.Rebuild(cmd.Context(), user.ID)
			if err != nil {
				return describe(err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "current %d longest %d last %s\n", state.Current, state.Longest, state.LastDay)
			return nil
		},
	}
	rebuild.Flags().StringVar(&email, "email", "", "email of the user")
	_ = rebuild.MarkFlagRequired("email")

	streak.AddCommand(rebuild)
	return streak
}

// describe flattens validation errors into a readable message.
func describe(err error) error {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		parts := make([]string, 0, len(vErr.FieldErrors))
		for _, field := range slices.Sorted(maps.Keys(vErr.FieldErrors)) {
			parts = append(parts, field+": "+vErr.FieldErrors[field])
		}
		return errors.New("invalid input: " + strings.Join(parts, "; "))
	}
	if errors.Is(err, application.ErrNotFound) {
		return fmt.Errorf("not found: %w", err)
	}
	return err
}

func closeApp(a *app) {
	if err := a.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}
