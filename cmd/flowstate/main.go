package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flowstate/internal/bot"
	"flowstate/internal/httpapi"
	"flowstate/internal/render"
	"flowstate/internal/repository"
	"flowstate/internal/seed"
	"flowstate/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "flowstate",
		Short:         "Focus session ledger and statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "flowstate.yaml", "path to the YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newMigrateCmd(&configPath))
	root.AddCommand(newSeedCmd(&configPath))
	root.AddCommand(newUserCmd(&configPath))
	root.AddCommand(newDashboardCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the daily digest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(ctx, a, newTelegramBot)
		},
	}
}

// chatBot is the chat transport serve runs next to the HTTP API.
type chatBot interface {
	Start(ctx context.Context) error
	SendDailyReports(ctx context.Context) error
}

type botFactory func(a *app) (chatBot, error)

func newTelegramBot(a *app) (chatBot, error) {
	b, err := bot.New(a.cfg.TelegramToken, a.accounts, a.ledger, a.calc, a.reports)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// serve sets up the bot and the digest schedule before the HTTP listener opens, so a
// failed setup leaves nothing running.
func serve(ctx context.Context, a *app, makeBot botFactory) error {
	var chat chatBot
	if a.cfg.TelegramToken != "" {
		b, err := makeBot(a)
		if err != nil {
			return err
		}
		chat = b
	} else {
		slog.Info("telegram bot disabled")
	}

	if chat != nil && a.cfg.ReportTime != "" {
		scheduler := service.NewSchedulerService(time.UTC)
		if _, err := scheduler.ScheduleDaily("daily_digest", a.cfg.ReportTime, func(context.Context) error {
			jobCtx, cancel := withTimeout(time.Minute)
			defer cancel()
			return chat.SendDailyReports(jobCtx)
		}); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(a.accounts, a.ledger, a.dashboard)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 2)
	go func() {
		slog.Info("http server listening", "addr", a.cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	if chat != nil {
		go func() {
			if err := chat.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("bot: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := withTimeout(10 * time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	slog.Info("shutdown complete")
	return runErr
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := repository.Migrate(a.db); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo account with 60 days of sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := seed.New(a.accounts, a.ledger, nil).Run(cmd.Context(), a.clock.Now())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d sessions for %q (password %q)\n", res.Sessions, seed.DemoUsername, seed.DemoPassword)
			return nil
		},
	}
}

func newUserCmd(configPath *string) *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Account commands"}

	var username, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register an account; the password is read from FLOWSTATE_PASSWORD or the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			u, err := a.accounts.Register(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "account username")
	create.Flags().StringVar(&email, "email", "", "account email")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("email")

	user.AddCommand(create)
	return user
}

func readPassword(cmd *cobra.Command) (string, error) {
	if v := os.Getenv("FLOWSTATE_PASSWORD"); v != "" {
		return v, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("set FLOWSTATE_PASSWORD or run from a terminal")
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

func newDashboardCmd(configPath *string) *cobra.Command {
	var username string
	var categoryName string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the dashboard for an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.accounts.ByUsername(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("user %q: %w", username, err)
			}
			var categoryID *uint
			if categoryName != "" {
				c, err := a.ledger.CategoryByName(cmd.Context(), u.ID, categoryName)
				if err != nil {
					return fmt.Errorf("category %q: %w", categoryName, err)
				}
				categoryID = &c.ID
			}
			d, err := a.dashboard.Build(cmd.Context(), u.ID, categoryID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			_, _ = fmt.Fprintln(out, render.Dashboard(u.Username, d))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&categoryName, "category", "", "restrict to one category by name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
