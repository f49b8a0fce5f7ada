package command

// root.go defines the root command and the flags shared by every
// subcommand.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"afriotv/internal/app"
	"afriotv/internal/notify"
	"afriotv/pkg/client"

	"github.com/spf13/cobra"
)

var (
	apiURL  string        // API server URL
	timeout time.Duration // per-command deadline
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "afriotv",
	Short: "afriotv - AfriOTV command line client",
	Long: `afriotv talks to the AfriOTV API. Use it to:
- Browse and search the movie and series catalog
- Keep a watchlist
- Read and write reviews
- Ask for AI recommendations
- Manage your profile and avatar

Use "afriotv [command] --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

func init() {
	defaultAPI := os.Getenv("AFRIOTV_API")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPI, "API server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "deadline for each command")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log client activity to stderr")
}

func logger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newClient returns an API client restored from the keychain.
func newClient() *client.Client {
	return client.New(apiURL, client.WithTokenStore(client.NewKeyringStore()), client.WithLogger(logger()))
}

// openRoot builds the client-side services and waits for the session to
// settle.
func openRoot(cmd *cobra.Command) (*app.Root, context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	root := app.New(ctx, app.Options{
		BaseURL:     apiURL,
		Store:       client.NewKeyringStore(),
		Notifier:    notify.Func(printNotice),
		Diagnostics: os.Stderr,
		Logger:      logger(),
	})
	if _, err := root.Ready(ctx); err != nil {
		root.Close()
		cancel()
		return nil, nil, nil, fmt.Errorf("session did not load: %w", err)
	}
	return root, ctx, func() {
		root.Close()
		cancel()
	}, nil
}

// requireUID returns the signed-in user's id.
func requireUID(root *app.Root) (string, error) {
	uid := root.Sessions.Current().UID()
	if uid == "" {
		return "", fmt.Errorf("not logged in, please run 'afriotv auth login'")
	}
	return uid, nil
}
