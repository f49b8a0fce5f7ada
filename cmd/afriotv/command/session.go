package command

import (
	"fmt"

	"afriotv/internal/session"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect the current session",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show who is signed in",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()

		printSession(root.Sessions.Current())
		return nil
	},
}

var sessionRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-read your permissions from the server",
	Long: `Permissions are read when you sign in. Run this after an operator changed
your role to pick up the change without signing in again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, ctx, done, err := openRoot(cmd)
		if err != nil {
			return err
		}
		defer done()

		if err := root.Sessions.RefreshPermissions(ctx); err != nil {
			return fmt.Errorf("could not refresh permissions: %w", err)
		}
		successColor.Println("✓ Permissions refreshed.")
		printSession(root.Sessions.Current())
		return nil
	},
}

func printSession(s session.Session) {
	if s.State != session.StateAuthenticated {
		fmt.Println("Not signed in.")
		return
	}
	role := "user"
	if s.Claims.Admin {
		role = "admin"
	}
	fmt.Println(renderTable(
		[]string{"Field", "Value"},
		[][]string{
			{"User ID", s.UID()},
			{"Email", s.Identity.Email},
			{"Name", s.DisplayName()},
			{"Photo", s.PhotoURL()},
			{"Role", role},
		},
		nil,
	))
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd, sessionRefreshCmd)
}
