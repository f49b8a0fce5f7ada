package command

// auth.go handles sign-up, sign-in and sign-out. Credentials are kept in
// the OS keychain between runs.

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"afriotv/pkg/client"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the AfriOTV API. Supports registration, email and social sign-in, and logout.`,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an AfriOTV account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		name, _ := cmd.Flags().GetString("name")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		u, err := newClient().SignUp(ctx, email, password, name)
		if err != nil {
			printNotice(client.LoginFailed(err))
			return fmt.Errorf("registration failed: %w", err)
		}

		successColor.Println("✓ Account created, you are signed in.")
		fmt.Printf("User ID: %s\n", u.ID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		u, err := newClient().SignIn(ctx, email, password)
		if err != nil {
			printNotice(client.LoginFailed(err))
			return fmt.Errorf("login failed: %w", err)
		}

		name := u.DisplayName
		if name == "" {
			name = u.Email
		}
		successColor.Printf("✓ Welcome back, %s!\n", name)
		return nil
	},
}

var oauthCmd = &cobra.Command{
	Use:   "oauth",
	Short: "Sign in with your social account",
	Long: `Prints the sign-in URL of the configured identity provider. Open it in a
browser, finish signing in, then paste the address you were sent back to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient()
		loginURL, state, err := c.OAuthLoginURL(ctx)
		if err != nil {
			return fmt.Errorf("could not start social sign-in: %w", err)
		}

		titleColor.Println("Open this URL in your browser:")
		fmt.Println(loginURL)
		fmt.Print("\nPaste the callback URL: ")

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			printNotice(client.LoginFailed(context.Canceled))
			return fmt.Errorf("no callback URL given")
		}
		cb, err := url.Parse(strings.TrimSpace(line))
		if err != nil {
			return fmt.Errorf("invalid callback URL: %w", err)
		}
		q := cb.Query()
		if e := q.Get("error"); e != "" {
			n := client.LoginFailed(&client.APIError{Status: 401, Message: e})
			printNotice(n)
			return fmt.Errorf("social sign-in failed")
		}
		if q.Get("state") != state {
			return fmt.Errorf("callback does not belong to this sign-in")
		}

		// the first deadline may have passed while the browser was open
		cctx, ccancel := context.WithTimeout(cmd.Context(), timeout)
		defer ccancel()
		u, err := c.CompleteOAuth(cctx, state, q.Get("code"))
		if err != nil {
			printNotice(client.LoginFailed(err))
			return fmt.Errorf("social sign-in failed: %w", err)
		}
		successColor.Printf("✓ Signed in as %s\n", u.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		if err := newClient().SignOut(ctx); err != nil {
			dimColor.Fprintln(os.Stderr, "server did not confirm sign-out:", err)
		}
		successColor.Println("✓ Successfully logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(registerCmd, loginCmd, oauthCmd, logoutCmd)

	registerCmd.Flags().StringP("email", "e", "", "Email address for the new account")
	registerCmd.Flags().StringP("password", "p", "", "Password, at least 6 characters")
	registerCmd.Flags().StringP("name", "n", "", "Display name")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().StringP("email", "e", "", "Email address of the account")
	loginCmd.Flags().StringP("password", "p", "", "Password of the account")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")
}
