// ABOUTME: Session commands: login, signup, logout, whoami and status
// ABOUTME: Login and signup are public routes, everything else runs behind the guard

package main

import (
	"bufio"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/2389/agentdesk/internal/api"
	"github.com/2389/agentdesk/internal/console"
)

var (
	loginEmail    string
	loginPassword string
	signupName    string
	logoutForget  bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session",
	Long: `Authenticate with email and password. Missing values are prompted for;
the password may also come from AGENTDESK_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Long: `Ask the backend to drop the refresh cookie, then clear the local session.
With --forget the backend is not contacted and every stored cookie is removed.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withView(cmd.Context(), "whoami", func(c *console.Console) error {
			return showWhoami(cmd.Context(), c)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local session state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := console.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Session.Hydrate(cmd.Context()); err != nil {
			return err
		}
		showStatus(c)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when empty)")

	signupCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	signupCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when empty)")
	signupCmd.Flags().StringVar(&signupName, "name", "", "display name")

	logoutCmd.Flags().BoolVar(&logoutForget, "forget", false, "clear local state without contacting the backend")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd, statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	creds, err := promptCredentials(bufio.NewReader(os.Stdin), cmd.OutOrStdout(), loginEmail, loginPassword)
	if err != nil {
		return err
	}

	c, err := openConsole(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	return doLogin(cmd, c, creds)
}

func doLogin(cmd *cobra.Command, c *console.Console, creds api.Credentials) error {
	user, err := c.Session.Login(cmd.Context(), creds)
	if err != nil {
		return err
	}
	printer.Success("Logged in as %s", displayName(user))
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	creds, err := promptCredentials(bufio.NewReader(os.Stdin), cmd.OutOrStdout(), loginEmail, loginPassword)
	if err != nil {
		return err
	}

	c, err := openConsole(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	user, err := c.API.Auth.Signup(ctx, api.SignupRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Name:     signupName,
	})
	if err != nil {
		return err
	}
	printer.Success("Account created for %s", user.Email)
	return doLogin(cmd, c, creds)
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := console.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if logoutForget {
		if err := c.Forget(ctx); err != nil {
			return err
		}
		printer.Success("Local session and cookies removed")
		return nil
	}

	if err := c.Session.Hydrate(ctx); err != nil {
		return err
	}
	if err := c.Session.Logout(ctx); err != nil {
		return err
	}
	printer.Success("Logged out")
	return nil
}

func displayName(u *api.User) string {
	if u == nil {
		return "unknown user"
	}
	if u.Name != "" {
		return u.Name + " <" + u.Email + ">"
	}
	return u.Email
}

// expiryText renders a token expiry relative to now
func expiryText(st console.Status) string {
	if st.TokenExpiry.IsZero() {
		return "unknown"
	}
	return humanize.Time(st.TokenExpiry)
}
