package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/mailtrail/internal/credstore"
	"github.com/custodia-labs/mailtrail/outlook"
)

var loginCmd = &cobra.Command{
	Use:   "login [mailbox]",
	Short: "Store credentials for later commands",
	Long: `Authenticate against Exchange Online and store the credentials under
~/.mailtrail for later commands.

Three methods are supported:

  # Basic authentication (prompts for the password)
  mailtrail login audit@contoso.com

  # Static bearer token
  mailtrail login audit@contoso.com --token eyJ0eXAi...

  # App registration with client credentials
  mailtrail login audit@contoso.com --tenant <id> --client-id <id> --client-secret <secret>

The credentials are verified with a probe request before being saved.
Pass --no-verify to save them unchecked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored login",
	RunE:  runWhoami,
}

// Flags for login and whoami.
var (
	loginUsername     string
	loginPassword     string
	loginToken        string
	loginTenant       string
	loginClientID     string
	loginClientSecret string
	loginNoVerify     bool

	whoamiVerify bool
)

func init() {
	loginCmd.Flags().StringVar(&loginUsername, "username", "",
		"basic auth username (defaults to the mailbox)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "",
		"basic auth password (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginToken, "token", "",
		"static bearer token")
	loginCmd.Flags().StringVar(&loginTenant, "tenant", "",
		"directory tenant id for app authentication")
	loginCmd.Flags().StringVar(&loginClientID, "client-id", "",
		"app registration client id")
	loginCmd.Flags().StringVar(&loginClientSecret, "client-secret", "",
		"app registration client secret (prompted when omitted)")
	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false,
		"save the credentials without a probe request")
	rootCmd.AddCommand(loginCmd)

	rootCmd.AddCommand(logoutCmd)

	whoamiCmd.Flags().BoolVar(&whoamiVerify, "verify", false,
		"probe the service with the stored credentials")
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if client == nil {
		return errors.New("api client not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	mailbox := cfg.Mailbox
	if len(args) > 0 {
		mailbox = args[0]
	}
	if mailbox == "" {
		var err error
		mailbox, err = promptLine(cmd, reader, "Mailbox (user@domain): ")
		if err != nil {
			return err
		}
	}
	if mailbox == "" {
		return errors.New("mailbox is required")
	}

	creds, err := collectLoginCredentials(cmd, reader, mailbox)
	if err != nil {
		return err
	}

	cred, err := creds.Credential()
	if err != nil {
		return err
	}

	if !loginNoVerify {
		cmd.Println("Verifying credentials...")
		_, err := client.GetMailActivity(context.Background(), outlook.ActivityQuery{
			Credential: cred,
			Mailbox:    mailbox,
			MaxResults: 1,
		})
		if err != nil {
			if outlook.IsUnauthorised(err) {
				return fmt.Errorf("login failed: %w (check the password or token)", err)
			}
			return fmt.Errorf("login failed: %w", err)
		}
	}

	if err := credstore.Save(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	path, _ := credstore.Path()
	cmd.Printf("Logged in as %s (%s auth). Credentials saved to %s\n", mailbox, creds.Method, path)
	return nil
}

// collectLoginCredentials builds the stored credential record from flags,
// prompting for any secret that was not supplied.
func collectLoginCredentials(
	cmd *cobra.Command, reader *bufio.Reader, mailbox string,
) (*credstore.Credentials, error) {
	creds := &credstore.Credentials{Mailbox: mailbox}

	appAuth := loginTenant != "" || loginClientID != "" || loginClientSecret != ""

	switch {
	case loginToken != "":
		creds.Method = credstore.MethodToken
		creds.Token = loginToken

	case appAuth:
		creds.Method = credstore.MethodApp
		if loginTenant == "" || loginClientID == "" {
			return nil, errors.New("app authentication needs --tenant and --client-id")
		}
		creds.TenantID = loginTenant
		creds.ClientID = loginClientID
		creds.ClientSecret = loginClientSecret
		if creds.ClientSecret == "" {
			secret, err := promptSecret(cmd, reader, "Client secret: ")
			if err != nil {
				return nil, err
			}
			creds.ClientSecret = secret
		}

	default:
		creds.Method = credstore.MethodBasic
		creds.Username = loginUsername
		if creds.Username == "" {
			creds.Username = mailbox
		}
		creds.Password = loginPassword
		if creds.Password == "" {
			password, err := promptSecret(cmd, reader, "Password: ")
			if err != nil {
				return nil, err
			}
			creds.Password = password
		}
	}

	if !creds.IsValid() {
		return nil, errors.New("incomplete credentials")
	}
	return creds, nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if !credstore.IsLoggedIn() {
		cmd.Println("Not logged in.")
		return nil
	}
	if err := credstore.Delete(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	cmd.Println("Removed stored credentials.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	creds, err := credstore.Load()
	if err != nil {
		cmd.Println("Not logged in.")
		return nil
	}

	cmd.Printf("Mailbox: %s\n", creds.Mailbox)
	cmd.Printf("Method:  %s\n", creds.Method)
	switch creds.Method {
	case credstore.MethodBasic:
		cmd.Printf("Username: %s\n", creds.Username)
	case credstore.MethodToken:
		if !creds.ExpiresAt.IsZero() {
			cmd.Printf("Expires: %s\n", creds.ExpiresAt.Format(time.RFC3339))
		}
	case credstore.MethodApp:
		cmd.Printf("Tenant:  %s\n", creds.TenantID)
		cmd.Printf("Client:  %s\n", creds.ClientID)
	}

	if !creds.IsValid() {
		cmd.Println("The stored credentials are incomplete or expired. Run 'mailtrail login' again.")
		return nil
	}

	if whoamiVerify {
		if client == nil {
			return errors.New("api client not configured")
		}
		if err := client.Validate(context.Background()); err != nil {
			return wrapClientError("verification failed", err)
		}
		cmd.Println("Credentials verified.")
	}
	return nil
}

// promptLine reads a single line of input, trimmed of whitespace. The shared
// reader keeps input buffered between consecutive prompts.
func promptLine(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	cmd.Print(prompt)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// promptSecret reads a secret without echoing when stdin is a terminal,
// falling back to a plain line read otherwise.
func promptSecret(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	stdin, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(stdin.Fd())) {
		return promptLine(cmd, reader, prompt)
	}

	cmd.Print(prompt)
	secret, err := term.ReadPassword(int(stdin.Fd()))
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
