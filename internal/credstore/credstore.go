// Package credstore persists CLI login credentials.
//
// Credentials live in ~/.mailtrail/credentials.json, written with owner-only
// permissions. Exactly one authentication method is stored at a time; logging
// in again replaces the previous credentials.
package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/mailtrail/internal/config"
	"github.com/custodia-labs/mailtrail/outlook"
)

// Method identifies how the stored credentials authenticate.
type Method string

const (
	// MethodBasic stores a mailbox identity and secret.
	MethodBasic Method = "basic"
	// MethodToken stores a static bearer token obtained out of band.
	MethodToken Method = "token"
	// MethodApp stores an Azure AD app registration.
	MethodApp Method = "app"
)

// CredentialsFile is the filename for stored credentials.
const CredentialsFile = "credentials.json"

// Credentials represents a stored login.
type Credentials struct {
	Method  Method `json:"method"`
	Mailbox string `json:"mailbox"`

	// Basic auth fields.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// Static bearer token fields.
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`

	// App registration fields.
	TenantID     string `json:"tenant_id,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Path returns the path to the credentials file.
func Path() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CredentialsFile), nil
}

// Load reads credentials from the default location.
func Load() (*Credentials, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads credentials from a specific path.
func LoadFrom(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not logged in: credentials file not found")
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	return &creds, nil
}

// Save writes credentials to the default location.
func Save(creds *Credentials) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(creds, path)
}

// SaveTo writes credentials to a specific path with owner-only permissions.
func SaveTo(creds *Credentials, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	return nil
}

// Delete removes the credentials file. Deleting an absent file is fine.
func Delete() error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete credentials: %w", err)
	}

	return nil
}

// IsValid checks that the credentials are complete and not expired.
func (c *Credentials) IsValid() bool {
	if c == nil {
		return false
	}

	switch c.Method {
	case MethodBasic:
		return c.Username != "" && c.Password != ""
	case MethodToken:
		if c.Token == "" {
			return false
		}
		// Check expiration (with 5 minute buffer)
		if !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(time.Now().Add(5*time.Minute)) {
			return false
		}
		return true
	case MethodApp:
		return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
	default:
		return false
	}
}

// Credential builds the outlook credential for the stored login.
func (c *Credentials) Credential() (outlook.Credential, error) {
	if c == nil {
		return nil, fmt.Errorf("not logged in")
	}

	switch c.Method {
	case MethodBasic:
		return outlook.NewBasicCredential(c.Username, c.Password), nil
	case MethodToken:
		return outlook.NewTokenCredential(c.Token), nil
	case MethodApp:
		return outlook.NewAppCredential(c.TenantID, c.ClientID, c.ClientSecret), nil
	default:
		return nil, fmt.Errorf("unknown credential method %q", c.Method)
	}
}

// IsLoggedIn checks if valid credentials are stored.
func IsLoggedIn() bool {
	creds, err := Load()
	if err != nil {
		return false
	}
	return creds.IsValid()
}
