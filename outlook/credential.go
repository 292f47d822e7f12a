package outlook

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Microsoft identity platform constants.
const (
	//nolint:gosec // G101: Not credentials, OAuth endpoint URL
	appTokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

	// apiScope requests an app token valid for the Outlook REST API host.
	apiScope = "https://outlook.office365.com/.default"
)

// Credential authenticates outgoing Outlook REST API requests.
// Implementations attach their authentication material to each request;
// the client never inspects or stores the material itself.
type Credential interface {
	// Authorize attaches authentication to req. Called once per request.
	Authorize(req *http.Request) error
}

// BasicCredential authenticates with a mailbox identity and secret using
// HTTP basic authentication.
type BasicCredential struct {
	Username string
	Password string
}

// NewBasicCredential creates a basic-auth credential for a mailbox.
func NewBasicCredential(username, password string) BasicCredential {
	return BasicCredential{Username: username, Password: password}
}

// Authorize sets the basic auth header on the request.
func (c BasicCredential) Authorize(req *http.Request) error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("%w: basic credential missing username or password", ErrConfiguration)
	}
	req.SetBasicAuth(c.Username, c.Password)
	return nil
}

// TokenCredential authenticates with a static OAuth2 bearer token obtained
// out of band. The token is used as-is; no refresh is attempted.
type TokenCredential string

// NewTokenCredential creates a bearer-token credential.
func NewTokenCredential(token string) TokenCredential {
	return TokenCredential(token)
}

// Authorize sets the bearer token on the request.
func (c TokenCredential) Authorize(req *http.Request) error {
	if c == "" {
		return fmt.Errorf("%w: token credential is empty", ErrConfiguration)
	}
	req.Header.Set("Authorization", "Bearer "+string(c))
	return nil
}

// AppCredential authenticates as a registered Azure AD application using the
// OAuth2 client credentials flow. Tokens are fetched lazily and reused until
// they expire.
type AppCredential struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewAppCredential creates an application credential for a tenant.
func NewAppCredential(tenantID, clientID, clientSecret string) *AppCredential {
	return &AppCredential{
		TenantID:     tenantID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
}

// Authorize acquires (or reuses) an app token and sets it on the request.
func (c *AppCredential) Authorize(req *http.Request) error {
	if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: app credential missing tenant, client id, or client secret", ErrConfiguration)
	}

	c.mu.Lock()
	if c.source == nil {
		conf := &clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     fmt.Sprintf(appTokenURLFormat, c.TenantID),
			Scopes:       []string{apiScope},
		}
		// The source refreshes in the background for the credential's
		// lifetime, so it is not tied to any single request context.
		c.source = conf.TokenSource(context.Background())
	}
	source := c.source
	c.mu.Unlock()

	token, err := source.Token()
	if err != nil {
		return fmt.Errorf("%w: acquire app token: %w", ErrTransport, err)
	}
	token.SetAuthHeader(req)
	return nil
}
