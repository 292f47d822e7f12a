package credstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailtrail/outlook"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mailtrail", "credentials.json")
	creds := &Credentials{
		Method:   MethodBasic,
		Mailbox:  "audit@contoso.com",
		Username: "audit@contoso.com",
		Password: "hunter2",
	}

	require.NoError(t, SaveTo(creds, path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)
}

func TestSaveTo_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mailtrail", "credentials.json")

	require.NoError(t, SaveTo(&Credentials{Method: MethodToken, Token: "tok"}, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestLoadFrom_Missing(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "credentials.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestLoadFrom_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{half"), 0o600))

	_, err := LoadFrom(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse credentials")
}

func TestCredentials_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		creds    *Credentials
		expected bool
	}{
		{
			name:     "nil",
			creds:    nil,
			expected: false,
		},
		{
			name:     "no method",
			creds:    &Credentials{},
			expected: false,
		},
		{
			name:     "basic complete",
			creds:    &Credentials{Method: MethodBasic, Username: "u", Password: "p"},
			expected: true,
		},
		{
			name:     "basic missing password",
			creds:    &Credentials{Method: MethodBasic, Username: "u"},
			expected: false,
		},
		{
			name:     "token without expiry",
			creds:    &Credentials{Method: MethodToken, Token: "tok"},
			expected: true,
		},
		{
			name: "token expired",
			creds: &Credentials{
				Method:    MethodToken,
				Token:     "tok",
				ExpiresAt: time.Now().Add(-time.Minute),
			},
			expected: false,
		},
		{
			name: "token expiring within buffer",
			creds: &Credentials{
				Method:    MethodToken,
				Token:     "tok",
				ExpiresAt: time.Now().Add(2 * time.Minute),
			},
			expected: false,
		},
		{
			name: "token with future expiry",
			creds: &Credentials{
				Method:    MethodToken,
				Token:     "tok",
				ExpiresAt: time.Now().Add(time.Hour),
			},
			expected: true,
		},
		{
			name: "app complete",
			creds: &Credentials{
				Method: MethodApp, TenantID: "t", ClientID: "c", ClientSecret: "s",
			},
			expected: true,
		},
		{
			name:     "app missing secret",
			creds:    &Credentials{Method: MethodApp, TenantID: "t", ClientID: "c"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.creds.IsValid())
		})
	}
}

func TestCredentials_Credential(t *testing.T) {
	basic, err := (&Credentials{Method: MethodBasic, Username: "u", Password: "p"}).Credential()
	require.NoError(t, err)
	assert.Equal(t, outlook.NewBasicCredential("u", "p"), basic)

	token, err := (&Credentials{Method: MethodToken, Token: "tok"}).Credential()
	require.NoError(t, err)
	assert.Equal(t, outlook.NewTokenCredential("tok"), token)

	app, err := (&Credentials{
		Method: MethodApp, TenantID: "t", ClientID: "c", ClientSecret: "s",
	}).Credential()
	require.NoError(t, err)
	assert.IsType(t, &outlook.AppCredential{}, app)

	_, err = (&Credentials{Method: "kerberos"}).Credential()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown credential method")

	_, err = (*Credentials)(nil).Credential()
	require.Error(t, err)
}
