package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/mailtrail/internal/config"
	"github.com/custodia-labs/mailtrail/outlook"
)

// sampleActivitiesJSON is a two-event activity page as the service renders it.
const sampleActivitiesJSON = `{
	"value": [
		{
			"TimeStamp": "2024-01-15T09:30:00Z",
			"ActivityIdType": "MessageDelivered",
			"ActivityCreationTime": "2024-01-15T09:30:01Z",
			"ActivityItemId": "AAMkAGI2TG93AAA=",
			"AppIdType": "Exchange",
			"ClientSessionId": "5ea6b2e1-0433-4a0d-bd4d-2b7d75ba0b59"
		},
		{
			"TimeStamp": "2024-01-15T10:05:00Z",
			"ActivityIdType": "MarkAsRead",
			"ActivityCreationTime": "2024-01-15T10:05:02Z",
			"ActivityItemId": "AAMkAGI2TG94AAA=",
			"AppIdType": "Web",
			"ClientSessionId": "8c0f64a2-59b3-4c30-9e2a-5a3bfb219f30"
		}
	]
}`

// sampleMessageJSON is a message detail response without a body, the shape
// the restricted field set produces.
const sampleMessageJSON = `{
	"Id": "AAMkAGI2TG93AAA=",
	"Subject": "Quarterly report",
	"BodyPreview": "Please find attached the quarterly numbers.",
	"Importance": "Normal",
	"HasAttachments": true,
	"IsRead": false,
	"DateTimeReceived": "2024-01-15T09:30:00Z",
	"From": {"EmailAddress": {"Name": "Dana Calvo", "Address": "dana@contoso.com"}},
	"ToRecipients": [{"EmailAddress": {"Name": "Audit", "Address": "audit@contoso.com"}}]
}`

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
		resetFlags()
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every command flag variable to its default so one
// test's flags never leak into the next.
func resetFlags() {
	activityMailbox = ""
	activityStart = ""
	activityEnd = ""
	activityType = ""
	activityApp = ""
	activityTop = 0
	activitySkip = 0
	activityAll = false
	activityFormat = ""
	activityOutput = ""

	messageMailbox = ""
	messageIncludeBody = false
	messageFormat = ""
	messageOutput = ""

	loginUsername = ""
	loginPassword = ""
	loginToken = ""
	loginTenant = ""
	loginClientID = ""
	loginClientSecret = ""
	loginNoVerify = false

	whoamiVerify = false
}

// setupTestClient injects a client for CLI commands and returns a cleanup
// func. A generous rate limit keeps tests fast.
func setupTestClient(opts ...outlook.Option) func() {
	oldClient := client
	oldCfg := cfg

	opts = append([]outlook.Option{
		outlook.WithRateLimit(outlook.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 1000}),
	}, opts...)
	client = outlook.NewClient(opts...)
	cfg = config.Config{}

	return func() {
		client = oldClient
		cfg = oldCfg
	}
}

// newAPIServer serves a canned response for every request.
func newAPIServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testCredential() outlook.Credential {
	return outlook.NewBasicCredential("audit@contoso.com", "hunter2")
}
