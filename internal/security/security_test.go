// internal/security/security_test.go
package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/valpere/tatooine/pkg/types"
)

func TestURLPolicy_CheckURL(t *testing.T) {
	policy := DefaultURLPolicy()
	policy.BlockedDomains = []string{"blocked.com"}

	testCases := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"valid https", "https://example.com/path", ""},
		{"valid http with port", "http://example.com:8080/path", ""},
		{"disallowed scheme", "ftp://example.com/file", "not in allowed list"},
		{"data url", "data:text/html,<p>hi</p>", "not in allowed list"},
		{"too long", "https://example.com/" + strings.Repeat("a", 3000), "exceeds maximum"},
		{"blocked domain", "https://blocked.com/", "is blocked"},
		{"blocked subdomain", "https://api.blocked.com/", "is blocked"},
		{"similar domain", "https://notblocked.com/", ""},
		{"localhost", "http://localhost:8080/admin", "private network"},
		{"loopback ip", "http://127.0.0.1/", "private network"},
		{"ipv6 loopback", "http://[::1]:9000/", "private network"},
		{"private ip", "http://10.0.0.5/", "private network"},
		{"metadata service", "http://169.254.169.254/latest", "private network"},
		{"public ip", "http://93.184.216.34/", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.CheckURL(tc.url)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("expected %q to pass, got %v", tc.url, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestURLPolicy_AllowPrivate(t *testing.T) {
	policy := DefaultURLPolicy()
	policy.AllowPrivate = true

	if err := policy.CheckURL("http://127.0.0.1:8080/"); err != nil {
		t.Errorf("expected loopback to be allowed, got %v", err)
	}
}

func TestURLPolicy_CheckSchemas(t *testing.T) {
	schemas := []*types.Schema{
		{Engine: types.EngineJSON, Options: types.Options{Request: types.RequestOptions{URL: "https://api.example.com"}}},
		nil,
		{Engine: types.EngineMarkup, Options: types.Options{Request: types.RequestOptions{URL: "http://localhost/"}}},
		{Engine: "rss", Options: types.Options{Request: types.RequestOptions{URL: "http://localhost/"}}},
	}

	violations := DefaultURLPolicy().CheckSchemas(schemas)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	if violations[0].Index != 2 {
		t.Errorf("expected violation on schema 2, got %d", violations[0].Index)
	}
	if !errors.Is(violations[0], ErrSchemaRejected) {
		t.Error("violation should wrap ErrSchemaRejected")
	}
}

func TestURLPolicy_CheckLaunch(t *testing.T) {
	testCases := []struct {
		name    string
		opts    types.LaunchOptions
		wantErr string
	}{
		{"defaults", types.LaunchOptions{}, ""},
		{"harmless options", types.LaunchOptions{Headless: types.Bool(false), UserAgent: "bot", WindowWidth: 800}, ""},
		{"exec path", types.LaunchOptions{ExecPath: "/tmp/evil.sh"}, "exec_path"},
		{"user data dir", types.LaunchOptions{UserDataDir: "/etc"}, "user_data_dir"},
		{"no sandbox", types.LaunchOptions{NoSandbox: true}, "no_sandbox"},
		{"flags", types.LaunchOptions{Flags: map[string]interface{}{"remote-debugging-port": 9222}}, "flags"},
	}

	policy := DefaultURLPolicy()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.CheckLaunch(tc.opts)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("expected options to pass, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}

	policy.AllowLaunchOverrides = true
	if err := policy.CheckLaunch(types.LaunchOptions{ExecPath: "/opt/chrome/chrome"}); err != nil {
		t.Errorf("overrides should be allowed when enabled, got %v", err)
	}
}

func TestURLPolicy_CheckSchemasLaunchOptions(t *testing.T) {
	schemas := []*types.Schema{{
		Engine: types.EngineSPA,
		Options: types.Options{Request: types.RequestOptions{
			URL:    "https://example.com",
			Launch: types.LaunchOptions{ExecPath: "/tmp/evil.sh"},
		}},
	}}

	violations := DefaultURLPolicy().CheckSchemas(schemas)
	if len(violations) != 1 || !strings.Contains(violations[0].Reason, "exec_path") {
		t.Fatalf("expected an exec_path violation, got %v", violations)
	}
}
