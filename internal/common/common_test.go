package common

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in     string
		expect string
	}{
		{in: "  Printer\n\t  broken  ", expect: "Printer broken"},
		{in: "DS-12  urgent", expect: "DS-12 urgent"},
		{in: "", expect: ""},
		{in: " \n ", expect: ""},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, NormalizeText(test.in))
	}
}

func TestExtractTextSkipsScripts(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div><b>42</b>  Calls<script>var x = 1;</script></div>`))
	require.NoError(t, err)
	require.Equal(t, "42 Calls", ExtractText(doc))
}

func TestRetryPolicyStopsOnNonEmpty(t *testing.T) {
	policy := RetryPolicy[int]{MaxAttempts: 3, IsEmpty: func(n int) bool { return n == 0 }}

	calls := 0
	result, attempts, err := policy.Do(context.Background(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		if attempt < 2 {
			return 0, nil
		}
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, result)
	require.Equal(t, 2, attempts)
	require.Equal(t, 2, calls)
}

func TestRetryPolicyIsBounded(t *testing.T) {
	policy := RetryPolicy[int]{MaxAttempts: 3, IsEmpty: func(n int) bool { return n == 0 }}

	result, attempts, err := policy.Do(context.Background(), func(ctx context.Context, attempt int) (int, error) {
		return 0, nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, result)
	require.Equal(t, 3, attempts)
}

func TestRetryPolicyReturnsErrors(t *testing.T) {
	policy := RetryPolicy[int]{MaxAttempts: 5, IsEmpty: func(n int) bool { return n == 0 }}
	boom := errors.New("boom")

	_, attempts, err := policy.Do(context.Background(), func(ctx context.Context, attempt int) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, attempts)
}

func TestLoadTenantsFrom(t *testing.T) {
	env := map[string]string{
		"AGENCIES":       "BCN, mad",
		"BCN_NOMBRE":     "Barcelona",
		"BCN_USUARIO":    "bcn-user",
		"BCN_PASSWORD":   "secret",
		"MAD_NOM":        "Madrid",
		"MAD_USERNAME":   "mad-user",
		"MAD_PASSWORD":   "secret2",
		"COMPANY":        "IGNORED",
		"IGNORED_NOMBRE": "nope",
	}

	tenants, err := LoadTenantsFrom(func(k string) string { return env[k] })
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	require.Equal(t, "BCN", tenants[0].Code)
	require.Equal(t, "Barcelona", tenants[0].DisplayName)
	require.Equal(t, "bcn-user", tenants[0].Credentials.Username)
	require.Equal(t, "mad", tenants[1].Code)
	require.Equal(t, "Madrid", tenants[1].DisplayName)
	require.Equal(t, "mad-user", tenants[1].Credentials.Username)
}

func TestLoadTenantsFromCompany(t *testing.T) {
	env := map[string]string{
		"COMPANY":       "IRIS",
		"IRIS_USUARIO":  "u",
		"IRIS_PASSWORD": "p",
	}

	tenants, err := LoadTenantsFrom(func(k string) string { return env[k] })
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	require.Equal(t, "IRIS", tenants[0].Name())
}

func TestLoadTenantsMissingCredentialsIsConfigurationError(t *testing.T) {
	cases := []map[string]string{
		{},
		{"AGENCIES": "A", "A_USUARIO": "u"},
		{"COMPANY": "B", "B_PASSWORD": "p"},
	}

	for _, env := range cases {
		_, err := LoadTenantsFrom(func(k string) string { return env[k] })
		require.Error(t, err)
		require.True(t, IsErrorType(err, ErrorTypeConfiguration), err.Error())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Helpdesk.Engine = "lynx"
	require.True(t, IsErrorType(cfg.Validate(), ErrorTypeConfiguration))

	cfg = DefaultConfig()
	cfg.Sheets.Enabled = true
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Scan.MaxPagesClosed = 0
	require.NoError(t, cfg.Validate())
	require.Equal(t, 200, cfg.Scan.MaxPagesClosed)
}

func TestValidateResetsNonPositiveLimits(t *testing.T) {
	cases := []struct {
		name  string
		set   func(c *Config)
		check func(t *testing.T, c *Config)
	}{
		{
			name: "click timeout",
			set:  func(c *Config) { c.Helpdesk.ClickTimeoutMs = 0 },
			check: func(t *testing.T, c *Config) {
				require.Equal(t, 1200*time.Millisecond, c.Helpdesk.ClickTimeout())
			},
		},
		{
			name: "settle timeout",
			set:  func(c *Config) { c.Helpdesk.SettleTimeoutMs = -5 },
			check: func(t *testing.T, c *Config) {
				require.Equal(t, 8*time.Second, c.Helpdesk.SettleTimeout())
			},
		},
		{
			name: "navigation timeout",
			set:  func(c *Config) { c.Helpdesk.NavigationTimeoutMs = 0 },
			check: func(t *testing.T, c *Config) {
				require.Equal(t, 30*time.Second, c.Helpdesk.NavigationTimeout())
			},
		},
		{
			name:  "issue code digits",
			set:   func(c *Config) { c.Issues.MinDigits = 0 },
			check: func(t *testing.T, c *Config) { require.Equal(t, 3, c.Issues.MinDigits) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.set(cfg)
			require.NoError(t, cfg.Validate())
			tc.check(t, cfg)
		})
	}
}
