package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/pkg/email"
)

func validConfig() email.Config {
	return email.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "no-reply@inkwell.example",
		SupportEmail:         "support@inkwell.example",
	}
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	sender, err := email.NewPostmarkClient(validConfig())
	require.NoError(t, err)
	assert.NotNil(t, sender)
}

func TestNewPostmarkClientInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*email.Config)
		message string
	}{
		{"server token missing", func(c *email.Config) { c.PostmarkServerToken = "" }, "PostmarkServerToken"},
		{"account token missing", func(c *email.Config) { c.PostmarkAccountToken = "" }, "PostmarkAccountToken"},
		{"sender missing", func(c *email.Config) { c.SenderEmail = "" }, "SenderEmail is required"},
		{"sender malformed", func(c *email.Config) { c.SenderEmail = "no-reply@" }, "SenderEmail must be a valid"},
		{"support missing", func(c *email.Config) { c.SupportEmail = "" }, "SupportEmail is required"},
		{"support malformed", func(c *email.Config) { c.SupportEmail = "help desk" }, "SupportEmail must be a valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			sender, err := email.NewPostmarkClient(cfg)
			require.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
			assert.Nil(t, sender)
		})
	}
}

func TestPostmarkClientValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	sender, err := email.NewPostmarkClient(validConfig())
	require.NoError(t, err)

	// An invalid recipient fails locally; no request reaches Postmark.
	err = sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "broken",
		Subject:  "hello",
		BodyHTML: "<p>hi</p>",
	})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
