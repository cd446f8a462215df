package email_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/email"
)

func validParams() email.SendEmailParams {
	return email.SendEmailParams{
		SendTo:   "ana@example.com",
		Subject:  "Welcome, Ana",
		BodyHTML: "<p>Hi Ana</p>",
		BodyText: "Hi Ana",
		Tag:      "WELCOME",
	}
}

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*email.SendEmailParams)
		wantMsg string
	}{
		{"valid", func(*email.SendEmailParams) {}, ""},
		{"text only", func(p *email.SendEmailParams) { p.BodyHTML = "" }, ""},
		{"missing recipient", func(p *email.SendEmailParams) { p.SendTo = "" }, "SendTo is required"},
		{"bad recipient", func(p *email.SendEmailParams) { p.SendTo = "ana" }, "SendTo must be a valid email address"},
		{"display name", func(p *email.SendEmailParams) { p.SendTo = "Ana <ana@bank.com>" }, "SendTo must be a valid email address"},
		{"single letter tld", func(p *email.SendEmailParams) { p.SendTo = "ana@bank.c" }, ""},
		{"plus address", func(p *email.SendEmailParams) { p.SendTo = "ana+alerts@mail.bank.com" }, ""},
		{"missing subject", func(p *email.SendEmailParams) { p.Subject = "" }, "Subject is required"},
		{"no body", func(p *email.SendEmailParams) { p.BodyHTML, p.BodyText = "", "" }, "BodyHTML or BodyText is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := validParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

type mockPostmark struct {
	mock.Mock
}

func (m *mockPostmark) SendEmail(ctx context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(postmark.EmailResponse), args.Error(1)
}

func postmarkConfig() email.Config {
	return email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "notifications@bank.example",
		SupportEmail:         "support@bank.example",
		MessageStream:        "outbound",
	}
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*email.Config)
		wantMsg string
	}{
		{"server token", func(c *email.Config) { c.PostmarkServerToken = "" }, "PostmarkServerToken is required"},
		{"sender", func(c *email.Config) { c.SenderEmail = "nope" }, "SenderEmail must be a valid email address"},
		{"support", func(c *email.Config) { c.SupportEmail = "nope" }, "SupportEmail must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := postmarkConfig()
			tt.mutate(&cfg)
			client, err := email.NewPostmarkClient(cfg)
			require.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Nil(t, client)
		})
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		client, err := email.NewPostmarkClient(postmarkConfig())
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("account token is optional", func(t *testing.T) {
		t.Parallel()
		cfg := postmarkConfig()
		cfg.PostmarkAccountToken = ""
		client, err := email.NewPostmarkClient(cfg)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestPostmarkClient_SendEmail(t *testing.T) {
	t.Parallel()

	t.Run("returns message id", func(t *testing.T) {
		t.Parallel()
		api := &mockPostmark{}
		api.On("SendEmail", mock.Anything, mock.MatchedBy(func(e postmark.Email) bool {
			return e.To == "ana@example.com" &&
				e.From == "notifications@bank.example" &&
				e.TextBody == "Hi Ana" &&
				e.MessageStream == "outbound"
		})).Return(postmark.EmailResponse{MessageID: "pm-1"}, nil)

		client, err := email.NewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		require.NoError(t, err)

		id, err := client.SendEmail(context.Background(), validParams())
		require.NoError(t, err)
		assert.Equal(t, "pm-1", id)
		api.AssertExpectations(t)
	})

	t.Run("api error code", func(t *testing.T) {
		t.Parallel()
		api := &mockPostmark{}
		api.On("SendEmail", mock.Anything, mock.Anything).
			Return(postmark.EmailResponse{ErrorCode: 406, Message: "Inactive recipient"}, nil)

		client, err := email.NewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		require.NoError(t, err)

		_, err = client.SendEmail(context.Background(), validParams())
		require.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "406 - Inactive recipient")
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		api := &mockPostmark{}
		api.On("SendEmail", mock.Anything, mock.Anything).
			Return(postmark.EmailResponse{}, errors.New("connection reset"))

		client, err := email.NewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		require.NoError(t, err)

		_, err = client.SendEmail(context.Background(), validParams())
		require.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("invalid params never reach api", func(t *testing.T) {
		t.Parallel()
		api := &mockPostmark{}
		client, err := email.NewPostmarkClient(postmarkConfig(), email.WithPostmarkAPI(api))
		require.NoError(t, err)

		_, err = client.SendEmail(context.Background(), email.SendEmailParams{})
		require.ErrorIs(t, err, email.ErrInvalidParams)
		api.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	id, err := sender.SendEmail(context.Background(), validParams())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	var metaPath string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			metaPath = filepath.Join(dir, e.Name())
		}
		assert.Contains(t, e.Name(), "welcome")
	}
	require.NotEmpty(t, metaPath)

	raw, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, id, meta["message_id"])
	assert.Equal(t, "ana@example.com", meta["send_to"])

	t.Run("invalid params", func(t *testing.T) {
		t.Parallel()
		_, err := email.NewDevSender(t.TempDir()).SendEmail(context.Background(), email.SendEmailParams{})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})
}
