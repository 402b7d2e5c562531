package smtp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kinboost-api/internal/config"
	"github.com/kinboost-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_Headers(t *testing.T) {
	msg := buildMessage("noreply@kinboost.shop", "Kinboost", "a@b.com", OTPSubject, "<p>hi</p>")

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "From: Kinboost <noreply@kinboost.shop>")
	assert.Contains(t, head, "To: a@b.com")
	assert.Contains(t, head, "Subject: =?UTF-8?q?")
	assert.Contains(t, head, `Content-Type: text/html; charset="UTF-8"`)
	assert.Equal(t, "<p>hi</p>", body)
}

func TestBuildMessage_NoFromName(t *testing.T) {
	msg := buildMessage("noreply@kinboost.shop", "", "a@b.com", "Hello", "x")
	assert.True(t, strings.HasPrefix(msg, "From: noreply@kinboost.shop\r\n"))
	assert.Contains(t, msg, "Subject: Hello\r\n")
}

func TestRenderOTP(t *testing.T) {
	html, err := RenderOTP("042517", 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, html, ">042517</span>")
	assert.Contains(t, html, "expire dans 10 minutes")
}

func TestNewMailer_NoHostIsDisabled(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: " "})
	err := m.SendEmail(context.Background(), "a@b.com", "s", "b")
	assert.True(t, errors.Is(err, domain.ErrConfig))
}
