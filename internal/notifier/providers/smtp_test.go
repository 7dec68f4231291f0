package providers

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	date := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("bot@example.com", "me@example.com", "walink: QR code ready", "<p>hi</p>", "hi", date))

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "Subject: walink: QR code ready\r\n")
	assert.Contains(t, head, "Date: Mon, 19 Oct 2026 09:00:00 +0000")
	assert.Contains(t, head, `multipart/alternative; boundary="walink-`)

	plain := strings.Index(body, "text/plain")
	html := strings.Index(body, "text/html")
	assert.True(t, plain >= 0 && html > plain, "plain part comes first")
	assert.Contains(t, body, "<p>hi</p>")
	assert.True(t, strings.HasSuffix(msg, "--\r\n"))
}

func TestSendUsesAuthOnlyWithUsername(t *testing.T) {
	var gotAddr string
	var gotAuth smtp.Auth
	var gotTo []string

	s := NewSMTPSender("smtp.example.com", 2525, "", "", "bot@example.com")
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo = addr, a, to
		return nil
	}

	require.NoError(t, s.Send("me@example.com", "s", "<p/>", "p"))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Nil(t, gotAuth)
	assert.Equal(t, []string{"me@example.com"}, gotTo)

	s.username = "bot"
	require.NoError(t, s.Send("me@example.com", "s", "<p/>", "p"))
	assert.NotNil(t, gotAuth)
}

func TestSendWrapsErrors(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "bot", "pw", "")
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 auth failed")
	}

	err := s.Send("me@example.com", "s", "", "")
	assert.ErrorContains(t, err, "535 auth failed")
	assert.Equal(t, "bot", s.from, "from falls back to the username")
}
