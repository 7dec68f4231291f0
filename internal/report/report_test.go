package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/walink/internal/types"
)

func outcome(status types.Status) *types.Outcome {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return &types.Outcome{
		RunID:      "run-1",
		Method:     types.MethodQR,
		Status:     status,
		StartedAt:  start,
		FinishedAt: start.Add(12 * time.Second),
	}
}

func TestWriteQR(t *testing.T) {
	o := outcome(types.StatusLinked)
	o.Code = "data:image/png;base64,AAAA"
	o.Session = "abc123"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, o))
	assert.Contains(t, buf.String(), "Session ID: abc123\n")
	assert.Contains(t, buf.String(), "   data:image/png;base64,AAAA\n")
	assert.Contains(t, buf.String(), "QR code retrieved")
}

func TestWritePairing(t *testing.T) {
	o := outcome(types.StatusLinked)
	o.Method = types.MethodPairing
	o.Code = "1234-5678"
	o.Session = "xyz"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, o))
	assert.Contains(t, buf.String(), "Your pairing code: 1234-5678\n")
	assert.Contains(t, buf.String(), "Session ID: xyz\n")
}

func TestWriteFailures(t *testing.T) {
	o := outcome(types.StatusRemoteFailure)
	o.Message = "invalid number"

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, o))
	assert.Contains(t, buf.String(), "FAILED: invalid number")
	assert.NotContains(t, buf.String(), "Session ID")

	o = outcome(types.StatusError)
	o.Message = "node not interactable"
	o.ScreenshotPath = "error_screenshot.png"

	buf.Reset()
	require.NoError(t, Write(&buf, o))
	assert.Contains(t, buf.String(), "Unexpected error: node not interactable")
	assert.Contains(t, buf.String(), "'error_screenshot.png'")
}

func TestBuildQREmbedsImage(t *testing.T) {
	o := outcome(types.StatusLinked)
	o.Code = "data:image/png;base64,AAAA"
	o.Session = "abc123"

	e, err := Build(o)
	require.NoError(t, err)
	assert.Equal(t, "walink: QR code ready", e.Subject)
	assert.Contains(t, e.HTMLBody, `<img src="data:image/png;base64,AAAA"`)
	assert.Contains(t, e.HTMLBody, "took 12s")
	assert.Contains(t, e.PlainBody, "abc123")
}

func TestBuildEscapesRemoteMessage(t *testing.T) {
	o := outcome(types.StatusRemoteFailure)
	o.Method = types.MethodPairing
	o.Message = "<script>alert(1)</script>"

	e, err := Build(o)
	require.NoError(t, err)
	assert.Equal(t, "walink: Pairing code failed", e.Subject)
	assert.NotContains(t, e.HTMLBody, "<script>alert(1)</script>")
	assert.NotContains(t, e.HTMLBody, "<img")
}
