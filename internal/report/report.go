// Package report renders link outcomes for the console and for email.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/ibeckermayer/walink/internal/types"
)

const rule = "---------------------------------------------------------------"

// Write prints the final result of a run for the operator
func Write(w io.Writer, o *types.Outcome) error {
	var buf bytes.Buffer

	switch o.Status {
	case types.StatusLinked:
		writeLinked(&buf, o)
	case types.StatusTimeout, types.StatusAuthFailed, types.StatusRemoteFailure:
		fmt.Fprintf(&buf, "\n   ❌ FAILED: %s\n", o.Message)
	default:
		fmt.Fprintf(&buf, "\n   ❌ Unexpected error: %s\n", o.Message)
		if o.ScreenshotPath != "" {
			fmt.Fprintf(&buf, "   Error screenshot saved as '%s'.\n", o.ScreenshotPath)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeLinked(buf *bytes.Buffer, o *types.Outcome) {
	if o.Method == types.MethodPairing {
		buf.WriteString("\n   ✅ Pairing code retrieved!\n")
		fmt.Fprintf(buf, "   Session ID: %s\n", o.Session)
		fmt.Fprintf(buf, "   %s\n", rule)
		fmt.Fprintf(buf, "   Your pairing code: %s\n", o.Code)
		fmt.Fprintf(buf, "   %s\n", rule)
		return
	}

	buf.WriteString("\n   ✅ QR code retrieved!\n")
	fmt.Fprintf(buf, "   Session ID: %s\n", o.Session)
	buf.WriteString("\n   Copy the text below and paste it into a browser to view the QR code:\n")
	fmt.Fprintf(buf, "   %s\n", rule)
	fmt.Fprintf(buf, "   %s\n", o.Code)
	fmt.Fprintf(buf, "   %s\n", rule)
}

// Email is a rendered outcome ready for sending
type Email struct {
	Subject   string
	HTMLBody  string
	PlainBody string
}

// emailData is the template data structure
type emailData struct {
	Title    string
	Date     string
	Status   string
	Method   string
	Phone    string
	Session  string
	Code     string
	IsQR     bool
	QRImage  template.URL
	Message  string
	Duration string
}

var emailTemplate = template.Must(template.New("outcome").Parse(defaultTemplate))

// Build renders o as an email
func Build(o *types.Outcome) (*Email, error) {
	data := emailData{
		Title:    title(o),
		Date:     o.FinishedAt.Format("Monday, January 2 15:04"),
		Status:   string(o.Status),
		Method:   o.Method,
		Phone:    o.Phone,
		Session:  o.Session,
		Code:     o.Code,
		Message:  o.Message,
		Duration: o.Duration().Round(time.Second).String(),
	}
	if o.Status.Succeeded() && o.Method == types.MethodQR && strings.HasPrefix(o.Code, "data:image/") {
		data.IsQR = true
		// The payload comes from the service itself and is only ever an image data URL.
		data.QRImage = template.URL(o.Code)
	}

	var htmlBuf bytes.Buffer
	if err := emailTemplate.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Email{
		Subject:   fmt.Sprintf("walink: %s", data.Title),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(o),
	}, nil
}

func title(o *types.Outcome) string {
	what := "QR code"
	if o.Method == types.MethodPairing {
		what = "Pairing code"
	}
	if o.Status.Succeeded() {
		return what + " ready"
	}
	return what + " failed"
}

func buildPlainText(o *types.Outcome) string {
	var buf bytes.Buffer
	_ = Write(&buf, o)
	return strings.TrimLeft(buf.String(), "\n")
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #25d366; margin-bottom: 5px; }
        h1.failed { color: #d33; }
        .date { color: #666; margin-bottom: 20px; }
        .code { font-family: monospace; font-size: 28px; letter-spacing: 4px; margin: 15px 0; }
        .meta { color: #666; font-size: 13px; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1{{if .Message}} class="failed"{{end}}>{{.Title}}</h1>
        <div class="date">{{.Date}}</div>

        {{if .IsQR}}<img src="{{.QRImage}}" alt="QR code" width="264" height="264">{{else if .Code}}<div class="code">{{.Code}}</div>{{end}}
        {{if .Message}}<p>{{.Message}}</p>{{end}}

        <div class="meta">
            Method: {{.Method}}{{if .Phone}} · Phone: {{.Phone}}{{end}}{{if .Session}} · Session: {{.Session}}{{end}}
        </div>

        <div class="footer">
            Status {{.Status}} · took {{.Duration}} · Generated by walink
        </div>
    </div>
</body>
</html>`
