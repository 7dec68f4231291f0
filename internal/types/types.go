package types

import (
	"encoding/json"
	"time"
)

// Status is the terminal state of a link run
type Status string

const (
	StatusLinked        Status = "linked"
	StatusRemoteFailure Status = "remote_failure"
	StatusAuthFailed    Status = "auth_failed"
	StatusTimeout       Status = "timeout"
	StatusError         Status = "error"
)

// Succeeded reports whether the run produced a code
func (s Status) Succeeded() bool {
	return s == StatusLinked
}

// Method kinds as stored and displayed
const (
	MethodQR      = "qr"
	MethodPairing = "pairing"
)

// Code is a JSON scalar that may arrive as a string or a number
type Code string

// UnmarshalJSON accepts "0", 0 and null
func (c *Code) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Code(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

// BotResult is the JSON body returned by the bot creation endpoint
type BotResult struct {
	Error   Code   `json:"error"`
	Msg     string `json:"msg"`
	Session string `json:"session,omitempty"`
}

// OK reports whether the endpoint accepted the request and returned a payload
func (r BotResult) OK() bool {
	return r.Error == "0" && r.Msg != ""
}

// Outcome is the operator-facing result of one link run
type Outcome struct {
	RunID          string    `json:"run_id"`
	Method         string    `json:"method"`
	Phone          string    `json:"phone,omitempty"`
	Status         Status    `json:"status"`
	Code           string    `json:"code,omitempty"` // QR data URL or display-formatted pairing code
	Session        string    `json:"session,omitempty"`
	Message        string    `json:"message,omitempty"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Duration returns how long the run took
func (o *Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// Bot connection states as reported by the bots page
const (
	BotActive    = "active"
	BotInactive  = "inactive"
	BotSuspended = "suspended"
)

// Bot is one entry of the bots page list
type Bot struct {
	ID        string `json:"terimawa_bot_id"`
	SentCount int    `json:"sent_count"`
	Status    string `json:"connection_status"`
}

