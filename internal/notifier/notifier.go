package notifier

import (
	"fmt"

	"github.com/ibeckermayer/walink/internal/config"
	"github.com/ibeckermayer/walink/internal/notifier/providers"
	"github.com/ibeckermayer/walink/internal/report"
	"github.com/ibeckermayer/walink/internal/types"
)

// Notifier emails link outcomes
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a new notifier delivering to toAddr
func New(sender Sender, toAddr string) *Notifier {
	return &Notifier{sender: sender, to: toAddr}
}

// NewFromConfig creates a notifier based on configuration
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	if cfg.ToAddr == "" {
		return nil, fmt.Errorf("email enabled but to_address is empty")
	}

	var sender Sender
	switch cfg.Provider {
	case "smtp", "":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("email enabled but smtp_host is empty")
		}
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.ToAddr), nil
}

// SendOutcome emails the report for o
func (n *Notifier) SendOutcome(o *types.Outcome) error {
	e, err := report.Build(o)
	if err != nil {
		return err
	}
	if err := n.sender.Send(n.to, e.Subject, e.HTMLBody, e.PlainBody); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	return nil
}
