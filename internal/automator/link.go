package automator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ibeckermayer/walink/internal/browser"
	"github.com/ibeckermayer/walink/internal/config"
	"github.com/ibeckermayer/walink/internal/types"
)

// GenericFailure is reported when the API rejects a request without a message
const GenericFailure = "unknown error from API"

// Method selects how the new bot is connected: QR or Pairing
type Method interface {
	Kind() string
	isMethod()
}

// QR asks the service for a scannable QR code
type QR struct{}

// Pairing asks the service for a pairing code bound to a phone number.
// The number is passed to the service as-is.
type Pairing struct {
	Phone string
}

func (QR) Kind() string { return types.MethodQR }

func (Pairing) Kind() string { return types.MethodPairing }

func (QR) isMethod() {}

func (Pairing) isMethod() {}

// MethodFromConfig builds the method named in [link]
func MethodFromConfig(cfg config.LinkConfig) (Method, error) {
	switch cfg.Method {
	case config.MethodQR, "":
		return QR{}, nil
	case config.MethodPairing:
		if strings.TrimSpace(cfg.PhoneNumber) == "" {
			return nil, fmt.Errorf("pairing needs a phone number")
		}
		return Pairing{Phone: cfg.PhoneNumber}, nil
	default:
		return nil, fmt.Errorf("unknown link method: %s", cfg.Method)
	}
}

func title(m Method) string {
	switch m.(type) {
	case Pairing:
		return "Pairing Code"
	default:
		return "QR Code"
	}
}

// Link logs in, asks the service for a new bot connection and returns the
// outcome. Only configuration errors are returned as errors; every other
// failure is described by the outcome status.
func (a *Automator) Link(ctx context.Context, method Method) (*types.Outcome, error) {
	o := &types.Outcome{
		RunID:     uuid.NewString(),
		Method:    method.Kind(),
		StartedAt: a.now(),
	}
	if p, ok := method.(Pairing); ok {
		o.Phone = p.Phone
	}

	a.log.Infof("====== Starting %s retrieval ======", title(method))

	err := a.WithSession(ctx, func(ctx context.Context, page browser.Page) error {
		a.link(ctx, page, method, o)
		return nil
	})
	o.FinishedAt = a.now()

	var authErr *AuthError
	switch {
	case err == nil:
	case errors.Is(err, config.ErrMissingCredentials):
		return nil, err
	case errors.As(err, &authErr):
		o.Status = types.StatusAuthFailed
		o.Message = authErr.Error()
	default:
		o.Status = types.StatusError
		o.Message = err.Error()
	}

	return o, nil
}

// link runs the bots page part of the workflow and fills in o
func (a *Automator) link(ctx context.Context, page browser.Page, method Method, o *types.Outcome) {
	body, err := a.requestBot(ctx, page, method)
	if err != nil {
		if isTimeout(err) {
			o.Status = types.StatusTimeout
			o.Message = fmt.Sprintf("timed out; the page took too long to load or a selector was not found: %v", err)
			return
		}
		o.Status = types.StatusError
		o.Message = err.Error()
		o.ScreenshotPath = a.screenshot(ctx, page)
		return
	}

	var res types.BotResult
	if err := json.Unmarshal(body, &res); err != nil {
		o.Status = types.StatusError
		o.Message = fmt.Sprintf("failed to parse API response: %v", err)
		o.ScreenshotPath = a.screenshot(ctx, page)
		return
	}

	applyResult(method, res, o)
}

// requestBot opens the add-bot dialog, fills it for method and returns the
// body of the API response triggered by submitting it
func (a *Automator) requestBot(ctx context.Context, page browser.Page, method Method) ([]byte, error) {
	stepTimeout := a.opts.Timeouts.Navigation.Std()

	a.log.Info("2. Navigating to the WhatsApp bots page...")
	navCtx, cancel := context.WithTimeout(ctx, stepTimeout)
	err := page.Navigate(navCtx, a.opts.Service.BotsURL)
	cancel()
	if err != nil {
		return nil, err
	}

	a.log.Info("3. Clicking 'Add WhatsApp'...")
	stepCtx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	if err := page.Click(stepCtx, AddBotButton); err != nil {
		return nil, err
	}

	switch m := method.(type) {
	case QR:
		a.log.Info("4. Submitting with the QR code method...")
	case Pairing:
		a.log.Info("4. Choosing 'Pairing Code' and entering the phone number...")
		if err := page.Click(stepCtx, PairingMethod); err != nil {
			return nil, err
		}
		if err := page.Fill(stepCtx, PhoneInput, m.Phone); err != nil {
			return nil, err
		}
		a.log.Info("5. Submitting with the pairing code method...")
	}

	respCtx, cancelResp := context.WithTimeout(ctx, a.opts.Timeouts.Response.Std())
	defer cancelResp()
	return page.ClickAndCapture(respCtx, AddBotSubmit, a.opts.Service.APIURL)
}

// applyResult maps the API answer onto o
func applyResult(method Method, res types.BotResult, o *types.Outcome) {
	if !res.OK() {
		o.Status = types.StatusRemoteFailure
		o.Message = res.Msg
		if o.Message == "" {
			o.Message = GenericFailure
		}
		return
	}

	o.Status = types.StatusLinked
	o.Session = res.Session
	switch method.(type) {
	case Pairing:
		o.Code = FormatPairingCode(res.Msg)
	default:
		o.Code = res.Msg
	}
}

// FormatPairingCode shows an 8 character code as XXXX-XXXX.
// Codes of any other length are returned unchanged.
func FormatPairingCode(code string) string {
	r := []rune(code)
	if len(r) != 8 {
		return code
	}
	return string(r[:4]) + "-" + string(r[4:])
}
