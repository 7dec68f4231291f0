package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/walink/internal/browser"
	"github.com/ibeckermayer/walink/internal/config"
)

// Login form selectors
const (
	UsernameInput = `input[name="username"]`
	PasswordInput = `input[name="password"]`
	SubmitButton  = `button[type="submit"]`
)

// ErrLoginRejected means the service kept us on the login page
var ErrLoginRejected = errors.New("still on the login page; wrong username or password, or a verification step")

// Manager handles logging in to the bot service
type Manager struct {
	service  config.ServiceConfig
	timeouts config.TimeoutsConfig
	log      logrus.FieldLogger
}

// NewManager creates a new auth manager
func NewManager(service config.ServiceConfig, timeouts config.TimeoutsConfig, log logrus.FieldLogger) *Manager {
	return &Manager{service: service, timeouts: timeouts, log: log}
}

// Login fills and submits the login form, then waits for the redirect to the
// success URL. It returns the URL the page landed on.
func (m *Manager) Login(ctx context.Context, page browser.Page, creds config.Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}

	navCtx, cancel := context.WithTimeout(ctx, m.timeouts.Navigation.Std())
	err := page.Navigate(navCtx, m.service.LoginURL)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to open login page: %w", err)
	}

	if err := m.submitForm(ctx, page, creds); err != nil {
		return "", err
	}

	m.log.Infof("   Waiting for redirect to %s...", m.service.SuccessURL)
	url, err := m.waitForLogin(ctx, page)
	if err != nil {
		return url, err
	}

	m.log.Infof("   ✅ Logged in. Current URL: %s", url)
	return url, nil
}

// submitForm fills and submits the login form, bounded by the navigation timeout
func (m *Manager) submitForm(ctx context.Context, page browser.Page, creds config.Credentials) error {
	formCtx, cancel := context.WithTimeout(ctx, m.timeouts.Navigation.Std())
	defer cancel()

	m.log.Info("   Filling in the login form...")
	if err := page.Fill(formCtx, UsernameInput, creds.Username); err != nil {
		return err
	}
	if err := page.Fill(formCtx, PasswordInput, creds.Password); err != nil {
		return err
	}

	m.log.Info("   Submitting the login form...")
	return page.Click(formCtx, SubmitButton)
}

// waitForLogin waits for the success URL and rejects a landing back on /login
func (m *Manager) waitForLogin(ctx context.Context, page browser.Page) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, m.timeouts.LoginRedirect.Std())
	defer cancel()

	url, err := page.WaitForURL(waitCtx, func(u string) bool {
		return browser.SameURL(u, m.service.SuccessURL)
	})
	if err != nil {
		if IsLoginPage(url) {
			return url, fmt.Errorf("%w (after %s)", ErrLoginRejected, m.timeouts.LoginRedirect.Std().Round(time.Second))
		}
		return url, fmt.Errorf("no redirect to %s: %w", m.service.SuccessURL, err)
	}

	if IsLoginPage(url) {
		return url, ErrLoginRejected
	}

	return url, nil
}

// IsLoginPage reports whether url is still the login page
func IsLoginPage(url string) bool {
	return strings.Contains(url, "/login")
}
