package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/walink/internal/browser"
	"github.com/ibeckermayer/walink/internal/types"
)

var (
	botIDPattern     = regexp.MustCompile(`updateBotSetting\((\d+),`)
	sentCountPattern = regexp.MustCompile(`Terkirim: (\d+)`)
)

// Scraper reads the bot list from the bots page of a logged-in session
type Scraper struct {
	botsURL string
	timeout time.Duration
	log     logrus.FieldLogger
}

// New creates a new scraper
func New(botsURL string, timeout time.Duration, log logrus.FieldLogger) *Scraper {
	return &Scraper{botsURL: botsURL, timeout: timeout, log: log}
}

// rawBot represents the raw data extracted from the DOM via JavaScript
type rawBot struct {
	Handler string `json:"handler"`
	Stats   string `json:"stats"`
	Status  string `json:"status"`
}

// extractJS collects the text needed per bot. Parsing happens in Go.
var extractJS = fmt.Sprintf(`
	(function() {
		const results = [];
		document.querySelectorAll(%q).forEach(li => {
			const statsEl = li.querySelector(%q);
			const selectEl = li.querySelector(%q);
			const statusEl = li.querySelector(%q);
			if (!statsEl || !selectEl || !statusEl) return;
			results.push({
				handler: selectEl.getAttribute('onchange') || '',
				stats: statsEl.textContent.trim(),
				status: statusEl.textContent.trim()
			});
		});
		return results;
	})()
`, BotsList, BotStats, BotSettings, BotStatus)

// ScrapeBots navigates page to the bots list and returns every bot on it
func (s *Scraper) ScrapeBots(ctx context.Context, page browser.Page) ([]types.Bot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.log.Infof("Navigating to %s", s.botsURL)
	if err := page.Navigate(ctx, s.botsURL); err != nil {
		return nil, fmt.Errorf("failed to load bots page: %w", err)
	}

	var raw []rawBot
	if err := page.Evaluate(ctx, extractJS, &raw); err != nil {
		return nil, fmt.Errorf("failed to extract bots from DOM: %w", err)
	}

	bots := make([]types.Bot, 0, len(raw))
	for _, rb := range raw {
		bot, ok := parseBot(rb)
		if !ok {
			s.log.WithField("stats", rb.Stats).Debug("Skipping incomplete bot entry")
			continue
		}
		bots = append(bots, bot)
	}

	s.log.Infof("Found %d bots", len(bots))
	return bots, nil
}

// parseBot converts one list entry, reporting false when the id or sent
// count is missing
func parseBot(rb rawBot) (types.Bot, bool) {
	id := botIDPattern.FindStringSubmatch(rb.Handler)
	sent := sentCountPattern.FindStringSubmatch(rb.Stats)
	if id == nil || sent == nil {
		return types.Bot{}, false
	}

	count, err := strconv.Atoi(sent[1])
	if err != nil {
		return types.Bot{}, false
	}

	return types.Bot{
		ID:        id[1],
		SentCount: count,
		Status:    parseStatus(rb.Status),
	}, true
}

func parseStatus(label string) string {
	switch strings.TrimSpace(label) {
	case LabelConnected:
		return types.BotActive
	case LabelSuspended:
		return types.BotSuspended
	default:
		return types.BotInactive
	}
}
