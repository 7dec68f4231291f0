package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/walink/internal/types"
)

// maxErrorBody caps how much of a failed response is quoted in the error
const maxErrorBody = 512

// Payload is the JSON document posted to each callback URL
type Payload struct {
	Secret string      `json:"secret"`
	Bots   []types.Bot `json:"bots"`
}

// Syncer pushes bot snapshots to callback URLs
type Syncer struct {
	urls   []string
	secret string
	client *http.Client
	log    logrus.FieldLogger
}

// New creates a syncer posting to urls with a per-request timeout
func New(urls []string, secret string, timeout time.Duration, log logrus.FieldLogger) *Syncer {
	return &Syncer{
		urls:   urls,
		secret: secret,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Push sends bots to every callback URL in parallel. Nothing is sent when
// bots is empty. The first failure is returned after all requests finish.
func (s *Syncer) Push(ctx context.Context, bots []types.Bot) error {
	if len(bots) == 0 {
		s.log.Info("No bot data to send")
		return nil
	}
	if len(s.urls) == 0 {
		return fmt.Errorf("no callback URL configured")
	}

	body, err := json.Marshal(Payload{Secret: s.secret, Bots: bots})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	var g errgroup.Group
	for _, url := range s.urls {
		g.Go(func() error {
			if err := s.post(ctx, url, body); err != nil {
				s.log.WithField("url", url).Errorf("Sync failed: %v", err)
				return err
			}
			s.log.WithField("url", url).Infof("Sent %d bots", len(bots))
			return nil
		})
	}
	return g.Wait()
}

func (s *Syncer) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("callback %s returned status %d: %s", url, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
