// Package trigger publishes through the relay's HTTP trigger endpoint and
// receives through any subscriber. Events published this way come back to
// the publisher's own subscription.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sharetube/watchtogether/internal/transport"
)

var ErrRejected = errors.New("trigger rejected")

const (
	triggerPath    = "/api/v1/trigger"
	secretHeader   = "St-Trigger-Secret"
	defaultTimeout = 10 * time.Second
)

type Transport struct {
	transport.Subscriber

	client *http.Client
	url    string
	secret string
}

type Option func(*Transport)

func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) { t.client = client }
}

func WithSecret(secret string) Option {
	return func(t *Transport) { t.secret = secret }
}

// New returns a transport posting to baseURL (for example http://host:8080).
func New(baseURL string, sub transport.Subscriber, opts ...Option) *Transport {
	t := &Transport{
		Subscriber: sub,
		client:     &http.Client{Timeout: defaultTimeout},
		url:        strings.TrimRight(baseURL, "/") + triggerPath,
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (t *Transport) Publish(ctx context.Context, channel, event string, data json.RawMessage) error {
	body, err := json.Marshal(&transport.Message{Channel: channel, Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal trigger: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.secret != "" {
		req.Header.Set(secretHeader, t.secret)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send trigger: %w", err)
	}
	defer resp.Body.Close()

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode trigger response (status %d): %w", resp.StatusCode, err)
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrRejected, result.Error)
	}

	return nil
}
