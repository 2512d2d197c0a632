// Package recaptcha talks to a score-based human-verification service with
// the siteverify request shape (secret + response token, JSON reply).
package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultVerifyURL is Google's siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Response is the verification service reply.
type Response struct {
	Success     bool      `json:"success"`
	Score       float64   `json:"score"`
	Action      string    `json:"action,omitempty"`
	ChallengeTS time.Time `json:"challenge_ts,omitempty"`
	Hostname    string    `json:"hostname,omitempty"`
	ErrorCodes  []string  `json:"error-codes,omitempty"`
}

// Client verifies tokens.
type Client struct {
	secret    string
	verifyURL string
	http      *http.Client
	log       *zap.Logger
}

// NewClient builds a client. A zero timeout leaves request bounding to the
// caller's context.
func NewClient(secret, verifyURL string, timeout time.Duration, log *zap.Logger) *Client {
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	return &Client{
		secret:    secret,
		verifyURL: verifyURL,
		http:      &http.Client{Timeout: timeout},
		log:       log.Named("recaptcha"),
	}
}

// Verify checks token and returns the service's success flag and score.
// An empty token fails with score 0 without contacting the service; so does
// any transport or decoding error, which is returned alongside.
func (c *Client) Verify(ctx context.Context, token string) (bool, float64, error) {
	if token == "" {
		return false, 0, nil
	}

	resp, err := c.verify(ctx, token)
	if err != nil {
		c.log.Warn("verification request failed", zap.Error(err))
		return false, 0, err
	}
	if !resp.Success {
		c.log.Info("token rejected", zap.Strings("error_codes", resp.ErrorCodes))
	}
	return resp.Success, resp.Score, nil
}

func (c *Client) verify(ctx context.Context, token string) (*Response, error) {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("siteverify: unexpected status %d", res.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode siteverify response: %w", err)
	}
	return &out, nil
}
