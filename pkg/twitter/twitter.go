// Package twitter posts status updates through the Twitter v2 API using
// OAuth1 user context credentials.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dghubble/oauth1"
)

// Config holds the credentials of the account that posts. It is passed to
// NewClient explicitly; nothing is read from process-wide state.
type Config struct {
	ConsumerKey       string `env:"TWITTER_CONSUMER_KEY"`
	ConsumerSecret    string `env:"TWITTER_CONSUMER_SECRET"`
	AccessToken       string `env:"TWITTER_ACCESS_TOKEN"`
	AccessTokenSecret string `env:"TWITTER_ACCESS_TOKEN_SECRET"`
	APIURL            string `env:"TWITTER_API_URL,default=https://api.twitter.com"`
	StatusURL         string `env:"TWITTER_STATUS_URL,default=https://twitter.com/i/web/status/"`
}

// Enabled reports whether all four credentials are set.
func (c Config) Enabled() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

type Client struct {
	http      *http.Client
	apiURL    string
	statusURL string
}

func NewClient(cfg Config) *Client {
	oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.twitter.com"
	}
	statusURL := cfg.StatusURL
	if statusURL == "" {
		statusURL = "https://twitter.com/i/web/status/"
	}

	return &Client{
		http:      oauthCfg.Client(oauth1.NoContext, token),
		apiURL:    strings.TrimRight(apiURL, "/"),
		statusURL: statusURL,
	}
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Post publishes text and returns the public URL of the new status.
func (c *Client) Post(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(tweetRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to post tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("twitter returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode tweet response: %w", err)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("twitter response has no status id")
	}
	return c.statusURL + out.Data.ID, nil
}
