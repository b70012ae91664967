package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal LINE Messaging API client. Only the calls this bot
// needs are implemented: replying to an event and fetching a user profile.
type Client struct {
	ChannelToken string
	BaseURL      string // default https://api.line.me
	HTTP         *http.Client
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://api.line.me"
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Reply sends one or more messages against a reply token.
// POST /v2/bot/message/reply with {replyToken, messages}
func (c *Client) Reply(ctx context.Context, replyToken string, msgs []Message) error {
	if replyToken == "" {
		return fmt.Errorf("line: missing reply token")
	}
	ep := strings.TrimRight(c.base(), "/") + "/v2/bot/message/reply"
	payload := map[string]any{
		"replyToken": replyToken,
		"messages":   msgs,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.ChannelToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("line: reply status %d: %s", resp.StatusCode, apiErrorMessage(resp))
	}
	return nil
}

// DisplayName fetches the display name of a user.
// GET /v2/bot/profile/{userId}
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("line: missing user id")
	}
	ep := strings.TrimRight(c.base(), "/") + "/v2/bot/profile/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.ChannelToken)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("line: profile not found for %s", userID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("line: profile status %d: %s", resp.StatusCode, apiErrorMessage(resp))
	}
	var out struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.DisplayName == "" {
		return "", fmt.Errorf("line: profile for %s has no display name", userID)
	}
	return out.DisplayName, nil
}

// apiErrorMessage decodes the error body best-effort for logs.
func apiErrorMessage(resp *http.Response) string {
	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Message == "" {
		return "unknown error"
	}
	return out.Message
}
