package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/dukerupert/cloudbyte/internal/model"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// ErrNotConfigured is returned by the Send methods when no server token is set.
var ErrNotConfigured = errors.New("email client not configured: missing server token")

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

// SendWelcome greets a newly registered account.
func (c *Client) SendWelcome(ctx context.Context, toEmail, fullName string) error {
	name := fullName
	if name == "" {
		name = "there"
	}
	link := c.baseURL + "/pricing"

	return c.send(ctx, postmarkEmail{
		To:       toEmail,
		Subject:  "Welcome to CloudByte",
		Tag:      "welcome",
		TextBody: fmt.Sprintf("Hi %s,\n\nYour CloudByte account is ready. Pick a hosting plan to get started:\n\n%s", name, link),
		HtmlBody: fmt.Sprintf(
			`<p>Hi %s,</p><p>Your CloudByte account is ready. <a href="%s">Pick a hosting plan</a> to get started.</p>`,
			html.EscapeString(name), link,
		),
	})
}

// SendActivation confirms a plan activation from checkout.
func (c *Client) SendActivation(ctx context.Context, toEmail string, p *model.Purchase) error {
	price := model.FormatINR(p.PricePaid)
	expires := p.ExpiresAt.Format("2 January 2006")
	link := c.baseURL + "/dashboard"

	return c.send(ctx, postmarkEmail{
		To:       toEmail,
		Subject:  fmt.Sprintf("Your %s plan is active", p.PlanName),
		Tag:      "activation",
		TextBody: fmt.Sprintf(
			"Your %s plan (%s per month) is active until %s.\n\nManage it from your dashboard:\n\n%s",
			p.PlanName, price, expires, link,
		),
		HtmlBody: fmt.Sprintf(
			`<p>Your <strong>%s</strong> plan (%s per month) is active until %s.</p><p><a href="%s">Open your dashboard</a></p>`,
			html.EscapeString(p.PlanName), price, expires, link,
		),
	})
}

func (c *Client) send(ctx context.Context, msg postmarkEmail) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	msg.From = c.fromEmail

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
