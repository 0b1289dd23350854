// Package notify delivers pipeline outcomes, by email through Resend or
// to the console.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/model"
	"github.com/lmoreno/microhunt/internal/service"
)

const defaultBaseURL = "https://api.resend.com"

// EmailNotifier sends outcome reports through the Resend API.
type EmailNotifier struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
	recipients []string
}

// NewEmailNotifier creates a Resend-backed notifier. baseURL is
// overridable for tests; pass "" for the production endpoint.
func NewEmailNotifier(apiKey, from string, recipients []string, baseURL string) (*EmailNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: resend API key", common.ErrMissingConfig)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: notification recipients", common.ErrMissingConfig)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &EmailNotifier{
		apiKey:     apiKey,
		from:       from,
		recipients: recipients,
		baseURL:    baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Notify renders the outcome as an email and sends it to every
// configured recipient.
func (n *EmailNotifier) Notify(ctx context.Context, outcome service.Outcome) error {
	payload := emailRequest{
		From:    n.from,
		To:      n.recipients,
		Subject: Subject(outcome),
		HTML:    renderHTML(outcome),
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		n.baseURL+"/emails", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("creating email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: resend", common.ErrRateLimit)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Subject builds the email subject line for an outcome.
func Subject(outcome service.Outcome) string {
	switch outcome.Status {
	case model.StatusPass:
		return fmt.Sprintf("Signal: %s (%s) passed screening", outcome.Ticker, outcome.Region)
	case model.StatusChat:
		return "Desk note"
	default:
		if outcome.Ticker != "" {
			return fmt.Sprintf("No trade: %s (%s)", outcome.Ticker, outcome.Region)
		}
		return fmt.Sprintf("No trade found (%s)", outcome.Region)
	}
}

func renderHTML(outcome service.Outcome) string {
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: monospace;\">")

	if outcome.Ticker != "" {
		fmt.Fprintf(&b, "<h2>%s — %s</h2>",
			html.EscapeString(outcome.Ticker), html.EscapeString(outcome.Name))
	}

	if m := outcome.Metrics; m != nil {
		b.WriteString("<table border=\"0\" cellpadding=\"4\">")
		rows := []struct{ label, value string }{
			{"Sector", m.Sector},
			{"Price", fmt.Sprintf("$%.2f", m.Price)},
			{"Market Cap", fmt.Sprintf("$%.0f", m.MarketCap)},
			{"Intrinsic Value", fmt.Sprintf("$%.2f", m.IntrinsicValue)},
			{"Margin of Safety", m.MarginOfSafety},
		}
		for _, row := range rows {
			fmt.Fprintf(&b, "<tr><td><b>%s</b></td><td>%s</td></tr>",
				html.EscapeString(row.label), html.EscapeString(row.value))
		}
		b.WriteString("</table>")
	}

	fmt.Fprintf(&b, "<pre style=\"white-space: pre-wrap;\">%s</pre>",
		html.EscapeString(outcome.Report))
	b.WriteString("</body></html>")
	return b.String()
}
