package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// Brevo sends transactional email through the Brevo HTTP API with a bounded
// timeout per send.
type Brevo struct {
	apiKey     string
	fromEmail  string
	senderName string
	client     *http.Client
	endpoint   string
}

func NewBrevo(apiKey, fromEmail, senderName string, timeout time.Duration) *Brevo {
	return &Brevo{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		senderName: senderName,
		client:     &http.Client{Timeout: timeout},
		endpoint:   brevoEndpoint,
	}
}

type brevoParty struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoMessage struct {
	Sender      brevoParty   `json:"sender"`
	To          []brevoParty `json:"to"`
	Subject     string       `json:"subject"`
	TextContent string       `json:"textContent"`
}

func (b *Brevo) SendGuestCode(ctx context.Context, to, guestName, guestCode, lang string) Result {
	subject, body := guestCodeBody(guestName, guestCode, lang)
	return b.send(ctx, to, subject, body)
}

func (b *Brevo) SendMagicLink(ctx context.Context, to, magicURL, lang string) Result {
	subject, body := magicLinkBody(magicURL, lang)
	return b.send(ctx, to, subject, body)
}

func (b *Brevo) SendConfirmation(ctx context.Context, to, lang string, summary Summary) Result {
	subject, body := confirmationBody(lang, summary)
	return b.send(ctx, to, subject, body)
}

func (b *Brevo) send(ctx context.Context, to, subject, body string) Result {
	msg := brevoMessage{
		Sender:      brevoParty{Name: b.senderName, Email: b.fromEmail},
		To:          []brevoParty{{Email: to}},
		Subject:     subject,
		TextContent: body,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return failed(fmt.Errorf("encoding brevo payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(payload))
	if err != nil {
		return failed(fmt.Errorf("building brevo request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return failed(fmt.Errorf("calling brevo: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return failed(fmt.Errorf("brevo responded %d: %s", resp.StatusCode, string(detail)))
	}
	return ok()
}
