package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/jaytaylor/html2text"
)

const sendgridMailEndpoint = "https://api.sendgrid.com/v3/mail/send"

// EmailDeliveryProvider sends digest emails via SendGrid. The HTML body is
// accompanied by a text/plain alternative for clients that want one.
type EmailDeliveryProvider struct {
	apiKey    string
	fromEmail string
	fromName  string
	endpoint  string
}

func NewEmailDeliveryProvider(apiKey, fromEmail, fromName string) *EmailDeliveryProvider {
	return &EmailDeliveryProvider{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		endpoint:  sendgridMailEndpoint,
	}
}

func (p *EmailDeliveryProvider) Type() string { return "email" }

func (p *EmailDeliveryProvider) Deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	plainBody, err := html2text.FromString(htmlBody, html2text.Options{TextOnly: true})
	if err != nil {
		log.Printf("WARN (EmailDeliveryProvider): Plain-text conversion failed: %v", err)
		plainBody = "Your digest is available in the HTML version of this email."
	}

	// SendGrid requires text/plain before text/html in the content array.
	payload := sgMailPayload{
		Personalizations: []sgPersonalization{{
			To: []sgAddress{{Email: recipient}},
		}},
		From:    sgAddress{Email: p.fromEmail, Name: p.fromName},
		Subject: subject,
		Content: []sgContent{
			{Type: "text/plain", Value: plainBody},
			{Type: "text/html", Value: htmlBody},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal SendGrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create SendGrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("SendGrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SendGrid returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// SendGrid v3 Mail Send API payload types.
type sgMailPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
