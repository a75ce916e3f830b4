// Package webhooks receives inbound email from the provider's parse webhook.
// Subscribers can manage their digest by replying to it: the sender address
// identifies the record and the message body is the free-text command.
package webhooks

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/coreybb/dailybrief/processing"
	"github.com/coreybb/dailybrief/webutil"
	"github.com/jhillyerd/enmime"
)

const (
	formFieldEmail   = "email"
	formFieldFrom    = "from"
	formFieldSubject = "subject"

	maxCommandLength = 500
)

type InboundEmailHandler struct {
	Processor *processing.CommandProcessor
}

func NewInboundEmailHandler(processor *processing.CommandProcessor) *InboundEmailHandler {
	return &InboundEmailHandler{Processor: processor}
}

// HandleInbound parses the provider's webhook payload, extracts the sender
// and the command text, and runs it through the command pipeline. Malformed
// emails are acknowledged with 200 so the provider does not retry them.
func (h *InboundEmailHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	log.Printf("InboundEmailHandler: HandleInbound called. Content-Type: %s", r.Header.Get("Content-Type"))

	rawMIME, rawSender, err := parseWebhookRequest(r)
	if err != nil {
		if !webutil.HasResponseWriterSentHeader(w) {
			webutil.RespondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if subject := r.FormValue(formFieldSubject); subject != "" {
		log.Printf("INFO (InboundEmailHandler): Inbound email subject: %q", subject)
	}

	env, err := parseMimeMessage(rawMIME)
	if err != nil {
		acknowledgeWithWarning(w, "Failed to parse raw MIME with enmime", err)
		return
	}

	sender := extractSender(env, rawSender)
	if sender == "" {
		acknowledgeWithWarning(w, fmt.Sprintf("Could not determine sender from headers or raw field %q", rawSender), nil)
		return
	}

	command := commandText(env)
	if command == "" {
		acknowledgeWithWarning(w, fmt.Sprintf("Empty command body from %s", sender), nil)
		return
	}

	log.Printf("INFO (InboundEmailHandler): Command from %s: %q", sender, command)

	result, err := h.Processor.Process(r.Context(), sender, command)
	if err != nil {
		log.Printf("ERROR (InboundEmailHandler): Command from %s failed: %v", sender, err)
		if !webutil.HasResponseWriterSentHeader(w) {
			webutil.RespondWithError(w, http.StatusInternalServerError, "Internal server error processing email")
		}
		return
	}

	// The response travels back by email out of band; the webhook body just
	// acknowledges receipt to the provider.
	log.Printf("INFO (InboundEmailHandler): Response for %s: %q", sender, result.Response)

	if !webutil.HasResponseWriterSentHeader(w) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK (Command processed)"))
	}
}

// acknowledgeWithWarning logs the problem but still answers 200 so the
// provider does not retry an email that can never be processed.
func acknowledgeWithWarning(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		log.Printf("WARN (InboundEmailHandler): %s: %v", msg, err)
	} else {
		log.Printf("WARN (InboundEmailHandler): %s", msg)
	}
	if !webutil.HasResponseWriterSentHeader(w) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK (Email acknowledged)"))
	}
}

func parseWebhookRequest(r *http.Request) (rawMIME, sender string, err error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if err := r.ParseForm(); err != nil {
			return "", "", fmt.Errorf("failed to parse form data: %w", err)
		}
	}
	rawMIME = r.FormValue(formFieldEmail)
	sender = r.FormValue(formFieldFrom)

	if rawMIME == "" {
		return "", "", fmt.Errorf("missing raw email content in webhook payload")
	}
	return rawMIME, sender, nil
}

func parseMimeMessage(rawMIMEString string) (*enmime.Envelope, error) {
	env, err := enmime.ReadEnvelope(strings.NewReader(rawMIMEString))
	if err != nil {
		return nil, fmt.Errorf("enmime.ReadEnvelope failed: %w", err)
	}
	return env, nil
}

// extractSender prefers the parsed Sender then From headers, falling back to
// the provider's raw "from" form field in "Name <email>" format.
func extractSender(env *enmime.Envelope, rawSender string) string {
	for _, header := range []string{"Sender", "From"} {
		if list, err := env.AddressList(header); err == nil && len(list) > 0 && list[0].Address != "" {
			return strings.ToLower(list[0].Address)
		}
	}

	rawSender = strings.TrimSpace(rawSender)
	if start := strings.LastIndex(rawSender, "<"); start != -1 {
		if end := strings.LastIndex(rawSender, ">"); end > start {
			if extracted := strings.TrimSpace(rawSender[start+1 : end]); extracted != "" {
				return strings.ToLower(extracted)
			}
		}
	}
	if strings.Contains(rawSender, "@") {
		return strings.ToLower(rawSender)
	}
	return ""
}

// commandText reduces a reply email to the command: the first non-empty,
// non-quoted line of the text part.
func commandText(env *enmime.Envelope) string {
	for _, line := range strings.Split(env.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ">") || strings.HasPrefix(line, "On ") {
			continue
		}
		if len(line) > maxCommandLength {
			line = line[:maxCommandLength]
		}
		return line
	}
	return ""
}
