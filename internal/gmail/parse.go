package gmail

import (
	"encoding/base64"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/tmessner/mailminder/internal/mail"
)

// normalizeMessage converts a full-format Gmail message into the internal
// representation, applying the ingestion body cap.
func normalizeMessage(msg *gmail.Message) mail.Message {
	m := mail.Message{
		ID:          msg.Id,
		Timestamp:   time.UnixMilli(msg.InternalDate).UTC().Format(time.RFC3339),
		ActionItems: []mail.Task{},
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "from":
				m.From = h.Value
			case "subject":
				m.Subject = h.Value
			}
		}
		m.Body = extractBody(msg.Payload)
	}
	if m.Body == "" {
		m.Body = msg.Snippet
	}
	m.TruncateBody()
	return m
}

// extractBody returns the first text/plain body found in the payload
// tree, descending into multipart containers depth first.
func extractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.HasPrefix(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, p := range part.Parts {
		if body := extractBody(p); body != "" {
			return body
		}
	}
	// Single-part messages carry the body on the payload itself without a
	// text/plain mime type worth trusting.
	if len(part.Parts) == 0 && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}
