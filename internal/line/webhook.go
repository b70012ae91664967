package line

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidSignature = errors.New("line: invalid signature")
	ErrMalformedPayload = errors.New("line: malformed webhook payload")
)

// Event is one entry of the webhook envelope. The platform may batch
// several events into a single delivery.
type Event struct {
	Type       string   `json:"type"`
	ReplyToken string   `json:"replyToken"`
	Timestamp  int64    `json:"timestamp"`
	Source     Source   `json:"source"`
	Message    *Inbound `json:"message,omitempty"`
}

type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId,omitempty"`
}

// Inbound is the message part of a message event. Text fields are set for
// text messages, Title/Address/Latitude/Longitude for location messages.
type Inbound struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Text      string  `json:"text,omitempty"`
	Title     string  `json:"title,omitempty"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type webhookEnvelope struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// ParseWebhook verifies the request signature against the channel secret and
// decodes the envelope. It returns ErrInvalidSignature before touching the
// body contents, and ErrMalformedPayload when the envelope does not decode.
func ParseWebhook(secret, signature string, body []byte) ([]Event, error) {
	if !ValidateSignature(secret, signature, body) {
		return nil, ErrInvalidSignature
	}
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return env.Events, nil
}
