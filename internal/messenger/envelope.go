// Package messenger speaks the Messenger Platform wire formats: the webhook
// envelope delivered by the platform, the subscription handshake, payload
// signatures, and the Send API used for replies.
package messenger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ObjectPage is the only envelope object this bot handles.
const ObjectPage = "page"

// Envelope is the body of a webhook POST.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the events for one page.
type Entry struct {
	ID        string  `json:"id"`
	Time      int64   `json:"time"`
	Messaging []Event `json:"messaging"`
}

// Event is one messaging event. Only message events are consumed.
type Event struct {
	Sender    Party    `json:"sender"`
	Recipient Party    `json:"recipient"`
	Timestamp int64    `json:"timestamp"`
	Message   *Message `json:"message,omitempty"`
}

type Party struct {
	ID string `json:"id"`
}

type Message struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo,omitempty"`
}

// Inbound is a text message from a user, flattened out of an Envelope.
type Inbound struct {
	UserID string
	MID    string
	Text   string
	At     time.Time
}

// TextMessages returns every user-sent text message in delivery order.
// Echoes of the page's own replies, attachments, and events without a
// sender are skipped.
func (e Envelope) TextMessages() []Inbound {
	var out []Inbound
	for _, en := range e.Entry {
		for _, ev := range en.Messaging {
			m := ev.Message
			if m == nil || m.IsEcho || ev.Sender.ID == "" || strings.TrimSpace(m.Text) == "" {
				continue
			}
			in := Inbound{UserID: ev.Sender.ID, MID: m.MID, Text: m.Text}
			if ev.Timestamp > 0 {
				in.At = time.UnixMilli(ev.Timestamp).UTC()
			}
			out = append(out, in)
		}
	}
	return out
}

var (
	// ErrMissingParams means hub.mode or hub.verify_token was absent.
	ErrMissingParams = errors.New("missing verification parameters")
	// ErrVerifyMismatch means the mode was not "subscribe" or the token differs.
	ErrVerifyMismatch = errors.New("verification token mismatch")
)

// VerifySubscription checks a GET /webhook handshake and returns the
// challenge to echo back.
func VerifySubscription(mode, token, challenge, want string) (string, error) {
	if mode == "" || token == "" {
		return "", ErrMissingParams
	}
	if mode != "subscribe" || !hmac.Equal([]byte(token), []byte(want)) {
		return "", ErrVerifyMismatch
	}
	return challenge, nil
}

// SignatureHeader carries the HMAC-SHA256 of the raw body keyed by the app secret.
const SignatureHeader = "X-Hub-Signature-256"

// ValidSignature reports whether header ("sha256=<hex>") matches body.
func ValidSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign computes the header value for body. Used by tests and tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
