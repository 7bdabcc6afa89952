package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-ledger-bot/internal/config"
	"github.com/tbourn/go-ledger-bot/internal/observability"
)

// MaxTextRunes is the Send API limit for a text message.
const MaxTextRunes = 2000

// Sender delivers reply text to a user.
type Sender interface {
	Send(ctx context.Context, userID, text string) error
}

// APIError is a non-2xx Send API response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("send api: status %d: %s", e.Status, e.Body)
}

// GraphSender posts messages to the Graph Send API. Each call makes one
// attempt per chunk; failures are returned, never retried.
type GraphSender struct {
	endpoint string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewGraphSender builds a sender from cfg. A nil client gets one with
// cfg.SendTimeout.
func NewGraphSender(cfg config.MessengerConfig, client *http.Client) *GraphSender {
	if client == nil {
		client = &http.Client{Timeout: cfg.SendTimeout}
	}
	burst := int(cfg.SendRPS)
	if burst < 1 {
		burst = 1
	}
	return &GraphSender{
		endpoint: strings.TrimRight(cfg.GraphURL, "/") + "/" + cfg.GraphVer + "/me/messages",
		token:    cfg.AccessToken,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(cfg.SendRPS), burst),
	}
}

type sendRequest struct {
	Recipient     Party       `json:"recipient"`
	MessagingType string      `json:"messaging_type"`
	Message       sendMessage `json:"message"`
}

type sendMessage struct {
	Text string `json:"text"`
}

// Send delivers text, split into MaxTextRunes chunks, stopping at the
// first failed chunk.
func (g *GraphSender) Send(ctx context.Context, userID, text string) (err error) {
	tr := otel.Tracer("messenger/GraphSender")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer func() {
		observability.MessengerSends.WithLabelValues(observability.OutcomeLabel(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "send failed")
		}
		span.End()
	}()

	for _, chunk := range SplitText(text, MaxTextRunes) {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := g.post(ctx, userID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (g *GraphSender) post(ctx context.Context, userID, text string) error {
	body, err := json.Marshal(sendRequest{
		Recipient:     Party{ID: userID},
		MessagingType: "RESPONSE",
		Message:       sendMessage{Text: text},
	})
	if err != nil {
		return err
	}
	u := g.endpoint + "?access_token=" + url.QueryEscape(g.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		// *url.Error would echo the access token
		return fmt.Errorf("send api: %s", redactToken(err.Error(), g.token))
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(token), "REDACTED")
	return strings.ReplaceAll(s, token, "REDACTED")
}

// SplitText cuts s into pieces of at most limit runes, preferring to break
// after a newline.
func SplitText(s string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var out []string
	r := []rune(s)
	for len(r) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if r[i] == '\n' {
				cut = i + 1
				break
			}
		}
		out = append(out, strings.TrimRight(string(r[:cut]), "\n"))
		r = r[cut:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

// LogSender writes replies to a function instead of the network. It backs
// the CLI and local runs without a page token.
type LogSender struct {
	Printf func(format string, args ...any)
}

func (s LogSender) Send(_ context.Context, userID, text string) error {
	if s.Printf != nil {
		s.Printf("reply to %s at %s: %s", userID, time.Now().UTC().Format(time.RFC3339), text)
	}
	return nil
}
