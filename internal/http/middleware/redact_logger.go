// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RedactingLogger is the access log. It never logs bodies, so message text
// and webhook payloads stay out of it, and it scrubs identifiers from the
// query string and headers:
//
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders:     []string{"X-Hub-Signature-256"},
//	    MaskQueryParams: []string{"hub.verify_token"},
//	}))
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RedactOptions adds headers and query parameters whose values are replaced
// wholesale. Authorization, Cookie, Set-Cookie and access_token are always
// masked. Header names match case-insensitively.
type RedactOptions struct {
	MaskHeaders     []string
	MaskQueryParams []string
}

// scrubRules run in order; later patterns are looser. UUIDs go before phones
// so their digit groups are not read as numbers, and long digit runs
// (Messenger page-scoped ids) go before phones for the same reason.
var scrubRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b\d{13,20}\b`), "[REDACTED:psid]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

func scrub(s string) string {
	for _, r := range scrubRules {
		if s == "" {
			break
		}
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

type redactor struct {
	headers map[string]struct{}
	params  map[string]struct{}
}

func newRedactor(opts RedactOptions) redactor {
	rd := redactor{
		headers: map[string]struct{}{"authorization": {}, "cookie": {}, "set-cookie": {}},
		params:  map[string]struct{}{"access_token": {}},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			rd.headers[h] = struct{}{}
		}
	}
	for _, p := range opts.MaskQueryParams {
		if p = strings.TrimSpace(p); p != "" {
			rd.params[p] = struct{}{}
		}
	}
	return rd
}

func (rd redactor) header(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := rd.headers[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = scrub(strings.Join(vv, ", "))
	}
	return out
}

func (rd redactor) query(raw string) string {
	return scrub(maskQuery(raw, rd.params))
}

// RedactingLogger attaches the request-scoped logger (see LoggerFrom) and,
// after the handler runs, writes one "http_request" line at info, warn for
// 4xx, or error for 5xx. Unmatched routes log the path as "unmatched".
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts)

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		lg := attachLogger(c, path)
		query := rd.query(c.Request.URL.RawQuery)
		headers := rd.header(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		ev := lg.Info()
		switch {
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		if sub := c.GetString(ctxKeySubject); sub != "" {
			ev = ev.Str("user_id", sub)
		}
		ev.Str("query", query).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// maskQuery replaces the values of masked parameters. Unparseable queries
// are dropped entirely.
func maskQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return raw
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "[REDACTED:query]"
	}
	hit := false
	for k := range q {
		if _, ok := mask[k]; ok {
			q[k] = []string{"REDACTED"}
			hit = true
		}
	}
	if !hit {
		return raw
	}
	return q.Encode()
}
