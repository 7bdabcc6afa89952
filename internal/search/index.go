// Package search provides a small, deterministic, concurrency-safe in-memory
// index over item names, used to suggest the closest existing item when a
// command names one that is not in the ledger.
//
// Names are case-folded and split into character trigrams (with a leading
// and trailing pad so short names and word boundaries still count). Scoring
// is Jaccard similarity between trigram sets: score = |Q ∩ D| / |Q ∪ D|.
// The index is immutable after construction.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Result is a ranked item name with its similarity score.
type Result struct {
	Name  string
	Score float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minScore float64
	maxDocs  int
}

func defaultConfig() config {
	return config{
		minScore: 0.3,
		maxDocs:  0,
	}
}

// WithMinScore drops results scoring below s (0..1).
func WithMinScore(s float64) Option {
	return func(c *config) {
		if s >= 0 && s <= 1 {
			c.minScore = s
		}
	}
}

// WithMaxDocs caps the number of indexed names.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	name  string
	key   string
	grams map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndexFromStrings builds an Index over item names. Blank names and
// case-insensitive duplicates are skipped (first spelling wins).
func NewIndexFromStrings(names []string, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.Join(strings.Fields(raw), " ")
		if name == "" {
			continue
		}
		key := fold(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		docs = append(docs, doc{name: name, key: key, grams: trigrams(key)})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

// TopK returns up to k names most similar to q. An exact (case-insensitive)
// match is never returned: the index exists to suggest alternatives.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 {
		return nil
	}
	q = strings.Join(strings.Fields(q), " ")
	if q == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qKey := fold(q)
	qGrams := trigrams(qKey)

	buf := make([]Result, 0, min(k*4, len(i.docs)))
	for _, d := range i.docs {
		if d.key == qKey {
			continue
		}
		over := overlap(qGrams, d.grams)
		if over == 0 {
			continue
		}
		score := float64(over) / float64(len(qGrams)+len(d.grams)-over)
		if score < i.cfg.minScore {
			continue
		}
		buf = append(buf, Result{Name: d.name, Score: score})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		la, lb := utf8.RuneCountInString(buf[a].Name), utf8.RuneCountInString(buf[b].Name)
		if la != lb {
			return la < lb
		}
		return buf[a].Name < buf[b].Name
	})

	if k > len(buf) {
		k = len(buf)
	}
	return buf[:k]
}

// Suggest returns the single best alternative for q, if any.
func Suggest(idx Index, q string) (string, bool) {
	if idx == nil {
		return "", false
	}
	res := idx.TopK(q, 1)
	if len(res) == 0 {
		return "", false
	}
	return res[0].Name, true
}

// ----------------------------------------------------------------------------
// Helpers

func fold(s string) string { return cases.Fold().String(s) }

func trigrams(s string) map[string]struct{} {
	r := []rune("  " + s + " ")
	out := make(map[string]struct{}, len(r))
	for i := 0; i+3 <= len(r); i++ {
		out[string(r[i:i+3])] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
