package middleware

import (
	"context"
	"regexp"

	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/ports"
)

// Mask replaces the values of masked keys.
const Mask = "***"

type piiMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of keys matching
// the patterns, at any depth, before documents reach the store. Masking is
// one way: loads return the masked values.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, id string, doc domain.Document) error {
	masked := doc.Clone()
	m.mask(masked)
	return m.next.Save(ctx, id, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (domain.Document, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(v any) {
	switch x := v.(type) {
	case domain.Document:
		m.maskMap(x)
	case map[string]any:
		m.maskMap(x)
	case []any:
		for _, item := range x {
			m.mask(item)
		}
	}
}

func (m *piiMiddleware) maskMap(doc map[string]any) {
	for k, v := range doc {
		if k != domain.IDField && m.matches(k) {
			doc[k] = Mask
			continue
		}
		m.mask(v)
	}
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
