package cachepolicy

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/avatarctic/headless-gateway/internal/core/domain/graphql"
	"golang.org/x/crypto/blake2b"
)

// DefaultTTL applies to operations absent from the TTL table.
const DefaultTTL = 60 * time.Second

// KeyPrefix namespaces GraphQL response cache keys.
const KeyPrefix = "gql"

// Policy decides whether a GraphQL operation may be cached and for how long.
// The zero value is not usable; build one with New or Default.
type Policy struct {
	ttls       map[string]time.Duration
	deny       map[string]struct{}
	defaultTTL time.Duration
}

// Default returns the storefront's built-in TTL table and deny list.
func Default() *Policy {
	return New(defaultTTLs(), defaultDenyList(), DefaultTTL)
}

// New builds a policy from an explicit TTL table and deny list.
func New(ttls map[string]time.Duration, deny []string, defaultTTL time.Duration) *Policy {
	p := &Policy{
		ttls:       make(map[string]time.Duration, len(ttls)),
		deny:       make(map[string]struct{}, len(deny)),
		defaultTTL: defaultTTL,
	}
	for op, ttl := range ttls {
		p.ttls[op] = ttl
	}
	for _, op := range deny {
		p.deny[op] = struct{}{}
	}
	if p.defaultTTL <= 0 {
		p.defaultTTL = DefaultTTL
	}
	return p
}

func defaultTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		// site configuration
		"GetSiteSettings":      300 * time.Second,
		"GetMenuByLocation":    300 * time.Second,
		"GetMenuBySlug":        300 * time.Second,
		"GetProductCategories": 300 * time.Second,

		// listings
		"GetPages":              120 * time.Second,
		"GetPosts":              120 * time.Second,
		"GetProducts":           120 * time.Second,
		"GetProductsByCategory": 120 * time.Second,

		// single entities
		"GetPageByUri":             60 * time.Second,
		"GetPostBySlug":            60 * time.Second,
		"GetProductBySlug":         60 * time.Second,
		"GetProductCategoryBySlug": 60 * time.Second,

		"GetCommentsByPost": 30 * time.Second,
	}
}

func defaultDenyList() []string {
	return []string{
		// cart and checkout
		"GetCart",
		"AddToCart",
		"UpdateCartItems",
		"RemoveCartItems",
		"Checkout",
		// auth
		"Login",
		"LoginUser",
		"Register",
		"RegisterUser",
		"RefreshToken",
		"GetViewer",
		"GetCustomer",
		// user-generated content
		"CreateComment",
		"WriteReview",
		// drafts
		"GetPreview",
	}
}

// ShouldCache reports whether a response to query may be read from or written
// to the shared cache. Bearer-authenticated requests, mutations and denied
// operations are never cached.
func (p *Policy) ShouldCache(query, authHeader string) bool {
	if strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	if graphql.IsMutation(query) {
		return false
	}
	if op := graphql.OperationName(query); op != "" {
		if _, denied := p.deny[op]; denied {
			return false
		}
	}
	return true
}

// TTL returns the freshness lifetime for an operation name.
func (p *Policy) TTL(operationName string) time.Duration {
	if ttl, ok := p.ttls[operationName]; ok {
		return ttl
	}
	return p.defaultTTL
}

// Key derives a deterministic cache key from the operation name and the
// canonical form of variables. Variable maps that differ only in key order
// produce the same key; nil and empty maps are equivalent.
func (p *Policy) Key(query string, variables map[string]any) string {
	op := graphql.OperationName(query)
	if op == "" {
		op = "unknown"
	}

	h, _ := blake2b.New256(nil)
	h.Write([]byte(op))
	h.Write([]byte{0})
	h.Write(Canonicalize(variables))
	// anonymous documents share the "unknown" name, so the text must be part of the key
	if op == "unknown" {
		h.Write([]byte{0})
		h.Write([]byte(strings.TrimSpace(query)))
	}
	return KeyPrefix + ":" + op + ":" + hex.EncodeToString(h.Sum(nil))
}

// Canonicalize serialises v as JSON with object keys sorted at every depth.
func Canonicalize(v map[string]any) []byte {
	if len(v) == 0 {
		return []byte("{}")
	}
	var buf bytes.Buffer
	writeCanonical(&buf, v)
	return buf.Bytes()
}

func writeCanonical(buf *bytes.Buffer, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			writeCanonical(buf, t[k])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, e)
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(t)
		if err != nil {
			buf.WriteString("null")
			return
		}
		buf.Write(b)
	}
}
