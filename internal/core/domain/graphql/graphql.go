package graphql

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Request is the body accepted by the proxy and sent to the origin.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Error is a single GraphQL error entry.
type Error struct {
	Message string `json:"message"`
}

// Response is the raw GraphQL envelope. Data is left undecoded so the proxy
// can pass it through byte-for-byte and typed callers can decode their own shape.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []Error         `json:"errors,omitempty"`
}

// HasErrors reports whether the origin returned any GraphQL errors.
func (r *Response) HasErrors() bool {
	return len(r.Errors) > 0
}

// FirstError returns the first error message or an empty string.
func (r *Response) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

var operationPattern = regexp.MustCompile(`\b(query|mutation)\s+(\w+)`)

// OperationName returns the name of the first named query or mutation in the
// document, or "" for anonymous operations.
func OperationName(query string) string {
	m := operationPattern.FindStringSubmatch(query)
	if len(m) < 3 {
		return ""
	}
	return m[2]
}

// IsMutation reports whether any operation in the document is a mutation.
// Fragment definitions are skipped and operations may be anonymous, so the
// check walks the top-level definitions instead of matching a name.
func IsMutation(query string) bool {
	for _, op := range operationTypes(query) {
		if op == "mutation" {
			return true
		}
	}
	return false
}

// operationTypes lists the type of every top-level operation in document
// order. A bare selection set counts as a query.
func operationTypes(doc string) []string {
	var (
		ops        []string
		braces     int
		parens     int
		atDefStart = true
	)
	for i := 0; i < len(doc); i++ {
		switch ch := doc[i]; {
		case ch == '#':
			for i < len(doc) && doc[i] != '\n' {
				i++
			}
		case ch == '"':
			i = skipString(doc, i)
		case ch == '(':
			parens++
		case ch == ')':
			parens--
		case ch == '{':
			if braces == 0 && parens == 0 && atDefStart {
				ops = append(ops, "query")
				atDefStart = false
			}
			braces++
		case ch == '}':
			braces--
			if braces == 0 && parens == 0 {
				atDefStart = true
			}
		case isNameStart(ch):
			j := i
			for j < len(doc) && isNameChar(doc[j]) {
				j++
			}
			if braces == 0 && parens == 0 && atDefStart {
				switch word := doc[i:j]; word {
				case "query", "mutation", "subscription":
					ops = append(ops, word)
				}
				atDefStart = false
			}
			i = j - 1
		}
	}
	return ops
}

// skipString returns the index of the closing quote of the string starting at i.
func skipString(doc string, i int) int {
	if strings.HasPrefix(doc[i:], `"""`) {
		if end := strings.Index(doc[i+3:], `"""`); end >= 0 {
			return i + 3 + end + 2
		}
		return len(doc)
	}
	for j := i + 1; j < len(doc); j++ {
		switch doc[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return len(doc)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
