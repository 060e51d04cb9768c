package revalidation

// SecretHeader carries the shared secret on webhook calls.
const SecretHeader = "x-revalidate-secret"

// Endpoint is the frontend path that receives revalidation webhooks.
const Endpoint = "api/revalidate"

// Request is the webhook body: either All or a non-empty list of Paths.
type Request struct {
	Paths []string `json:"paths,omitempty"`
	All   bool     `json:"all,omitempty"`
}

// Response is returned by the consumer.
type Response struct {
	Revalidated bool     `json:"revalidated"`
	Scope       string   `json:"scope,omitempty"`
	Paths       []string `json:"paths,omitempty"`
}

// ScopeAll is the Response scope reported for whole-site invalidation.
const ScopeAll = "all"

// AllRequest invalidates the entire rendered site.
func AllRequest() Request {
	return Request{All: true}
}

// PathsRequest builds a paths request, de-duplicated and with empty entries
// removed. ok is false when nothing remains to send.
func PathsRequest(paths ...string) (req Request, ok bool) {
	deduped := Dedupe(paths)
	if len(deduped) == 0 {
		return Request{}, false
	}
	return Request{Paths: deduped}, true
}

// Dedupe removes empty and repeated paths while preserving first-seen order.
func Dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
