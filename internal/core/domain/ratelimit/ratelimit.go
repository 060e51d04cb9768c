package ratelimit

import "time"

// Rule names a limiter and its sliding-window budget.
type Rule struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// Result is the outcome of a single check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds for the Retry-After header.
func (r Result) RetryAfterSeconds() int {
	if r.RetryAfter <= 0 {
		return 0
	}
	secs := int(r.RetryAfter / time.Second)
	if r.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}

// Built-in rules for the auth endpoints.
var (
	LoginRule    = Rule{Name: "login", MaxRequests: 5, Window: time.Minute}
	RegisterRule = Rule{Name: "register", MaxRequests: 3, Window: time.Minute}
	PasswordRule = Rule{Name: "password", MaxRequests: 5, Window: time.Minute}
	SessionRule  = Rule{Name: "session", MaxRequests: 60, Window: time.Minute}
	LogoutRule   = Rule{Name: "logout", MaxRequests: 20, Window: time.Minute}
)
