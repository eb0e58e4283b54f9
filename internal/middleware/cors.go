package middleware

import (
	"net/http"
	"strings"
)

// originPolicy is an allow-list of origins; "*" or an empty list allows all.
type originPolicy struct {
	allowAll bool
	origins  map[string]struct{}
}

func newOriginPolicy(allowed []string) originPolicy {
	p := originPolicy{
		allowAll: len(allowed) == 0,
		origins:  make(map[string]struct{}, len(allowed)),
	}
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			p.allowAll = true
		}
		if origin != "" {
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS answers preflight requests and sets the allow-origin header. An origin
// list containing "*" allows every origin.
func CORS(allowed []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case policy.allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && policy.allows(origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CheckOrigin returns a WebSocket origin check with the same allow-list
// semantics as CORS. Requests without an Origin header are not from a
// browser and pass.
func CheckOrigin(allowed []string) func(*http.Request) bool {
	policy := newOriginPolicy(allowed)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || policy.allows(origin)
	}
}
