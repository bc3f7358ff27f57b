package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// originPolicy is the allow-list shared by the WebSocket upgrader and the
// CORS middleware. Origins are compared as lower-cased scheme://host.
type originPolicy struct {
	any     bool
	origins []string
	allowed map[string]struct{}
}

func newOriginPolicy(configured []string) *originPolicy {
	p := &originPolicy{allowed: make(map[string]struct{}, len(configured))}

	for _, raw := range configured {
		raw = strings.TrimSpace(raw)
		switch raw {
		case "":
			continue
		case "*":
			p.any = true
			continue
		}

		origin, ok := canonicalOrigin(raw)
		if !ok {
			log.Warn().Str("origin", raw).Msg("ignoring invalid origin in configuration")
			continue
		}
		if _, dup := p.allowed[origin]; dup {
			continue
		}
		p.allowed[origin] = struct{}{}
		p.origins = append(p.origins, origin)
	}
	return p
}

// canonicalOrigin reduces an origin or URL to scheme://host.
func canonicalOrigin(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

// allows reports whether a request carrying origin may connect. Requests
// without an Origin header are refused even under "*".
func (p *originPolicy) allows(origin string) bool {
	canonical, ok := canonicalOrigin(origin)
	if !ok {
		return false
	}
	if p.any {
		return true
	}
	_, allowed := p.allowed[canonical]
	return allowed
}

// checkOrigin is the upgrader's CheckOrigin hook.
func (p *originPolicy) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if p.allows(origin) {
		return true
	}
	log.Warn().Str("origin", origin).Str("remote_addr", r.RemoteAddr).Msg("blocked WebSocket connection from disallowed origin")
	return false
}

// corsOrigins lists the origins handed to the CORS middleware.
func (p *originPolicy) corsOrigins() []string {
	if p.any {
		return []string{"*"}
	}
	return append([]string(nil), p.origins...)
}
