// internal/hub/origin.go
package hub

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/erilali/webchat/internal/logger"
)

// originPolicy decides which browser origins may open a chat connection.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
	logger   *logger.Logger
}

func newOriginPolicy(origins []string, log *logger.Logger) originPolicy {
	if log == nil {
		log = logger.Nop()
	}
	p :=originPolicy{allowed: make(map[string]struct{}), logger: log}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			p.allowAll = true
			continue
		}

		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warnf("Ignoring invalid origin in configuration: %q", origin)
			continue
		}
		p.allowed[normalized] = struct{}{}
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// check is the upgrader's CheckOrigin. Requests without an Origin header come
// from non-browser clients and are let through.
func (p originPolicy) check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" || p.allowAll {
		return true
	}

	if normalized, ok := normalizeOrigin(header); ok {
		if _, allowed := p.allowed[normalized]; allowed {
			return true
		}
	}

	p.logger.Warnf("Blocked websocket connection from disallowed origin: %q", header)
	return false
}
