// Package server normalizes and validates HTTP origins for WebSocket
// upgrade requests to enforce configured access control.
package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// OriginChecker holds the normalized allow-list for websocket upgrades.
type OriginChecker struct {
	allowAll bool
	allowed  map[string]struct{}
	log      zerolog.Logger
}

// NewOriginChecker builds a checker from the configured origin list. A "*"
// entry allows any origin; invalid entries are logged and skipped.
func NewOriginChecker(origins []string, logger zerolog.Logger) *OriginChecker {
	oc := &OriginChecker{
		allowed: make(map[string]struct{}, len(origins)),
		log:     logger.With().Str("component", "origin").Logger(),
	}

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			oc.allowAll = true
			continue
		}

		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			oc.log.Warn().Str("origin", origin).Msg("ignoring invalid origin in configuration")
			continue
		}
		oc.allowed[normalized] = struct{}{}
	}

	return oc
}

// Check is the upgrader's CheckOrigin hook.
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.isAllowed(r) {
		return true
	}

	oc.log.Warn().Str("origin", r.Header.Get("Origin")).Msg("blocked upgrade from disallowed origin")
	return false
}

func (oc *OriginChecker) isAllowed(r *http.Request) bool {
	originHeader := r.Header.Get("Origin")
	if originHeader == "" {
		return false
	}

	normalized, ok := normalizeOrigin(originHeader)
	if !ok {
		return false
	}

	if oc.allowAll {
		return true
	}

	_, exists := oc.allowed[normalized]
	return exists
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
