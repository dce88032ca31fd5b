package transaction

import "strings"

// Hints is the parsed form of the free-form `key=value` sequence a
// client submits before the role method (§4.5). Unknown hints are
// ignored rather than rejected; hints are immutable once parsed.
type Hints struct {
	Locale                string
	Background            bool
	Interactive           bool
	CacheAgeSeconds       uint64
	CacheAgeUnbounded     bool
	DetailsWithDepsSize   bool
	SupportsPluralSignals bool
	FrontendSocket        string
}

// ParseHints splits each "key=value" entry and fills in the hints it
// recognizes; malformed entries (no '=') and unrecognized keys are
// silently ignored.
func ParseHints(pairs []string) Hints {
	var h Hints
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch key {
		case "locale":
			h.Locale = value
		case "background":
			h.Background = value == "true"
		case "interactive":
			h.Interactive = value == "true"
		case "cache-age":
			if value == "MAX" {
				h.CacheAgeUnbounded = true
				continue
			}
			if n, ok := parseUint(value); ok {
				h.CacheAgeSeconds = n
			}
		case "details-with-deps-size":
			h.DetailsWithDepsSize = value == "true"
		case "supports-plural-signals":
			h.SupportsPluralSignals = value == "true"
		case "frontend-socket":
			h.FrontendSocket = value
		}
	}
	return h
}

func parseUint(s string) (uint64, bool) {
	var n uint64
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + uint64(r-'0')
	}
	return n, true
}
