package cycle

import (
	"net/url"
	"strings"
)

// normalize copies the inbound parameter set with every value scrubbed of
// NUL and control characters (tab and newline survive). Parameter names pass
// through untouched: names that carry structure (event tokens, namespaced
// fields) never legitimately contain control characters, and a mangled name
// simply matches nothing downstream.
func normalize(raw url.Values) url.Values {
	out := make(url.Values, len(raw))
	for name, vals := range raw {
		clean := make([]string, len(vals))
		for i, v := range vals {
			clean[i] = sanitize(v)
		}
		out[name] = clean
	}
	return out
}

func sanitize(v string) string {
	if !strings.ContainsFunc(v, isControl) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if !isControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r < 0x20 || r == 0x7f
}
