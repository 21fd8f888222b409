package webhookmq

import (
	"strings"
	"unicode"
)

// NormalizePath canonicalizes a route path: one trailing slash is stripped
// (unless the path is the root "/") and a leading slash is ensured.
// Producers and consumers normalize independently and agree on the
// canonical form.
func NormalizePath(path string) string {
	if path != "/" && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return path
}

// QueueName derives the queue name for a normalized path: leading and
// trailing slashes are stripped and every remaining non-alphanumeric
// character becomes an underscore. The mapping is deterministic but not
// injective ("/a/b" and "/a-b" both yield "a_b"); callers multiplexing on
// paths must avoid characters that collide.
func QueueName(path string) string {
	trimmed := strings.Trim(path, "/")

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
