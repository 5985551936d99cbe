package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Key builds a deterministic cache key from a prefix, positional parts, and
// named parts. Named parts are sorted before hashing, so callers can supply
// them in any order and land on the same key. The prefix stays visible in
// the final key for easy browsing of the backing stores.
func Key(prefix string, args []string, kw map[string]string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, a := range args {
		b.WriteByte('|')
		b.WriteString(a)
	}

	names := make([]string, 0, len(kw))
	for k := range kw {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kw[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
