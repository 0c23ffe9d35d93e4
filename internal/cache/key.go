package cache

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DeriveKey maps a question and an optional context tag to a short cache key. The
// question is case-folded and trimmed first, so trivially different phrasings of the same
// text share one slot. The hash is not collision-free; a false hit only serves a
// regenerable answer.
func DeriveKey(query, contextTag string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if contextTag != "" {
		normalized += "|" + contextTag
	}
	return strconv.FormatUint(xxhash.Sum64String(normalized), 36)
}
