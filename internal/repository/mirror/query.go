package mirror

import (
	"strings"

	"github.com/kailas-cloud/imagedex/internal/db/redis"
)

// buildQuery turns free text into a RediSearch query: one fuzzy token per
// term, space-joined so every term must match. Field weights (name boosted)
// come from the index schema. Terms too short for fuzzy matching are kept as
// exact tokens; fuzzy distance 1 needs at least 3 characters to be useful.
func buildQuery(text string) string {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return ""
	}

	tokens := make([]string, 0, len(terms))
	for _, term := range terms {
		escaped := redis.EscapeQuery(term)
		if escaped == "" {
			continue
		}
		if len(term) >= 3 {
			tokens = append(tokens, "%"+escaped+"%")
		} else {
			tokens = append(tokens, escaped)
		}
	}
	return strings.Join(tokens, " ")
}
