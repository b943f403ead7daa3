package domain

// KeyPrefix namespaces all search-index keys.
const KeyPrefix = "imagedex:"

// IndexEntry is a raw hit from the search index: the asset ID plus the stored
// fields as returned by the index. Projection to the public shape happens in
// the query gateway, which drops entries that lack required fields.
type IndexEntry struct {
	ID     string
	Score  float64
	Fields map[string]string
}
