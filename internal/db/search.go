package db

// TextQuery is the input for a full-text FT.SEARCH. Query uses the RediSearch
// query syntax; callers are responsible for escaping user input.
type TextQuery struct {
	IndexName    string
	Query        string
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
