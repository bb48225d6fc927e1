package models

// SearchResult represents a normalized document snippet from the search
// index. Raw index documents vary by indexer pipeline, so each field is
// resolved through a list of candidate raw field names during
// normalization; missing fields fall back to empty or placeholder values.
type SearchResult struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Source     string   `json:"source"`
	SourceFile string   `json:"sourceFile"`
	SourceURI  string   `json:"sourceUri"`
	Score      float64  `json:"score"`
	Captions   []string `json:"captions,omitempty"`
}

// SourceFiles returns the distinct SourceFile values from results in
// first-seen order. Blank values are skipped.
func SourceFiles(results []SearchResult) []string {
	seen := make(map[string]struct{}, len(results))
	files := make([]string, 0, len(results))
	for _, r := range results {
		if r.SourceFile == "" {
			continue
		}
		if _, ok := seen[r.SourceFile]; ok {
			continue
		}
		seen[r.SourceFile] = struct{}{}
		files = append(files, r.SourceFile)
	}
	return files
}
