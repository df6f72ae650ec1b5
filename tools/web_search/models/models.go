package models

// Result is one web search hit.
type Result struct {
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
	Snippet   string `json:"snippet"`
}
