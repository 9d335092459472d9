// internal/workers/ai-conversation/enrich-web-search/models.go
package enrichwebsearch

import "fep-agent/internal/models"

type Input struct {
	Query   string               `json:"query"`
	History []models.ChatMessage `json:"history"`
}

type Output struct {
	Response   string   `json:"response"`
	Source     string   `json:"source"`
	Confidence float64  `json:"confidence"`
	WebSources []Result `json:"webSources"`
}

// Result is one normalised search hit.
type Result struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// rawResult carries every field name search providers use for a hit.
type rawResult struct {
	Source  string  `json:"source"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Snippet string  `json:"snippet"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

func (r rawResult) normalize() Result {
	return Result{
		Source:  firstNonEmpty(r.Source, r.URL, r.Title, "Unknown Source"),
		Title:   r.Title,
		Content: firstNonEmpty(r.Content, r.Snippet, r.Text),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
