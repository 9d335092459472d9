package genai

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object in completion")

// ExtractJSONObject pulls the outermost JSON object out of a completion
// that may be wrapped in prose or markdown code fences.
func ExtractJSONObject(content string) (json.RawMessage, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSONObject
	}
	raw := json.RawMessage(s[start : end+1])
	if !json.Valid(raw) {
		return nil, ErrNoJSONObject
	}
	return raw, nil
}
