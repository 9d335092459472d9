// internal/workers/ai-conversation/answer-query/models.go
package answerquery

import (
	"encoding/json"

	"fep-agent/internal/models"
)

// Input accepts the question under "text", "input" or "query", in that
// order of precedence.
type Input struct {
	Text         string               `json:"text"`
	InputText    string               `json:"input"`
	Query        string               `json:"query"`
	History      []models.ChatMessage `json:"history"`
	UseWebSearch bool                 `json:"use_web_search"`
	RequestID    string               `json:"requestId,omitempty"`
}

func (i *Input) Question() string {
	for _, q := range []string{i.Text, i.InputText, i.Query} {
		if q != "" {
			return q
		}
	}
	return ""
}

// UnmarshalJSON tolerates a non-boolean use_web_search flag.
func (i *Input) UnmarshalJSON(data []byte) error {
	type plain Input
	var raw struct {
		plain
		UseWebSearch interface{} `json:"use_web_search"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Input(raw.plain)
	i.UseWebSearch = truthy(raw.UseWebSearch)
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false" && t != "0"
	case float64:
		return t != 0
	}
	return false
}

type Output = models.ChatResponse
