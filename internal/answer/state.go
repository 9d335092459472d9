// internal/answer/state.go
package answer

import (
	"strings"

	"fep-agent/internal/models"
)

// Stage is a node of the answer workflow.
type Stage string

const (
	StageRouting    Stage = "routing"
	StageExecuting  Stage = "executing"
	StageFinalizing Stage = "finalizing"
	StageDone       Stage = "done"
)

// Request is what every tool receives.
type Request struct {
	Query   string               `json:"input"`
	History []models.ChatMessage `json:"chat_history"`
}

// Answer is a successful tool result.
type Answer struct {
	Response   string  `json:"response"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// State is the record threaded through one workflow run.
type State struct {
	Input        string               `json:"input"`
	ChatHistory  []models.ChatMessage `json:"chat_history"`
	SelectedTool models.ToolName      `json:"selected_tool"`
	Response     string               `json:"response,omitempty"`
	Source       string               `json:"source,omitempty"`
	Confidence   float64              `json:"confidence,omitempty"`
	ToolFailed   bool                 `json:"tool_failed"`
	Stage        Stage                `json:"stage"`
	// Attempts lists the tools run, in order.
	Attempts []models.ToolName `json:"attempts"`
}

func newState(req Request) *State {
	return &State{Input: req.Query, ChatHistory: req.History, Stage: StageRouting}
}

func (s *State) request() Request {
	return Request{Query: s.Input, History: s.ChatHistory}
}

func (s *State) succeed(a *Answer, source string) {
	s.Response = a.Response
	s.Source = source
	s.Confidence = a.Confidence
	s.ToolFailed = false
}

func (s *State) defaultFallback() {
	s.Response = models.DefaultFallbackMessage
	s.Source = models.DefaultFallbackSource
	s.Confidence = 0
	s.ToolFailed = false
	s.Stage = StageDone
}

// FallbackSource tags an answer produced after the selected tool failed.
func FallbackSource(fallback, original models.ToolName) string {
	return string(fallback) + " (fallback from " + string(original) + ")"
}

// Fallbacks returns the fallback order with the already tried tool removed.
func Fallbacks(tried models.ToolName) []models.ToolName {
	out := make([]models.ToolName, 0, len(models.FallbackOrder))
	for _, t := range models.FallbackOrder {
		if t != tried {
			out = append(out, t)
		}
	}
	return out
}

// Sources lists the attribution labels for a final source tag.
func Sources(source string) []string {
	switch {
	case strings.HasPrefix(source, "rag"):
		return []string{"FEP Policy Documents"}
	case strings.HasPrefix(source, "web"):
		return []string{"Web Search Results"}
	}
	return []string{}
}
