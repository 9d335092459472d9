package models

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolName identifies an answer source.
type ToolName string

const (
	RagTool       ToolName = "rag_tool"
	DirectLLMTool ToolName = "direct_llm_tool"
	WebSearchTool ToolName = "web_search_tool"
)

// FallbackOrder is the order in which answer sources are retried.
var FallbackOrder = []ToolName{RagTool, DirectLLMTool, WebSearchTool}

const DefaultFallbackSource = "default_fallback"

const DefaultFallbackMessage = "I'm sorry, I'm having trouble generating a response at the moment. Please try rephrasing your question or try again later."

// ChatResponse is the body returned by the chat endpoint.
type ChatResponse struct {
	Success        bool     `json:"success"`
	Response       string   `json:"response"`
	Source         string   `json:"source"`
	Sources        []string `json:"sources"`
	ProcessingTime float64  `json:"processing_time"`
}
