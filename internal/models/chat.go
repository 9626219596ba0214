package models

// Roles of a chat turn as stored by the assistant endpoint.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of the dashboard assistant conversation.
type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}
