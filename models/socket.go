package models

const (
	EventUserMessage = "userMessage"
	EventBotResponse = "botResponse"
)

// SocketMessage is a single frame on the browser channel.
type SocketMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}
