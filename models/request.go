package models

type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// VoiceWebhookRequest holds the form fields the telephony provider posts on
// every call turn.
type VoiceWebhookRequest struct {
	CallSid      string  `form:"CallSid"`
	SpeechResult string  `form:"SpeechResult"`
	Confidence   float64 `form:"Confidence"`
}

type DocumentRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type DocumentAppendRequest struct {
	Content string `json:"content" binding:"required"`
}
