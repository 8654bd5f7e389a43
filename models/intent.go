package models

type Intent string

const (
	IntentReturn      Intent = "return"
	IntentOrderStatus Intent = "order-status"
	IntentFallback    Intent = "fallback"
)

// IntentDecision is the per-utterance routing outcome. OrderID is empty for
// the fallback intent; Sources is only set when the knowledge base answered.
type IntentDecision struct {
	Intent   Intent           `json:"intent"`
	OrderID  string           `json:"orderId,omitempty"`
	Response string           `json:"response"`
	Sources  []SourceDocument `json:"sources,omitempty"`
}
