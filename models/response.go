package models

type QueryResponse struct {
	Response string           `json:"response"`
	Intent   Intent           `json:"intent,omitempty"`
	OrderID  string           `json:"orderId,omitempty"`
	Sources  []SourceDocument `json:"sources,omitempty"`
}

type IngestResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Ready         bool   `json:"ready"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}
