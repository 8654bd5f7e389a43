package models

// Answer is the result of a knowledge query: generated text, the source file
// of the top retrieved chunk, and the chunks the text was generated from.
type Answer struct {
	Body     string           `json:"body"`
	Citation string           `json:"citation"`
	Sources  []SourceDocument `json:"sources,omitempty"`
}

// SourceDocument represents a chunk of text and its origin.
type SourceDocument struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}
