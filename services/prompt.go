package services

import "github.com/tmc/langchaingo/prompts"

const knowledgePromptTemplate = `Answer the question based on the context. Include a short citation from the source doc at the end.
Question: {{.question}}
Context: {{.context}}`

// NewKnowledgePrompt returns the single-turn prompt used for knowledge
// answers. It expects the "question" and "context" variables.
func NewKnowledgePrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(knowledgePromptTemplate, []string{"question", "context"})
}
