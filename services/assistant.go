package services

import (
	"context"

	"github/itish2003/voicecare/models"
)

const InitializingMessage = "Please wait, initializing knowledge base..."

// AssistantService is the single entry point every transport calls.
type AssistantService interface {
	Reply(ctx context.Context, utterance string) models.IntentDecision
	Ready() bool
}

type assistantServiceImpl struct {
	router    *IntentRouter
	readiness *Readiness
}

func NewAssistantService(router *IntentRouter, readiness *Readiness) AssistantService {
	return &assistantServiceImpl{router: router, readiness: readiness}
}

func (a *assistantServiceImpl) Reply(ctx context.Context, utterance string) models.IntentDecision {
	if !a.readiness.IsReady() {
		return models.IntentDecision{Response: InitializingMessage}
	}
	return a.router.Decide(ctx, utterance)
}

func (a *assistantServiceImpl) Ready() bool {
	return a.readiness.IsReady()
}
