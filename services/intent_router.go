package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github/itish2003/voicecare/models"
)

const (
	// DefaultOrderID stands in when the utterance carries no digits. It is a
	// demo placeholder, not a lookup of the caller's latest order.
	DefaultOrderID = "12345"

	KnowledgeApology  = "Sorry, I couldn’t process your request due to a missing or corrupted index."
	ApologyCitation   = "System"
	delayNoticeFormat = "Contact support if delivery exceeds the estimated date for Order %s"
	orderStatusFormat = "Order %s is shipped. Expected delivery: Oct 5."
)

var orderIDPattern = regexp.MustCompile(`\d+`)

// IntentRule is one (predicate, handler) pair. Predicates see the
// lower-cased utterance; handlers see the original one.
type IntentRule struct {
	Intent  models.Intent
	Matches func(lowered string) bool
	Handle  func(ctx context.Context, utterance string) models.IntentDecision
}

// IntentRouter evaluates its rules in order; the first match wins.
type IntentRouter struct {
	rules []IntentRule
}

// NewIntentRouter builds the support rules: returns/refunds, order status,
// then the knowledge fallback, which always matches.
func NewIntentRouter(knowledge KnowledgeService) *IntentRouter {
	return &IntentRouter{rules: []IntentRule{
		{
			Intent:  models.IntentReturn,
			Matches: containsAny("return", "refund"),
			Handle:  templatedResponse(models.IntentReturn, delayNoticeFormat),
		},
		{
			Intent:  models.IntentOrderStatus,
			Matches: containsAny("order status", "track order"),
			Handle:  templatedResponse(models.IntentOrderStatus, orderStatusFormat),
		},
		{
			Intent:  models.IntentFallback,
			Matches: func(string) bool { return true },
			Handle:  knowledgeFallback(knowledge),
		},
	}}
}

// Route returns the response text for one utterance.
func (r *IntentRouter) Route(ctx context.Context, utterance string) string {
	return r.Decide(ctx, utterance).Response
}

func (r *IntentRouter) Decide(ctx context.Context, utterance string) models.IntentDecision {
	lowered := strings.ToLower(utterance)
	for _, rule := range r.rules {
		if rule.Matches(lowered) {
			decision := rule.Handle(ctx, utterance)
			log.Printf("ROUTER: Intent %s for '%s'", decision.Intent, utterance)
			return decision
		}
	}
	// Unreachable with the default rules.
	return knowledgeApology()
}

// ExtractOrderID returns the first run of decimal digits, or DefaultOrderID.
func ExtractOrderID(utterance string) string {
	if match := orderIDPattern.FindString(utterance); match != "" {
		return match
	}
	return DefaultOrderID
}

func containsAny(needles ...string) func(string) bool {
	return func(lowered string) bool {
		for _, needle := range needles {
			if strings.Contains(lowered, needle) {
				return true
			}
		}
		return false
	}
}

func templatedResponse(intent models.Intent, format string) func(context.Context, string) models.IntentDecision {
	return func(_ context.Context, utterance string) models.IntentDecision {
		orderID := ExtractOrderID(utterance)
		return models.IntentDecision{
			Intent:   intent,
			OrderID:  orderID,
			Response: fmt.Sprintf(format, orderID),
		}
	}
}

func knowledgeFallback(knowledge KnowledgeService) func(context.Context, string) models.IntentDecision {
	return func(ctx context.Context, utterance string) models.IntentDecision {
		answer, err := knowledge.Query(ctx, utterance)
		if err != nil {
			log.Printf("ROUTER: Knowledge query failed: %v", err)
			return knowledgeApology()
		}
		return models.IntentDecision{
			Intent:   models.IntentFallback,
			Response: withCitation(answer.Body, answer.Citation),
			Sources:  answer.Sources,
		}
	}
}

func knowledgeApology() models.IntentDecision {
	return models.IntentDecision{
		Intent:   models.IntentFallback,
		Response: withCitation(KnowledgeApology, ApologyCitation),
	}
}

func withCitation(body, citation string) string {
	return body + " (from " + citation + ")"
}
