package llm

import (
	"github.com/rs/zerolog"
)

// Clients bundles the two retrying backend clients the pipeline uses.
type Clients struct {
	// Conversational serves chat completions and evaluation probes.
	Conversational *Client
	// Reasoning serves split-response analysis.
	Reasoning *Client
	// Limiter is shared between the clients.
	Limiter *RateLimiter
}

// NewClients builds the conversational and reasoning clients from their
// configs, sharing one rate limiter between them.
func NewClients(conv, reason *ProviderConfig, log zerolog.Logger) *Clients {
	limiter := NewRateLimiter()
	return &Clients{
		Conversational: NewClient(NewConversationalProvider(conv), conv, limiter,
			log.With().Str("backend", "conversational").Logger()),
		Reasoning: NewClient(NewReasoningProvider(reason), reason, limiter,
			log.With().Str("backend", "reasoning").Logger()),
		Limiter: limiter,
	}
}
