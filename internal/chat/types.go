// Package chat implements the conversational orchestrator: it resolves the
// user's tier, aggregates their climbing context, runs the cheap
// conversational call, and for premium users coordinates the evaluation,
// reasoning and enhancement stages under strict time budgets.
package chat

import (
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single entry in the conversation history. Timestamp is in
// epoch seconds; insertion order is significant.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ResponseType distinguishes the two answer shapes the orchestrator can
// produce.
type ResponseType string

const (
	// ResponseConversational is a plain single-call answer.
	ResponseConversational ResponseType = "conversational"
	// ResponseAdvanced carries a reasoning-backed answer.
	ResponseAdvanced ResponseType = "advanced"
)

// Fallback reasons attached to degraded-but-successful responses.
const (
	FallbackReasoningTimeout = "reasoning_timeout"
	FallbackReasoningError   = "reasoning_error"
)

// Response is the successful payload handed to the caller.
type Response struct {
	RequestID          string       `json:"request_id"`
	Response           string       `json:"response"`
	ResponseType       ResponseType `json:"response_type"`
	ReasoningAvailable bool         `json:"reasoning_available,omitempty"`
	RawReasoning       string       `json:"raw_reasoning,omitempty"`
	FallbackReason     string       `json:"fallback_reason,omitempty"`
	Timestamp          string       `json:"timestamp"`
}

// newResponse stamps a payload with the request id and current time.
func newResponse(requestID, text string, respType ResponseType) *Response {
	return &Response{
		RequestID:    requestID,
		Response:     text,
		ResponseType: respType,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}

