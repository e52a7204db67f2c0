package chat

import (
	"time"

	"github.com/cruxlog/beta/internal/llm"
)

const (
	// maxHistoryMessages caps how much history is forwarded to a backend.
	maxHistoryMessages = 10

	// maxHistoryAge drops stale messages from the forwarded history.
	maxHistoryAge = 3600 * time.Second
)

// CleanHistory filters a raw history down to what a backend call may see:
// entries with both role and content, no older than an hour, most recent
// ten only. Order is preserved.
func CleanHistory(history []Message, now time.Time) []Message {
	if len(history) == 0 {
		return nil
	}

	cutoff := now.Add(-maxHistoryAge).Unix()
	cleaned := make([]Message, 0, len(history))
	for _, msg := range history {
		if msg.Role == "" || msg.Content == "" {
			continue
		}
		if msg.Timestamp < cutoff {
			continue
		}
		cleaned = append(cleaned, msg)
	}

	if len(cleaned) > maxHistoryMessages {
		cleaned = cleaned[len(cleaned)-maxHistoryMessages:]
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// historyToLLM converts cleaned history into backend message format.
func historyToLLM(history []Message) []llm.Message {
	if len(history) == 0 {
		return nil
	}
	out := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		out = append(out, llm.Message{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
