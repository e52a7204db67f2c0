// Package climber turns a user's logbook records into the two context
// views every downstream component consumes: a natural-language summary
// for prompts and a structured map for rule-based enrichment.
package climber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cruxlog/beta/internal/store"
)

// AggregatedContext is the context bundle a request carries. The
// orchestration core only ever reads core_data.climber_summary and
// core_data.performance_metrics, through the Formatter boundary.
type AggregatedContext struct {
	CoreData         map[string]any `json:"core_data"`
	SupplementalData map[string]any `json:"supplemental_data"`
	Metadata         map[string]any `json:"metadata"`
}

// FormattedContext is the two-view rendering of an aggregated context.
type FormattedContext struct {
	Conversational string
	Structured     map[string]any
}

// Aggregator assembles a user's aggregated context.
type Aggregator interface {
	Aggregate(ctx context.Context, userID string, customInstructions string) (*AggregatedContext, error)
}

// Formatter renders an aggregated context into both views.
type Formatter interface {
	Format(agg *AggregatedContext) FormattedContext
}

// StoreAggregator builds the aggregated context from the logbook store.
type StoreAggregator struct {
	store *store.Store
}

// NewStoreAggregator creates an aggregator backed by the logbook store.
func NewStoreAggregator(s *store.Store) *StoreAggregator {
	return &StoreAggregator{store: s}
}

// Aggregate collects the user's profile and recent ascents into the
// context bundle shape.
func (a *StoreAggregator) Aggregate(ctx context.Context, userID string, customInstructions string) (*AggregatedContext, error) {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate context: %w", err)
	}

	ticks, err := a.store.RecentTicks(ctx, userID, 20)
	if err != nil {
		return nil, fmt.Errorf("aggregate context: %w", err)
	}

	summary := map[string]any{
		"name":        user.Name,
		"total_ticks": len(ticks),
	}
	metrics := map[string]any{}
	if len(ticks) > 0 {
		hardest := ticks[0].Grade
		styles := map[string]int{}
		recent := make([]map[string]any, 0, len(ticks))
		for _, t := range ticks {
			if CompareGrades(t.Grade, hardest) > 0 {
				hardest = t.Grade
			}
			styles[t.Style]++
			recent = append(recent, map[string]any{
				"route": t.Route,
				"grade": t.Grade,
				"style": t.Style,
			})
		}
		summary["hardest_grade"] = hardest
		metrics["hardest_grade"] = hardest
		metrics["style_counts"] = styles
		metrics["recent_sends"] = recent
		metrics["last_logged"] = ticks[0].LoggedAt.UTC().Format(time.RFC3339)
	}

	agg := &AggregatedContext{
		CoreData: map[string]any{
			"climber_summary":     summary,
			"performance_metrics": metrics,
		},
		SupplementalData: map[string]any{},
		Metadata: map[string]any{
			"aggregated_at": time.Now().UTC().Format(time.RFC3339),
			"source":        "logbook",
		},
	}
	if customInstructions != "" {
		agg.SupplementalData["custom_instructions"] = customInstructions
	}
	return agg, nil
}

// DefaultFormatter renders an aggregated context for prompts.
type DefaultFormatter struct{}

// NewFormatter creates the default context formatter.
func NewFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// Format produces the conversational summary and the structured map.
func (f *DefaultFormatter) Format(agg *AggregatedContext) FormattedContext {
	if agg == nil {
		return FormattedContext{Structured: map[string]any{}}
	}

	structured := map[string]any{}
	var parts []string

	if summary, ok := agg.CoreData["climber_summary"].(map[string]any); ok {
		structured["climber_summary"] = summary
		if name, ok := summary["name"].(string); ok && name != "" {
			parts = append(parts, fmt.Sprintf("Climber: %s.", name))
		}
		if hardest, ok := summary["hardest_grade"].(string); ok && hardest != "" {
			parts = append(parts, fmt.Sprintf("Hardest recent send: %s (%s in YDS).", hardest, ToYDS(hardest)))
		}
		if total, ok := summary["total_ticks"].(int); ok {
			parts = append(parts, fmt.Sprintf("%d ascents in the recent log.", total))
		}
	}

	if metrics, ok := agg.CoreData["performance_metrics"].(map[string]any); ok {
		structured["performance_metrics"] = metrics
		if styles, ok := metrics["style_counts"].(map[string]int); ok {
			var styleParts []string
			for style, count := range styles {
				styleParts = append(styleParts, fmt.Sprintf("%d %s", count, style))
			}
			if len(styleParts) > 0 {
				parts = append(parts, "Send styles: "+strings.Join(styleParts, ", ")+".")
			}
		}
	}

	if instructions, ok := agg.SupplementalData["custom_instructions"].(string); ok && instructions != "" {
		parts = append(parts, "Preferences: "+instructions)
	}

	conversational := strings.Join(parts, " ")
	if conversational == "" {
		conversational = "No climbing history available for this user."
	}

	return FormattedContext{
		Conversational: conversational,
		Structured:     structured,
	}
}
