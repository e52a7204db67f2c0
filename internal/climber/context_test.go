package climber

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cruxlog/beta/internal/store"
)

// ============================================================================
// Formatter Tests
// ============================================================================

func TestDefaultFormatter_Format(t *testing.T) {
	agg := &AggregatedContext{
		CoreData: map[string]any{
			"climber_summary": map[string]any{
				"name":          "Alex",
				"total_ticks":   12,
				"hardest_grade": "7a",
			},
			"performance_metrics": map[string]any{
				"hardest_grade": "7a",
				"style_counts":  map[string]int{"redpoint": 10, "onsight": 2},
			},
		},
		SupplementalData: map[string]any{
			"custom_instructions": "keep answers short",
		},
	}

	formatted := NewFormatter().Format(agg)

	for _, want := range []string{
		"Climber: Alex.",
		"Hardest recent send: 7a (5.11d in YDS).",
		"12 ascents in the recent log.",
		"Send styles:",
		"Preferences: keep answers short",
	} {
		if !strings.Contains(formatted.Conversational, want) {
			t.Errorf("conversational view missing %q:\n%s", want, formatted.Conversational)
		}
	}

	if _, ok := formatted.Structured["climber_summary"]; !ok {
		t.Error("structured view missing climber_summary")
	}
	if _, ok := formatted.Structured["performance_metrics"]; !ok {
		t.Error("structured view missing performance_metrics")
	}
}

func TestDefaultFormatter_Format_Empty(t *testing.T) {
	formatted := NewFormatter().Format(&AggregatedContext{CoreData: map[string]any{}})

	if formatted.Conversational != "No climbing history available for this user." {
		t.Errorf("Conversational = %q", formatted.Conversational)
	}
}

func TestDefaultFormatter_Format_Nil(t *testing.T) {
	formatted := NewFormatter().Format(nil)

	if formatted.Structured == nil {
		t.Error("nil context should still yield a structured map")
	}
}

// ============================================================================
// StoreAggregator Tests
// ============================================================================

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStoreAggregator_Aggregate(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	user := &store.User{ID: "alex", Name: "Alex", Tier: store.TierPremium}
	if err := st.UpsertUser(ctx, user); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	ticks := []*store.Tick{
		{UserID: "alex", Route: "Biographie Lite", Grade: "7a", Style: "redpoint", Discipline: "sport", LoggedAt: time.Now().Add(-48 * time.Hour)},
		{UserID: "alex", Route: "Warmup Corner", Grade: "6b", Style: "onsight", Discipline: "sport", LoggedAt: time.Now().Add(-24 * time.Hour)},
		{UserID: "alex", Route: "Project X", Grade: "7b", Style: "redpoint", Discipline: "sport", LoggedAt: time.Now()},
	}
	for _, tick := range ticks {
		if err := st.AddTick(ctx, tick); err != nil {
			t.Fatalf("add tick: %v", err)
		}
	}

	agg, err := NewStoreAggregator(st).Aggregate(ctx, "alex", "focus on endurance")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	summary, ok := agg.CoreData["climber_summary"].(map[string]any)
	if !ok {
		t.Fatal("climber_summary missing")
	}
	if summary["name"] != "Alex" {
		t.Errorf("name = %v", summary["name"])
	}
	if summary["total_ticks"] != 3 {
		t.Errorf("total_ticks = %v, want 3", summary["total_ticks"])
	}
	if summary["hardest_grade"] != "7b" {
		t.Errorf("hardest_grade = %v, want 7b", summary["hardest_grade"])
	}

	metrics, ok := agg.CoreData["performance_metrics"].(map[string]any)
	if !ok {
		t.Fatal("performance_metrics missing")
	}
	styles := metrics["style_counts"].(map[string]int)
	if styles["redpoint"] != 2 || styles["onsight"] != 1 {
		t.Errorf("style_counts = %v", styles)
	}

	if agg.SupplementalData["custom_instructions"] != "focus on endurance" {
		t.Errorf("custom_instructions = %v", agg.SupplementalData["custom_instructions"])
	}
}

func TestStoreAggregator_Aggregate_UnknownUser(t *testing.T) {
	st := openTestStore(t)

	_, err := NewStoreAggregator(st).Aggregate(context.Background(), "ghost", "")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestStoreAggregator_Aggregate_NoTicks(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.UpsertUser(ctx, &store.User{ID: "newbie", Name: "Sam", Tier: store.TierBasic}); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	agg, err := NewStoreAggregator(st).Aggregate(ctx, "newbie", "")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	summary := agg.CoreData["climber_summary"].(map[string]any)
	if summary["total_ticks"] != 0 {
		t.Errorf("total_ticks = %v, want 0", summary["total_ticks"])
	}
	if _, ok := summary["hardest_grade"]; ok {
		t.Error("hardest_grade should be absent with no ticks")
	}
}
