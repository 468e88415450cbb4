package observation

import (
	"testing"
	"time"

	"github.com/kgraptor/engine/schema"
)

func TestImportanceUpdater_QuerySuccessNudgesTowardOne(t *testing.T) {
	node := &schema.Node{UpdatedAt: time.Now().Add(-30 * 24 * time.Hour)}
	node.SetImportance(0.5)

	u := NewImportanceUpdater(30 * 24 * time.Hour)
	u.Apply(node, Observation{Kind: KindQuerySuccess, Success: true}, time.Now())

	if node.Importance() <= 0.5 {
		t.Fatalf("expected importance to increase toward 1.0, got %v", node.Importance())
	}
}

func TestImportanceUpdater_QueryFailureNudgesTowardZero(t *testing.T) {
	node := &schema.Node{UpdatedAt: time.Now().Add(-30 * 24 * time.Hour)}
	node.SetImportance(0.5)

	u := NewImportanceUpdater(30 * 24 * time.Hour)
	u.Apply(node, Observation{Kind: KindQueryFailure, Success: false}, time.Now())

	if node.Importance() >= 0.5 {
		t.Fatalf("expected importance to decrease toward 0.0, got %v", node.Importance())
	}
}

func TestImportanceUpdater_NoElapsedTimeLeavesScoreUnchanged(t *testing.T) {
	now := time.Now()
	node := &schema.Node{UpdatedAt: now}
	node.SetImportance(0.5)

	u := NewImportanceUpdater(30 * 24 * time.Hour)
	u.Apply(node, Observation{Kind: KindQuerySuccess, Success: true}, now)

	if node.Importance() != 0.5 {
		t.Fatalf("expected no elapsed time to produce no movement, got %v", node.Importance())
	}
}

func TestImportanceUpdater_TeachEventAppliesDeltaDirectly(t *testing.T) {
	node := &schema.Node{}
	node.SetImportance(0.4)

	u := NewImportanceUpdater(0)
	u.Apply(node, Observation{Kind: KindTeach, TeachDelta: 0.3}, time.Now())

	if node.Importance() != 0.7 {
		t.Fatalf("expected importance to move by exactly the teach delta, got %v", node.Importance())
	}
}

func TestImportanceUpdater_ClampsToValidRange(t *testing.T) {
	node := &schema.Node{}
	node.SetImportance(0.9)

	u := NewImportanceUpdater(0)
	u.Apply(node, Observation{Kind: KindTeach, TeachDelta: 0.5}, time.Now())

	if node.Importance() != 1.0 {
		t.Fatalf("expected importance to clamp at 1.0, got %v", node.Importance())
	}
}
