package plot

import (
	"errors"
	"testing"
)

func TestPlanVictory(t *testing.T) {
	p := NewPlanner(DefaultTemplates())

	graph, err := p.Plan(Victory, 0, 42)
	if err != nil {
		t.Fatalf("Plan() failed: %v", err)
	}

	if len(graph.Nodes) < 4 {
		t.Errorf("plan has %d nodes, want at least 4", len(graph.Nodes))
	}
	if len(graph.Order) != len(graph.Nodes) {
		t.Errorf("order covers %d of %d nodes", len(graph.Order), len(graph.Nodes))
	}

	// The goal function must appear, and some root must stand on its own.
	foundGoal := false
	for _, n := range graph.Nodes {
		if n.Function == Victory {
			foundGoal = true
		}
	}
	if !foundGoal {
		t.Error("plan does not contain the goal function")
	}

	roots := graph.Roots()
	if len(roots) == 0 {
		t.Fatal("plan has no roots")
	}
	selfStanding := false
	for _, r := range roots {
		if graph.Nodes[r].Requires == 0 {
			selfStanding = true
		}
	}
	if !selfStanding {
		t.Error("no root is satisfiable from the empty initial state")
	}
}

func TestPlanCausallySound(t *testing.T) {
	p := NewPlanner(DefaultTemplates())

	for seed := int64(0); seed < 25; seed++ {
		graph, err := p.Plan(Victory, 0, seed)
		if err != nil {
			t.Fatalf("Plan(seed=%d) failed: %v", seed, err)
		}
		if err := graph.Verify(0); err != nil {
			t.Errorf("seed %d: %v", seed, err)
		}
	}
}

func TestPlanDeterministic(t *testing.T) {
	p := NewPlanner(DefaultTemplates())

	a, errA := p.Plan(Return, 0, 7)
	b, errB := p.Plan(Return, 0, 7)
	if errA != nil || errB != nil {
		t.Fatalf("Plan() failed: %v / %v", errA, errB)
	}

	if len(a.Nodes) != len(b.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(a.Nodes), len(b.Nodes))
	}
	for i := range a.Nodes {
		if a.Nodes[i].Function != b.Nodes[i].Function || a.Nodes[i].Description != b.Nodes[i].Description {
			t.Errorf("node %d differs: %s vs %s", i, a.Nodes[i].Description, b.Nodes[i].Description)
		}
	}
	for i := range a.Order {
		if a.Order[i] != b.Order[i] {
			t.Fatalf("order differs at %d: %d vs %d", i, a.Order[i], b.Order[i])
		}
	}
}

func TestPlanUnsatisfiableWithoutSearch(t *testing.T) {
	// A catalog where the goal transitively needs HAS_WEAPON but nothing
	// provides it.
	tpls := &Templates{}
	tpls.Add(Template{Function: Lack, Requires: 0, Provides: P(HeroExists),
		Description: "trouble starts", Anchor: "village"})
	tpls.Add(Template{Function: Struggle, Requires: P(HeroExists, HasWeapon), Provides: P(VillainWeak),
		Description: "a duel", Anchor: "castle"})
	tpls.Add(Template{Function: Victory, Requires: P(VillainWeak), Provides: P(QuestComplete),
		Description: "triumph", Anchor: "castle"})

	p := NewPlanner(tpls)
	_, err := p.Plan(Victory, 0, 1)
	if !errors.Is(err, ErrUnsatisfiable) {
		t.Errorf("Plan() error = %v, want ErrUnsatisfiable", err)
	}
}

func TestPlanGoalSatisfiedByInitialState(t *testing.T) {
	tpls := &Templates{}
	tpls.Add(Template{Function: Victory, Requires: P(VillainWeak), Provides: P(QuestComplete),
		Description: "triumph", Anchor: "castle"})

	p := NewPlanner(tpls)
	graph, err := p.Plan(Victory, P(VillainWeak), 3)
	if err != nil {
		t.Fatalf("Plan() failed: %v", err)
	}
	if len(graph.Nodes) != 1 {
		t.Errorf("plan has %d nodes, want 1", len(graph.Nodes))
	}
	if err := graph.Verify(P(VillainWeak)); err != nil {
		t.Errorf("Verify() failed: %v", err)
	}
}

func TestPlanTooComplex(t *testing.T) {
	p := NewPlanner(DefaultTemplates())
	p.MaxNodes = 2

	_, err := p.Plan(Victory, 0, 42)
	if !errors.Is(err, ErrTooComplex) {
		t.Errorf("Plan() error = %v, want ErrTooComplex", err)
	}
}

func TestPlanNodeCapHolds(t *testing.T) {
	p := NewPlanner(DefaultTemplates())

	for seed := int64(0); seed < 10; seed++ {
		graph, err := p.Plan(Victory, 0, seed)
		if err != nil {
			t.Fatalf("Plan(seed=%d) failed: %v", seed, err)
		}
		if len(graph.Nodes) > p.MaxNodes {
			t.Errorf("seed %d: %d nodes exceeds cap %d", seed, len(graph.Nodes), p.MaxNodes)
		}
	}
}

func TestPlanAnchorsAreKnownTags(t *testing.T) {
	p := NewPlanner(DefaultTemplates())

	graph, err := p.Plan(Victory, 0, 42)
	if err != nil {
		t.Fatalf("Plan() failed: %v", err)
	}
	for _, n := range graph.Nodes {
		if n.Anchor == "" {
			t.Errorf("node %d (%s) has no anchor tag", n.ID, n.Function)
		}
	}
}
