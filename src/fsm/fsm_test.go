package fsm

import (
	"errors"
	"testing"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/sirupsen/logrus"
)

func TestNewStateMachineValidation(t *testing.T) {
	logger := common.NewTestEntry(t, logrus.DebugLevel)

	_, err := NewStateMachine("m", "missing", map[string]State{"a": {}}, logger)
	if !errors.Is(err, ErrUnknownState) {
		t.Fatalf("missing initial state should fail, got %v", err)
	}

	_, err = NewStateMachine("m", "a", map[string]State{
		"a": {Transitions: []Transition{{Next: "b"}}},
	}, logger)
	if !errors.Is(err, ErrUnknownState) {
		t.Fatalf("dangling transition should fail, got %v", err)
	}
}

func TestStepRunsCallbackThenFirstTrueGuard(t *testing.T) {
	var trace []string
	flag := false

	m, err := NewStateMachine("m", "a", map[string]State{
		"a": {
			Callback: func() error { trace = append(trace, "cb:a"); return nil },
			Transitions: []Transition{
				{Next: "b", Guard: func() bool { return flag }, Action: func() { trace = append(trace, "act:b") }},
				{Next: "c", Guard: func() bool { return flag }, Action: func() { trace = append(trace, "act:c") }},
			},
		},
		"b": {
			Callback:    func() error { trace = append(trace, "cb:b"); return nil },
			Transitions: []Transition{{Next: "a", Guard: Always}},
		},
		"c": {},
	}, common.NewTestEntry(t, logrus.DebugLevel))
	if err != nil {
		t.Fatal(err)
	}

	// guard false: stay put
	m.Step()
	if m.Current() != "a" {
		t.Fatalf("should still be in a, got %s", m.Current())
	}

	flag = true
	m.Step()
	if m.Current() != "b" {
		t.Fatalf("first true transition should win, got %s", m.Current())
	}

	// exactly one transition per step
	m.Step()
	if m.Current() != "a" {
		t.Fatalf("should be back in a, got %s", m.Current())
	}

	want := []string{"cb:a", "cb:a", "act:b", "cb:b"}
	if len(trace) != len(want) {
		t.Fatalf("trace %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace %v, want %v", trace, want)
		}
	}
}

func TestStepCallbackError(t *testing.T) {
	boom := errors.New("boom")

	m, _ := NewStateMachine("m", "a", map[string]State{
		"a": {
			Callback:    func() error { return boom },
			Transitions: []Transition{{Next: "b"}},
		},
		"b": {},
	}, nil)

	if err := m.Step(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if m.Current() != "a" {
		t.Fatalf("failed step should not transition, got %s", m.Current())
	}
}

func TestNilGuardIsUnconditional(t *testing.T) {
	m, _ := NewStateMachine("m", "a", map[string]State{
		"a": {Transitions: []Transition{{Next: "b"}}},
		"b": {},
	}, nil)

	m.Step()
	if m.Current() != "b" {
		t.Fatalf("nil guard should fire, got %s", m.Current())
	}
}

func TestSetState(t *testing.T) {
	m, _ := NewStateMachine("m", "a", map[string]State{"a": {}, "b": {}}, nil)

	if err := m.SetState("b"); err != nil || m.Current() != "b" {
		t.Fatalf("SetState(b) => %v, current %s", err, m.Current())
	}
	if err := m.SetState("z"); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("SetState(z) should fail, got %v", err)
	}
}
