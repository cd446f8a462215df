package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Action runs while a transition is in progress. An error aborts the
// transition and the machine stays in its current state.
type Action[S, E ~string] func(ctx context.Context, from, to S, event E, data any) error

// Guard decides whether a transition may be taken for the given data.
type Guard[S, E ~string] func(ctx context.Context, from S, event E, data any) bool

type Transition[S, E ~string] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]
	Actions []Action[S, E]
}

// Definition is an immutable transition table shared by many machines.
type Definition[S, E ~string] struct {
	transitions map[S]map[E][]Transition[S, E]
	terminal    map[S]bool
}

// NewDefinition returns an empty table. States listed in terminal accept no
// events once reached.
func NewDefinition[S, E ~string](terminal ...S) *Definition[S, E] {
	d := &Definition[S, E]{
		transitions: make(map[S]map[E][]Transition[S, E]),
		terminal:    make(map[S]bool, len(terminal)),
	}
	for _, s := range terminal {
		d.terminal[s] = true
	}
	return d
}

// Allow registers a transition. Call it only while building the definition.
func (d *Definition[S, E]) Allow(t Transition[S, E]) *Definition[S, E] {
	if _, ok := d.transitions[t.From]; !ok {
		d.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	d.transitions[t.From][t.Event] = append(d.transitions[t.From][t.Event], t)
	return d
}

func (d *Definition[S, E]) IsTerminal(s S) bool {
	return d.terminal[s]
}

// New starts a machine at initial.
func (d *Definition[S, E]) New(initial S) *Machine[S, E] {
	return &Machine[S, E]{def: d, current: initial}
}

// Machine tracks the current state of one entity.
type Machine[S, E ~string] struct {
	def     *Definition[S, E]
	mu      sync.Mutex
	current S
}

func (m *Machine[S, E]) Current() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Fire applies the first transition for event whose guards pass, running its
// actions in order before the state changes.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.def.terminal[m.current] {
		return &NoTransitionError{State: string(m.current), Event: string(event), Terminal: true}
	}

	t, err := m.find(ctx, event, data)
	if err != nil {
		return err
	}
	for _, action := range t.Actions {
		if err := action(ctx, m.current, t.To, event, data); err != nil {
			return fmt.Errorf("%w: %s -> %s: %w", ErrActionFailed, m.current, t.To, err)
		}
	}
	m.current = t.To
	return nil
}

// CanFire reports whether Fire would find a transition. Actions are not run.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.def.terminal[m.current] {
		return false
	}
	_, err := m.find(ctx, event, data)
	return err == nil
}

func (m *Machine[S, E]) find(ctx context.Context, event E, data any) (*Transition[S, E], error) {
	candidates := m.def.transitions[m.current][event]
	if len(candidates) == 0 {
		return nil, &NoTransitionError{State: string(m.current), Event: string(event)}
	}
	for i := range candidates {
		if guardsPass(ctx, candidates[i].Guards, m.current, event, data) {
			return &candidates[i], nil
		}
	}
	return nil, &RejectedError{State: string(m.current), Event: string(event)}
}

func guardsPass[S, E ~string](ctx context.Context, guards []Guard[S, E], from S, event E, data any) bool {
	for _, g := range guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
