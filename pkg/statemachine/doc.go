// Package statemachine implements small typed finite state machines.
//
// A Definition holds the transition table and is built once; each entity
// gets its own Machine from Definition.New. Transitions can carry guards and
// actions. Actions run before the state changes, so a failing action (for
// example a storage write) leaves the machine where it was.
//
//	def := statemachine.NewDefinition[Status, Event](Sent, Failed).
//		Allow(statemachine.Transition[Status, Event]{From: Pending, To: Sent, Event: Delivered, Actions: persist}).
//		Allow(statemachine.Transition[Status, Event]{From: Pending, To: Failed, Event: Rejected, Actions: persist})
//
//	m := def.New(Pending)
//	err := m.Fire(ctx, Delivered, attrs)
package statemachine
