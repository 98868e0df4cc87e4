package events

import "stakeshare/core/types"

// Event is a structured state change emitted by the engine, the staking
// ledger or the withdrawal gate. Event renders the wire form subscribers
// consume; EventType matches the rendered Type field.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter forwards events to a subscriber, typically the daemon's structured
// logger or an external indexer.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event. Engines start with it so emission is
// always safe before wiring.
type NoopEmitter struct{}

// Emit implements Emitter.
func (NoopEmitter) Emit(Event) {}
