package event

import "github.com/rotisserie/eris"

var (
	// ErrUnknownEvent is returned when no reactor is registered for an event type
	ErrUnknownEvent = eris.New("event: no reactor registered for type")

	// ErrChainCancelled is returned when a chain stops early because its context ended
	ErrChainCancelled = eris.New("event: chain cancelled")
)
