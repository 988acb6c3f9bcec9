package audio

import "github.com/rotisserie/eris"

var (
	// ErrUnknownDefinition is returned when a serialized job names a GUID not in the registry
	ErrUnknownDefinition = eris.New("unknown audio definition")
	// ErrNoClip is returned when a job has no playable clip
	ErrNoClip = eris.New("no clip for job")
	// ErrNotSetUp is returned by operations that need a loaded provider or a set-up loop
	ErrNotSetUp = eris.New("not set up")
	// ErrReleased is returned when playing through a handle that went back to the pool
	ErrReleased = eris.New("handle released")
	// ErrKilled is returned when a reference was disposed before its handle was bound
	ErrKilled = eris.New("reference killed")
	// ErrDisabled is returned by play calls while audio is disabled in config
	ErrDisabled = eris.New("audio disabled")
)
