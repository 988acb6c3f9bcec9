package engine

import "github.com/rotisserie/eris"

var (
	// ErrDuplicateModule is returned when two modules share a name
	ErrDuplicateModule = eris.New("module already registered")
	// ErrAlreadyBooted is returned by Boot and Register after a successful Boot
	ErrAlreadyBooted = eris.New("host already booted")
)
