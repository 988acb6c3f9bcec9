package registry

import "github.com/rotisserie/eris"

// ErrNotFound is returned when a lookup matches no loaded object
var ErrNotFound = eris.New("object not found")
