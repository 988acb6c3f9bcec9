package save

import "github.com/rotisserie/eris"

var (
	// ErrSaveInProgress is returned when Save is called while another save runs
	ErrSaveInProgress = eris.New("save already in progress")
	// ErrNotFound is returned when a store has no save under the requested name
	ErrNotFound = eris.New("save not found")
	// ErrMalformed is returned for documents that do not decode
	ErrMalformed = eris.New("malformed save document")
)
