package audio

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Job is a fully resolved play request: a definition, one of its clip variants and options
// Jobs are values; With and WithOptions return modified copies
type Job struct {
	Definition *Definition
	Variant    int
	Options    Options
}

// IsZero reports whether the job refers to nothing playable
func (j Job) IsZero() bool { return j.Definition == nil }

// With returns a copy whose options are fn applied to the current options
func (j Job) With(fn func(Options) Options) Job {
	if fn != nil {
		j.Options = fn(j.Options)
	}
	return j
}

// WithOptions returns a copy carrying opts
func (j Job) WithOptions(opts Options) Job {
	j.Options = opts
	return j
}

// Serialize converts the job to its storable form
func (j Job) Serialize() SerializedJob {
	var id uuid.UUID
	if j.Definition != nil {
		id = j.Definition.GUID()
	}
	return SerializedJob{GUID: id, Data: j.Variant, Options: j.Options}
}

// SerializedJob is a job with its definition replaced by the definition GUID
type SerializedJob struct {
	GUID    uuid.UUID `cbor:"guid"`
	Data    int       `cbor:"data"`
	Options Options   `cbor:"options"`
}

// DefinitionLookup resolves a definition by GUID
type DefinitionLookup func(id uuid.UUID) (*Definition, bool)

// Resolve rebuilds the job, failing with ErrUnknownDefinition for an unknown GUID
func (s SerializedJob) Resolve(lookup DefinitionLookup) (Job, error) {
	def, ok := lookup(s.GUID)
	if !ok || def == nil {
		return Job{}, eris.Wrapf(ErrUnknownDefinition, "guid %s", s.GUID)
	}
	return Job{Definition: def, Variant: s.Data, Options: s.Options}, nil
}
