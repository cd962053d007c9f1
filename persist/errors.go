package persist

import "github.com/rotisserie/eris"

var (
	ErrNotTag            = eris.New("type is not zero-size")
	ErrPersisterConflict = eris.New("type already has a different persister")
	ErrMissingPersister  = eris.New("persistable type has no persister")
	ErrMissingValue      = eris.New("entity holds no value for id")
	ErrAnonymousElement  = eris.New("persisted element has no name")
	ErrNoVariants        = eris.New("enum registered without variants")
	ErrUnknownType       = eris.New("unknown type")
	ErrMalformedSnapshot = eris.New("malformed snapshot")
)
