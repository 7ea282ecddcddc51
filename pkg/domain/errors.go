package domain

import "fmt"

// ErrNotFound reports an id absent from the requested table.
type ErrNotFound struct {
	Entity EntityType
	ID     int
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ErrUnsupportedEntity reports an insert with a type the store does not
// recognize. This is a programmer error, not an input error.
type ErrUnsupportedEntity struct {
	Type string
}

func (e ErrUnsupportedEntity) Error() string {
	return fmt.Sprintf("unsupported entity type %s", e.Type)
}

// ErrValidation reports a caller-supplied value outside its expected candidate
// set, raised by workflow preconditions rather than the store.
type ErrValidation struct {
	Field  string
	Reason string
}

func (e ErrValidation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
