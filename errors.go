package lend

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/oliverbestmann/lend/borrow"
)

var (
	ErrIncompatibleSubworld = errors.New("incompatible subworld")
	ErrNoSuchEntity         = errors.New("no such entity")
	ErrBorrow               = errors.New("borrow failed")
	ErrMissingResource      = errors.New("missing resource")
)

// IncompatibleSubworldError is returned if a query or component access requires
// an access that was not declared by the subworld. A type that is not declared
// at all and a type that is only declared for shared access are reported the same way.
type IncompatibleSubworldError struct {
	// Subworld holds the accesses declared by the subworld
	Subworld borrow.Borrows

	// Query holds the accesses required by the rejected query
	Query borrow.Borrows
}

func (e *IncompatibleSubworldError) Error() string {
	return fmt.Sprintf("query %s is not covered by subworld %s", e.Query, e.Subworld)
}

func (e *IncompatibleSubworldError) Is(target error) bool {
	return target == ErrIncompatibleSubworld
}

// NoSuchEntityError is returned if an entity does not exist
// or does not have the requested component.
type NoSuchEntityError struct {
	EntityId EntityId
}

func (e *NoSuchEntityError) Error() string {
	return fmt.Sprintf("no such entity: %s", e.EntityId)
}

func (e *NoSuchEntityError) Is(target error) bool {
	return target == ErrNoSuchEntity
}

// BorrowError is returned if a resource could not be borrowed from a Context
// due to a conflicting borrow that is still active.
type BorrowError struct {
	// Type is the name of the type that requested the borrow
	Type string
}

func (e *BorrowError) Error() string {
	return fmt.Sprintf("can not borrow %s: conflicting borrow is active", e.Type)
}

func (e *BorrowError) Is(target error) bool {
	return target == ErrBorrow
}

// MissingResourceError is returned if a Context does not hold a resource of the requested type.
type MissingResourceError struct {
	Type string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("resource %s does not exist in context", e.Type)
}

func (e *MissingResourceError) Is(target error) bool {
	return target == ErrMissingResource
}
