package lend

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/oliverbestmann/lend/internal/refcell"
)

// Context is a registry of resources keyed by their type. A World is usually one
// of them. Each resource can be borrowed either shared by any number of
// borrowers, or exclusively by a single one. Borrowing never waits, a
// conflicting borrow fails immediately with a *BorrowError.
//
// A Context is safe for concurrent use.
type Context struct {
	noCopy noCopy

	mutex     sync.RWMutex
	resources map[reflect.Type]*refcell.Cell
}

// ContextBorrow is implemented by values that borrow their content from a Context,
// like SubWorld, Res and ResMut.
type ContextBorrow interface {
	// BorrowFrom acquires the borrow. On error, nothing is borrowed.
	BorrowFrom(ctx *Context) error

	// Release gives the borrow back to the Context. Calling Release
	// more than once, or without a successful borrow, has no effect.
	Release()
}

func NewContext() *Context {
	return &Context{
		resources: map[reflect.Type]*refcell.Cell{},
	}
}

// Insert adds a resource to the context. If the resource is a pointer, the value
// it points to is registered and shared with the caller. Any other value is
// copied to the heap first.
//
// An existing resource of the same type is replaced, unless it is currently borrowed.
func (c *Context) Insert(resource any) error {
	ptr := reflect.ValueOf(resource)

	switch {
	case !ptr.IsValid():
		return errors.New("resource must not be nil")

	case ptr.Kind() == reflect.Pointer && ptr.IsNil():
		return errors.Newf("resource of type %s must not be a nil pointer", ptr.Type())

	case ptr.Kind() != reflect.Pointer:
		copied := reflect.New(ptr.Type())
		copied.Elem().Set(ptr)
		ptr = copied
	}

	resourceType := ptr.Type().Elem()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, ok := c.resources[resourceType]; ok {
		if err := existing.Replace(ptr.Interface()); err != nil {
			return &BorrowError{Type: resourceType.String()}
		}

		return nil
	}

	c.resources[resourceType] = refcell.New(ptr.Interface())

	return nil
}

// Contains reports whether a resource of the given non pointer type exists.
func (c *Context) Contains(resourceType reflect.Type) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, ok := c.resources[resourceType]
	return ok
}

// Remove removes the resource of the given non pointer type.
// A resource can not be removed while it is borrowed.
func (c *Context) Remove(resourceType reflect.Type) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cell, ok := c.resources[resourceType]
	if !ok {
		return &MissingResourceError{Type: resourceType.String()}
	}

	// the borrow is never released, the cell is discarded anyways
	if _, err := cell.TryBorrowMut(); err != nil {
		return &BorrowError{Type: resourceType.String()}
	}

	delete(c.resources, resourceType)

	return nil
}

// borrow acquires a borrow of the resource. requester names the type
// that is reported in a *BorrowError.
func (c *Context) borrow(resourceType reflect.Type, exclusive bool, requester string) (*refcell.Ref, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	cell, ok := c.resources[resourceType]
	if !ok {
		return nil, &MissingResourceError{Type: resourceType.String()}
	}

	var ref *refcell.Ref
	var err error

	if exclusive {
		ref, err = cell.TryBorrowMut()
	} else {
		ref, err = cell.TryBorrow()
	}

	switch {
	case errors.Is(err, refcell.ErrBorrowed):
		slog.Debug(
			"Borrow rejected",
			slog.String("resource", resourceType.String()),
			slog.String("requester", requester),
			slog.Bool("exclusive", exclusive),
		)

		return nil, &BorrowError{Type: requester}

	case err != nil:
		return nil, errors.Wrapf(err, "borrow %s", resourceType)
	}

	return ref, nil
}
