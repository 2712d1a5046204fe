// Package borrow describes which component types a piece of code reads and
// writes, and decides whether one such declaration is covered by another.
package borrow

import (
	"reflect"
)

// Access is a single typed access request. Exclusive accesses may modify the
// value, shared accesses only read it.
type Access struct {
	Type      reflect.Type
	Exclusive bool

	// Name is a human readable label used in diagnostics.
	Name string
}

// AccessOf returns the access described by U. A pointer type *C requests
// exclusive access to C, any other type requests shared access to itself.
func AccessOf[U any]() Access {
	return ReflectAccess(reflect.TypeFor[U]())
}

// ReflectAccess is the reflect.Type based variant of AccessOf.
func ReflectAccess(ty reflect.Type) Access {
	if ty.Kind() == reflect.Pointer {
		return Exclusive(ty.Elem())
	}

	return Shared(ty)
}

// Shared returns a read access to the given type.
func Shared(ty reflect.Type) Access {
	return Access{Type: ty, Name: ty.String()}
}

// Exclusive returns a write access to the given type.
func Exclusive(ty reflect.Type) Access {
	return Access{Type: ty, Exclusive: true, Name: ty.String()}
}

// ConflictsWith reports whether both accesses target the same type and at
// least one of them is exclusive.
func (a Access) ConflictsWith(other Access) bool {
	return a.Type == other.Type && (a.Exclusive || other.Exclusive)
}

// CoveredBy reports whether other grants at least what a requires.
func (a Access) CoveredBy(other Access) bool {
	return a.Type == other.Type && (other.Exclusive || !a.Exclusive)
}

func (a Access) String() string {
	if a.Exclusive {
		return "*" + a.Name
	}

	return a.Name
}
