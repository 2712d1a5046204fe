package borrow

import (
	"reflect"
	"slices"
	"strings"
)

// Borrows is an ordered list of accesses. It is usually small and searched
// linearly. Duplicates are legal.
type Borrows []Access

// ComponentBorrow is implemented by borrow specifications that are not plain
// component types, e.g. a restricted view of a world or a resource handle.
type ComponentBorrow interface {
	ComponentBorrows() Borrows
}

// Has reports whether any access in b covers the requested access.
func (b Borrows) Has(access Access) bool {
	for _, granted := range b {
		if access.CoveredBy(granted) {
			return true
		}
	}

	return false
}

// ConflictsWith reports whether any access of b conflicts with any access of other.
func (b Borrows) ConflictsWith(other Borrows) bool {
	if !summarize(b).overlaps(summarize(other)) {
		return false
	}

	for _, a := range b {
		for _, o := range other {
			if a.ConflictsWith(o) {
				return true
			}
		}
	}

	return false
}

// Conflict is a pair of conflicting accesses.
type Conflict struct {
	Left, Right Access
}

// Conflicts lists every pair of conflicting accesses between b and other.
func (b Borrows) Conflicts(other Borrows) []Conflict {
	if !summarize(b).overlaps(summarize(other)) {
		return nil
	}

	var conflicts []Conflict

	for _, a := range b {
		for _, o := range other {
			if a.ConflictsWith(o) {
				conflicts = append(conflicts, Conflict{Left: a, Right: o})
			}
		}
	}

	return conflicts
}

// Types returns the distinct types accessed by b in order of first appearance.
func (b Borrows) Types() []reflect.Type {
	var types []reflect.Type

	for _, access := range b {
		if !slices.Contains(types, access.Type) {
			types = append(types, access.Type)
		}
	}

	return types
}

// Exclusive returns only the exclusive accesses of b.
func (b Borrows) Exclusive() Borrows {
	var result Borrows

	for _, access := range b {
		if access.Exclusive {
			result = append(result, access)
		}
	}

	return result
}

func (b Borrows) Clone() Borrows {
	return slices.Clone(b)
}

func (b Borrows) String() string {
	var sb strings.Builder

	sb.WriteString("[")

	for idx, access := range b {
		if idx > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(access.String())
	}

	sb.WriteString("]")

	return sb.String()
}

// Builder collects the accesses of a composite borrow specification.
// It never deduplicates, so a shared and an exclusive access to the
// same type are both kept.
type Builder struct {
	borrows Borrows
}

func (b *Builder) Push(access Access) *Builder {
	b.borrows = append(b.borrows, access)
	return b
}

func (b *Builder) PushAll(borrows Borrows) *Builder {
	b.borrows = append(b.borrows, borrows...)
	return b
}

// Borrows returns a copy of the collected accesses.
func (b *Builder) Borrows() Borrows {
	return b.borrows.Clone()
}
