package lend

import (
	"github.com/oliverbestmann/lend/internal/query"
	"github.com/oliverbestmann/lend/spoke"
)

// EntityId uniquely identifies an entity in a World.
type EntityId = spoke.EntityId

const NoEntityId = spoke.NoEntityId

// IsComponent can be used in a type parameter to ensure that type T is a Component type.
//
// To implement the IsComponent interface for a type, you must embed the Component type.
type IsComponent[T any] = spoke.IsComponent[T]

// Component is a zero sized type that may be embedded into a struct to turn that
// struct into a component (see IsComponent).
type Component[T IsComponent[T]] = spoke.Component[T]

// ErasedComponent indicates a type erased Component value.
//
// Values handed out by a World are pointers into the storage,
// even though the interface is actually implemented directly on the component type.
type ErasedComponent = spoke.ErasedComponent

// Option is a query parameter that fetches a given Component of type C
// if it exists on an entity. It requires shared access to C.
type Option[C IsComponent[C]] = query.Option[C]

// OptionMut is a query parameter that fetches a pointer to a Component of type C
// if it exists on an entity. It requires exclusive access to C.
type OptionMut[C IsComponent[C]] = query.OptionMut[C]

// Has is a query parameter that does not fetch the actual Component value of type C,
// but rather just indicates if a component of such type exists on the entity.
// It does not require any access to C.
type Has[C IsComponent[C]] = query.Has[C]

// With is a query filter that constraints the entities queried to include only
// entities that have a Component of type C.
type With[C IsComponent[C]] = query.With[C]

// Without is a query filter that constraints the entities queried to include only
// entities that do not have a Component of type C.
type Without[C IsComponent[C]] = query.Without[C]

// Or is a query filter that allows you to combine two query filters with a local 'or'.
type Or[A, B query.Filter] = query.Or[A, B]
