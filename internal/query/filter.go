package query

import (
	"fmt"

	"github.com/oliverbestmann/lend/borrow"
	"github.com/oliverbestmann/lend/spoke"
)

// Filter is implemented by query parameters that constrain the matched entities
// and possibly fetch values.
type Filter interface {
	applyTo(result *ParsedQuery) []EntityFilter
}

// EmbeddableFilter may be embedded into a struct query.
type EmbeddableFilter interface {
	Filter
	embeddable(isEmbeddableMarker)
}

// FromEntityRef is implemented by filters that carry a value for each matched entity.
type FromEntityRef interface {
	fromEntityRef(ref spoke.EntityRef)
}

// EntityFilter decides if an entity is matched by a query.
type EntityFilter func(ref spoke.EntityRef) bool

type isEmbeddableMarker struct{}

type Option[C spoke.IsComponent[C]] struct {
	value *C
}

func (Option[C]) applyTo(result *ParsedQuery) []EntityFilter {
	componentType := spoke.ComponentTypeOf[C]()

	result.Fetch = append(result.Fetch, Fetch{ComponentType: componentType, Optional: true})
	result.Borrows = append(result.Borrows, borrow.Shared(componentType.Type))

	return nil
}

func (c *Option[C]) fromEntityRef(ref spoke.EntityRef) {
	value, ok := ref.Get(spoke.ComponentTypeOf[C]())
	if ok {
		c.value = any(value).(*C)
	} else {
		c.value = nil
	}
}

// Get returns a copy of the component, if it exists.
func (c *Option[C]) Get() (C, bool) {
	return c.OrZero(), c.value != nil
}

func (c *Option[C]) MustGet() C {
	if c.value == nil {
		panic(fmt.Sprintf("%T is empty", *c))
	}

	return *c.value
}

func (c *Option[C]) OrZero() C {
	if c.value != nil {
		return *c.value
	}

	var zeroValue C
	return zeroValue
}

type OptionMut[C spoke.IsComponent[C]] struct {
	value *C
}

func (OptionMut[C]) applyTo(result *ParsedQuery) []EntityFilter {
	componentType := spoke.ComponentTypeOf[C]()

	result.Fetch = append(result.Fetch, Fetch{ComponentType: componentType, Optional: true})
	result.Borrows = append(result.Borrows, borrow.Exclusive(componentType.Type))

	return nil
}

func (c *OptionMut[C]) fromEntityRef(ref spoke.EntityRef) {
	value, ok := ref.Get(spoke.ComponentTypeOf[C]())
	if ok {
		c.value = any(value).(*C)
	} else {
		c.value = nil
	}
}

func (c *OptionMut[C]) Get() (*C, bool) {
	return c.value, c.value != nil
}

func (c *OptionMut[C]) MustGet() *C {
	if c.value == nil {
		panic(fmt.Sprintf("%T is empty", *c))
	}

	return c.value
}

// Has only checks for the existence of a component and does not access its value.
type Has[C spoke.IsComponent[C]] struct {
	Exists bool
}

func (Has[C]) applyTo(*ParsedQuery) []EntityFilter {
	return nil
}

func (c *Has[C]) fromEntityRef(ref spoke.EntityRef) {
	c.Exists = ref.Has(spoke.ComponentTypeOf[C]())
}

type With[C spoke.IsComponent[C]] struct{}

func (With[C]) embeddable(isEmbeddableMarker) {}

func (With[C]) applyTo(*ParsedQuery) []EntityFilter {
	componentType := spoke.ComponentTypeOf[C]()

	return []EntityFilter{
		func(ref spoke.EntityRef) bool {
			return ref.Has(componentType)
		},
	}
}

type Without[C spoke.IsComponent[C]] struct{}

func (Without[C]) embeddable(isEmbeddableMarker) {}

func (Without[C]) applyTo(*ParsedQuery) []EntityFilter {
	componentType := spoke.ComponentTypeOf[C]()

	return []EntityFilter{
		func(ref spoke.EntityRef) bool {
			return !ref.Has(componentType)
		},
	}
}

type Or[A, B Filter] struct{}

func (Or[A, B]) embeddable(isEmbeddableMarker) {}

func (Or[A, B]) applyTo(result *ParsedQuery) []EntityFilter {
	var aZero A
	filterA := aZero.applyTo(result)

	var bZero B
	filterB := bZero.applyTo(result)

	return []EntityFilter{
		func(ref spoke.EntityRef) bool {
			return matches(filterA, ref) || matches(filterB, ref)
		},
	}
}

func matches(filters []EntityFilter, ref spoke.EntityRef) bool {
	for _, filter := range filters {
		if !filter(ref) {
			return false
		}
	}

	return true
}
