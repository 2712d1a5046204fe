package spoke

type isComponentMarker struct{}

// ErasedComponent holds a pointer to a value
// that implements the IsComponent interface.
type ErasedComponent interface {
	ComponentType() *ComponentType
	isComponent(isComponentMarker)
}

// IsComponent is satisfied by every struct that embeds Component[T].
type IsComponent[T any] interface {
	ErasedComponent
	IsComponent(T)
}

// Component is a zero sized type that turns the embedding struct C into a component.
type Component[C IsComponent[C]] struct{}

func (Component[C]) IsComponent(C) {}

func (Component[C]) isComponent(isComponentMarker) {}

func (Component[C]) ComponentType() *ComponentType {
	return ComponentTypeOf[C]()
}
