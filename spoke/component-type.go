package spoke

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sync/atomic"
)

type ComponentTypeId uint16

type ComponentType struct {
	Name string
	Type reflect.Type

	// The Id of the type, unique within the process. Ids are handed out
	// sequentially starting at one.
	Id ComponentTypeId
}

func ComponentTypeOf[C IsComponent[C]]() *ComponentType {
	return ensureComponentType(reflect.TypeFor[C]())
}

// ReflectComponentType returns the ComponentType for the given reflect type.
// The type must be the non pointer type of a component.
func ReflectComponentType(ty reflect.Type) *ComponentType {
	if !IsComponentType(ty) {
		panic(fmt.Sprintf("type %s is not a component", ty))
	}

	return ensureComponentType(ty)
}

// IsComponentType reports whether ty is a (non pointer) component type.
func IsComponentType(ty reflect.Type) bool {
	return ty.Kind() == reflect.Struct &&
		ty.Implements(reflect.TypeFor[ErasedComponent]())
}

// CopyOf copies the given component into a new heap allocation.
// The value may either be a component or a pointer to a component.
func (c *ComponentType) CopyOf(value ErasedComponent) ErasedComponent {
	source := reflect.ValueOf(value)
	if source.Kind() == reflect.Pointer {
		source = source.Elem()
	}

	if source.Type() != c.Type {
		panic(fmt.Sprintf("can not copy %s into component of type %s", source.Type(), c))
	}

	target := reflect.New(c.Type)
	target.Elem().Set(source)
	return target.Interface().(ErasedComponent)
}

func (c *ComponentType) String() string {
	return c.Name
}

func (c *ComponentType) PtrType() reflect.Type {
	return reflect.PointerTo(c.Type)
}

var componentTypes atomic.Pointer[map[reflect.Type]*ComponentType]

func init() {
	// initialize the lookup table
	componentTypes.Store(&map[reflect.Type]*ComponentType{})
}

func ensureComponentType(ty reflect.Type) *ComponentType {
	for {
		previousTypes := componentTypes.Load()
		if cached, ok := (*previousTypes)[ty]; ok {
			return cached
		}

		newType := &ComponentType{
			Id:   ComponentTypeId(len(*previousTypes) + 1),
			Type: ty,
			Name: ty.String(),
		}

		newTypes := maps.Clone(*previousTypes)
		newTypes[ty] = newType

		if componentTypes.CompareAndSwap(previousTypes, &newTypes) {
			slog.Debug(
				"New component type registered",
				slog.String("name", newType.Name),
				slog.Int("id", int(newType.Id)),
			)

			return newType
		}
	}
}
