package refl

import (
	"iter"
	"reflect"

	"github.com/oliverbestmann/lend/spoke"
)

func IterFields(ty reflect.Type) iter.Seq[reflect.StructField] {
	return func(yield func(reflect.StructField) bool) {
		for idx := range ty.NumField() {
			if !yield(ty.Field(idx)) {
				return
			}
		}
	}
}

// ImplementsInterfaceDirectly returns true if ty implements the interface If
// and the implementation is not just promoted from an embedded field.
func ImplementsInterfaceDirectly[If any](ty reflect.Type) bool {
	iface := reflect.TypeFor[If]()

	if !ty.Implements(iface) {
		return false
	}

	for ty.Kind() == reflect.Pointer {
		ty = ty.Elem()
	}

	if ty.Kind() != reflect.Struct {
		return true
	}

	for field := range IterFields(ty) {
		if !field.Anonymous {
			continue
		}

		if field.Type.Implements(iface) {
			return false
		}

		if reflect.PointerTo(field.Type).Implements(iface) {
			return false
		}
	}

	return true
}

// Implements returns true if either ty or *ty implements the interface If.
func Implements[If any](ty reflect.Type) bool {
	iface := reflect.TypeFor[If]()
	return ty.Implements(iface) || reflect.PointerTo(ty).Implements(iface)
}

// New allocates a zero value of ty and returns a pointer to it as an If.
func New[If any](ty reflect.Type) If {
	return reflect.New(ty).Interface().(If)
}

// IsComponent returns true if ty is a struct embedding exactly one spoke.Component.
func IsComponent(ty reflect.Type) bool {
	if !spoke.IsComponentType(ty) {
		return false
	}

	var count int
	for field := range IterFields(ty) {
		if field.Anonymous && ImplementsInterfaceDirectly[spoke.ErasedComponent](field.Type) {
			count += 1
		}
	}

	return count == 1
}

func IsMutableComponent(ty reflect.Type) bool {
	return ty.Kind() == reflect.Pointer && IsComponent(ty.Elem())
}
