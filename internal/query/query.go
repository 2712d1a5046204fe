package query

import (
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/oliverbestmann/lend/borrow"
	"github.com/oliverbestmann/lend/internal/refl"
	"github.com/oliverbestmann/lend/spoke"
)

type Fetch struct {
	ComponentType *spoke.ComponentType
	Optional      bool
}

type ParsedQuery struct {
	Fetch   []Fetch
	Filters []EntityFilter
	Setters []Setter

	// Borrows holds the accesses needed to run the query,
	// in the order of the query's fields.
	Borrows borrow.Borrows
}

type SetValue func(target reflect.Value, ref spoke.EntityRef)

type Setter struct {
	Field    []int
	SetValue SetValue
}

// Matches returns true if the entity has all required components and passes all filters.
func (p *ParsedQuery) Matches(ref spoke.EntityRef) bool {
	for _, fetch := range p.Fetch {
		if !fetch.Optional && !ref.Has(fetch.ComponentType) {
			return false
		}
	}

	return matches(p.Filters, ref)
}

// FromEntity populates target with the values of the entity. The target
// must be an addressable value of the parsed query type.
func FromEntity(target reflect.Value, setters []Setter, ref spoke.EntityRef) {
	if !target.CanAddr() {
		panic(errors.Newf("query target of type %s is not addressable", target.Type()))
	}

	for _, setter := range setters {
		field := target
		if setter.Field != nil {
			field = target.FieldByIndex(setter.Field)
		}

		setter.SetValue(field, ref)
	}
}

// ParseQuery parses the type of a query target.
func ParseQuery(queryType reflect.Type) (ParsedQuery, error) {
	p := parser{}

	if err := p.build(queryType, nil); err != nil {
		return ParsedQuery{}, err
	}

	return p.result, nil
}

// ParseBorrows collects the accesses of a borrow specification. In addition to
// everything a query may contain, a borrow specification may contain
// values implementing borrow.ComponentBorrow.
func ParseBorrows(specType reflect.Type) (borrow.Borrows, error) {
	p := parser{allowComponentBorrow: true}

	if err := p.build(specType, nil); err != nil {
		return nil, err
	}

	return p.result.Borrows, nil
}

type parser struct {
	result               ParsedQuery
	allowComponentBorrow bool
}

func (p *parser) build(queryType reflect.Type, path []int) error {
	result := &p.result

	switch {
	case p.allowComponentBorrow && isComponentBorrow(queryType):
		declared := refl.New[borrow.ComponentBorrow](queryType)
		result.Borrows = append(result.Borrows, declared.ComponentBorrows()...)
		return nil

	case isEntityId(queryType):
		result.Setters = append(result.Setters, Setter{
			Field: slices.Clone(path),
			SetValue: func(target reflect.Value, ref spoke.EntityRef) {
				target.Set(reflect.ValueOf(ref.EntityId))
			},
		})

		return nil

	case refl.IsComponent(queryType):
		componentType := spoke.ReflectComponentType(queryType)
		result.Fetch = append(result.Fetch, Fetch{ComponentType: componentType})
		result.Borrows = append(result.Borrows, borrow.Shared(queryType))

		result.Setters = append(result.Setters, Setter{
			Field: slices.Clone(path),
			SetValue: func(target reflect.Value, ref spoke.EntityRef) {
				// copy the component value into the target
				target.Set(reflect.ValueOf(mustGet(ref, componentType)).Elem())
			},
		})

		return nil

	case refl.IsMutableComponent(queryType):
		componentType := spoke.ReflectComponentType(queryType.Elem())
		result.Fetch = append(result.Fetch, Fetch{ComponentType: componentType})
		result.Borrows = append(result.Borrows, borrow.Exclusive(queryType.Elem()))

		result.Setters = append(result.Setters, Setter{
			Field: slices.Clone(path),
			SetValue: func(target reflect.Value, ref spoke.EntityRef) {
				// let the target point to the stored component
				target.Set(reflect.ValueOf(mustGet(ref, componentType)))
			},
		})

		return nil

	case isFilter(queryType):
		filter := refl.New[Filter](queryType)

		// calculate the filters and add them to the query
		result.Filters = append(result.Filters, filter.applyTo(result)...)

		if isFromEntityRef(queryType) {
			result.Setters = append(result.Setters, Setter{
				Field: slices.Clone(path),
				SetValue: func(target reflect.Value, ref spoke.EntityRef) {
					target.Addr().Interface().(FromEntityRef).fromEntityRef(ref)
				},
			})
		}

		return nil

	case isStructQuery(queryType):
		return p.buildStruct(queryType, path)

	default:
		return errors.Newf("invalid query type: %s", queryType)
	}
}

func (p *parser) buildStruct(queryType reflect.Type, path []int) error {
	for field := range refl.IterFields(queryType) {
		if field.Anonymous {
			allowed := isEmbeddableFilter(field.Type) || isEntityId(field.Type)
			if !allowed {
				return errors.Newf("must not be embedded in query target %s: %s", queryType, field.Type)
			}
		}

		if !field.IsExported() {
			return errors.Newf("unexported field %q in query target %s", field.Name, queryType)
		}

		pathToField := append(slices.Clone(path), field.Index...)
		if err := p.build(field.Type, pathToField); err != nil {
			return errors.Wrapf(err, "field %q of %s", field.Name, queryType)
		}
	}

	return nil
}

func mustGet(ref spoke.EntityRef, componentType *spoke.ComponentType) spoke.ErasedComponent {
	value, ok := ref.Get(componentType)
	if !ok {
		panic(errors.Newf("entity %s does not contain component: %s", ref.EntityId, componentType))
	}

	return value
}

func isStructQuery(ty reflect.Type) bool {
	return ty.Kind() == reflect.Struct
}

func isComponentBorrow(ty reflect.Type) bool {
	return ty.Kind() != reflect.Pointer && refl.Implements[borrow.ComponentBorrow](ty)
}

func isFilter(ty reflect.Type) bool {
	return ty.Kind() != reflect.Pointer && refl.ImplementsInterfaceDirectly[Filter](ty)
}

func isEmbeddableFilter(ty reflect.Type) bool {
	return ty.Kind() != reflect.Pointer && refl.ImplementsInterfaceDirectly[EmbeddableFilter](ty)
}

func isFromEntityRef(ty reflect.Type) bool {
	return ty.Kind() != reflect.Pointer && refl.ImplementsInterfaceDirectly[FromEntityRef](reflect.PointerTo(ty))
}

func isEntityId(ty reflect.Type) bool {
	return ty == reflect.TypeFor[spoke.EntityId]()
}
