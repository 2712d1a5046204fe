package query

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/oliverbestmann/lend/borrow"
	"github.com/oliverbestmann/lend/spoke"
	"github.com/stretchr/testify/require"
)

type Position struct {
	spoke.Component[Position]
	X int
}

type Velocity struct {
	spoke.Component[Velocity]
	X int
}

type Acceleration struct {
	spoke.Component[Acceleration]
	X int
}

type SomeConfig struct {
	spoke.Component[SomeConfig]
	MaxX, MaxSpeed int
}

type expectedQuery struct {
	Fetch   []Fetch
	Borrows borrow.Borrows
	Setters int
	Filters int
}

func parseQueryTest(t *testing.T, queryType reflect.Type, expected expectedQuery) {
	t.Helper()

	t.Run(fmt.Sprintf("parse %s", queryType), func(t *testing.T) {
		parsed, err := ParseQuery(queryType)
		require.NoError(t, err)

		require.Equal(t, expected.Fetch, parsed.Fetch)
		require.Equal(t, expected.Borrows, parsed.Borrows)
		require.Len(t, parsed.Setters, expected.Setters)
		require.Len(t, parsed.Filters, expected.Filters)
	})
}

func TestBuildQuerySimple(t *testing.T) {
	position := spoke.ComponentTypeOf[Position]()

	parseQueryTest(t, reflect.TypeFor[Position](), expectedQuery{
		Fetch:   []Fetch{{ComponentType: position}},
		Borrows: borrow.Borrows{borrow.AccessOf[Position]()},
		Setters: 1,
	})

	parseQueryTest(t, reflect.TypeFor[*Position](), expectedQuery{
		Fetch:   []Fetch{{ComponentType: position}},
		Borrows: borrow.Borrows{borrow.AccessOf[*Position]()},
		Setters: 1,
	})

	parseQueryTest(t, reflect.TypeFor[Option[Position]](), expectedQuery{
		Fetch:   []Fetch{{ComponentType: position, Optional: true}},
		Borrows: borrow.Borrows{borrow.AccessOf[Position]()},
		Setters: 1,
	})

	parseQueryTest(t, reflect.TypeFor[OptionMut[Position]](), expectedQuery{
		Fetch:   []Fetch{{ComponentType: position, Optional: true}},
		Borrows: borrow.Borrows{borrow.AccessOf[*Position]()},
		Setters: 1,
	})

	parseQueryTest(t, reflect.TypeFor[Has[Position]](), expectedQuery{
		Setters: 1,
	})

	parseQueryTest(t, reflect.TypeFor[With[Position]](), expectedQuery{
		Filters: 1,
	})

	parseQueryTest(t, reflect.TypeFor[Without[Position]](), expectedQuery{
		Filters: 1,
	})

	parseQueryTest(t, reflect.TypeFor[Or[With[Velocity], Without[Position]]](), expectedQuery{
		Filters: 1,
	})

	parseQueryTest(t, reflect.TypeFor[spoke.EntityId](), expectedQuery{
		Setters: 1,
	})
}

func TestParseQueryStruct(t *testing.T) {
	type Item struct {
		// can be embedded
		spoke.EntityId

		// embeddable filters can also be embedded
		Without[Velocity]

		// normal fetches can be recursive
		Nested struct {
			Position     *Position
			Config       SomeConfig
			Acceleration Option[Acceleration]
			HasVelocity  Has[Velocity]
		}
	}

	parseQueryTest(t, reflect.TypeFor[Item](), expectedQuery{
		Fetch: []Fetch{
			{ComponentType: spoke.ComponentTypeOf[Position]()},
			{ComponentType: spoke.ComponentTypeOf[SomeConfig]()},
			{ComponentType: spoke.ComponentTypeOf[Acceleration](), Optional: true},
		},

		Borrows: borrow.Borrows{
			borrow.AccessOf[*Position](),
			borrow.AccessOf[SomeConfig](),
			borrow.AccessOf[Acceleration](),
		},

		Setters: 5,
		Filters: 1,
	})
}

func TestParseQueryInvalid(t *testing.T) {
	invalid := []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[**Position](),
		reflect.TypeFor[struct{ Position }](),
		reflect.TypeFor[struct{ position Position }](),
		reflect.TypeFor[struct{ Value string }](),
		reflect.TypeFor[struct{ Nested struct{ Value []int } }](),
	}

	for _, ty := range invalid {
		t.Run(ty.String(), func(t *testing.T) {
			_, err := ParseQuery(ty)
			require.Error(t, err)
		})
	}
}

type configAccess struct{}

func (*configAccess) ComponentBorrows() borrow.Borrows {
	return borrow.Borrows{borrow.AccessOf[*SomeConfig]()}
}

func TestParseBorrows(t *testing.T) {
	borrows, err := ParseBorrows(reflect.TypeFor[struct {
		Config   configAccess
		Position Position
		Motion   struct {
			Velocity *Velocity
			Position Position
		}
		Without[Acceleration]
	}]())

	require.NoError(t, err)
	require.Equal(t, borrow.Borrows{
		borrow.AccessOf[*SomeConfig](),
		borrow.AccessOf[Position](),
		borrow.AccessOf[*Velocity](),
		borrow.AccessOf[Position](),
	}, borrows)

	_, err = ParseBorrows(reflect.TypeFor[string]())
	require.Error(t, err)
}

func TestParsedQuery_Matches(t *testing.T) {
	s := spoke.NewStorage()
	s.Spawn(1, []spoke.ErasedComponent{Position{X: 1}, Velocity{X: 2}})
	s.Spawn(2, []spoke.ErasedComponent{Position{X: 3}})
	s.Spawn(3, []spoke.ErasedComponent{Velocity{X: 4}, Acceleration{}})

	matching := func(queryType reflect.Type) []spoke.EntityId {
		parsed, err := ParseQuery(queryType)
		require.NoError(t, err)

		var ids []spoke.EntityId
		for ref := range s.Iter() {
			if parsed.Matches(ref) {
				ids = append(ids, ref.EntityId)
			}
		}

		return ids
	}

	require.ElementsMatch(t, []spoke.EntityId{1, 2}, matching(reflect.TypeFor[Position]()))
	require.ElementsMatch(t, []spoke.EntityId{1, 2, 3}, matching(reflect.TypeFor[Option[Position]]()))
	require.ElementsMatch(t, []spoke.EntityId{1}, matching(reflect.TypeFor[struct {
		Position Position
		With[Velocity]
	}]()))
	require.ElementsMatch(t, []spoke.EntityId{2}, matching(reflect.TypeFor[struct {
		Position *Position
		Without[Velocity]
	}]()))
	require.ElementsMatch(t, []spoke.EntityId{2, 3}, matching(reflect.TypeFor[struct {
		spoke.EntityId
		Or[With[Acceleration], Without[Velocity]]
	}]()))
}

func TestFromEntity(t *testing.T) {
	s := spoke.NewStorage()
	s.Spawn(10, []spoke.ErasedComponent{
		&Position{X: 1},
		&Velocity{X: 2},
	})

	entity, _ := s.Get(10)

	runTestFromEntity(t, entity, Position{X: 1})
	runTestFromEntity(t, entity, &Position{X: 1})

	{
		type QueryItemWithMutable struct {
			Position *Position
			Velocity Velocity
		}

		runTestFromEntity(t, entity, QueryItemWithMutable{
			Position: &Position{X: 1},
			Velocity: Velocity{X: 2},
		})
	}

	{
		type QueryItemWithHas struct {
			Position        Position
			HasVelocity     Has[Velocity]
			HasAcceleration Has[Acceleration]
		}

		runTestFromEntity(t, entity, QueryItemWithHas{
			Position:    Position{X: 1},
			HasVelocity: Has[Velocity]{Exists: true},
		})
	}

	{
		type QueryItemWithOption struct {
			Position     Option[Position]
			Velocity     OptionMut[Velocity]
			Acceleration Option[Acceleration]
		}

		runTestFromEntity(t, entity, QueryItemWithOption{
			Position: Option[Position]{value: &Position{X: 1}},
			Velocity: OptionMut[Velocity]{value: &Velocity{X: 2}},
		})
	}

	{
		type QueryItemWithEmbeddedEntity struct {
			spoke.EntityId
			With[Velocity]
		}

		runTestFromEntity(t, entity, QueryItemWithEmbeddedEntity{
			EntityId: spoke.EntityId(10),
		})
	}

	type QueryItemWithNestedStruct struct {
		spoke.EntityId

		Motion struct {
			Position *Position
			Velocity Velocity
		}
	}

	runTestFromEntity(t, entity, QueryItemWithNestedStruct{
		EntityId: spoke.EntityId(10),
		Motion: struct {
			Position *Position
			Velocity Velocity
		}{
			Position: &Position{X: 1},
			Velocity: Velocity{X: 2},
		},
	})

	runTestFromEntity(t, entity, spoke.EntityId(10))
}

func TestFromEntity_PointsIntoStorage(t *testing.T) {
	s := spoke.NewStorage()
	s.Spawn(1, []spoke.ErasedComponent{Position{X: 1}})

	entity, _ := s.Get(1)

	parsed, err := ParseQuery(reflect.TypeFor[*Position]())
	require.NoError(t, err)

	var target *Position
	FromEntity(reflect.ValueOf(&target).Elem(), parsed.Setters, entity)

	target.X = 42

	stored, _ := entity.Get(spoke.ComponentTypeOf[Position]())
	require.Equal(t, 42, stored.(*Position).X)
}

func runTestFromEntity[Q any](t *testing.T, entity spoke.EntityRef, expected Q) {
	t.Run(reflect.TypeFor[Q]().String(), func(t *testing.T) {
		parsed, err := ParseQuery(reflect.TypeFor[Q]())
		require.NoError(t, err)

		var queryTarget Q
		FromEntity(reflect.ValueOf(&queryTarget).Elem(), parsed.Setters, entity)
		require.Equal(t, expected, queryTarget)
	})
}

func BenchmarkFromEntity(b *testing.B) {
	type QueryItem struct {
		spoke.EntityId

		With[Acceleration]

		Position        *Position
		Velocity        Velocity
		Acceleration    Option[Acceleration]
		HasAcceleration Has[Acceleration]
	}

	query, err := ParseQuery(reflect.TypeFor[QueryItem]())
	require.NoError(b, err)

	s := spoke.NewStorage()
	s.Spawn(10, []spoke.ErasedComponent{
		&Position{X: 1},
		&Velocity{X: 2},
		&Acceleration{X: 3},
	})

	entity, _ := s.Get(10)

	var value QueryItem
	target := reflect.ValueOf(&value).Elem()

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		FromEntity(target, query.Setters, entity)
	}
}
