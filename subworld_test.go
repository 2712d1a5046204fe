package lend

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/oliverbestmann/lend/borrow"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type ReadPosition struct {
	Position Position
}

type WritePosition struct {
	Position *Position
}

type Movement struct {
	Position *Position
	Velocity Velocity
}

func TestBorrowsOf(t *testing.T) {
	require.Equal(t, borrow.Borrows{borrow.AccessOf[Position]()}, BorrowsOf[Position]())
	require.Equal(t, borrow.Borrows{borrow.AccessOf[*Position]()}, BorrowsOf[*Position]())

	require.Equal(t,
		borrow.Borrows{borrow.AccessOf[*Position](), borrow.AccessOf[Velocity]()},
		BorrowsOf[Movement]())

	require.Equal(t,
		borrow.Borrows{borrow.AccessOf[*Position](), borrow.AccessOf[Velocity](), borrow.AccessOf[World]()},
		BorrowsOf[SubWorld[Movement]]())

	require.Equal(t,
		borrow.Borrows{borrow.AccessOf[Health]()},
		BorrowsOf[struct {
			EntityId
			Without[Player]
			Health      Option[Health]
			HasVelocity Has[Velocity]
		}]())

	// callers get their own copy
	borrows := BorrowsOf[Movement]()
	borrows[0] = borrow.AccessOf[Health]()
	require.Equal(t, borrow.AccessOf[*Position](), BorrowsOf[Movement]()[0])

	require.Panics(t, func() { BorrowsOf[string]() })
}

func TestHasBorrow(t *testing.T) {
	require.True(t, HasBorrow[Movement, Position]())
	require.True(t, HasBorrow[Movement, *Position]())
	require.True(t, HasBorrow[Movement, Velocity]())
	require.False(t, HasBorrow[Movement, *Velocity]())
	require.False(t, HasBorrow[Movement, Health]())
}

func TestIsSubset(t *testing.T) {
	// reflexive
	require.True(t, IsSubset[Movement, Movement]())
	require.True(t, IsSubset[ReadPosition, ReadPosition]())

	// shared accesses are covered regardless of exclusivity
	require.True(t, IsSubset[ReadPosition, WritePosition]())
	require.True(t, IsSubset[ReadPosition, Movement]())

	// exclusive over shared fails
	require.False(t, IsSubset[WritePosition, ReadPosition]())

	// duplicates never cause false negatives
	require.True(t, IsSubset[struct {
		A Position
		B Position
	}, ReadPosition]())

	// undeclared types are never covered
	require.False(t, IsSubset[Health, Movement]())
}

func TestSubWorld_TryQueryOf(t *testing.T) {
	w := NewWorld()
	w.Spawn([]ErasedComponent{Position{X: 1}})

	t.Run("exclusive query on shared subworld", func(t *testing.T) {
		sw := Split[ReadPosition](w)

		_, err := TryQueryOf[*Position](sw)
		require.ErrorIs(t, err, ErrIncompatibleSubworld)

		var incompatible *IncompatibleSubworldError
		require.True(t, errors.As(err, &incompatible))
		require.Equal(t, borrow.Borrows{borrow.AccessOf[Position]()}, incompatible.Subworld)
		require.Equal(t, borrow.Borrows{borrow.AccessOf[*Position]()}, incompatible.Query)
	})

	t.Run("shared query on exclusive subworld", func(t *testing.T) {
		sw := Split[WritePosition](w)

		q, err := TryQueryOf[Position](sw)
		require.NoError(t, err)
		require.Equal(t, 1, q.Count())
	})

	t.Run("undeclared type", func(t *testing.T) {
		sw := Split[Movement](w)

		_, err := TryQueryOf[struct {
			Position Position
			Health   Option[Health]
		}](sw)

		require.ErrorIs(t, err, ErrIncompatibleSubworld)
	})
}

func TestSubWorld_QueryOf(t *testing.T) {
	w := NewWorld()
	w.Spawn([]ErasedComponent{Position{X: 1}, Velocity{X: 2}})

	sw := Split[Movement](w)

	for item := range QueryOf[Movement](sw).Items() {
		item.Position.X += item.Velocity.X
	}

	position, ok := QueryOf[Position](sw).Single()
	require.True(t, ok)
	require.Equal(t, 3.0, position.X)

	require.PanicsWithError(t, (&IncompatibleSubworldError{
		Subworld: BorrowsOf[Movement](),
		Query:    BorrowsOf[*Velocity](),
	}).Error(), func() {
		QueryOf[*Velocity](sw)
	})
}

func TestSubWorld_HasAccess(t *testing.T) {
	sw := Split[Movement](NewWorld())

	require.True(t, HasAccess[Position](sw))
	require.True(t, HasAccess[*Position](sw))
	require.True(t, HasAccess[Velocity](sw))
	require.False(t, HasAccess[*Velocity](sw))
	require.False(t, HasAccess[Health](sw))

	require.True(t, HasAll[ReadPosition](sw))
	require.True(t, HasAll[Movement](sw))
	require.False(t, HasAll[struct{ Velocity *Velocity }](sw))
}

func TestSubWorld_QueryOneOf(t *testing.T) {
	w := NewWorld()
	entityId := w.Spawn([]ErasedComponent{Position{X: 1}})
	other := w.Spawn([]ErasedComponent{Velocity{}})

	sw := Split[WritePosition](w)

	q, err := QueryOneOf[*Position](sw, entityId)
	require.NoError(t, err)
	require.Equal(t, entityId, q.EntityId())

	position, ok := q.Get()
	require.True(t, ok)
	position.X = 5

	value, err := ComponentOf[Position](sw, entityId)
	require.NoError(t, err)
	require.Equal(t, 5.0, value.X)

	// entity exists but does not match the query
	q, err = QueryOneOf[*Position](sw, other)
	require.NoError(t, err)

	_, ok = q.Get()
	require.False(t, ok)

	// entity does not exist
	_, err = QueryOneOf[*Position](sw, EntityId(1234))

	var noSuchEntity *NoSuchEntityError
	require.True(t, errors.As(err, &noSuchEntity))
	require.Equal(t, EntityId(1234), noSuchEntity.EntityId)

	// incompatibility is reported before the entity is checked
	_, err = QueryOneOf[*Velocity](sw, EntityId(1234))
	require.ErrorIs(t, err, ErrIncompatibleSubworld)
}

func TestSubWorld_ComponentOf(t *testing.T) {
	w, storage := newRecordingWorld()
	entityId := w.Spawn([]ErasedComponent{Position{X: 1}, Velocity{X: 2}})

	sw := Split[ReadPosition](w)

	// an undeclared component is rejected without touching the storage
	_, err := ComponentOf[Velocity](sw, entityId)
	require.ErrorIs(t, err, ErrIncompatibleSubworld)
	require.Zero(t, storage.reads.Load())

	position, err := ComponentOf[Position](sw, entityId)
	require.NoError(t, err)
	require.Equal(t, 1.0, position.X)
	require.NotZero(t, storage.reads.Load())

	// the returned value is a copy
	position.X = 10

	position, _ = ComponentOf[Position](sw, entityId)
	require.Equal(t, 1.0, position.X)

	_, err = ComponentOf[Position](sw, EntityId(99))
	require.ErrorIs(t, err, ErrNoSuchEntity)

	// the entity exists but lacks the component
	other := w.Spawn([]ErasedComponent{Velocity{}})
	_, err = ComponentOf[Position](sw, other)
	require.ErrorIs(t, err, ErrNoSuchEntity)
}

func TestSubWorld_QueryRejectedWithoutStorageAccess(t *testing.T) {
	w, storage := newRecordingWorld()
	w.Spawn([]ErasedComponent{Position{}})

	sw := Split[ReadPosition](w)

	_, err := TryQueryOf[*Position](sw)
	require.Error(t, err)

	_, err = QueryOneOf[Velocity](sw, EntityId(1))
	require.Error(t, err)

	require.Zero(t, storage.reads.Load())
}

func TestSubWorld_Borrows(t *testing.T) {
	sw := Split[Movement](NewWorld())

	require.Equal(t, BorrowsOf[Movement](), sw.Borrows())
	require.Equal(t, append(BorrowsOf[Movement](), borrow.AccessOf[World]()), sw.ComponentBorrows())
	require.Equal(t, "SubWorld[*lend.Position, lend.Velocity]", sw.String())

	// not borrowed from a context, release does nothing
	sw.Release()
	require.Equal(t, 0, QueryOf[Position](sw).Count())
}

func TestSubWorld_NotInitialized(t *testing.T) {
	var sw SubWorld[ReadPosition]
	require.Panics(t, func() { QueryOf[Position](&sw) })
}

func TestSubWorld_View(t *testing.T) {
	var view View[*World] = &SubWorld[ReadPosition]{}

	w := NewWorld()
	w.Spawn([]ErasedComponent{Position{}})

	view.Split(w)

	sw := view.(*SubWorld[ReadPosition])
	require.Equal(t, 1, QueryOf[Position](sw).Count())
}

func TestSubWorld_ConcurrentQueries(t *testing.T) {
	w := NewWorld()

	for idx := range 1000 {
		w.Spawn([]ErasedComponent{
			Position{X: float64(idx)},
			Velocity{X: 1},
			Health{Value: idx},
		})
	}

	movement := Split[Movement](w)
	healthA := Split[struct{ Health *Health }](w)
	readerA := Split[struct{ Velocity Velocity }](w)
	readerB := Split[struct{ Velocity Velocity }](w)

	// declared borrows do not conflict
	require.False(t, movement.Borrows().ConflictsWith(healthA.Borrows()))
	require.False(t, movement.Borrows().ConflictsWith(readerA.Borrows()))
	require.False(t, readerA.Borrows().ConflictsWith(readerB.Borrows()))

	var group errgroup.Group

	group.Go(func() error {
		for range 10 {
			for item := range QueryOf[Movement](movement).Items() {
				item.Position.X += item.Velocity.X
			}
		}

		return nil
	})

	group.Go(func() error {
		for range 10 {
			for health := range QueryOf[*Health](healthA).Items() {
				health.Value += 1
			}
		}

		return nil
	})

	for _, reader := range []*SubWorld[struct{ Velocity Velocity }]{readerA, readerB} {
		group.Go(func() error {
			var sum float64
			for velocity := range QueryOf[Velocity](reader).Items() {
				sum += velocity.X
			}

			if sum != 1000 {
				return errors.Newf("unexpected velocity sum %f", sum)
			}

			return nil
		})
	}

	require.NoError(t, group.Wait())

	var positions, healths int
	for item := range QueryWorld[struct {
		Position Position
		Health   Health
	}](w).Items() {
		require.Equal(t, item.Position.X, float64(item.Health.Value))
		positions += 1
		healths += 1
	}

	require.Equal(t, 1000, positions)
	require.Equal(t, 1000, healths)
}
