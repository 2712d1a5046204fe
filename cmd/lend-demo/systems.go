package main

import (
	"math/rand/v2"

	"github.com/oliverbestmann/lend"
)

type Position struct {
	lend.Component[Position]
	X, Y float64
}

type Velocity struct {
	lend.Component[Velocity]
	X, Y float64
}

type Health struct {
	lend.Component[Health]
	Value float64
}

type Age struct {
	lend.Component[Age]
	Passes int
}

type Gravity struct {
	Value float64
}

type Stats struct {
	Passes int
	Alive  int
	MaxX   float64
}

type Movement struct {
	Position *Position
	Velocity Velocity
}

type Regeneration struct {
	Health *Health
	Age    lend.Option[Age]
}

type System struct {
	Name string
	Fn   any
}

var demoSystems = []System{
	{Name: "gravity", Fn: applyGravity},
	{Name: "movement", Fn: moveEntities},
	{Name: "aging", Fn: ageEntities},
	{Name: "regeneration", Fn: regenerateHealth},
	{Name: "count alive", Fn: countAlive},
	{Name: "track max x", Fn: trackMaxX},
}

func spawnEntities(count int) func(world *lend.ResMut[lend.World]) {
	return func(world *lend.ResMut[lend.World]) {
		for idx := range count {
			components := []lend.ErasedComponent{
				Position{X: rand.Float64() * 100, Y: rand.Float64() * 100},
				Velocity{X: rand.Float64()*2 - 1},
				Health{Value: 50},
			}

			if idx%2 == 0 {
				components = append(components, Age{})
			}

			world.Value.Spawn(components)
		}
	}
}

func applyGravity(sw *lend.SubWorld[struct{ Velocity *Velocity }], gravity *lend.Res[Gravity]) {
	for velocity := range lend.QueryOf[*Velocity](sw).Items() {
		velocity.Y -= gravity.Value.Value
	}
}

func moveEntities(sw *lend.SubWorld[Movement]) {
	for item := range lend.QueryOf[Movement](sw).Items() {
		item.Position.X += item.Velocity.X
		item.Position.Y += item.Velocity.Y
	}
}

func ageEntities(sw *lend.SubWorld[struct{ Age *Age }]) {
	for age := range lend.QueryOf[*Age](sw).Items() {
		age.Passes += 1
	}
}

func regenerateHealth(sw *lend.SubWorld[Regeneration]) {
	for item := range lend.QueryOf[Regeneration](sw).Items() {
		age, ok := item.Age.Get()
		if ok && age.Passes > 10 {
			item.Health.Value -= 1
			continue
		}

		item.Health.Value = min(item.Health.Value+1, 100)
	}
}

func countAlive(sw *lend.SubWorld[struct{ Health Health }], stats *lend.ResMut[Stats]) {
	stats.Value.Passes += 1
	stats.Value.Alive = 0

	for health := range lend.QueryOf[Health](sw).Items() {
		if health.Value > 0 {
			stats.Value.Alive += 1
		}
	}
}

func trackMaxX(sw *lend.SubWorld[struct{ Position Position }], stats *lend.ResMut[Stats]) error {
	stats.Value.MaxX = 0

	for position := range lend.QueryOf[Position](sw).Items() {
		stats.Value.MaxX = max(stats.Value.MaxX, position.X)
	}

	return nil
}
