package main

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/oliverbestmann/lend"
	"github.com/oliverbestmann/lend/borrow"
	"golang.org/x/sync/errgroup"
)

// planBatches groups systems into batches of systems without conflicting
// borrows. Each system is added to the first batch it does not conflict with.
func planBatches(systems []System) [][]System {
	var batches [][]System
	var batchBorrows []borrow.Borrows

outer:
	for _, system := range systems {
		borrows := lend.SystemBorrows(system.Fn)

		for idx := range batches {
			if batchBorrows[idx].ConflictsWith(borrows) {
				continue
			}

			batches[idx] = append(batches[idx], system)
			batchBorrows[idx] = append(batchBorrows[idx], borrows...)
			continue outer
		}

		batches = append(batches, []System{system})
		batchBorrows = append(batchBorrows, borrows)
	}

	return batches
}

// runBatch runs all systems of a batch concurrently.
func runBatch(ctx *lend.Context, batch []System) error {
	var group errgroup.Group

	for _, system := range batch {
		group.Go(func() error {
			if err := lend.RunSystem(ctx, system.Fn); err != nil {
				return errors.Wrapf(err, "system %q", system.Name)
			}

			return nil
		})
	}

	return group.Wait()
}

func simulate(entities, passes int) (Stats, error) {
	world := lend.NewWorld()

	ctx := lend.NewContext()

	if err := errors.CombineErrors(ctx.Insert(world), ctx.Insert(Gravity{Value: 0.1})); err != nil {
		return Stats{}, err
	}

	if err := ctx.Insert(Stats{}); err != nil {
		return Stats{}, err
	}

	if err := lend.RunSystem(ctx, spawnEntities(entities)); err != nil {
		return Stats{}, err
	}

	batches := planBatches(demoSystems)

	slog.Info("Running systems", slog.Int("entities", world.EntityCount()), slog.Int("batches", len(batches)))

	for range passes {
		for _, batch := range batches {
			if err := runBatch(ctx, batch); err != nil {
				return Stats{}, err
			}
		}
	}

	var stats lend.Res[Stats]
	if err := stats.BorrowFrom(ctx); err != nil {
		return Stats{}, err
	}

	defer stats.Release()

	return stats.Value, nil
}
