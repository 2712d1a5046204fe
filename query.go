package lend

import (
	"iter"
	"reflect"

	"github.com/oliverbestmann/lend/internal/query"
)

// Query iterates over all entities of a World matching the query type Q.
//
// Q is either a single query parameter (e.g. a component, a pointer to a component
// or an Option) or a struct of query parameters and filters. Pointer fields
// point directly into the storage of the world.
//
// A query created from a SubWorld is only valid as long as the SubWorld is.
// Using it after the SubWorld was released panics.
type Query[Q any] struct {
	source worldSource
	parsed *query.ParsedQuery
}

// worldSource resolves the World a query runs on. It panics if
// the World is not accessible anymore.
type worldSource interface {
	target() *World
}

func newQuery[Q any](source worldSource, parsed *query.ParsedQuery) *Query[Q] {
	return &Query[Q]{source: source, parsed: parsed}
}

// Items returns an iterator over the matching entities.
func (q *Query[Q]) Items() iter.Seq[Q] {
	return func(yield func(Q) bool) {
		var target Q
		targetValue := reflect.ValueOf(&target).Elem()

		for ref := range q.source.target().storage.Iter() {
			if !q.parsed.Matches(ref) {
				continue
			}

			query.FromEntity(targetValue, q.parsed.Setters, ref)

			if !yield(target) {
				return
			}
		}
	}
}

func (q *Query[Q]) Count() int {
	var count int
	for range q.Items() {
		count += 1
	}

	return count
}

// Get returns the query item for the given entity. Returns false if the entity
// does not exist or does not match the query.
func (q *Query[Q]) Get(entityId EntityId) (Q, bool) {
	var target Q

	ref, ok := q.source.target().storage.Get(entityId)
	if !ok || !q.parsed.Matches(ref) {
		return target, false
	}

	query.FromEntity(reflect.ValueOf(&target).Elem(), q.parsed.Setters, ref)

	return target, true
}

// Single returns the only item of the query. Returns false
// if the query matches no entity or more than one.
func (q *Query[Q]) Single() (Q, bool) {
	var result Q
	var count int

	for item := range q.Items() {
		count += 1
		if count > 1 {
			var zeroValue Q
			return zeroValue, false
		}

		result = item
	}

	return result, count == 1
}

// QueryOne is a query restricted to a single entity.
type QueryOne[Q any] struct {
	query    *Query[Q]
	entityId EntityId
}

func (q *QueryOne[Q]) EntityId() EntityId {
	return q.entityId
}

// Get returns the query item of the entity. Returns false if the
// entity does not match the query.
func (q *QueryOne[Q]) Get() (Q, bool) {
	return q.query.Get(q.entityId)
}
