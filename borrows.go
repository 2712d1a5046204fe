package lend

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/oliverbestmann/lend/borrow"
	"github.com/oliverbestmann/lend/internal/query"
)

type parsedBorrows struct {
	borrows borrow.Borrows
	err     error
}

type parsedQuery struct {
	query query.ParsedQuery
	err   error
}

// cache of parsed borrow specifications and queries, keyed by reflect.Type
var borrowsCache, queryCache sync.Map

// BorrowsOf returns the accesses declared by the borrow specification T.
//
// A component type C declares shared access to C, a pointer *C declares
// exclusive access to C. A struct declares the accesses of all its exported
// fields, in order and without removing duplicates. Option, OptionMut and
// types implementing borrow.ComponentBorrow (like SubWorld) are also accepted.
// EntityId, Has, With and Without declare no access.
//
// BorrowsOf panics if T is not a valid borrow specification. The returned
// value may be modified by the caller.
func BorrowsOf[T any]() borrow.Borrows {
	return reflectBorrows(reflect.TypeFor[T]()).Clone()
}

func reflectBorrows(ty reflect.Type) borrow.Borrows {
	cached, ok := borrowsCache.Load(ty)
	if !ok {
		borrows, err := query.ParseBorrows(ty)
		if err == nil {
			slog.Debug("Parsed borrow specification", slog.String("type", ty.String()), slog.Any("borrows", borrows))
		}

		cached, _ = borrowsCache.LoadOrStore(ty, &parsedBorrows{borrows: borrows, err: err})
	}

	parsed := cached.(*parsedBorrows)
	if parsed.err != nil {
		panic(fmt.Sprintf("invalid borrow specification %s: %s", ty, parsed.err))
	}

	return parsed.borrows
}

func mustParseQuery[Q any]() *query.ParsedQuery {
	ty := reflect.TypeFor[Q]()

	cached, ok := queryCache.Load(ty)
	if !ok {
		parsed, err := query.ParseQuery(ty)
		cached, _ = queryCache.LoadOrStore(ty, &parsedQuery{query: parsed, err: err})
	}

	parsed := cached.(*parsedQuery)
	if parsed.err != nil {
		panic(fmt.Sprintf("failed to parse query of type %s: %s", ty, parsed.err))
	}

	return &parsed.query
}

// HasBorrow reports whether the specification T grants the single access U.
// U is either a component type C requesting shared access,
// or a pointer *C requesting exclusive access.
func HasBorrow[T, U any]() bool {
	return reflectBorrows(reflect.TypeFor[T]()).Has(borrow.AccessOf[U]())
}

// IsSubset reports whether every access declared by Q is covered
// by an access declared in T.
func IsSubset[Q, T any]() bool {
	return borrow.IsSubset(
		reflectBorrows(reflect.TypeFor[Q]()),
		reflectBorrows(reflect.TypeFor[T]()),
	)
}
