package borrow

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/mask"
)

// number of bits used to summarize a set of types. Types share bits once
// more than summaryBits types were seen, the summary is only ever used
// to rule out conflicts.
const summaryBits = 64

var typeBits sync.Map

var nextTypeBit atomic.Uint32

func bitOf(ty reflect.Type) uint32 {
	if bit, ok := typeBits.Load(ty); ok {
		return bit.(uint32)
	}

	// losing the race skips a bit. Bits are shared between types anyways,
	// the summary only rules out conflicts.
	bit, _ := typeBits.LoadOrStore(ty, (nextTypeBit.Add(1)-1)%summaryBits)
	return bit.(uint32)
}

type summary struct {
	all       mask.Mask
	exclusive mask.Mask
}

func summarize(borrows Borrows) summary {
	var s summary

	for _, access := range borrows {
		bit := bitOf(access.Type)

		s.all.Mark(bit)

		if access.Exclusive {
			s.exclusive.Mark(bit)
		}
	}

	return s
}

// overlaps returns false if the summarized sets can not contain a conflicting pair.
func (s summary) overlaps(other summary) bool {
	return s.exclusive.ContainsAny(other.all) || other.exclusive.ContainsAny(s.all)
}
