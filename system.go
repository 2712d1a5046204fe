package lend

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/oliverbestmann/lend/borrow"
	"github.com/oliverbestmann/lend/internal/refl"
	"github.com/oliverbestmann/lend/internal/typedpool"
)

var valueSlices = typedpool.New(func(values *[]reflect.Value) {
	// clear any pointers that are still in the slice
	clear(*values)
	*values = (*values)[:0]
})

type preparedSystem struct {
	// element types of the parameters, each is borrowed from the Context
	params []reflect.Type

	// true if the last result of the system is an error
	returnsError bool

	borrows borrow.Borrows
}

var preparedSystems sync.Map

func prepareSystem(systemType reflect.Type) *preparedSystem {
	if cached, ok := preparedSystems.Load(systemType); ok {
		return cached.(*preparedSystem)
	}

	if systemType.Kind() != reflect.Func {
		panic(fmt.Sprintf("not a function: %s", systemType))
	}

	if systemType.IsVariadic() {
		panic(fmt.Sprintf("system must not be variadic: %s", systemType))
	}

	prepared := &preparedSystem{}

	var borrows borrow.Builder

	for idx := range systemType.NumIn() {
		inType := systemType.In(idx)

		if inType.Kind() != reflect.Pointer || !refl.ImplementsInterfaceDirectly[ContextBorrow](inType) {
			panic(fmt.Sprintf("Argument %d of %s must be a pointer to a ContextBorrow, got %s", idx, systemType, inType))
		}

		if inType.Implements(reflect.TypeFor[borrow.ComponentBorrow]()) {
			borrows.PushAll(reflectBorrows(inType.Elem()))
		}

		prepared.params = append(prepared.params, inType.Elem())
	}

	switch {
	case systemType.NumOut() == 0:

	case systemType.NumOut() == 1 && systemType.Out(0) == reflect.TypeFor[error]():
		prepared.returnsError = true

	default:
		panic(fmt.Sprintf("system may only return an error: %s", systemType))
	}

	prepared.borrows = borrows.Borrows()

	cached, _ := preparedSystems.LoadOrStore(systemType, prepared)
	return cached.(*preparedSystem)
}

// SystemBorrows returns the accesses declared by the parameters of a system
// (see RunSystem). Schedulers may use it to find systems that can run concurrently.
func SystemBorrows(system any) borrow.Borrows {
	return prepareSystem(reflect.TypeOf(system)).borrows.Clone()
}

// RunSystem borrows every parameter of the system from the Context and calls it.
//
// A system is a function that accepts pointers to ContextBorrow types, like
// *SubWorld[T], *Res[R] or *ResMut[R], and optionally returns an error.
// Parameters are borrowed in order. If a borrow fails, all parameters borrowed
// so far are released and the error is returned without calling the system.
// Once the system returns or panics, all parameters are released.
func RunSystem(ctx *Context, system any) error {
	systemValue := reflect.ValueOf(system)
	prepared := prepareSystem(systemValue.Type())

	params := valueSlices.Get()
	defer valueSlices.Put(params)

	defer func() {
		for idx := len(*params) - 1; idx >= 0; idx-- {
			(*params)[idx].Interface().(ContextBorrow).Release()
		}
	}()

	for idx, paramType := range prepared.params {
		param := reflect.New(paramType)

		if err := param.Interface().(ContextBorrow).BorrowFrom(ctx); err != nil {
			return errors.Wrapf(err, "argument %d of system %s", idx, systemName(systemValue))
		}

		*params = append(*params, param)
	}

	results := systemValue.Call(*params)

	if prepared.returnsError && !results[0].IsNil() {
		return results[0].Interface().(error)
	}

	return nil
}

func systemName(system reflect.Value) string {
	if fn := runtime.FuncForPC(system.Pointer()); fn != nil {
		return fn.Name()
	}

	return system.Type().String()
}
