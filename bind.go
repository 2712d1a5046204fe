package lend

// BorrowSubWorld acquires a shared borrow of the World registered in the Context
// and restricts it to the accesses declared by T. Fails with a *BorrowError naming T
// if the World is borrowed exclusively, or with a *MissingResourceError if the
// Context does not contain a World.
//
// The returned SubWorld must be released once it is not needed anymore.
func BorrowSubWorld[T any](ctx *Context) (*SubWorld[T], error) {
	var sw SubWorld[T]
	if err := sw.BorrowFrom(ctx); err != nil {
		return nil, err
	}

	return &sw, nil
}

// MustSubWorld is like BorrowSubWorld but panics if the World can not be borrowed.
func MustSubWorld[T any](ctx *Context) *SubWorld[T] {
	sw, err := BorrowSubWorld[T](ctx)
	if err != nil {
		panic(err)
	}

	return sw
}

// WithSubWorld borrows a SubWorld from the Context, passes it to fn and releases it
// once fn returns or panics.
func WithSubWorld[T any](ctx *Context, fn func(sw *SubWorld[T]) error) error {
	sw, err := BorrowSubWorld[T](ctx)
	if err != nil {
		return err
	}

	defer sw.Release()

	return fn(sw)
}
