// Package result carries the outcome of store and provider calls that must
// never panic across a boundary: either data or a failure reason.
package result

// Unit is the data of a successful operation that returns nothing.
type Unit struct{}

// Result is either Ok(data) or Err(reason).
type Result[T any] struct {
	data T
	err  error
}

// Ok wraps a successful value.
func Ok[T any](data T) Result[T] {
	return Result[T]{data: data}
}

// Err wraps a failure reason.
// PRE: err is non-nil
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Done is Ok(Unit{}).
func Done() Result[Unit] {
	return Ok(Unit{})
}

// IsOk reports whether the result carries data.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Data returns the carried value; the zero value on failure.
func (r Result[T]) Data() T {
	return r.data
}

// Error returns the failure reason, or nil on success.
func (r Result[T]) Error() error {
	return r.err
}

// Unwrap converts the result back into Go's (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.data, r.err
}
