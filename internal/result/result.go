package result

// Result carries either a success value or a business Error, never both.
// The zero value is neither and reports IsSuccess false.
type Result[T any] struct {
	value T
	err   *Error
	ok    bool
}

// Success wraps a value.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Failure wraps a business error. A nil error is replaced with a generic one
// so that a Failure never reads as a Success.
func Failure[T any](err *Error) Result[T] {
	if err == nil {
		err = &Error{Code: CodeUnknown, Type: TypeUnknown}
	}
	return Result[T]{err: err}
}

// FailureFrom re-types a failed result, keeping its error.
func FailureFrom[T, U any](r Result[U]) Result[T] {
	return Failure[T](r.err)
}

// IsSuccess reports whether the result was built by Success.
func (r Result[T]) IsSuccess() bool {
	return r.ok
}

// Value returns the success value, or the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the business error, or nil on success.
func (r Result[T]) Err() *Error {
	return r.err
}
