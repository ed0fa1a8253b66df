package review

import "fmt"

// Kind discriminates ResultState values.
type Kind int

const (
	KindLoading Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "Loading"
	case KindSuccess:
		return "Success"
	case KindError:
		return "Error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ResultState is the state of an asynchronously derived value.
// Build it with Loading, Success or Failure.
type ResultState[T any] struct {
	kind  Kind
	value T
	err   error
}

func Loading[T any]() ResultState[T] {
	return ResultState[T]{kind: KindLoading}
}

func Success[T any](v T) ResultState[T] {
	return ResultState[T]{kind: KindSuccess, value: v}
}

func Failure[T any](err error) ResultState[T] {
	return ResultState[T]{kind: KindError, err: err}
}

func (s ResultState[T]) Kind() Kind { return s.kind }

// Value returns the success value; ok is false for Loading and Error.
func (s ResultState[T]) Value() (T, bool) {
	return s.value, s.kind == KindSuccess
}

// Err returns the cause of an Error state, nil otherwise.
func (s ResultState[T]) Err() error {
	if s.kind != KindError {
		return nil
	}
	return s.err
}

func (s ResultState[T]) String() string {
	switch s.kind {
	case KindSuccess:
		return fmt.Sprintf("Success(%v)", s.value)
	case KindError:
		return fmt.Sprintf("Error(%v)", s.err)
	}
	return s.kind.String()
}
