// Package remotedata models the lifecycle of a single asynchronous fetch.
package remotedata

import "fmt"

type State int

const (
	NotAsked State = iota
	Loading
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case NotAsked:
		return "not-asked"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Data is an immutable snapshot of one fetch. Exactly one state is active;
// value is only meaningful for Success and err only for Failure.
type Data[T any] struct {
	state State
	value T
	err   error
}

func NotAskedData[T any]() Data[T] {
	return Data[T]{state: NotAsked}
}

func LoadingData[T any]() Data[T] {
	return Data[T]{state: Loading}
}

func SuccessData[T any](v T) Data[T] {
	return Data[T]{state: Success, value: v}
}

// FailureData wraps err. A nil err still produces a Failure so that callers
// can never accidentally observe a zero-value Success.
func FailureData[T any](err error) Data[T] {
	if err == nil {
		err = errUnknown
	}
	return Data[T]{state: Failure, err: err}
}

// FromResult folds a (value, error) pair into Success or Failure.
func FromResult[T any](v T, err error) Data[T] {
	if err != nil {
		return FailureData[T](err)
	}
	return SuccessData(v)
}

func (d Data[T]) State() State { return d.state }

func (d Data[T]) IsLoading() bool {
	return d.state == Loading || d.state == NotAsked
}

func (d Data[T]) Value() (T, bool) {
	if d.state != Success {
		var zero T
		return zero, false
	}
	return d.value, true
}

func (d Data[T]) Err() error {
	if d.state != Failure {
		return nil
	}
	return d.err
}

// Cases holds one handler per view branch. NotAsked is rendered through
// Loading since a deferred fetch is indistinguishable to the viewer.
type Cases[T, R any] struct {
	Loading func() R
	Failure func(error) R
	Success func(T) R
}

// Match runs exactly one of the handlers in c for d.
func Match[T, R any](d Data[T], c Cases[T, R]) R {
	switch d.state {
	case Success:
		return c.Success(d.value)
	case Failure:
		return c.Failure(d.err)
	default:
		return c.Loading()
	}
}

// Map transforms a Success value and passes the other states through.
func Map[T, U any](d Data[T], fn func(T) U) Data[U] {
	switch d.state {
	case Success:
		return SuccessData(fn(d.value))
	case Failure:
		return FailureData[U](d.err)
	case Loading:
		return LoadingData[U]()
	default:
		return NotAskedData[U]()
	}
}
