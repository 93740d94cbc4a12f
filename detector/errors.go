package detector

import (
	"errors"
	"fmt"
)

var (
	ErrCycle    = errors.New("detector: attaching would create a cycle")
	ErrUnstable = errors.New("detector: node still dirty after max passes")
	ErrDisposed = errors.New("detector: node disposed")
)

type Source string

const (
	SourceExpression  Source = "expression"
	SourceCallback    Source = "callback"
	SourceBeforeCheck Source = "beforeCheck"
	SourceAfterCheck  Source = "afterCheck"
	SourceTree        Source = "tree"
)

// WatchError wraps a failure caught while checking a node.
type WatchError struct {
	NodeID   uint64
	Source   Source
	Property string
	Err      error
}

func (e *WatchError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("node @%d %s %q: %v", e.NodeID, e.Source, e.Property, e.Err)
	}
	return fmt.Sprintf("node @%d %s: %v", e.NodeID, e.Source, e.Err)
}

func (e *WatchError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking expression, callback
// or hook.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
