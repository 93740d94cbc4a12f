// Package component connects component instances to a detector tree: each
// component gets its own node, forked from its parent component's node or
// from the injected root.
package component

import (
	"errors"
	"fmt"
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/watchparty/detector"
	"github.com/delaneyj/watchparty/inputs"
)

var (
	ErrNilComponent   = errors.New("component: nil component")
	ErrAlreadyCreated = errors.New("component: detector already created")
	ErrUnknown        = errors.New("component: no detector for component")
	ErrNotComparable  = errors.New("component: component is not comparable")
)

// Tagged components have their inputs looked up by tag.
type Tagged interface {
	Tag() string
}

type BeforeChecker interface {
	OnBeforeCheck()
}

// ChangesHandler receives the input changes of a check pass. It is only
// called when at least one input changed.
type ChangesHandler interface {
	OnChanges(changes *detector.Changes)
}

type Initializer interface {
	OnInit()
}

type Destroyer interface {
	OnDestroy()
}

// Binder tracks the detector of every live component. Components are map
// keys: Create rejects values that are not comparable, and pointers are
// expected.
type Binder struct {
	root        *detector.Node
	inputs      *inputs.Registry
	detectors   map[any]*detector.Node
	initialized mapset.Set[any]
}

func NewBinder(root *detector.Node, registry *inputs.Registry) *Binder {
	if registry == nil {
		registry = inputs.NewRegistry()
	}
	return &Binder{
		root:        root,
		inputs:      registry,
		detectors:   map[any]*detector.Node{},
		initialized: mapset.NewThreadUnsafeSet[any](),
	}
}

func (b *Binder) Root() *detector.Node {
	return b.root
}

func (b *Binder) DetectorOf(c any) (*detector.Node, bool) {
	if !hashable(c) {
		return nil, false
	}
	n, ok := b.detectors[c]
	return n, ok
}

// hashable reports whether c can be used as a map key without panicking.
func hashable(c any) bool {
	return c != nil && reflect.ValueOf(c).Comparable()
}

// Create forks a detector for c under its parent component's detector, or
// under the root when parent is nil or unknown, and wires c's lifecycle
// hooks and declared inputs to it.
func (b *Binder) Create(c any, parent any) (*detector.Node, error) {
	if c == nil {
		return nil, ErrNilComponent
	}
	if !hashable(c) {
		return nil, fmt.Errorf("%w: %T", ErrNotComparable, c)
	}
	if _, ok := b.detectors[c]; ok {
		return nil, fmt.Errorf("%w: %T", ErrAlreadyCreated, c)
	}

	var watchers []detector.Watcher
	if t, ok := c.(Tagged); ok {
		if binding, ok := b.inputs.Lookup(t.Tag()); ok {
			ws, err := binding.Watchers(c)
			if err != nil {
				return nil, fmt.Errorf("bind inputs of %s: %w", t.Tag(), err)
			}
			watchers = ws
		}
	}

	n := b.parentOf(parent).Fork()
	if bc, ok := c.(BeforeChecker); ok {
		n.BeforeCheck(bc.OnBeforeCheck)
	}
	for _, w := range watchers {
		n.Watch(w)
	}
	if ch, ok := c.(ChangesHandler); ok {
		n.AfterCheck(func(changes *detector.Changes) {
			if changes.Len() > 0 {
				ch.OnChanges(changes)
			}
		})
	}

	b.detectors[c] = n
	return n, nil
}

func (b *Binder) parentOf(parent any) *detector.Node {
	if n, ok := b.DetectorOf(parent); ok {
		return n
	}
	return b.root
}

// Init runs OnInit once and requests a check of the component's tree.
func (b *Binder) Init(c any, opts ...detector.CheckOption) (*detector.Pending, error) {
	n, ok := b.DetectorOf(c)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknown, c)
	}
	if b.initialized.Add(c) {
		if i, ok := c.(Initializer); ok {
			i.OnInit()
		}
	}
	return n.DetectChanges(opts...), nil
}

// Move re-parents the detector of c under newParent's detector (or the root)
// keeping its watcher state.
func (b *Binder) Move(c any, newParent any) error {
	n, ok := b.DetectorOf(c)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnknown, c)
	}
	return n.AttachToParent(b.parentOf(newParent))
}

// Destroy calls OnDestroy and disposes the component's detector.
func (b *Binder) Destroy(c any) {
	n, ok := b.DetectorOf(c)
	if !ok {
		return
	}
	if d, ok := c.(Destroyer); ok {
		d.OnDestroy()
	}
	n.Dispose()
	delete(b.detectors, c)
	b.initialized.Remove(c)
}
