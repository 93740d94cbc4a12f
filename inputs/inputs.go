// Package inputs declares which properties of a component are inputs.
// Declarations are built once per component type and turned into input
// watchers for every instance.
package inputs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/watchparty/detector"
)

var (
	ErrDuplicateInput = errors.New("inputs: input declared twice")
	ErrDuplicateTag   = errors.New("inputs: tag already registered")
	ErrWrongType      = errors.New("inputs: component does not match declaration")
)

type Options struct {
	UseEquals bool
}

type Option func(*Options)

// UseEquals compares the input structurally instead of by reference.
func UseEquals() Option {
	return func(o *Options) {
		o.UseEquals = true
	}
}

type Input[T any] struct {
	Property string
	Get      func(c *T) any
	Options  Options
}

// Binding is a type-erased Declaration, as stored in a Registry.
type Binding interface {
	Tag() string
	Properties() []string
	Watchers(component any) ([]detector.Watcher, error)
}

type Declaration[T any] struct {
	tag    string
	inputs []Input[T]
	names  mapset.Set[string]
	err    error
}

func For[T any](tag string) *Declaration[T] {
	return &Declaration[T]{
		tag:   tag,
		names: mapset.NewThreadUnsafeSet[string](),
	}
}

// Input declares property as an input read through get. Declaring the same
// property twice is recorded and reported by Err and Registry.Register.
func (d *Declaration[T]) Input(property string, get func(c *T) any, opts ...Option) *Declaration[T] {
	if !d.names.Add(property) {
		if d.err == nil {
			d.err = fmt.Errorf("%w: %s.%s", ErrDuplicateInput, d.tag, property)
		}
		return d
	}

	in := Input[T]{Property: property, Get: get}
	for _, opt := range opts {
		opt(&in.Options)
	}
	d.inputs = append(d.inputs, in)
	return d
}

func (d *Declaration[T]) Err() error {
	return d.err
}

func (d *Declaration[T]) Tag() string {
	return d.tag
}

func (d *Declaration[T]) Properties() []string {
	props := make([]string, len(d.inputs))
	for i, in := range d.inputs {
		props[i] = in.Property
	}
	return props
}

// Bind returns one input watcher per declared input of c, in declaration
// order.
func (d *Declaration[T]) Bind(c *T) []detector.Watcher {
	watchers := make([]detector.Watcher, 0, len(d.inputs))
	for _, in := range d.inputs {
		get := in.Get
		watchers = append(watchers, detector.Watcher{
			Expression: func() (any, error) {
				return get(c), nil
			},
			UseEquals: in.Options.UseEquals,
			Property:  in.Property,
		})
	}
	return watchers
}

func (d *Declaration[T]) Watchers(component any) ([]detector.Watcher, error) {
	c, ok := component.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: %s got %T", ErrWrongType, d.tag, component)
	}
	return d.Bind(c), nil
}

// Registry maps component tags to their declarations.
type Registry struct {
	mu       sync.RWMutex
	bindings map[uint64]Binding
}

func NewRegistry() *Registry {
	return &Registry{bindings: map[uint64]Binding{}}
}

func Key(tag string) uint64 {
	return xxhash.Sum64String(tag)
}

func (r *Registry) Register(b Binding) error {
	if e, ok := b.(interface{ Err() error }); ok && e.Err() != nil {
		return e.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key(b.Tag())
	if _, ok := r.bindings[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTag, b.Tag())
	}
	r.bindings[key] = b
	return nil
}

func (r *Registry) Lookup(tag string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[Key(tag)]
	return b, ok
}
