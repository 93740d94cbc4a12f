package detector

type State int

const (
	StateSuspended State = iota // never checked until resumed or marked dirty
	StateDirty                  // watchers need to be evaluated
	StateChecking               // evaluation in progress
	StateChecked                // stable, skipped until dirtied again
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateDirty:
		return "dirty"
	case StateChecking:
		return "checking"
	case StateChecked:
		return "checked"
	default:
		return "unknown"
	}
}

type Expression func() (any, error)
type ChangeCallback func(newValue, oldValue any, firstTime bool)
type BeforeCheckFunc func()
type AfterCheckFunc func(changes *Changes)

// Watcher is a registered expression and the callback fired when its value
// changes. lastValue and firstTime belong to the Observer that owns it.
type Watcher struct {
	Expression Expression
	Callback   ChangeCallback
	// UseEquals selects structural equality instead of reference equality.
	UseEquals bool
	// Property marks an input watcher; its changes are collected into the
	// Changes handed to after-check hooks.
	Property string

	lastValue any
	firstTime bool
}

func (w *Watcher) LastValue() any {
	return w.lastValue
}

func (w *Watcher) FirstTime() bool {
	return w.firstTime
}

type WatchOption func(*Watcher)

func UseEquals() WatchOption {
	return func(w *Watcher) {
		w.UseEquals = true
	}
}

func AsInput(property string) WatchOption {
	return func(w *Watcher) {
		w.Property = property
	}
}

// Watch adapts a typed expression and callback into a Watcher. The old value
// passed to the callback is the zero value of T on the first change.
func Watch[T any](expr func() T, cb func(newValue, oldValue T, firstTime bool), opts ...WatchOption) Watcher {
	return WatchErr(func() (T, error) {
		return expr(), nil
	}, cb, opts...)
}

func WatchErr[T any](expr func() (T, error), cb func(newValue, oldValue T, firstTime bool), opts ...WatchOption) Watcher {
	w := Watcher{
		Expression: func() (any, error) {
			return expr()
		},
	}
	if cb != nil {
		w.Callback = func(newValue, oldValue any, firstTime bool) {
			nv, _ := newValue.(T)
			ov, _ := oldValue.(T)
			cb(nv, ov, firstTime)
		}
	}
	for _, opt := range opts {
		opt(&w)
	}
	return w
}
