package detector

// Observer evaluates an ordered list of watchers between before and after
// check hooks. It knows nothing about the tree it may be part of.
type Observer struct {
	id          uint64
	cfg         *config
	state       State
	watchers    []*Watcher
	beforeCheck []BeforeCheckFunc
	afterCheck  []AfterCheckFunc
}

func NewObserver(opts ...Option) *Observer {
	return newObserver(newConfig(opts))
}

func newObserver(cfg *config) *Observer {
	return &Observer{
		id:    nextID(),
		cfg:   cfg,
		state: StateSuspended,
	}
}

func (o *Observer) ID() uint64 {
	return o.id
}

func (o *Observer) State() State {
	return o.state
}

func (o *Observer) IsDirty() bool {
	return o.state == StateDirty
}

func (o *Observer) BeforeCheck(fn BeforeCheckFunc) {
	o.beforeCheck = append(o.beforeCheck, fn)
}

func (o *Observer) AfterCheck(fn AfterCheckFunc) {
	o.afterCheck = append(o.afterCheck, fn)
}

func (o *Observer) MarkAsDirty() {
	o.state = StateDirty
}

func (o *Observer) Resume() {
	if o.state == StateSuspended {
		o.state = StateDirty
	}
}

// Suspend stops checks until the next dirty mark.
func (o *Observer) Suspend() {
	o.state = StateSuspended
}

// Watch registers w and returns the record the observer will update.
func (o *Observer) Watch(w Watcher) *Watcher {
	w.firstTime = true
	w.lastValue = nil
	record := &w
	o.watchers = append(o.watchers, record)
	return record
}

func (o *Observer) WatcherCount() int {
	return len(o.watchers)
}

// Check evaluates every watcher if the observer is dirty. It returns true
// when a watcher or hook marked the observer dirty again while it was being
// checked, in which case the caller should check again.
func (o *Observer) Check() (again bool) {
	if o.state == StateChecked || o.state == StateSuspended {
		return false
	}

	for _, fn := range o.beforeCheck {
		o.run(SourceBeforeCheck, "", func() error {
			fn()
			return nil
		})
	}

	o.state = StateChecking

	var changes *Changes
	for _, w := range o.watchers {
		changes = o.checkWatcher(changes, w)
	}

	for _, fn := range o.afterCheck {
		o.run(SourceAfterCheck, "", func() error {
			fn(changes)
			return nil
		})
	}

	if o.state != StateChecking {
		return o.state == StateDirty
	}
	o.state = StateChecked
	return false
}

func (o *Observer) checkWatcher(changes *Changes, w *Watcher) *Changes {
	var newValue any
	ok := o.run(SourceExpression, w.Property, func() (err error) {
		newValue, err = w.Expression()
		return err
	})
	if !ok {
		return changes
	}

	lastValue, firstTime := w.lastValue, w.firstTime
	stored := newValue
	if w.UseEquals {
		if deepEqual(newValue, lastValue) {
			return changes
		}
		// A value that cannot be cloned is reported and leaves the watcher
		// as it was.
		cloned := o.run(SourceExpression, w.Property, func() error {
			stored = deepClone(newValue)
			return nil
		})
		if !cloned {
			return changes
		}
	} else if sameValue(newValue, lastValue) {
		return changes
	}

	if w.Property != "" {
		if changes == nil {
			changes = NewChanges()
		}
		changes.Set(w.Property, Change{
			Value:     newValue,
			LastValue: lastValue,
			FirstTime: firstTime,
		})
	}
	w.firstTime = false
	w.lastValue = stored

	o.cfg.instrument.WatcherFired(o.id, w.Property)

	if w.Callback != nil {
		o.run(SourceCallback, w.Property, func() error {
			w.Callback(newValue, lastValue, firstTime)
			return nil
		})
	}
	return changes
}

// run calls fn and reports a returned error or a panic instead of letting it
// escape, so one failing binding cannot stop the rest of the tree.
func (o *Observer) run(source Source, property string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.report(source, property, &PanicError{Value: r})
			ok = false
		}
	}()

	if err := fn(); err != nil {
		o.report(source, property, err)
		return false
	}
	return true
}

func (o *Observer) report(source Source, property string, err error) {
	werr := &WatchError{
		NodeID:   o.id,
		Source:   source,
		Property: property,
		Err:      err,
	}
	o.cfg.instrument.CheckFailed(werr)
	if o.cfg.onError != nil {
		o.cfg.onError(o, werr)
	}
	o.cfg.log().Error("change detection failed",
		"node", o.id,
		"source", string(source),
		"property", property,
		"err", err,
	)
}

func (o *Observer) clear() {
	o.watchers = nil
	o.beforeCheck = nil
	o.afterCheck = nil
	o.state = StateSuspended
}
