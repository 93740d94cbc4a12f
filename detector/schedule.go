package detector

import (
	"context"
	"sync"
	"time"
)

// Pending resolves once the traversal it was handed out for has completed.
type Pending struct {
	done chan struct{}
	once sync.Once
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolved() *Pending {
	p := newPending()
	p.resolve()
	return p
}

func (p *Pending) resolve() {
	p.once.Do(func() {
		close(p.done)
	})
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// debouncer owns the single timer of a root node. Requests arriving while
// the timer is armed restart it and share its Pending.
type debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending *Pending
}

func (d *debouncer) schedule(wait time.Duration, run func(done func())) *Pending {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil && d.timer.Stop() {
		p := d.pending
		d.timer = time.AfterFunc(wait, func() { d.fire(p, run) })
		return p
	}

	// Either idle or the armed timer already fired; in the latter case its
	// traversal still runs and resolves its own Pending.
	p := newPending()
	d.pending = p
	d.timer = time.AfterFunc(wait, func() { d.fire(p, run) })
	return p
}

func (d *debouncer) fire(p *Pending, run func(done func())) {
	d.mu.Lock()
	if d.pending == p {
		d.pending = nil
		d.timer = nil
	}
	d.mu.Unlock()

	run(p.resolve)
}

// cancel disarms the timer and hands back its Pending, or nil when nothing
// could be cancelled.
func (d *debouncer) cancel() *Pending {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil || !d.timer.Stop() {
		return nil
	}
	p := d.pending
	d.timer = nil
	d.pending = nil
	return p
}

func (d *debouncer) armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
