// Package views manages detector subtrees for dynamic regions of a
// template: conditional branches and keyed lists.
package views

import "github.com/delaneyj/watchparty/detector"

// BuildFunc registers the watchers of a region on its freshly forked node.
type BuildFunc func(n *detector.Node)

const none = -1

// Branch is an if/else region. Each side gets its own node, built the first
// time it is shown. The hidden side is detached and keeps its watcher state,
// so showing it again does not rebuild it.
type Branch struct {
	host   *detector.Node
	build  [2]BuildFunc
	nodes  [2]*detector.Node
	active int
}

func NewBranch(host *detector.Node, then, otherwise BuildFunc) *Branch {
	return &Branch{
		host:   host,
		build:  [2]BuildFunc{then, otherwise},
		active: none,
	}
}

// Bind watches cond on the host node and switches sides when it changes.
func (b *Branch) Bind(cond func() bool) *detector.Watcher {
	return b.host.Watch(detector.Watch(cond, func(show, _ bool, _ bool) {
		if err := b.Set(show); err != nil {
			panic(err)
		}
	}))
}

// Set shows the side selected by cond. On error the previously shown side
// stays attached and active.
func (b *Branch) Set(cond bool) error {
	side := 1
	if cond {
		side = 0
	}
	if b.build[side] == nil {
		side = none
	}
	if side == b.active {
		return nil
	}

	var n *detector.Node
	if side != none {
		if b.host.IsDisposed() {
			return detector.ErrDisposed
		}
		n = b.nodes[side]
		if n != nil {
			if err := n.AttachToParent(b.host); err != nil {
				return err
			}
		}
	}

	if b.active != none {
		b.nodes[b.active].Detach()
	}
	b.active = none
	if side == none {
		return nil
	}

	if n == nil {
		n = b.host.Fork()
		b.build[side](n)
		b.nodes[side] = n
	}
	n.MarkTreeForCheck()
	b.active = side
	return nil
}

// Active returns the node of the shown side, or nil.
func (b *Branch) Active() *detector.Node {
	if b.active == none {
		return nil
	}
	return b.nodes[b.active]
}

func (b *Branch) Dispose() {
	for i, n := range b.nodes {
		if n != nil {
			n.Dispose()
			b.nodes[i] = nil
		}
	}
	b.active = none
}
