package detector

import (
	"fmt"
	"slices"
)

// Node is a change detector: an Observer placed in a tree. Every node caches
// the root of its tree and all scheduling goes through that root, so a tree
// has at most one pending traversal.
//
// Nodes are not safe for concurrent use. A tree belongs to the goroutine that
// owns the UI; deferred traversals are handed to the Executor configured with
// WithExecutor.
type Node struct {
	*Observer

	parent   *Node
	children []*Node
	root     *Node
	disposed bool

	timer debouncer
}

// New creates the root of a new detector tree.
func New(opts ...Option) *Node {
	n := &Node{Observer: newObserver(newConfig(opts))}
	n.root = n
	return n
}

func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) Root() *Node {
	return n.root
}

func (n *Node) IsRoot() bool {
	return n.parent == nil
}

func (n *Node) IsDisposed() bool {
	return n.disposed
}

func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// Fork creates a child node sharing this tree's configuration.
func (n *Node) Fork() *Node {
	child := &Node{Observer: newObserver(n.cfg)}
	child.parent = n
	child.root = n.root
	n.children = append(n.children, child)
	return child
}

// Detach removes n from its parent. The subtree below n keeps its watchers
// and becomes a tree of its own rooted at n, no longer visited from the
// former root.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	p.removeChild(n)
	n.parent = nil
	n.setRoot(n)
}

// AttachToParent moves n under p, detaching it from its current parent first.
// A traversal pending on n as a root is moved to the new root.
func (n *Node) AttachToParent(p *Node) error {
	if p == nil {
		n.Detach()
		return nil
	}
	if n.disposed || p.disposed {
		return ErrDisposed
	}
	for a := p; a != nil; a = a.parent {
		if a == n {
			return fmt.Errorf("attach @%d to @%d: %w", n.id, p.id, ErrCycle)
		}
	}
	if n.parent == p {
		return nil
	}

	n.Detach()
	moved := n.timer.cancel()

	n.parent = p
	p.children = append(p.children, n)
	n.setRoot(p.root)

	if moved != nil {
		next := n.root.ScheduleTreeCheck(Async())
		go func() {
			<-next.Done()
			moved.resolve()
		}()
	}
	return nil
}

func (n *Node) removeChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = slices.Delete(n.children, i, i+1)
			return
		}
	}
}

func (n *Node) setRoot(root *Node) {
	n.root = root
	for _, c := range n.children {
		c.setRoot(root)
	}
}

// MarkTreeForCheck marks n and every node below it dirty.
func (n *Node) MarkTreeForCheck() {
	n.MarkAsDirty()
	for _, c := range n.children {
		c.MarkTreeForCheck()
	}
}

func (n *Node) DetectChanges(opts ...CheckOption) *Pending {
	n.MarkTreeForCheck()
	return n.ScheduleTreeCheck(opts...)
}

// CheckTree checks n and then its children, depth first in attachment order.
// Nodes that are already checked cost nothing.
func (n *Node) CheckTree() {
	done := n.cfg.instrument.StartTreeCheck(n.id)
	checked := n.checkTree()
	done(checked)
}

func (n *Node) checkTree() int {
	checked := 0
	if n.checkUntilStable() {
		checked++
	}

	// Watchers may fork or detach nodes; walk a snapshot and skip children
	// that left n during the walk.
	for _, c := range slices.Clone(n.children) {
		if c.parent != n {
			continue
		}
		checked += c.checkTree()
	}
	return checked
}

func (n *Node) checkUntilStable() bool {
	if n.state == StateChecked || n.state == StateSuspended {
		return false
	}
	for pass := 0; pass < n.cfg.maxPasses; pass++ {
		if !n.Check() {
			return true
		}
	}
	n.report(SourceTree, "", fmt.Errorf("%w: %d passes", ErrUnstable, n.cfg.maxPasses))
	return true
}

// ScheduleTreeCheck requests a traversal of the whole tree from its root.
// Synchronous requests run before returning. Asynchronous requests are
// debounced: every request made before the timer fires shares one traversal.
func (n *Node) ScheduleTreeCheck(opts ...CheckOption) *Pending {
	if n.root != n {
		return n.root.ScheduleTreeCheck(opts...)
	}

	o := CheckOptions{Async: n.cfg.async}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.Async {
		n.CheckTree()
		return resolved()
	}

	return n.timer.schedule(n.cfg.debounce, func(done func()) {
		n.cfg.executor(func() {
			defer done()
			n.CheckTree()
		})
	})
}

// HasPendingCheck reports whether the tree has an armed traversal timer.
func (n *Node) HasPendingCheck() bool {
	return n.root.timer.armed()
}

// Dispose detaches n, cancels its pending traversal and drops its watchers
// and hooks. Descendants are left as they are.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.Detach()
	if p := n.timer.cancel(); p != nil {
		p.resolve()
	}
	n.clear()
	n.disposed = true
}

// Verify follows parent links up to the real root of n's tree and checks
// that every node of that tree caches it as its root.
func (n *Node) Verify() error {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	if n.root != root {
		return fmt.Errorf("node @%d: root is @%d, want @%d", n.id, n.root.id, root.id)
	}
	return root.verify(root)
}

func (n *Node) verify(root *Node) error {
	if n.root != root {
		return fmt.Errorf("node @%d: root is @%d, want @%d", n.id, n.root.id, root.id)
	}
	for _, c := range n.children {
		if c.parent != n {
			return fmt.Errorf("node @%d: child @%d has wrong parent", n.id, c.id)
		}
		if err := c.verify(root); err != nil {
			return err
		}
	}
	return nil
}
