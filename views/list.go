package views

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/watchparty/detector"
)

var ErrDuplicateKey = errors.New("views: duplicate list key")

type ItemBuildFunc[K comparable] func(n *detector.Node, key K)

// List is a loop region with one node per keyed item. Items keep their node
// across updates, removed items are disposed and the host's item children
// follow the order of the last update.
type List[K comparable] struct {
	host  *detector.Node
	build ItemBuildFunc[K]
	items map[K]*detector.Node
	order []K
}

func NewList[K comparable](host *detector.Node, build ItemBuildFunc[K]) *List[K] {
	return &List[K]{
		host:  host,
		build: build,
		items: map[K]*detector.Node{},
	}
}

// Bind watches keys on the host node and updates the list when they change.
func (l *List[K]) Bind(keys func() []K) *detector.Watcher {
	return l.host.Watch(detector.Watch(keys, func(next, _ []K, _ bool) {
		if err := l.Update(next); err != nil {
			panic(err)
		}
	}, detector.UseEquals()))
}

func (l *List[K]) Update(keys []K) error {
	seen := mapset.NewThreadUnsafeSet[K]()
	for _, key := range keys {
		if !seen.Add(key) {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, key)
		}
	}

	for _, key := range l.order {
		if !seen.Contains(key) {
			l.items[key].Dispose()
			delete(l.items, key)
		}
	}

	reorder := !l.sameOrder(keys)
	for _, key := range keys {
		n, ok := l.items[key]
		if !ok {
			n = l.host.Fork()
			l.build(n, key)
			l.items[key] = n
			n.MarkTreeForCheck()
			continue
		}
		if reorder {
			n.Detach()
			if err := n.AttachToParent(l.host); err != nil {
				return err
			}
		}
	}
	l.order = append(l.order[:0], keys...)
	return nil
}

// sameOrder reports whether surviving items keep their relative order and
// every new item comes after them, in which case forking new items in keys
// order already leaves the host's children right.
func (l *List[K]) sameOrder(keys []K) bool {
	pos := make(map[K]int, len(l.order))
	for i, key := range l.order {
		pos[key] = i
	}
	last, sawNew := -1, false
	for _, key := range keys {
		i, ok := pos[key]
		if !ok || l.items[key] == nil {
			sawNew = true
			continue
		}
		if sawNew || i < last {
			return false
		}
		last = i
	}
	return true
}

func (l *List[K]) Node(key K) (*detector.Node, bool) {
	n, ok := l.items[key]
	return n, ok
}

func (l *List[K]) Keys() []K {
	return append([]K(nil), l.order...)
}

func (l *List[K]) Len() int {
	return len(l.order)
}

func (l *List[K]) Dispose() {
	for _, n := range l.items {
		n.Dispose()
	}
	l.items = map[K]*detector.Node{}
	l.order = nil
}
