package views_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/delaneyj/watchparty/detector"
	"github.com/delaneyj/watchparty/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot() *detector.Node {
	return detector.New(detector.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestBranch(t *testing.T) {
	root := newRoot()
	host := root.Fork()
	show := true
	text := "hello"
	builds := map[string]int{}
	var rendered []string

	branch := views.NewBranch(host,
		func(n *detector.Node) {
			builds["then"]++
			n.Watch(detector.Watch(func() string { return text }, func(v, _ string, _ bool) {
				rendered = append(rendered, "then:"+v)
			}))
		},
		func(n *detector.Node) {
			builds["else"]++
			n.Watch(detector.Watch(func() string { return "empty" }, func(v, _ string, _ bool) {
				rendered = append(rendered, "else:"+v)
			}))
		},
	)
	branch.Bind(func() bool { return show })

	root.DetectChanges()
	assert.Equal(t, []string{"then:hello"}, rendered)
	thenNode := branch.Active()
	require.NotNil(t, thenNode)
	assert.Same(t, host, thenNode.Parent())

	show = false
	text = "changed while hidden"
	root.DetectChanges()
	assert.Equal(t, []string{"then:hello", "else:empty"}, rendered)
	assert.Nil(t, thenNode.Parent())
	assert.Len(t, host.Children(), 1)

	// the then side comes back with its previous watcher state
	show = true
	root.DetectChanges()
	assert.Equal(t, []string{"then:hello", "else:empty", "then:changed while hidden"}, rendered)
	assert.Same(t, thenNode, branch.Active())
	assert.Equal(t, map[string]int{"then": 1, "else": 1}, builds)
	assert.NoError(t, thenNode.Verify())

	branch.Dispose()
	assert.Nil(t, branch.Active())
	assert.Empty(t, host.Children())
}

func TestBranchWithoutElse(t *testing.T) {
	host := newRoot()
	branch := views.NewBranch(host, func(*detector.Node) {}, nil)

	require.NoError(t, branch.Set(false))
	assert.Nil(t, branch.Active())
	require.NoError(t, branch.Set(true))
	assert.NotNil(t, branch.Active())
	require.NoError(t, branch.Set(false))
	assert.Nil(t, branch.Active())
	assert.Empty(t, host.Children())
}

func TestList(t *testing.T) {
	root := newRoot()
	host := root.Fork()
	labels := map[string]string{"a": "A", "b": "B", "c": "C"}
	keys := []string{"a", "b"}
	var rendered []string

	list := views.NewList(host, func(n *detector.Node, key string) {
		n.Watch(detector.Watch(func() string { return labels[key] }, func(v, _ string, _ bool) {
			rendered = append(rendered, v)
		}))
	})
	list.Bind(func() []string { return keys })

	root.DetectChanges()
	assert.Equal(t, []string{"A", "B"}, rendered)
	assert.Equal(t, []string{"a", "b"}, list.Keys())

	aNode, _ := list.Node("a")
	keys = []string{"c", "a"}
	root.DetectChanges()
	assert.Equal(t, []string{"A", "B", "C"}, rendered)
	assert.Equal(t, 2, list.Len())
	_, ok := list.Node("b")
	assert.False(t, ok)

	children := host.Children()
	require.Len(t, children, 2)
	cNode, _ := list.Node("c")
	assert.Same(t, cNode, children[0])
	assert.Same(t, aNode, children[1])
	assert.NoError(t, cNode.Verify())

	labels["a"] = "A2"
	root.DetectChanges()
	assert.Equal(t, []string{"A", "B", "C", "A2"}, rendered)
}

func TestListUpdate(t *testing.T) {
	host := newRoot()
	list := views.NewList(host, func(*detector.Node, int) {})

	require.NoError(t, list.Update([]int{1, 2, 3}))
	first := host.Children()

	require.NoError(t, list.Update([]int{1, 2, 3, 4}))
	assert.Equal(t, first, host.Children()[:3])

	assert.ErrorIs(t, list.Update([]int{1, 1}), views.ErrDuplicateKey)
	assert.Equal(t, []int{1, 2, 3, 4}, list.Keys())

	require.NoError(t, list.Update([]int{4, 3, 2, 1}))
	children := host.Children()
	for i, key := range []int{4, 3, 2, 1} {
		n, _ := list.Node(key)
		assert.Same(t, n, children[i])
	}

	list.Dispose()
	assert.Empty(t, host.Children())
	assert.Equal(t, 0, list.Len())
}

func TestBranchFailedSwitchKeepsActiveSide(t *testing.T) {
	host := newRoot()
	branch := views.NewBranch(host, func(*detector.Node) {}, func(*detector.Node) {})

	require.NoError(t, branch.Set(true))
	thenNode := branch.Active()
	require.NoError(t, branch.Set(false))
	elseNode := branch.Active()
	require.NotSame(t, thenNode, elseNode)

	thenNode.Dispose()
	assert.ErrorIs(t, branch.Set(true), detector.ErrDisposed)
	assert.Same(t, elseNode, branch.Active())
	assert.Same(t, host, elseNode.Parent())
	assert.Equal(t, []*detector.Node{elseNode}, host.Children())

	host.Dispose()
	assert.ErrorIs(t, branch.Set(true), detector.ErrDisposed)
	assert.Same(t, elseNode, branch.Active())
	assert.Same(t, host, elseNode.Parent())
}
