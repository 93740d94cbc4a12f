package component_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/delaneyj/watchparty/component"
	"github.com/delaneyj/watchparty/detector"
	"github.com/delaneyj/watchparty/inputs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskList struct {
	Tasks    []string
	Filter   string
	changes  []*detector.Changes
	before   int
	inits    int
	destroys int
}

func (l *taskList) Tag() string                         { return "task-list" }
func (l *taskList) OnBeforeCheck()                      { l.before++ }
func (l *taskList) OnChanges(changes *detector.Changes) { l.changes = append(l.changes, changes) }
func (l *taskList) OnInit()                             { l.inits++ }
func (l *taskList) OnDestroy()                          { l.destroys++ }

type app struct {
	tasks []string
}

func newBinder(t *testing.T) *component.Binder {
	t.Helper()
	registry := inputs.NewRegistry()
	require.NoError(t, registry.Register(inputs.For[taskList]("task-list").
		Input("tasks", func(l *taskList) any { return l.Tasks }, inputs.UseEquals()).
		Input("filter", func(l *taskList) any { return l.Filter })))

	root := detector.New(detector.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return component.NewBinder(root, registry)
}

func TestBinderCreate(t *testing.T) {
	b := newBinder(t)
	parent := &app{}
	list := &taskList{}

	parentNode, err := b.Create(parent, nil)
	require.NoError(t, err)
	listNode, err := b.Create(list, parent)
	require.NoError(t, err)

	assert.Same(t, b.Root(), parentNode.Parent())
	assert.Same(t, parentNode, listNode.Parent())
	assert.Equal(t, 2, listNode.WatcherCount())

	got, ok := b.DetectorOf(list)
	require.True(t, ok)
	assert.Same(t, listNode, got)

	_, err = b.Create(list, parent)
	assert.ErrorIs(t, err, component.ErrAlreadyCreated)
	_, err = b.Create(nil, nil)
	assert.ErrorIs(t, err, component.ErrNilComponent)
}

func TestBinderInputChanges(t *testing.T) {
	b := newBinder(t)
	parent := &app{tasks: []string{"write tests"}}
	list := &taskList{}

	parentNode, err := b.Create(parent, nil)
	require.NoError(t, err)
	_, err = b.Create(list, parent)
	require.NoError(t, err)

	// the parent's template binds its tasks to the list input
	parentNode.Watch(detector.Watch(func() []string { return parent.tasks }, func(tasks, _ []string, _ bool) {
		list.Tasks = tasks
	}))

	_, err = b.Init(parent)
	require.NoError(t, err)
	_, err = b.Init(list)
	require.NoError(t, err)

	require.Len(t, list.changes, 1)
	first := list.changes[0]
	assert.Equal(t, []string{"tasks", "filter"}, first.Keys())
	tasks, _ := first.Get("tasks")
	assert.True(t, tasks.FirstTime)
	assert.Equal(t, []string{"write tests"}, tasks.Value)
	assert.Equal(t, 1, list.inits)

	// new slice, same contents: no change reported
	parent.tasks = []string{"write tests"}
	_, err = b.Init(parent)
	require.NoError(t, err)
	assert.Len(t, list.changes, 1)

	parent.tasks = append(parent.tasks, "ship")
	list.Filter = "open"
	_, err = b.Init(parent)
	require.NoError(t, err)
	require.Len(t, list.changes, 2)
	second := list.changes[1]
	assert.Equal(t, []string{"tasks", "filter"}, second.Keys())
	tasks, _ = second.Get("tasks")
	assert.False(t, tasks.FirstTime)
	assert.Equal(t, []string{"write tests"}, tasks.LastValue)
	filter, _ := second.Get("filter")
	assert.Equal(t, detector.Change{Value: "open", LastValue: "", FirstTime: false}, filter)
	assert.Greater(t, list.before, 0)
}

func TestBinderMoveAndDestroy(t *testing.T) {
	b := newBinder(t)
	left, right := &app{}, &app{}
	list := &taskList{}

	_, err := b.Create(left, nil)
	require.NoError(t, err)
	rightNode, err := b.Create(right, nil)
	require.NoError(t, err)
	listNode, err := b.Create(list, left)
	require.NoError(t, err)

	require.NoError(t, b.Move(list, right))
	assert.Same(t, rightNode, listNode.Parent())
	assert.NoError(t, listNode.Verify())

	assert.ErrorIs(t, b.Move(right, list), detector.ErrCycle)
	assert.ErrorIs(t, b.Move(&app{}, nil), component.ErrUnknown)

	b.Destroy(list)
	assert.Equal(t, 1, list.destroys)
	assert.True(t, listNode.IsDisposed())
	assert.Empty(t, rightNode.Children())
	_, ok := b.DetectorOf(list)
	assert.False(t, ok)

	_, err = b.Init(list)
	assert.ErrorIs(t, err, component.ErrUnknown)
}

func TestBinderRejectsUncomparable(t *testing.T) {
	b := newBinder(t)
	value := app{tasks: []string{"a"}}

	_, err := b.Create(value, nil)
	assert.ErrorIs(t, err, component.ErrNotComparable)

	assert.NotPanics(t, func() {
		_, ok := b.DetectorOf(value)
		assert.False(t, ok)
		_, err = b.Init(value)
		assert.ErrorIs(t, err, component.ErrUnknown)
		assert.ErrorIs(t, b.Move(value, nil), component.ErrUnknown)
		b.Destroy(value)
	})

	// an uncomparable parent falls back to the root
	list := &taskList{}
	n, err := b.Create(list, value)
	require.NoError(t, err)
	assert.Same(t, b.Root(), n.Parent())
}
