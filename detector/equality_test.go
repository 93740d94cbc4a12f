package detector

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cloneSample struct {
	Name   string
	Tags   []string
	Meta   map[string]any
	Next   *cloneSample
	hidden []int
}

func TestDeepClone(t *testing.T) {
	src := &cloneSample{
		Name:   "a",
		Tags:   []string{"x", "y"},
		Meta:   map[string]any{"n": []int{1}},
		Next:   &cloneSample{Name: "b"},
		hidden: []int{9},
	}

	dst := deepClone(src).(*cloneSample)
	assert.Equal(t, src, dst)
	assert.NotSame(t, src, dst)
	assert.NotSame(t, src.Next, dst.Next)

	src.Tags[0] = "changed"
	src.Meta["n"].([]int)[0] = 2
	src.Next.Name = "changed"
	assert.Equal(t, "x", dst.Tags[0])
	assert.Equal(t, []int{1}, dst.Meta["n"])
	assert.Equal(t, "b", dst.Next.Name)

	// unexported fields are shared
	src.hidden[0] = 8
	assert.Equal(t, 8, dst.hidden[0])
}

func TestDeepCloneCycle(t *testing.T) {
	a := &cloneSample{Name: "a"}
	a.Next = a

	b := deepClone(a).(*cloneSample)
	assert.Same(t, b, b.Next)
	assert.NotSame(t, a, b)
}

type innerSample struct {
	Name string
}

type outerSample struct {
	In innerSample
	P  *innerSample
}

// should not confuse a struct with its first field
func TestDeepCloneFieldPointer(t *testing.T) {
	src := &outerSample{In: innerSample{Name: "in"}}
	src.P = &src.In

	var dst *outerSample
	require.NotPanics(t, func() {
		dst = deepClone(src).(*outerSample)
	})
	require.NotNil(t, dst.P)
	assert.NotSame(t, src, dst)
	assert.NotSame(t, src.P, dst.P)
	assert.Equal(t, "in", dst.P.Name)

	src.In.Name = "changed"
	assert.Equal(t, "in", dst.In.Name)
	assert.Equal(t, "in", dst.P.Name)
}

// should keep self references of maps and slices
func TestDeepCloneSelfReference(t *testing.T) {
	m := map[string]any{"n": 1}
	m["self"] = m

	var cm map[string]any
	require.NotPanics(t, func() {
		cm = deepClone(m).(map[string]any)
	})
	assert.NotEqual(t, reflect.ValueOf(m).Pointer(), reflect.ValueOf(cm).Pointer())
	assert.Equal(t, reflect.ValueOf(cm).Pointer(), reflect.ValueOf(cm["self"]).Pointer())
	assert.Equal(t, 1, cm["n"])

	s := []any{nil, "x"}
	s[0] = s

	var cs []any
	require.NotPanics(t, func() {
		cs = deepClone(s).([]any)
	})
	require.Len(t, cs, 2)
	assert.NotEqual(t, reflect.ValueOf(s).Pointer(), reflect.ValueOf(cs).Pointer())
	assert.Equal(t, reflect.ValueOf(cs).Pointer(), reflect.ValueOf(cs[0]).Pointer())
	assert.Equal(t, "x", cs[1])
}

func TestSameValue(t *testing.T) {
	s := []int{1}
	m := map[string]int{"a": 1}
	p := &cloneSample{}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil", nil, nil, true},
		{"nil and value", nil, 0, false},
		{"ints", 1, 1, true},
		{"different types", 1, int64(1), false},
		{"strings", "a", "b", false},
		{"same slice", s, s, true},
		{"resliced", s, s[:0], false},
		{"copied slice", s, append([]int(nil), s...), false},
		{"same map", m, m, true},
		{"other map", m, map[string]int{"a": 1}, false},
		{"same pointer", p, p, true},
		{"other pointer", p, &cloneSample{}, false},
		{"equal structs with slices", cloneSample{Tags: []string{"a"}}, cloneSample{Tags: []string{"a"}}, true},
		{"different structs with slices", cloneSample{Tags: []string{"a"}}, cloneSample{Tags: []string{"b"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameValue(tt.a, tt.b))
		})
	}
}
