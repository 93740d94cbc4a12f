package detector

import "reflect"

// sameValue is reference equality: comparable values use ==, maps, slices,
// funcs and chans compare by identity. Values that are neither (structs
// holding slices, for example) fall back to structural equality.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	default:
		return reflect.DeepEqual(a, b)
	}
}

func deepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// deepClone copies maps, slices, arrays, pointers and structs recursively so
// later in-place mutation of the source cannot leak into a stored value.
// Shared and cyclic references are preserved. Unexported struct fields are
// copied shallowly.
func deepClone(v any) any {
	if v == nil {
		return nil
	}
	src := reflect.ValueOf(v)
	dst := reflect.New(src.Type()).Elem()
	cloneInto(dst, src, map[cloneKey]reflect.Value{})
	return dst.Interface()
}

// cloneKey identifies an already cloned reference. The address alone is not
// enough: a struct and its first field share one, as do slices of different
// lengths over the same array.
type cloneKey struct {
	ptr uintptr
	typ reflect.Type
	len int
}

func cloneInto(dst, src reflect.Value, seen map[cloneKey]reflect.Value) {
	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		key := cloneKey{ptr: src.Pointer(), typ: src.Type()}
		if p, ok := seen[key]; ok {
			dst.Set(p)
			return
		}
		p := reflect.New(src.Type().Elem())
		seen[key] = p
		cloneInto(p.Elem(), src.Elem(), seen)
		dst.Set(p)
	case reflect.Interface:
		if src.IsNil() {
			return
		}
		inner := reflect.New(src.Elem().Type()).Elem()
		cloneInto(inner, src.Elem(), seen)
		dst.Set(inner)
	case reflect.Slice:
		if src.IsNil() {
			return
		}
		key := cloneKey{ptr: src.Pointer(), typ: src.Type(), len: src.Len()}
		if s, ok := seen[key]; ok && src.Len() > 0 {
			dst.Set(s)
			return
		}
		s := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		if src.Len() > 0 {
			seen[key] = s
		}
		for i := 0; i < src.Len(); i++ {
			cloneInto(s.Index(i), src.Index(i), seen)
		}
		dst.Set(s)
	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			cloneInto(dst.Index(i), src.Index(i), seen)
		}
	case reflect.Map:
		if src.IsNil() {
			return
		}
		key := cloneKey{ptr: src.Pointer(), typ: src.Type()}
		if m, ok := seen[key]; ok {
			dst.Set(m)
			return
		}
		m := reflect.MakeMapWithSize(src.Type(), src.Len())
		seen[key] = m
		iter := src.MapRange()
		for iter.Next() {
			val := reflect.New(iter.Value().Type()).Elem()
			cloneInto(val, iter.Value(), seen)
			m.SetMapIndex(iter.Key(), val)
		}
		dst.Set(m)
	case reflect.Struct:
		dst.Set(src)
		for i := 0; i < src.NumField(); i++ {
			if !dst.Field(i).CanSet() {
				continue
			}
			cloneInto(dst.Field(i), src.Field(i), seen)
		}
	default:
		dst.Set(src)
	}
}
