package spindly

import (
	"errors"
	"math/big"
	"reflect"
	"time"

	"github.com/dop251/goja"
	"github.com/spf13/cast"
)

// unwrap converts the result of an evaluation to a Go value.
func unwrap(value goja.Value) (any, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}
	switch v := value.Export().(type) {
	case goja.ArrayBuffer:
		return v.Bytes(), nil
	case *goja.Promise:
		switch v.State() {
		case goja.PromiseStateRejected:
			return nil, &EvaluationError{err: errors.New(v.Result().String())}
		case goja.PromiseStateFulfilled:
			return unwrap(v.Result())
		default:
			return nil, &EvaluationError{err: errors.New("unexpected promise pending state")}
		}
	default:
		return normalize(v)
	}
}

// normalize walks an exported value, keeping what has a defined Go
// mapping and rejecting everything else. Export preserves reference
// cycles, so the walk tracks the containers on the current path and
// rejects a container that contains itself.
func normalize(v any) (any, error) {
	return normalizeValue(v, nil)
}

func normalizeValue(v any, path map[uintptr]bool) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, int64, float64, *big.Int, time.Time, []byte:
		return t, nil
	case []any:
		ptr := reflect.ValueOf(t).Pointer()
		if path[ptr] {
			return nil, &UnsupportedValueError{Type: reflect.TypeOf(v)}
		}
		if path == nil {
			path = make(map[uintptr]bool)
		}
		path[ptr] = true
		for i, item := range t {
			n, err := normalizeValue(item, path)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		delete(path, ptr)
		return t, nil
	case map[string]any:
		ptr := reflect.ValueOf(t).Pointer()
		if path[ptr] {
			return nil, &UnsupportedValueError{Type: reflect.TypeOf(v)}
		}
		if path == nil {
			path = make(map[uintptr]bool)
		}
		path[ptr] = true
		for key, item := range t {
			n, err := normalizeValue(item, path)
			if err != nil {
				return nil, err
			}
			t[key] = n
		}
		delete(path, ptr)
		return t, nil
	default:
		return nil, &UnsupportedValueError{Type: reflect.TypeOf(v)}
	}
}

// paramValue converts a Go value to a JavaScript value.
// Types with no mapping become null.
func paramValue(rt *goja.Runtime, v any) goja.Value {
	switch t := v.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return t
	case bool, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return rt.ToValue(t)
	case time.Time:
		if date, err := rt.New(rt.Get("Date"), rt.ToValue(t.UnixMilli())); err == nil {
			return date
		}
		return goja.Null()
	case []byte:
		return rt.ToValue(rt.NewArrayBuffer(t))
	case []string:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = item
		}
		return rt.NewArray(items...)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = paramValue(rt, item)
		}
		return rt.NewArray(items...)
	case map[string]any:
		obj := rt.NewObject()
		for key, item := range t {
			_ = obj.Set(key, paramValue(rt, item))
		}
		return obj
	case map[any]any:
		// yaml decodes nested mappings with untyped keys.
		obj := rt.NewObject()
		for key, item := range t {
			_ = obj.Set(cast.ToString(key), paramValue(rt, item))
		}
		return obj
	default:
		return goja.Null()
	}
}
