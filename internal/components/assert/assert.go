package assert

import (
	"fmt"
	"reflect"
)

// NotNil panics when a required dependency was not provided. Typed nils
// (a nil *T or func stored in an interface) count as nil.
func NotNil(value any, name string) {
	if isNil(value) {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
