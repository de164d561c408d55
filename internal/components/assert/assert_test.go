package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotNil(t *testing.T) {
	var ptr *int
	var fn func()

	require.PanicsWithValue(t, "expected value to be not nil", func() { NotNil(nil, "value") })
	require.Panics(t, func() { NotNil(ptr, "ptr") })
	require.Panics(t, func() { NotNil(fn, "fn") })

	require.NotPanics(t, func() { NotNil(1, "int") })
	require.NotPanics(t, func() { NotNil(func() {}, "fn") })
}
