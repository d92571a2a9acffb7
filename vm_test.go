package spindly

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVM(t *testing.T) {
	t.Parallel()
	vm := NewVM()

	testCases := []struct {
		source string
		want   any
	}{
		{"2", int64(2)},
		{"(() => 4)()", int64(4)},
		{"[5]", []any{int64(5)}},
		{"{'key':'foo'}", map[string]any{"key": "foo"}},
		{"JSON.stringify({'key':7})", `{"key":7}`},
		{"JSON.stringify([8])", `[8]`},
		{"(async () => 9)()", int64(9)},
	}

	for _, c := range testCases {
		t.Run(c.source, func(t *testing.T) {
			v, err := vm.Evaluate(context.Background(), Expr{Source: c.source})
			require.NoError(t, err)
			assert.Equal(t, c.want, v)
		})
	}
}

func TestVMWithGlobals(t *testing.T) {
	t.Parallel()
	vm := NewVM(WithGlobals(map[string]any{"answer": 42}))

	v, err := vm.Evaluate(context.Background(), Expr{Source: "answer"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestVMInterrupt(t *testing.T) {
	t.Parallel()
	vm := NewVM()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()

	_, err := vm.Evaluate(ctx, Expr{Source: `(() => { for (;;) {} })()`})
	assert.ErrorContains(t, err, context.DeadlineExceeded.Error())

	// the VM stays usable after an interrupt.
	v, err := vm.Evaluate(context.Background(), Expr{Source: "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestVMContext(t *testing.T) {
	t.Parallel()
	vm := NewVM()

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")

	var got context.Context
	_ = vm.Runtime().Set("probe", func() { got = Context(vm.Runtime()) })
	_, err := vm.Evaluate(ctx, Expr{Source: "probe()"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "marker", got.Value(key{}))

	// outside an evaluation the context resets.
	assert.Nil(t, Context(vm.Runtime()).Value(key{}))
}
