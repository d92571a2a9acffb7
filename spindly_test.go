package spindly

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePrimitives(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		source string
		want   any
	}{
		{"null", nil},
		{"undefined", nil},
		{"true", true},
		{"false", false},
		{`"alpha"`, "alpha"},
		{"1", int64(1)},
		{"1.2", 1.2},
		{"1 + 1", int64(2)},
	}

	for _, c := range testCases {
		t.Run(c.source, func(t *testing.T) {
			v, err := Evaluate(context.Background(), c.source)
			require.NoError(t, err)
			assert.Equal(t, c.want, v)
		})
	}
}

func TestEvaluateValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		source string
		want   any
	}{
		{"[5]", []any{int64(5)}},
		{"{'key':'foo'}", map[string]any{"key": "foo"}},
		{"[1, ['two', {'three': 3.5}]]", []any{int64(1), []any{"two", map[string]any{"three": 3.5}}}},
		{"JSON.stringify({'key':7})", `{"key":7}`},
		{"new Uint8Array([1, 2]).buffer", []byte{1, 2}},
		{"(() => 4)()", int64(4)},
		{"(async () => 9)()", int64(9)},
	}

	for _, c := range testCases {
		t.Run(c.source, func(t *testing.T) {
			v, err := Evaluate(context.Background(), c.source)
			require.NoError(t, err)
			assert.Equal(t, c.want, v)
		})
	}
}

func TestEvaluateDate(t *testing.T) {
	t.Parallel()
	v, err := Evaluate(context.Background(), `new Date(1700000000000)`)
	require.NoError(t, err)
	date, ok := v.(time.Time)
	require.True(t, ok, "want time.Time, got %T", v)
	assert.EqualValues(t, 1700000000000, date.UnixMilli())
}

func TestEvaluateIdempotent(t *testing.T) {
	t.Parallel()
	for i := 0; i < 5; i++ {
		v, err := Evaluate(context.Background(), "1.2")
		require.NoError(t, err)
		assert.Equal(t, 1.2, v)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	t.Parallel()

	for _, source := range []string{"{", "", "a = 1; a + 2"} {
		_, err := Evaluate(context.Background(), source)
		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr, source)
		assert.Equal(t, source, syntaxErr.Source)
	}
}

func TestEvaluateUnsupported(t *testing.T) {
	t.Parallel()

	for _, source := range []string{
		`(function(){})`,
		`[() => 1]`,
		`{'fn': function(){}}`,
	} {
		_, err := Evaluate(context.Background(), source)
		var unsupportedErr *UnsupportedValueError
		assert.ErrorAs(t, err, &unsupportedErr, source)
	}
}

func TestEvaluateCircular(t *testing.T) {
	t.Parallel()

	// self-referential results must fail, not blow the stack
	for _, source := range []string{
		`(a = {}, a.self = a, a)`,
		`(a = [], a.push(a), a)`,
		`(a = {}, a.list = [a], a)`,
	} {
		_, err := Evaluate(context.Background(), source)
		var unsupportedErr *UnsupportedValueError
		assert.ErrorAs(t, err, &unsupportedErr, source)
	}

	v, err := Evaluate(context.Background(), `(b = [1], [b, b])`)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{int64(1)}, []any{int64(1)}}, v)
}

func TestEvaluateThrow(t *testing.T) {
	t.Parallel()

	_, err := Evaluate(context.Background(), `(() => { throw new Error("boom") })()`)
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.ErrorContains(t, err, "boom")

	_, err = Evaluate(context.Background(), `Promise.reject(new Error("nope"))`)
	require.ErrorAs(t, err, &evalErr)
	assert.ErrorContains(t, err, "nope")
}

func TestEvaluateTimeout(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()

	_, err := Evaluate(ctx, `(() => { for (;;) {} })()`)
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunParams(t *testing.T) {
	t.Parallel()
	date := time.UnixMilli(1700000000000)

	v, err := Run(context.Background(), Expr{
		Source: `[a + b, s.toUpperCase(), list[1], obj.inner.ok, d.getTime(), bin.byteLength, missing]`,
		Params: map[string]any{
			"a":       1,
			"b":       2,
			"s":       "alpha",
			"list":    []any{1, "two"},
			"obj":     map[string]any{"inner": map[any]any{"ok": true}},
			"d":       date,
			"bin":     []byte{1, 2, 3},
			"missing": struct{}{},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), "ALPHA", "two", true, int64(1700000000000), int64(3), nil}, v)
}

func TestRunParamsIsolated(t *testing.T) {
	t.Parallel()
	vm := NewVM()

	v, err := vm.Evaluate(context.Background(), Expr{
		Source: "secret",
		Params: map[string]any{"secret": 42},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	// params must not leak into the runtime globals.
	v, err = vm.Evaluate(context.Background(), Expr{Source: "typeof secret"})
	require.NoError(t, err)
	assert.Equal(t, "undefined", v)
	assert.Nil(t, vm.Runtime().Get("secret"))
}
