// Package spindly evaluates JavaScript expressions and converts the
// results to Go values.
package spindly

import (
	"context"
	"time"
)

// DefaultTimeout the default evaluation timeout.
const DefaultTimeout = 10 * time.Second

// Evaluate runs a single JavaScript expression and returns the result as
// a Go value.
//
// example:
//
//	value, err := spindly.Evaluate(context.Background(), `1 + 1`)
//	if err != nil {
//		panic(err)
//	}
//	fmt.Println(value) // 2
func Evaluate(ctx context.Context, source string) (any, error) {
	return Run(ctx, Expr{Source: source})
}

// Run evaluates the expression with its params in scope.
// If ctx carries no deadline, DefaultTimeout is applied.
//
// example:
//
//	value, err := spindly.Run(context.Background(), spindly.Expr{
//		Source: `a + b`,
//		Params: map[string]any{"a": 1, "b": 2},
//	})
//	if err != nil {
//		panic(err)
//	}
//	fmt.Println(value) // 3
func Run(ctx context.Context, expr Expr) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}
	vm, err := GetScheduler().Get()
	if err != nil {
		return nil, err
	}
	return vm.Evaluate(ctx, expr)
}
