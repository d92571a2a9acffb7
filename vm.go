package spindly

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// Expr a single JavaScript expression with optional values exposed in its
// scope during evaluation.
type Expr struct {
	Source string
	Params map[string]any
}

// VM the js runtime.
// An instance of VM can only be used by a single goroutine at a time.
type VM interface {
	// Evaluate the expression and convert the result to a Go value
	Evaluate(context.Context, Expr) (any, error)
	// Runtime the js runtime
	Runtime() *goja.Runtime
}

// Option the VM options
type Option func(*vmImpl)

// WithGlobals sets persistent globals on the runtime, visible to every
// evaluation on this VM.
func WithGlobals(globals map[string]any) Option {
	return func(vm *vmImpl) {
		for name, value := range globals {
			_ = vm.runtime.Set(name, paramValue(vm.runtime, value))
		}
	}
}

var errInitExecutor = errors.New("initializing JavaScript VM executor function failed")

// executorProgram evaluates the expression inside a with block, so params
// live in a per call scope and never touch the runtime globals.
var executorProgram = goja.MustCompile("executor",
	`(function(ctx, code){with(ctx){return eval(code)}})`, false)

var symVM = goja.NewSymbol("spindly.vm")

type vmImpl struct {
	runtime  *goja.Runtime
	executor goja.Callable
	ctx      context.Context
	done     chan struct{}
	release  func()
}

// NewVM creates a new JavaScript VM with the console enabled.
func NewVM(opts ...Option) VM {
	runtime := goja.New()

	callable, err := runtime.RunProgram(executorProgram)
	if err != nil {
		panic(errInitExecutor)
	}
	executor, ok := goja.AssertFunction(callable)
	if !ok {
		panic(errInitExecutor)
	}

	vm := &vmImpl{
		runtime:  runtime,
		executor: executor,
		ctx:      context.Background(),
		done:     make(chan struct{}),
		release:  func() {},
	}
	_ = runtime.GlobalObject().SetSymbol(symVM, vm)
	EnableConsole(runtime)

	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Evaluate the expression and convert the result to a Go value
func (vm *vmImpl) Evaluate(ctx context.Context, expr Expr) (ret any, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// resets the interrupt flag.
	vm.runtime.ClearInterrupt()
	vm.ctx = ctx

	defer func() {
		if r := recover(); r != nil {
			stack := vm.runtime.CaptureCallStack(20, nil)
			buf := new(bytes.Buffer)
			for _, frame := range stack {
				frame.Write(buf)
			}
			Logger(ctx).Error(fmt.Sprintf("vm run error %s", r), "js stack", buf.String())
			err = &EvaluationError{err: fmt.Errorf("%v", r)}
		}
		vm.ctx = context.Background()
		vm.done <- struct{}{} // End of run
	}()

	go func() {
		select {
		case <-ctx.Done():
			// Interrupt running JavaScript.
			vm.runtime.Interrupt(ctx.Err())
			<-vm.done
		case <-vm.done:
		}
		// Release vm
		vm.release()
	}()

	// parenthesize so the source must parse as a single expression,
	// not a statement list.
	source := "(" + expr.Source + "\n)"
	if _, cerr := goja.Compile("spindly", source, false); cerr != nil {
		return nil, &SyntaxError{Source: expr.Source, err: cerr}
	}

	scope := vm.runtime.NewObject()
	for name, value := range expr.Params {
		_ = scope.Set(name, paramValue(vm.runtime, value))
	}

	value, rerr := vm.executor(goja.Undefined(), scope, vm.runtime.ToValue(source))
	if rerr != nil {
		if cause := ctx.Err(); cause != nil {
			return nil, &EvaluationError{err: cause}
		}
		return nil, &EvaluationError{err: rerr}
	}
	return unwrap(value)
}

// Runtime the js runtime
func (vm *vmImpl) Runtime() *goja.Runtime {
	return vm.runtime
}

// Context returns the context of the evaluation currently running on the
// runtime, or context.Background if there is none.
func Context(rt *goja.Runtime) context.Context {
	if v := rt.GlobalObject().GetSymbol(symVM); v != nil {
		if vm, ok := v.Export().(*vmImpl); ok {
			return vm.ctx
		}
	}
	return context.Background()
}
