package scripting

import (
	"context"

	"github.com/dop251/goja"
)

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}

func (e *GojaEngine) RegisterPage(page PageProxy) error {
	obj := e.vm.NewObject()
	if err := obj.Set("index", page.GetIndex()); err != nil {
		return err
	}
	if err := obj.Set("document", page.GetDocument()); err != nil {
		return err
	}
	err := obj.DefineAccessorProperty("text",
		e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return e.vm.ToValue(page.GetText())
		}),
		e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 0 {
				page.SetText(call.Arguments[0].String())
			}
			return goja.Undefined()
		}),
		goja.FLAG_TRUE, // Configurable
		goja.FLAG_TRUE, // Enumerable
	)
	if err != nil {
		return err
	}
	return e.vm.Set("page", obj)
}
