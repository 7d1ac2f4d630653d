// Package script provides a sandboxed JavaScript execution context backed
// by goja. Each invocation gets a fresh runtime with dangerous globals
// removed, so unrelated scripts never share state.
package script

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// ErrTimeout is returned when a script exceeds the execution time limit.
var ErrTimeout = errors.New("script: execution timed out")

// ErrDepthExceeded is returned when nested script invocations exceed the
// depth ceiling, which catches trigger-calls-trigger cycles.
var ErrDepthExceeded = errors.New("script: call depth ceiling exceeded")

// ErrImportDenied is returned when a script requires a module that is not
// on the allow-list.
var ErrImportDenied = errors.New("script: module not allowed")

// ModuleFunc builds the export object for an allow-listed module inside the
// given runtime.
type ModuleFunc func(vm *goja.Runtime) goja.Value

// Runner executes script sources. It is driven from the single engine loop
// goroutine; the depth counter relies on that and is deliberately unlocked.
type Runner struct {
	timeout  time.Duration
	maxDepth int
	depth    int
	modules  map[string]ModuleFunc
	convert  func(vm *goja.Runtime, v any) goja.Value
	logger   *zap.Logger
}

// NewRunner creates a Runner with the given per-script timeout and nesting
// ceiling.
func NewRunner(timeout time.Duration, maxDepth int, logger *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	if maxDepth <= 0 {
		maxDepth = 30
	}
	return &Runner{
		timeout:  timeout,
		maxDepth: maxDepth,
		modules:  make(map[string]ModuleFunc),
		logger:   logger,
	}
}

// SetConverter installs the per-runtime conversion applied to binding
// values. The Wrapper's Value method goes here so entity refs become script
// objects inside the invocation's own runtime.
func (r *Runner) SetConverter(f func(vm *goja.Runtime, v any) goja.Value) {
	r.convert = f
}

// RegisterModule puts a module on the import allow-list.
func (r *Runner) RegisterModule(name string, f ModuleFunc) {
	r.modules[name] = f
}

// Modules returns the allow-listed module names.
func (r *Runner) Modules() []string {
	out := make([]string, 0, len(r.modules))
	for name := range r.modules {
		out = append(out, name)
	}
	return out
}

// Depth returns the current nesting depth. Zero means idle.
func (r *Runner) Depth() int { return r.depth }

// Run executes src under the given script name with the bindings installed
// as globals. Every script fault is caught and returned as an error; none
// propagates as a panic.
func (r *Runner) Run(src, name string, bindings map[string]any) error {
	_, err := r.Eval(src, name, bindings)
	return err
}

// Eval is Run plus the value of the last evaluated expression. Undefined
// and null export as nil.
func (r *Runner) Eval(src, name string, bindings map[string]any) (any, error) {
	if r.depth >= r.maxDepth {
		r.logger.Error("script depth ceiling exceeded",
			zap.String("script", name),
			zap.Int("depth", r.depth))
		return nil, ErrDepthExceeded
	}
	r.depth++
	defer func() { r.depth-- }()

	vm := r.newVM()
	for k, v := range bindings {
		if r.convert != nil {
			vm.Set(k, r.convert(vm, v))
		} else {
			vm.Set(k, v)
		}
	}

	timer := time.AfterFunc(r.timeout, func() {
		vm.Interrupt(ErrTimeout)
	})
	defer timer.Stop()

	var result goja.Value
	var runErr error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				if e, ok := rec.(error); ok {
					runErr = e
				} else {
					runErr = fmt.Errorf("script: internal fault: %v", rec)
				}
			}
		}()
		result, runErr = vm.RunScript(name, src)
	}()

	if runErr != nil {
		err := r.classify(runErr)
		r.logger.Warn("script execution error",
			zap.String("script", name),
			zap.Error(err))
		return nil, err
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, nil
	}
	return result.Export(), nil
}

// classify turns goja's error shapes into this package's error values. An
// ErrDepthExceeded thrown by a nested host call surfaces unchanged so
// callers can log it distinctly from ordinary script errors.
func (r *Runner) classify(runErr error) error {
	var ierr *goja.InterruptedError
	if errors.As(runErr, &ierr) {
		if v, ok := ierr.Value().(error); ok && errors.Is(v, ErrTimeout) {
			return ErrTimeout
		}
		return fmt.Errorf("script: interrupted: %v", ierr.Value())
	}
	var exc *goja.Exception
	if errors.As(runErr, &exc) {
		// Host-thrown errors travel as GoError values; Unwrap recovers
		// the original so the sentinels survive the trip through goja.
		if host := exc.Unwrap(); host != nil {
			if errors.Is(host, ErrDepthExceeded) || errors.Is(host, ErrImportDenied) {
				return host
			}
		}
		return errors.New(exc.Error())
	}
	return runErr
}

// newVM creates a runtime with dynamic evaluation and host escape hatches
// disabled, and the allow-listed require installed.
func (r *Runner) newVM() *goja.Runtime {
	vm := goja.New()
	for _, name := range []string{"eval", "Function", "process", "fetch", "XMLHttpRequest"} {
		vm.Set(name, goja.Undefined())
	}
	vm.Set("require", func(call goja.FunctionCall) goja.Value {
		name, ok := call.Argument(0).Export().(string)
		if !ok {
			panic(vm.NewGoError(fmt.Errorf("require: module name must be a string")))
		}
		mod, found := r.modules[name]
		if !found {
			panic(vm.NewGoError(fmt.Errorf("%w: %q", ErrImportDenied, name)))
		}
		return mod(vm)
	})
	return vm
}
