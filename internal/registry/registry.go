// Package registry implements the scalar function registry consulted by
// internal/eval at call time and internal/typeinfer at plan time. Grounded
// on the factory package (factory/factory.go), which centralizes
// construction of pluggable components (metadata loaders, transformers)
// behind small var-assigned factory functions so tests can substitute
// implementations; Registry plays the same "one place that knows every
// concrete implementation" role for scalar functions instead of storage
// components.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/yachtsql/yachtsql"
)

// ScalarFunc is one registered function: ReturnKind derives its static
// output type (consulted by internal/typeinfer), Call evaluates it against
// concrete argument Values (consulted by internal/eval).
type ScalarFunc struct {
	Name       string
	ReturnKind func(argKinds []yachtsql.ValueKind) (yachtsql.ValueKind, error)
	Call       func(args []yachtsql.Value) (yachtsql.Value, error)
}

// Registry is a name-keyed table of ScalarFuncs, implementing both
// internal/eval.FuncRegistry (CallScalar) and internal/typeinfer.FuncRegistry
// (ReturnKind) so a single Registry instance can be passed to either package
// without either importing this one's concrete type.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]ScalarFunc
}

// New returns a Registry preloaded with the built-in function set
// (register*Functions in categories.go).
func New() *Registry {
	r := &Registry{funcs: make(map[string]ScalarFunc)}
	registerStringFunctions(r)
	registerMathFunctions(r)
	registerDateTimeFunctions(r)
	registerNullFunctions(r)
	return r
}

// Register adds or replaces fn under its own Name, allowing callers to
// extend the builtin set (e.g. a UDF loaded from configuration).
func (r *Registry) Register(fn ScalarFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[strings.ToLower(fn.Name)] = fn
}

func (r *Registry) lookup(name string) (ScalarFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[strings.ToLower(name)]
	return fn, ok
}

// CallScalar implements internal/eval.FuncRegistry.
func (r *Registry) CallScalar(name string, args []yachtsql.Value) (yachtsql.Value, error) {
	fn, ok := r.lookup(name)
	if !ok {
		return yachtsql.Value{}, yachtsql.NewUnsupportedFeatureError(fmt.Sprintf("function %s", name))
	}
	return fn.Call(args)
}

// ReturnKind implements internal/typeinfer.FuncRegistry.
func (r *Registry) ReturnKind(name string, argKinds []yachtsql.ValueKind) (yachtsql.ValueKind, error) {
	fn, ok := r.lookup(name)
	if !ok {
		return "", yachtsql.NewUnsupportedFeatureError(fmt.Sprintf("function %s", name))
	}
	return fn.ReturnKind(argKinds)
}
