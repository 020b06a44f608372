package vdom

import "fmt"

// Callable is anything that can be the target of a "call" or "new"
// expression (spec §4.2: "call/new require the callee/ctor to be callable").
type Callable interface {
	Invoke(args []any) (any, error)
}

// HostFunc adapts a plain Go function to Callable, for functions supplied by
// the host global scope or the component/expression registry.
type HostFunc func(args []any) (any, error)

// Invoke calls the underlying function.
func (f HostFunc) Invoke(args []any) (any, error) { return f(args) }

// Closure is the runtime value produced by evaluating an "arrow" expression.
type Closure struct {
	Params []string
	Body   any
	Env    *Env
	Eval   *Evaluator
}

// Invoke extends Env with the parameters bound to args (extra args are
// ignored, missing args bind to nil) and evaluates Body once as a pure
// expression (spec §9: "arrow bodies... never statement sequences").
func (c *Closure) Invoke(args []any) (any, error) {
	call := NewEnv(c.Env)
	for i, name := range c.Params {
		var v any
		if i < len(args) {
			v = args[i]
		}
		call.Bind(name, v)
	}
	return c.Eval.Evaluate(c.Body, call)
}

func callableOf(v any) (Callable, error) {
	switch t := v.(type) {
	case Callable:
		return t, nil
	default:
		return nil, fmt.Errorf("vdom: value of type %T is not callable", v)
	}
}
