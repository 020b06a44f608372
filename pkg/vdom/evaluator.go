package vdom

import (
	"fmt"
	"strings"

	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// Evaluator interprets the expression AST of spec §3/§4.2 against a
// registry of named values and a host global fallback scope.
type Evaluator struct {
	// Registry resolves "ref" expressions and "$$Name" component tags.
	Registry map[string]any
	// Globals is the host global scope consulted by "id" after the
	// environment chain (spec §4.2: "id first checks the environment, then
	// a host global scope").
	Globals map[string]any
}

// NewEvaluator returns an Evaluator with empty registry/globals.
func NewEvaluator() *Evaluator {
	return &Evaluator{Registry: make(map[string]any), Globals: make(map[string]any)}
}

// Evaluate evaluates node (a Node produced by FromWire, typically an *Expr,
// but any node is accepted so literals pass through unchanged) against env.
// env may be nil, in which case a fresh empty root environment is used.
func (v *Evaluator) Evaluate(node any, env *Env) (any, error) {
	if env == nil {
		env = NewEnv(nil)
	}
	expr, ok := node.(*Expr)
	if !ok {
		// Non-expression nodes (literals, elements) evaluate to themselves.
		return node, nil
	}
	switch expr.Kind {
	case ExprRef:
		val, ok := v.Registry[expr.Name]
		if !ok {
			return nil, fmt.Errorf("vdom: registry reference %q not found", expr.Name)
		}
		return val, nil

	case ExprID:
		if val, ok := env.Get(expr.Name); ok {
			return val, nil
		}
		if val, ok := v.Globals[expr.Name]; ok {
			return val, nil
		}
		return nil, fmt.Errorf("vdom: identifier %q is not defined", expr.Name)

	case ExprLit:
		return expr.Lit, nil

	case ExprUndefined:
		return wire.Undefined, nil

	case ExprArray:
		out := make([]any, len(expr.Items))
		for i, item := range expr.Items {
			val, err := v.Evaluate(item, env)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return &wire.Array{Items: out}, nil

	case ExprObject:
		out := wire.NewObject()
		if expr.Props != nil {
			for _, k := range expr.Props.Keys() {
				raw, _ := expr.Props.Get(k)
				val, err := v.Evaluate(raw, env)
				if err != nil {
					return nil, err
				}
				out.Set(k, val)
			}
		}
		return out, nil

	case ExprMember:
		base, err := v.Evaluate(expr.Object, env)
		if err != nil {
			return nil, err
		}
		key, _ := expr.Key.(string)
		return getMember(base, key)

	case ExprSubscript:
		base, err := v.Evaluate(expr.Object, env)
		if err != nil {
			return nil, err
		}
		key, err := v.Evaluate(expr.Key, env)
		if err != nil {
			return nil, err
		}
		return getSubscript(base, key)

	case ExprCall:
		calleeVal, err := v.Evaluate(expr.Callee, env)
		if err != nil {
			return nil, err
		}
		args, err := v.evalAll(expr.Items, env)
		if err != nil {
			return nil, err
		}
		fn, err := callableOf(calleeVal)
		if err != nil {
			return nil, err
		}
		return fn.Invoke(args)

	case ExprNew:
		ctorVal, err := v.Evaluate(expr.Callee, env)
		if err != nil {
			return nil, err
		}
		args, err := v.evalAll(expr.Items, env)
		if err != nil {
			return nil, err
		}
		ctor, err := callableOf(ctorVal)
		if err != nil {
			return nil, err
		}
		return ctor.Invoke(args)

	case ExprUnary:
		return v.evalUnary(expr, env)

	case ExprBinary:
		return v.evalBinary(expr, env)

	case ExprTernary:
		cond, err := v.Evaluate(expr.Cond, env)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return v.Evaluate(expr.Then, env)
		}
		return v.Evaluate(expr.Else, env)

	case ExprTemplate:
		var sb strings.Builder
		for i, part := range expr.Parts {
			sb.WriteString(part)
			if i < len(expr.Exprs) {
				val, err := v.Evaluate(expr.Exprs[i], env)
				if err != nil {
					return nil, err
				}
				sb.WriteString(toStringValue(val))
			}
		}
		return sb.String(), nil

	case ExprArrow:
		return &Closure{Params: expr.Params, Body: expr.Body, Env: env, Eval: v}, nil

	default:
		return nil, fmt.Errorf("vdom: unknown expression kind %q", expr.Kind)
	}
}

func (v *Evaluator) evalAll(nodes []any, env *Env) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		val, err := v.Evaluate(n, env)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func (v *Evaluator) evalUnary(expr *Expr, env *Env) (any, error) {
	switch expr.Op {
	case "typeof":
		// typeof never evaluates to an error for an undefined identifier.
		val, err := v.evalOrUndefined(expr.Operand, env)
		if err != nil {
			return nil, err
		}
		return typeOf(val), nil
	case "void":
		if _, err := v.Evaluate(expr.Operand, env); err != nil {
			return nil, err
		}
		return wire.Undefined, nil
	}
	val, err := v.Evaluate(expr.Operand, env)
	if err != nil {
		return nil, err
	}
	switch expr.Op {
	case "!":
		return !truthy(val), nil
	case "-":
		n, err := toNumber(val)
		if err != nil {
			return nil, err
		}
		return -n, nil
	case "+":
		return toNumber(val)
	default:
		return nil, fmt.Errorf("vdom: unknown unary operator %q", expr.Op)
	}
}

func (v *Evaluator) evalOrUndefined(node any, env *Env) (any, error) {
	expr, isExpr := node.(*Expr)
	if isExpr && expr.Kind == ExprID {
		if val, ok := env.Get(expr.Name); ok {
			return val, nil
		}
		if val, ok := v.Globals[expr.Name]; ok {
			return val, nil
		}
		return wire.Undefined, nil
	}
	return v.Evaluate(node, env)
}

func (v *Evaluator) evalBinary(expr *Expr, env *Env) (any, error) {
	switch expr.Op {
	case "&&":
		left, err := v.Evaluate(expr.Left, env)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return left, nil
		}
		return v.Evaluate(expr.Right, env)
	case "||":
		left, err := v.Evaluate(expr.Left, env)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return left, nil
		}
		return v.Evaluate(expr.Right, env)
	case "??":
		left, err := v.Evaluate(expr.Left, env)
		if err != nil {
			return nil, err
		}
		if left != nil && !wire.IsUndefined(left) {
			return left, nil
		}
		return v.Evaluate(expr.Right, env)
	case "in":
		left, err := v.Evaluate(expr.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := v.Evaluate(expr.Right, env)
		if err != nil {
			return nil, err
		}
		key, _ := left.(string)
		return hasMember(right, key), nil
	}

	left, err := v.Evaluate(expr.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := v.Evaluate(expr.Right, env)
	if err != nil {
		return nil, err
	}
	return applyBinary(expr.Op, left, right)
}

func applyBinary(op string, left, right any) (any, error) {
	switch op {
	case "===", "==":
		return strictEquals(left, right), nil
	case "!==", "!=":
		return !strictEquals(left, right), nil
	}

	if ls, lok := left.(string); lok {
		if rs, rok := right.(string); rok && op != "+" {
			return compareStrings(op, ls, rs)
		}
		if op == "+" {
			return ls + toStringValue(right), nil
		}
	}
	if op == "+" {
		if rs, rok := right.(string); rok {
			return toStringValue(left) + rs, nil
		}
	}

	ln, err := toNumber(left)
	if err != nil {
		return nil, err
	}
	rn, err := toNumber(right)
	if err != nil {
		return nil, err
	}
	switch op {
	case "+":
		return ln + rn, nil
	case "-":
		return ln - rn, nil
	case "*":
		return ln * rn, nil
	case "/":
		return ln / rn, nil
	case "%":
		return mod(ln, rn), nil
	case "**":
		return pow(ln, rn), nil
	case "<":
		return ln < rn, nil
	case "<=":
		return ln <= rn, nil
	case ">":
		return ln > rn, nil
	case ">=":
		return ln >= rn, nil
	default:
		return nil, fmt.Errorf("vdom: unknown binary operator %q", op)
	}
}

func compareStrings(op, a, b string) (any, error) {
	switch op {
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	default:
		return nil, fmt.Errorf("vdom: unknown string comparison operator %q", op)
	}
}
