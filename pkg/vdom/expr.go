package vdom

import (
	"fmt"

	"github.com/erwinkn/pulse-ui-sub000/pkg/wire"
)

// ExprKind discriminates the expression AST variants of spec §3.
type ExprKind string

const (
	ExprRef       ExprKind = "ref"       // registry reference
	ExprID        ExprKind = "id"        // identifier lookup
	ExprLit       ExprKind = "lit"       // literal
	ExprUndefined ExprKind = "undefined" // the undefined value
	ExprArray     ExprKind = "arr"       // array constructor
	ExprObject    ExprKind = "obj"       // object constructor
	ExprMember    ExprKind = "member"    // a.b
	ExprSubscript ExprKind = "subscript" // a[b]
	ExprCall      ExprKind = "call"      // f(...)
	ExprUnary     ExprKind = "unary"     // !a, -a, typeof a
	ExprBinary    ExprKind = "binary"    // a OP b
	ExprTernary   ExprKind = "ternary"   // a ? b : c
	ExprTemplate  ExprKind = "template"  // `a${b}c`
	ExprArrow     ExprKind = "arrow"     // (params) => body
	ExprNew       ExprKind = "new"       // new Ctor(...)
)

// Expr is a client-evaluable expression node (spec §3/§4.2).
type Expr struct {
	Kind ExprKind

	Name string // ExprRef, ExprID: name to resolve
	Lit  any    // ExprLit: literal value

	Items []any // ExprArray: element expressions; ExprCall/ExprNew: argument expressions

	Props *PropMap // ExprObject: key -> value expression

	Object   any  // ExprMember/ExprSubscript: base expression
	Key      any  // ExprMember: string key; ExprSubscript: key expression
	Computed bool // true for ExprSubscript

	Callee any // ExprCall: callee expression; ExprNew: constructor expression

	Op          string // ExprUnary/ExprBinary: operator token
	Operand     any    // ExprUnary: operand expression
	Left, Right any    // ExprBinary: operand expressions

	Cond, Then, Else any // ExprTernary

	Parts []string // ExprTemplate: literal segments (len = len(Exprs)+1)
	Exprs []any    // ExprTemplate: interpolated expressions

	Params []string // ExprArrow: parameter names
	Body   any       // ExprArrow: body expression
}

func exprFromWire(o *wire.Object) (*Expr, error) {
	kindRaw, _ := o.Get("t")
	kindStr, ok := kindRaw.(string)
	if !ok {
		return nil, fmt.Errorf("vdom: expression tag %q must be a string", kindRaw)
	}
	kind := ExprKind(kindStr)
	e := &Expr{Kind: kind}

	get := func(key string) (any, bool) { return o.Get(key) }
	conv := func(v any) (any, error) { return FromWire(v) }

	switch kind {
	case ExprRef, ExprID:
		nameRaw, _ := get("name")
		s, isStr := nameRaw.(string)
		if !isStr {
			return nil, fmt.Errorf("vdom: %s expression missing string name", kind)
		}
		e.Name = s

	case ExprLit:
		v, _ := get("value")
		e.Lit = v

	case ExprUndefined:
		// no fields

	case ExprArray:
		itemsRaw, _ := get("items")
		arr, _ := itemsRaw.(*wire.Array)
		if arr != nil {
			for _, it := range arr.Items {
				parsed, err := conv(it)
				if err != nil {
					return nil, err
				}
				e.Items = append(e.Items, parsed)
			}
		}

	case ExprObject:
		propsRaw, _ := get("props")
		obj, _ := propsRaw.(*wire.Object)
		e.Props = NewPropMap()
		if obj != nil {
			for _, k := range obj.Keys() {
				v, _ := obj.Get(k)
				parsed, err := conv(v)
				if err != nil {
					return nil, err
				}
				e.Props.Set(k, parsed)
			}
		}

	case ExprMember:
		objRaw, _ := get("object")
		obj, err := conv(objRaw)
		if err != nil {
			return nil, err
		}
		e.Object = obj
		keyRaw, _ := get("key")
		s, isStr := keyRaw.(string)
		if !isStr {
			return nil, fmt.Errorf("vdom: member expression key must be a string")
		}
		e.Key = s

	case ExprSubscript:
		objRaw, _ := get("object")
		obj, err := conv(objRaw)
		if err != nil {
			return nil, err
		}
		e.Object = obj
		keyRaw, _ := get("key")
		key, err := conv(keyRaw)
		if err != nil {
			return nil, err
		}
		e.Key = key
		e.Computed = true

	case ExprCall:
		calleeRaw, _ := get("callee")
		callee, err := conv(calleeRaw)
		if err != nil {
			return nil, err
		}
		e.Callee = callee
		argsRaw, _ := get("args")
		if arr, ok := argsRaw.(*wire.Array); ok {
			for _, a := range arr.Items {
				parsed, err := conv(a)
				if err != nil {
					return nil, err
				}
				e.Items = append(e.Items, parsed)
			}
		}

	case ExprNew:
		ctorRaw, _ := get("ctor")
		ctor, err := conv(ctorRaw)
		if err != nil {
			return nil, err
		}
		e.Callee = ctor
		argsRaw, _ := get("args")
		if arr, ok := argsRaw.(*wire.Array); ok {
			for _, a := range arr.Items {
				parsed, err := conv(a)
				if err != nil {
					return nil, err
				}
				e.Items = append(e.Items, parsed)
			}
		}

	case ExprUnary:
		opRaw, _ := get("op")
		s, _ := opRaw.(string)
		e.Op = s
		argRaw, _ := get("arg")
		arg, err := conv(argRaw)
		if err != nil {
			return nil, err
		}
		e.Operand = arg

	case ExprBinary:
		opRaw, _ := get("op")
		s, _ := opRaw.(string)
		e.Op = s
		leftRaw, _ := get("left")
		left, err := conv(leftRaw)
		if err != nil {
			return nil, err
		}
		e.Left = left
		rightRaw, _ := get("right")
		right, err := conv(rightRaw)
		if err != nil {
			return nil, err
		}
		e.Right = right

	case ExprTernary:
		condRaw, _ := get("cond")
		cond, err := conv(condRaw)
		if err != nil {
			return nil, err
		}
		e.Cond = cond
		thenRaw, _ := get("then")
		then, err := conv(thenRaw)
		if err != nil {
			return nil, err
		}
		e.Then = then
		elseRaw, _ := get("else")
		els, err := conv(elseRaw)
		if err != nil {
			return nil, err
		}
		e.Else = els

	case ExprTemplate:
		partsRaw, _ := get("parts")
		if arr, ok := partsRaw.(*wire.Array); ok {
			for _, p := range arr.Items {
				s, _ := p.(string)
				e.Parts = append(e.Parts, s)
			}
		}
		exprsRaw, _ := get("exprs")
		if arr, ok := exprsRaw.(*wire.Array); ok {
			for _, x := range arr.Items {
				parsed, err := conv(x)
				if err != nil {
					return nil, err
				}
				e.Exprs = append(e.Exprs, parsed)
			}
		}

	case ExprArrow:
		paramsRaw, _ := get("params")
		if arr, ok := paramsRaw.(*wire.Array); ok {
			for _, p := range arr.Items {
				s, _ := p.(string)
				e.Params = append(e.Params, s)
			}
		}
		bodyRaw, _ := get("body")
		body, err := conv(bodyRaw)
		if err != nil {
			return nil, err
		}
		e.Body = body

	default:
		return nil, fmt.Errorf("vdom: unknown expression tag %q", kindStr)
	}

	return e, nil
}
