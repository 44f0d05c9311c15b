package cast

import (
	"encoding/json"
	"fmt"

	"github.com/chennqqi/crestgo/pkg/types"
)

// node is the JSON wire shape every Expr/Stmt marshals to and from: a
// "kind" discriminator plus whichever of the fields that kind uses.
// This is the interchange format a real C-frontend integration would
// emit instead of constructing cast.Expr/cast.Stmt values directly in
// Go — the closed sum types above have no natural JSON encoding of
// their own since json.Marshal can't discriminate on a Go interface's
// dynamic type without help.
type node struct {
	Kind string `json:"kind"`

	Value    int64       `json:"value,omitempty"`
	Typ      types.CType `json:"typ,omitempty"`
	Name     string      `json:"name,omitempty"`
	IsGlobal bool        `json:"is_global,omitempty"`
	Addr     types.Address `json:"addr,omitempty"`
	Op       int         `json:"op,omitempty"`
	ElemSize int         `json:"elem_size,omitempty"`
	ElemType types.CType `json:"elem_type,omitempty"`
	ObjSize  int         `json:"obj_size,omitempty"`
	Of       types.CType `json:"of,omitempty"`
	Func     string      `json:"func,omitempty"`
	Field    string      `json:"field,omitempty"`
	Offset   int         `json:"offset,omitempty"`

	X      *node `json:"x,omitempty"`
	L      *node `json:"l,omitempty"`
	R      *node `json:"r,omitempty"`
	Ptr    *node `json:"ptr,omitempty"`
	Cond   *node `json:"cond,omitempty"`
	Then   *node `json:"then,omitempty"`
	Else   *node `json:"else,omitempty"`
	LHS    *node `json:"lhs,omitempty"`
	RHS    *node `json:"rhs,omitempty"`
	First  *node `json:"first,omitempty"`
	Second *node `json:"second,omitempty"`
	Base   *node `json:"base,omitempty"`
	Idx    *node `json:"idx,omitempty"`

	Args []*node `json:"args,omitempty"`
}

// MarshalExpr converts e to its JSON wire node. nil is valid (an empty
// return value / discarded call argument).
func MarshalExpr(e Expr) *node {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case IntLit:
		return &node{Kind: "int_lit", Value: v.Value, Typ: v.Typ}
	case Var:
		return &node{Kind: "var", Name: v.Name, Typ: v.Typ, IsGlobal: v.IsGlobal, Addr: v.Addr}
	case Unary:
		return &node{Kind: "unary", Op: int(v.Op), Typ: v.Typ, X: MarshalExpr(v.X)}
	case Binary:
		return &node{Kind: "binary", Op: int(v.Op), Typ: v.Typ, L: MarshalExpr(v.L), R: MarshalExpr(v.R)}
	case PointerArith:
		return &node{Kind: "pointer_arith", Op: int(v.Op), Typ: v.Typ, ElemSize: v.ElemSize, L: MarshalExpr(v.L), R: MarshalExpr(v.R)}
	case Compare:
		return &node{Kind: "compare", Op: int(v.Op), L: MarshalExpr(v.L), R: MarshalExpr(v.R)}
	case AddrOf:
		return &node{Kind: "addr_of", Typ: v.Typ, X: MarshalExpr(v.X)}
	case Deref:
		return &node{Kind: "deref", Typ: v.Typ, ObjSize: v.ObjSize, Ptr: MarshalExpr(v.Ptr)}
	case Sizeof:
		return &node{Kind: "sizeof", Of: v.Of}
	case Call:
		n := &node{Kind: "call", Func: v.Func, Typ: v.Typ}
		for _, a := range v.Args {
			n.Args = append(n.Args, MarshalExpr(a))
		}
		return n
	case Index:
		return &node{Kind: "index", ElemType: v.ElemType, ElemSize: v.ElemSize, Base: MarshalExpr(v.Base), Idx: MarshalExpr(v.Idx)}
	case Field:
		return &node{Kind: "field", Name: v.Name, Offset: v.Offset, Typ: v.Typ, Base: MarshalExpr(v.Base)}
	default:
		panic(fmt.Sprintf("cast: unknown expression node %T", e))
	}
}

// UnmarshalExpr rebuilds the Expr n.MarshalExpr encoded. A nil n yields
// a nil Expr.
func UnmarshalExpr(n *node) (Expr, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case "int_lit":
		return IntLit{Value: n.Value, Typ: n.Typ}, nil
	case "var":
		return Var{Name: n.Name, Typ: n.Typ, IsGlobal: n.IsGlobal, Addr: n.Addr}, nil
	case "unary":
		x, err := UnmarshalExpr(n.X)
		if err != nil {
			return nil, err
		}
		return Unary{Op: types.UnaryOp(n.Op), Typ: n.Typ, X: x}, nil
	case "binary":
		l, err := UnmarshalExpr(n.L)
		if err != nil {
			return nil, err
		}
		r, err := UnmarshalExpr(n.R)
		if err != nil {
			return nil, err
		}
		return Binary{Op: types.BinaryOp(n.Op), Typ: n.Typ, L: l, R: r}, nil
	case "pointer_arith":
		l, err := UnmarshalExpr(n.L)
		if err != nil {
			return nil, err
		}
		r, err := UnmarshalExpr(n.R)
		if err != nil {
			return nil, err
		}
		return PointerArith{Op: types.PointerOp(n.Op), Typ: n.Typ, ElemSize: n.ElemSize, L: l, R: r}, nil
	case "compare":
		l, err := UnmarshalExpr(n.L)
		if err != nil {
			return nil, err
		}
		r, err := UnmarshalExpr(n.R)
		if err != nil {
			return nil, err
		}
		return Compare{Op: types.CompareOp(n.Op), L: l, R: r}, nil
	case "addr_of":
		x, err := UnmarshalExpr(n.X)
		if err != nil {
			return nil, err
		}
		return AddrOf{Typ: n.Typ, X: x}, nil
	case "deref":
		ptr, err := UnmarshalExpr(n.Ptr)
		if err != nil {
			return nil, err
		}
		return Deref{Typ: n.Typ, ObjSize: n.ObjSize, Ptr: ptr}, nil
	case "sizeof":
		return Sizeof{Of: n.Of}, nil
	case "call":
		args := make([]Expr, 0, len(n.Args))
		for _, a := range n.Args {
			e, err := UnmarshalExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		return Call{Func: n.Func, Args: args, Typ: n.Typ}, nil
	case "index":
		base, err := UnmarshalExpr(n.Base)
		if err != nil {
			return nil, err
		}
		idx, err := UnmarshalExpr(n.Idx)
		if err != nil {
			return nil, err
		}
		return Index{Base: base, Idx: idx, ElemType: n.ElemType, ElemSize: n.ElemSize}, nil
	case "field":
		base, err := UnmarshalExpr(n.Base)
		if err != nil {
			return nil, err
		}
		return Field{Base: base, Name: n.Name, Offset: n.Offset, Typ: n.Typ}, nil
	default:
		return nil, fmt.Errorf("cast: unknown expression kind %q", n.Kind)
	}
}

// ExprToJSON and ExprFromJSON are the package-boundary entry points:
// node is unexported, so callers outside pkg/cast reach the Marshal/
// UnmarshalExpr pair through raw JSON bytes instead.
func ExprToJSON(e Expr) ([]byte, error) { return json.Marshal(MarshalExpr(e)) }

func ExprFromJSON(data []byte) (Expr, error) {
	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return UnmarshalExpr(&n)
}

// MarshalStmt converts s to its JSON wire node.
func MarshalStmt(s Stmt) *node {
	if s == nil {
		return nil
	}
	switch v := s.(type) {
	case Skip:
		return &node{Kind: "skip"}
	case ExprStmt:
		return &node{Kind: "expr_stmt", X: MarshalExpr(v.X)}
	case Assign:
		return &node{Kind: "assign", LHS: MarshalExpr(v.LHS), RHS: MarshalExpr(v.RHS)}
	case If:
		return &node{Kind: "if", Cond: MarshalExpr(v.Cond), Then: MarshalStmt(v.Then), Else: MarshalStmt(v.Else)}
	case Return:
		return &node{Kind: "return", X: MarshalExpr(v.Value)}
	case Seq:
		return &node{Kind: "seq", First: MarshalStmt(v.First), Second: MarshalStmt(v.Second)}
	default:
		panic(fmt.Sprintf("cast: unknown statement node %T", s))
	}
}

// UnmarshalStmt rebuilds the Stmt n.MarshalStmt encoded.
func UnmarshalStmt(n *node) (Stmt, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case "skip":
		return Skip{}, nil
	case "expr_stmt":
		x, err := UnmarshalExpr(n.X)
		if err != nil {
			return nil, err
		}
		return ExprStmt{X: x}, nil
	case "assign":
		lhs, err := UnmarshalExpr(n.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := UnmarshalExpr(n.RHS)
		if err != nil {
			return nil, err
		}
		return Assign{LHS: lhs, RHS: rhs}, nil
	case "if":
		cond, err := UnmarshalExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := UnmarshalStmt(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := UnmarshalStmt(n.Else)
		if err != nil {
			return nil, err
		}
		return If{Cond: cond, Then: then, Else: els}, nil
	case "return":
		val, err := UnmarshalExpr(n.X)
		if err != nil {
			return nil, err
		}
		return Return{Value: val}, nil
	case "seq":
		first, err := UnmarshalStmt(n.First)
		if err != nil {
			return nil, err
		}
		second, err := UnmarshalStmt(n.Second)
		if err != nil {
			return nil, err
		}
		return Seq{First: first, Second: second}, nil
	default:
		return nil, fmt.Errorf("cast: unknown statement kind %q", n.Kind)
	}
}

func StmtToJSON(s Stmt) ([]byte, error) { return json.Marshal(MarshalStmt(s)) }

func StmtFromJSON(data []byte) (Stmt, error) {
	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return UnmarshalStmt(&n)
}

// FunctionWire is Function's JSON wire shape: everything but Body,
// which needs the node encoding above since Stmt is an interface.
type FunctionWire struct {
	Name       string      `json:"name"`
	Static     bool        `json:"static"`
	Variadic   bool        `json:"variadic"`
	Params     []Param     `json:"params"`
	ReturnType types.CType `json:"return_type"`
	IsVoid     bool        `json:"is_void"`
	Body       *node       `json:"body"`
}

// MarshalFunction converts fn to its wire shape.
func MarshalFunction(fn Function) FunctionWire {
	return FunctionWire{
		Name: fn.Name, Static: fn.Static, Variadic: fn.Variadic, Params: fn.Params,
		ReturnType: fn.ReturnType, IsVoid: fn.IsVoid, Body: MarshalStmt(fn.Body),
	}
}

// UnmarshalFunction rebuilds the Function a FunctionWire encoded.
func UnmarshalFunction(w FunctionWire) (Function, error) {
	body, err := UnmarshalStmt(w.Body)
	if err != nil {
		return Function{}, err
	}
	return Function{
		Name: w.Name, Static: w.Static, Variadic: w.Variadic, Params: w.Params,
		ReturnType: w.ReturnType, IsVoid: w.IsVoid, Body: body,
	}, nil
}
