package ir

import (
	"fmt"
	"strings"
)

// Node is the dataflow capability set every CFG node variant implements.
// Passes are written as exhaustive type
// switches over the concrete variants below rather than against this
// interface's identity, since the interface alone cannot express the
// phi-as-Func/Call duality the SSA and memory passes depend on.
type Node interface {
	fmt.Stringer

	// DeclaredVars returns the Vars this node defines.
	DeclaredVars() []Var

	// ReferencedVars returns every Var this node reads, in a stable,
	// deterministic order matching the node's argument/value list.
	ReferencedVars() []Var

	// ReferencedExprs returns a pointer to every top-level expression this
	// node reads, so a pass can rewrite them (e.g. Nonblocking's backwards
	// substitution) without knowing the concrete node type.
	ReferencedExprs() []*Expr

	// UndefineVar removes v from this node's declared vars if present and
	// reports whether the whole node is now eligible for removal. Func
	// nodes are a special case handled directly by callers: a Func's
	// parameter removal must stay in sync with every predecessor Call's
	// argument list, which UndefineVar alone cannot do.
	UndefineVar(v Var) bool

	// Clone returns a copy of the node for insertion into another Graph.
	// Var and expression slices are copied; the expression trees they
	// hold are shared with the original, not duplicated.
	Clone() Node
}

func joinVars(vars []Var) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Assign computes rvalue and binds it to lvalue.
type Assign struct {
	LValue Var
	RValue Expr
}

func (n *Assign) String() string { return fmt.Sprintf("%s = %s", n.LValue, n.RValue) }

func (n *Assign) DeclaredVars() []Var { return []Var{n.LValue} }

func (n *Assign) ReferencedVars() []Var { return n.RValue.Vars() }

func (n *Assign) ReferencedExprs() []*Expr { return []*Expr{&n.RValue} }

func (n *Assign) UndefineVar(v Var) bool { return n.LValue == v }

func (n *Assign) Clone() Node { return &Assign{LValue: n.LValue, RValue: n.RValue} }

// Branch evaluates Cond and follows the True or False successor edge.
// A well-formed Branch has exactly one outgoing edge of each label.
type Branch struct {
	Cond Expr
}

func (n *Branch) String() string { return fmt.Sprintf("if %s", n.Cond) }

func (n *Branch) DeclaredVars() []Var { return nil }

func (n *Branch) ReferencedVars() []Var { return n.Cond.Vars() }

func (n *Branch) ReferencedExprs() []*Expr { return []*Expr{&n.Cond} }

func (n *Branch) UndefineVar(Var) bool { return false }

func (n *Branch) Clone() Node { return &Branch{Cond: n.Cond} }

// Call is a split/call-site node: a predecessor of a Func join. Args is
// the phi operand list this predecessor contributes, one per the Func's
// parameter slot.
type Call struct {
	Args []Var
}

func (n *Call) String() string { return fmt.Sprintf("call(%s)", joinVars(n.Args)) }

func (n *Call) DeclaredVars() []Var { return nil }

func (n *Call) ReferencedVars() []Var { return append([]Var(nil), n.Args...) }

func (n *Call) ReferencedExprs() []*Expr { return nil }

func (n *Call) UndefineVar(Var) bool { return false }

func (n *Call) Clone() Node { return &Call{Args: append([]Var(nil), n.Args...)} }

// Func is a join node. Params is the phi target list; the i-th param
// receives, from each predecessor Call, that Call's i-th Arg.
type Func struct {
	Params []Var
}

func (n *Func) String() string { return fmt.Sprintf("func(%s)", joinVars(n.Params)) }

func (n *Func) DeclaredVars() []Var { return append([]Var(nil), n.Params...) }

func (n *Func) ReferencedVars() []Var { return nil }

func (n *Func) ReferencedExprs() []*Expr { return nil }

func (n *Func) UndefineVar(Var) bool { return false }

func (n *Func) Clone() Node { return &Func{Params: append([]Var(nil), n.Params...)} }

// Yield emits Values as one FSM-visible output tuple without terminating
// the generator.
type Yield struct {
	Values []Expr
}

func (n *Yield) String() string { return fmt.Sprintf("yield(%s)", joinExprs(n.Values)) }

func (n *Yield) DeclaredVars() []Var { return nil }

func (n *Yield) ReferencedVars() []Var {
	var vars []Var
	for _, e := range n.Values {
		vars = append(vars, e.Vars()...)
	}
	return vars
}

func (n *Yield) ReferencedExprs() []*Expr {
	exprs := make([]*Expr, len(n.Values))
	for i := range n.Values {
		exprs[i] = &n.Values[i]
	}
	return exprs
}

func (n *Yield) UndefineVar(Var) bool { return false }

func (n *Yield) Clone() Node { return &Yield{Values: append([]Expr(nil), n.Values...)} }

// Return terminates the generator, emitting Values as the final output.
type Return struct {
	Values []Expr
}

func (n *Return) String() string { return fmt.Sprintf("return(%s)", joinExprs(n.Values)) }

func (n *Return) DeclaredVars() []Var { return nil }

func (n *Return) ReferencedVars() []Var {
	var vars []Var
	for _, e := range n.Values {
		vars = append(vars, e.Vars()...)
	}
	return vars
}

func (n *Return) ReferencedExprs() []*Expr {
	exprs := make([]*Expr, len(n.Values))
	for i := range n.Values {
		exprs[i] = &n.Values[i]
	}
	return exprs
}

func (n *Return) UndefineVar(Var) bool { return false }

func (n *Return) Clone() Node { return &Return{Values: append([]Expr(nil), n.Values...)} }

// Memory is a non-removable Assign inserted by rewrite.UseMemory at a
// subgraph's register-file boundary (a load at the entry, a store at a
// leaf). RemoveUnreadVars must never delete one, even when its LValue has
// no in-subgraph reader, since the store/load is itself the side effect
// RemoveUnreadVars exists to preserve against over-aggressive DCE.
type Memory struct {
	LValue Var
	RValue Expr
}

func (n *Memory) String() string { return fmt.Sprintf("mem %s = %s", n.LValue, n.RValue) }

func (n *Memory) DeclaredVars() []Var { return []Var{n.LValue} }

func (n *Memory) ReferencedVars() []Var { return n.RValue.Vars() }

func (n *Memory) ReferencedExprs() []*Expr { return []*Expr{&n.RValue} }

func (n *Memory) UndefineVar(Var) bool { return false }

func (n *Memory) Clone() Node { return &Memory{LValue: n.LValue, RValue: n.RValue} }

// NextState is a placeholder that rewrite.InsertNextState puts in place
// of each boundary Call recorded by lower.LowerToFSM, recording which subgraph index the state register should load
// next. It declares and references nothing, so it is inert with respect
// to every dataflow pass.
type NextState struct {
	Target int
}

func (n *NextState) String() string { return fmt.Sprintf("next_state = %d", n.Target) }

func (n *NextState) DeclaredVars() []Var { return nil }

func (n *NextState) ReferencedVars() []Var { return nil }

func (n *NextState) ReferencedExprs() []*Expr { return nil }

func (n *NextState) UndefineVar(Var) bool { return false }

func (n *NextState) Clone() Node { return &NextState{Target: n.Target} }
