package compiler

import (
	"fmt"
	"strings"
)

//  References and values

// Ref is a resolved identifier: *Variable, *Undeclared or *Element.
type Ref interface {
	refNode()
	String() string
}

// Variable names a declared symbol. It may still name an array, which the
// generator reports as a missing index.
type Variable struct {
	Name string
}

func (*Variable) refNode()         {}
func (v *Variable) String() string { return v.Name }

// Undeclared is a name with no declaration. The only legal use is reading
// an active loop iterator.
type Undeclared struct {
	Name string
}

func (*Undeclared) refNode()         {}
func (u *Undeclared) String() string { return u.Name }

// Element is one cell of an array. A *Const index is resolved at compile
// time, any other index at run time.
//
//	t(5)  Element{Array: "t", Index: &Const{5}}
//	t(n)  Element{Array: "t", Index: &Load{&Variable{"n"}}}
type Element struct {
	Array string
	Index Value
}

func (*Element) refNode()         {}
func (e *Element) String() string { return fmt.Sprintf("%s(%s)", e.Array, e.Index) }

// Value is *Const or *Load.
type Value interface {
	valueNode()
	String() string
}

// Const is an integer literal.
type Const struct {
	N uint64
}

func (*Const) valueNode()       {}
func (c *Const) String() string { return fmt.Sprintf("%d", c.N) }

// Load reads the cell a Ref names.
type Load struct {
	Ref Ref
}

func (*Load) valueNode()       {}
func (l *Load) String() string { return l.Ref.String() }

//  Expressions and conditions

type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

var arithSymbols = [...]string{OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%"}

func (op ArithOp) String() string { return arithSymbols[op] }

// Expression is *ValueExpr or *BinaryExpr.
type Expression interface {
	exprNode()
	String() string
}

type ValueExpr struct {
	Value Value
}

func (*ValueExpr) exprNode()        {}
func (e *ValueExpr) String() string { return e.Value.String() }

// BinaryExpr is Left Op Right. Operands are always plain values.
type BinaryExpr struct {
	Op          ArithOp
	Left, Right Value
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

type Relation int

const (
	RelEq Relation = iota
	RelNe
	RelLt
	RelGt
	RelLe
	RelGe
)

var relationSymbols = [...]string{RelEq: "=", RelNe: "!=", RelLt: "<", RelGt: ">", RelLe: "<=", RelGe: ">="}

func (r Relation) String() string { return relationSymbols[r] }

// Condition compares two values.
type Condition struct {
	Rel         Relation
	Left, Right Value
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Rel, c.Right)
}

//  Commands

// Command is one statement. Every implementation dispatches to its own
// commandVisitor method, so a new command kind does not compile until the
// generator handles it.
type Command interface {
	accept(v commandVisitor) error
	Pos() int
	String() string
}

type commandVisitor interface {
	visitWrite(*Write) error
	visitRead(*Read) error
	visitAssign(*Assign) error
	visitIf(*If) error
	visitIfElse(*IfElse) error
	visitWhile(*While) error
	visitUntil(*Until) error
	visitForUp(*ForUp) error
	visitForDown(*ForDown) error
}

// Write is WRITE value;
type Write struct {
	Value Value
	Line  int
}

func (w *Write) accept(v commandVisitor) error { return v.visitWrite(w) }
func (w *Write) Pos() int                      { return w.Line }
func (w *Write) String() string                { return fmt.Sprintf("WRITE %s;", w.Value) }

// Read is READ identifier;
type Read struct {
	Target Ref
	Line   int
}

func (r *Read) accept(v commandVisitor) error { return v.visitRead(r) }
func (r *Read) Pos() int                      { return r.Line }
func (r *Read) String() string                { return fmt.Sprintf("READ %s;", r.Target) }

// Assign is identifier := expression;
type Assign struct {
	Target Ref
	Expr   Expression
	Line   int
}

func (a *Assign) accept(v commandVisitor) error { return v.visitAssign(a) }
func (a *Assign) Pos() int                      { return a.Line }
func (a *Assign) String() string                { return fmt.Sprintf("%s := %s;", a.Target, a.Expr) }

// Consts, on every block-bearing command except Until, lists the literals
// written anywhere inside the block in ascending order.

type If struct {
	Cond   *Condition
	Then   []Command
	Consts []uint64
	Line   int
}

func (n *If) accept(v commandVisitor) error { return v.visitIf(n) }
func (n *If) Pos() int                      { return n.Line }
func (n *If) String() string {
	return fmt.Sprintf("IF %s THEN %s ENDIF", n.Cond, blockString(n.Then))
}

type IfElse struct {
	Cond   *Condition
	Then   []Command
	Else   []Command
	Consts []uint64
	Line   int
}

func (n *IfElse) accept(v commandVisitor) error { return v.visitIfElse(n) }
func (n *IfElse) Pos() int                      { return n.Line }
func (n *IfElse) String() string {
	return fmt.Sprintf("IF %s THEN %s ELSE %s ENDIF", n.Cond, blockString(n.Then), blockString(n.Else))
}

type While struct {
	Cond   *Condition
	Body   []Command
	Consts []uint64
	Line   int
}

func (n *While) accept(v commandVisitor) error { return v.visitWhile(n) }
func (n *While) Pos() int                      { return n.Line }
func (n *While) String() string {
	return fmt.Sprintf("WHILE %s DO %s ENDWHILE", n.Cond, blockString(n.Body))
}

// Until is REPEAT body UNTIL cond; its body always runs at least once.
type Until struct {
	Cond *Condition
	Body []Command
	Line int
}

func (n *Until) accept(v commandVisitor) error { return v.visitUntil(n) }
func (n *Until) Pos() int                      { return n.Line }
func (n *Until) String() string {
	return fmt.Sprintf("REPEAT %s UNTIL %s;", blockString(n.Body), n.Cond)
}

// ForLoop is the part shared by both for-loop directions.
type ForLoop struct {
	Iterator string
	From, To Value
	Body     []Command
	Consts   []uint64
	Line     int
}

func (f *ForLoop) Pos() int { return f.Line }

type ForUp struct{ ForLoop }

func (n *ForUp) accept(v commandVisitor) error { return v.visitForUp(n) }
func (n *ForUp) String() string {
	return fmt.Sprintf("FOR %s FROM %s TO %s DO %s ENDFOR", n.Iterator, n.From, n.To, blockString(n.Body))
}

type ForDown struct{ ForLoop }

func (n *ForDown) accept(v commandVisitor) error { return v.visitForDown(n) }
func (n *ForDown) String() string {
	return fmt.Sprintf("FOR %s FROM %s DOWNTO %s DO %s ENDFOR", n.Iterator, n.From, n.To, blockString(n.Body))
}

func blockString(cmds []Command) string {
	parts := make([]string, len(cmds))
	for i, c := range cmds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Declaration records one DECLARE entry for dumps.
type Declaration struct {
	Name        string
	IsArray     bool
	First, Last uint64
	Line        int
}

func (d Declaration) String() string {
	if d.IsArray {
		return fmt.Sprintf("%s(%d:%d)", d.Name, d.First, d.Last)
	}
	return d.Name
}

// Program is a parsed source file.
type Program struct {
	Declarations []Declaration
	Commands     []Command
}

func (p *Program) String() string {
	var sb strings.Builder
	if len(p.Declarations) > 0 {
		names := make([]string, len(p.Declarations))
		for i, d := range p.Declarations {
			names[i] = d.String()
		}
		fmt.Fprintf(&sb, "DECLARE %s\n", strings.Join(names, ", "))
	}
	sb.WriteString("BEGIN\n")
	for _, c := range p.Commands {
		fmt.Fprintf(&sb, "  %s\n", c)
	}
	sb.WriteString("END\n")
	return sb.String()
}
