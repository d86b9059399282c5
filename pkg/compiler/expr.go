package compiler

import (
	"fmt"
	"math/bits"

	"github.com/chceswieta/kompilator/pkg/vm"
)

// regSet names the registers an expression may use. The result is left in t;
// s, u, v and w are clobbered.
type regSet struct {
	t, s, u, v, w vm.Register
}

var exprRegs = regSet{t: ra, s: rb, u: rc, v: rd, w: re}

// Additions and subtractions of a literal below this are emitted as INC/DEC
// runs instead of loading the literal.
const incThreshold = 12

func (cg *CodeGen) genExpr(e Expression, rs regSet) error {
	switch n := e.(type) {
	case *ValueExpr:
		return cg.loadValue(n.Value, rs.t, rs.s)
	case *BinaryExpr:
		if l, ok := n.Left.(*Const); ok {
			if r, ok := n.Right.(*Const); ok {
				cg.genConst(fold(n.Op, l.N, r.N), rs.t)
				return nil
			}
		}
		switch n.Op {
		case OpAdd:
			return cg.genAdd(n.Left, n.Right, rs)
		case OpSub:
			return cg.genSub(n.Left, n.Right, rs)
		case OpMul:
			return cg.genMul(n.Left, n.Right, rs)
		case OpDiv:
			return cg.genDiv(n.Left, n.Right, rs)
		case OpMod:
			return cg.genMod(n.Left, n.Right, rs)
		}
		return fmt.Errorf("internal error: unknown operator %v", n.Op)
	default:
		return fmt.Errorf("internal error: unknown expression %T", e)
	}
}

// fold evaluates op on two literals with the machine's semantics:
// subtraction saturates, division and modulo by zero give zero, and
// everything else wraps at 64 bits like the registers do.
func fold(op ArithOp, l, r uint64) uint64 {
	switch op {
	case OpAdd:
		return l + r
	case OpSub:
		if l < r {
			return 0
		}
		return l - r
	case OpMul:
		return l * r
	case OpDiv:
		if r == 0 {
			return 0
		}
		return l / r
	case OpMod:
		if r == 0 {
			return 0
		}
		return l % r
	}
	return 0
}

// constOf returns the literal in v, if v is one.
func constOf(v Value) (uint64, bool) {
	if c, ok := v.(*Const); ok {
		return c.N, true
	}
	return 0, false
}

// sameValue reports whether l and r read the same cell.
func sameValue(l, r Value) bool {
	ll, ok1 := l.(*Load)
	rl, ok2 := r.(*Load)
	return ok1 && ok2 && ll.Ref.String() == rl.Ref.String()
}

// log2 returns k for c == 2^k.
func log2(c uint64) (uint64, bool) {
	if c == 0 || c&(c-1) != 0 {
		return 0, false
	}
	return uint64(bits.TrailingZeros64(c)), true
}

// zero emits RESET t after checking the operands it never loads.
func (cg *CodeGen) zero(rs regSet, unused ...Value) error {
	for _, v := range unused {
		if err := cg.checkValue(v); err != nil {
			return err
		}
	}
	cg.op(vm.OpReset, rs.t)
	return nil
}

func (cg *CodeGen) genAdd(l, r Value, rs regSet) error {
	if sameValue(l, r) {
		if err := cg.loadValue(l, rs.t, rs.s); err != nil {
			return err
		}
		cg.op(vm.OpShl, rs.t)
		return nil
	}
	if c, ok := constOf(l); ok && c < incThreshold {
		l, r = r, l
	}
	if c, ok := constOf(r); ok && c < incThreshold {
		if err := cg.loadValue(l, rs.t, rs.s); err != nil {
			return err
		}
		cg.repeat(vm.OpInc, rs.t, c)
		return nil
	}

	if err := cg.loadValue(l, rs.t, rs.s); err != nil {
		return err
	}
	if err := cg.loadValue(r, rs.s, rs.u); err != nil {
		return err
	}
	cg.op2(vm.OpAdd, rs.t, rs.s)
	return nil
}

func (cg *CodeGen) genSub(l, r Value, rs regSet) error {
	if sameValue(l, r) {
		return cg.zero(rs, l)
	}
	if c, ok := constOf(r); ok && c < incThreshold {
		if err := cg.loadValue(l, rs.t, rs.s); err != nil {
			return err
		}
		cg.repeat(vm.OpDec, rs.t, c)
		return nil
	}
	if c, ok := constOf(l); ok && c == 0 {
		return cg.zero(rs, r)
	}

	if err := cg.loadValue(l, rs.t, rs.s); err != nil {
		return err
	}
	if err := cg.loadValue(r, rs.s, rs.u); err != nil {
		return err
	}
	cg.op2(vm.OpSub, rs.t, rs.s)
	return nil
}

func (cg *CodeGen) genMul(l, r Value, rs regSet) error {
	if c, ok := constOf(l); ok && c == 0 {
		return cg.zero(rs, r)
	}
	if c, ok := constOf(r); ok && c == 0 {
		return cg.zero(rs, l)
	}
	if _, ok := constOf(l); ok {
		l, r = r, l
	}
	if c, ok := constOf(r); ok {
		if k, ok := log2(c); ok {
			if err := cg.loadValue(l, rs.t, rs.s); err != nil {
				return err
			}
			cg.repeat(vm.OpShl, rs.t, k)
			return nil
		}
	}

	if err := cg.loadValue(l, rs.s, rs.t); err != nil {
		return err
	}
	if sameValue(l, r) {
		cg.op(vm.OpReset, rs.u)
		cg.op2(vm.OpAdd, rs.u, rs.s)
	} else if err := cg.loadValue(r, rs.u, rs.v); err != nil {
		return err
	}
	cg.multiply(rs.t, rs.s, rs.u)
	return nil
}

// multiply leaves x*y in acc by shift-and-add, consuming x and y. The
// smaller operand is halved and the larger doubled, so the loop runs once
// per bit of the smaller one.
func (cg *CodeGen) multiply(acc, x, y vm.Register) {
	end := cg.newLabel()
	shrinkX := cg.newLabel()

	cg.op(vm.OpReset, acc)
	cg.branch(vm.OpJzero, x, end)
	cg.branch(vm.OpJzero, y, end)
	cg.op2(vm.OpAdd, acc, x)
	cg.op2(vm.OpSub, acc, y)
	cg.branch(vm.OpJzero, acc, shrinkX) // x <= y

	cg.shiftAddLoop(acc, x, y, end)
	cg.bind(shrinkX)
	cg.shiftAddLoop(acc, y, x, end)
	cg.bind(end)
}

// shiftAddLoop adds grow into acc for every set bit of shrink.
func (cg *CodeGen) shiftAddLoop(acc, grow, shrink vm.Register, end label) {
	cg.op(vm.OpReset, acc)
	top := cg.here()
	cg.branch(vm.OpJzero, shrink, end)
	cg.skip(vm.OpJodd, shrink, 2)
	cg.skip(vm.OpJump, 0, 2)
	cg.op2(vm.OpAdd, acc, grow)
	cg.op(vm.OpShr, shrink)
	cg.op(vm.OpShl, grow)
	cg.branch(vm.OpJump, 0, top)
}
