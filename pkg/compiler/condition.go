package compiler

import (
	"fmt"

	"github.com/chceswieta/kompilator/pkg/vm"
)

// simplify decides cond at compile time where the operands allow it.
// known is false when a runtime test is needed.
func (cg *CodeGen) simplify(cond *Condition) (result, known bool, err error) {
	l, lConst := constOf(cond.Left)
	r, rConst := constOf(cond.Right)

	switch {
	case lConst && rConst:
		return compare(cond.Rel, l, r), true, nil
	case lConst && l == 0 && (cond.Rel == RelLe || cond.Rel == RelGt):
		// 0 <= x always, 0 > x never
		return cond.Rel == RelLe, true, cg.checkValue(cond.Right)
	case rConst && r == 0 && (cond.Rel == RelGe || cond.Rel == RelLt):
		return cond.Rel == RelGe, true, cg.checkValue(cond.Left)
	case sameValue(cond.Left, cond.Right):
		result = cond.Rel == RelLe || cond.Rel == RelGe || cond.Rel == RelEq
		return result, true, cg.checkValue(cond.Left)
	}
	return false, false, nil
}

func compare(rel Relation, l, r uint64) bool {
	switch rel {
	case RelEq:
		return l == r
	case RelNe:
		return l != r
	case RelLt:
		return l < r
	case RelGt:
		return l > r
	case RelLe:
		return l <= r
	case RelGe:
		return l >= r
	}
	return false
}

// genCond emits a test of cond that falls through when it holds and jumps
// to whenFalse otherwise. Uses a, b and c. cond must be one simplify could
// not decide.
func (cg *CodeGen) genCond(cond *Condition, whenFalse label) error {
	l, lConst := constOf(cond.Left)
	r, rConst := constOf(cond.Right)

	// Against literal 0 only zero-ness matters.
	if (lConst && l == 0) || (rConst && r == 0) {
		other := cond.Right
		if rConst && r == 0 {
			other = cond.Left
		}
		if err := cg.loadValue(other, ra, rb); err != nil {
			return err
		}
		switch cond.Rel {
		case RelEq, RelGe, RelLe:
			// x = 0, 0 >= x, x <= 0
			cg.skip(vm.OpJzero, ra, 2)
			cg.branch(vm.OpJump, 0, whenFalse)
		case RelNe, RelLt, RelGt:
			// x != 0, 0 < x, x > 0
			cg.branch(vm.OpJzero, ra, whenFalse)
		}
		return nil
	}

	if err := cg.loadValue(cond.Left, ra, rc); err != nil {
		return err
	}
	if err := cg.loadValue(cond.Right, rb, rc); err != nil {
		return err
	}

	switch cond.Rel {
	case RelLe:
		cg.op2(vm.OpSub, ra, rb)
		cg.skip(vm.OpJzero, ra, 2)
		cg.branch(vm.OpJump, 0, whenFalse)
	case RelGe:
		cg.op2(vm.OpSub, rb, ra)
		cg.skip(vm.OpJzero, rb, 2)
		cg.branch(vm.OpJump, 0, whenFalse)
	case RelLt:
		cg.op2(vm.OpSub, rb, ra)
		cg.branch(vm.OpJzero, rb, whenFalse)
	case RelGt:
		cg.op2(vm.OpSub, ra, rb)
		cg.branch(vm.OpJzero, ra, whenFalse)
	case RelEq:
		// saturating subtraction is 0 for "less" too, so test both ways
		cg.op(vm.OpReset, rc)
		cg.op2(vm.OpAdd, rc, ra)
		cg.op2(vm.OpSub, ra, rb)
		cg.skip(vm.OpJzero, ra, 2)
		cg.branch(vm.OpJump, 0, whenFalse)
		cg.op2(vm.OpSub, rb, rc)
		cg.skip(vm.OpJzero, rb, 2)
		cg.branch(vm.OpJump, 0, whenFalse)
	case RelNe:
		cg.op(vm.OpReset, rc)
		cg.op2(vm.OpAdd, rc, ra)
		cg.op2(vm.OpSub, ra, rb)
		cg.skip(vm.OpJzero, ra, 2)
		cg.skip(vm.OpJump, 0, 3)
		cg.op2(vm.OpSub, rb, rc)
		cg.branch(vm.OpJzero, rb, whenFalse)
	default:
		return fmt.Errorf("internal error: unknown relation %v", cond.Rel)
	}
	return nil
}
