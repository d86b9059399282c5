package compiler

import "github.com/chceswieta/kompilator/pkg/vm"

func (cg *CodeGen) genDiv(l, r Value, rs regSet) error {
	if sameValue(l, r) {
		// x/x is 1, except 0/0 which is 0
		if err := cg.loadValue(l, rs.u, rs.s); err != nil {
			return err
		}
		cg.op(vm.OpReset, rs.t)
		cg.skip(vm.OpJzero, rs.u, 2)
		cg.op(vm.OpInc, rs.t)
		return nil
	}
	if c, ok := constOf(l); ok && c == 0 {
		return cg.zero(rs, r)
	}
	if c, ok := constOf(r); ok {
		if c == 0 {
			return cg.zero(rs, l)
		}
		if k, ok := log2(c); ok {
			if err := cg.loadValue(l, rs.t, rs.s); err != nil {
				return err
			}
			cg.repeat(vm.OpShr, rs.t, k)
			return nil
		}
	}

	if err := cg.loadOperands(l, r, rs); err != nil {
		return err
	}
	cg.divide(rs.t, rs.s, rs.u, rs.v, rs.w)
	return nil
}

func (cg *CodeGen) genMod(l, r Value, rs regSet) error {
	if sameValue(l, r) {
		return cg.zero(rs, l)
	}
	if c, ok := constOf(l); ok && c == 0 {
		return cg.zero(rs, r)
	}
	if c, ok := constOf(r); ok {
		switch c {
		case 0, 1:
			return cg.zero(rs, l)
		case 2:
			if err := cg.loadValue(l, rs.s, rs.u); err != nil {
				return err
			}
			cg.op(vm.OpReset, rs.t)
			cg.skip(vm.OpJodd, rs.s, 2)
			cg.skip(vm.OpJump, 0, 2)
			cg.op(vm.OpInc, rs.t)
			return nil
		}
	}

	if err := cg.loadOperands(l, r, rs); err != nil {
		return err
	}
	cg.divide(rs.s, rs.t, rs.u, rs.v, rs.w)
	return nil
}

// loadOperands puts the dividend in u and the divisor in v.
func (cg *CodeGen) loadOperands(l, r Value, rs regSet) error {
	if err := cg.loadValue(l, rs.u, rs.s); err != nil {
		return err
	}
	return cg.loadValue(r, rs.v, rs.s)
}

// divide emits restoring long division of n by d, leaving the quotient in q
// and the remainder in rem. n and d are clobbered and tmp is scratch. With
// d = 0 both results are 0.
//
// The divisor is first doubled (in n, which is free once copied into rem)
// until the next doubling would exceed the remainder. Then, halving it back
// down to d, the quotient is shifted left at each step and gets its low bit
// set whenever the shifted divisor still fits into the remainder.
func (cg *CodeGen) divide(q, rem, n, d, tmp vm.Register) {
	align := cg.newLabel()
	grow := cg.newLabel()
	trial := cg.newLabel()
	subtract := cg.newLabel()
	step := cg.newLabel()
	next := cg.newLabel()
	finish := cg.newLabel()

	// lessOrEqual jumps to l when x <= y.
	lessOrEqual := func(x, y vm.Register, l label) {
		cg.op(vm.OpReset, tmp)
		cg.op2(vm.OpAdd, tmp, x)
		cg.op2(vm.OpSub, tmp, y)
		cg.branch(vm.OpJzero, tmp, l)
	}

	cg.op(vm.OpReset, q)
	cg.op(vm.OpReset, rem)
	cg.branch(vm.OpJzero, d, finish)
	cg.op2(vm.OpAdd, rem, n)
	cg.op(vm.OpReset, n)
	cg.op2(vm.OpAdd, n, d)
	lessOrEqual(rem, n, trial)

	cg.bind(align)
	lessOrEqual(n, rem, grow)
	cg.op(vm.OpShr, n)
	cg.branch(vm.OpJump, 0, trial)
	cg.bind(grow)
	cg.op(vm.OpShl, n)
	cg.branch(vm.OpJump, 0, align)

	cg.bind(trial)
	lessOrEqual(n, rem, subtract)
	cg.branch(vm.OpJump, 0, finish)
	cg.bind(subtract)
	cg.op2(vm.OpSub, rem, n)
	cg.op(vm.OpInc, q)

	cg.bind(step)
	lessOrEqual(n, rem, trial)
	cg.op(vm.OpShr, n)
	lessOrEqual(d, n, next)
	cg.branch(vm.OpJump, 0, finish)
	cg.bind(next)
	cg.op(vm.OpShl, q)
	cg.branch(vm.OpJump, 0, step)

	cg.bind(finish)
}
