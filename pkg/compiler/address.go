package compiler

import (
	"fmt"
	"math/bits"

	"github.com/chceswieta/kompilator/pkg/vm"
)

// genConst leaves exactly c in r: reset, then build c from its most
// significant bit down, doubling after each bit but the last.
func (cg *CodeGen) genConst(c uint64, r vm.Register) {
	cg.op(vm.OpReset, r)
	if c == 0 {
		return
	}
	for i := bits.Len64(c) - 1; i > 0; i-- {
		if c>>uint(i)&1 == 1 {
			cg.op(vm.OpInc, r)
		}
		cg.op(vm.OpShl, r)
	}
	if c&1 == 1 {
		cg.op(vm.OpInc, r)
	}
}

// address leaves the memory address of ref in r. s is scratch.
func (cg *CodeGen) address(ref Ref, r, s vm.Register) error {
	switch t := ref.(type) {
	case *Variable:
		sym, ok := cg.syms.Lookup(t.Name)
		if !ok {
			return newError(ErrUndeclaredVariableRead, t.Name, 0)
		}
		if sym.Kind == KindArray {
			return newError(ErrMissingArrayIndex, t.Name, 0)
		}
		cg.genConst(sym.Address, r)
		return nil
	case *Element:
		return cg.elementAddress(t, r, s)
	case *Undeclared:
		return newError(ErrUndeclaredVariableRead, t.Name, 0)
	default:
		return fmt.Errorf("internal error: unknown reference %T", ref)
	}
}

// elementAddress leaves the address of el in r. A dynamic index is turned
// into (index - first) + base; s holds the bound and the base.
func (cg *CodeGen) elementAddress(el *Element, r, s vm.Register) error {
	sym, ok := cg.syms.Lookup(el.Array)
	if !ok || sym.Kind != KindArray {
		return newError(ErrUndeclaredVariableRead, el.Array, 0)
	}
	if c, ok := el.Index.(*Const); ok {
		addr, err := cg.syms.ElementAddress(el.Array, c.N)
		if err != nil {
			return err
		}
		cg.genConst(addr, r)
		return nil
	}

	if err := cg.loadValue(el.Index, r, s); err != nil {
		return err
	}
	if sym.First != 0 {
		cg.genConst(sym.First, s)
		cg.op2(vm.OpSub, r, s)
	}
	if sym.Address != 0 {
		cg.genConst(sym.Address, s)
		cg.op2(vm.OpAdd, r, s)
	}
	return nil
}

// loadValue leaves the value of v in r. s is scratch and must differ from r.
func (cg *CodeGen) loadValue(v Value, r, s vm.Register) error {
	switch t := v.(type) {
	case *Const:
		cg.genConst(t.N, r)
		return nil
	case *Load:
		return cg.loadRef(t.Ref, r, s)
	default:
		return fmt.Errorf("internal error: unknown value %T", v)
	}
}

func (cg *CodeGen) loadRef(ref Ref, r, s vm.Register) error {
	switch t := ref.(type) {
	case *Variable:
		sym, ok := cg.syms.Lookup(t.Name)
		if !ok {
			return newError(ErrUndeclaredVariableRead, t.Name, 0)
		}
		if sym.Kind == KindArray {
			return newError(ErrMissingArrayIndex, t.Name, 0)
		}
		if !sym.Initialized {
			return newError(ErrUninitializedVariableUse, t.Name, 0)
		}
		cg.genConst(sym.Address, r)
		cg.op2(vm.OpLoad, r, r)
		return nil
	case *Undeclared:
		return cg.loadIterator(t.Name, r)
	case *Element:
		if err := cg.elementAddress(t, r, s); err != nil {
			return err
		}
		cg.op2(vm.OpLoad, r, r)
		return nil
	default:
		return fmt.Errorf("internal error: unknown reference %T", ref)
	}
}

// loadIterator copies an active iterator into r: from the cache register
// for the innermost loop, from its memory cell for enclosing loops.
func (cg *CodeGen) loadIterator(name string, r vm.Register) error {
	if cg.isInnermost(name) {
		if r != iterReg {
			cg.op(vm.OpReset, r)
			cg.op2(vm.OpAdd, r, iterReg)
		}
		return nil
	}
	if !cg.isActive(name) {
		return newError(ErrUndeclaredVariableRead, name, 0)
	}
	slot, ok := cg.syms.Iterator(name)
	if !ok {
		return fmt.Errorf("internal error: iterator %s has no slot", name)
	}
	cg.genConst(slot.Current, r)
	cg.op2(vm.OpLoad, r, r)
	return nil
}

// checkValue reports the error loadValue would report for v without
// emitting anything. Simplifications that never load an operand use it.
func (cg *CodeGen) checkValue(v Value) error {
	l, ok := v.(*Load)
	if !ok {
		return nil
	}
	switch t := l.Ref.(type) {
	case *Variable:
		sym, ok := cg.syms.Lookup(t.Name)
		switch {
		case !ok:
			return newError(ErrUndeclaredVariableRead, t.Name, 0)
		case sym.Kind == KindArray:
			return newError(ErrMissingArrayIndex, t.Name, 0)
		case !sym.Initialized:
			return newError(ErrUninitializedVariableUse, t.Name, 0)
		}
	case *Undeclared:
		if !cg.isActive(t.Name) {
			return newError(ErrUndeclaredVariableRead, t.Name, 0)
		}
	case *Element:
		if c, ok := t.Index.(*Const); ok {
			_, err := cg.syms.ElementAddress(t.Array, c.N)
			return err
		}
		return cg.checkValue(t.Index)
	}
	return nil
}
