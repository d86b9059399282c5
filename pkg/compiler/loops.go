package compiler

import (
	"fmt"

	"github.com/chceswieta/kompilator/pkg/vm"
)

// enterLoop spills the enclosing iterator, stores the literals of the body,
// evaluates both bounds and caches the start value in f. storeBound may
// adjust the To value in e before it goes to the bound cell; e still holds
// the bound when enterLoop returns.
func (cg *CodeGen) enterLoop(n *ForLoop, storeBound func()) (IteratorSlot, error) {
	if cg.isActive(n.Iterator) {
		return IteratorSlot{}, newError(ErrIteratorMutation, n.Iterator, 0)
	}
	if err := cg.spillIterator(); err != nil {
		return IteratorSlot{}, err
	}
	cg.prepConsts(n.Consts)
	slot := cg.syms.AddIterator(n.Iterator)

	// To first: From may replace f, which To can still read.
	if err := cg.loadValue(n.To, re, rb); err != nil {
		return IteratorSlot{}, err
	}
	storeBound()
	cg.genConst(slot.Bound, rd)
	cg.op2(vm.OpStore, re, rd)

	if err := cg.loadValue(n.From, iterReg, rb); err != nil {
		return IteratorSlot{}, err
	}
	cg.genConst(slot.Current, rd)
	cg.op2(vm.OpStore, iterReg, rd)

	cg.iterators = append(cg.iterators, n.Iterator)
	return slot, nil
}

// leaveLoop pops the iterator and reloads the enclosing one into f.
func (cg *CodeGen) leaveLoop() error {
	cg.iterators = cg.iterators[:len(cg.iterators)-1]
	if len(cg.iterators) == 0 {
		return nil
	}
	slot, err := cg.innermostSlot()
	if err != nil {
		return err
	}
	cg.genConst(slot.Current, iterReg)
	cg.op2(vm.OpLoad, iterReg, iterReg)
	return nil
}

// spillIterator writes f back to the current-value cell of the innermost
// iterator, if there is one. Uses e.
func (cg *CodeGen) spillIterator() error {
	if len(cg.iterators) == 0 {
		return nil
	}
	slot, err := cg.innermostSlot()
	if err != nil {
		return err
	}
	cg.genConst(slot.Current, re)
	cg.op2(vm.OpStore, iterReg, re)
	return nil
}

func (cg *CodeGen) innermostSlot() (IteratorSlot, error) {
	name := cg.iterators[len(cg.iterators)-1]
	slot, ok := cg.syms.Iterator(name)
	if !ok {
		return IteratorSlot{}, fmt.Errorf("internal error: iterator %s has no slot", name)
	}
	return slot, nil
}

// reloadBound puts the bound of slot back in e; the body may have used e.
func (cg *CodeGen) reloadBound(slot IteratorSlot) {
	cg.genConst(slot.Bound, re)
	cg.op2(vm.OpLoad, re, re)
}

// visitForUp counts f up from From to To inclusive. The bound cell holds
// To+1 and the loop runs while bound - f is not 0.
func (cg *CodeGen) visitForUp(n *ForUp) error {
	if cg.isActive(n.Iterator) {
		return newError(ErrIteratorMutation, n.Iterator, 0)
	}
	if from, ok := constOf(n.From); ok {
		if to, ok := constOf(n.To); ok && from > to {
			return nil
		}
	}

	slot, err := cg.enterLoop(&n.ForLoop, func() { cg.op(vm.OpInc, re) })
	if err != nil {
		return err
	}

	end := cg.newLabel()
	cond := cg.here()
	cg.op2(vm.OpSub, re, iterReg)
	cg.branch(vm.OpJzero, re, end)

	if err := cg.genBlock(n.Body); err != nil {
		return err
	}
	cg.op(vm.OpInc, iterReg)
	cg.reloadBound(slot)
	cg.branch(vm.OpJump, 0, cond)
	cg.bind(end)

	return cg.leaveLoop()
}

// visitForDown counts f down from From to To inclusive. The exit test comes
// before DEC so that a bound of 0 never underflows f.
func (cg *CodeGen) visitForDown(n *ForDown) error {
	if cg.isActive(n.Iterator) {
		return newError(ErrIteratorMutation, n.Iterator, 0)
	}
	if from, ok := constOf(n.From); ok {
		if to, ok := constOf(n.To); ok && from < to {
			return nil
		}
	}

	slot, err := cg.enterLoop(&n.ForLoop, func() {})
	if err != nil {
		return err
	}

	end := cg.newLabel()
	body := cg.newLabel()
	cond := cg.here()
	// with a bound of 0 every f is in range; otherwise leave when f+1 <= bound
	cg.branch(vm.OpJzero, re, body)
	cg.op(vm.OpReset, rd)
	cg.op2(vm.OpAdd, rd, iterReg)
	cg.op(vm.OpInc, rd)
	cg.op2(vm.OpSub, rd, re)
	cg.branch(vm.OpJzero, rd, end)

	cg.bind(body)
	if err := cg.genBlock(n.Body); err != nil {
		return err
	}
	cg.branch(vm.OpJzero, iterReg, end)
	cg.op(vm.OpDec, iterReg)
	cg.reloadBound(slot)
	cg.branch(vm.OpJump, 0, cond)
	cg.bind(end)

	return cg.leaveLoop()
}
