package compiler

import (
	"fmt"

	"github.com/chceswieta/kompilator/pkg/vm"
)

// Register roles. a..e are scratch; f caches the value of the innermost
// active for-loop iterator and is written only by the loop code.
const (
	ra      = vm.RegA
	rb      = vm.RegB
	rc      = vm.RegC
	rd      = vm.RegD
	re      = vm.RegE
	iterReg = vm.RegF
)

// label is a jump destination that may not have a position yet.
type label int

// fixup is a branch at index at whose offset waits for target to be bound.
type fixup struct {
	at     int
	target label
}

// CodeGen walks a Program and emits machine instructions.
type CodeGen struct {
	syms *SymbolTable
	code vm.Program

	labels  []int // position of each label, -1 while unbound
	pending []fixup

	// active for-loop iterators, innermost last
	iterators []string
}

func newCodeGen(syms *SymbolTable) *CodeGen {
	return &CodeGen{syms: syms}
}

// Generate translates prog into a HALT-terminated program. syms must be the
// table prog was parsed against. On error no program is returned.
func Generate(prog *Program, syms *SymbolTable) (vm.Program, error) {
	cg := newCodeGen(syms)
	if err := cg.genBlock(prog.Commands); err != nil {
		return nil, err
	}
	cg.op(vm.OpHalt, 0)

	if len(cg.pending) != 0 {
		return nil, fmt.Errorf("internal error: %d unresolved jumps", len(cg.pending))
	}
	return cg.code, nil
}

func (cg *CodeGen) emit(in vm.Instruction) int {
	cg.code = append(cg.code, in)
	return len(cg.code) - 1
}

func (cg *CodeGen) op(op vm.Opcode, x vm.Register) {
	cg.emit(vm.Instruction{Op: op, X: x})
}

func (cg *CodeGen) op2(op vm.Opcode, x, y vm.Register) {
	cg.emit(vm.Instruction{Op: op, X: x, Y: y})
}

func (cg *CodeGen) repeat(op vm.Opcode, x vm.Register, n uint64) {
	for ; n > 0; n-- {
		cg.op(op, x)
	}
}

// skip emits a branch with a fixed relative offset.
func (cg *CodeGen) skip(op vm.Opcode, x vm.Register, offset int) {
	cg.emit(vm.Instruction{Op: op, X: x, Offset: offset})
}

func (cg *CodeGen) newLabel() label {
	cg.labels = append(cg.labels, -1)
	return label(len(cg.labels) - 1)
}

// here creates a label bound to the next instruction.
func (cg *CodeGen) here() label {
	l := cg.newLabel()
	cg.bind(l)
	return l
}

// branch emits a jump to l. Backward jumps are resolved at once, forward
// ones when l is bound.
func (cg *CodeGen) branch(op vm.Opcode, x vm.Register, l label) {
	at := cg.emit(vm.Instruction{Op: op, X: x})
	if pos := cg.labels[l]; pos >= 0 {
		cg.code[at].Offset = pos - at
		return
	}
	cg.pending = append(cg.pending, fixup{at: at, target: l})
}

// bind fixes l to the next instruction and patches every branch waiting for it.
func (cg *CodeGen) bind(l label) {
	pos := len(cg.code)
	cg.labels[l] = pos
	open := cg.pending[:0]
	for _, f := range cg.pending {
		if f.target == l {
			cg.code[f.at].Offset = pos - f.at
			continue
		}
		open = append(open, f)
	}
	cg.pending = open
}

func (cg *CodeGen) genBlock(cmds []Command) error {
	for _, cmd := range cmds {
		if err := cmd.accept(cg); err != nil {
			return atLine(err, cmd.Pos())
		}
	}
	return nil
}

// prepConsts stores every literal of consts that is not yet in the pool.
// Blocks that may be skipped at run time call it before their first branch,
// so a pool cell is never left unwritten on some path.
func (cg *CodeGen) prepConsts(consts []uint64) {
	for _, c := range consts {
		if _, ok := cg.syms.ConstAddress(c); ok {
			continue
		}
		cg.storeConst(c)
	}
}

// storeConst allocates a pool cell for c and writes c into it, leaving c in b.
func (cg *CodeGen) storeConst(c uint64) {
	addr := cg.syms.AddConst(c)
	cg.genConst(addr, ra)
	cg.genConst(c, rb)
	cg.op2(vm.OpStore, rb, ra)
}

func (cg *CodeGen) visitWrite(w *Write) error {
	switch v := w.Value.(type) {
	case *Const:
		if addr, ok := cg.syms.ConstAddress(v.N); ok {
			cg.genConst(addr, ra)
			cg.op2(vm.OpLoad, ra, ra)
			cg.op(vm.OpPut, ra)
			return nil
		}
		cg.storeConst(v.N)
		cg.op(vm.OpPut, rb)
		return nil
	case *Load:
		if u, ok := v.Ref.(*Undeclared); ok && cg.isInnermost(u.Name) {
			cg.op(vm.OpPut, iterReg)
			return nil
		}
	}
	if err := cg.loadValue(w.Value, ra, rb); err != nil {
		return err
	}
	cg.op(vm.OpPut, ra)
	return nil
}

func (cg *CodeGen) visitRead(r *Read) error {
	if err := cg.checkTarget(r.Target); err != nil {
		return err
	}
	if err := cg.address(r.Target, rb, rc); err != nil {
		return err
	}
	cg.op(vm.OpGet, ra)
	cg.op2(vm.OpStore, ra, rb)
	cg.markInitialized(r.Target)
	return nil
}

func (cg *CodeGen) visitAssign(a *Assign) error {
	if err := cg.checkTarget(a.Target); err != nil {
		return err
	}
	if err := cg.genExpr(a.Expr, exprRegs); err != nil {
		return err
	}
	if err := cg.address(a.Target, rb, rc); err != nil {
		return err
	}
	cg.op2(vm.OpStore, ra, rb)
	cg.markInitialized(a.Target)
	return nil
}

// checkTarget rejects writes to iterators, undeclared names and bare arrays.
func (cg *CodeGen) checkTarget(ref Ref) error {
	switch t := ref.(type) {
	case *Undeclared:
		if cg.isActive(t.Name) {
			return newError(ErrIteratorMutation, t.Name, 0)
		}
		return newError(ErrUndeclaredVariableWrite, t.Name, 0)
	case *Variable:
		if cg.syms.IsArray(t.Name) {
			return newError(ErrMissingArrayIndex, t.Name, 0)
		}
	}
	return nil
}

func (cg *CodeGen) markInitialized(ref Ref) {
	if v, ok := ref.(*Variable); ok {
		if sym, ok := cg.syms.Lookup(v.Name); ok {
			sym.Initialized = true
		}
	}
}

func (cg *CodeGen) isActive(name string) bool {
	for _, it := range cg.iterators {
		if it == name {
			return true
		}
	}
	return false
}

func (cg *CodeGen) isInnermost(name string) bool {
	return len(cg.iterators) > 0 && cg.iterators[len(cg.iterators)-1] == name
}
