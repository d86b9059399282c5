package compiler

import "github.com/chceswieta/kompilator/pkg/vm"

func (cg *CodeGen) visitIf(n *If) error {
	result, known, err := cg.simplify(n.Cond)
	if err != nil {
		return err
	}
	if known {
		if result {
			return cg.genBlock(n.Then)
		}
		return nil
	}

	cg.prepConsts(n.Consts)
	end := cg.newLabel()
	if err := cg.genCond(n.Cond, end); err != nil {
		return err
	}
	if err := cg.genBlock(n.Then); err != nil {
		return err
	}
	cg.bind(end)
	return nil
}

func (cg *CodeGen) visitIfElse(n *IfElse) error {
	result, known, err := cg.simplify(n.Cond)
	if err != nil {
		return err
	}
	if known {
		if result {
			return cg.genBlock(n.Then)
		}
		return cg.genBlock(n.Else)
	}

	cg.prepConsts(n.Consts)
	elseLabel := cg.newLabel()
	end := cg.newLabel()
	if err := cg.genCond(n.Cond, elseLabel); err != nil {
		return err
	}
	if err := cg.genBlock(n.Then); err != nil {
		return err
	}
	cg.branch(vm.OpJump, 0, end)
	cg.bind(elseLabel)
	if err := cg.genBlock(n.Else); err != nil {
		return err
	}
	cg.bind(end)
	return nil
}

func (cg *CodeGen) visitWhile(n *While) error {
	result, known, err := cg.simplify(n.Cond)
	if err != nil {
		return err
	}
	if known && !result {
		return nil
	}

	cg.prepConsts(n.Consts)
	top := cg.here()
	end := cg.newLabel()
	if !known {
		if err := cg.genCond(n.Cond, end); err != nil {
			return err
		}
	}
	if err := cg.genBlock(n.Body); err != nil {
		return err
	}
	cg.branch(vm.OpJump, 0, top)
	cg.bind(end)
	return nil
}

// visitUntil runs the body, then jumps back to it while the condition is
// false.
func (cg *CodeGen) visitUntil(n *Until) error {
	top := cg.here()
	if err := cg.genBlock(n.Body); err != nil {
		return err
	}

	result, known, err := cg.simplify(n.Cond)
	if err != nil {
		return err
	}
	if known {
		if !result {
			cg.branch(vm.OpJump, 0, top)
		}
		return nil
	}
	return cg.genCond(n.Cond, top)
}
