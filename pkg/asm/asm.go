// Package asm converts between machine listings (one instruction per line)
// and vm.Program values.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chceswieta/kompilator/pkg/vm"
)

var zeroOperandOps = map[string]vm.Opcode{
	"HALT": vm.OpHalt,
}

var oneRegisterOps = map[string]vm.Opcode{
	"GET":   vm.OpGet,
	"PUT":   vm.OpPut,
	"INC":   vm.OpInc,
	"DEC":   vm.OpDec,
	"SHL":   vm.OpShl,
	"SHR":   vm.OpShr,
	"RESET": vm.OpReset,
}

var twoRegisterOps = map[string]vm.Opcode{
	"LOAD":  vm.OpLoad,
	"STORE": vm.OpStore,
	"ADD":   vm.OpAdd,
	"SUB":   vm.OpSub,
}

var offsetOnlyOps = map[string]vm.Opcode{
	"JUMP": vm.OpJump,
}

var regAndOffsetOps = map[string]vm.Opcode{
	"JZERO": vm.OpJzero,
	"JODD":  vm.OpJodd,
}

type parsedLine struct {
	lineNo   int
	mnemonic string
	operands []string
}

// Parse reads a listing. The returned source map takes an instruction index
// to its 1-based line in code.
func Parse(code string) (vm.Program, map[int]int, error) {
	lines := strings.Split(code, "\n")

	program := make(vm.Program, 0, len(lines))
	sourceMap := make(map[int]int)

	for i, raw := range lines {
		lineNo := i + 1
		p := parseLine(raw, lineNo)
		if p.mnemonic == "" {
			continue
		}

		in, err := decode(p)
		if err != nil {
			return nil, nil, err
		}
		sourceMap[len(program)] = lineNo
		program = append(program, in)
	}

	if err := checkTargets(program, sourceMap); err != nil {
		return nil, nil, err
	}
	return program, sourceMap, nil
}

func decode(p parsedLine) (vm.Instruction, error) {
	mnemonic, ops, lineNo := p.mnemonic, p.operands, p.lineNo

	if op, ok := zeroOperandOps[mnemonic]; ok {
		if len(ops) != 0 {
			return vm.Instruction{}, fmt.Errorf("%s expects 0 operands on line %d", mnemonic, lineNo)
		}
		return vm.Instruction{Op: op}, nil
	}

	if op, ok := oneRegisterOps[mnemonic]; ok {
		if len(ops) != 1 {
			return vm.Instruction{}, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Instruction{Op: op, X: x}, nil
	}

	if op, ok := twoRegisterOps[mnemonic]; ok {
		if len(ops) != 2 {
			return vm.Instruction{}, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return vm.Instruction{}, err
		}
		y, err := parseRegister(ops[1], lineNo)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Instruction{Op: op, X: x, Y: y}, nil
	}

	if op, ok := offsetOnlyOps[mnemonic]; ok {
		if len(ops) != 1 {
			return vm.Instruction{}, fmt.Errorf("%s expects 1 operand on line %d", mnemonic, lineNo)
		}
		off, err := parseOffset(ops[0], lineNo)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Instruction{Op: op, Offset: off}, nil
	}

	if op, ok := regAndOffsetOps[mnemonic]; ok {
		if len(ops) != 2 {
			return vm.Instruction{}, fmt.Errorf("%s expects 2 operands on line %d", mnemonic, lineNo)
		}
		x, err := parseRegister(ops[0], lineNo)
		if err != nil {
			return vm.Instruction{}, err
		}
		off, err := parseOffset(ops[1], lineNo)
		if err != nil {
			return vm.Instruction{}, err
		}
		return vm.Instruction{Op: op, X: x, Offset: off}, nil
	}

	return vm.Instruction{}, fmt.Errorf("unknown instruction on line %d: %s", lineNo, mnemonic)
}

// checkTargets rejects branches that leave the program.
func checkTargets(program vm.Program, sourceMap map[int]int) error {
	for i, in := range program {
		if !in.IsBranch() {
			continue
		}
		target := i + in.Offset
		if target < 0 || target >= len(program) {
			return fmt.Errorf("jump target %d out of range on line %d", target, sourceMap[i])
		}
	}
	return nil
}

func parseLine(raw string, lineNo int) parsedLine {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p
	}

	fields := strings.Fields(line)
	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p
}

func stripComments(line string) string {
	if cut := strings.IndexAny(line, "#;"); cut >= 0 {
		return line[:cut]
	}
	return line
}

func parseRegister(token string, lineNo int) (vm.Register, error) {
	r, ok := vm.ParseRegister(strings.ToLower(token))
	if !ok {
		return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	return r, nil
}

func parseOffset(token string, lineNo int) (int, error) {
	off, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("invalid jump offset '%s' on line %d", token, lineNo)
	}
	return off, nil
}
