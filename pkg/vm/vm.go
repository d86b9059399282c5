// Package vm emulates the accumulator machine the imp compiler targets:
// eight registers and a sparse memory of non-negative integers, saturating
// subtraction, and relative jumps.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Opcode identifies a machine instruction.
type Opcode uint8

const (
	OpGet Opcode = iota
	OpPut
	OpLoad
	OpStore
	OpAdd
	OpSub
	OpInc
	OpDec
	OpShl
	OpShr
	OpReset
	OpJump
	OpJzero
	OpJodd
	OpHalt
)

var opcodeNames = [...]string{
	OpGet:   "GET",
	OpPut:   "PUT",
	OpLoad:  "LOAD",
	OpStore: "STORE",
	OpAdd:   "ADD",
	OpSub:   "SUB",
	OpInc:   "INC",
	OpDec:   "DEC",
	OpShl:   "SHL",
	OpShr:   "SHR",
	OpReset: "RESET",
	OpJump:  "JUMP",
	OpJzero: "JZERO",
	OpJodd:  "JODD",
	OpHalt:  "HALT",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// LookupOpcode returns the opcode spelled by mnemonic (upper case).
func LookupOpcode(mnemonic string) (Opcode, bool) {
	for op, name := range opcodeNames {
		if name == mnemonic {
			return Opcode(op), true
		}
	}
	return 0, false
}

// Register names one of the machine's eight registers, a through h.
type Register uint8

const (
	RegA Register = iota
	RegB
	RegC
	RegD
	RegE
	RegF
	RegG
	RegH
)

// NumRegisters is the size of the register file.
const NumRegisters = 8

func (r Register) String() string {
	if r < NumRegisters {
		return string(rune('a' + r))
	}
	return fmt.Sprintf("Register(%d)", int(r))
}

// ParseRegister maps a register name ("a".."h") to its Register.
func ParseRegister(name string) (Register, bool) {
	if len(name) != 1 || name[0] < 'a' || name[0] >= 'a'+NumRegisters {
		return 0, false
	}
	return Register(name[0] - 'a'), true
}

// Instruction is one decoded machine instruction. X is the first register
// operand, Y the second (LOAD/STORE/ADD/SUB). Offset is the relative
// displacement of JUMP, JZERO and JODD.
type Instruction struct {
	Op     Opcode
	X, Y   Register
	Offset int
}

func (in Instruction) String() string {
	switch in.Op {
	case OpHalt:
		return "HALT"
	case OpJump:
		return fmt.Sprintf("JUMP %d", in.Offset)
	case OpJzero, OpJodd:
		return fmt.Sprintf("%s %s %d", in.Op, in.X, in.Offset)
	case OpLoad, OpStore, OpAdd, OpSub:
		return fmt.Sprintf("%s %s %s", in.Op, in.X, in.Y)
	default:
		return fmt.Sprintf("%s %s", in.Op, in.X)
	}
}

// IsBranch reports whether the instruction carries a jump offset.
func (in Instruction) IsBranch() bool {
	return in.Op == OpJump || in.Op == OpJzero || in.Op == OpJodd
}

// Program is a linear instruction list.
type Program []Instruction

// String renders the program one instruction per line.
func (p Program) String() string {
	var sb strings.Builder
	for _, in := range p {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// cost is the execution price of each opcode.
var cost = [...]uint64{
	OpGet:   100,
	OpPut:   100,
	OpLoad:  20,
	OpStore: 20,
	OpAdd:   5,
	OpSub:   5,
	OpInc:   1,
	OpDec:   1,
	OpShl:   1,
	OpShr:   1,
	OpReset: 1,
	OpJump:  1,
	OpJzero: 1,
	OpJodd:  1,
	OpHalt:  0,
}

var (
	ErrJumpOutOfRange = errors.New("jump out of program")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrNoInput        = errors.New("no input available")
)

// InputFunc supplies the next GET value when the input queue is empty.
type InputFunc func() (uint64, error)

// Machine is the emulator state.
type Machine struct {
	Regs   [NumRegisters]uint64
	Memory map[uint64]uint64
	PC     int

	Program Program

	Halted bool
	// Waiting is set when GET found no input; the instruction is retried on
	// the next Step after PushInput.
	Waiting bool

	// Input is consulted when the queue fed by PushInput is empty.
	Input InputFunc
	queue []uint64

	// Output receives "> value" lines for PUT. If nil, os.Stdout is used.
	Output  io.Writer
	Outputs []uint64

	Steps    int
	Cost     uint64
	MaxSteps int // 0 means unlimited
}

// New creates a machine loaded with p.
func New(p Program) *Machine {
	return &Machine{
		Program: p,
		Memory:  make(map[uint64]uint64),
	}
}

func (m *Machine) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

// PushInput queues values for GET and clears the waiting state.
func (m *Machine) PushInput(vals ...uint64) {
	m.queue = append(m.queue, vals...)
	if len(vals) > 0 {
		m.Waiting = false
	}
}

func (m *Machine) nextInput() (uint64, bool, error) {
	if len(m.queue) > 0 {
		v := m.queue[0]
		m.queue = m.queue[1:]
		return v, true, nil
	}
	if m.Input == nil {
		return 0, false, nil
	}
	v, err := m.Input()
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (m *Machine) jump(offset int) error {
	target := m.PC + offset
	if target < 0 || target >= len(m.Program) {
		return fmt.Errorf("%w: pc %d offset %d", ErrJumpOutOfRange, m.PC, offset)
	}
	m.PC = target
	return nil
}

// Step executes one instruction.
func (m *Machine) Step() error {
	if m.Halted {
		return nil
	}
	if m.PC < 0 || m.PC >= len(m.Program) {
		return fmt.Errorf("%w: pc %d", ErrJumpOutOfRange, m.PC)
	}
	if m.MaxSteps > 0 && m.Steps >= m.MaxSteps {
		return fmt.Errorf("%w (%d)", ErrStepLimit, m.MaxSteps)
	}

	in := m.Program[m.PC]
	x := &m.Regs[in.X]
	y := m.Regs[in.Y]

	switch in.Op {
	case OpGet:
		v, ok, err := m.nextInput()
		if err != nil {
			return err
		}
		if !ok {
			m.Waiting = true
			return nil
		}
		m.Waiting = false
		*x = v
	case OpPut:
		m.Outputs = append(m.Outputs, *x)
		fmt.Fprintf(m.outputSink(), "> %d\n", *x)
	case OpLoad:
		*x = m.Memory[y]
	case OpStore:
		m.Memory[y] = *x
	case OpAdd:
		*x += y
	case OpSub:
		if *x > y {
			*x -= y
		} else {
			*x = 0
		}
	case OpInc:
		*x++
	case OpDec:
		if *x > 0 {
			*x--
		}
	case OpShl:
		*x <<= 1
	case OpShr:
		*x >>= 1
	case OpReset:
		*x = 0
	case OpJump:
		m.account(in.Op)
		return m.jump(in.Offset)
	case OpJzero:
		m.account(in.Op)
		if *x == 0 {
			return m.jump(in.Offset)
		}
	case OpJodd:
		m.account(in.Op)
		if *x%2 == 1 {
			return m.jump(in.Offset)
		}
	case OpHalt:
		m.account(in.Op)
		m.Halted = true
		return nil
	default:
		return fmt.Errorf("unknown opcode %v at pc %d", in.Op, m.PC)
	}

	if !in.IsBranch() {
		m.account(in.Op)
	}
	m.PC++
	return nil
}

func (m *Machine) account(op Opcode) {
	m.Steps++
	m.Cost += cost[op]
}

// Run executes until HALT or an error. A GET with no input available is
// reported as ErrNoInput.
func (m *Machine) Run() error {
	for !m.Halted {
		if err := m.Step(); err != nil {
			return err
		}
		if m.Waiting {
			return fmt.Errorf("%w at pc %d", ErrNoInput, m.PC)
		}
	}
	return nil
}

// RunUntilBlocked executes until HALT, an error, or a GET that has to wait.
func (m *Machine) RunUntilBlocked(budget int) error {
	for i := 0; i < budget; i++ {
		if m.Halted || m.Waiting {
			return nil
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
