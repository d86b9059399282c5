package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chceswieta/kompilator/pkg/vm"
)

const (
	stepsPerFrame = 10000
	maxLines      = 28
	maxInputLen   = 20
)

// terminal is the window's model: a running machine, the lines it printed,
// and the number being typed for the next GET.
type terminal struct {
	m      *vm.Machine
	lines  []string
	input  string
	status string
	err    error
}

func newTerminal(code vm.Program, maxSteps int) *terminal {
	t := &terminal{m: vm.New(code)}
	t.m.MaxSteps = maxSteps
	t.m.Output = t
	return t
}

// Write collects PUT output, one transcript line per "> n" line.
func (t *terminal) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		t.appendLine(line)
	}
	return len(p), nil
}

func (t *terminal) appendLine(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > maxLines {
		t.lines = t.lines[len(t.lines)-maxLines:]
	}
}

func (t *terminal) typeRune(r rune) {
	if r < '0' || r > '9' || len(t.input) >= maxInputLen {
		return
	}
	t.input += string(r)
}

func (t *terminal) backspace() {
	if t.input != "" {
		t.input = t.input[:len(t.input)-1]
	}
}

// submit hands the typed number to a waiting GET.
func (t *terminal) submit() {
	if !t.m.Waiting || t.input == "" {
		return
	}
	v, err := strconv.ParseUint(t.input, 10, 64)
	if err != nil {
		t.status = fmt.Sprintf("not a natural number: %s", t.input)
		t.input = ""
		return
	}
	t.status = ""
	t.appendLine("? " + t.input)
	t.input = ""
	t.m.PushInput(v)
}

// step runs the machine for one frame and refreshes the status line.
func (t *terminal) step() {
	if t.err != nil || t.m.Halted {
		return
	}
	if err := t.m.RunUntilBlocked(stepsPerFrame); err != nil {
		t.err = err
		t.status = "error: " + err.Error()
		return
	}
	if t.m.Halted {
		t.status = fmt.Sprintf("halted, cost %d", t.m.Cost)
	}
}

// promptLine is the line under the transcript: the pending input while
// a GET waits, the status otherwise.
func (t *terminal) promptLine() string {
	if t.m.Waiting && t.err == nil {
		return "? " + t.input + "_"
	}
	return t.status
}
