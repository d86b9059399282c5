package asm

import (
	"reflect"
	"strings"
	"testing"

	"github.com/chceswieta/kompilator/pkg/vm"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want parsedLine
	}{
		{"RESET a", parsedLine{lineNo: 1, mnemonic: "RESET", operands: []string{"a"}}},
		{"  load b c  # comment", parsedLine{lineNo: 1, mnemonic: "LOAD", operands: []string{"b", "c"}}},
		{"JZERO a -4 ; back", parsedLine{lineNo: 1, mnemonic: "JZERO", operands: []string{"a", "-4"}}},
		{"HALT", parsedLine{lineNo: 1, mnemonic: "HALT"}},
		{"   ", parsedLine{lineNo: 1}},
		{"# only a comment", parsedLine{lineNo: 1}},
	}
	for _, tc := range tests {
		got := parseLine(tc.line, 1)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseLine(%q) = %+v; want %+v", tc.line, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	code := `
RESET a
INC a
SHL a
# compute
JZERO b 3
ADD a a
JUMP -2
PUT a
HALT
`
	program, sourceMap, err := Parse(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := vm.Program{
		{Op: vm.OpReset, X: vm.RegA},
		{Op: vm.OpInc, X: vm.RegA},
		{Op: vm.OpShl, X: vm.RegA},
		{Op: vm.OpJzero, X: vm.RegB, Offset: 3},
		{Op: vm.OpAdd, X: vm.RegA, Y: vm.RegA},
		{Op: vm.OpJump, Offset: -2},
		{Op: vm.OpPut, X: vm.RegA},
		{Op: vm.OpHalt},
	}
	if !reflect.DeepEqual(program, want) {
		t.Errorf("program mismatch:\n got %v\nwant %v", program, want)
	}

	// line 1 is blank, line 5 is a comment
	wantMap := map[int]int{0: 2, 1: 3, 2: 4, 3: 6, 4: 7, 5: 8, 6: 9, 7: 10}
	if !reflect.DeepEqual(sourceMap, wantMap) {
		t.Errorf("sourceMap = %v; want %v", sourceMap, wantMap)
	}
}

func TestParseRoundTrip(t *testing.T) {
	program := vm.Program{
		{Op: vm.OpGet, X: vm.RegA},
		{Op: vm.OpStore, X: vm.RegA, Y: vm.RegB},
		{Op: vm.OpSub, X: vm.RegE, Y: vm.RegF},
		{Op: vm.OpJodd, X: vm.RegC, Offset: 2},
		{Op: vm.OpDec, X: vm.RegH},
		{Op: vm.OpJzero, X: vm.RegE, Offset: -4},
		{Op: vm.OpHalt},
	}
	got, _, err := Parse(program.String())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(got, program) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got, program)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		code    string
		wantErr string
	}{
		{"MUL a b\nHALT", "unknown instruction on line 1: MUL"},
		{"HALT a", "HALT expects 0 operands on line 1"},
		{"INC\nHALT", "INC expects 1 operand on line 1"},
		{"ADD a\nHALT", "ADD expects 2 operands on line 1"},
		{"INC z\nHALT", "invalid register 'z' on line 1"},
		{"JUMP x\nHALT", "invalid jump offset 'x' on line 1"},
		{"HALT\nJUMP 5", "out of range on line 2"},
		{"JZERO a -1\nHALT", "out of range on line 1"},
	}
	for _, tc := range tests {
		_, _, err := Parse(tc.code)
		if err == nil {
			t.Errorf("Parse(%q): expected error containing %q", tc.code, tc.wantErr)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("Parse(%q): error %q does not contain %q", tc.code, err, tc.wantErr)
		}
	}
}
