package asm

import (
	"strings"
	"testing"
)

// smallProgram counts register a down to zero.
const smallProgram = `
RESET a
INC a
SHL a
SHL a
SHL a
JZERO a 3
DEC a
JUMP -2
HALT
`

// largeProgram repeats a multiply loop body to stress line handling.
var largeProgram = strings.Repeat(`RESET a
JZERO c 7
JODD c 2
JUMP 2
ADD a b
SHR c
SHL b
JUMP -6
`, 200) + "HALT\n"

func BenchmarkParse_Small(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, _, err := Parse(smallProgram); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse_Large(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := Parse(largeProgram); err != nil {
			b.Fatal(err)
		}
	}
}
