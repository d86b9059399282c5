package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestPrograms(t *testing.T) {
	primes := []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}

	tests := []struct {
		file  string
		input []uint64
		want  []uint64
	}{
		{"gcd.imp", []uint64{12, 18}, []uint64{6}},
		{"gcd.imp", []uint64{17, 5}, []uint64{1}},
		{"gcd.imp", []uint64{0, 5}, []uint64{5}},
		{"factorial.imp", []uint64{0}, []uint64{1}},
		{"factorial.imp", []uint64{5}, []uint64{120}},
		{"factorial.imp", []uint64{20}, []uint64{2432902008176640000}},
		{"sieve.imp", nil, primes},
		{"binary.imp", []uint64{6}, []uint64{0, 1, 1}},
		{"binary.imp", []uint64{0}, []uint64{0}},
		{"factorize.imp", []uint64{12}, []uint64{2, 2, 3, 1}},
		{"factorize.imp", []uint64{360}, []uint64{2, 3, 3, 2, 5, 1}},
		{"factorize.imp", []uint64{97}, []uint64{97, 1}},
		{"factorize.imp", []uint64{1}, nil},
		{"table.imp", nil, []uint64{75, 60, 45, 30, 15}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s%v", tt.file, tt.input), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join("testdata", tt.file))
			if err != nil {
				t.Fatal(err)
			}
			assertOutputs(t, tt.file, runCode(t, string(src), tt.input...), tt.want)
		})
	}
}
