package compiler

import (
	"fmt"

	"github.com/chceswieta/kompilator/pkg/vm"
)

// Result is everything one compilation produced.
type Result struct {
	Tokens  []Token
	Program *Program
	Symbols *SymbolTable
	Code    vm.Program
}

// CompileDetailed runs the whole pipeline and keeps every intermediate
// stage. On error the stages that completed are still returned.
func CompileDetailed(src string) (*Result, error) {
	res := &Result{Symbols: NewSymbolTable()}

	tokens, err := Lex(src)
	if err != nil {
		return res, fmt.Errorf("lex error: %w", err)
	}
	res.Tokens = tokens

	prog, err := Parse(tokens, src, res.Symbols)
	if err != nil {
		return res, fmt.Errorf("parse error: %w", err)
	}
	res.Program = prog

	code, err := Generate(prog, res.Symbols)
	if err != nil {
		return res, fmt.Errorf("codegen error: %w", err)
	}
	res.Code = code
	return res, nil
}

// Compile translates imp source into a machine program.
func Compile(src string) (vm.Program, error) {
	res, err := CompileDetailed(src)
	if err != nil {
		return nil, err
	}
	return res.Code, nil
}
