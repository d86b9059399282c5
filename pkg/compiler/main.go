// Package compiler provides the imp lexer, parser, symbol table and code
// generator that targets the accumulator machine of package vm.
//
// Pipeline: imp source → Lex → Parse → Generate → vm.Program
package compiler
