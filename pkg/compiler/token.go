package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	PID // identifier: [_a-z]+
	NUM // decimal integer literal

	// Keywords
	DECLARE
	BEGIN
	END
	IF
	THEN
	ELSE
	ENDIF
	WHILE
	DO
	ENDWHILE
	REPEAT
	UNTIL
	FOR
	FROM
	TO
	DOWNTO
	ENDFOR
	READ
	WRITE

	// Punctuation
	LPAREN    // (
	RPAREN    // )
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	ASSIGN    // :=

	// Arithmetic operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %

	// Relations
	EQ  // =
	NEQ // !=
	LT  // <
	GT  // >
	LEQ // <=
	GEQ // >=
)

var tokenNames = [...]string{
	EOF:       "EOF",
	PID:       "PID",
	NUM:       "NUM",
	DECLARE:   "DECLARE",
	BEGIN:     "BEGIN",
	END:       "END",
	IF:        "IF",
	THEN:      "THEN",
	ELSE:      "ELSE",
	ENDIF:     "ENDIF",
	WHILE:     "WHILE",
	DO:        "DO",
	ENDWHILE:  "ENDWHILE",
	REPEAT:    "REPEAT",
	UNTIL:     "UNTIL",
	FOR:       "FOR",
	FROM:      "FROM",
	TO:        "TO",
	DOWNTO:    "DOWNTO",
	ENDFOR:    "ENDFOR",
	READ:      "READ",
	WRITE:     "WRITE",
	LPAREN:    "LPAREN",
	RPAREN:    "RPAREN",
	COMMA:     "COMMA",
	COLON:     "COLON",
	SEMICOLON: "SEMICOLON",
	ASSIGN:    "ASSIGN",
	PLUS:      "PLUS",
	MINUS:     "MINUS",
	STAR:      "STAR",
	SLASH:     "SLASH",
	PERCENT:   "PERCENT",
	EQ:        "EQ",
	NEQ:       "NEQ",
	LT:        "LT",
	GT:        "GT",
	LEQ:       "LEQ",
	GEQ:       "GEQ",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Type, t.Lexeme, t.Line)
}
