package compiler

import (
	"fmt"
	"strconv"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"DECLARE":  DECLARE,
	"BEGIN":    BEGIN,
	"END":      END,
	"IF":       IF,
	"THEN":     THEN,
	"ELSE":     ELSE,
	"ENDIF":    ENDIF,
	"WHILE":    WHILE,
	"DO":       DO,
	"ENDWHILE": ENDWHILE,
	"REPEAT":   REPEAT,
	"UNTIL":    UNTIL,
	"FOR":      FOR,
	"FROM":     FROM,
	"TO":       TO,
	"DOWNTO":   DOWNTO,
	"ENDFOR":   ENDFOR,
	"READ":     READ,
	"WRITE":    WRITE,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipComment discards everything up to and including the closing ']'.
// The opening '[' must already have been consumed.
func (l *Lexer) skipComment() error {
	startLine := l.line
	for l.pos < len(l.src) {
		if l.advance() == ']' {
			return nil
		}
	}
	return fmt.Errorf("unterminated comment (opened on line %d)", startLine)
}

func isLower(r rune) bool { return (r >= 'a' && r <= 'z') || r == '_' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// scanIdent collects a lower-case identifier.
func (l *Lexer) scanIdent() Token {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isLower(l.peek()) {
		l.advance()
	}
	return Token{Type: PID, Lexeme: string(l.src[start:l.pos]), Line: line}
}

// scanKeyword collects an upper-case word, which must be a keyword.
func (l *Lexer) scanKeyword() (Token, error) {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isUpper(l.peek()) {
		l.advance()
	}
	word := string(l.src[start:l.pos])
	kw, ok := keywords[word]
	if !ok {
		return Token{}, fmt.Errorf("unknown keyword %q on line %d", word, line)
	}
	return Token{Type: kw, Lexeme: word, Line: line}, nil
}

// scanNum collects a decimal literal that must fit in 64 bits.
func (l *Lexer) scanNum() (Token, error) {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	if _, err := strconv.ParseUint(lexeme, 10, 64); err != nil {
		return Token{}, fmt.Errorf("number %s out of range on line %d", lexeme, line)
	}
	return Token{Type: NUM, Lexeme: lexeme, Line: line}, nil
}

// nextToken skips whitespace/comments and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Lexeme: "", Line: l.line}, nil
		}
		if l.peek() == '[' {
			l.advance()
			if err := l.skipComment(); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	ch := l.peek()
	line := l.line

	switch {
	case isLower(ch):
		return l.scanIdent(), nil
	case isUpper(ch):
		return l.scanKeyword()
	case isDigit(ch):
		return l.scanNum()
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '(':
		return Token{LPAREN, "(", line}, nil
	case ')':
		return Token{RPAREN, ")", line}, nil
	case ',':
		return Token{COMMA, ",", line}, nil
	case ';':
		return Token{SEMICOLON, ";", line}, nil
	case ':':
		if l.peek() == '=' {
			l.advance()
			return Token{ASSIGN, ":=", line}, nil
		}
		return Token{COLON, ":", line}, nil
	case '+':
		return Token{PLUS, "+", line}, nil
	case '-':
		return Token{MINUS, "-", line}, nil
	case '*':
		return Token{STAR, "*", line}, nil
	case '/':
		return Token{SLASH, "/", line}, nil
	case '%':
		return Token{PERCENT, "%", line}, nil
	case '=':
		return Token{EQ, "=", line}, nil
	case '!':
		if l.peek() == '=' {
			l.advance()
			return Token{NEQ, "!=", line}, nil
		}
	case '<':
		if l.peek() == '=' {
			l.advance()
			return Token{LEQ, "<=", line}, nil
		}
		return Token{LT, "<", line}, nil
	case '>':
		if l.peek() == '=' {
			l.advance()
			return Token{GEQ, ">=", line}, nil
		}
		return Token{GT, ">", line}, nil
	}
	return Token{}, fmt.Errorf("unexpected character %q on line %d", ch, line)
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a non-nil error on the first illegal character, unknown keyword,
// oversized number or unterminated comment.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
