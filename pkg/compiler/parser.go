package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
// Declarations go straight into the symbol table so that identifiers are
// resolved while parsing.
//
// Grammar:
//
//	program      = ["DECLARE" declarations] "BEGIN" commands "END"
//	declarations = decl ("," decl)*
//	decl         = PID | PID "(" NUM ":" NUM ")"
//	commands     = command+
//	command      = identifier ":=" expression ";"
//	             | "IF" condition "THEN" commands ["ELSE" commands] "ENDIF"
//	             | "WHILE" condition "DO" commands "ENDWHILE"
//	             | "REPEAT" commands "UNTIL" condition ";"
//	             | "FOR" PID "FROM" value ("TO" | "DOWNTO") value "DO" commands "ENDFOR"
//	             | "READ" identifier ";"
//	             | "WRITE" value ";"
//	expression   = value [("+" | "-" | "*" | "/" | "%") value]
//	condition    = value ("=" | "!=" | "<" | ">" | "<=" | ">=") value
//	value        = NUM | identifier
//	identifier   = PID | PID "(" PID ")" | PID "(" NUM ")"
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
	syms        *SymbolTable

	// one set per open block; a written literal joins all of them
	blockConsts []map[uint64]struct{}
}

func NewParser(tokens []Token, rawSource string, syms *SymbolTable) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n"), syms: syms}
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Line - 1 // Lines are 1-based

	snippet := "<source unavailable>"
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return fmt.Errorf("line %d: %s\n  |> %s", tok.Line, msg, snippet)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

func (p *Parser) number(tok Token) (uint64, error) {
	n, err := strconv.ParseUint(tok.Lexeme, 10, 64)
	if err != nil {
		return 0, p.fmtError(tok, "bad number %q", tok.Lexeme)
	}
	return n, nil
}

func (p *Parser) enterBlock() {
	p.blockConsts = append(p.blockConsts, make(map[uint64]struct{}))
}

// leaveBlock closes the innermost block and returns its literals sorted.
func (p *Parser) leaveBlock() []uint64 {
	top := p.blockConsts[len(p.blockConsts)-1]
	p.blockConsts = p.blockConsts[:len(p.blockConsts)-1]
	out := make([]uint64, 0, len(top))
	for c := range top {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *Parser) noteWritten(c uint64) {
	for _, set := range p.blockConsts {
		set[c] = struct{}{}
	}
}

// Parse builds the program from tokens, declaring every DECLARE entry in syms.
func Parse(tokens []Token, rawSource string, syms *SymbolTable) (*Program, error) {
	return NewParser(tokens, rawSource, syms).parseProgram()
}

func (p *Parser) parseProgram() (*Program, error) {
	prog := &Program{}
	if p.peek().Type == DECLARE {
		p.advance()
		decls, err := p.parseDeclarations()
		if err != nil {
			return nil, err
		}
		prog.Declarations = decls
	}
	if _, err := p.expect(BEGIN); err != nil {
		return nil, err
	}
	cmds, err := p.parseCommands(END)
	if err != nil {
		return nil, err
	}
	prog.Commands = cmds
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, p.fmtError(tok, "unexpected %s (%q) after END", tok.Type, tok.Lexeme)
	}
	return prog, nil
}

func (p *Parser) parseDeclarations() ([]Declaration, error) {
	var decls []Declaration
	for {
		nameTok, err := p.expect(PID)
		if err != nil {
			return nil, err
		}
		d := Declaration{Name: nameTok.Lexeme, Line: nameTok.Line}

		if p.peek().Type == LPAREN {
			p.advance()
			firstTok, err := p.expect(NUM)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(COLON); err != nil {
				return nil, err
			}
			lastTok, err := p.expect(NUM)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RPAREN); err != nil {
				return nil, err
			}
			if d.First, err = p.number(firstTok); err != nil {
				return nil, err
			}
			if d.Last, err = p.number(lastTok); err != nil {
				return nil, err
			}
			d.IsArray = true
			err = p.syms.AddArray(d.Name, d.First, d.Last)
			if err != nil {
				return nil, atLine(err, d.Line)
			}
		} else if err := p.syms.AddVariable(d.Name); err != nil {
			return nil, atLine(err, d.Line)
		}
		decls = append(decls, d)

		if p.peek().Type != COMMA {
			return decls, nil
		}
		p.advance()
	}
}

// atLine stamps a line on a *CompileError that does not have one yet.
func atLine(err error, line int) error {
	var ce *CompileError
	if errors.As(err, &ce) && ce.Line == 0 {
		ce.Line = line
	}
	return err
}

// parseCommands reads commands until one of the terminators is next.
// At least one command is required.
func (p *Parser) parseCommands(terminators ...TokenType) ([]Command, error) {
	var cmds []Command
	for {
		tok := p.peek()
		for _, t := range terminators {
			if tok.Type == t {
				if len(cmds) == 0 {
					return nil, p.fmtError(tok, "expected a command, got %s", tok.Type)
				}
				return cmds, nil
			}
		}
		if tok.Type == EOF {
			return nil, p.fmtError(tok, "unexpected end of input")
		}
		cmd, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
}

func (p *Parser) parseCommand() (Command, error) {
	tok := p.peek()
	switch tok.Type {
	case PID:
		return p.parseAssign()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case REPEAT:
		return p.parseRepeat()
	case FOR:
		return p.parseFor()
	case READ:
		p.advance()
		target, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &Read{Target: target, Line: tok.Line}, nil
	case WRITE:
		p.advance()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		if c, ok := v.(*Const); ok {
			p.noteWritten(c.N)
		}
		return &Write{Value: v, Line: tok.Line}, nil
	default:
		return nil, p.fmtError(tok, "unexpected %s (%q)", tok.Type, tok.Lexeme)
	}
}

func (p *Parser) parseAssign() (Command, error) {
	line := p.peek().Line
	target, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Assign{Target: target, Expr: expr, Line: line}, nil
}

func (p *Parser) parseIf() (Command, error) {
	line := p.advance().Line // IF
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN); err != nil {
		return nil, err
	}

	p.enterBlock()
	then, err := p.parseCommands(ELSE, ENDIF)
	if err != nil {
		return nil, err
	}

	if p.peek().Type == ELSE {
		p.advance()
		els, err := p.parseCommands(ENDIF)
		if err != nil {
			return nil, err
		}
		p.advance() // ENDIF
		return &IfElse{Cond: cond, Then: then, Else: els, Consts: p.leaveBlock(), Line: line}, nil
	}
	p.advance() // ENDIF
	return &If{Cond: cond, Then: then, Consts: p.leaveBlock(), Line: line}, nil
}

func (p *Parser) parseWhile() (Command, error) {
	line := p.advance().Line // WHILE
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(DO); err != nil {
		return nil, err
	}
	p.enterBlock()
	body, err := p.parseCommands(ENDWHILE)
	if err != nil {
		return nil, err
	}
	p.advance() // ENDWHILE
	return &While{Cond: cond, Body: body, Consts: p.leaveBlock(), Line: line}, nil
}

func (p *Parser) parseRepeat() (Command, error) {
	line := p.advance().Line // REPEAT
	body, err := p.parseCommands(UNTIL)
	if err != nil {
		return nil, err
	}
	p.advance() // UNTIL
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Until{Cond: cond, Body: body, Line: line}, nil
}

func (p *Parser) parseFor() (Command, error) {
	line := p.advance().Line // FOR
	nameTok, err := p.expect(PID)
	if err != nil {
		return nil, err
	}
	if _, ok := p.syms.Lookup(nameTok.Lexeme); ok {
		return nil, p.fmtError(nameTok, "loop iterator %s shadows a declared name", nameTok.Lexeme)
	}
	if _, err := p.expect(FROM); err != nil {
		return nil, err
	}
	from, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	dirTok := p.advance()
	if dirTok.Type != TO && dirTok.Type != DOWNTO {
		return nil, p.fmtError(dirTok, "expected TO or DOWNTO, got %s (%q)", dirTok.Type, dirTok.Lexeme)
	}
	to, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(DO); err != nil {
		return nil, err
	}

	p.enterBlock()
	body, err := p.parseCommands(ENDFOR)
	if err != nil {
		return nil, err
	}
	p.advance() // ENDFOR

	loop := ForLoop{Iterator: nameTok.Lexeme, From: from, To: to, Body: body, Consts: p.leaveBlock(), Line: line}
	if dirTok.Type == DOWNTO {
		return &ForDown{loop}, nil
	}
	return &ForUp{loop}, nil
}

var arithOps = map[TokenType]ArithOp{
	PLUS:    OpAdd,
	MINUS:   OpSub,
	STAR:    OpMul,
	SLASH:   OpDiv,
	PERCENT: OpMod,
}

func (p *Parser) parseExpression() (Expression, error) {
	left, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	op, ok := arithOps[p.peek().Type]
	if !ok {
		return &ValueExpr{Value: left}, nil
	}
	p.advance()
	right, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{Op: op, Left: left, Right: right}, nil
}

var relations = map[TokenType]Relation{
	EQ:  RelEq,
	NEQ: RelNe,
	LT:  RelLt,
	GT:  RelGt,
	LEQ: RelLe,
	GEQ: RelGe,
}

func (p *Parser) parseCondition() (*Condition, error) {
	left, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	tok := p.advance()
	rel, ok := relations[tok.Type]
	if !ok {
		return nil, p.fmtError(tok, "expected a comparison, got %s (%q)", tok.Type, tok.Lexeme)
	}
	right, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &Condition{Rel: rel, Left: left, Right: right}, nil
}

func (p *Parser) parseValue() (Value, error) {
	tok := p.peek()
	switch tok.Type {
	case NUM:
		p.advance()
		n, err := p.number(tok)
		if err != nil {
			return nil, err
		}
		return &Const{N: n}, nil
	case PID:
		ref, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &Load{Ref: ref}, nil
	default:
		return nil, p.fmtError(tok, "expected a value, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseIdentifier resolves pid, pid(pid) or pid(num) against the symbol table.
func (p *Parser) parseIdentifier() (Ref, error) {
	nameTok, err := p.expect(PID)
	if err != nil {
		return nil, err
	}
	name := nameTok.Lexeme

	if p.peek().Type != LPAREN {
		if _, ok := p.syms.Lookup(name); ok {
			return &Variable{Name: name}, nil
		}
		return &Undeclared{Name: name}, nil
	}

	p.advance() // (
	if !p.syms.IsArray(name) {
		return nil, p.fmtError(nameTok, "undeclared array %s", name)
	}
	idxTok := p.advance()
	var index Value
	switch idxTok.Type {
	case NUM:
		n, err := p.number(idxTok)
		if err != nil {
			return nil, err
		}
		index = &Const{N: n}
	case PID:
		if _, ok := p.syms.Lookup(idxTok.Lexeme); ok {
			index = &Load{Ref: &Variable{Name: idxTok.Lexeme}}
		} else {
			index = &Load{Ref: &Undeclared{Name: idxTok.Lexeme}}
		}
	default:
		return nil, p.fmtError(idxTok, "expected an index, got %s (%q)", idxTok.Type, idxTok.Lexeme)
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return &Element{Array: name, Index: index}, nil
}
