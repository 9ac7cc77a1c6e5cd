package compiler

import (
	"strconv"

	"github.com/mna/tilleul/lang/object"
	tscanner "github.com/mna/tilleul/lang/scanner"
	"github.com/mna/tilleul/lang/token"
)

// precedence mirrors spec.md's fixed table, from loosest to tightest
// binding.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix, infix parseFn
	prec          precedence
}

// rules is indexed by token.Token; entries left zero have neither a prefix
// nor an infix position in an expression.
var rules = [...]parseRule{
	token.LPAREN:  {prefix: grouping, infix: call, prec: precCall},
	token.MINUS:   {prefix: unary, infix: binary, prec: precTerm},
	token.PLUS:    {infix: binary, prec: precTerm},
	token.SLASH:   {infix: binary, prec: precFactor},
	token.STAR:    {infix: binary, prec: precFactor},
	token.BANG:    {prefix: unary},
	token.BANG_EQ: {infix: binary, prec: precEquality},
	token.EQ_EQ:   {infix: binary, prec: precEquality},
	token.GT:      {infix: binary, prec: precComparison},
	token.GT_EQ:   {infix: binary, prec: precComparison},
	token.LT:      {infix: binary, prec: precComparison},
	token.LT_EQ:   {infix: binary, prec: precComparison},
	token.IDENT:   {prefix: variable},
	token.STRING:  {prefix: strLiteral},
	token.NUMBER:  {prefix: number},
	token.AND:     {infix: and_, prec: precAnd},
	token.FALSE:   {prefix: literal},
	token.NIL:     {prefix: literal},
	token.OR:      {infix: or_, prec: precOr},
	token.TRUE:    {prefix: literal},
}

func ruleFor(tok token.Token) parseRule {
	if int(tok) < len(rules) {
		return rules[tok]
	}
	return parseRule{}
}

func (p *parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := ruleFor(p.previous.Type).prefix
	if prefix == nil {
		p.error("expect expression")
		return
	}

	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= ruleFor(p.current.Type).prec {
		p.advance()
		infix := ruleFor(p.previous.Type).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("invalid assignment target")
	}
}

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

func number(p *parser, _ bool) {
	v, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.error("invalid number literal")
		return
	}
	p.emitConstant(object.Number(v))
}

// strLiteral strips the surrounding quotes the scanner left in the lexeme
// and interns the remaining bytes.
func strLiteral(p *parser, _ bool) {
	raw := p.previous.Lexeme
	p.emitConstant(p.heap.InternString(raw[1 : len(raw)-1]))
}

func literal(p *parser, _ bool) {
	switch p.previous.Type {
	case token.FALSE:
		p.emitOp(object.OpFalse)
	case token.NIL:
		p.emitOp(object.OpNil)
	case token.TRUE:
		p.emitOp(object.OpTrue)
	default:
		panic("compiler: unreachable literal token")
	}
}

func grouping(p *parser, _ bool) {
	p.expression()
	p.consume(token.RPAREN, "expect ')' after expression")
}

func unary(p *parser, _ bool) {
	opType := p.previous.Type
	p.parsePrecedence(precUnary)
	switch opType {
	case token.BANG:
		p.emitOp(object.OpNot)
	case token.MINUS:
		p.emitOp(object.OpNegate)
	default:
		panic("compiler: unreachable unary operator")
	}
}

func binary(p *parser, _ bool) {
	opType := p.previous.Type
	rule := ruleFor(opType)
	p.parsePrecedence(rule.prec + 1)

	switch opType {
	case token.BANG_EQ:
		p.emitBytes(byte(object.OpEqual), byte(object.OpNot))
	case token.EQ_EQ:
		p.emitOp(object.OpEqual)
	case token.GT:
		p.emitOp(object.OpGreater)
	case token.GT_EQ:
		p.emitBytes(byte(object.OpLess), byte(object.OpNot))
	case token.LT:
		p.emitOp(object.OpLess)
	case token.LT_EQ:
		p.emitBytes(byte(object.OpGreater), byte(object.OpNot))
	case token.PLUS:
		p.emitOp(object.OpAdd)
	case token.MINUS:
		p.emitOp(object.OpSubtract)
	case token.STAR:
		p.emitOp(object.OpMultiply)
	case token.SLASH:
		p.emitOp(object.OpDivide)
	default:
		panic("compiler: unreachable binary operator")
	}
}

// and_ and or_ implement short-circuit evaluation via jumps rather than
// emitting a boolean-producing opcode, so the left operand's value (not
// just its truthiness) is what's left on the stack when it short-circuits.
func and_(p *parser, _ bool) {
	endJump := p.emitJump(object.OpJumpIfFalse)
	p.emitOp(object.OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func or_(p *parser, _ bool) {
	elseJump := p.emitJump(object.OpJumpIfFalse)
	endJump := p.emitJump(object.OpJump)
	p.patchJump(elseJump)
	p.emitOp(object.OpPop)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func variable(p *parser, canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

func (p *parser) namedVariable(name tscanner.Token, canAssign bool) {
	var getOp, setOp object.Opcode
	var arg int

	if slot, ok := p.resolveLocal(p.frame, name.Lexeme); ok {
		arg, getOp, setOp = slot, object.OpGetLocal, object.OpSetLocal
	} else if idx, ok := p.resolveUpvalue(p.frame, name.Lexeme); ok {
		arg, getOp, setOp = idx, object.OpGetUpvalue, object.OpSetUpvalue
	} else {
		arg, getOp, setOp = int(p.makeConstant(p.heap.InternString(name.Lexeme))), object.OpGetGlobal, object.OpSetGlobal
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitBytes(byte(setOp), byte(arg))
	} else {
		p.emitBytes(byte(getOp), byte(arg))
	}
}

func call(p *parser, _ bool) {
	argc := p.argumentList()
	p.emitBytes(byte(object.OpCall), byte(argc))
}

func (p *parser) argumentList() int {
	argc := 0
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if argc == maxArgCount {
				p.error("can't have more than 255 arguments")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after arguments")
	return argc
}
