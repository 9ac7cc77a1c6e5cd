package compiler

import (
	"github.com/mna/tilleul/lang/object"
	"github.com/mna/tilleul/lang/token"
)

func (p *parser) declaration() {
	switch {
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.sync()
	}
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("expect variable name")

	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitOp(object.OpNil)
	}
	p.consume(token.SEMI, "expect ';' after variable declaration")
	p.defineVariable(global)
}

func (p *parser) funDeclaration() {
	global := p.parseVariable("expect function name")
	// A function may recurse, so its own name is defined before its body is
	// compiled.
	p.markInitialized()
	p.function(plainFunction)
	p.defineVariable(global)
}

func (p *parser) function(kind functionKind) {
	name := p.previous.Lexeme
	p.pushFunction(kind, name)
	p.beginScope()

	p.consume(token.LPAREN, "expect '(' after function name")
	if !p.check(token.RPAREN) {
		for {
			p.frame.fn.Arity++
			if p.frame.fn.Arity > maxArgCount {
				p.errorAtCurrent("can't have more than 255 parameters")
			}
			constant := p.parseVariable("expect parameter name")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after parameters")
	p.consume(token.LBRACE, "expect '{' before function body")
	p.block()

	upvalues := p.frame.upvalues
	fn := p.popFunction()

	idx := p.makeConstant(fn)
	p.emitBytes(byte(object.OpClosure), idx)
	for _, uv := range upvalues {
		var isLocal byte
		if uv.isLocal {
			isLocal = 1
		}
		p.emitBytes(isLocal, byte(uv.index))
	}
}

func (p *parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "expect '}' after block")
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after value")
	p.emitOp(object.OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after expression")
	p.emitOp(object.OpPop)
}

func (p *parser) returnStatement() {
	if p.match(token.SEMI) {
		p.emitReturn()
		return
	}
	p.expression()
	p.consume(token.SEMI, "expect ';' after return value")
	p.emitOp(object.OpReturn)
}

func (p *parser) ifStatement() {
	p.consume(token.LPAREN, "expect '(' after 'if'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")

	thenJump := p.emitJump(object.OpJumpIfFalse)
	p.emitOp(object.OpPop)
	p.statement()

	elseJump := p.emitJump(object.OpJump)
	p.patchJump(thenJump)
	p.emitOp(object.OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)

	p.consume(token.LPAREN, "expect '(' after 'while'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")

	exitJump := p.emitJump(object.OpJumpIfFalse)
	p.emitOp(object.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(object.OpPop)
}

// forStatement desugars into an initializer, a condition test compiled as a
// JumpIfFalse+Pop, an increment clause parsed but deferred behind a forward
// jump, and a final Loop back to the condition, per spec.md 4.2.
func (p *parser) forStatement() {
	p.beginScope()

	p.consume(token.LPAREN, "expect '(' after 'for'")
	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(token.SEMI) {
		p.expression()
		p.consume(token.SEMI, "expect ';' after loop condition")

		exitJump = p.emitJump(object.OpJumpIfFalse)
		p.emitOp(object.OpPop)
	}

	if !p.check(token.RPAREN) {
		bodyJump := p.emitJump(object.OpJump)
		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitOp(object.OpPop)
		p.consume(token.RPAREN, "expect ')' after for clauses")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(object.OpPop)
	}

	p.endScope()
}
