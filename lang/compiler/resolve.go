package compiler

import (
	"github.com/mna/tilleul/lang/object"
	tscanner "github.com/mna/tilleul/lang/scanner"
	"github.com/mna/tilleul/lang/token"
)

func (p *parser) beginScope() { p.frame.scopeDepth++ }

// endScope pops every local declared in the scope being left. A local that
// was captured by a nested closure is closed onto the heap with
// CloseUpvalue instead of merely discarded with Pop, per spec.md 4.2 ("scope
// exit").
func (p *parser) endScope() {
	p.frame.scopeDepth--

	locals := p.frame.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.frame.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitOp(object.OpCloseUpvalue)
		} else {
			p.emitOp(object.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.frame.locals = locals
}

// parseVariable consumes an identifier naming a variable being declared. At
// top level it returns the constant-pool index of the variable's name, for
// a later DefineGlobal; inside a scope the return value is unused because
// locals live on the stack rather than in the globals table.
func (p *parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENT, errMsg)
	name := p.previous
	p.declareVariable(name)
	if p.frame.scopeDepth > 0 {
		return 0
	}
	return p.makeConstant(p.heap.InternString(name.Lexeme))
}

func (p *parser) declareVariable(name tscanner.Token) {
	if p.frame.scopeDepth == 0 {
		return
	}

	for i := len(p.frame.locals) - 1; i >= 0; i-- {
		local := p.frame.locals[i]
		if local.depth != -1 && local.depth < p.frame.scopeDepth {
			break
		}
		if local.name == name.Lexeme {
			p.error("already a variable with this name in this scope")
		}
	}
	p.addLocal(name.Lexeme)
}

func (p *parser) addLocal(name string) {
	if len(p.frame.locals) >= maxLocals {
		p.error("too many local variables in function")
		return
	}
	p.frame.locals = append(p.frame.locals, localVar{name: name, depth: -1})
}

func (p *parser) markInitialized() {
	if p.frame.scopeDepth == 0 {
		return
	}
	p.frame.locals[len(p.frame.locals)-1].depth = p.frame.scopeDepth
}

func (p *parser) defineVariable(global byte) {
	if p.frame.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitBytes(byte(object.OpDefineGlobal), global)
}

// resolveLocal looks up name among fs's own locals, searching from the most
// recently declared so that shadowing resolves to the innermost binding.
func (p *parser) resolveLocal(fs *funcState, name string) (int, bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		local := fs.locals[i]
		if local.name == name {
			if local.depth == -1 {
				p.error("can't read local variable in its own initializer")
			}
			return i, true
		}
	}
	return 0, false
}

// resolveUpvalue implements spec.md 4.2's central recursive algorithm: if
// name is a local of the immediately enclosing function, capture it
// directly and mark it captured; otherwise recurse outward so that a chain
// of nested functions each gets its own upvalue slot forwarding to the
// next, all the way out to the frame that actually owns the local.
func (p *parser) resolveUpvalue(fs *funcState, name string) (int, bool) {
	if fs.enclosing == nil {
		return 0, false
	}

	if slot, ok := p.resolveLocal(fs.enclosing, name); ok {
		fs.enclosing.locals[slot].isCaptured = true
		return p.addUpvalue(fs, uint8(slot), true), true
	}

	if idx, ok := p.resolveUpvalue(fs.enclosing, name); ok {
		return p.addUpvalue(fs, uint8(idx), false), true
	}

	return 0, false
}

func (p *parser) addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		p.error("too many closure variables in function")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}
