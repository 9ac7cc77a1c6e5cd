// Package compiler implements the single-pass Pratt parser that turns
// tilleul source text directly into bytecode, with no intervening AST: every
// production either emits instructions as it recognizes them or defers a
// two-byte placeholder operand to be patched once its target is known.
//
// The compiler drives a Scanner token by token and maintains one funcState
// per nested function body, mirroring the call stack the virtual machine
// will build at runtime: resolving a name walks outward through enclosing
// funcStates exactly as the machine will walk outward through enclosing call
// frames to find a captured upvalue.
package compiler

import (
	"fmt"
	"go/scanner"
	gotoken "go/token"

	"github.com/mna/tilleul/lang/object"
	tscanner "github.com/mna/tilleul/lang/scanner"
	"github.com/mna/tilleul/lang/token"
)

const (
	maxLocals    = 256
	maxUpvalues  = 256
	maxArgCount  = 255
	maxJumpRange = 1<<16 - 1
)

type functionKind uint8

const (
	scriptFunction functionKind = iota
	plainFunction
)

type localVar struct {
	name       string
	depth      int // -1 == declared but not yet defined
	isCaptured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcState is the compiler's per-function scratch state: the prototype
// being assembled, its lexical scope depth, and the locals/upvalues visible
// to code compiled right now. Compiling a nested `fun` pushes a new
// funcState and pops it again once the function body is done, the same way
// a call pushes and pops a machine call frame.
type funcState struct {
	enclosing  *funcState
	fn         *object.ObjFunction
	kind       functionKind
	locals     []localVar
	upvalues   []upvalueRef
	scopeDepth int
}

type parser struct {
	scan *tscanner.Scanner
	heap *object.Heap

	previous tscanner.Token
	current  tscanner.Token

	errs      scanner.ErrorList
	panicMode bool

	frame *funcState
}

// Compile compiles src into a top-level function ready to be wrapped in a
// closure and run by the machine. Heap objects produced along the way
// (interned strings, the function prototypes for every nested `fun`) are
// allocated through heap. A non-nil error means compilation failed; the
// returned function is the best-effort result and should not be run.
func Compile(src string, heap *object.Heap) (*object.ObjFunction, error) {
	p := &parser{scan: tscanner.New(src), heap: heap}
	p.pushFunction(scriptFunction, "")

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}

	fn := p.popFunction()
	p.errs.Sort()
	return fn, p.errs.Err()
}

func (p *parser) pushFunction(kind functionKind, name string) {
	fs := &funcState{
		enclosing: p.frame,
		kind:      kind,
		fn:        p.heap.NewFunction(),
	}
	if name != "" {
		fs.fn.Name = p.heap.InternString(name)
	}
	// Slot 0 of every frame is reserved for the callee itself, matching the
	// value-stack convention stack[base+0] == the running closure.
	fs.locals = append(fs.locals, localVar{depth: 0})
	p.frame = fs
}

func (p *parser) popFunction() *object.ObjFunction {
	p.emitReturn()
	fn := p.frame.fn
	fn.UpvalueCount = len(p.frame.upvalues)
	p.frame = p.frame.enclosing
	return fn
}

func (p *parser) currentChunk() *object.Chunk { return &p.frame.fn.Chunk }

// --- token stream -----------------------------------------------------

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scan.ScanToken()
		if p.current.Type != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) check(t token.Token) bool { return p.current.Type == t }

func (p *parser) match(t token.Token) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(t token.Token, msg string) {
	if p.check(t) {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

// --- bytecode emission --------------------------------------------------

func (p *parser) emitByte(b byte) {
	p.currentChunk().Write(b, p.previous.Line)
}

func (p *parser) emitOp(op object.Opcode) { p.emitByte(byte(op)) }

func (p *parser) emitBytes(a, b byte) {
	p.emitByte(a)
	p.emitByte(b)
}

func (p *parser) makeConstant(v object.Value) byte {
	idx := p.currentChunk().AddConstant(v)
	if idx > 255 {
		p.error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

func (p *parser) emitConstant(v object.Value) {
	p.emitOp(object.OpConstant)
	p.emitByte(p.makeConstant(v))
}

func (p *parser) emitJump(op object.Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

func (p *parser) patchJump(offset int) {
	code := p.currentChunk().Code
	jump := len(code) - offset - 2
	if jump > maxJumpRange {
		p.error("too much code to jump over")
		return
	}
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

func (p *parser) emitLoop(loopStart int) {
	p.emitOp(object.OpLoop)
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > maxJumpRange {
		p.error("loop body too large")
		return
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

func (p *parser) emitReturn() {
	p.emitOp(object.OpNil)
	p.emitOp(object.OpReturn)
}

// --- error handling / panic-mode recovery ------------------------------

func (p *parser) errorAt(tok tscanner.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	full := msg
	switch tok.Type {
	case token.EOF:
		full = msg + " at end"
	case token.ILLEGAL:
		// tok.Lexeme is already the scanner's own message.
	default:
		full = fmt.Sprintf("%s at '%s'", msg, tok.Lexeme)
	}
	p.errs.Add(gotoken.Position{Line: tok.Line}, full)
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.previous, msg) }

// sync discards tokens until it reaches what looks like a statement
// boundary, so that a single compile error does not cascade into a wall of
// spurious follow-on errors.
func (p *parser) sync() {
	p.panicMode = false
	for p.current.Type != token.EOF {
		if p.previous.Type == token.SEMI {
			return
		}
		switch p.current.Type {
		case token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}
