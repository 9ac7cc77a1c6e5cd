package machine

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mna/tilleul/lang/object"
)

// stackMax and framesMax match spec.md 4.4's "64 x 256" / "fixed capacity
// 64": a fixed-size value stack and call-frame stack, never a growable
// slice, because GetLocal/SetLocal and upvalue capture depend on a local's
// stack slot keeping a stable address for the lifetime of its frame.
const (
	stackMax  = 64 * 256
	framesMax = 64
)

// VM executes a single compiled program to completion. It is not safe for
// concurrent use from multiple goroutines; callers that need isolation
// construct one VM per execution (the REPL does exactly this, one per
// line).
type VM struct {
	// Stdout and Stderr are where `print` statements and runtime error
	// traces are written. If left nil, Interpret defaults them to os.Stdout
	// and os.Stderr respectively.
	Stdout io.Writer
	Stderr io.Writer

	heap    *object.Heap
	globals object.Table

	stack [stackMax]object.Value
	top   int

	frames     [framesMax]CallFrame
	frameCount int

	openUpvalues *ObjUpvalue
}

// New returns a VM that allocates runtime objects (closures, upvalues,
// concatenated strings) through heap. heap should be the same Heap passed to
// compiler.Compile for the program being run, so that interned strings
// compare equal by reference between compile time and run time.
func New(heap *object.Heap) *VM {
	vm := &VM{heap: heap}
	defineNatives(vm)
	return vm
}

func (vm *VM) init() {
	if vm.Stdout == nil {
		vm.Stdout = os.Stdout
	}
	if vm.Stderr == nil {
		vm.Stderr = os.Stderr
	}
}

// Interpret wraps fn (the top-level script function produced by
// compiler.Compile) in a closure and runs it to completion.
func (vm *VM) Interpret(fn *object.ObjFunction) error {
	vm.init()
	closure := newClosure(vm.heap, fn)
	vm.push(closure)
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

// Global returns the current value of a global variable, for embedders and
// tests that want to inspect bindings after Interpret returns.
func (vm *VM) Global(name string) (object.Value, bool) {
	return vm.globals.Get(vm.heap.InternString(name))
}

func (vm *VM) push(v object.Value) {
	vm.stack[vm.top] = v
	vm.top++
}

func (vm *VM) pop() object.Value {
	vm.top--
	return vm.stack[vm.top]
}

func (vm *VM) peek(distance int) object.Value {
	return vm.stack[vm.top-1-distance]
}

func readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func readShort(frame *CallFrame) int {
	hi := readByte(frame)
	lo := readByte(frame)
	return int(hi)<<8 | int(lo)
}

func readConstant(frame *CallFrame) object.Value {
	return frame.closure.Function.Chunk.Constants[readByte(frame)]
}

// run is the dispatch loop: read one opcode byte, decode, execute, repeat.
// An opcode the switch doesn't know about is a compiler bug, not a runtime
// error, and panics rather than returning an error (spec.md 4.4, "unknown
// opcodes are a fatal program bug").
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		switch op := object.Opcode(readByte(frame)); op {
		case object.OpConstant:
			vm.push(readConstant(frame))
		case object.OpNil:
			vm.push(object.Nil)
		case object.OpTrue:
			vm.push(object.True)
		case object.OpFalse:
			vm.push(object.False)
		case object.OpPop:
			vm.pop()

		case object.OpGetLocal:
			slot := readByte(frame)
			vm.push(vm.stack[frame.base+int(slot)])
		case object.OpSetLocal:
			slot := readByte(frame)
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case object.OpGetGlobal:
			name, _ := readConstant(frame).(*object.ObjString)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("undefined variable '%s'", name.Chars)
			}
			vm.push(v)
		case object.OpDefineGlobal:
			name, _ := readConstant(frame).(*object.ObjString)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case object.OpSetGlobal:
			// Table.Set's isNew return is the undefined-global signal: a set
			// that had to create the key, rather than overwrite one, targeted a
			// variable that was never declared. The just-inserted key is removed
			// again so a later declaration of the same name still behaves as a
			// fresh definition rather than an update.
			name, _ := readConstant(frame).(*object.ObjString)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("undefined variable '%s'", name.Chars)
			}

		case object.OpGetUpvalue:
			idx := readByte(frame)
			vm.push(frame.closure.Upvalues[idx].get())
		case object.OpSetUpvalue:
			idx := readByte(frame)
			frame.closure.Upvalues[idx].set(vm.peek(0))

		case object.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(object.Bool(valuesEqual(a, b)))
		case object.OpGreater:
			if err := vm.binaryCompare(false); err != nil {
				return err
			}
		case object.OpLess:
			if err := vm.binaryCompare(true); err != nil {
				return err
			}

		case object.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case object.OpSubtract, object.OpMultiply, object.OpDivide:
			if err := vm.binaryArith(op); err != nil {
				return err
			}

		case object.OpNot:
			vm.push(object.Bool(!object.Truth(vm.pop())))
		case object.OpNegate:
			n, ok := vm.peek(0).(object.Number)
			if !ok {
				return vm.runtimeError("operand must be a number")
			}
			vm.pop()
			vm.push(-n)

		case object.OpPrint:
			fmt.Fprintln(vm.Stdout, vm.pop().String())

		case object.OpJump:
			offset := readShort(frame)
			frame.ip += offset
		case object.OpJumpIfFalse:
			offset := readShort(frame)
			if !object.Truth(vm.peek(0)) {
				frame.ip += offset
			}
		case object.OpLoop:
			offset := readShort(frame)
			frame.ip -= offset

		case object.OpCall:
			argc := int(readByte(frame))
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case object.OpClosure:
			fn, _ := readConstant(frame).(*object.ObjFunction)
			closure := newClosure(vm.heap, fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte(frame)
				index := readByte(frame)
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(closure)

		case object.OpCloseUpvalue:
			vm.closeUpvalues(vm.top - 1)
			vm.pop()

		case object.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				return nil
			}
			vm.top = frame.base
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		default:
			panic(fmt.Sprintf("machine: unknown opcode %d", op))
		}
	}
}

func (vm *VM) callValue(callee object.Value, argc int) error {
	switch c := callee.(type) {
	case *ObjClosure:
		return vm.call(c, argc)
	case *ObjNative:
		args := vm.stack[vm.top-argc : vm.top]
		result := c.Fn(args)
		vm.top -= argc + 1
		vm.push(result)
		return nil
	default:
		return vm.runtimeError("can only call functions and classes")
	}
}

func (vm *VM) call(closure *ObjClosure, argc int) error {
	if argc != closure.Function.Arity {
		return vm.runtimeError("expected %d arguments but got %d", closure.Function.Arity, argc)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("stack overflow")
	}

	frame := &vm.frames[vm.frameCount]
	frame.closure = closure
	frame.ip = 0
	frame.base = vm.top - argc - 1
	vm.frameCount++
	return nil
}

// captureUpvalue returns the open upvalue for the given stack slot, sharing
// an existing one if a prior closure already captured the same slot (so
// that sibling closures over the same local observe each other's writes),
// or splicing in a new one at the right position in the descending-slot
// list otherwise.
func (vm *VM) captureUpvalue(slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	up := vm.openUpvalues
	for up != nil && up.slot > slot {
		prev = up
		up = up.next
	}
	if up != nil && up.slot == slot {
		return up
	}

	created := &ObjUpvalue{vm: vm, slot: slot, isOpen: true, next: up}
	vm.heap.Track(&created.Obj)
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.next = created
	}
	return created
}

// closeUpvalues migrates every open upvalue at or above lastSlot onto the
// heap, copying its current value out of the stack before that stack region
// is reused by the caller. Called on CloseUpvalue and on Return.
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.slot >= lastSlot {
		up := vm.openUpvalues
		up.closed = vm.stack[up.slot]
		up.isOpen = false
		vm.openUpvalues = up.next
	}
}

func valuesEqual(a, b object.Value) bool {
	switch a := a.(type) {
	case object.NilType:
		_, ok := b.(object.NilType)
		return ok
	case object.Bool:
		bb, ok := b.(object.Bool)
		return ok && a == bb
	case object.Number:
		bb, ok := b.(object.Number)
		return ok && a == bb
	case *object.ObjString:
		bb, ok := b.(*object.ObjString)
		return ok && a == bb
	default:
		return a == b
	}
}

func (vm *VM) binaryArith(op object.Opcode) error {
	b, bOk := vm.peek(0).(object.Number)
	a, aOk := vm.peek(1).(object.Number)
	if !aOk || !bOk {
		return vm.runtimeError("operands must be numbers")
	}
	vm.pop()
	vm.pop()
	switch op {
	case object.OpSubtract:
		vm.push(a - b)
	case object.OpMultiply:
		vm.push(a * b)
	case object.OpDivide:
		vm.push(a / b)
	}
	return nil
}

// binaryCompare implements Greater and Less. Per spec.md's Open Question,
// only numbers are accepted: applying either to strings is a runtime error,
// there is no lexicographic string comparison.
func (vm *VM) binaryCompare(less bool) error {
	b, bOk := vm.peek(0).(object.Number)
	a, aOk := vm.peek(1).(object.Number)
	if !aOk || !bOk {
		return vm.runtimeError("operands must be numbers")
	}
	vm.pop()
	vm.pop()
	if less {
		vm.push(object.Bool(a < b))
	} else {
		vm.push(object.Bool(a > b))
	}
	return nil
}

// add implements Add's dual role: numeric sum, or string concatenation when
// both operands are strings. A fresh Go string concatenation is the
// "allocate a fresh buffer, copy both" step from spec.md 4.4; interning it
// then either returns that exact string (ownership already belongs to the
// Go runtime, nothing to free) or an existing equal one, which the garbage
// collector reclaims the fresh copy of on its own.
func (vm *VM) add() error {
	if bs, ok := vm.peek(0).(*object.ObjString); ok {
		if as, ok := vm.peek(1).(*object.ObjString); ok {
			vm.pop()
			vm.pop()
			vm.push(vm.heap.InternString(as.Chars + bs.Chars))
			return nil
		}
		return vm.runtimeError("operands must be two numbers or two strings")
	}

	b, bOk := vm.peek(0).(object.Number)
	a, aOk := vm.peek(1).(object.Number)
	if !aOk || !bOk {
		return vm.runtimeError("operands must be two numbers or two strings")
	}
	vm.pop()
	vm.pop()
	vm.push(a + b)
	return nil
}

// runtimeError builds the error the VM returns from run: the message
// followed by a "[line N] in <name>" frame for every active call, innermost
// first, matching spec.md 6's stderr format.
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)

	var frames []string
	for i := vm.frameCount - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Function
		line := 0
		if idx := fr.ip - 1; idx >= 0 && idx < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[idx]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		frames = append(frames, fmt.Sprintf("[line %d] in %s", line, name))
	}
	return &runtimeError{msg: msg, frames: frames}
}

type runtimeError struct {
	msg    string
	frames []string
}

func (e *runtimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.msg)
	for _, f := range e.frames {
		b.WriteByte('\n')
		b.WriteString(f)
	}
	return b.String()
}
