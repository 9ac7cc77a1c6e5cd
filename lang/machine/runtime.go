// Package machine is the tilleul virtual machine: a stack-based bytecode
// interpreter that runs the object.ObjFunction prototypes produced by
// package compiler.
//
// It defines the three object kinds that only exist at run time and never
// appear in a Chunk's constant pool on their own (ObjClosure, ObjUpvalue and
// ObjNative), plus the VM itself. Everything compile-time lives in package
// object instead, so that machine depends only on object and neither object
// nor compiler depends on machine.
package machine

import "github.com/mna/tilleul/lang/object"

// ObjClosure pairs a compiled function prototype with the upvalues it
// captured at the point it was created. Two closures made from the same
// ObjFunction (e.g. two calls to the function that creates them) are
// distinct objects with independent upvalues, per the closure-independence
// property.
type ObjClosure struct {
	object.Obj
	Function *object.ObjFunction
	Upvalues []*ObjUpvalue
}

var _ object.Value = (*ObjClosure)(nil)

func (c *ObjClosure) String() string { return c.Function.String() }
func (c *ObjClosure) Type() string   { return "closure" }

func newClosure(heap *object.Heap, fn *object.ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	heap.Track(&c.Obj)
	return c
}

// ObjUpvalue is the cell a closure indirects through to read or write a
// captured variable. While open it aliases a live slot on the owning VM's
// value stack (slot, identified by stack index rather than a raw pointer, so
// that two closures capturing the same local share the exact same cell);
// once the stack frame that owns the slot returns, the value is copied into
// Closed and the cell never touches the stack again.
//
// Open upvalues belonging to a single VM form a singly linked list ordered
// by descending slot, matching spec.md's "sorted by descending address" so
// that closing a range of them on scope exit or return is a simple prefix
// walk.
type ObjUpvalue struct {
	object.Obj
	vm     *VM
	slot   int
	closed object.Value
	isOpen bool
	next   *ObjUpvalue
}

var _ object.Value = (*ObjUpvalue)(nil)

func (u *ObjUpvalue) String() string { return "upvalue" }
func (u *ObjUpvalue) Type() string   { return "upvalue" }

func (u *ObjUpvalue) get() object.Value {
	if u.isOpen {
		return u.vm.stack[u.slot]
	}
	return u.closed
}

func (u *ObjUpvalue) set(v object.Value) {
	if u.isOpen {
		u.vm.stack[u.slot] = v
		return
	}
	u.closed = v
}

// NativeFn is the signature every native function implements. Per spec.md
// 4.6 and the unchecked-arity Open Question, args is passed exactly as
// given at the call site with no arity check performed by the VM.
type NativeFn func(args []object.Value) object.Value

// ObjNative wraps a Go function as a callable tilleul value.
type ObjNative struct {
	object.Obj
	Name string
	Fn   NativeFn
}

var _ object.Value = (*ObjNative)(nil)

func (n *ObjNative) String() string { return "<native fn>" }
func (n *ObjNative) Type() string   { return "native" }

// CallFrame records one active invocation: the closure being run, the
// offset of the next instruction to execute within its chunk, and the base
// index into the VM's value stack below which this call's locals and
// temporaries never reach. stack[base] always holds the closure itself.
type CallFrame struct {
	closure *ObjClosure
	ip      int
	base    int
}
