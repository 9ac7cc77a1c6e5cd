// Package object implements the tilleul managed object system: the Value
// tagged union, the heap objects (strings, function prototypes) allocated by
// the compiler and the virtual machine, and the open-addressed hash table
// used for both string interning and, at the machine layer, global variable
// storage.
//
// Package object deliberately knows nothing about the compiler's Pratt
// parser or the machine's dispatch loop; it is the shared foundation that
// both lang/compiler and lang/machine build on, so that neither of those
// packages needs to import the other.
package object

import "fmt"

// Value is the interface implemented by every value the machine can hold on
// its stack, store in a local, or place in the constant pool: Nil, Bool,
// Number, and any heap Object (String, Function, and the runtime-only kinds
// defined by package machine: Closure, Upvalue, Native).
type Value interface {
	// String returns the value's textual form as printed by the `print`
	// statement.
	String() string

	// Type returns a short name for the value's type (e.g. "number",
	// "string", "closure").
	Type() string
}

// NilType is the type of Nil. Its only legal value is Nil.
type NilType byte

// Nil is the single Value of type NilType.
const Nil = NilType(0)

var _ Value = Nil

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }

// Bool is the type of the boolean literals true and false.
type Bool bool

// True and False are the two Bool values.
const (
	True  = Bool(true)
	False = Bool(false)
)

var _ Value = True

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is the type of numeric literals and arithmetic results. tilleul has
// a single numeric type, a 64-bit float, matching spec.md's Value union.
type Number float64

var _ Value = Number(0)

func (n Number) String() string {
	// Render integral numbers without a trailing ".0" or decimal point, and
	// everything else with Go's shortest round-tripping representation.
	if f := float64(n); f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", float64(n))
}
func (Number) Type() string { return "number" }

// Truth reports the truthiness of a value: Nil and Bool(false) are falsey,
// everything else (including 0 and the empty string) is truthy.
func Truth(v Value) bool {
	switch v := v.(type) {
	case NilType:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}
