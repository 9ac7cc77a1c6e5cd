package object

// ObjString is the heap representation of a string value: its bytes and a
// precomputed hash. Every ObjString in existence through a given Heap
// appears exactly once in that Heap's intern table, so two ObjStrings with
// equal bytes are always the same pointer (spec.md section 3 invariant).
type ObjString struct {
	Obj
	Chars string
	Hash  uint32
}

var _ Value = (*ObjString)(nil)

func (s *ObjString) String() string { return s.Chars }
func (s *ObjString) Type() string   { return "string" }

// Len returns the number of bytes in the string.
func (s *ObjString) Len() int { return len(s.Chars) }
