package object

// Heap owns every object allocated while compiling and running a single
// program: the intern table of strings, and the intrusive list threading
// every allocated Obj for eventual teardown. tilleul never frees heap
// objects individually; the Heap (and everything it reaches) is simply
// dropped when the VM using it is discarded. Per spec.md's Non-goals,
// there is deliberately no collector here.
type Heap struct {
	Strings Table
	objects *Obj
}

// track links o into the heap's allocation list and returns it. Constructors
// pass the address of the object's embedded Obj, as in `h.track(&s.Obj)`.
func (h *Heap) track(o *Obj) *Obj {
	o.next = h.objects
	h.objects = o
	return o
}

// Track links a heap object kind defined outside this package (package
// machine's ObjClosure, ObjUpvalue and ObjNative) into the same allocation
// list as strings and function prototypes, so that every object reachable
// from a running program is accounted for in one place regardless of which
// package defines its Go type.
func (h *Heap) Track(o *Obj) *Obj { return h.track(o) }

// Objects returns the head of the intrusive allocation list, newest first.
func (h *Heap) Objects() *Obj { return h.objects }

// InternString returns the canonical ObjString for chars, allocating and
// interning a new one if this is the first time chars has been seen. Two
// calls with equal chars always return the identical pointer, which lets
// the rest of the system compare interned strings by pointer rather than
// content (spec.md section 3 and 4.5).
func (h *Heap) InternString(chars string) *ObjString {
	hash := HashString(chars)
	if existing := h.Strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := &ObjString{Chars: chars, Hash: hash}
	h.track(&s.Obj)
	h.Strings.Set(s, True)
	return s
}

// NewFunction allocates a fresh, empty ObjFunction tracked by the heap.
// The caller fills in Arity, UpvalueCount, Chunk, and Name as compilation
// of the function body proceeds.
func (h *Heap) NewFunction() *ObjFunction {
	f := &ObjFunction{}
	h.track(&f.Obj)
	return f
}
