package object

// Obj is embedded by value in every heap-allocated object kind (ObjString,
// ObjFunction, and the runtime-only ObjClosure/ObjUpvalue/ObjNative defined
// by package machine). It carries the intrusive "next" link that chains
// every object allocated through a given Heap into a single list, per
// spec.md section 3 ("every heap object carries ... a next back-reference
// ... chain all allocated objects into a single intrusive list"). There is
// no separate kind tag: Go's own type system (a type switch on the concrete
// *ObjString/*ObjFunction/... type) serves as the kind discriminator.
type Obj struct {
	next *Obj
}

// Next returns the next object in the owning Heap's allocation list.
func (o *Obj) Next() *Obj { return o.next }
