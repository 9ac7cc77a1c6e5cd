package object

// ObjFunction is the compile-time prototype produced for every function
// body: top level, named, or anonymous. It holds the compiled Chunk plus
// enough metadata for the machine to build a closure over it at runtime.
// ObjFunction values are immutable once compiled and are shared by every
// closure created from them.
type ObjFunction struct {
	Obj
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString // nil for the implicit top-level script function
}

var _ Value = (*ObjFunction)(nil)

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

func (f *ObjFunction) Type() string { return "function" }
