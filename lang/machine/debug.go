package machine

import (
	"fmt"
	"io"

	"github.com/mna/tilleul/lang/object"
)

// DisassembleChunk writes one line per instruction in c to w, prefixed by a
// header naming the chunk. It is the bytecode counterpart of the teacher's
// AST Printer: a flat, line-oriented textual dump, here over instructions
// instead of syntax nodes.
func DisassembleChunk(w io.Writer, c *object.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = DisassembleInstruction(w, c, offset)
	}
}

// DisassembleInstruction writes the single instruction at offset and
// returns the offset of the next one. DisassembleChunk calls it for each
// instruction; the VM does not call it while executing, so there is no
// per-step execution trace.
func DisassembleInstruction(w io.Writer, c *object.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	switch op := object.Opcode(c.Code[offset]); op {
	case object.OpConstant:
		return constantInstruction(w, op, c, offset)
	case object.OpNil, object.OpTrue, object.OpFalse, object.OpPop,
		object.OpEqual, object.OpGreater, object.OpLess,
		object.OpAdd, object.OpSubtract, object.OpMultiply, object.OpDivide,
		object.OpNot, object.OpNegate, object.OpPrint, object.OpCloseUpvalue,
		object.OpReturn:
		return simpleInstruction(w, op, offset)
	case object.OpGetLocal, object.OpSetLocal, object.OpGetGlobal, object.OpSetGlobal,
		object.OpDefineGlobal, object.OpGetUpvalue, object.OpSetUpvalue, object.OpCall:
		return byteInstruction(w, op, c, offset)
	case object.OpJump, object.OpJumpIfFalse:
		return jumpInstruction(w, op, 1, c, offset)
	case object.OpLoop:
		return jumpInstruction(w, op, -1, c, offset)
	case object.OpClosure:
		return closureInstruction(w, c, offset)
	default:
		fmt.Fprintf(w, "unknown opcode %d\n", op)
		return offset + 1
	}
}

func simpleInstruction(w io.Writer, op object.Opcode, offset int) int {
	fmt.Fprintf(w, "%s\n", op)
	return offset + 1
}

func byteInstruction(w io.Writer, op object.Opcode, c *object.Chunk, offset int) int {
	fmt.Fprintf(w, "%-16s %4d\n", op, c.Code[offset+1])
	return offset + 2
}

func jumpInstruction(w io.Writer, op object.Opcode, sign int, c *object.Chunk, offset int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func constantInstruction(w io.Writer, op object.Opcode, c *object.Chunk, offset int) int {
	idx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, c.Constants[idx].String())
	return offset + 2
}

func closureInstruction(w io.Writer, c *object.Chunk, offset int) int {
	offset++
	idx := c.Code[offset]
	offset++
	fn, _ := c.Constants[idx].(*object.ObjFunction)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", object.OpClosure, idx, fn.String())

	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal, index := c.Code[offset], c.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}
