package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/tilleul/lang/compiler"
	"github.com/mna/tilleul/lang/machine"
	"github.com/mna/tilleul/lang/object"
)

// Disassemble compiles each file without running it and prints the
// resulting bytecode, per spec.md 4.7's debug disassembler.
func (c *Cmd) Disassemble(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisassembleFiles(stdio, args...)
}

func DisassembleFiles(stdio mainer.Stdio, files ...string) error {
	var failed bool
	for _, name := range files {
		src, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = true
			continue
		}

		heap := &object.Heap{}
		fn, err := compiler.Compile(string(src), heap)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = true
			continue
		}
		disassembleRecursive(stdio, fn, name)
	}
	if failed {
		return fmt.Errorf("disassemble: one or more files failed")
	}
	return nil
}

// disassembleRecursive dumps fn's own chunk and then every nested function
// prototype reachable through its constant pool, since each `fun` gets its
// own Chunk but the constant that names it lives in the enclosing chunk.
func disassembleRecursive(stdio mainer.Stdio, fn *object.ObjFunction, name string) {
	machine.DisassembleChunk(stdio.Stdout, &fn.Chunk, name)
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.(*object.ObjFunction); ok {
			disassembleRecursive(stdio, nested, nested.String())
		}
	}
}
