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

// Run compiles and executes a single source file, per spec.md 6 ("One arg
// => treat it as a path, read the whole file, compile and execute once").
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	return RunSource(string(src), stdio)
}

// RunSource compiles and runs src against a fresh VM and Heap, writing
// `print` output and runtime error traces to stdio.
func RunSource(src string, stdio mainer.Stdio) error {
	heap := &object.Heap{}
	fn, err := compiler.Compile(src, heap)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	vm := machine.New(heap)
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr
	if err := vm.Interpret(fn); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}
