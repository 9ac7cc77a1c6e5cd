// Package maincmd implements the tilleul command-line tool: argument
// parsing and dispatch to the run/repl/tokenize/disassemble phases, kept
// separate from cmd/tilleul/main.go so it can be exercised by tests without
// going through os.Args or os.Exit.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "tilleul"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command>] [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command>] [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the %[1]s scripting language.

The <command> can be one of:
       run <path>                Compile and execute a single source file.
       repl                      Start a line-oriented read-eval-print
                                 loop; each line runs against a fresh
                                 virtual machine. This is also what runs
                                 when no command is given at all.
       tokenize <path>...        Print the tokens the scanner produces
                                 for each file.
       disassemble <path>...     Compile each file and print its bytecode
                                 chunks without running them.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

More information on the %[1]s repository:
       https://github.com/mna/tilleul
`, binName)
)

// Cmd is the root command; its exported bool fields are flags recognized by
// mainer.Parser, and its exported methods matching the signature expected
// by buildCmds become subcommands, looked up by lowercased method name.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	// No command at all starts the REPL, per spec.md 6 ("No args at all ⇒
	// start a line-oriented REPL").
	if len(c.args) == 0 {
		c.cmdFn = c.Repl
		return nil
	}

	cmdName := c.args[0]
	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	switch cmdName {
	case "run":
		if len(c.args[1:]) != 1 {
			return errors.New("run: exactly one file must be provided")
		}
	case "tokenize", "disassemble":
		if len(c.args[1:]) == 0 {
			return fmt.Errorf("%s: at least one file must be provided", cmdName)
		}
	case "repl":
		if len(c.args[1:]) != 0 {
			return errors.New("repl: takes no arguments")
		}
	}

	return nil
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	var cmdArgs []string
	if len(c.args) > 0 {
		cmdArgs = c.args[1:]
	}
	if err := c.cmdFn(ctx, stdio, cmdArgs); err != nil {
		// each command prints its own errors before returning one here
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds finds every exported method of v matching the subcommand
// signature (context.Context, mainer.Stdio, []string) error, and indexes
// them by lowercased method name: Run -> "run", Repl -> "repl", and so on.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
