package machine_test

import (
	"bytes"
	"testing"

	"github.com/mna/tilleul/lang/compiler"
	"github.com/mna/tilleul/lang/machine"
	"github.com/mna/tilleul/lang/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (*machine.VM, *object.Heap, *bytes.Buffer) {
	t.Helper()
	heap := &object.Heap{}
	fn, err := compiler.Compile(src, heap)
	require.NoError(t, err)

	var stdout bytes.Buffer
	vm := machine.New(heap)
	vm.Stdout = &stdout
	require.NoError(t, vm.Interpret(fn))
	return vm, heap, &stdout
}

func global(t *testing.T, vm *machine.VM, name string) object.Value {
	t.Helper()
	v, ok := vm.Global(name)
	require.True(t, ok, "global %q was never defined", name)
	return v
}

// Scenario 1: independent closures over separate activations of the same
// outer function, each advancing its own captured counter.
func TestScenarioClosureIndependence(t *testing.T) {
	vm, _, _ := run(t, `
		fun makeClosure(){ var a=1; fun f(){ a=a+1; return a;} return f; }
		var c = makeClosure(); var first = c();
		var d = makeClosure(); var second = d();
		var third = c();
	`)
	assert.Equal(t, object.Number(2), global(t, vm, "first"))
	assert.Equal(t, object.Number(2), global(t, vm, "second"))
	assert.Equal(t, object.Number(3), global(t, vm, "third"))
}

// Scenario 2: upvalue sharing/mutation visible through a call that returns
// the inner closure's own invocation result.
func TestScenarioUpvalueMutationAcrossNesting(t *testing.T) {
	vm, _, _ := run(t, `
		fun outer(){ var x=420; fun inner(){ x=x+1; return x;} return inner();}
		var value = outer();
	`)
	assert.Equal(t, object.Number(421), global(t, vm, "value"))
}

func TestScenarioIfElse(t *testing.T) {
	vm, heap, _ := run(t, `
		var noob=420; if (420>69){noob="NICE";} else {noob="NOT NICE";}
	`)
	got, ok := global(t, vm, "noob").(*object.ObjString)
	require.True(t, ok)
	assert.Same(t, heap.InternString("NICE"), got)
}

func TestScenarioWhileLoop(t *testing.T) {
	vm, _, _ := run(t, `var noob=0; while (noob<10){ noob=noob+1; }`)
	assert.Equal(t, object.Number(10), global(t, vm, "noob"))
}

// Scenario 5 also exercises the interning guarantee: the runtime
// concatenation result must be the identical *ObjString as interning the
// same literal bytes directly.
func TestScenarioStringConcatenationInterns(t *testing.T) {
	vm, heap, _ := run(t, `var noob = "hello" + " sir" + " sir";`)
	got, ok := global(t, vm, "noob").(*object.ObjString)
	require.True(t, ok)
	assert.Equal(t, "hello sir sir", got.Chars)
	assert.Same(t, heap.InternString("hello sir sir"), got)
}

func TestScenarioMultipleFunctionsShareGlobals(t *testing.T) {
	vm, _, _ := run(t, `
		fun add420(n){return n+420;} fun add69(n){return n+69;}
		var num = add420(1); num = add69(num); num = add420(num);
	`)
	assert.Equal(t, object.Number(910), global(t, vm, "num"))
}

func TestPrintStatementWritesValueAndNewline(t *testing.T) {
	_, _, stdout := run(t, `print 1 + 2;`)
	assert.Equal(t, "3\n", stdout.String())
}

func TestUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	heap := &object.Heap{}
	fn, err := compiler.Compile(`print noSuchVariable;`, heap)
	require.NoError(t, err)

	vm := machine.New(heap)
	err = vm.Interpret(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable 'noSuchVariable'")
}

// Assigning to a name that was never declared with `var` must leave no
// trace of it in the globals table: the isNew/delete-on-failure trick from
// spec.md's Open Question.
func TestUndefinedGlobalWriteIsRuntimeErrorAndLeavesNoBinding(t *testing.T) {
	heap := &object.Heap{}
	fn, err := compiler.Compile(`neverDeclared = 1;`, heap)
	require.NoError(t, err)

	vm := machine.New(heap)
	err = vm.Interpret(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable 'neverDeclared'")

	_, ok := vm.Global("neverDeclared")
	assert.False(t, ok)
}

// Comparison opcodes only accept numbers, per spec.md's Open Question: no
// lexicographic string ordering exists.
func TestComparingStringsIsRuntimeError(t *testing.T) {
	heap := &object.Heap{}
	fn, err := compiler.Compile(`print "a" < "b";`, heap)
	require.NoError(t, err)

	vm := machine.New(heap)
	err = vm.Interpret(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operands must be numbers")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	heap := &object.Heap{}
	fn, err := compiler.Compile(`var x = 1; x();`, heap)
	require.NoError(t, err)

	vm := machine.New(heap)
	err = vm.Interpret(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can only call functions and classes")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	heap := &object.Heap{}
	fn, err := compiler.Compile(`fun f(a,b){return a+b;} f(1);`, heap)
	require.NoError(t, err)

	vm := machine.New(heap)
	err = vm.Interpret(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 arguments but got 1")
}

// Native functions bypass the arity check entirely: clock() and
// clock(1, 2, 3) both succeed, per the unchecked-native-arity Open Question.
func TestNativeClockIgnoresArguments(t *testing.T) {
	heap := &object.Heap{}
	fn, err := compiler.Compile(`var a = clock(); var b = clock(1, 2, 3);`, heap)
	require.NoError(t, err)

	vm := machine.New(heap)
	require.NoError(t, vm.Interpret(fn))

	_, ok := vm.Global("a")
	assert.True(t, ok)
	_, ok = vm.Global("b")
	assert.True(t, ok)
}

func TestRuntimeErrorReportsLineAndFrameTrace(t *testing.T) {
	heap := &object.Heap{}
	fn, err := compiler.Compile("fun boom() {\n  return 1 + \"x\";\n}\nboom();", heap)
	require.NoError(t, err)

	vm := machine.New(heap)
	err = vm.Interpret(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[line 2] in boom")
	assert.Contains(t, err.Error(), "[line 4] in script")
}
