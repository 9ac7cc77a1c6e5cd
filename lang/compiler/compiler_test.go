package compiler_test

import (
	"fmt"
	"testing"

	"github.com/mna/tilleul/lang/compiler"
	"github.com/mna/tilleul/lang/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, src string) *object.ObjFunction {
	t.Helper()
	var heap object.Heap
	fn, err := compiler.Compile(src, &heap)
	require.NoError(t, err)
	require.NotNil(t, fn)
	return fn
}

// findFunction searches fn's constant pool (recursively, since nested
// functions are themselves constants of their enclosing function) for a
// named function prototype.
func findFunction(fn *object.ObjFunction, name string) *object.ObjFunction {
	for _, c := range fn.Chunk.Constants {
		nested, ok := c.(*object.ObjFunction)
		if !ok {
			continue
		}
		if nested.Name != nil && nested.Name.Chars == name {
			return nested
		}
		if found := findFunction(nested, name); found != nil {
			return found
		}
	}
	return nil
}

func TestCompileArithmeticAndPrint(t *testing.T) {
	fn := mustCompile(t, `print 1 + 2 * 3;`)
	assert.NotEmpty(t, fn.Chunk.Code)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpPrint))
}

func TestCompileInvalidAssignmentTarget(t *testing.T) {
	var heap object.Heap
	_, err := compiler.Compile(`1 = 2;`, &heap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid assignment target")
}

func TestCompileDuplicateLocalInSameScope(t *testing.T) {
	var heap object.Heap
	_, err := compiler.Compile(`{ var a = 1; var a = 2; }`, &heap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already a variable with this name in this scope")
}

func TestCompileUndefinedSelfReferenceInInitializer(t *testing.T) {
	var heap object.Heap
	_, err := compiler.Compile(`{ var a = a; }`, &heap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't read local variable in its own initializer")
}

func TestCompilePanicModeRecoversAndReportsBothErrors(t *testing.T) {
	var heap object.Heap
	_, err := compiler.Compile("var;\nvar;\n", &heap)
	require.Error(t, err)
	if list, ok := err.(interface{ Len() int }); ok {
		assert.GreaterOrEqual(t, list.Len(), 2, "panic-mode recovery should let compilation keep reporting later errors")
	}
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	fn := mustCompile(t, `
		fun makeClosure() {
			var a = 1;
			fun f() {
				a = a + 1;
				return a;
			}
			return f;
		}
	`)
	makeClosure := findFunction(fn, "makeClosure")
	require.NotNil(t, makeClosure)
	inner := findFunction(makeClosure, "f")
	require.NotNil(t, inner)
	assert.Equal(t, 1, inner.UpvalueCount)
	assert.Contains(t, inner.Chunk.Code, byte(object.OpGetUpvalue))
	assert.Contains(t, inner.Chunk.Code, byte(object.OpSetUpvalue))
}

func TestCompileFunctionArity(t *testing.T) {
	fn := mustCompile(t, `fun add(a, b) { return a + b; }`)
	add := findFunction(fn, "add")
	require.NotNil(t, add)
	assert.Equal(t, 2, add.Arity)
}

func TestCompileTooManyParametersIsError(t *testing.T) {
	src := "fun f("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ", "
		}
		src += fmt.Sprintf("p%d", i)
	}
	src += ") {}"

	var heap object.Heap
	_, err := compiler.Compile(src, &heap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't have more than 255 parameters")
}

func TestCompileWhileLoopEmitsLoopOpcode(t *testing.T) {
	fn := mustCompile(t, `var noob = 0; while (noob < 10) { noob = noob + 1; }`)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpLoop))
	assert.Contains(t, fn.Chunk.Code, byte(object.OpJumpIfFalse))
}

func TestCompileForLoopDesugarsToLoopOpcode(t *testing.T) {
	fn := mustCompile(t, `for (var i = 0; i < 3; i = i + 1) { print i; }`)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpLoop))
}

func TestCompileIfElseEmitsJumpOpcodes(t *testing.T) {
	fn := mustCompile(t, `var noob = 420; if (noob > 69) { noob = 1; } else { noob = 2; }`)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpJumpIfFalse))
	assert.Contains(t, fn.Chunk.Code, byte(object.OpJump))
}

func TestCompileGlobalVsLocalResolution(t *testing.T) {
	fn := mustCompile(t, `var g = 1; { var l = 2; print l; } print g;`)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpDefineGlobal))
	assert.Contains(t, fn.Chunk.Code, byte(object.OpGetLocal))
	assert.Contains(t, fn.Chunk.Code, byte(object.OpGetGlobal))
}

func TestCompileStringConcatenationInterns(t *testing.T) {
	var heap object.Heap
	fn, err := compiler.Compile(`var noob = "hello" + " sir" + " sir";`, &heap)
	require.NoError(t, err)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpAdd))

	// constants: 0 "noob", 1 "hello", 2 " sir", 3 " sir"; both occurrences of
	// the same literal are the one interned string.
	sir := heap.InternString(" sir")
	assert.Same(t, sir, fn.Chunk.Constants[2])
	assert.Same(t, sir, fn.Chunk.Constants[3])
}
