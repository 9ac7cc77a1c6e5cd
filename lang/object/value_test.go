package object_test

import (
	"testing"

	"github.com/mna/tilleul/lang/object"
	"github.com/stretchr/testify/assert"
)

func TestNumberStringIntegralVsFractional(t *testing.T) {
	assert.Equal(t, "3", object.Number(3).String())
	assert.Equal(t, "3.5", object.Number(3.5).String())
	assert.Equal(t, "-12", object.Number(-12).String())
}

func TestTruth(t *testing.T) {
	assert.True(t, object.Truth(object.True))
	assert.True(t, object.Truth(object.Number(0)))
	assert.False(t, object.Truth(object.False))
	assert.False(t, object.Truth(object.Nil))
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "OP_ADD", object.OpAdd.String())
	assert.Equal(t, "OP_RETURN", object.OpReturn.String())
}

func TestChunkWriteAndAddConstant(t *testing.T) {
	var c object.Chunk
	idx := c.AddConstant(object.Number(42))
	c.Write(byte(object.OpConstant), 1)
	c.Write(byte(idx), 1)

	assert.Equal(t, []byte{byte(object.OpConstant), byte(idx)}, c.Code)
	assert.Equal(t, []int{1, 1}, c.Lines)
	assert.Equal(t, object.Number(42), c.Constants[idx])
}
