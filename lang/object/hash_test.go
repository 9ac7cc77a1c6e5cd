package object_test

import (
	"testing"

	"github.com/mna/tilleul/lang/object"
	"github.com/stretchr/testify/assert"
)

func TestHashStringIsDeterministic(t *testing.T) {
	assert.Equal(t, object.HashString("hello"), object.HashString("hello"))
	assert.NotEqual(t, object.HashString("hello"), object.HashString("world"))
}

func TestHashStringEmpty(t *testing.T) {
	assert.Equal(t, object.HashString(""), object.HashString(""))
}
