package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDotted(t *testing.T) {
	assert.Equal(t, Path{"a", "b"}, Dotted("a.b"))
	assert.True(t, Dotted("").IsRoot())
	assert.Equal(t, "this", Dotted("").String())
	assert.Equal(t, "a", Dotted("a.b.c").Root())
	assert.Equal(t, "c", Dotted("a.b.c").Leaf())
}

func TestPrefix(t *testing.T) {
	p := Dotted("a.b.c")
	assert.True(t, p.HasPrefix(Dotted("a.b")))
	assert.True(t, p.HasPrefix(p))
	assert.False(t, p.HasStrictPrefix(p))
	assert.False(t, p.HasPrefix(Dotted("b")))
}

func TestDottedList(t *testing.T) {
	l := DottedList("a, b.c")
	assert.Equal(t, "a,b.c", l.String())
	assert.True(t, l.Has(Dotted("b.c")))
	assert.False(t, l.Has(Dotted("b")))
}
