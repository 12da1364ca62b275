package opt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSome(t *testing.T) {
	m := Some(3)
	assert.True(t, m.IsDefined())
	assert.Equal(t, 3, m.Value())
	assert.Equal(t, 3, m.OrElse(4))
	assert.Equal(t, "3", m.String())
}

func TestSomeZeroValueIsStillDefined(t *testing.T) {
	m := Some("")
	assert.True(t, m.IsDefined())
	assert.Equal(t, "", m.OrElse("x"))
}

func TestNone(t *testing.T) {
	m := None[int]()
	assert.False(t, m.IsDefined())
	assert.Equal(t, 0, m.Value())
	assert.Equal(t, 4, m.OrElse(4))
	assert.Equal(t, "[none]", m.String())
	assert.Equal(t, m, Maybe[int]{})
}

func TestStringUsesStringer(t *testing.T) {
	assert.Equal(t, "1s", Some(time.Second).String())
}
