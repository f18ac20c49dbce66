package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailable(t *testing.T) {
	s := &Session{BaseMass: 100, BaseCount: 1000}

	a := Available(s, 30, 250)
	assert.InDelta(t, 70, a.Mass, 1e-9)
	assert.EqualValues(t, 750, a.Count)

	// Removals can exceed the running balance; availability floors at zero.
	a = Available(s, 130, 1200)
	assert.Zero(t, a.Mass)
	assert.Zero(t, a.Count)

	a = Available(s, 0, 0)
	assert.InDelta(t, 100, a.Mass, 1e-9)
	assert.EqualValues(t, 1000, a.Count)
}
