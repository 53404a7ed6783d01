package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestArithmetic verifies that every operator works strictly per channel
func TestArithmetic(t *testing.T) {
	a := New([N]float64{1, 2, 3, 4})
	b := New([N]float64{4, 3, 2, 1})

	assert.Equal(t, [N]float64{5, 5, 5, 5}, a.Add(b).Data)
	assert.Equal(t, [N]float64{-3, -1, 1, 3}, a.Sub(b).Data)
	assert.Equal(t, [N]float64{4, 6, 6, 4}, a.Mul(b).Data)
	assert.Equal(t, [N]float64{0.25, 2.0 / 3.0, 1.5, 4}, a.Div(b).Data)
	assert.Equal(t, [N]float64{-1, -2, -3, -4}, a.Neg().Data)

	// Operands are values; nothing above may have changed them
	assert.Equal(t, [N]float64{1, 2, 3, 4}, a.Data)
}

// TestDefaultIsZero checks the zero vector for real and complex element types
func TestDefaultIsZero(t *testing.T) {
	assert.Equal(t, [N]float32{}, Default[float32]().Data)
	assert.Equal(t, [N]complex128{}, Default[complex128]().Data)
}

// TestMap checks unary and binary maps
func TestMap(t *testing.T) {
	v := New([N]float64{1, 2, 3, 4})
	sq := v.Map(func(x float64) float64 { return x * x })
	assert.Equal(t, [N]float64{1, 4, 9, 16}, sq.Data)

	maxed := v.MapWith(Splat(2.5), func(x, y float64) float64 {
		if x > y {
			return x
		}
		return y
	})
	assert.Equal(t, [N]float64{2.5, 2.5, 3, 4}, maxed.Data)
}

// TestComplexHelpers covers conjugation, squared magnitude and real extraction
func TestComplexHelpers(t *testing.T) {
	v := New([N]complex128{complex(3, 4), complex(0, -1), 2, complex(-1, 1)})

	assert.Equal(t, [N]complex128{complex(3, -4), complex(0, 1), 2, complex(-1, -1)}, Conj(v).Data)
	assert.Equal(t, [N]complex128{25, 1, 4, 2}, AbsSq(v).Data)
	assert.Equal(t, [N]float64{3, 0, 2, -1}, Real(v))
	assert.Equal(t, v.Mul(Conj(v)).Data, AbsSq(v).Data)

	back := FromReal([N]float64{1, 2, 3, 4})
	assert.Equal(t, [N]complex128{1, 2, 3, 4}, back.Data)
	assert.Equal(t, [N]complex128{2, 4, 6, 8}, back.Scale(2).Data)
}
