// Package vector provides the fixed-arity channel tuple used as the pixel type
// throughout the pipeline. Every operation works channel by channel; channels
// never interact.
package vector

import "math/cmplx"

// N is the number of channels carried by every pixel (R, G, B, A or their
// frequency-domain counterparts).
const N = 4

// Scalar is the set of element types a Vec can hold.
type Scalar interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

// Vec is a value-type tuple of N channels. Because the arity is part of the
// array type, two vectors of different lengths cannot be combined.
type Vec[T Scalar] struct {
	Data [N]T
}

// Cvec4 is the pixel representation of a sized image.
type Cvec4 = Vec[complex128]

// New creates a vector from an array of N elements.
func New[T Scalar](data [N]T) Vec[T] {
	return Vec[T]{Data: data}
}

// Default returns the all-zero vector.
func Default[T Scalar]() Vec[T] {
	return Vec[T]{}
}

// Splat returns a vector with every channel set to v.
func Splat[T Scalar](v T) Vec[T] {
	var out Vec[T]
	for i := range out.Data {
		out.Data[i] = v
	}
	return out
}

// Map applies f to every channel.
func (v Vec[T]) Map(f func(T) T) Vec[T] {
	for i := range v.Data {
		v.Data[i] = f(v.Data[i])
	}
	return v
}

// MapWith combines v and other channel by channel using f.
func (v Vec[T]) MapWith(other Vec[T], f func(T, T) T) Vec[T] {
	for i := range v.Data {
		v.Data[i] = f(v.Data[i], other.Data[i])
	}
	return v
}

// Add returns v + other.
func (v Vec[T]) Add(other Vec[T]) Vec[T] {
	return v.MapWith(other, func(a, b T) T { return a + b })
}

// Sub returns v - other.
func (v Vec[T]) Sub(other Vec[T]) Vec[T] {
	return v.MapWith(other, func(a, b T) T { return a - b })
}

// Mul returns the element-wise product of v and other.
func (v Vec[T]) Mul(other Vec[T]) Vec[T] {
	return v.MapWith(other, func(a, b T) T { return a * b })
}

// Div returns the element-wise quotient of v and other. Division by a zero
// channel follows Go's floating point rules (Inf or NaN).
func (v Vec[T]) Div(other Vec[T]) Vec[T] {
	return v.MapWith(other, func(a, b T) T { return a / b })
}

// Neg returns -v.
func (v Vec[T]) Neg() Vec[T] {
	return v.Map(func(a T) T { return -a })
}

// Scale multiplies every channel by s.
func (v Vec[T]) Scale(s T) Vec[T] {
	return v.Mul(Splat(s))
}

// Conj returns the complex conjugate of every channel.
func Conj(v Cvec4) Cvec4 {
	return v.Map(cmplx.Conj)
}

// AbsSq returns |x|^2 of every channel as a real-valued complex.
func AbsSq(v Cvec4) Cvec4 {
	return v.Map(func(c complex128) complex128 {
		return complex(real(c)*real(c)+imag(c)*imag(c), 0)
	})
}

// Real extracts the real part of every channel.
func Real(v Cvec4) [N]float64 {
	var out [N]float64
	for i, c := range v.Data {
		out[i] = real(c)
	}
	return out
}

// FromReal builds a complex vector with the given real parts.
func FromReal(r [N]float64) Cvec4 {
	var out Cvec4
	for i, x := range r {
		out.Data[i] = complex(x, 0)
	}
	return out
}
