package curve

import (
	"encoding"

	"github.com/cronokirby/saferith"
)

// Curve represents the prime-order group used for signing.
type Curve interface {
	// NewPoint returns the identity element of the group.
	NewPoint() Point
	// NewBasePoint returns the standard generator of the group.
	NewBasePoint() Point
	// NewScalar returns the zero scalar.
	NewScalar() Scalar
	// Name returns the name of this curve.
	Name() string
	// ScalarBits returns the number of significant bits in a scalar.
	ScalarBits() int
	// SafeScalarBytes returns the number of random bytes needed to sample a scalar
	// through modular reduction with negligible bias.
	SafeScalarBytes() int
	// Order returns a Modulus holding order of this group.
	Order() *saferith.Modulus
}

// Scalar represents a number modulo the order of some group.
//
// Operations mutate the receiver and return it, so that they can be chained.
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	// Curve returns the group this scalar belongs to.
	Curve() Curve
	// Add mutates this scalar, replacing it with the sum of itself and another.
	Add(Scalar) Scalar
	// Sub mutates this scalar, replacing it with the difference of itself and another.
	Sub(Scalar) Scalar
	// Mul mutates this scalar, replacing it with the product of itself and another.
	Mul(Scalar) Scalar
	// Invert mutates this scalar, replacing it with its multiplicative inverse.
	// The inverse of zero is zero, callers must check IsZero beforehand.
	Invert() Scalar
	// Negate mutates this scalar, replacing it with its additive inverse.
	Negate() Scalar
	// IsOverHalfOrder returns true if this scalar is > order/2.
	IsOverHalfOrder() bool
	// Equal checks if this scalar is equal to another.
	Equal(Scalar) bool
	// IsZero checks if this scalar is equal to zero.
	IsZero() bool
	// Set mutates this scalar, replacing it with the value of another.
	Set(Scalar) Scalar
	// SetNat mutates this scalar, replacing it with the value of a number,
	// reduced modulo the order.
	SetNat(*saferith.Nat) Scalar
	// Act acts on a Point with this Scalar, returning a new Point.
	Act(Point) Point
	// ActOnBase acts on the base point with this Scalar, returning a new Point.
	ActOnBase() Point
}

// Point represents an element of the group.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	// Curve returns the group this point belongs to.
	Curve() Curve
	// Add returns a new Point, the sum of this point and another.
	Add(Point) Point
	// Sub returns a new Point, the difference of this point and another.
	Sub(Point) Point
	// Set mutates this point, replacing it with a copy of another.
	Set(Point) Point
	// Negate returns the negation of this point.
	Negate() Point
	// Equal checks if this point is equal to another.
	Equal(Point) bool
	// IsIdentity checks if this is the identity element of this group.
	IsIdentity() bool
}
