package polynomial

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/tss-account/pkg/math/curve"
)

var (
	ErrEmptyDomain    = errors.New("polynomial: empty interpolation domain")
	ErrZeroIndex      = errors.New("polynomial: index is zero")
	ErrIndexCollision = errors.New("polynomial: duplicate index in interpolation domain")
)

// Lagrange returns the Lagrange coefficients at 0 for all points in the interpolation domain,
// in the same order as the domain.
//
// The domain must consist of distinct non-zero scalars, otherwise one of the denominators
// vanishes and an error is returned.
func Lagrange(group curve.Curve, interpolationDomain []curve.Scalar) ([]curve.Scalar, error) {
	if err := validateDomain(interpolationDomain); err != nil {
		return nil, err
	}

	// numerator = x₀ * … * xₖ
	numerator := curve.ScalarFromUint64(group, 1)
	for _, xI := range interpolationDomain {
		numerator.Mul(xI)
	}

	coefficients := make([]curve.Scalar, len(interpolationDomain))
	for j := range interpolationDomain {
		coefficients[j] = lagrange(group, interpolationDomain, numerator, j)
	}
	return coefficients, nil
}

// LagrangeSingle returns the lagrange coefficient at 0 of the j-th point of the domain.
func LagrangeSingle(group curve.Curve, interpolationDomain []curve.Scalar, j int) (curve.Scalar, error) {
	if j < 0 || j >= len(interpolationDomain) {
		return nil, fmt.Errorf("polynomial: index %d out of range [0, %d)", j, len(interpolationDomain))
	}
	coefficients, err := Lagrange(group, interpolationDomain)
	if err != nil {
		return nil, err
	}
	return coefficients[j], nil
}

func validateDomain(interpolationDomain []curve.Scalar) error {
	if len(interpolationDomain) == 0 {
		return ErrEmptyDomain
	}
	for i, xI := range interpolationDomain {
		if xI.IsZero() {
			return fmt.Errorf("%w: position %d", ErrZeroIndex, i)
		}
		for k := 0; k < i; k++ {
			if interpolationDomain[k].Equal(xI) {
				return fmt.Errorf("%w: positions %d and %d", ErrIndexCollision, k, i)
			}
		}
	}
	return nil
}

// lagrange returns the Lagrange coefficient lⱼ(0), for j in the interpolation domain.
// The numerator is provided beforehand for efficiency reasons.
//
// The following formulas are taken from
// https://en.wikipedia.org/wiki/Lagrange_polynomial
//
//	                 x₀ ⋅⋅⋅ xₖ
//	lⱼ(0) =	--------------------------------------------------
//	        xⱼ⋅(x₀ - xⱼ)⋅⋅⋅(xⱼ₋₁ - xⱼ)⋅(xⱼ₊₁ - xⱼ)⋅⋅⋅(xₖ - xⱼ).
func lagrange(group curve.Curve, interpolationDomain []curve.Scalar, numerator curve.Scalar, j int) curve.Scalar {
	xJ := interpolationDomain[j]
	tmp := group.NewScalar()

	// denominator = xⱼ⋅(x₀ - xⱼ)⋅⋅⋅(xⱼ₋₁ - xⱼ)⋅(xⱼ₊₁ - xⱼ)⋅⋅⋅(xₖ - xⱼ)
	denominator := curve.ScalarFromUint64(group, 1)
	for i, xI := range interpolationDomain {
		if i == j {
			// lⱼ *= xⱼ
			denominator.Mul(xJ)
			continue
		}
		// tmp = xᵢ - xⱼ
		tmp.Set(xI).Sub(xJ)
		// lⱼ *= xᵢ - xⱼ
		denominator.Mul(tmp)
	}

	// lⱼ = numerator/denominator
	lJ := denominator.Invert()
	lJ.Mul(numerator)
	return lJ
}
