package polynomial

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/math/sample"
)

func TestPolynomial_Constant(t *testing.T) {
	group := curve.Secp256k1{}

	deg := 10
	secret := sample.Scalar(rand.Reader, group)
	poly := NewPolynomial(group, deg, secret, rand.Reader)
	require.True(t, poly.Constant().Equal(secret))
	require.EqualValues(t, deg, poly.Degree())
}

func TestPolynomial_Evaluate(t *testing.T) {
	group := curve.Secp256k1{}

	polynomial := &Polynomial{group, make([]curve.Scalar, 3)}
	polynomial.coefficients[0] = curve.ScalarFromUint64(group, 1)
	polynomial.coefficients[1] = curve.ScalarFromUint64(group, 0)
	polynomial.coefficients[2] = curve.ScalarFromUint64(group, 1)

	for index := 0; index < 100; index++ {
		x := uint64(mrand.Uint32())
		result := new(big.Int).SetUint64(x)
		result.Mul(result, result)
		result.Add(result, big.NewInt(1))
		computedResult := polynomial.Evaluate(curve.ScalarFromUint64(group, x))
		expectedResult := curve.ScalarFromBig(group, result)
		assert.True(t, expectedResult.Equal(computedResult))
	}
}

func TestPolynomial_EvaluateZeroPanics(t *testing.T) {
	group := curve.Secp256k1{}
	poly := NewPolynomial(group, 2, nil, rand.Reader)
	assert.Panics(t, func() { poly.Evaluate(group.NewScalar()) })
}
