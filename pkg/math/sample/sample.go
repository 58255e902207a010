package sample

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func readBits(rand io.Reader, buf []byte) error {
	var err error
	for i := 0; i < maxIterations; i++ {
		if _, err = io.ReadFull(rand, buf); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrMaxIterations, err)
}

// ModN samples an element of ℤₙ by rejection sampling.
func ModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	out := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	for i := 0; i < maxIterations; i++ {
		if err := readBits(rand, buf); err != nil {
			return nil, err
		}
		out.SetBytes(buf)
		_, _, lt := out.CmpMod(n)
		if lt == 1 {
			return out, nil
		}
	}
	return nil, ErrMaxIterations
}

// Scalar returns a new uniformly random *curve.Scalar.
//
// It panics if rand fails repeatedly, use NonZeroScalar when the reader is caller supplied.
func Scalar(rand io.Reader, group curve.Curve) curve.Scalar {
	s, err := NonZeroScalar(rand, group)
	if err != nil {
		panic(err)
	}
	return s
}

// NonZeroScalar samples a scalar in [1, q).
func NonZeroScalar(rand io.Reader, group curve.Curve) (curve.Scalar, error) {
	for i := 0; i < maxIterations; i++ {
		n, err := ModN(rand, group.Order())
		if err != nil {
			return nil, err
		}
		s := group.NewScalar().SetNat(n)
		if !s.IsZero() {
			return s, nil
		}
	}
	return nil, errors.New("sample: reader only produced zero scalars")
}
