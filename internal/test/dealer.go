package test

import (
	"io"
	"math/big"

	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/math/polynomial"
	"github.com/taurusgroup/tss-account/pkg/math/sample"
)

// Dealer holds a Shamir sharing of a random secp256k1 key.
//
// Shares are indexed by their evaluation point. The secret itself is kept so tests can
// check reconstructions against it, nothing outside of tests has a dealer.
type Dealer struct {
	Group     curve.Curve
	Secret    curve.Scalar
	PublicKey curve.Point
	Threshold int
	Shares    map[string]curve.Scalar
}

// Deal samples a key and shares it with a polynomial of degree threshold, so that any
// threshold+1 of the shares reconstruct it.
func Deal(group curve.Curve, threshold int, indexes []*big.Int, source io.Reader) *Dealer {
	secret := sample.Scalar(source, group)
	f := polynomial.NewPolynomial(group, threshold, secret, source)

	shares := make(map[string]curve.Scalar, len(indexes))
	for _, idx := range indexes {
		shares[idx.String()] = f.Evaluate(curve.ScalarFromBig(group, idx))
	}
	return &Dealer{
		Group:     group,
		Secret:    f.Constant(),
		PublicKey: secret.ActOnBase(),
		Threshold: int(f.Degree()),
		Shares:    shares,
	}
}

// Share returns the share at index, or nil.
func (d *Dealer) Share(index *big.Int) curve.Scalar {
	s, ok := d.Shares[index.String()]
	if !ok {
		return nil
	}
	return d.Group.NewScalar().Set(s)
}

// ShareHex returns the share at index in the hex form accounts are configured with.
func (d *Dealer) ShareHex(index *big.Int) string {
	return curve.ScalarHex(d.Share(index))
}

// Indexes converts plain integers to big.Int indexes.
func Indexes(xs ...int64) []*big.Int {
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = big.NewInt(x)
	}
	return out
}
