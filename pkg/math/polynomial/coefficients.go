package polynomial

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/taurusgroup/tss-account/pkg/math/curve"
)

// CoefficientMap maps the decimal index of each remote party to its hex encoded
// Lagrange coefficient. It is sent to the co-signers during precompute.
type CoefficientMap map[string]string

// signingDomain returns remote ∪ {local} as scalars, with the local index last.
func signingDomain(group curve.Curve, remote []*big.Int, local *big.Int) ([]curve.Scalar, error) {
	if len(remote) == 0 {
		return nil, fmt.Errorf("%w: no remote parties", ErrEmptyDomain)
	}
	if local == nil {
		return nil, errors.New("polynomial: nil local index")
	}
	domain := make([]curve.Scalar, 0, len(remote)+1)
	for _, idx := range append(append([]*big.Int{}, remote...), local) {
		if idx == nil {
			return nil, errors.New("polynomial: nil remote index")
		}
		if idx.Sign() < 0 {
			return nil, fmt.Errorf("polynomial: negative index %s", idx)
		}
		domain = append(domain, curve.ScalarFromBig(group, idx))
	}
	if err := validateDomain(domain); err != nil {
		return nil, err
	}
	return domain, nil
}

// ServerCoefficients returns, for each remote index k, Lₖ = ∏_{j≠k} j/(j-k) mod q,
// where j ranges over the remote indexes and the local index.
func ServerCoefficients(group curve.Curve, remote []*big.Int, local *big.Int) (CoefficientMap, error) {
	domain, err := signingDomain(group, remote, local)
	if err != nil {
		return nil, err
	}
	coefficients, err := Lagrange(group, domain)
	if err != nil {
		return nil, err
	}
	out := make(CoefficientMap, len(remote))
	for i, idx := range remote {
		out[idx.String()] = curve.ScalarHex(coefficients[i])
	}
	return out, nil
}

// LocalCoefficient returns L = ∏_{j ∈ remote} j/(j-local) mod q.
func LocalCoefficient(group curve.Curve, remote []*big.Int, local *big.Int) (curve.Scalar, error) {
	domain, err := signingDomain(group, remote, local)
	if err != nil {
		return nil, err
	}
	return LagrangeSingle(group, domain, len(domain)-1)
}

// DenormalizeShare scales the local share by its Lagrange coefficient for this signing set,
// so that the co-signers' scaled shares and the result sum to the secret key.
//
// It must be recomputed whenever the set of remote parties changes.
func DenormalizeShare(group curve.Curve, remote []*big.Int, local *big.Int, share curve.Scalar) (curve.Scalar, error) {
	l, err := LocalCoefficient(group, remote, local)
	if err != nil {
		return nil, err
	}
	return l.Mul(share), nil
}
