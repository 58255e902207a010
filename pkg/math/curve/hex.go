package curve

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/cronokirby/saferith"
)

var ErrInvalidHex = errors.New("curve: invalid hex scalar")

// ScalarFromHex parses a hex encoded integer, with or without a 0x prefix and of any
// length, and reduces it modulo the order of the group.
//
// Shares and indexes are exchanged in this form, so "2" and "0002" decode to the same scalar.
func ScalarFromHex(group Curve, s string) (Scalar, error) {
	n, err := BigFromHex(s)
	if err != nil {
		return nil, err
	}
	return ScalarFromBig(group, n), nil
}

// BigFromHex parses a non-negative hex encoded integer, with or without a 0x prefix.
func BigFromHex(s string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidHex)
	}
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	return n, nil
}

// ScalarFromBig reduces a non-negative integer modulo the order of the group.
func ScalarFromBig(group Curve, n *big.Int) Scalar {
	nat := new(saferith.Nat).SetBig(n, n.BitLen())
	return group.NewScalar().SetNat(nat)
}

// ScalarFromUint64 returns x mod q.
func ScalarFromUint64(group Curve, x uint64) Scalar {
	return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(x))
}

// ScalarToBig returns the canonical integer in [0, q) representing s.
func ScalarToBig(s Scalar) *big.Int {
	data, err := s.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("curve: failed to marshal scalar: %v", err))
	}
	return new(big.Int).SetBytes(data)
}

// ScalarHex returns the lowercase hex representation of s, without leading zeros.
// The zero scalar is rendered as "0".
func ScalarHex(s Scalar) string {
	return ScalarToBig(s).Text(16)
}

func hexToBytes(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
