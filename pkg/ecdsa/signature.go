package ecdsa

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decred "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/taurusgroup/tss-account/internal/params"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
)

const compactMagicOffset = 27

var (
	ErrInvalidSignature  = errors.New("ecdsa: invalid signature")
	ErrInvalidRecoveryID = errors.New("ecdsa: invalid recovery id")
	ErrRecoveryMismatch  = errors.New("ecdsa: recovered public key does not match")
)

// Signature is an ECDSA signature over secp256k1 together with its recovery id.
//
// V holds the raw recovery id {0, 1} as produced by the signers, or a value transformed
// by Normalize. R and S are never modified after creation.
type Signature struct {
	R curve.Scalar
	S curve.Scalar
	V uint64
}

// NewSignature creates a Signature from big-endian r and s of at most 32 bytes.
// Both must lie in [1, n).
func NewSignature(r, s []byte, v uint64) (*Signature, error) {
	R, err := parseComponent(r)
	if err != nil {
		return nil, fmt.Errorf("%w: r: %v", ErrInvalidSignature, err)
	}
	S, err := parseComponent(s)
	if err != nil {
		return nil, fmt.Errorf("%w: s: %v", ErrInvalidSignature, err)
	}
	return &Signature{R: R, S: S, V: v}, nil
}

// ParseCompact decodes the 65 byte compact form [27 + v (+4)] ∥ r ∥ s.
func ParseCompact(data []byte) (*Signature, error) {
	if len(data) != params.BytesSignature {
		return nil, fmt.Errorf("%w: compact length %d", ErrInvalidSignature, len(data))
	}
	code := int(data[0]) - compactMagicOffset
	if code >= 4 {
		code -= 4
	}
	if code < 0 || code > 1 {
		return nil, fmt.Errorf("%w: compact header 0x%02x", ErrInvalidRecoveryID, data[0])
	}
	return NewSignature(data[1:33], data[33:], uint64(code))
}

func parseComponent(b []byte) (curve.Scalar, error) {
	if len(b) > params.BytesScalar {
		return nil, fmt.Errorf("length %d", len(b))
	}
	padded := make([]byte, params.BytesScalar)
	copy(padded[params.BytesScalar-len(b):], b)
	x := curve.Secp256k1{}.NewScalar()
	if err := x.UnmarshalBinary(padded); err != nil {
		return nil, err
	}
	if x.IsZero() {
		return nil, errors.New("zero")
	}
	return x, nil
}

func (sig *Signature) modN() (r, s *secp256k1.ModNScalar, err error) {
	if sig == nil || sig.R == nil || sig.S == nil || sig.R.IsZero() || sig.S.IsZero() {
		return nil, nil, ErrInvalidSignature
	}
	r, s = new(secp256k1.ModNScalar), new(secp256k1.ModNScalar)
	rb, _ := sig.R.MarshalBinary()
	sb, _ := sig.S.MarshalBinary()
	r.SetByteSlice(rb)
	s.SetByteSlice(sb)
	return r, s, nil
}

// Verify returns true if (R, S) is a valid signature of digest under X.
//
// The recovery id is not taken into account.
func (sig *Signature) Verify(X curve.Point, digest []byte) bool {
	pub, err := PublicKey(X)
	if err != nil {
		return false
	}
	r, s, err := sig.modN()
	if err != nil {
		return false
	}
	return decred.NewSignature(r, s).Verify(digest, pub)
}

// IsHighS reports whether S is above half the group order. Such signatures verify but
// are rejected by Ethereum transaction validation.
func (sig *Signature) IsHighS() bool {
	return sig.S != nil && sig.S.IsOverHalfOrder()
}

// RecoverPublicKey returns the public key designated by the raw recovery id.
// V must be 0 or 1, or the personal-message form 27 or 28.
func (sig *Signature) RecoverPublicKey(digest []byte) (curve.Point, error) {
	return sig.RecoverPublicKeyFor(digest, KindMessage, nil)
}

// RecoverPublicKeyFor is RecoverPublicKey where V may also follow the convention of
// kind, such as the chain bound form of KindEIP155.
func (sig *Signature) RecoverPublicKeyFor(digest []byte, kind Kind, chainID *big.Int) (curve.Point, error) {
	v, err := RawRecoveryID(sig.V, kind, chainID)
	if err != nil {
		return nil, err
	}
	compact, err := sig.compact(v)
	if err != nil {
		return nil, err
	}
	pub, _, err := decred.RecoverCompact(compact, digest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return FromPublicKey(pub), nil
}

func (sig *Signature) compact(v uint64) ([]byte, error) {
	if _, _, err := sig.modN(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, params.BytesSignature)
	out = append(out, byte(compactMagicOffset+v))
	rb, _ := sig.R.MarshalBinary()
	sb, _ := sig.S.MarshalBinary()
	out = append(out, rb...)
	return append(out, sb...), nil
}

// Bytes returns r ∥ s ∥ v.
//
// r and s are 32 bytes each. v is a single byte when it fits in one, which is always
// the case for messages, legacy and EIP-1559 transactions. A large EIP-155 v is written
// in minimal big-endian form.
func (sig *Signature) Bytes() []byte {
	out := make([]byte, 0, params.BytesSignature)
	rb, _ := sig.R.MarshalBinary()
	sb, _ := sig.S.MarshalBinary()
	out = append(out, rb...)
	out = append(out, sb...)
	if sig.V <= 0xff {
		return append(out, byte(sig.V))
	}
	var vb []byte
	for v := sig.V; v > 0; v >>= 8 {
		vb = append([]byte{byte(v)}, vb...)
	}
	return append(out, vb...)
}

// Hex returns Bytes as 0x prefixed lowercase hex.
func (sig *Signature) Hex() string {
	return "0x" + hex.EncodeToString(sig.Bytes())
}

// Clone returns a deep copy of sig.
func (sig *Signature) Clone() *Signature {
	return &Signature{
		R: sig.R.Curve().NewScalar().Set(sig.R),
		S: sig.S.Curve().NewScalar().Set(sig.S),
		V: sig.V,
	}
}
