package ecdsa

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/taurusgroup/tss-account/internal/params"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
)

var ErrInvalidPublicKey = errors.New("ecdsa: invalid public key")

// ParsePublicKey decodes an uncompressed secp256k1 point, either the 64 coordinate bytes
// or the 65 byte form with its leading 0x04.
func ParsePublicKey(data []byte) (curve.Point, error) {
	var full []byte
	switch len(data) {
	case params.BytesCoordinates:
		full = append([]byte{secp256k1.PubKeyFormatUncompressed}, data...)
	case params.BytesUncompressedPoint:
		if data[0] != secp256k1.PubKeyFormatUncompressed {
			return nil, fmt.Errorf("%w: format byte 0x%02x", ErrInvalidPublicKey, data[0])
		}
		full = data
	default:
		return nil, fmt.Errorf("%w: length %d", ErrInvalidPublicKey, len(data))
	}

	pub, err := secp256k1.ParsePubKey(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return FromPublicKey(pub), nil
}

// ParsePublicKeyHex decodes a public key given as 128 or 130 hex characters.
func ParsePublicKeyHex(s string) (curve.Point, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 2*params.BytesCoordinates && len(s) != 2*params.BytesUncompressedPoint {
		return nil, fmt.Errorf("%w: %d hex characters", ErrInvalidPublicKey, len(s))
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return ParsePublicKey(data)
}

// FromPublicKey converts a decred public key to a curve.Point.
func FromPublicKey(pub *secp256k1.PublicKey) curve.Point {
	p := curve.Secp256k1{}.NewPoint()
	if err := p.UnmarshalBinary(pub.SerializeCompressed()); err != nil {
		// a parsed public key is always on the curve
		panic(fmt.Sprintf("ecdsa: failed to convert public key: %v", err))
	}
	return p
}

// PublicKey converts a curve.Point back to a decred public key.
func PublicKey(p curve.Point) (*secp256k1.PublicKey, error) {
	point, ok := p.(*curve.Secp256k1Point)
	if !ok || point.IsIdentity() {
		return nil, ErrInvalidPublicKey
	}
	return point.PublicKey(), nil
}

// Coordinates returns the x and y coordinates of p, 32 bytes each, without a format byte.
//
// This is both the input of the Ethereum address derivation and the form the protocol
// engine expects.
func Coordinates(p curve.Point) ([]byte, error) {
	pub, err := PublicKey(p)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed()[1:], nil
}
