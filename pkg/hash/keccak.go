package hash

import (
	"encoding/base64"
	"strconv"

	"golang.org/x/crypto/sha3"
)

const personalMessagePrefix = "\x19Ethereum Signed Message:\n"

// Keccak256 returns the legacy Keccak-256 digest of the concatenation of data,
// as used throughout Ethereum.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		_, _ = h.Write(b)
	}
	return h.Sum(nil)
}

// TextHash returns the digest signed by personal_sign:
//
//	keccak256("\x19Ethereum Signed Message:\n" ∥ len(message) ∥ message)
func TextHash(message []byte) []byte {
	prefix := personalMessagePrefix + strconv.Itoa(len(message))
	return Keccak256([]byte(prefix), message)
}

// Base64 encodes a digest the way the protocol engine expects it on the wire.
func Base64(digest []byte) string {
	return base64.StdEncoding.EncodeToString(digest)
}

// Base64URL encodes a digest as URL safe base64 without padding.
func Base64URL(digest []byte) string {
	return base64.RawURLEncoding.EncodeToString(digest)
}
