package hash

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the length of the output of Sum.
const DigestLengthBytes = 64

// Hash is a domain separated transcript hash.
//
// It is used for identifiers and fingerprints that stay local to this library; anything
// that must match Ethereum conventions goes through Keccak256 instead.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct where the internal hash function is initialized with domain.
func New(domain string) *Hash {
	hash := &Hash{h: blake3.New()}
	_ = writeWithDomain(hash.h, BytesWithDomain{TheDomain: "Hash", Bytes: []byte(domain)})
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// Fingerprint returns the first n bytes of the digest, hex encoded.
func (hash *Hash) Fingerprint(n int) string {
	if n <= 0 || n > DigestLengthBytes {
		n = DigestLengthBytes
	}
	return hex.EncodeToString(hash.Sum()[:n])
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - string
//   - *big.Int
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first three types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		var err error
		switch t := d.(type) {
		case []byte:
			err = writeWithDomain(hash.h, BytesWithDomain{TheDomain: "[]byte", Bytes: t})
		case string:
			err = writeWithDomain(hash.h, BytesWithDomain{TheDomain: "string", Bytes: []byte(t)})
		case *big.Int:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *big.Int: nil")
			}
			if t.Sign() < 0 {
				return fmt.Errorf("hash.Hash: write *big.Int: negative")
			}
			err = writeWithDomain(hash.h, BytesWithDomain{TheDomain: "big.Int", Bytes: t.Bytes()})
		case WriterToWithDomain:
			err = writeWithDomain(hash.h, t)
		default:
			return fmt.Errorf("hash.Hash: unsupported type %T", d)
		}
		if err != nil {
			return fmt.Errorf("hash.Hash: write %T: %w", d, err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

// WriterToWithDomain represents a type writing itself, and knowing its domain.
//
// Providing a domain string lets us distinguish the output of different types
// implementing this same interface.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, which should be unique for each implementor
	Domain() string
}

// writeWithDomain writes out `(<domain><length><data>)`.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	if _, err := w.Write([]byte("(" + object.Domain())); err != nil {
		return err
	}
	if _, err := object.WriteTo(w); err != nil {
		return err
	}
	_, err := w.Write([]byte(")"))
	return err
}

// BytesWithDomain annotates a chunk of data with a domain.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo, the data is length prefixed.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	length := big.NewInt(int64(len(b.Bytes))).Bytes()
	n0, err := w.Write(append([]byte{byte(len(length))}, length...))
	if err != nil {
		return int64(n0), err
	}
	n1, err := w.Write(b.Bytes)
	return int64(n0 + n1), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}
