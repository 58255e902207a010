package account

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/taurusgroup/tss-account/internal/params"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
)

var ErrInvalidParams = errors.New("account: invalid params")

// Params is the key material and session metadata of a threshold account.
type Params struct {
	// PublicKey is the uncompressed account key, 128 or 130 hex characters.
	PublicKey string
	// FactorKey is the device's blinding key. It is held alongside the share but
	// not used for signing.
	FactorKey string
	// TSSNonce is the key refresh epoch, bumped externally on every refresh.
	TSSNonce int
	// TSSShare is the local share, hex encoded.
	TSSShare string
	// TSSIndex is the evaluation point of the local share, hex encoded.
	TSSIndex    string
	SelectedTag string
	Verifier    string
	VerifierID  string
	// NodeIndexes are the evaluation points of the co-signers' shares, in the order
	// of TSSEndpoints.
	NodeIndexes []*big.Int
	// TSSEndpoints are the http endpoints of the co-signers. The entry of the local
	// party, which is last, is ignored.
	TSSEndpoints []string
	// AuthSigs are opaque signed assertions forwarded to the co-signers.
	AuthSigs []string
}

// DefaultNodeIndexes are the evaluation points of a standard three node deployment.
func DefaultNodeIndexes() []*big.Int {
	return []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}
}

// Validate checks the format of every field. It does not check that the share
// belongs to the public key, which only the co-signers can establish.
func (p *Params) Validate() error {
	pub := strings.TrimPrefix(p.PublicKey, "0x")
	if len(pub) < 2*params.BytesCoordinates || len(pub) > 2*params.BytesUncompressedPoint {
		return fmt.Errorf("%w: public key should be in uncompressed format, got %d hex characters", ErrInvalidParams, len(pub))
	}
	share, err := curve.BigFromHex(p.TSSShare)
	if err != nil {
		return fmt.Errorf("%w: share: %v", ErrInvalidParams, err)
	}
	if share.Sign() == 0 {
		return fmt.Errorf("%w: zero share", ErrInvalidParams)
	}
	index, err := curve.BigFromHex(p.TSSIndex)
	if err != nil {
		return fmt.Errorf("%w: index: %v", ErrInvalidParams, err)
	}
	if index.Sign() == 0 {
		return fmt.Errorf("%w: zero index", ErrInvalidParams)
	}
	if len(p.NodeIndexes) == 0 {
		return fmt.Errorf("%w: no node indexes", ErrInvalidParams)
	}
	for _, idx := range p.NodeIndexes {
		if idx == nil || idx.Sign() <= 0 {
			return fmt.Errorf("%w: node index %v", ErrInvalidParams, idx)
		}
	}
	if p.Verifier == "" || p.VerifierID == "" {
		return fmt.Errorf("%w: missing verifier", ErrInvalidParams)
	}
	if p.TSSNonce < 0 {
		return fmt.Errorf("%w: negative nonce", ErrInvalidParams)
	}
	return nil
}

// Clone returns a deep copy of p.
func (p *Params) Clone() *Params {
	out := *p
	out.NodeIndexes = make([]*big.Int, len(p.NodeIndexes))
	for i, idx := range p.NodeIndexes {
		if idx != nil {
			out.NodeIndexes[i] = new(big.Int).Set(idx)
		}
	}
	out.TSSEndpoints = append([]string(nil), p.TSSEndpoints...)
	out.AuthSigs = append([]string(nil), p.AuthSigs...)
	return &out
}
