package account

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/tss-account/internal/params"
	"github.com/taurusgroup/tss-account/pkg/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/hash"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/math/polynomial"
	"github.com/taurusgroup/tss-account/pkg/party"
	"github.com/taurusgroup/tss-account/pkg/protocol"
	"github.com/taurusgroup/tss-account/pkg/session"
)

// Account is an Ethereum account whose key is shared between this client and a set of
// remote co-signers.
//
// Signatures are produced one at a time: concurrent calls on the same Account wait for
// each other, each running its own session.
type Account struct {
	params *Params
	dialer protocol.Dialer

	group     curve.Curve
	publicKey curve.Point
	address   common.Address
	share     curve.Scalar
	index     *big.Int

	log       zerolog.Logger
	assembler session.Assembler
	timeouts  protocol.Timeouts
	parties   int

	// mtx serializes signing sessions
	mtx sync.Mutex
	// sendMtx serializes nonce lookup through broadcast in SignAndSendTransaction
	sendMtx sync.Mutex
}

// New validates params and creates the Account. dialer connects to the protocol engine.
func New(p Params, dialer protocol.Dialer, opts ...Option) (*Account, error) {
	const op = "new account"
	o := options{
		log:      zerolog.Nop(),
		rand:     rand.Reader,
		clock:    time.Now,
		timeouts: protocol.DefaultTimeouts(),
		parties:  party.DefaultParties,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if dialer == nil {
		return nil, protocol.Errorf(protocol.KindValidation, op, "no dialer")
	}
	if err := p.Validate(); err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	if o.parties < 2 || len(p.NodeIndexes) > o.parties-1 {
		return nil, protocol.Errorf(protocol.KindValidation, op, "%d node indexes for %d parties", len(p.NodeIndexes), o.parties)
	}

	group := curve.Secp256k1{}
	publicKey, err := ecdsa.ParsePublicKeyHex(p.PublicKey)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	address, err := DeriveAddress(publicKey)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	share, err := curve.ScalarFromHex(group, p.TSSShare)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	index, err := curve.BigFromHex(p.TSSIndex)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	// fail on index collisions now rather than on the first signature
	if _, err = polynomial.LocalCoefficient(group, p.NodeIndexes, index); err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}

	a := &Account{
		params:    p.Clone(),
		dialer:    dialer,
		group:     group,
		publicKey: publicKey,
		address:   address,
		share:     share,
		index:     index,
		assembler: session.Assembler{Rand: o.rand, Now: o.clock},
		timeouts:  o.timeouts,
		parties:   o.parties,
	}
	a.log = o.log.With().Str("address", address.Hex()).Logger()
	return a, nil
}

// Address returns the Ethereum address of the account.
func (a *Account) Address() common.Address {
	return a.address
}

// PublicKey returns the account key.
func (a *Account) PublicKey() curve.Point {
	return a.publicKey
}

// Params returns a copy of the parameters the account was created with.
func (a *Account) Params() *Params {
	return a.params.Clone()
}

// Sign runs a signing session over digest and finalizes the signature with the
// recovery id convention of kind. chainID is only read for ecdsa.KindEIP155.
func (a *Account) Sign(ctx context.Context, digest []byte, kind ecdsa.Kind, chainID *big.Int) (*ecdsa.Signature, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	const op = "prepare session"
	p := a.params
	self := party.ID(a.parties - 1)
	top, err := party.BuildTopology(a.parties, self, p.TSSEndpoints)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	coefficients, err := polynomial.ServerCoefficients(a.group, p.NodeIndexes, a.index)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	share, err := polynomial.DenormalizeShare(a.group, p.NodeIndexes, a.index, a.group.NewScalar().Set(a.share))
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}
	id, err := a.assembler.Assemble(p.Verifier, p.VerifierID, p.SelectedTag, p.TSSNonce)
	if err != nil {
		return nil, protocol.NewError(protocol.KindValidation, op, err)
	}

	client, err := protocol.NewClient(protocol.ClientConfig{
		Session:      id,
		Topology:     top,
		Coefficients: coefficients,
		Share:        share,
		PublicKey:    a.publicKey,
		Auth:         p.AuthSigs,
		Dialer:       a.dialer,
		Timeouts:     a.timeouts,
		Log:          &a.log,
	})
	if err != nil {
		return nil, err
	}

	raw, err := client.Sign(ctx, digest)
	if err != nil {
		return nil, err
	}
	sig, err := protocol.Finalize(digest, raw, a.publicKey, chainID, kind)
	if err != nil {
		client.Log.Error().Err(err).Msg("rejected signature")
		return nil, err
	}
	if sig.IsHighS() {
		client.Log.Warn().Stringer("kind", kind).Msg("signature has a high s value")
	}
	client.Log.Info().Stringer("kind", kind).Msg("signed")
	return sig, nil
}

// SignMessage signs text with the personal message convention and returns the
// 0x prefixed hex of r ∥ s ∥ v, where v is 27 or 28.
func (a *Account) SignMessage(ctx context.Context, text string) (string, error) {
	sig, err := a.Sign(ctx, hash.TextHash([]byte(text)), ecdsa.KindMessage, nil)
	if err != nil {
		return "", err
	}
	return sig.Hex(), nil
}

// SignTypedData signs an EIP-712 typed data document given as JSON.
func (a *Account) SignTypedData(ctx context.Context, data []byte) (string, error) {
	const op = "typed data"
	var typedData apitypes.TypedData
	if err := json.Unmarshal(data, &typedData); err != nil {
		return "", protocol.NewError(protocol.KindEncoding, op, err)
	}
	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", protocol.NewError(protocol.KindEncoding, op, err)
	}
	sig, err := a.Sign(ctx, digest, ecdsa.KindMessage, nil)
	if err != nil {
		return "", err
	}
	return sig.Hex(), nil
}

// DeriveAddress returns the Ethereum address of a public key, the last 20 bytes of
// the keccak-256 digest of its coordinates.
func DeriveAddress(X curve.Point) (common.Address, error) {
	coordinates, err := ecdsa.Coordinates(X)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(hash.Keccak256(coordinates)[params.BytesDigest-params.BytesAddress:]), nil
}

// AddressFromHex is DeriveAddress for a public key in hex.
func AddressFromHex(publicKey string) (common.Address, error) {
	X, err := ecdsa.ParsePublicKeyHex(publicKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("account: %w", err)
	}
	return DeriveAddress(X)
}
