package account

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/taurusgroup/tss-account/pkg/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/protocol"
)

// SignLegacyTransaction signs a legacy transaction. With a positive chainID it is
// replay protected following EIP-155, otherwise it is signed with the Homestead rules.
//
// The V, R and S fields of tx are ignored.
func (a *Account) SignLegacyTransaction(ctx context.Context, tx *types.LegacyTx, chainID *big.Int) (*types.Transaction, error) {
	if tx == nil {
		return nil, protocol.Errorf(protocol.KindValidation, "legacy transaction", "nil transaction")
	}
	var (
		signer types.Signer = types.HomesteadSigner{}
		kind                = ecdsa.KindLegacy
	)
	if chainID != nil && chainID.Sign() > 0 {
		signer = types.NewEIP155Signer(chainID)
		kind = ecdsa.KindEIP155
	}

	unsigned := *tx
	unsigned.V, unsigned.R, unsigned.S = nil, nil, nil
	digest := signer.Hash(types.NewTx(&unsigned))

	sig, err := a.Sign(ctx, digest.Bytes(), kind, chainID)
	if err != nil {
		return nil, err
	}
	signed := unsigned
	signed.V, signed.R, signed.S = signatureValues(sig)
	return types.NewTx(&signed), nil
}

// SignTransaction signs an EIP-1559 transaction. tx.ChainID is required.
//
// The V, R and S fields of tx are ignored.
func (a *Account) SignTransaction(ctx context.Context, tx *types.DynamicFeeTx) (*types.Transaction, error) {
	if tx == nil || tx.ChainID == nil || tx.ChainID.Sign() <= 0 {
		return nil, protocol.Errorf(protocol.KindValidation, "transaction", "a positive chain id is required")
	}
	signer := types.NewLondonSigner(tx.ChainID)

	unsigned := *tx
	unsigned.V, unsigned.R, unsigned.S = nil, nil, nil
	digest := signer.Hash(types.NewTx(&unsigned))

	sig, err := a.Sign(ctx, digest.Bytes(), ecdsa.KindDynamicFee, tx.ChainID)
	if err != nil {
		return nil, err
	}
	signed := unsigned
	signed.V, signed.R, signed.S = signatureValues(sig)
	return types.NewTx(&signed), nil
}

// EncodeTransaction returns the 0x prefixed hex of the canonical encoding of tx, as
// accepted by eth_sendRawTransaction.
func EncodeTransaction(tx *types.Transaction) (string, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return "", protocol.NewError(protocol.KindEncoding, "encode transaction", err)
	}
	return hexutil.Encode(data), nil
}

func signatureValues(sig *ecdsa.Signature) (v, r, s *big.Int) {
	return new(big.Int).SetUint64(sig.V), curve.ScalarToBig(sig.R), curve.ScalarToBig(sig.S)
}
