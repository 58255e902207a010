package account

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/taurusgroup/tss-account/pkg/protocol"
)

// transferGas is the gas used by a transfer without calldata.
const transferGas = 21000

// Backend is the part of an Ethereum RPC client needed to send transactions.
// It is satisfied by *ethclient.Client.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

var _ Backend = (*ethclient.Client)(nil)

// Dial connects to the RPC endpoint at url.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, protocol.NewError(protocol.KindConnectivity, "rpc dial", err)
	}
	return client, nil
}

// Transfer describes a transaction for SignAndSendTransaction. Zero fields are filled
// in from the Backend.
type Transfer struct {
	To    common.Address
	Value *big.Int
	Data  []byte

	Gas       uint64
	GasTipCap *big.Int
	GasFeeCap *big.Int
}

// SignAndSendTransaction builds an EIP-1559 transaction from t, with the pending nonce
// and chain id reported by backend, signs it and broadcasts it.
func (a *Account) SignAndSendTransaction(ctx context.Context, backend Backend, t Transfer) (common.Hash, error) {
	a.sendMtx.Lock()
	defer a.sendMtx.Unlock()

	tx, err := a.buildTransfer(ctx, backend, t)
	if err != nil {
		return common.Hash{}, err
	}
	signed, err := a.SignTransaction(ctx, tx)
	if err != nil {
		return common.Hash{}, err
	}
	if err = backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, protocol.NewError(protocol.KindConnectivity, "rpc send", err)
	}
	a.log.Info().Stringer("tx", signed.Hash()).Uint64("nonce", signed.Nonce()).Msg("sent transaction")
	return signed.Hash(), nil
}

func (a *Account) buildTransfer(ctx context.Context, backend Backend, t Transfer) (*types.DynamicFeeTx, error) {
	const op = "rpc"
	rpcErr := func(err error) error {
		return protocol.NewError(protocol.KindConnectivity, op, err)
	}

	nonce, err := backend.PendingNonceAt(ctx, a.address)
	if err != nil {
		return nil, rpcErr(err)
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, rpcErr(err)
	}

	feeCap := t.GasFeeCap
	if feeCap == nil {
		if feeCap, err = backend.SuggestGasPrice(ctx); err != nil {
			return nil, rpcErr(err)
		}
	}
	tip := t.GasTipCap
	if tip == nil {
		if tip, err = backend.SuggestGasTipCap(ctx); err != nil {
			return nil, rpcErr(err)
		}
	}
	if tip.Cmp(feeCap) > 0 {
		tip = new(big.Int).Set(feeCap)
	}

	value := t.Value
	if value == nil {
		value = new(big.Int)
	}
	to := t.To

	gas := t.Gas
	if gas == 0 {
		if len(t.Data) == 0 {
			gas = transferGas
		} else {
			gas, err = backend.EstimateGas(ctx, ethereum.CallMsg{
				From:      a.address,
				To:        &to,
				GasFeeCap: feeCap,
				GasTipCap: tip,
				Value:     value,
				Data:      t.Data,
			})
			if err != nil {
				return nil, rpcErr(err)
			}
		}
	}

	return &types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      t.Data,
	}, nil
}
