package account_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/taurusgroup/tss-account/internal/test"
	"github.com/taurusgroup/tss-account/pkg/account"
	"github.com/taurusgroup/tss-account/pkg/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
)

var nodeEndpoints = []string{
	"https://node-1.test/tss",
	"https://node-2.test/tss",
	"https://node-3.test/tss",
}

// fixture is a dealt key shared between three simulated co-signers at 1, 2, 3 and the
// local party at 4.
type fixture struct {
	dealer  *test.Dealer
	network *test.Network
	params  account.Params
}

func newFixture() *fixture {
	group := curve.Secp256k1{}
	nodes := test.Indexes(1, 2, 3)
	local := big.NewInt(4)
	dealer := test.Deal(group, 3, test.Indexes(1, 2, 3, 4), rand.Reader)
	network := test.NewDealtNetwork(dealer, nodeEndpoints, nodes)

	coordinates, err := ecdsa.Coordinates(dealer.PublicKey)
	if err != nil {
		panic(err)
	}
	return &fixture{
		dealer:  dealer,
		network: network,
		params: account.Params{
			PublicKey:    "04" + hex.EncodeToString(coordinates),
			FactorKey:    "ab",
			TSSNonce:     0,
			TSSShare:     dealer.ShareHex(local),
			TSSIndex:     local.Text(16),
			SelectedTag:  "default",
			Verifier:     "torus-test-health",
			VerifierID:   "alice@example.com",
			NodeIndexes:  nodes,
			TSSEndpoints: append(append([]string{}, nodeEndpoints...), ""),
			AuthSigs:     []string{`{"sig":"a"}`, `{"sig":"b"}`},
		},
	}
}

func (f *fixture) account(opts ...account.Option) *account.Account {
	a, err := account.New(f.params, f.network, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// backend is an in-memory account.Backend.
type backend struct {
	mtx       sync.Mutex
	nonce     uint64
	chainID   *big.Int
	gasPrice  *big.Int
	tip       *big.Int
	estimated int
	sent      []*types.Transaction
	err       error
}

func newBackend() *backend {
	return &backend{
		nonce:    7,
		chainID:  big.NewInt(5),
		gasPrice: big.NewInt(30_000_000_000),
		tip:      big.NewInt(1_000_000_000),
	}
}

func (b *backend) PendingNonceAt(ctx context.Context, _ common.Address) (uint64, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	return b.nonce, nil
}

func (b *backend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *backend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.gasPrice), nil
}

func (b *backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.tip), nil
}

func (b *backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.estimated++
	return 50_000, nil
}

func (b *backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.sent = append(b.sent, tx)
	b.nonce++
	return nil
}
