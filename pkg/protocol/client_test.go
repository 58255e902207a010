package protocol_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/tss-account/internal/test"
	"github.com/taurusgroup/tss-account/pkg/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/hash"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/math/polynomial"
	"github.com/taurusgroup/tss-account/pkg/party"
	"github.com/taurusgroup/tss-account/pkg/protocol"
	"github.com/taurusgroup/tss-account/pkg/session"
)

var endpoints = []string{
	"https://node-1.test/tss",
	"https://node-2.test/tss",
	"https://node-3.test/tss",
	"",
}

var auth = []string{`{"sig":"a"}`, `{"sig":"b"}`}

type fixture struct {
	network *test.Network
	dealer  *test.Dealer
	config  protocol.ClientConfig
	digest  []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	group := curve.Secp256k1{}
	nodes := test.Indexes(1, 2, 3)
	local := big.NewInt(4)

	dealer := test.Deal(group, 3, append(append([]*big.Int{}, nodes...), local), rand.Reader)
	network := test.NewDealtNetwork(dealer, endpoints[:3], nodes)

	top, err := party.BuildTopology(party.DefaultParties, party.DefaultParties-1, endpoints)
	require.NoError(t, err)
	coefficients, err := polynomial.ServerCoefficients(group, nodes, local)
	require.NoError(t, err)
	share, err := polynomial.DenormalizeShare(group, nodes, local, dealer.Share(local))
	require.NoError(t, err)
	id, err := session.Assembler{}.Assemble("torus-test", "alice@example.com", "default", 0)
	require.NoError(t, err)

	return &fixture{
		network: network,
		dealer:  dealer,
		config: protocol.ClientConfig{
			Session:      id,
			Topology:     top,
			Coefficients: coefficients,
			Share:        share,
			PublicKey:    dealer.PublicKey,
			Auth:         auth,
			Dialer:       network,
			Timeouts:     protocol.DefaultTimeouts(),
		},
		digest: hash.TextHash([]byte("hello")),
	}
}

func (f *fixture) client(t *testing.T) *protocol.Client {
	t.Helper()
	c, err := protocol.NewClient(f.config)
	require.NoError(t, err)
	return c
}

func TestClient_Sign(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	assert.Equal(t, protocol.StateCreated, c.State())

	sig, err := c.Sign(context.Background(), f.digest)
	require.NoError(t, err)
	assert.True(t, sig.Verify(f.dealer.PublicKey, f.digest))
	assert.Equal(t, protocol.StateCleanedUp, c.State())
	assert.NoError(t, c.CleanupErr())

	record, ok := f.network.Last()
	require.True(t, ok)
	assert.Equal(t, f.config.Session, record.Config.Session)
	assert.Equal(t, base64.StdEncoding.EncodeToString(f.digest), record.Digest)
	assert.Equal(t, f.config.Coefficients, record.Coefficients)
	assert.Equal(t, auth, record.PrecomputeAuth)
	assert.Equal(t, auth, record.SignAuth)
	assert.Equal(t, auth, record.CleanupAuth)
	assert.True(t, record.CleanedUp)

	// the self slot is never dialed
	assert.Equal(t, party.ID(3), record.Config.Self)
	assert.Empty(t, record.Config.Endpoints[3])
	assert.Empty(t, record.Config.SocketEndpoints[3])
	assert.Equal(t, "https://node-1.test", record.Config.SocketEndpoints[0])

	final, err := protocol.Finalize(f.digest, sig, f.dealer.PublicKey, nil, ecdsa.KindMessage)
	require.NoError(t, err)
	assert.Contains(t, []uint64{27, 28}, final.V)
}

func TestClient_SignsOnce(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	_, err := c.Sign(context.Background(), f.digest)
	require.NoError(t, err)

	_, err = c.Sign(context.Background(), f.digest)
	assert.ErrorIs(t, err, protocol.ErrValidation)
	assert.Equal(t, protocol.StateCleanedUp, c.State())
	assert.Len(t, f.network.Sessions(), 1)
}

func TestClient_Failures(t *testing.T) {
	cases := []struct {
		name      string
		fault     test.Fault
		kind      error
		cleanedUp bool
	}{
		{"unreachable", test.FaultUnreachable, protocol.ErrConnectivity, false},
		{"connect", test.FaultConnect, protocol.ErrConnectivity, false},
		{"precompute", test.FaultPrecompute, protocol.ErrProtocol, true},
		{"not ready", test.FaultNotReady, protocol.ErrProtocol, true},
		{"sign", test.FaultSign, protocol.ErrProtocol, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.network.Inject(tc.fault)
			c := f.client(t)

			sig, err := c.Sign(context.Background(), f.digest)
			assert.Nil(t, sig)
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, protocol.StateFailed, c.State())

			record, ok := f.network.Last()
			require.True(t, ok)
			assert.Equal(t, tc.cleanedUp, record.CleanedUp)
			assert.False(t, record.Signed)
		})
	}
}

func TestClient_OneNodeUnreachable(t *testing.T) {
	f := newFixture(t)
	f.network.Inject(test.FaultUnreachable, endpoints[1])
	_, err := f.client(t).Sign(context.Background(), f.digest)
	assert.ErrorIs(t, err, protocol.ErrConnectivity)
}

func TestClient_CleanupFailureKeepsSignature(t *testing.T) {
	f := newFixture(t)
	f.network.Inject(test.FaultCleanup)
	c := f.client(t)

	sig, err := c.Sign(context.Background(), f.digest)
	require.NoError(t, err)
	assert.True(t, sig.Verify(f.dealer.PublicKey, f.digest))
	assert.ErrorIs(t, c.CleanupErr(), test.ErrInjected)
	assert.Equal(t, protocol.StateSigned, c.State())
}

func TestClient_CleanupAfterProtocolErrorKeepsPrimaryError(t *testing.T) {
	f := newFixture(t)
	f.network.Inject(test.FaultSign | test.FaultCleanup)
	c := f.client(t)

	_, err := c.Sign(context.Background(), f.digest)
	assert.ErrorIs(t, err, protocol.ErrProtocol)
	assert.ErrorIs(t, err, test.ErrInjected)
	assert.ErrorIs(t, c.CleanupErr(), test.ErrInjected)
	assert.NotErrorIs(t, c.CleanupErr(), protocol.ErrProtocol)
}

func TestClient_PhaseTimeout(t *testing.T) {
	f := newFixture(t)
	f.network.SetDelay(time.Second)
	f.config.Timeouts.Precompute = 20 * time.Millisecond
	c := f.client(t)

	_, err := c.Sign(context.Background(), f.digest)
	assert.ErrorIs(t, err, protocol.ErrProtocol)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	record, _ := f.network.Last()
	assert.True(t, record.CleanedUp)
}

func TestClient_CallerCancelledStillCleansUp(t *testing.T) {
	f := newFixture(t)
	f.network.SetDelay(time.Second)
	f.config.Timeouts.Precompute = 0
	c := f.client(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Sign(ctx, f.digest)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	record, _ := f.network.Last()
	assert.True(t, record.CleanedUp)
}

func TestClient_ThreeOfFour(t *testing.T) {
	group := curve.Secp256k1{}
	nodes := test.Indexes(1, 3)
	local := big.NewInt(4)
	dealer := test.Deal(group, 2, test.Indexes(1, 2, 3, 4), rand.Reader)

	// node 2 is left out of the endpoint list
	eps := []string{"https://node-1.test/tss", "", "https://node-3.test/tss", ""}
	network := test.NewDealtNetwork(dealer, []string{eps[0], eps[2]}, nodes)

	top, err := party.BuildTopology(4, 3, eps)
	require.NoError(t, err)
	require.Equal(t, 4, top.N())
	coefficients, err := polynomial.ServerCoefficients(group, nodes, local)
	require.NoError(t, err)
	share, err := polynomial.DenormalizeShare(group, nodes, local, dealer.Share(local))
	require.NoError(t, err)
	id, err := session.Assembler{}.Assemble("v", "u", "t", 1)
	require.NoError(t, err)

	c, err := protocol.NewClient(protocol.ClientConfig{
		Session:      id,
		Topology:     top,
		Coefficients: coefficients,
		Share:        share,
		PublicKey:    dealer.PublicKey,
		Dialer:       network,
	})
	require.NoError(t, err)

	digest := hash.Keccak256([]byte("three of four"))
	sig, err := c.Sign(context.Background(), digest)
	require.NoError(t, err)
	_, err = protocol.Finalize(digest, sig, dealer.PublicKey, nil, ecdsa.KindMessage)
	require.NoError(t, err)
}

func TestClient_WrongShareFailsVerification(t *testing.T) {
	f := newFixture(t)
	f.config.Share = f.config.Share.Curve().NewScalar().Set(f.config.Share).Add(curve.ScalarFromUint64(curve.Secp256k1{}, 1))
	sig, err := f.client(t).Sign(context.Background(), f.digest)
	require.NoError(t, err)

	_, err = protocol.Finalize(f.digest, sig, f.dealer.PublicKey, nil, ecdsa.KindMessage)
	assert.ErrorIs(t, err, protocol.ErrVerification)
}

func TestNewClient_Validation(t *testing.T) {
	edits := map[string]func(*protocol.ClientConfig){
		"session":      func(c *protocol.ClientConfig) { c.Session = "nope" },
		"topology":     func(c *protocol.ClientConfig) { c.Topology = nil },
		"dialer":       func(c *protocol.ClientConfig) { c.Dialer = nil },
		"coefficients": func(c *protocol.ClientConfig) { c.Coefficients = polynomial.CoefficientMap{} },
		"share":        func(c *protocol.ClientConfig) { c.Share = nil },
		"public key":   func(c *protocol.ClientConfig) { c.PublicKey = curve.Secp256k1{}.NewPoint() },
	}
	for name, edit := range edits {
		f := newFixture(t)
		edit(&f.config)
		_, err := protocol.NewClient(f.config)
		assert.ErrorIs(t, err, protocol.ErrValidation, name)
	}
}

func TestClient_DigestLength(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	_, err := c.Sign(context.Background(), []byte("short"))
	assert.ErrorIs(t, err, protocol.ErrValidation)
	assert.Empty(t, f.network.Sessions())
}

func TestClient_LogsFingerprintOnly(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	f.config.Log = &log
	c := f.client(t)
	_, err := c.Sign(context.Background(), f.digest)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, f.config.Session.Fingerprint())
	assert.Contains(t, out, `"state":"cleaned_up"`)
	assert.NotContains(t, out, "alice@example.com")
	assert.NotContains(t, out, c.Config().Share)
}

func TestClient_DialerFunc(t *testing.T) {
	f := newFixture(t)
	var dialed []protocol.SessionConfig
	f.config.Dialer = protocol.DialerFunc(func(ctx context.Context, config protocol.SessionConfig) (protocol.Engine, error) {
		dialed = append(dialed, config)
		return f.network.Dial(ctx, config)
	})
	_, err := f.client(t).Sign(context.Background(), f.digest)
	require.NoError(t, err)
	require.Len(t, dialed, 1)
	assert.Equal(t, f.config.Session, dialed[0].Session)

	f = newFixture(t)
	f.config.Dialer = protocol.DialerFunc(func(context.Context, protocol.SessionConfig) (protocol.Engine, error) {
		return nil, assert.AnError
	})
	c := f.client(t)
	_, err = c.Sign(context.Background(), f.digest)
	assert.ErrorIs(t, err, protocol.ErrConnectivity)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, protocol.StateFailed, c.State())
	assert.Empty(t, f.network.Sessions())
}
