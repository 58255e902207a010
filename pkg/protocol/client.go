package protocol

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/tss-account/internal/params"
	"github.com/taurusgroup/tss-account/pkg/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/hash"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/math/polynomial"
	"github.com/taurusgroup/tss-account/pkg/party"
	"github.com/taurusgroup/tss-account/pkg/session"
)

const protocolID = "tss/ecdsa-sign"

// Timeouts bound each phase of a signing session. A zero duration leaves the phase
// bounded only by the caller's context.
type Timeouts struct {
	Connect    time.Duration
	Precompute time.Duration
	// Ready bounds the whole readiness check, including polling.
	Ready time.Duration
	// ReadyPoll is the interval between readiness checks. When zero, readiness is
	// checked exactly once.
	ReadyPoll time.Duration
	Sign      time.Duration
	// Cleanup bounds the cleanup call, which does not inherit the cancellation of
	// the caller's context.
	Cleanup time.Duration
}

// DefaultTimeouts returns the timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Connect:    15 * time.Second,
		Precompute: time.Minute,
		Ready:      30 * time.Second,
		Sign:       time.Minute,
		Cleanup:    10 * time.Second,
	}
}

// ClientConfig holds everything needed for one signing session.
type ClientConfig struct {
	Session      session.ID
	Topology     *party.Topology
	Coefficients polynomial.CoefficientMap
	// Share is the local share, already denormalized for this set of parties.
	Share     curve.Scalar
	PublicKey curve.Point
	// Auth are forwarded verbatim to each phase.
	Auth     []string
	Dialer   Dialer
	Timeouts Timeouts
	// Log defaults to a disabled logger.
	Log *zerolog.Logger
}

// Client drives one signing session with the remote co-signers.
//
// A Client signs exactly once.
type Client struct {
	mtx sync.Mutex

	config   SessionConfig
	coeffs   polynomial.CoefficientMap
	auth     []string
	dialer   Dialer
	timeouts Timeouts

	Log zerolog.Logger

	used       bool
	state      State
	cleanupErr error
}

// NewClient validates config and returns a Client in StateCreated.
func NewClient(config ClientConfig) (*Client, error) {
	const op = "new client"
	if _, err := config.Session.Parse(); err != nil {
		return nil, NewError(KindValidation, op, err)
	}
	if config.Topology == nil || config.Topology.N() < 2 {
		return nil, Errorf(KindValidation, op, "topology needs at least one remote party")
	}
	if config.Dialer == nil {
		return nil, Errorf(KindValidation, op, "no dialer")
	}
	// co-signers left out of the endpoint list have no coefficient
	if n, remotes := len(config.Coefficients), len(config.Topology.Remotes()); n == 0 || n > remotes {
		return nil, Errorf(KindValidation, op, "%d coefficients for %d remote parties", n, remotes)
	}
	if config.Share == nil || config.Share.IsZero() {
		return nil, Errorf(KindValidation, op, "missing share")
	}
	share, err := config.Share.MarshalBinary()
	if err != nil {
		return nil, NewError(KindValidation, op, err)
	}
	if config.PublicKey == nil {
		return nil, NewError(KindValidation, op, ecdsa.ErrInvalidPublicKey)
	}
	coordinates, err := ecdsa.Coordinates(config.PublicKey)
	if err != nil {
		return nil, NewError(KindValidation, op, err)
	}

	top := config.Topology
	c := &Client{
		config: SessionConfig{
			Session:         config.Session,
			Self:            top.Self,
			Parties:         top.PartyIndexes,
			Endpoints:       top.Endpoints,
			SocketEndpoints: top.SocketEndpoints,
			Share:           base64.StdEncoding.EncodeToString(share),
			PublicKey:       base64.StdEncoding.EncodeToString(coordinates),
		},
		coeffs:   config.Coefficients,
		auth:     config.Auth,
		dialer:   config.Dialer,
		timeouts: config.Timeouts,
		state:    StateCreated,
	}

	log := zerolog.Nop()
	if config.Log != nil {
		log = *config.Log
	}
	c.Log = log.With().
		Str("protocol", protocolID).
		Str("session", config.Session.Fingerprint()).
		Int("party", int(top.Self)).
		Logger()
	return c, nil
}

// Sign runs the whole session for the 32 byte digest and returns the signature with its
// raw recovery id. The signature is not verified, see Finalize.
//
// Once the co-signers were reached, the remote session is cleaned up whether or not
// signing succeeded. A cleanup failure never replaces the result, it is available
// through CleanupErr.
func (c *Client) Sign(ctx context.Context, digest []byte) (sig *ecdsa.Signature, err error) {
	c.mtx.Lock()
	if c.used {
		c.mtx.Unlock()
		return nil, Errorf(KindValidation, "sign", "session %s already used", c.config.Session.Fingerprint())
	}
	c.used = true
	c.mtx.Unlock()

	defer func() {
		if err != nil {
			c.fail(err)
		}
	}()

	if len(digest) != params.BytesDigest {
		return nil, Errorf(KindValidation, "sign", "digest must be %d bytes, got %d", params.BytesDigest, len(digest))
	}

	engine, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer c.cleanup(ctx, engine)

	pre, err := c.precompute(ctx, engine)
	if err != nil {
		return nil, err
	}
	if err = c.awaitReady(ctx, engine); err != nil {
		return nil, err
	}
	return c.sign(ctx, engine, digest, pre)
}

func (c *Client) phase(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *Client) connect(ctx context.Context) (Engine, error) {
	const op = "connect"
	ctx, cancel := c.phase(ctx, c.timeouts.Connect)
	defer cancel()

	engine, err := c.dialer.Dial(ctx, c.config)
	if err != nil {
		return nil, NewError(KindConnectivity, op, err)
	}
	connected, err := engine.CheckConnected(ctx)
	if err != nil {
		return nil, NewError(KindConnectivity, op, err)
	}
	if !connected {
		return nil, Errorf(KindConnectivity, op, "unable to reach the co-signers")
	}
	c.advance(StateConnected)
	return engine, nil
}

func (c *Client) precompute(ctx context.Context, engine Engine) (*Precompute, error) {
	const op = "precompute"
	ctx, cancel := c.phase(ctx, c.timeouts.Precompute)
	defer cancel()

	pre, err := engine.Precompute(ctx, c.coeffs, c.auth)
	if err != nil {
		return nil, NewError(KindProtocol, op, err)
	}
	if pre == nil {
		return nil, Errorf(KindProtocol, op, "engine returned no precompute")
	}
	c.advance(StatePrecomputed)
	return pre, nil
}

func (c *Client) awaitReady(ctx context.Context, engine Engine) error {
	const op = "ready"
	ctx, cancel := c.phase(ctx, c.timeouts.Ready)
	defer cancel()

	for {
		ready, err := engine.IsReady(ctx)
		if err != nil {
			return NewError(KindProtocol, op, err)
		}
		if ready {
			c.advance(StateReady)
			return nil
		}
		if c.timeouts.ReadyPoll <= 0 {
			return Errorf(KindProtocol, op, "co-signers not ready")
		}
		select {
		case <-ctx.Done():
			return Errorf(KindProtocol, op, "co-signers not ready: %w", ctx.Err())
		case <-time.After(c.timeouts.ReadyPoll):
		}
	}
}

func (c *Client) sign(ctx context.Context, engine Engine, digest []byte, pre *Precompute) (*ecdsa.Signature, error) {
	const op = "sign"
	ctx, cancel := c.phase(ctx, c.timeouts.Sign)
	defer cancel()

	sig, err := engine.Sign(ctx, hash.Base64(digest), true, "", pre, c.auth)
	if err != nil {
		return nil, NewError(KindProtocol, op, err)
	}
	if sig == nil || sig.R == nil || sig.S == nil {
		return nil, Errorf(KindProtocol, op, "engine returned no signature")
	}
	c.advance(StateSigned)
	return sig, nil
}

// cleanup is best effort, its context survives the cancellation of ctx.
func (c *Client) cleanup(ctx context.Context, engine Engine) {
	ctx, cancel := c.phase(context.WithoutCancel(ctx), c.timeouts.Cleanup)
	defer cancel()

	err := engine.Cleanup(ctx, c.auth)

	c.mtx.Lock()
	defer c.mtx.Unlock()
	if err != nil {
		c.cleanupErr = fmt.Errorf("protocol: cleanup: %w", err)
		c.Log.Warn().Err(err).Msg("cleanup failed")
		return
	}
	if c.state == StateSigned {
		c.state = StateCleanedUp
	}
	c.Log.Info().Stringer("state", c.state).Msg("cleaned up")
}

func (c *Client) advance(to State) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.state.next() != to {
		// only reachable through a programming error in Sign
		panic(fmt.Sprintf("protocol: invalid transition %s → %s", c.state, to))
	}
	c.state = to
	c.Log.Info().Stringer("state", to).Msg("advance")
}

func (c *Client) fail(err error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	from := c.state
	c.state = StateFailed
	event := c.Log.Error().Err(err).Stringer("from", from)
	if errors.Is(err, context.DeadlineExceeded) {
		event = event.Bool("timeout", true)
	}
	event.Msg("failed")
}

// State returns the current state of the session.
func (c *Client) State() State {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.state
}

// CleanupErr returns the error of the cleanup call, if any.
func (c *Client) CleanupErr() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.cleanupErr
}

// Config returns the configuration handed to the Dialer.
func (c *Client) Config() SessionConfig {
	return c.config
}
