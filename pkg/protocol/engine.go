package protocol

import (
	"context"

	"github.com/taurusgroup/tss-account/pkg/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/math/polynomial"
	"github.com/taurusgroup/tss-account/pkg/party"
	"github.com/taurusgroup/tss-account/pkg/session"
)

// Precompute is the opaque handle returned by the precompute phase of an Engine, and
// handed back to it when signing.
type Precompute struct {
	// Session the handle belongs to
	Session session.ID
	// Handle is whatever the engine needs to find its precomputed state
	Handle interface{}
}

// Engine is one session of the remote threshold signing protocol.
//
// Every call blocks until the co-signers answered or ctx is done. The auth slices are
// opaque signed assertions, forwarded verbatim to the co-signers.
type Engine interface {
	// CheckConnected reports whether every remote party is reachable.
	CheckConnected(ctx context.Context) (bool, error)

	// Precompute starts the offline phase, each co-signer scaling its share by its
	// coefficient.
	Precompute(ctx context.Context, coefficients polynomial.CoefficientMap, auth []string) (*Precompute, error)

	// IsReady reports whether the precomputation completed.
	IsReady(ctx context.Context) (bool, error)

	// Sign produces a signature of the digest, base64 encoded. When hashOnly is true,
	// original is not read and the digest is signed as is.
	// The returned signature carries the raw recovery id.
	Sign(ctx context.Context, digest string, hashOnly bool, original string, pre *Precompute, auth []string) (*ecdsa.Signature, error)

	// Cleanup releases the remote session.
	Cleanup(ctx context.Context, auth []string) error
}

// SessionConfig is everything an Engine needs to join a signing session.
type SessionConfig struct {
	Session session.ID
	Self    party.ID
	Parties party.IDSlice
	// Endpoints and SocketEndpoints are indexed by party, the entries of Self are empty.
	Endpoints       []string
	SocketEndpoints []string
	// Share is the denormalized share of Self, 32 bytes big-endian, base64 encoded.
	Share string
	// PublicKey is the x and y coordinates of the account key, base64 encoded.
	PublicKey string
}

// Dialer creates Engines. It is the application's binding to the native protocol
// engine, which must be initialized once per process before the first Dial.
type Dialer interface {
	Dial(ctx context.Context, config SessionConfig) (Engine, error)
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context, config SessionConfig) (Engine, error)

func (f DialerFunc) Dial(ctx context.Context, config SessionConfig) (Engine, error) {
	return f(ctx, config)
}
