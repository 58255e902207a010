package test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decred "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/ecdsa"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/math/polynomial"
	"github.com/taurusgroup/tss-account/pkg/party"
	"github.com/taurusgroup/tss-account/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// Engine is one session of the simulated co-signers.
//
// Each co-signer named in the coefficient map scales its share by its coefficient, and
// the results are summed with the denormalized local share. The sum is the key, which
// is then used to sign directly. A real engine never materializes it.
type Engine struct {
	network *Network
	config  protocol.SessionConfig
	record  *Record

	mtx    sync.Mutex
	key    curve.Scalar
	signed bool
}

// remotes returns the non empty endpoints of every party but Self.
func (e *Engine) remotes() []int {
	out := make(party.IDSlice, 0, len(e.config.Parties))
	for _, id := range e.config.Parties.Remove(e.config.Self) {
		if e.config.Endpoints[id] != "" {
			out = append(out, id)
		}
	}
	return out.Ints()
}

func (e *Engine) CheckConnected(ctx context.Context) (bool, error) {
	remotes := e.remotes()
	if len(remotes) == 0 {
		return false, nil
	}
	var errGroup errgroup.Group
	reachable := make([]bool, len(remotes))
	for j, i := range remotes {
		j, i := j, i
		errGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			endpoint := e.config.Endpoints[i]
			if e.network.has(FaultConnect, endpoint) {
				return fmt.Errorf("%w: connect %s", ErrInjected, endpoint)
			}
			if want := party.SocketEndpoint(endpoint); e.config.SocketEndpoints[i] != want {
				return fmt.Errorf("test: party %d: socket %q, expected %q", i, e.config.SocketEndpoints[i], want)
			}
			_, known := e.network.node(endpoint)
			reachable[j] = known && !e.network.has(FaultUnreachable, endpoint)
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return false, err
	}
	for _, ok := range reachable {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) Precompute(ctx context.Context, coefficients polynomial.CoefficientMap, auth []string) (*protocol.Precompute, error) {
	e.network.mtx.Lock()
	delay := e.network.delay
	e.network.mtx.Unlock()
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if e.network.has(FaultPrecompute, allNodes) {
		return nil, fmt.Errorf("%w: precompute", ErrInjected)
	}

	group := e.network.group
	local, err := e.localShare()
	if err != nil {
		return nil, err
	}

	byIndex := make(map[string]*Node)
	for _, i := range e.remotes() {
		if node, ok := e.network.node(e.config.Endpoints[i]); ok {
			byIndex[node.Index.String()] = node
		}
	}
	indexes := make([]string, 0, len(coefficients))
	for idx := range coefficients {
		indexes = append(indexes, idx)
	}

	ctxGroup, ctx := errgroup.WithContext(ctx)
	partials := make([]curve.Scalar, len(indexes))
	for j, idx := range indexes {
		j, idx := j, idx
		ctxGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			node, ok := byIndex[idx]
			if !ok {
				return fmt.Errorf("test: co-signer %s unreachable", idx)
			}
			if e.network.has(FaultPrecompute, node.Endpoint) {
				return fmt.Errorf("%w: precompute at %s", ErrInjected, node.Endpoint)
			}
			coefficient, err := curve.ScalarFromHex(group, coefficients[idx])
			if err != nil {
				return fmt.Errorf("test: co-signer %s: coefficient: %w", idx, err)
			}
			partials[j] = coefficient.Mul(node.Share)
			return nil
		})
	}
	if err = ctxGroup.Wait(); err != nil {
		return nil, err
	}

	key := group.NewScalar().Set(local)
	for _, p := range partials {
		key.Add(p)
	}

	e.mtx.Lock()
	e.key = key
	e.mtx.Unlock()
	e.network.update(e.record, func(r *Record) {
		r.Coefficients = coefficients
		r.PrecomputeAuth = append([]string(nil), auth...)
	})
	return &protocol.Precompute{Session: e.config.Session, Handle: e}, nil
}

func (e *Engine) localShare() (curve.Scalar, error) {
	data, err := base64.StdEncoding.DecodeString(e.config.Share)
	if err != nil {
		return nil, fmt.Errorf("test: share: %w", err)
	}
	share := e.network.group.NewScalar()
	if err = share.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("test: share: %w", err)
	}
	return share, nil
}

func (e *Engine) IsReady(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.key != nil && !e.network.has(FaultNotReady, allNodes), nil
}

func (e *Engine) Sign(ctx context.Context, digest string, hashOnly bool, original string, pre *protocol.Precompute, auth []string) (*ecdsa.Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.network.has(FaultSign, allNodes) {
		return nil, fmt.Errorf("%w: sign", ErrInjected)
	}
	if !hashOnly || original != "" {
		return nil, errors.New("test: only pre-hashed messages are supported")
	}
	if pre == nil || pre.Session != e.config.Session || pre.Handle != e {
		return nil, errors.New("test: precompute of another session")
	}
	msg, err := base64.StdEncoding.DecodeString(digest)
	if err != nil || len(msg) != 32 {
		return nil, fmt.Errorf("test: malformed digest %q", digest)
	}

	e.mtx.Lock()
	defer e.mtx.Unlock()
	if e.key == nil {
		return nil, errors.New("test: not precomputed")
	}
	if e.signed {
		return nil, errors.New("test: session already signed")
	}
	e.signed = true

	keyBytes, err := e.key.MarshalBinary()
	if err != nil {
		return nil, err
	}
	sig, err := ecdsa.ParseCompact(decred.SignCompact(secp256k1.PrivKeyFromBytes(keyBytes), msg, false))
	if err != nil {
		return nil, err
	}
	if e.network.has(FaultCorruptSignature, allNodes) {
		sig.S.Add(curve.ScalarFromUint64(e.network.group, 1))
	}
	if e.network.has(FaultWrongRecoveryID, allNodes) {
		sig.V ^= 1
	}

	e.network.update(e.record, func(r *Record) {
		r.Digest = digest
		r.SignAuth = append([]string(nil), auth...)
		r.Signed = true
	})
	return sig, nil
}

func (e *Engine) Cleanup(ctx context.Context, auth []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.network.has(FaultCleanup, allNodes) {
		return fmt.Errorf("%w: cleanup", ErrInjected)
	}
	e.network.update(e.record, func(r *Record) {
		r.CleanupAuth = append([]string(nil), auth...)
		r.CleanedUp = true
	})
	return nil
}
