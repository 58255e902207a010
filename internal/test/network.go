package test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/math/polynomial"
	"github.com/taurusgroup/tss-account/pkg/protocol"
	"github.com/taurusgroup/tss-account/pkg/session"
)

// Fault is a failure the Network injects into its sessions.
type Fault uint

const (
	// FaultUnreachable makes CheckConnected report false.
	FaultUnreachable Fault = 1 << iota
	// FaultConnect makes CheckConnected fail with an error.
	FaultConnect
	FaultPrecompute
	// FaultNotReady makes IsReady report false.
	FaultNotReady
	FaultSign
	FaultCleanup
	// FaultCorruptSignature returns a signature whose s does not verify.
	FaultCorruptSignature
	// FaultWrongRecoveryID flips the recovery id of the signature.
	FaultWrongRecoveryID
)

var ErrInjected = errors.New("test: injected failure")

const allNodes = "*"

// Node is a simulated co-signer.
type Node struct {
	Endpoint string
	Index    *big.Int
	Share    curve.Scalar
}

// Record is what the co-signers observed of a session.
type Record struct {
	Config         protocol.SessionConfig
	Coefficients   polynomial.CoefficientMap
	PrecomputeAuth []string
	SignAuth       []string
	CleanupAuth    []string
	Digest         string
	Signed         bool
	CleanedUp      bool
}

// Network is an in-memory set of co-signers, and implements protocol.Dialer.
type Network struct {
	group curve.Curve

	mtx      sync.Mutex
	nodes    map[string]*Node
	faults   map[string]Fault
	delay    time.Duration
	sessions map[session.ID]*Record
	order    []session.ID
}

func NewNetwork(group curve.Curve) *Network {
	return &Network{
		group:    group,
		nodes:    make(map[string]*Node),
		faults:   make(map[string]Fault),
		sessions: make(map[session.ID]*Record),
	}
}

// NewDealtNetwork creates a Network where endpoints[i] serves the share of d at indexes[i].
func NewDealtNetwork(d *Dealer, endpoints []string, indexes []*big.Int) *Network {
	if len(endpoints) != len(indexes) {
		panic("test: endpoints and indexes differ in length")
	}
	n := NewNetwork(d.Group)
	for i, endpoint := range endpoints {
		n.AddNode(endpoint, indexes[i], d.Share(indexes[i]))
	}
	return n
}

// AddNode registers a co-signer.
func (n *Network) AddNode(endpoint string, index *big.Int, share curve.Scalar) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.nodes[endpoint] = &Node{Endpoint: endpoint, Index: new(big.Int).Set(index), Share: share}
}

// Inject adds f to the given endpoints, or to every node when none are given.
func (n *Network) Inject(f Fault, endpoints ...string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if len(endpoints) == 0 {
		endpoints = []string{allNodes}
	}
	for _, e := range endpoints {
		n.faults[e] |= f
	}
}

// Heal removes every injected fault.
func (n *Network) Heal() {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.faults = make(map[string]Fault)
}

// SetDelay makes each precompute take d, unless its context expires first.
func (n *Network) SetDelay(d time.Duration) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.delay = d
}

func (n *Network) has(f Fault, endpoint string) bool {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return (n.faults[allNodes]|n.faults[endpoint])&f != 0
}

func (n *Network) node(endpoint string) (*Node, bool) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	node, ok := n.nodes[endpoint]
	return node, ok
}

// Dial implements protocol.Dialer. A session id can only be dialed once.
func (n *Network) Dial(ctx context.Context, config protocol.SessionConfig) (protocol.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := config.Session.Parse(); err != nil {
		return nil, err
	}
	if len(config.Endpoints) != len(config.Parties) || len(config.SocketEndpoints) != len(config.Parties) {
		return nil, fmt.Errorf("test: %d parties, %d endpoints, %d sockets",
			len(config.Parties), len(config.Endpoints), len(config.SocketEndpoints))
	}

	if !config.Parties.Valid() || !config.Parties.Contains(config.Self) {
		return nil, fmt.Errorf("test: self %s not in parties %v", config.Self, config.Parties)
	}

	n.mtx.Lock()
	defer n.mtx.Unlock()
	if _, ok := n.sessions[config.Session]; ok {
		return nil, fmt.Errorf("test: session %s reused", config.Session.Fingerprint())
	}
	record := &Record{Config: config}
	n.sessions[config.Session] = record
	n.order = append(n.order, config.Session)
	return &Engine{network: n, config: config, record: record}, nil
}

// Sessions returns copies of the records of every dialed session, in order.
func (n *Network) Sessions() []Record {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	out := make([]Record, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, *n.sessions[id])
	}
	return out
}

// Last returns a copy of the most recent session record.
func (n *Network) Last() (Record, bool) {
	sessions := n.Sessions()
	if len(sessions) == 0 {
		return Record{}, false
	}
	return sessions[len(sessions)-1], true
}

func (n *Network) update(record *Record, f func(*Record)) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	f(record)
}
