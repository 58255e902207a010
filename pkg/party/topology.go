package party

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultParties is the size of the signing set: three co-signer nodes and the client.
	DefaultParties = 4

	// socketSuffix is stripped from a node's http endpoint to obtain its websocket endpoint.
	socketSuffix = "/tss"
)

var ErrInvalidTopology = errors.New("party: invalid topology")

// Topology describes the parties of a signing session from the point of view of Self.
//
// PartyIndexes, Endpoints and SocketEndpoints are parallel: the entries at position i
// describe party i. The entries of Self are empty since the client never dials itself.
type Topology struct {
	Self            ID
	PartyIndexes    IDSlice
	Endpoints       []string
	SocketEndpoints []string
}

// BuildTopology creates the Topology for parties participants, where self is the local party.
//
// endpoints[i] is used verbatim as the http endpoint of party i, and its websocket endpoint
// is obtained by removing a trailing "/tss". endpoints[self] is never read, and entries past
// parties are ignored.
func BuildTopology(parties int, self ID, endpoints []string) (*Topology, error) {
	if parties <= 0 {
		return nil, fmt.Errorf("%w: %d parties", ErrInvalidTopology, parties)
	}
	if self < 0 || int(self) >= parties {
		return nil, fmt.Errorf("%w: self index %d not in [0, %d)", ErrInvalidTopology, self, parties)
	}
	if len(endpoints) < parties {
		return nil, fmt.Errorf("%w: %d endpoints for %d parties", ErrInvalidTopology, len(endpoints), parties)
	}

	t := &Topology{
		Self:            self,
		PartyIndexes:    Range(parties),
		Endpoints:       make([]string, parties),
		SocketEndpoints: make([]string, parties),
	}
	for i := 0; i < parties; i++ {
		if ID(i) == self {
			continue
		}
		t.Endpoints[i] = endpoints[i]
		t.SocketEndpoints[i] = SocketEndpoint(endpoints[i])
	}
	return t, nil
}

// SocketEndpoint derives the websocket endpoint of a node from its http endpoint.
func SocketEndpoint(endpoint string) string {
	return strings.TrimSuffix(endpoint, socketSuffix)
}

// N returns the number of parties.
func (t *Topology) N() int {
	return len(t.PartyIndexes)
}

// IsSelf returns true if id is the local party.
func (t *Topology) IsSelf(id ID) bool {
	return id == t.Self
}

// Remotes returns the IDs of every party other than Self.
func (t *Topology) Remotes() IDSlice {
	return t.PartyIndexes.Remove(t.Self)
}

// Endpoint returns the http and websocket endpoints of party id.
// ok is false for Self and for unknown parties.
func (t *Topology) Endpoint(id ID) (endpoint, socket string, ok bool) {
	if t.IsSelf(id) || id < 0 || int(id) >= t.N() {
		return "", "", false
	}
	return t.Endpoints[id], t.SocketEndpoints[id], true
}
