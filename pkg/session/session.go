package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/taurusgroup/tss-account/pkg/hash"
	"github.com/taurusgroup/tss-account/pkg/math/curve"
	"github.com/taurusgroup/tss-account/pkg/math/sample"
)

// Delimiters between the components of an ID, as parsed by the remote protocol engine.
const (
	delimiterVerifier = "\u001c"
	delimiterTag      = "\u0015"
	delimiterNonce    = "\u0016"
	delimiterSession  = "\u0017"
)

// fingerprintBytes is the number of digest bytes used by ID.Fingerprint.
const fingerprintBytes = 8

var (
	ErrInvalidComponent = errors.New("session: invalid component")
	ErrMalformedID      = errors.New("session: malformed session id")
)

// ID identifies one signing session with the remote co-signers.
//
//	verifier ␜ verifierID ␕ tag ␖ nonce ␗ sessionNonce
//
// An ID must never be reused, a new one is assembled for every signature.
type ID string

// Components are the parts an ID is assembled from.
type Components struct {
	Verifier     string
	VerifierID   string
	Tag          string
	Nonce        int
	SessionNonce string
}

// Assembler creates fresh session IDs.
//
// The zero value uses crypto/rand and the wall clock.
type Assembler struct {
	Rand io.Reader
	Now  func() time.Time
}

// Assemble returns a new ID for the given verifier, user, tag and tss nonce.
//
// The session nonce is derived from a random scalar k and the current unix time t:
//
//	base64url(keccak256(decimal(k + t)))
//
// without padding.
func (a Assembler) Assemble(verifier, verifierID, tag string, nonce int) (ID, error) {
	for _, c := range []string{verifier, verifierID, tag} {
		if err := checkComponent(c); err != nil {
			return "", err
		}
	}
	if verifier == "" || verifierID == "" {
		return "", fmt.Errorf("%w: verifier and verifier id are required", ErrInvalidComponent)
	}
	if nonce < 0 {
		return "", fmt.Errorf("%w: negative nonce %d", ErrInvalidComponent, nonce)
	}

	sessionNonce, err := a.sessionNonce()
	if err != nil {
		return "", err
	}
	return Components{
		Verifier:     verifier,
		VerifierID:   verifierID,
		Tag:          tag,
		Nonce:        nonce,
		SessionNonce: sessionNonce,
	}.ID(), nil
}

func (a Assembler) sessionNonce() (string, error) {
	r := a.Rand
	if r == nil {
		r = rand.Reader
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}

	k, err := sample.NonZeroScalar(r, curve.Secp256k1{})
	if err != nil {
		return "", fmt.Errorf("session: sample nonce: %w", err)
	}
	x := curve.ScalarToBig(k)
	x.Add(x, big.NewInt(now().Unix()))
	return hash.Base64URL(hash.Keccak256([]byte(x.String()))), nil
}

func checkComponent(c string) error {
	if strings.ContainsAny(c, delimiterVerifier+delimiterTag+delimiterNonce+delimiterSession) {
		return fmt.Errorf("%w: %q contains a delimiter", ErrInvalidComponent, c)
	}
	return nil
}

// ID concatenates the components.
func (c Components) ID() ID {
	var b strings.Builder
	b.WriteString(c.Verifier)
	b.WriteString(delimiterVerifier)
	b.WriteString(c.VerifierID)
	b.WriteString(delimiterTag)
	b.WriteString(c.Tag)
	b.WriteString(delimiterNonce)
	b.WriteString(strconv.Itoa(c.Nonce))
	b.WriteString(delimiterSession)
	b.WriteString(c.SessionNonce)
	return ID(b.String())
}

// Parse splits id back into its components.
func (id ID) Parse() (Components, error) {
	var c Components
	rest := string(id)
	var ok bool
	if c.Verifier, rest, ok = strings.Cut(rest, delimiterVerifier); !ok {
		return Components{}, fmt.Errorf("%w: missing verifier", ErrMalformedID)
	}
	if c.VerifierID, rest, ok = strings.Cut(rest, delimiterTag); !ok {
		return Components{}, fmt.Errorf("%w: missing tag", ErrMalformedID)
	}
	if c.Tag, rest, ok = strings.Cut(rest, delimiterNonce); !ok {
		return Components{}, fmt.Errorf("%w: missing nonce", ErrMalformedID)
	}
	nonce, sessionNonce, ok := strings.Cut(rest, delimiterSession)
	if !ok || sessionNonce == "" {
		return Components{}, fmt.Errorf("%w: missing session nonce", ErrMalformedID)
	}
	n, err := strconv.Atoi(nonce)
	if err != nil || n < 0 {
		return Components{}, fmt.Errorf("%w: nonce %q", ErrMalformedID, nonce)
	}
	c.Nonce = n
	c.SessionNonce = sessionNonce
	return c, nil
}

// Fingerprint returns a short digest of the ID, safe to log.
func (id ID) Fingerprint() string {
	h := hash.New("session.ID")
	_ = h.WriteAny(string(id))
	return h.Fingerprint(fingerprintBytes)
}

func (id ID) String() string {
	return string(id)
}
