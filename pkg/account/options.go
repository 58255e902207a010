package account

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/tss-account/pkg/protocol"
)

type options struct {
	log      zerolog.Logger
	rand     io.Reader
	clock    func() time.Time
	timeouts protocol.Timeouts
	parties  int
}

// Option configures an Account.
type Option func(*options)

// WithLogger sets the logger, which is disabled by default.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithRand sets the randomness used for session nonces, crypto/rand by default.
func WithRand(rand io.Reader) Option {
	return func(o *options) { o.rand = rand }
}

// WithClock sets the clock mixed into session nonces.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithTimeouts sets the per phase timeouts of each signing session.
func WithTimeouts(timeouts protocol.Timeouts) Option {
	return func(o *options) { o.timeouts = timeouts }
}

// WithParties sets the size of the signing set, the local party included.
func WithParties(n int) Option {
	return func(o *options) { o.parties = n }
}
