package ledger

import (
	"io"
	"log/slog"
	"time"
)

// Observer receives the outcome of blockchain operations, typically to record
// metrics.
type Observer interface {
	ObserveAppend(err error, started time.Time)
	ObserveVerify(err error, length int, started time.Time)
}

type noopObserver struct{}

func (noopObserver) ObserveAppend(error, time.Time) {}
func (noopObserver) ObserveVerify(error, int, time.Time) {}

type options struct {
	clock          func() time.Time
	logger         *slog.Logger
	observer       Observer
	genesisPayload any
}

// Option configures a Blockchain.
type Option func(options) options

func defaultOptions() options {
	return options{
		clock:          time.Now,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:       noopObserver{},
		genesisPayload: GenesisPayload,
	}
}

// WithClock sets the source of block timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o options) options {
		if clock != nil {
			o.clock = clock
		}
		return o
	}
}

// WithLogger sets the logger used for debug and warning messages.
func WithLogger(logger *slog.Logger) Option {
	return func(o options) options {
		if logger != nil {
			o.logger = logger
		}
		return o
	}
}

// WithObserver registers an observer for append and verify operations.
func WithObserver(observer Observer) Option {
	return func(o options) options {
		if observer != nil {
			o.observer = observer
		}
		return o
	}
}

// WithGenesisPayload replaces the payload of the genesis block.
func WithGenesisPayload(payload any) Option {
	return func(o options) options {
		o.genesisPayload = payload
		return o
	}
}
