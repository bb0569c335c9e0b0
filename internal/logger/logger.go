// Package logger provides the configured zerolog logger shared by every binary.
package logger

import (
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// Option customises New.
type Option func(*options)

type options struct {
	level zerolog.Level
	out   io.Writer
}

// WithLevel sets the minimum level from its name (debug, info, warn, error).
// Unknown names leave the default (info).
func WithLevel(name string) Option {
	return func(o *options) {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name))); err == nil && lvl != zerolog.NoLevel {
			o.level = lvl
		}
	}
}

// WithConsole writes human-readable output instead of JSON.
func WithConsole() Option {
	return func(o *options) {
		o.out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
}

// New returns a zerolog.Logger tagged with serviceName.
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName string, opts ...Option) zerolog.Logger {
	o := options{level: zerolog.InfoLevel, out: os.Stdout}
	for _, fn := range opts {
		fn(&o)
	}

	// Marshal pkg/errors stacks; std errors get one attached when .Stack() is used.
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}

	return zerolog.New(o.out).Level(o.level).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
