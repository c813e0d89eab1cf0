// Package timeouts holds the deadlines handlers put on document-store calls.
//
// Ping bounds health checks, Short single-document work, Medium queries and
// merge upserts, Long multi-document writes such as creating or joining a
// house, and Batch recursive deletes and instance generation.
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dalemusser/waffle/pantry/timeout"
	"go.uber.org/zap"
)

// Set is one value per class of store call.
type Set struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Defaults is the set in effect until Apply is called.
var Defaults = Set{
	Ping:   2 * time.Second,
	Short:  5 * time.Second,
	Medium: 10 * time.Second,
	Long:   30 * time.Second,
	Batch:  time.Minute,
}

var current atomic.Pointer[Set]

func init() {
	d := Defaults
	current.Store(&d)
}

func Ping() time.Duration   { return current.Load().Ping }
func Short() time.Duration  { return current.Load().Short }
func Medium() time.Duration { return current.Load().Medium }
func Long() time.Duration   { return current.Load().Long }
func Batch() time.Duration  { return current.Load().Batch }

// Apply installs s, taking the default for any field that is not positive,
// and returns the set now in effect. Apply(Set{}) restores the defaults.
func Apply(s Set) Set {
	pick := func(v, def time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return def
	}
	eff := Set{
		Ping:   pick(s.Ping, Defaults.Ping),
		Short:  pick(s.Short, Defaults.Short),
		Medium: pick(s.Medium, Defaults.Medium),
		Long:   pick(s.Long, Defaults.Long),
		Batch:  pick(s.Batch, Defaults.Batch),
	}
	current.Store(&eff)
	return eff
}

// WithTimeout bounds parent by d, keeping any earlier deadline parent
// already has. The returned cancel logs a warning when the deadline was
// what ended the operation.
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := timeout.WithShorter(parent, d)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", d))
		}
		cancel()
	}
}
