package opencloud

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rbxcloud-io/rbxcloud/internal/constants"
)

// Poller issues a single status check against a long-running operation
// path. Implemented by the operations client in internal/client.
type Poller interface {
	PollOperation(ctx context.Context, path string) (*OperationResponse, error)
}

// Materializer resolves the terminal payload of a completed operation
// into its typed result. It is either a conversion function or a fixed
// value, decided at construction rather than probed at runtime.
type Materializer[T any] struct {
	fn    func(json.RawMessage) (T, error)
	value T
	fixed bool
}

// MaterializeFunc builds a Materializer that converts the operation's
// terminal JSON payload with fn.
func MaterializeFunc[T any](fn func(json.RawMessage) (T, error)) Materializer[T] {
	return Materializer[T]{fn: fn}
}

// FixedResult builds a Materializer that returns value verbatim once the
// operation completes, ignoring the payload.
func FixedResult[T any](value T) Materializer[T] {
	return Materializer[T]{value: value, fixed: true}
}

func (m Materializer[T]) resolve(payload json.RawMessage) (T, error) {
	if m.fixed {
		return m.value, nil
	}

	return m.fn(payload)
}

// Operation is a handle to a server-side asynchronous job, such as an
// asset upload awaiting moderation. It is a pure value object: there is
// no server-side resource to release.
type Operation[T any] struct {
	poller      Poller
	path        string
	materialize Materializer[T]
	cached      json.RawMessage
	done        bool
}

// OperationOption configures an Operation at construction.
type OperationOption func(*operationOptions)

type operationOptions struct {
	cached json.RawMessage
}

// WithCachedResponse seeds the operation with a terminal payload already
// returned by the initiating call. Wait then materializes it without any
// network traffic.
func WithCachedResponse(payload json.RawMessage) OperationOption {
	return func(o *operationOptions) {
		o.cached = payload
	}
}

// NewOperation creates a handle polling path through poller.
func NewOperation[T any](poller Poller, path string, materialize Materializer[T], opts ...OperationOption) *Operation[T] {
	options := operationOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	return &Operation[T]{
		poller:      poller,
		path:        path,
		materialize: materialize,
		cached:      options.cached,
		done:        options.cached != nil,
	}
}

// Path returns the polling path of the operation.
func (o *Operation[T]) Path() string {
	return o.path
}

// Done reports whether the operation is known to be complete. Once true
// it never becomes false again.
func (o *Operation[T]) Done() bool {
	return o.done
}

// FetchStatus checks the operation's status. A pending operation returns
// (zero, false, nil); that is a sentinel, not an error. A completed
// operation flips Done permanently, caches the terminal payload, and
// returns the materialized result. Once done, no further network polls
// are issued.
func (o *Operation[T]) FetchStatus(ctx context.Context) (T, bool, error) {
	var zero T

	if o.done {
		result, err := o.materialize.resolve(o.cached)
		if err != nil {
			return zero, true, fmt.Errorf("materializing operation result: %w", err)
		}

		return result, true, nil
	}

	resp, err := o.poller.PollOperation(ctx, o.path)
	if err != nil {
		return zero, false, fmt.Errorf("polling operation: %w", err)
	}

	if !resp.Done {
		return zero, false, nil
	}

	o.done = true
	o.cached = resp.Response

	result, err := o.materialize.resolve(resp.Response)
	if err != nil {
		return zero, true, fmt.Errorf("materializing operation result: %w", err)
	}

	return result, true, nil
}

// WaitOptions tunes Operation.Wait polling.
type WaitOptions struct {
	// Timeout bounds total wall-clock wait time. Zero means no limit.
	Timeout time.Duration

	// Interval is the delay before the second status check. Zero makes
	// the first re-poll immediate.
	Interval time.Duration

	// IntervalExponent multiplies the interval after every check. Values
	// below 1 are treated as 1 (constant interval).
	IntervalExponent float64

	// MinInterval is the floor applied to the grown interval, so a zero
	// starting interval cannot poll flat-out forever. Zero selects the
	// default floor; a negative value removes the floor entirely.
	MinInterval time.Duration
}

// DefaultWaitOptions mirrors the polling defaults of the upstream API
// guidance: a one minute budget with gently growing intervals.
func DefaultWaitOptions() WaitOptions {
	return WaitOptions{
		Timeout:          constants.DefaultWaitTimeout,
		IntervalExponent: constants.DefaultWaitExponent,
	}
}

func (w WaitOptions) exponent() float64 {
	if w.IntervalExponent < 1 {
		return 1
	}

	return w.IntervalExponent
}

func (w WaitOptions) floor() time.Duration {
	switch {
	case w.MinInterval < 0:
		return 0
	case w.MinInterval == 0:
		return constants.DefaultMinWaitInterval
	default:
		return w.MinInterval
	}
}

// Wait blocks until the operation completes, the timeout elapses, or ctx
// is cancelled. A handle seeded with a cached terminal payload returns
// immediately with zero network calls. Timeout failures wrap
// ErrOperationTimeout, distinct from transport errors, so callers can
// tell "still running" from "service broken".
func (o *Operation[T]) Wait(ctx context.Context, opts WaitOptions) (T, error) {
	var zero T

	if o.done {
		result, err := o.materialize.resolve(o.cached)
		if err != nil {
			return zero, fmt.Errorf("materializing operation result: %w", err)
		}

		return result, nil
	}

	start := time.Now()
	interval := opts.Interval

	for {
		result, done, err := o.FetchStatus(ctx)
		if err != nil {
			return zero, err
		}

		if done {
			return result, nil
		}

		if opts.Timeout > 0 && time.Since(start) > opts.Timeout {
			return zero, fmt.Errorf("after %s: %w", opts.Timeout, ErrOperationTimeout)
		}

		if interval > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()

				return zero, fmt.Errorf("waiting for operation: %w", ctx.Err())
			case <-timer.C:
			}
		}

		interval = time.Duration(float64(interval) * opts.exponent())
		if floor := opts.floor(); interval < floor {
			interval = floor
		}
	}
}
