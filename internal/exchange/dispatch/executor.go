package dispatch

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/dshills/stormdrain/internal/flow"
)

// Result is the outcome of one receiver call.
type Result struct {
	// Success is true if the receiver returned without error or panic.
	Success bool

	// Error is the error returned by the receiver, or the context error
	// when the call was skipped.
	Error error

	// Panicked is true if the receiver panicked.
	Panicked bool

	// PanicValue is the value passed to panic().
	PanicValue any

	// PanicStack is the stack trace captured at recovery.
	PanicStack []byte

	// Duration is how long the receiver ran.
	Duration time.Duration

	// Skipped is true if the receiver was never called because the
	// context was already done.
	Skipped bool
}

// IsSuccess returns true if the call completed cleanly.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// PanicHandler is called after a receiver panic has been recovered.
type PanicHandler func(msg any, panicValue any, stack []byte)

// Executor calls receivers with panic recovery and timing.
type Executor struct {
	panicHandler PanicHandler
}

// Option configures an Executor.
type Option func(*Executor)

// WithPanicHandler sets the handler invoked on recovered panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// NewExecutor creates an executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute delivers msg to r and reports what happened.
func (e *Executor) Execute(ctx context.Context, msg any, r flow.Receiver[any]) (result Result) {
	select {
	case <-ctx.Done():
		return Result{Error: ctx.Err(), Skipped: true}
	default:
	}

	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if v := recover(); v != nil {
			stack := debug.Stack()

			result.Success = false
			result.Panicked = true
			result.PanicValue = v
			result.PanicStack = stack

			if e.panicHandler != nil {
				func() {
					// A panicking panic handler must not take the sender down.
					defer func() { _ = recover() }()
					e.panicHandler(msg, v, stack)
				}()
			}
		}
	}()

	if err := r.Send(ctx, msg); err != nil {
		result.Error = err
		return result
	}
	result.Success = true
	return result
}
