// Package boundary isolates rendering faults. A Boundary renders a set of
// components; the first component that fails or panics moves the boundary
// to Faulted for good, and from then on only the fallback view is written.
package boundary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"financetrack/internal/log"
	"financetrack/internal/metrics"
)

// ErrFallbackRendered is returned by Render when the fallback view was
// written instead of the components.
var ErrFallbackRendered = errors.New("boundary: fallback rendered")

// State is the boundary's lifecycle state.
type State int32

const (
	Healthy State = iota
	Faulted
)

func (s State) String() string {
	if s == Faulted {
		return "faulted"
	}
	return "healthy"
}

// Component is one renderable part of the page.
type Component struct {
	Name   string
	Render func(ctx context.Context, w io.Writer) error
}

// Fault describes the failure that tripped the boundary.
type Fault struct {
	Err       error
	Component string
	// Stack is set when the failure was a panic.
	Stack []byte
	At    time.Time
}

// Message is the text shown in the fallback view.
func (f Fault) Message() string {
	if f.Err == nil {
		return "unknown error"
	}
	return f.Err.Error()
}

// PanicError wraps a value recovered from a panicking component.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprint(e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Reporter forwards faults to an error tracker.
type Reporter interface {
	Report(ctx context.Context, f Fault)
}

// FallbackFunc writes the view shown once the boundary is faulted.
type FallbackFunc func(w io.Writer, f Fault) error

// Boundary is safe for concurrent use.
type Boundary struct {
	state    atomic.Int32
	trip     sync.Once
	fault    atomic.Pointer[Fault]
	logger   *log.Logger
	reporter Reporter
	fallback FallbackFunc
}

// Option configures a Boundary.
type Option func(*Boundary)

// WithReporter sets the error tracker faults are reported to.
func WithReporter(r Reporter) Option {
	return func(b *Boundary) { b.reporter = r }
}

// WithFallback replaces the default fallback view.
func WithFallback(f FallbackFunc) Option {
	return func(b *Boundary) { b.fallback = f }
}

// New returns a Healthy boundary.
func New(logger *log.Logger, opts ...Option) *Boundary {
	b := &Boundary{
		logger:   logger.WithComponent(log.ComponentBoundary),
		fallback: DefaultFallback,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state.
func (b *Boundary) State() State {
	return State(b.state.Load())
}

// Faulted reports whether the boundary has tripped.
func (b *Boundary) Faulted() bool {
	return b.State() == Faulted
}

// Fault returns the recorded fault, false while Healthy.
func (b *Boundary) Fault() (Fault, bool) {
	f := b.fault.Load()
	if f == nil {
		return Fault{}, false
	}
	return *f, true
}

// Render writes every component to w in order. Components render
// concurrently into private buffers, so nothing reaches w unless all of
// them succeed. On failure the boundary faults and the fallback is written
// instead; Render then returns ErrFallbackRendered. Other errors come from
// writing to w.
func (b *Boundary) Render(ctx context.Context, w io.Writer, components ...Component) error {
	if b.Faulted() {
		return b.writeFallback(w)
	}

	bufs := make([]bytes.Buffer, len(components))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range components {
		g.Go(func() error {
			return renderComponent(gctx, &bufs[i], c)
		})
	}

	if err := g.Wait(); err != nil {
		b.tripWith(ctx, err)
		return b.writeFallback(w)
	}
	// Another pass may have faulted while this one rendered.
	if b.Faulted() {
		return b.writeFallback(w)
	}

	for i := range bufs {
		if _, err := bufs[i].WriteTo(w); err != nil {
			return fmt.Errorf("write %s: %w", components[i].Name, err)
		}
	}
	return nil
}

// componentError carries the failing component out of the errgroup.
type componentError struct {
	component string
	stack     []byte
	err       error
}

func (e *componentError) Error() string { return e.component + ": " + e.err.Error() }
func (e *componentError) Unwrap() error { return e.err }

func renderComponent(ctx context.Context, w io.Writer, c Component) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &componentError{component: c.Name, stack: debug.Stack(), err: &PanicError{Value: r}}
		}
	}()
	if c.Render == nil {
		return &componentError{component: c.Name, err: errors.New("component has no renderer")}
	}
	if err := c.Render(ctx, w); err != nil {
		return &componentError{component: c.Name, err: err}
	}
	return nil
}

// tripWith moves the boundary to Faulted. Only the first caller records
// the fault; later failures are dropped.
func (b *Boundary) tripWith(ctx context.Context, err error) {
	f := Fault{Err: err, At: time.Now()}
	var ce *componentError
	if errors.As(err, &ce) {
		f.Component = ce.component
		f.Stack = ce.stack
		f.Err = ce.err
	}

	tripped := false
	b.trip.Do(func() {
		b.fault.Store(&f)
		b.state.Store(int32(Faulted))
		tripped = true
	})
	if !tripped {
		b.logger.DebugContext(ctx, "Additional render failure after fault",
			log.FieldView, f.Component, log.FieldError, f.Err)
		return
	}

	args := []any{log.FieldView, f.Component, log.FieldError, f.Err}
	if f.Stack != nil {
		args = append(args, log.FieldStack, string(f.Stack))
	}
	b.logger.ErrorContext(ctx, "Uncaught render error", args...)
	metrics.RecordRenderFault(f.Component)
	if b.reporter != nil {
		b.reporter.Report(ctx, f)
	}
}

func (b *Boundary) writeFallback(w io.Writer) error {
	f, _ := b.Fault()
	if err := b.fallback(w, f); err != nil {
		return fmt.Errorf("render fallback: %w", err)
	}
	return ErrFallbackRendered
}
