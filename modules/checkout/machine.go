// Package checkout implements the post-payment completion flow as an
// explicit state machine: a fixed processing delay simulating payment
// settlement, then a bounded-retry fetch of the authoritative order
// record.
package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/giftify/giftapi/common/model"
)

// Phase is the machine state: Processing -> Fetching -> {Success | Error},
// with Error -> Fetching allowed through Retry.
type Phase int

const (
	PhaseProcessing Phase = iota
	PhaseFetching
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseProcessing:
		return "processing"
	case PhaseFetching:
		return "fetching"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrMissingOrderID aborts the flow before any state is entered; the
// caller should redirect to its default view.
var ErrMissingOrderID = errors.New("checkout: missing order id")

// errEmptyOrder is recorded when a fetch succeeds but carries no order.
var errEmptyOrder = errors.New("checkout: order fetch returned no order")

// OrderFetcher loads the order detail, typically Service.GetOrder bound
// to a token.
type OrderFetcher func(ctx context.Context, orderID string) (*model.OrderDetail, error)

// Option tweaks machine timing; the defaults mirror the production web
// client.
type Option func(*Machine)

// WithProcessingDelay overrides the simulated settlement delay.
func WithProcessingDelay(d time.Duration) Option {
	return func(m *Machine) { m.processingDelay = d }
}

// WithRetry overrides the fetch retry budget and backoff curve. The delay
// before retry n is min(base * 2^n, cap).
func WithRetry(attempts int, base, cap time.Duration) Option {
	return func(m *Machine) {
		m.maxAttempts = attempts
		m.backoffBase = base
		m.backoffCap = cap
	}
}

// WithLogger attaches a logger for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// withSleep replaces the cancellable sleep in tests.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Machine) { m.sleep = sleep }
}

// Machine drives one checkout completion. It is single-use: Start once,
// then Retry from the error phase as often as the user asks. Cancelling
// the Start context stops pending timers and discards any fetch result
// that arrives afterwards.
type Machine struct {
	fetch OrderFetcher

	processingDelay time.Duration
	backoffBase     time.Duration
	backoffCap      time.Duration
	maxAttempts     int

	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger

	mu      sync.Mutex
	phase   Phase
	order   *model.OrderDetail
	lastErr error
	orderID string
	ctx     context.Context
	started bool

	transitions chan Phase
}

// Defaults mirrored from the production web client.
const (
	DefaultProcessingDelay = 1500 * time.Millisecond
	DefaultFetchAttempts   = 3
	DefaultBackoffBase     = 1 * time.Second
	DefaultBackoffCap      = 5 * time.Second
)

// NewMachine builds a completion machine around the given fetcher.
func NewMachine(fetch OrderFetcher, opts ...Option) *Machine {
	m := &Machine{
		fetch:           fetch,
		processingDelay: DefaultProcessingDelay,
		maxAttempts:     DefaultFetchAttempts,
		backoffBase:     DefaultBackoffBase,
		backoffCap:      DefaultBackoffCap,
		sleep:           sleepCtx,
		logger:          slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})),
		transitions:     make(chan Phase, 16),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start enters the Processing phase and runs the machine in the
// background. An empty orderID aborts immediately with ErrMissingOrderID,
// without entering any phase.
func (m *Machine) Start(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrMissingOrderID
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("checkout: machine already started")
	}
	m.started = true
	m.orderID = orderID
	m.ctx = ctx
	m.setPhaseLocked(PhaseProcessing)
	m.mu.Unlock()

	go m.run(ctx)
	return nil
}

// Retry re-enters Fetching from the Error phase with a fresh retry
// budget. It is a no-op in any other phase.
func (m *Machine) Retry() {
	m.mu.Lock()
	if m.phase != PhaseError || m.ctx == nil || m.ctx.Err() != nil {
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	m.setPhaseLocked(PhaseFetching)
	m.mu.Unlock()

	go m.fetchLoop(ctx)
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Order returns the fetched order detail once the machine reached Success.
func (m *Machine) Order() (*model.OrderDetail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order, m.order != nil
}

// Err returns the last fetch error, set while in the Error phase.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Transitions exposes the phase-change feed. The channel is buffered and
// never closed; a consumer that stops reading loses nothing but signals.
func (m *Machine) Transitions() <-chan Phase {
	return m.transitions
}

func (m *Machine) run(ctx context.Context) {
	// Processing is purely time-based; no network activity here.
	if err := m.sleep(ctx, m.processingDelay); err != nil {
		return
	}

	m.mu.Lock()
	m.setPhaseLocked(PhaseFetching)
	m.mu.Unlock()

	m.fetchLoop(ctx)
}

// fetchLoop spends one full retry budget on the order fetch. Each entry
// into Fetching (initial or via Retry) gets its own budget.
func (m *Machine) fetchLoop(ctx context.Context) {
	var lastErr error

	for attempt := 0; attempt < m.maxAttempts; attempt++ {
		detail, err := m.fetch(ctx, m.orderID)
		if ctx.Err() != nil {
			// consumer went away; discard whatever arrived
			return
		}
		if err == nil && detail != nil {
			m.mu.Lock()
			m.order = detail
			m.lastErr = nil
			m.setPhaseLocked(PhaseSuccess)
			m.mu.Unlock()
			return
		}
		if err == nil {
			err = errEmptyOrder
		}
		lastErr = err
		m.logger.Debug("order fetch failed", "orderId", m.orderID, "attempt", attempt+1, "error", err)

		if attempt < m.maxAttempts-1 {
			if serr := m.sleep(ctx, backoffDelay(m.backoffBase, m.backoffCap, attempt)); serr != nil {
				return
			}
		}
	}

	m.mu.Lock()
	m.lastErr = lastErr
	m.setPhaseLocked(PhaseError)
	m.mu.Unlock()
}

// setPhaseLocked records the phase and emits a transition signal. Callers
// hold m.mu.
func (m *Machine) setPhaseLocked(phase Phase) {
	m.phase = phase
	select {
	case m.transitions <- phase:
	default:
	}
	m.logger.Debug("phase transition", "orderId", m.orderID, "phase", phase.String())
}

// backoffDelay returns min(base * 2^attempt, cap).
func backoffDelay(base, cap time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt)
	if delay > cap || delay <= 0 {
		return cap
	}
	return delay
}

// sleepCtx waits for d or for ctx cancellation, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
