// Package connectivity watches whether the catalog host is reachable.
//
// A Monitor probes on an interval and invokes loss and restore callbacks at
// most once per transition. It only reports; it never cancels in-flight work.
package connectivity

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Status is the last observed reachability.
type Status int

// Reachability states.
const (
	StatusUnknown Status = iota
	StatusOnline
	StatusOffline
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Prober checks reachability once.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// DialProber opens and closes a TCP connection to Address.
type DialProber struct {
	Address string
	Timeout time.Duration
}

// Probe implements Prober.
func (p DialProber) Probe(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = constants.DialTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// ProberForURL builds a DialProber for the host of rawURL, defaulting the
// port from the scheme.
func ProberForURL(rawURL string) (DialProber, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return DialProber{}, errors.NewValidationError("base_url", rawURL, "absolute URL required")
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return DialProber{Address: net.JoinHostPort(u.Hostname(), port)}, nil
}

// Monitor tracks reachability transitions.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *zerolog.Logger

	mu         sync.Mutex
	status     Status
	onLost     []func()
	onRestored []func()
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the probe period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the monitor logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a monitor using prober.
func New(prober Prober, opts ...Option) *Monitor {
	m := &Monitor{
		prober:   prober,
		interval: constants.DefaultConnectivityInterval,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnLost registers a callback for the transition to offline.
func (m *Monitor) OnLost(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLost = append(m.onLost, fn)
}

// OnRestored registers a callback for the transition from offline to online.
func (m *Monitor) OnRestored(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRestored = append(m.onRestored, fn)
}

// Status returns the last observed status.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Check probes once and fires callbacks if the status changed.
func (m *Monitor) Check(ctx context.Context) Status {
	err := m.prober.Probe(ctx)
	if ctx.Err() != nil {
		return m.Status()
	}

	next := StatusOnline
	if err != nil {
		next = StatusOffline
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	var callbacks []func()
	switch {
	case next == StatusOffline && prev != StatusOffline:
		callbacks = append(callbacks, m.onLost...)
	case next == StatusOnline && prev == StatusOffline:
		callbacks = append(callbacks, m.onRestored...)
	}
	m.mu.Unlock()

	if prev != next {
		evt := m.logger.Info()
		if err != nil {
			evt = m.logger.Warn().Err(err)
		}
		evt.Str("from", prev.String()).Str("to", next.String()).Msg("Connectivity changed")
	}
	for _, fn := range callbacks {
		fn()
	}
	return next
}

// Run probes immediately and then every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
