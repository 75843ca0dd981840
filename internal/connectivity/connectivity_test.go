package connectivity

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/pkg/logging"
)

// switchProber returns the configured outcome.
type switchProber struct {
	mu   sync.Mutex
	down bool
}

func (p *switchProber) set(down bool) {
	p.mu.Lock()
	p.down = down
	p.mu.Unlock()
}

func (p *switchProber) Probe(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.down {
		return errors.New("unreachable")
	}
	return nil
}

func TestMonitorFiresOncePerTransition(t *testing.T) {
	prober := &switchProber{}
	m := New(prober, WithLogger(logging.NewNopLogger()))

	var lost, restored atomic.Int32
	m.OnLost(func() { lost.Add(1) })
	m.OnRestored(func() { restored.Add(1) })
	ctx := context.Background()

	assert.Equal(t, StatusOnline, m.Check(ctx))
	assert.Equal(t, int32(0), restored.Load(), "initial online is not a restore")

	prober.set(true)
	m.Check(ctx)
	m.Check(ctx)
	m.Check(ctx)
	assert.Equal(t, int32(1), lost.Load())
	assert.Equal(t, StatusOffline, m.Status())

	prober.set(false)
	m.Check(ctx)
	m.Check(ctx)
	assert.Equal(t, int32(1), restored.Load())

	prober.set(true)
	m.Check(ctx)
	assert.Equal(t, int32(2), lost.Load())
}

func TestMonitorInitialOfflineFiresLost(t *testing.T) {
	prober := &switchProber{down: true}
	m := New(prober, WithLogger(logging.NewNopLogger()))
	var lost atomic.Int32
	m.OnLost(func() { lost.Add(1) })

	assert.Equal(t, StatusUnknown, m.Status())
	m.Check(context.Background())
	assert.Equal(t, int32(1), lost.Load())
}

func TestMonitorRunStopsWithContext(t *testing.T) {
	var probes atomic.Int32
	m := New(ProberFunc(func(context.Context) error {
		probes.Add(1)
		return nil
	}), WithInterval(5*time.Millisecond), WithLogger(logging.NewNopLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return probes.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestDialProber(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	assert.NoError(t, DialProber{Address: addr, Timeout: time.Second}.Probe(context.Background()))

	require.NoError(t, ln.Close())
	assert.Error(t, DialProber{Address: addr, Timeout: time.Second}.Probe(context.Background()))
}

func TestProberForURL(t *testing.T) {
	p, err := ProberForURL("https://fakestoreapi.com")
	require.NoError(t, err)
	assert.Equal(t, "fakestoreapi.com:443", p.Address)

	p, err = ProberForURL("http://localhost:8080/api")
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", p.Address)

	p, err = ProberForURL("http://example.test")
	require.NoError(t, err)
	assert.Equal(t, "example.test:80", p.Address)

	_, err = ProberForURL("nope")
	assert.Error(t, err)
}
