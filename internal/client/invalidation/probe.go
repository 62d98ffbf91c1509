package invalidation

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultProbeInterval is the liveness polling period.
const DefaultProbeInterval = 30 * time.Second

// ProbeConfig configures a Probe.
type ProbeConfig struct {
	URL      string
	Interval time.Duration
	// Client defaults to a client with a 5s timeout. It should not carry the
	// Interceptor: probe failures are handled here.
	Client      *http.Client
	Invalidator *Invalidator
	// OnServerRestart runs once per healthy -> unhealthy transition.
	OnServerRestart func()
	Logger          zerolog.Logger
}

// Probe polls a liveness endpoint and invalidates the session when it fails.
type Probe struct {
	cfg       ProbeConfig
	inFlight  atomic.Bool
	unhealthy atomic.Bool
	restarted atomic.Bool
}

// NewProbe applies defaults to cfg.
func NewProbe(cfg ProbeConfig) *Probe {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultProbeInterval
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Probe{cfg: cfg}
}

// Check runs one probe. A transport error or a non-2xx status is a failure; the
// returned error wraps ErrServiceUnavailable. Overlapping calls are skipped and
// return nil.
func (p *Probe) Check(ctx context.Context) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.cfg.Logger.Debug().Msg("probe skipped: previous check in flight")
		return nil
	}
	defer p.inFlight.Store(false)

	err := p.ping(ctx)
	if err == nil {
		if p.unhealthy.CompareAndSwap(true, false) {
			p.cfg.Logger.Info().Msg("service reachable again")
		}
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err = fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	if p.cfg.Invalidator != nil {
		_ = p.cfg.Invalidator.Clear(ctx, err)
	}
	if p.unhealthy.CompareAndSwap(false, true) {
		p.restarted.Store(true)
		p.cfg.Logger.Warn().Err(err).Msg("liveness probe failed")
		if p.cfg.OnServerRestart != nil {
			p.cfg.OnServerRestart()
		}
	}
	return err
}

func (p *Probe) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return err
	}
	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %s", resp.Status)
	}
	return nil
}

// Restarted reports whether a failure was seen since the last Acknowledge. The
// host keeps its blocking overlay up while it is set.
func (p *Probe) Restarted() bool { return p.restarted.Load() }

// Acknowledge clears the Restarted latch, as a manual reload does.
func (p *Probe) Acknowledge() { p.restarted.Store(false) }

// Handle controls a running probe loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the loop and waits for it and any in-flight check to finish.
// Safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Start checks immediately and then every Interval until ctx is cancelled or
// Stop is called.
func (p *Probe) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	var wg sync.WaitGroup
	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Check(ctx)
		}()
	}

	go func() {
		defer close(h.done)
		defer wg.Wait()

		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		tick()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
	return h
}
