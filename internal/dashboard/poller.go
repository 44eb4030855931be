// Package dashboard keeps a role's view of the jobs in step with the record store by polling it.
package dashboard

import (
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/logger"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// Polling defaults
const (
	DefaultInterval = 3 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// FetchFunc loads the full job list
type FetchFunc func(ctx context.Context) ([]models.Job, error)

// ChangeFunc receives the projected job list whenever it differs from the previous delivery
type ChangeFunc func(jobs []models.Job)

// PollConfig describes whose view is polled and how often
type PollConfig struct {
	Role     models.UserRole
	UserID   string
	Interval time.Duration
	// Timeout bounds each fetch
	Timeout time.Duration
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Poller runs at most one polling loop at a time
type Poller struct {
	startMu    sync.Mutex
	mu         sync.Mutex
	current    *Handle
	generation atomic.Uint64
}

// NewPoller creates an idle Poller
func NewPoller() *Poller {
	return &Poller{}
}

// Handle controls one polling loop
type Handle struct {
	poller     *Poller
	generation uint64
	cancel     context.CancelFunc
	stopOnce   sync.Once
	stoppedCh  chan struct{}

	// cbMu is held while onChange runs so Stop can wait for it
	cbMu    sync.Mutex
	stopped bool
}

// Start begins polling, stopping any loop started earlier by this poller.
// The first fetch happens immediately, then one per interval.
func (p *Poller) Start(cfg PollConfig, fetch FetchFunc, onChange ChangeFunc) *Handle {
	cfg = cfg.withDefaults()

	p.startMu.Lock()
	defer p.startMu.Unlock()

	p.mu.Lock()
	prev := p.current
	p.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		poller:     p,
		generation: p.generation.Add(1),
		cancel:     cancel,
		stoppedCh:  make(chan struct{}),
	}

	p.mu.Lock()
	p.current = h
	p.mu.Unlock()

	go h.run(ctx, cfg, fetch, onChange)
	return h
}

// Stop stops h. It is the same as h.Stop().
func (p *Poller) Stop(h *Handle) {
	if h != nil {
		h.Stop()
	}
}

// Stop ends the loop. It is idempotent and returns once any running onChange has finished;
// no onChange starts afterwards. It must not be called from inside this handle's onChange.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()

		h.cbMu.Lock()
		h.stopped = true
		h.cbMu.Unlock()

		h.poller.mu.Lock()
		if h.poller.current == h {
			h.poller.current = nil
		}
		h.poller.mu.Unlock()

		close(h.stoppedCh)
	})
}

// Done is closed once Stop has completed
func (h *Handle) Done() <-chan struct{} {
	return h.stoppedCh
}

func (h *Handle) run(ctx context.Context, cfg PollConfig, fetch FetchFunc, onChange ChangeFunc) {
	last := []models.Job{}

	tick := func() {
		fetchCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		jobs, err := fetch(fetchCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil {
				logger.WarnWithFields("dashboard poll failed", map[string]interface{}{
					"role":    cfg.Role.String(),
					"user_id": cfg.UserID,
					"error":   err.Error(),
				})
			}
			return
		}

		projected := workflow.ProjectForRole(jobs, cfg.Role, cfg.UserID)
		if reflect.DeepEqual(projected, last) {
			return
		}

		h.cbMu.Lock()
		defer h.cbMu.Unlock()
		// A fetch that outlived Stop, or a loop superseded by a newer Start, delivers nothing.
		if h.stopped || h.poller.generation.Load() != h.generation {
			return
		}
		last = projected
		onChange(slices.Clone(projected))
	}

	tick()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}
