package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/tts-engine/internal/azure"
	"github.com/snarg/tts-engine/internal/metrics"
)

var (
	// How often a caller waiting on another goroutine's dial re-checks the cell.
	openPollInterval = 200 * time.Millisecond
	// Delay between dial attempts after a transient failure.
	dialRetryDelay = time.Second
)

// Pool keeps at most one live session per cell and serializes session opens
// through an opening latch so concurrent callers trigger a single dial.
type Pool struct {
	backend azure.Backend
	dial    func(ctx context.Context) (Conn, error)
	log     zerolog.Logger
	// onDialed runs after each successful new-session open.
	onDialed func()

	opening atomic.Bool

	mu      sync.Mutex
	session *Session
}

func NewPool(backend azure.Backend, log zerolog.Logger) *Pool {
	return &Pool{
		backend: backend,
		dial: func(ctx context.Context) (Conn, error) {
			return backend.Dial(ctx)
		},
		log: log.With().Str("component", "pool").Str("backend", backend.Kind().String()).Logger(),
	}
}

// Acquire returns the live session, opening one if needed. Only one caller
// dials at a time; the rest poll until the session appears or ctx expires.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	for {
		if s := p.current(); s != nil {
			return s, nil
		}
		if p.opening.CompareAndSwap(false, true) {
			s, err := p.open(ctx)
			p.opening.Store(false)
			return s, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(openPollInterval):
		}
	}
}

// open dials until it succeeds, ctx expires, or the failure is terminal.
// Rejected credentials are terminal; retrying them cannot help.
func (p *Pool) open(ctx context.Context) (*Session, error) {
	kind := p.backend.Kind().String()
	for {
		conn, err := p.dial(ctx)
		if err == nil {
			metrics.UpstreamDialsTotal.WithLabelValues(kind, "ok").Inc()
			s := NewSession(conn, p.backend.Kind(), p.log, p.clear)
			p.mu.Lock()
			p.session = s
			p.mu.Unlock()
			s.Start()
			p.log.Info().Msg("session opened")
			if p.onDialed != nil {
				p.onDialed()
			}
			return s, nil
		}

		metrics.UpstreamDialsTotal.WithLabelValues(kind, "error").Inc()
		if errors.Is(err, azure.ErrPermissionDenied) {
			p.log.Error().Err(err).Msg("dial rejected, not retrying")
			return nil, err
		}
		p.log.Warn().Err(err).Msg("dial failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialRetryDelay):
		}
	}
}

func (p *Pool) current() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil && p.session.Closed() {
		p.session = nil
	}
	return p.session
}

// clear runs as the session's onClose hook.
func (p *Pool) clear(s *Session) {
	p.mu.Lock()
	if p.session == s {
		p.session = nil
	}
	p.mu.Unlock()
}

// OpenSessions is 1 while a live session exists, else 0.
func (p *Pool) OpenSessions() int {
	if p.current() != nil {
		return 1
	}
	return 0
}

// InFlight counts calls awaiting audio on the live session.
func (p *Pool) InFlight() int {
	if s := p.current(); s != nil {
		return s.Pending()
	}
	return 0
}

// SubscriptionPool holds one cell per credential. Unpinned calls rotate over
// the configured credentials; the rotation index advances each time a cell
// opens a new session, so a healthy long-lived session keeps serving until
// it drops. Pinned calls get a dedicated cell created on first use.
type SubscriptionPool struct {
	log     zerolog.Logger
	factory func(azure.Credential) *azure.Subscription

	mu    sync.Mutex
	order []azure.Credential
	cells map[string]*subCell
	next  int
}

type subCell struct {
	backend *azure.Subscription
	pool    *Pool
}

func NewSubscriptionPool(creds []azure.Credential, factory func(azure.Credential) *azure.Subscription, log zerolog.Logger) *SubscriptionPool {
	sp := &SubscriptionPool{
		log:     log.With().Str("component", "subscription-pool").Logger(),
		factory: factory,
		order:   creds,
		cells:   make(map[string]*subCell),
	}
	for _, c := range creds {
		sp.cell(c, true)
	}
	return sp
}

// cell returns the cell for cred, creating it if absent. Only cells for
// configured credentials advance the rotation on open.
func (sp *SubscriptionPool) cell(cred azure.Credential, rotates bool) *subCell {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if c, ok := sp.cells[cred.Hash()]; ok {
		return c
	}
	backend := sp.factory(cred)
	pool := NewPool(backend, sp.log)
	if rotates {
		pool.onDialed = sp.advance
	}
	c := &subCell{backend: backend, pool: pool}
	sp.cells[cred.Hash()] = c
	return c
}

func (sp *SubscriptionPool) advance() {
	sp.mu.Lock()
	if len(sp.order) > 0 {
		sp.next = (sp.next + 1) % len(sp.order)
	}
	sp.mu.Unlock()
}

// Backend returns the upstream bound to cred, creating it on first use.
// Pinned requests validate voices against this backend's own catalog.
func (sp *SubscriptionPool) Backend(cred azure.Credential) *azure.Subscription {
	return sp.cell(cred, false).backend
}

// Backends lists the upstreams for the configured credentials.
func (sp *SubscriptionPool) Backends() []*azure.Subscription {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	out := make([]*azure.Subscription, 0, len(sp.order))
	for _, c := range sp.order {
		out = append(out, sp.cells[c.Hash()].backend)
	}
	return out
}

// Acquire returns a session for the given credential, or for the current
// rotation credential when cred is nil.
func (sp *SubscriptionPool) Acquire(ctx context.Context, cred *azure.Credential) (*Session, error) {
	if cred != nil {
		return sp.cell(*cred, false).pool.Acquire(ctx)
	}

	sp.mu.Lock()
	if len(sp.order) == 0 {
		sp.mu.Unlock()
		return nil, errors.New("broker: no subscription credentials configured")
	}
	c := sp.cells[sp.order[sp.next].Hash()]
	sp.mu.Unlock()
	return c.pool.Acquire(ctx)
}

func (sp *SubscriptionPool) OpenSessions() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	n := 0
	for _, c := range sp.cells {
		n += c.pool.OpenSessions()
	}
	return n
}

func (sp *SubscriptionPool) InFlight() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	n := 0
	for _, c := range sp.cells {
		n += c.pool.InFlight()
	}
	return n
}
