package printer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"escpos-print/internal/layout"
)

// DefaultGracePeriod is how long a disconnected session stays open for reuse
const DefaultGracePeriod = 20 * time.Second

// Pool owns the sessions of all connected printers, at most one per address.
//
// Disconnect does not close a session right away: it arms an idle timer
// and any operation routed through the pool before it fires cancels it.
type Pool struct {
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	// in-flight dials keyed by address
	dials singleflight.Group

	gracePeriod time.Duration
	transports  TransportFunc
	transOpts   TransportOptions
	paperSize   layout.PaperSize
	charCode    string
	log         *zap.Logger
	onEvent     EventHandler
}

// Option configures a Pool
type Option func(*Pool)

// WithGracePeriod sets the delay between Disconnect and teardown
func WithGracePeriod(d time.Duration) Option {
	return func(p *Pool) { p.gracePeriod = d }
}

// WithDialer replaces the built-in bluetooth and network transports
func WithDialer(fn TransportFunc) Option {
	return func(p *Pool) { p.transports = fn }
}

// WithTransportOptions tunes the built-in transports
func WithTransportOptions(opts TransportOptions) Option {
	return func(p *Pool) { p.transOpts = opts }
}

// WithWriteTimeout bounds every write of the built-in transports
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Pool) { p.transOpts.WriteTimeout = d }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// WithEventHandler registers the receiver of connection events
func WithEventHandler(fn EventHandler) Option {
	return func(p *Pool) { p.onEvent = fn }
}

// WithDefaults sets the paper size and code page new sessions start with
func WithDefaults(size layout.PaperSize, charCode string) Option {
	return func(p *Pool) {
		p.paperSize = size
		p.charCode = charCode
	}
}

func NewPool(opts ...Option) *Pool {
	p := &Pool{
		sessions:    make(map[string]*Session),
		gracePeriod: DefaultGracePeriod,
		transOpts:   DefaultTransportOptions(),
		paperSize:   layout.PaperSize58mm,
		charCode:    DefaultCharCode,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.transports == nil {
		p.transports = NewTransportFunc(p.transOpts)
	}
	return p
}

// Connect opens a session for address unless one is already registered, in
// which case it succeeds without touching the existing connection.
// Concurrent calls for the same address share a single dial; dials never
// hold up operations on other addresses.
func (p *Pool) Connect(ctx context.Context, address string, port int, typ string) error {
	if strings.TrimSpace(address) == "" || strings.TrimSpace(typ) == "" {
		return ErrMissingArguments
	}
	kind, err := ParseKind(typ)
	if err != nil {
		return err
	}
	cp, err := LookupCodePage(p.charCode)
	if err != nil {
		return err
	}

	if ok, err := p.claim(address); ok || err != nil {
		return err
	}

	ch := p.dials.DoChan(address, func() (any, error) {
		return nil, p.dial(ctx, kind, address, port, cp)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, address, ctx.Err())
	}
}

// claim reports whether address already has a session and cancels its
// pending disconnect, since reconnecting counts as using the session.
func (p *Pool) claim(address string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, address, ErrClosed)
	}
	s, ok := p.sessions[address]
	if !ok {
		return false, nil
	}
	s.timer.cancel()
	s.timer = nil
	return true, nil
}

// dial opens the transport without holding p.mu and registers the session
func (p *Pool) dial(ctx context.Context, kind Kind, address string, port int, cp CodePage) error {
	// a previous flight may have registered address since claim
	if ok, err := p.claim(address); ok || err != nil {
		return err
	}

	t, err := p.transports(kind, address, port)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, address, err)
	}
	if err := t.Connect(ctx); err != nil {
		p.log.Warn("connect failed", zap.String("address", address), zap.String("type", string(kind)), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, address, err)
	}
	s := NewSession(address, kind, t, p.paperSize, cp, p.log)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.closeQuietly(s)
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, address, ErrClosed)
	}
	p.sessions[address] = s
	p.mu.Unlock()

	p.log.Info("printer connected", zap.String("address", address), zap.String("type", string(kind)))
	p.emit(s, EventConnected)
	return nil
}

// Disconnect schedules the teardown of address after the grace period.
// Calling it again while a teardown is pending restarts the grace period.
func (p *Pool) Disconnect(address string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	s.timer.cancel()
	s.timer = newIdleTimer(p.gracePeriod, func(it *idleTimer) { p.expire(s, it) })

	p.log.Debug("disconnect scheduled", zap.String("address", address), zap.Duration("grace", p.gracePeriod))
	return nil
}

// expire runs when an idle timer fires
func (p *Pool) expire(s *Session, it *idleTimer) {
	p.mu.Lock()
	cur, ok := p.sessions[s.address]
	if !ok || cur != s || s.timer != it || !it.markFired() {
		p.mu.Unlock()
		return
	}
	delete(p.sessions, s.address)
	s.timer = nil
	p.closeQuietly(s)
	p.mu.Unlock()

	p.log.Info("printer disconnected", zap.String("address", s.address), zap.String("reason", "idle"))
	p.emit(s, EventDisconnected)
}

// DisconnectOnError tears down address immediately. Close errors are
// logged and dropped.
func (p *Pool) DisconnectOnError(address string) {
	p.mu.Lock()
	s, ok := p.sessions[address]
	p.mu.Unlock()
	if ok {
		p.dropFailed(s)
	}
}

// dropFailed removes s if it is still the session registered for its address
func (p *Pool) dropFailed(s *Session) {
	p.mu.Lock()
	if cur, ok := p.sessions[s.address]; !ok || cur != s {
		p.mu.Unlock()
		return
	}
	p.removeLocked(s)
	p.mu.Unlock()

	p.log.Info("printer disconnected", zap.String("address", s.address), zap.String("reason", "error"))
	p.emit(s, EventDisconnected)
}

// removeLocked unregisters and closes s. Callers hold p.mu.
func (p *Pool) removeLocked(s *Session) {
	s.timer.cancel()
	s.timer = nil
	delete(p.sessions, s.address)
	p.closeQuietly(s)
}

func (p *Pool) closeQuietly(s *Session) {
	if err := s.Close(); err != nil {
		p.log.Warn("close failed", zap.String("address", s.address), zap.Error(err))
	}
}

// Session returns the session of address and cancels its pending
// disconnect, if any.
func (p *Pool) Session(address string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	if s.timer.cancel() {
		p.log.Debug("disconnect cancelled", zap.String("address", address))
	}
	s.timer = nil
	return s, nil
}

// Do runs fn on the session of address. A transport failure tears the
// session down so the next Connect starts afresh.
func (p *Pool) Do(address string, fn func(*Session) error) error {
	s, err := p.Session(address)
	if err != nil {
		return err
	}
	err = fn(s)
	if errors.Is(err, ErrConnectionFailed) {
		p.log.Warn("transport failed", zap.String("address", address), zap.Error(err))
		p.dropFailed(s)
	}
	return err
}

// Addresses returns the registered addresses in sorted order
func (p *Pool) Addresses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.sessions))
	for addr := range p.sessions {
		out = append(out, addr)
	}
	slices.Sort(out)
	return out
}

// Close tears down every session. Later Connect calls fail and dials still
// in flight are closed once they finish.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	closed := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		p.removeLocked(s)
		closed = append(closed, s)
	}
	p.mu.Unlock()

	for _, s := range closed {
		p.emit(s, EventDisconnected)
	}
}

// Emit forwards an event that did not originate in the pool, such as a
// discovered device, to the event handler.
func (p *Pool) Emit(ev Event) {
	if p.onEvent != nil {
		p.onEvent(ev)
	}
}

// emit reports state changes of bluetooth sessions
func (p *Pool) emit(s *Session, state EventState) {
	if s.kind != KindBluetooth {
		return
	}
	p.Emit(Event{State: state, DeviceInfo: DeviceInfo{MACAddress: s.address}})
}
