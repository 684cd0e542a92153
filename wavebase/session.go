// Package wavebase is the session manager: WebSocket lifecycle,
// authentication handshake, request/response correlation with
// deadlines, and exponential-backoff reconnection with subscription
// replay, dispatching decoded server messages into a rowcache.ClientCache.
package wavebase

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/wavebase/client-go/bsatn"
	"github.com/wavebase/client-go/metrics"
	"github.com/wavebase/client-go/protocol"
	"github.com/wavebase/client-go/rowcache"
	"github.com/wavebase/client-go/wberrors"
)

// BinarySubprotocol is advertised in the Sec-WebSocket-Protocol header
// on the initial handshake, per spec.md §6.
const BinarySubprotocol = "v1.bin.wavebase"

// Session owns the WebSocket, the reconnect loop, the pending-call
// registries, the active-subscription registry, and a reference to the
// ClientCache it feeds.
type Session struct {
	cfg   *ConnectionConfig
	cache *rowcache.ClientCache

	metricsRegistry *prometheus.Registry
	metrics         *metrics.Session

	requestIDs idGenerator
	queryIDs   idGenerator

	pendingReducers   *pendingRegistry[ReducerResult]
	pendingProcedures *pendingRegistry[ProcedureResult]
	pendingSubscribes *pendingRegistry[struct{}]

	pendingOneOffMu sync.Mutex
	pendingOneOff   map[string]*pendingCall[protocol.OneOffQueryResponse]

	activeSubs *subscriptionRegistry

	mu                 sync.Mutex
	state              State
	reconnectAttempt   int
	identity           bsatn.Identity
	hasIdentity        bool
	connectionID       bsatn.ConnectionId
	token              string
	ws                 *websocket.Conn
	cancel             context.CancelFunc
	writeCh            chan []byte
	handshakeDone      chan error
	explicitDisconnect bool

	onIdentity   func(bsatn.Identity, bsatn.ConnectionId)
	onConnect    func()
	onDisconnect func(error)
}

// NewSession validates cfg and builds a Session backed by cache. cache
// may be freshly constructed or already populated (e.g. from generated
// code registering table extractors).
func NewSession(cfg *ConnectionConfig, cache *rowcache.ClientCache) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	cache.SetMetrics(metrics.NewCache(reg))
	sessionMetrics := metrics.NewSession(reg)
	s := &Session{
		cfg:               cfg,
		cache:             cache,
		metricsRegistry:   reg,
		metrics:           sessionMetrics,
		pendingReducers:   newPendingRegistryWithGauge[ReducerResult](sessionMetrics.PendingCalls),
		pendingProcedures: newPendingRegistryWithGauge[ProcedureResult](sessionMetrics.PendingCalls),
		pendingSubscribes: newPendingRegistry[struct{}](),
		pendingOneOff:     make(map[string]*pendingCall[protocol.OneOffQueryResponse]),
		activeSubs:        newSubscriptionRegistryWithGauge(sessionMetrics.ActiveSubscriptions),
		token:             cfg.Token,
	}
	return s, nil
}

// MetricsRegistry exposes the session's Prometheus registry so the
// caller can serve it alongside their own metrics.
func (s *Session) MetricsRegistry() *prometheus.Registry { return s.metricsRegistry }

// Cache returns the row cache this session feeds.
func (s *Session) Cache() *rowcache.ClientCache { return s.cache }

// OnIdentity registers the callback invoked once per handshake, before
// OnConnect, with the identity and connection id from IdentityToken.
func (s *Session) OnIdentity(cb func(bsatn.Identity, bsatn.ConnectionId)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onIdentity = cb
}

// OnConnect registers the callback invoked once the session transitions
// to Connected, after OnIdentity.
func (s *Session) OnConnect(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = cb
}

// OnDisconnect registers the callback invoked when the session
// transitions to Disconnected, with a nil error for a caller-initiated
// Disconnect() and a non-nil error for a reconnect-exhausted failure.
func (s *Session) OnDisconnect(cb func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = cb
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the session's identity and connection id, and
// whether a handshake has completed at least once.
func (s *Session) Identity() (bsatn.Identity, bsatn.ConnectionId, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.connectionID, s.hasIdentity
}

func (s *Session) subscribeURL() string {
	return BuildSubscribeURL(s.cfg.Host, s.cfg.Module, s.cfg.Secure)
}

func (s *Session) headers() http.Header {
	h := http.Header{}
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// Connect opens the WebSocket, performs the handshake, and — on
// success — starts the receive, ping, and write loops. It blocks until
// the handshake resolves or ctx is cancelled. Attempting to send while
// not Connected fails with wberrors.NotConnected; Connect itself does
// not retry on failure (the caller decides whether to call it again),
// but a loss of an already-Connected session triggers the automatic
// reconnect algorithm in spec.md §4.E.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateConnected || s.state == StateConnecting {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.explicitDisconnect = false
	s.mu.Unlock()

	if err := s.openConnection(ctx); err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.state = StateConnected
	onConnect := s.onConnect
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SetState([]string{"disconnected", "connecting", "connected", "reconnecting"}, "connected")
	}
	if onConnect != nil {
		onConnect()
	}
	return nil
}

// openConnection dials, starts the receive/ping/write loops, and blocks
// until the first IdentityToken arrives (success) or the dial/handshake
// fails. It does not itself mutate s.state; callers (Connect and the
// reconnect loop) do so once they decide what the new state should be.
func (s *Session) openConnection(waitCtx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: s.cfg.ConnectionTimeout,
		Subprotocols:     []string{BinarySubprotocol},
	}
	ws, _, err := dialer.DialContext(waitCtx, s.subscribeURL(), s.headers())
	if err != nil {
		return &wberrors.ConnectionFailed{Cause: err}
	}

	connCtx, cancel := context.WithCancel(context.Background())
	writeCh := make(chan []byte, 16)
	handshakeDone := make(chan error, 1)

	s.mu.Lock()
	s.ws = ws
	s.cancel = cancel
	s.writeCh = writeCh
	s.handshakeDone = handshakeDone
	s.mu.Unlock()

	group, gctx := errgroup.WithContext(connCtx)
	group.Go(func() error { return s.receiveLoop(gctx, ws, handshakeDone) })
	if s.cfg.PingInterval > 0 {
		group.Go(func() error { return s.pingLoop(gctx, ws) })
	}
	group.Go(func() error { return s.writeLoop(gctx, ws, writeCh) })

	go s.superviseConnection(group)

	select {
	case err := <-handshakeDone:
		if err != nil {
			cancel()
			return err
		}
		return nil
	case <-waitCtx.Done():
		cancel()
		return waitCtx.Err()
	}
}

func (s *Session) superviseConnection(group *errgroup.Group) {
	err := group.Wait()
	s.handleConnectionLoss(err)
}

// send encodes and enqueues msg on the current connection's write
// channel. Returns wberrors.NotConnected outside the Connected state.
func (s *Session) send(msg protocol.ClientMessage) error {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return wberrors.NotConnected
	}
	ch := s.writeCh
	s.mu.Unlock()

	encoded, err := protocol.EncodeClientMessage(msg)
	if err != nil {
		return wberrors.WrapInternal("encode client message", err)
	}
	select {
	case ch <- encoded:
		return nil
	case <-time.After(s.cfg.ConnectionTimeout):
		return wberrors.WrapInternal("send", fmt.Errorf("write channel full"))
	}
}

// Disconnect cancels timers, closes the socket with a normal-closure
// status, cancels every pending call with wberrors.Cancelled,
// transitions to Disconnected, and fires OnDisconnect with a nil error.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.explicitDisconnect = true
	cancel := s.cancel
	ws := s.ws
	s.state = StateDisconnected
	onDisconnect := s.onDisconnect
	s.mu.Unlock()

	if ws != nil {
		deadline := time.Now().Add(time.Second)
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = ws.Close()
	}
	if cancel != nil {
		cancel()
	}

	s.cancelAllPending(wberrors.Cancelled)
	s.activeSubs.clear()

	if s.metrics != nil {
		s.metrics.SetState([]string{"disconnected", "connecting", "connected", "reconnecting"}, "disconnected")
	}
	if onDisconnect != nil {
		onDisconnect(nil)
	}
}

func (s *Session) cancelAllPending(err error) {
	for _, pc := range s.pendingReducers.drain() {
		pc.complete(ReducerResult{}, err)
	}
	for _, pc := range s.pendingProcedures.drain() {
		pc.complete(ProcedureResult{}, err)
	}
	for _, pc := range s.pendingSubscribes.drain() {
		pc.complete(struct{}{}, err)
	}
	s.pendingOneOffMu.Lock()
	for key, pc := range s.pendingOneOff {
		pc.complete(protocol.OneOffQueryResponse{}, err)
		delete(s.pendingOneOff, key)
	}
	s.pendingOneOffMu.Unlock()
}

// handleConnectionLoss runs the reconnection algorithm of spec.md §4.E
// once the receive/ping/write group for the current connection exits.
func (s *Session) handleConnectionLoss(groupErr error) {
	s.mu.Lock()
	if s.explicitDisconnect || s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	wasConnected := s.state == StateConnected
	s.mu.Unlock()
	if !wasConnected {
		// The initial handshake failed and was already reported
		// synchronously to the Connect() caller via openConnection.
		return
	}

	glog.Infof("wavebase: connection lost: %v", groupErr)
	s.cancelAllPending(&wberrors.ConnectionClosed{Reason: errString(groupErr)})

	if s.cfg.MaxReconnectAttempts <= 0 {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		s.activeSubs.clear()
		s.fireDisconnect(&wberrors.ConnectionClosed{Reason: errString(groupErr)})
		return
	}

	for attempt := 0; attempt < s.cfg.MaxReconnectAttempts; attempt++ {
		s.mu.Lock()
		if s.explicitDisconnect {
			s.mu.Unlock()
			return
		}
		s.state = StateReconnecting
		s.reconnectAttempt = attempt + 1
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.ReconnectsTotal.Inc()
			s.metrics.SetState([]string{"disconnected", "connecting", "connected", "reconnecting"}, "reconnecting")
		}

		delay := s.cfg.DelayForAttempt(attempt)
		time.Sleep(delay)

		s.mu.Lock()
		if s.explicitDisconnect {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		if err := s.openConnection(context.Background()); err == nil {
			s.mu.Lock()
			s.state = StateConnected
			s.reconnectAttempt = 0
			onConnect := s.onConnect
			s.mu.Unlock()
			if s.metrics != nil {
				s.metrics.SetState([]string{"disconnected", "connecting", "connected", "reconnecting"}, "connected")
			}
			s.replaySubscriptions()
			if onConnect != nil {
				onConnect()
			}
			return
		} else {
			glog.Infof("wavebase: reconnect attempt %d failed: %v", attempt+1, err)
		}
	}

	s.mu.Lock()
	s.state = StateDisconnected
	s.mu.Unlock()
	s.activeSubs.clear()
	s.fireDisconnect(&wberrors.ReconnectFailed{Attempts: s.cfg.MaxReconnectAttempts})
}

// replaySubscriptions re-sends the union of every active subscription's
// queries as a single batch Subscribe, per spec.md §8 property 10.
func (s *Session) replaySubscriptions() {
	queries := s.activeSubs.unionQueries()
	if len(queries) == 0 {
		return
	}
	reqID := s.requestIDs.Next()
	if err := s.send(protocol.Subscribe{Queries: queries, RequestID: reqID}); err != nil {
		glog.Warningf("wavebase: subscription replay failed: %v", err)
	}
}

func (s *Session) fireDisconnect(err error) {
	s.mu.Lock()
	cb := s.onDisconnect
	s.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
