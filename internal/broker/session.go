package broker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/snarg/tts-engine/internal/azure"
	"github.com/snarg/tts-engine/internal/metrics"
)

// ErrSessionClosed fails calls whose upstream session died before turn.end.
var ErrSessionClosed = errors.New("broker: upstream session closed")

// Conn is the subset of *websocket.Conn the session uses. Concurrent writes
// are serialized by the session; reads happen only on the session's read
// goroutine.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Result is one finished synthesis: the reassembled audio and the media type
// reported by the first data frame. MediaType is empty when upstream never
// reported one.
type Result struct {
	Audio     []byte
	MediaType string
}

type callResult struct {
	res *Result
	err error
}

type pendingCall struct {
	id        string
	buf       bytes.Buffer
	mediaType string
	done      chan callResult
}

// Session multiplexes synthesis calls over one upstream websocket. Audio
// frames are routed to callers by request id; the session tears down on the
// first read or write error and fails every outstanding call.
type Session struct {
	conn    Conn
	backend azure.Kind
	log     zerolog.Logger
	onClose func(*Session)

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]*pendingCall
	closed  bool

	closeOnce sync.Once
}

func NewSession(conn Conn, backend azure.Kind, log zerolog.Logger, onClose func(*Session)) *Session {
	return &Session{
		conn:    conn,
		backend: backend,
		log:     log.With().Str("component", "session").Str("backend", backend.String()).Logger(),
		onClose: onClose,
		pending: make(map[string]*pendingCall),
	}
}

// Start launches the read loop. Call exactly once after construction.
func (s *Session) Start() {
	go s.readLoop()
}

// Closed reports whether the session has torn down. A closed session never
// accepts new calls; pools drop it and open a fresh one.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pending returns the number of calls awaiting turn.end.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close tears the session down and fails outstanding calls.
func (s *Session) Close() {
	s.teardown(ErrSessionClosed)
}

// Call registers the request id, writes the synthesis frames in order, and
// blocks until turn.end, session death, or ctx expiry. The id is registered
// before the first byte is written so no inbound audio can race the registration.
func (s *Session) Call(ctx context.Context, id string, frames []string) (*Result, error) {
	call := &pendingCall{id: id, done: make(chan callResult, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if _, dup := s.pending[id]; dup {
		s.mu.Unlock()
		return nil, fmt.Errorf("broker: request id %s already in flight", id)
	}
	s.pending[id] = call
	s.mu.Unlock()

	if err := s.writeFrames(frames); err != nil {
		s.drop(id)
		s.teardown(err)
		return nil, fmt.Errorf("write synthesis frames: %w", err)
	}

	select {
	case r := <-call.done:
		return r.res, r.err
	case <-ctx.Done():
		// Late audio for this id is dropped by the read loop.
		s.drop(id)
		return nil, fmt.Errorf("synthesis wait: %w", ctx.Err())
	}
}

func (s *Session) writeFrames(frames []string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, f := range frames {
		if err := s.conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) drop(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *Session) readLoop() {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.teardown(fmt.Errorf("%w: %v", ErrSessionClosed, err))
			return
		}
		switch msgType {
		case websocket.TextMessage:
			s.handleText(data)
		case websocket.BinaryMessage:
			s.handleBinary(data)
		}
	}
}

func (s *Session) handleText(data []byte) {
	m, err := azure.ParseTextMessage(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("unparseable text frame")
		return
	}
	switch m.Path {
	case azure.PathTurnStart:
		s.log.Debug().Str("request_id", m.RequestID).Msg("turn started")
	case azure.PathTurnEnd:
		s.finish(m.RequestID)
	default:
		s.log.Debug().Str("path", m.Path).Msg("ignoring text frame")
	}
}

func (s *Session) handleBinary(data []byte) {
	m, err := azure.ParseBinaryMessage(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("unparseable binary frame")
		return
	}
	if !m.HasAudio() {
		return
	}

	s.mu.Lock()
	call := s.pending[m.RequestID]
	if call != nil {
		call.buf.Write(m.Payload)
		if call.mediaType == "" {
			call.mediaType = m.ContentType
		}
	}
	s.mu.Unlock()

	if call == nil {
		s.log.Debug().Str("request_id", m.RequestID).Msg("dropping audio for unknown request")
	}
}

func (s *Session) finish(id string) {
	s.mu.Lock()
	call := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if call == nil {
		return
	}

	if call.buf.Len() == 0 {
		call.done <- callResult{err: fmt.Errorf("broker: turn ended with no audio for request %s", id)}
		return
	}
	call.done <- callResult{res: &Result{Audio: call.buf.Bytes(), MediaType: call.mediaType}}
}

// teardown closes the socket and fails every pending call. Idempotent.
func (s *Session) teardown(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		orphans := s.pending
		s.pending = make(map[string]*pendingCall)
		s.mu.Unlock()

		s.conn.Close()
		for _, call := range orphans {
			call.done <- callResult{err: cause}
		}
		metrics.UpstreamDisconnectsTotal.WithLabelValues(s.backend.String()).Inc()
		s.log.Info().Int("orphaned_calls", len(orphans)).AnErr("cause", cause).Msg("session closed")

		if s.onClose != nil {
			s.onClose(s)
		}
	})
}
