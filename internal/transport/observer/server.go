package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"homeship.ai/internal/protocol"
	"homeship.ai/internal/sim/ship"
)

// Server streams the ship to read-only observers. The ship is single-threaded, so the owner
// pushes frames with Publish and WriteAudit; the server never reads ship state itself.
type Server struct {
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu     sync.Mutex
	layout []byte
	subs   map[string]*subscriber

	dropped atomic.Uint64
}

type subscriber struct {
	out   chan []byte
	audit atomic.Bool
}

func NewServer(logger *log.Logger) *Server {
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: map[string]*subscriber{},
	}
}

// Publish replaces the current layout frame and sends it to every subscriber.
func (s *Server) Publish(msg protocol.LayoutMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = b
	for _, sub := range s.subs {
		s.offer(sub, b)
	}
}

// WriteAudit implements ship.AuditSink. Entries go only to subscribers that asked for them.
func (s *Server) WriteAudit(e ship.AuditEntry) error {
	b, err := json.Marshal(auditFrame(e))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.audit.Load() {
			s.offer(sub, b)
		}
	}
	return nil
}

// Subscribers reports the number of connected observers.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Server) Dropped() uint64 { return s.dropped.Load() }

// offer never blocks; a slow observer loses frames. Caller holds s.mu.
func (s *Server) offer(sub *subscriber, b []byte) {
	select {
	case sub.out <- b:
	default:
		s.dropped.Add(1)
	}
}

// LayoutHandler serves the current layout frame as JSON.
func (s *Server) LayoutHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		s.mu.Lock()
		b := s.layout
		s.mu.Unlock()
		if b == nil {
			http.Error(rw, "no layout yet", http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(b)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := decodeSubscribe(msg)
		if !ok {
			_ = writeJSON(conn, protocol.ErrorMsg{
				Type:            protocol.TypeError,
				ProtocolVersion: protocol.Version,
				Code:            protocol.ErrProtoBadRequest,
				Message:         "expected SUBSCRIBE",
			})
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		me := &subscriber{out: make(chan []byte, 256)}
		me.audit.Store(sub.Audit)

		s.mu.Lock()
		if s.layout != nil {
			me.out <- s.layout
		}
		s.subs[sid] = me
		s.mu.Unlock()
		if s.log != nil {
			s.log.Printf("observer %s joined from %s audit=%v", sid, r.RemoteAddr, sub.Audit)
		}
		defer func() {
			s.mu.Lock()
			delete(s.subs, sid)
			s.mu.Unlock()
			if s.log != nil {
				s.log.Printf("observer %s left", sid)
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-me.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: SUBSCRIBE may be re-sent to toggle audit entries.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if sub, ok := decodeSubscribe(msg); ok {
				me.audit.Store(sub.Audit)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func decodeSubscribe(msg []byte) (protocol.SubscribeMsg, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeSubscribe || base.ProtocolVersion != protocol.Version {
		return protocol.SubscribeMsg{}, false
	}
	var sub protocol.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return protocol.SubscribeMsg{}, false
	}
	return sub, true
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
