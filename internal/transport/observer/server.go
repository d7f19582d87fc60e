package observer

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"outpost.sim/internal/protocol"
	"outpost.sim/internal/sim/colony"
)

type Server struct {
	colony *colony.Colony
	log    *log.Logger

	width, height int
	seed          int64
	tickRateHz    int

	upgrader  websocket.Upgrader
	subscribe *jsonschema.Schema
}

// NewServer compiles the SUBSCRIBE schema up front; a bad schema path is a
// deployment error, not a runtime branch.
func NewServer(c *colony.Colony, logger *log.Logger, schemaDir string, width, height int, seed int64, tickRateHz int) (*Server, error) {
	sub, err := jsonschema.Compile(schemaDir + "/subscribe.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile subscribe schema: %w", err)
	}
	return &Server{
		colony:     c,
		log:        logger,
		width:      width,
		height:     height,
		seed:       seed,
		tickRateHz: tickRateHz,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subscribe: sub,
	}, nil
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		resp := protocol.BootstrapResponse{
			ProtocolVersion: protocol.Version,
			ColonyID:        s.colony.ID(),
			Tick:            s.colony.CurrentTick(),
			Width:           s.width,
			Height:          s.height,
			Seed:            s.seed,
			TickRateHz:      s.tickRateHz,
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send a valid SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := s.decodeSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, protocol.ErrProtoBadRequest),
				time.Now().Add(time.Second))
			return
		}

		out := make(chan []byte, 8)
		sid := s.colony.AttachObserver(out)
		defer s.colony.DetachObserver(sid)

		// The reader loop may refresh the subscription under the writer.
		var mu sync.Mutex
		every := func() int {
			mu.Lock()
			defer mu.Unlock()
			return sub.EveryTicks
		}

		// Writer: forward the feed, honoring the client's downsample rate.
		// The feed channel is never closed (the colony loop may still hold
		// it); the writer stops via done instead.
		done := make(chan struct{})
		writeErr := make(chan error, 1)
		go func() {
			n := 0
			for {
				select {
				case <-done:
					writeErr <- nil
					return
				case b := <-out:
					n++
					if e := every(); e > 1 && n%e != 0 {
						continue
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader: allow SUBSCRIBE refreshes; anything invalid is ignored.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if next, ok := s.decodeSubscribe(msg); ok {
				mu.Lock()
				sub = next
				mu.Unlock()
			}
		}

		close(done)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) decodeSubscribe(b []byte) (protocol.SubscribeMsg, bool) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return protocol.SubscribeMsg{}, false
	}
	if err := s.subscribe.Validate(raw); err != nil {
		if s.log != nil {
			s.log.Printf("observer: invalid SUBSCRIBE: %v", err)
		}
		return protocol.SubscribeMsg{}, false
	}
	var sub protocol.SubscribeMsg
	if err := json.Unmarshal(b, &sub); err != nil {
		return protocol.SubscribeMsg{}, false
	}
	if sub.Type != protocol.TypeSubscribe || sub.ProtocolVersion != protocol.Version {
		return protocol.SubscribeMsg{}, false
	}
	return sub, true
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
