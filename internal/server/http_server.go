package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grimleaf/grimleaf/internal/bot"
)

// HttpServer exposes the running session over HTTP: a JSON snapshot, a
// websocket live feed, Prometheus metrics and a remote stop control.
type HttpServer struct {
	logger   *slog.Logger
	server   *http.Server
	stats    *bot.Stats
	metrics  *Metrics
	wsServer *WebSocketServer
	stop     func()
	done     chan struct{}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// New builds the status server. stop is invoked by POST /stop and must
// be safe to call more than once.
func New(logger *slog.Logger, stats *bot.Stats, metrics *Metrics, stop func()) *HttpServer {
	return &HttpServer{
		logger:  logger,
		stats:   stats,
		metrics: metrics,
		stop:    stop,
		done:    make(chan struct{}),
	}
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

type WebSocketServer struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewWebSocketServer() *WebSocketServer {
	return &WebSocketServer{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (s *WebSocketServer) Run() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = true
		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(s.clients, client)
				}
			}
		}
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to websocket", "error", err)
		return
	}

	client := &Client{conn: conn, send: make(chan []byte, 256)}
	s.register <- client

	go s.writePump(client)
	go s.readPump(client)
}

func (s *WebSocketServer) writePump(client *Client) {
	defer func() {
		client.conn.Close()
	}()

	for message := range client.send {
		w, err := client.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}
	client.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (s *WebSocketServer) readPump(client *Client) {
	defer func() {
		s.unregister <- client
		client.conn.Close()
	}()

	for {
		_, _, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read error", "error", err)
			}
			break
		}
	}
}

// BroadcastStatus pushes the session snapshot to every websocket client
// once a second and refreshes the snapshot-backed metrics on the way.
func (s *HttpServer) BroadcastStatus() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			snap := s.stats.Snapshot()
			if s.metrics != nil {
				s.metrics.ObserveSnapshot(snap)
			}
			jsonData, err := json.Marshal(snap)
			if err != nil {
				s.logger.Error("failed to marshal status data", "error", err)
				continue
			}

			select {
			case s.wsServer.broadcast <- jsonData:
			default:
			}
		}
	}
}

func (s *HttpServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.status)
	mux.HandleFunc("/ws", s.wsServer.HandleWebSocket)
	mux.HandleFunc("/stop", s.stopSession)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

func (s *HttpServer) Listen(addr string) error {
	s.wsServer = NewWebSocketServer()
	go s.wsServer.Run()
	go s.BroadcastStatus()

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}

	s.logger.Info("status server listening", slog.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HttpServer) Stop() error {
	close(s.done)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *HttpServer) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats.Snapshot()); err != nil {
		s.logger.Error("failed to encode status", slog.Any("error", err))
	}
}

func (s *HttpServer) stopSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	s.logger.Info("stop requested over HTTP", slog.String("remote", r.RemoteAddr))
	s.stop()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"stopping":true}`)
}
