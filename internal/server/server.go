// ABOUTME: Voicecast WebSocket server
// ABOUTME: Handshakes listeners, tracks their state, and owns the stream engine
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Voicecast-Project/voicecast-go/internal/discovery"
	"github.com/Voicecast-Project/voicecast-go/internal/protocol"
	"github.com/Voicecast-Project/voicecast-go/internal/source"
	"github.com/Voicecast-Project/voicecast-go/pkg/opus"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Config holds server configuration.
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
	AudioFile  string // path to audio file to stream (WAV, MP3, FLAC). Empty = test tone
}

// Server streams encoded audio to WebSocket clients.
type Server struct {
	config   Config
	serverID string

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*Client
	clientsMu sync.RWMutex

	// Server clock (monotonic microseconds)
	clockStart time.Time

	engine *AudioEngine

	mdnsManager *discovery.Manager

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client is one connected listener. Fields under mu are mutated by
// player/update messages; the rest are fixed at handshake time.
type Client struct {
	ID            string
	Name          string
	Conn          *websocket.Conn
	Roles         []string
	SupportCodecs []string

	// State
	State  string
	Volume int
	Muted  bool

	// Negotiated codec for this client ("opus" or "pcm") and the encoder
	// backing it. The encoder is owned by the audio engine: created on
	// subscribe, used only from the engine loop, closed on unsubscribe.
	Codec   string
	Encoder *opus.Encoder

	sendChan chan interface{}

	mu sync.RWMutex
}

// New creates a voicecast server. Start brings up the listener and the
// stream engine.
func New(config Config) *Server {
	return &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Designed for trusted local networks; non-browser clients
				// send no Origin header at all.
				return true
			},
		},
		clients:    make(map[string]*Client),
		clockStart: time.Now(),
		stopChan:   make(chan struct{}),
	}
}

// Start runs the server until Stop is called or the listener fails.
func (s *Server) Start() error {
	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	src, err := source.New(s.config.AudioFile)
	if err != nil {
		return fmt.Errorf("failed to create audio source: %w", err)
	}

	s.engine = NewAudioEngine(s, src)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	s.mux.HandleFunc("/voicecast", s.handleWebSocket)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.Start()
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("WebSocket server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	// Reject new connections while draining
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	s.engine.Stop()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop initiates a graceful shutdown. Safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// handleWebSocket upgrades an incoming request on /voicecast.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.handleConnection(conn)
}

// handleConnection runs the handshake and then the read loop for one
// listener. Players are subscribed to the stream engine for the lifetime of
// the connection.
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	// Wait for client/hello
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	if msg.Type != "client/hello" {
		log.Printf("Expected client/hello, got %s", msg.Type)
		return
	}

	helloData, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("Error marshaling hello payload: %v", err)
		return
	}

	var hello protocol.ClientHello
	if err := json.Unmarshal(helloData, &hello); err != nil {
		log.Printf("Error unmarshaling client hello: %v", err)
		return
	}

	if hello.ClientID == "" {
		log.Printf("Client hello missing ClientID")
		return
	}
	if hello.Name == "" {
		log.Printf("Client hello missing Name")
		return
	}

	log.Printf("Client hello: %s (ID: %s, Roles: %v, Codecs: %v)",
		hello.Name, hello.ClientID, hello.SupportedRoles, hello.SupportCodecs)

	client := &Client{
		ID:            hello.ClientID,
		Name:          hello.Name,
		Conn:          conn,
		Roles:         hello.SupportedRoles,
		SupportCodecs: hello.SupportCodecs,
		State:         "idle",
		Volume:        100,
		Muted:         false,
		sendChan:      make(chan interface{}, 100),
	}

	// Check for duplicate client ID and register atomically
	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.Name)

		errorMsg := protocol.Message{
			Type: "server/error",
			Payload: map[string]string{
				"error":   "duplicate_client_id",
				"message": "Client ID already connected",
			},
		}
		if data, err := json.Marshal(errorMsg); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		log.Printf("Client disconnected: %s", client.Name)
	}()

	serverHello := protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
	}

	if err := s.sendMessage(client, "server/hello", serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	if s.hasRole(client, "player") {
		s.engine.AddClient(client)
		defer s.engine.RemoveClient(client)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(client, data)
	}
}

// clientWriter drains the client's send channel onto the socket. Audio
// chunks go out as binary frames, everything else as JSON text. A write
// failure ends the writer; the read loop notices the broken socket.
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing binary message: %v", err)
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage dispatches one inbound control message.
func (s *Server) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	switch msg.Type {
	case "client/time":
		s.handleTimeSync(client, msg.Payload)
	case "player/update":
		s.handlePlayerUpdate(client, msg.Payload)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// handleTimeSync answers a client/time probe with the server clock, letting
// listeners map chunk timestamps onto their local clocks.
func (s *Server) handleTimeSync(client *Client, payload interface{}) {
	// Receive time is captured before any parsing so the round-trip
	// estimate stays tight.
	serverRecv := s.getClockMicros()

	timeData, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling time payload: %v", err)
		return
	}

	var clientTime protocol.ClientTime
	if err := json.Unmarshal(timeData, &clientTime); err != nil {
		log.Printf("Error unmarshaling client time: %v", err)
		return
	}

	serverSend := s.getClockMicros()

	if s.config.Debug {
		log.Printf("[DEBUG] Time sync for %s: t1=%d, t2=%d, t3=%d",
			client.Name, clientTime.ClientTransmitted, serverRecv, serverSend)
	}

	response := protocol.ServerTime{
		ClientTransmitted: clientTime.ClientTransmitted,
		ServerReceived:    serverRecv,
		ServerTransmitted: serverSend,
	}

	if err := s.sendMessage(client, "server/time", response); err != nil {
		log.Printf("Error sending server time: %v", err)
	}
}

// handlePlayerUpdate records a listener's reported playback state. The
// server only tracks it; volume and mute are applied listener-side.
func (s *Server) handlePlayerUpdate(client *Client, payload interface{}) {
	stateData, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling state payload: %v", err)
		return
	}

	var state protocol.ClientState
	if err := json.Unmarshal(stateData, &state); err != nil {
		log.Printf("Error unmarshaling client state: %v", err)
		return
	}

	client.mu.Lock()
	client.State = state.State
	client.Volume = state.Volume
	client.Muted = state.Muted
	client.mu.Unlock()

	log.Printf("Client %s state: %s (vol: %d, muted: %v)", client.Name, state.State, state.Volume, state.Muted)
}

// sendMessage queues a JSON control message without blocking. A full buffer
// is an error so the stream loop never stalls behind a slow listener.
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendBinary queues an audio chunk without blocking.
func (s *Server) sendBinary(client *Client, data []byte) error {
	select {
	case client.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// getClockMicros returns the server stream clock in microseconds since
// startup. Chunk timestamps and time-sync responses share this clock.
func (s *Server) getClockMicros() int64 {
	return time.Since(s.clockStart).Microseconds()
}

// hasRole reports whether the listener announced the given role.
func (s *Server) hasRole(client *Client, role string) bool {
	for _, r := range client.Roles {
		if r == role {
			return true
		}
	}
	return false
}
