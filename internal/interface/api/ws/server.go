package ws

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/evanblokender/Youtube-vm/internal/app/events"
)

// chatBacklog es cuántos mensajes de chat guarda el server para el
// snapshot inicial de cada cliente nuevo.
const chatBacklog = 80

// Server expone el estado del stream por WebSocket para el overlay de OBS.
// Solo escucha en loopback: el overlay corre en la misma máquina que el bot.
type Server struct {
	addr     string
	bus      *events.Bus
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*wsClient

	// último estado conocido, para el snapshot de conexión
	chat    []events.ChatMessageDTO
	active  *events.ActiveCommandDTO
	vote    *events.VoteStatusDTO
	httpSrv *http.Server
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// frame es el sobre de todo lo que viaja hacia el overlay.
type frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type snapshotData struct {
	Chat   []events.ChatMessageDTO  `json:"chat"`
	Active *events.ActiveCommandDTO `json:"active"`
	Vote   *events.VoteStatusDTO    `json:"vote"`
}

// NewServer crea el servidor del overlay escuchando en addr
// (ej. "127.0.0.1:7373").
func NewServer(addr string, bus *events.Bus) *Server {
	if addr == "" {
		addr = "127.0.0.1:7373"
	}
	return &Server{
		addr: addr,
		bus:  bus,
		upgrader: websocket.Upgrader{
			// El bind es loopback, el origin del navegador local no importa.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*wsClient),
	}
}

// Start levanta el HTTP server y el pump del bus; se bloquea hasta que el
// contexto se cancela.
func (s *Server) Start(ctx context.Context) error {
	if host, _, err := net.SplitHostPort(s.addr); err == nil {
		if ip := net.ParseIP(host); ip != nil && !ip.IsLoopback() {
			log.Printf("ws: advertencia: %s no es loopback, el overlay queda expuesto", s.addr)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/overlay", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})

	srv := &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	go s.pump(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ws: shutdown error: %v", err)
		}
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// pump consume el bus y retransmite cada evento a todos los clientes,
// actualizando de paso el estado para snapshots.
func (s *Server) pump(ctx context.Context) {
	chatCh, unsubChat := s.bus.Subscribe(events.TopicChatMessage)
	defer unsubChat()
	annCh, unsubAnn := s.bus.Subscribe(events.TopicAnnouncement)
	defer unsubAnn()
	cmdCh, unsubCmd := s.bus.Subscribe(events.TopicActiveCommand)
	defer unsubCmd()
	voteCh, unsubVote := s.bus.Subscribe(events.TopicVoteStatus)
	defer unsubVote()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-chatCh:
			if dto, ok := payload.(events.ChatMessageDTO); ok {
				s.appendChat(dto)
				s.broadcast(frame{Type: "chat", Data: dto})
			}
		case payload := <-annCh:
			if dto, ok := payload.(events.ChatMessageDTO); ok {
				s.appendChat(dto)
				s.broadcast(frame{Type: "announce", Data: dto})
			}
		case payload := <-cmdCh:
			dto, _ := payload.(*events.ActiveCommandDTO)
			s.mu.Lock()
			s.active = dto
			s.mu.Unlock()
			s.broadcast(frame{Type: "command", Data: dto})
		case payload := <-voteCh:
			dto, _ := payload.(*events.VoteStatusDTO)
			s.mu.Lock()
			s.vote = dto
			s.mu.Unlock()
			s.broadcast(frame{Type: "vote", Data: dto})
		}
	}
}

func (s *Server) appendChat(dto events.ChatMessageDTO) {
	s.mu.Lock()
	s.chat = append(s.chat, dto)
	if len(s.chat) > chatBacklog {
		s.chat = s.chat[len(s.chat)-chatBacklog:]
	}
	s.mu.Unlock()
}

func (s *Server) broadcast(f frame) {
	s.mu.RLock()
	clients := make([]*wsClient, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		if err := client.writeJSON(f); err != nil {
			log.Printf("ws: write error: %v", err)
		}
	}
}

func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}

	client := &wsClient{conn: conn}
	id := uuid.NewString()

	s.mu.Lock()
	s.clients[id] = client
	snap := snapshotData{
		Chat:   append([]events.ChatMessageDTO(nil), s.chat...),
		Active: s.active,
		Vote:   s.vote,
	}
	clientCount := len(s.clients)
	s.mu.Unlock()

	log.Printf("ws: nueva conexión desde %s (%d clientes activos)", r.RemoteAddr, clientCount)

	if err := client.writeJSON(frame{Type: "snapshot", Data: snap}); err != nil {
		log.Printf("ws: snapshot write: %v", err)
	}

	go s.handleClient(ctx, id, client)
}

// handleClient solo drena la conexión: el overlay no manda nada útil, pero
// leer es lo que detecta el cierre.
func (s *Server) handleClient(ctx context.Context, id string, client *wsClient) {
	defer func() {
		client.conn.Close()

		s.mu.Lock()
		delete(s.clients, id)
		clientCount := len(s.clients)
		s.mu.Unlock()

		log.Printf("ws: conexión cerrada (%d clientes activos)", clientCount)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, _, err := client.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws: read error: %v", err)
			}
			return
		}
	}
}
