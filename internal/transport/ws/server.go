package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type TokenVerifier interface {
	ParseAndValidate(token string) (string, error)
}

type UserSvc interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	TouchLastSeen(ctx context.Context, id string) error
}

type GroupSvc interface {
	ListForUser(ctx context.Context, userID string) ([]domain.Group, error)
}

type MessageSvc interface {
	MarkRead(ctx context.Context, readerID, otherID string) (int64, error)
}

type AnnotationSvc interface {
	AddReaction(ctx context.Context, actorID, messageID, emoji string) (*domain.Message, error)
	RemoveReaction(ctx context.Context, actorID, messageID, emoji string) (*domain.Message, error)
}

type Server struct {
	upgrader websocket.Upgrader

	hub      *Hub
	presence *Presence

	verifier    TokenVerifier
	users       UserSvc
	groups      GroupSvc
	messages    MessageSvc
	annotations AnnotationSvc

	cookieName string
	pingEvery  time.Duration
}

func NewServer(hub *Hub, presence *Presence, verifier TokenVerifier, users UserSvc, groups GroupSvc, messages MessageSvc, annotations AnnotationSvc, cookieName string) *Server {
	return &Server{
		hub:         hub,
		presence:    presence,
		verifier:    verifier,
		users:       users,
		groups:      groups,
		messages:    messages,
		annotations: annotations,
		cookieName:  cookieName,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// credentialFromRequest достаёт токен по приоритету:
// Authorization: Bearer -> query ?token= -> cookie.
func (s *Server) credentialFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && len(auth) > 7 {
		return strings.TrimSpace(auth[7:])
	}
	if tok := strings.TrimSpace(r.URL.Query().Get("token")); tok != "" {
		return tok
	}
	if c, err := r.Cookie(s.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// WS endpoint: GET /ws
// Отказ в допуске происходит до регистрации в presence: неавторизованное
// соединение не должно попасть ни в одну комнату.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := s.credentialFromRequest(r)
	if token == "" {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}
	userID, err := s.verifier.ParseAndValidate(token)
	if err != nil {
		http.Error(w, "invalid credential", http.StatusUnauthorized)
		return
	}
	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		http.Error(w, "unknown subject", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "user", user.ID, "err", err)
		return
	}

	c := newWsConn(conn, user.ID)
	s.presence.Register(c)

	attrs := append(logger.AttrsFromCtx(r.Context()),
		slog.String("user", user.ID), slog.String("conn", c.ID()))
	slog.LogAttrs(r.Context(), slog.LevelInfo, "ws connected", attrs...)

	// post-auth bootstrap: user scope живёт в presence, комнаты групп — в hub
	s.bootstrap(r.Context(), c)

	if err := s.users.TouchLastSeen(r.Context(), user.ID); err != nil {
		slog.Debug("ws touch last seen failed", "user", user.ID, "err", err)
	}
	s.presence.BroadcastOnline()

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	// разрыв: сразу убираем из комнат и presence, без grace period
	s.hub.LeaveAll(c)
	s.presence.Unregister(c)
	if err := s.users.TouchLastSeen(context.Background(), user.ID); err != nil {
		slog.Debug("ws touch last seen failed", "user", user.ID, "err", err)
	}
	s.presence.BroadcastOnline()

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "user", user.ID, "err", err)
	}
	slog.LogAttrs(context.Background(), slog.LevelInfo, "ws disconnected", attrs...)
}

func (s *Server) bootstrap(ctx context.Context, c *wsConn) {
	groups, err := s.groups.ListForUser(ctx, c.userID)
	if err != nil {
		slog.Warn("ws bootstrap groups failed", "user", c.userID, "err", err)
		return
	}
	for _, g := range groups {
		s.hub.Join(groupRoom(g.ID), c)
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		s.handleEvent(ctx, c, ev)
	}
}

func (s *Server) handleEvent(ctx context.Context, c *wsConn, ev Event) {
	switch ev.Type {
	case TypeTyping, TypeStopTyping:
		var p PeerPayload
		if decode(ev.Payload, &p) != nil || p.To == "" {
			return
		}
		// эфемерный сигнал: только соединениям, открывшим этот диалог
		room := convRoom(c.userID, p.To)
		s.hub.BroadcastExcept(room, c, Event{Type: ev.Type, Payload: PeerPayload{From: c.userID, To: p.To}})

	case TypeJoinConversation:
		var p PeerPayload
		if decode(ev.Payload, &p) != nil || p.To == "" {
			return
		}
		s.hub.Join(convRoom(c.userID, p.To), c)

	case TypeLeaveConversation:
		var p PeerPayload
		if decode(ev.Payload, &p) != nil || p.To == "" {
			return
		}
		s.hub.Leave(convRoom(c.userID, p.To), c)

	case TypeMarkAsRead:
		var p PeerPayload
		if decode(ev.Payload, &p) != nil || p.To == "" {
			return
		}
		if _, err := s.messages.MarkRead(ctx, c.userID, p.To); err != nil {
			slog.Warn("ws mark read failed", "user", c.userID, "from", p.To, "err", err)
		}

	case TypeAddReaction:
		var p ReactionRequest
		if decode(ev.Payload, &p) != nil || p.MessageID == "" {
			return
		}
		if _, err := s.annotations.AddReaction(ctx, c.userID, p.MessageID, p.Emoji); err != nil {
			slog.Debug("ws add reaction failed", "user", c.userID, "message", p.MessageID, "err", err)
		}

	case TypeRemoveReaction:
		var p ReactionRequest
		if decode(ev.Payload, &p) != nil || p.MessageID == "" {
			return
		}
		if _, err := s.annotations.RemoveReaction(ctx, c.userID, p.MessageID, p.Emoji); err != nil {
			slog.Debug("ws remove reaction failed", "user", c.userID, "message", p.MessageID, "err", err)
		}

	default:
		// ignore
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func convRoom(a, b string) string {
	return "conv:" + domain.RoomKey(a, b)
}

// --- wsConn ---

type wsConn struct {
	conn   *websocket.Conn
	id     string
	userID string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, userID string) *wsConn {
	return &wsConn{
		conn:   c,
		id:     uuid.New().String(),
		userID: userID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(ev Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(ev)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ID() string     { return c.id }
func (c *wsConn) UserID() string { return c.userID }
