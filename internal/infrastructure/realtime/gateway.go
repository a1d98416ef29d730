package realtime

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Gateway admits websocket connections to scoped channels. Per connection
// the lifecycle is: handshake, authentication, admission with the automatic
// scope set, then explicit join/leave requests until teardown. A failed
// authentication closes the connection with no partial admission; a refused
// join leaves the connection and its scope set untouched.
type Gateway struct {
	verifier  ports.IdentityVerifier
	access    ports.AccessResolver
	posts     ports.PostRepository
	campaigns ports.CampaignRepository
	registry  *Registry

	pingInterval   time.Duration
	pongTimeout    time.Duration
	writeTimeout   time.Duration
	sendBufferSize int

	logger *zap.SugaredLogger
}

type GatewayOptions struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	SendBufferSize int
}

// subscribeMessage is a client's join or leave request.
type subscribeMessage struct {
	Action string              `json:"action"`
	Scope  domain.ChannelScope `json:"scope"`
}

func NewGateway(
	verifier ports.IdentityVerifier,
	access ports.AccessResolver,
	posts ports.PostRepository,
	campaigns ports.CampaignRepository,
	registry *Registry,
	opts GatewayOptions,
	logger *zap.SugaredLogger,
) *Gateway {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = 64
	}
	return &Gateway{
		verifier:       verifier,
		access:         access,
		posts:          posts,
		campaigns:      campaigns,
		registry:       registry,
		pingInterval:   opts.PingInterval,
		pongTimeout:    opts.PongTimeout,
		writeTimeout:   opts.WriteTimeout,
		sendBufferSize: opts.SendBufferSize,
		logger:         logger,
	}
}

func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	principal, err := g.verifier.Verify(r.Context(), bearerToken(r))
	if err != nil {
		g.logger.Infow("websocket authentication failed", "error", err)
		deadline := time.Now().Add(g.writeTimeout)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed")
		conn.WriteControl(websocket.CloseMessage, msg, deadline)
		return
	}

	connID := ConnID(uuid.New().String())
	send := make(chan []byte, g.sendBufferSize)

	scopes := []domain.ChannelScope{
		domain.UserScope(principal.ID),
		domain.NotificationsScope(),
	}
	if principal.HasTeam() {
		scopes = append(scopes, domain.TeamScope(principal.TeamID))
	}
	g.registry.Admit(connID, principal, send, scopes...)

	g.logger.Infow("connection admitted",
		"conn_id", connID,
		"user_id", principal.ID,
		"team_id", principal.TeamID,
	)

	g.sendAck(conn, map[string]interface{}{
		"type":   "admitted",
		"scopes": scopeKeys(scopes),
	})

	conn.SetReadDeadline(time.Now().Add(g.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(g.pongTimeout))
		return nil
	})

	pingTicker := time.NewTicker(g.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan subscribeMessage, 10)
	errorChan := make(chan error, 1)

	// Reader goroutine; the loop below is the connection's single writer.
	go func() {
		for {
			var msg subscribeMessage
			if err := conn.ReadJSON(&msg); err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(g.pongTimeout))
			messageChan <- msg
		}
	}()

	for {
		select {
		case msg := <-messageChan:
			if err := g.handleMessage(r.Context(), conn, connID, principal, msg); err != nil {
				g.logger.Infow("error handling client message", "conn_id", connID, "error", err)
				g.sendAck(conn, map[string]interface{}{"type": "error", "message": err.Error()})
			}

		case payload := <-send:
			conn.SetWriteDeadline(time.Now().Add(g.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				g.logger.Infow("error writing to connection", "conn_id", connID, "error", err)
				goto cleanup
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(g.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				g.logger.Infow("error sending ping", "conn_id", connID, "error", err)
				goto cleanup
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Infow("error reading from connection", "conn_id", connID, "error", err)
			}
			goto cleanup
		}
	}

cleanup:
	// All scope memberships go away with the connection, atomically.
	g.registry.Close(connID)
	g.logger.Infow("connection closed", "conn_id", connID, "user_id", principal.ID)
}

func (g *Gateway) handleMessage(ctx context.Context, conn *websocket.Conn, connID ConnID, principal *domain.Principal, msg subscribeMessage) error {
	switch msg.Action {
	case "join":
		if !g.authorizeJoin(ctx, principal, msg.Scope) {
			// Refusal is a no-op for the connection's scope set.
			g.sendAck(conn, map[string]interface{}{
				"type":  "scope_refused",
				"scope": msg.Scope.Key(),
			})
			return nil
		}
		if !g.registry.Join(connID, msg.Scope) {
			return fmt.Errorf("connection %s is not admitted", connID)
		}
		g.sendAck(conn, map[string]interface{}{
			"type":  "scope_joined",
			"scope": msg.Scope.Key(),
		})
		return nil

	case "leave":
		g.registry.Leave(connID, msg.Scope)
		g.sendAck(conn, map[string]interface{}{
			"type":  "scope_left",
			"scope": msg.Scope.Key(),
		})
		return nil

	default:
		return fmt.Errorf("unknown action: %s", msg.Action)
	}
}

// authorizeJoin asks the ownership resolver whether the principal may read
// the resource a scope stands for.
func (g *Gateway) authorizeJoin(ctx context.Context, principal *domain.Principal, scope domain.ChannelScope) bool {
	switch scope.Kind {
	case domain.ScopeCampaign:
		campaign, err := g.campaigns.GetByID(ctx, scope.ID)
		if err != nil {
			return false
		}
		return g.access.Authorize(principal, campaign, domain.IntentRead).CanRead

	case domain.ScopePost:
		post, err := g.posts.GetByID(ctx, scope.ID)
		if err != nil {
			return false
		}
		return g.access.Authorize(principal, post, domain.IntentRead).CanRead

	case domain.ScopePlatformAnalytics:
		owner := domain.Ownership{UserID: domain.UserID(scope.ID)}
		return g.access.Authorize(principal, owner, domain.IntentRead).CanRead

	case domain.ScopeUser:
		owner := domain.Ownership{UserID: domain.UserID(scope.ID)}
		return g.access.Authorize(principal, owner, domain.IntentRead).CanRead

	case domain.ScopeTeam:
		owner := domain.Ownership{TeamID: domain.TeamID(scope.ID)}
		return g.access.Authorize(principal, owner, domain.IntentRead).CanRead

	case domain.ScopeNotifications:
		return true // granted at admission anyway

	default:
		// Broadcast is delivery-only; it cannot be joined explicitly.
		return false
	}
}

func (g *Gateway) sendAck(conn *websocket.Conn, data map[string]interface{}) {
	conn.SetWriteDeadline(time.Now().Add(g.writeTimeout))
	if err := conn.WriteJSON(data); err != nil {
		g.logger.Debugw("failed to write ack", "error", err)
	}
}

// bearerToken extracts the credential from the Authorization header or,
// for browser websocket clients that cannot set headers, the token query
// parameter.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func scopeKeys(scopes []domain.ChannelScope) []string {
	keys := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		keys = append(keys, scope.Key())
	}
	return keys
}
