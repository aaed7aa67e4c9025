package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/wallet"
)

const maxFrameSize = 4096

// TokenValidator verifies the JWT passed in the websocket path.
type TokenValidator interface {
	ValidateToken(token string) (uuid.UUID, string, error)
}

// MessageSender persists one chat message and fans it out. Implemented by
// the messages service.
type MessageSender interface {
	Send(ctx context.Context, senderID, receiverID uuid.UUID, content string, attachmentURL, attachmentType *string) (*models.Message, error)
}

// LocationSink persists one GPS sample. Implemented by the geo service.
type LocationSink interface {
	UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, accuracy *float64) (*models.Location, error)
}

// Handler serves the /ws endpoints.
type Handler struct {
	hub           *Hub
	validator     TokenValidator
	messages      MessageSender
	locations     LocationSink
	locationRate  rate.Limit
	locationBurst int
	upgrader      websocket.Upgrader
	log           *slog.Logger
}

func NewHandler(hub *Hub, validator TokenValidator, messages MessageSender, locations LocationSink, locationRate float64, locationBurst int, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		hub:           hub,
		validator:     validator,
		messages:      messages,
		locations:     locations,
		locationRate:  rate.Limit(locationRate),
		locationBurst: locationBurst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth happens after the upgrade; mobile clients send no
			// Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// upgradeAndAuth upgrades the request, then validates the path token. The
// order matches the handshake contract: clients get a websocket close frame
// with code 4001 on a bad token, not an HTTP error.
func (h *Handler) upgradeAndAuth(w http.ResponseWriter, r *http.Request) (*websocket.Conn, uuid.UUID, bool) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "error", err)
		return nil, uuid.Nil, false
	}
	conn.SetReadLimit(maxFrameSize)

	userID, _, err := h.validator.ValidateToken(r.PathValue("token"))
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4001, "invalid token"))
		conn.Close()
		return nil, uuid.Nil, false
	}
	return conn, userID, true
}

// --- GET /ws/notifications/{token} ---

// Notifications registers the socket for pushes and holds it open. Inbound
// frames are discarded; the read loop exists to notice the close.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	conn, userID, ok := h.upgradeAndAuth(w, r)
	if !ok {
		return
	}
	_, unregister := h.hub.Register(userID, conn)
	defer unregister()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// --- GET /ws/chat/{token} ---

type inboundChat struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type wsError struct {
	Error string `json:"error"`
}

// Chat registers the socket for pushes and relays inbound frames through the
// messages service, which charges the sender and fans out to the receiver.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	conn, userID, ok := h.upgradeAndAuth(w, r)
	if !ok {
		return
	}
	c, unregister := h.hub.Register(userID, conn)
	defer unregister()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var in inboundChat
		if err := json.Unmarshal(data, &in); err != nil {
			c.Send(wsError{Error: "invalid JSON"})
			continue
		}
		receiverID, err := uuid.Parse(in.ReceiverID)
		if err != nil || in.Content == "" {
			c.Send(wsError{Error: "receiver_id and content are required"})
			continue
		}

		if _, err := h.messages.Send(r.Context(), userID, receiverID, in.Content, nil, nil); err != nil {
			if errors.Is(err, wallet.ErrInsufficientFunds) {
				c.Send(wsError{Error: "insufficient tokens"})
				continue
			}
			h.log.Error("chat send", "sender_id", userID, "error", err)
			c.Send(wsError{Error: "failed to send message"})
		}
	}
}

// --- GET /ws/location/{token} ---

type wsStatus struct {
	Status string `json:"status"`
}

// Location ingests one-way GPS samples. The socket is never registered with
// the hub: nothing is broadcast back, only per-sample acks are written, and
// this handler is the sole writer.
func (h *Handler) Location(w http.ResponseWriter, r *http.Request) {
	conn, userID, ok := h.upgradeAndAuth(w, r)
	if !ok {
		return
	}
	defer conn.Close()
	c := NewConnection(conn)

	limiter := rate.NewLimiter(h.locationRate, h.locationBurst)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		lat, lon, accuracy, parsed := parseLocationFrame(data)
		if !parsed {
			c.Send(wsError{Error: "latitude and longitude are required"})
			continue
		}
		if !limiter.Allow() {
			// Devices report every 10-30 seconds; anything faster is noise.
			h.log.Debug("location sample throttled", "user_id", userID)
			continue
		}

		if _, err := h.locations.UpdateLocation(r.Context(), userID, lat, lon, accuracy); err != nil {
			c.Send(wsError{Error: "failed to update location"})
			continue
		}
		c.Send(wsStatus{Status: "ok"})
	}
}

// parseLocationFrame accepts both long and short key names, matching what
// deployed devices already send: {latitude, longitude} or {lat, lng}.
func parseLocationFrame(data []byte) (lat, lon float64, accuracy *float64, ok bool) {
	latRes := gjson.GetBytes(data, "latitude")
	if !latRes.Exists() {
		latRes = gjson.GetBytes(data, "lat")
	}
	lonRes := gjson.GetBytes(data, "longitude")
	if !lonRes.Exists() {
		lonRes = gjson.GetBytes(data, "lng")
	}
	if !latRes.Exists() || !lonRes.Exists() {
		return 0, 0, nil, false
	}
	if accRes := gjson.GetBytes(data, "accuracy"); accRes.Exists() {
		v := accRes.Float()
		accuracy = &v
	}
	return latRes.Float(), lonRes.Float(), accuracy, true
}
