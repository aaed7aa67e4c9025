package messages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

var (
	ErrEmptyContent     = errors.New("message content is empty")
	ErrReceiverNotFound = errors.New("receiver not found")
)

const (
	defaultPage = 50
	maxPage     = 200

	// previewLen caps the notification body and conversation preview.
	previewLen = 100
)

// Store is the persistence surface the service needs.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	InsertTx(ctx context.Context, tx pgx.Tx, m *models.Message) error
	Thread(ctx context.Context, userID, partnerID uuid.UUID, limit, offset int) ([]*models.Message, error)
	MarkThreadRead(ctx context.Context, userID, partnerID uuid.UUID) error
	Conversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)
	FullName(ctx context.Context, userID uuid.UUID) (string, error)
}

// Wallet debits the sender inside the message transaction.
type Wallet interface {
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, txType, description string, referenceID *uuid.UUID) (*models.Wallet, error)
}

// Notifier records an in-app notification for the receiver.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, referenceID *uuid.UUID)
}

// Broadcaster pushes the message to the receiver's open sockets.
type Broadcaster interface {
	Broadcast(userID uuid.UUID, channel string, payload any)
}

type Service interface {
	Send(ctx context.Context, senderID, receiverID uuid.UUID, content string, attachmentURL, attachmentType *string) (*models.Message, error)
	Thread(ctx context.Context, userID, partnerID uuid.UUID, limit, offset int) ([]*models.Message, error)
	Conversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)
}

type service struct {
	store  Store
	wallet Wallet
	notes  Notifier
	hub    Broadcaster
	cost   int64
	log    *slog.Logger
}

var _ Service = (*service)(nil)

// NewService creates a messages service. cost is the token fee debited from
// the sender per message, atomically with the insert.
func NewService(store Store, wallet Wallet, notes Notifier, hub Broadcaster, cost int64, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{store: store, wallet: wallet, notes: notes, hub: hub, cost: cost, log: log}
}

type pushEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type messageData struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Send debits the sender one token and persists the message in a single
// transaction, then pushes it to the receiver and records a notification.
func (s *service) Send(ctx context.Context, senderID, receiverID uuid.UUID, content string, attachmentURL, attachmentType *string) (*models.Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	msg := &models.Message{
		ID:             uuid.New(),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		AttachmentURL:  attachmentURL,
		AttachmentType: attachmentType,
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.wallet.DebitTx(ctx, tx, senderID, s.cost, models.TxTypeDeduction, "Message to user", &msg.ID); err != nil {
		return nil, err
	}
	if err := s.store.InsertTx(ctx, tx, msg); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrReceiverNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.hub.Broadcast(receiverID, "messages", pushEnvelope{
		Type: "message",
		Data: messageData{ID: msg.ID, SenderID: msg.SenderID, Content: msg.Content, CreatedAt: msg.CreatedAt},
	})

	senderName, err := s.store.FullName(ctx, senderID)
	if err != nil {
		s.log.Warn("sender name lookup failed", "sender_id", senderID, "error", err)
		senderName = "a user"
	}
	s.notes.Notify(ctx, receiverID, models.NotificationMessage,
		"New message from "+senderName, truncate(content, previewLen), &msg.ID)

	s.log.Info("message sent", "message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)
	return msg, nil
}

// Thread returns a page of the conversation in chronological order and marks
// the partner's messages as read.
func (s *service) Thread(ctx context.Context, userID, partnerID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = defaultPage
	}
	if limit > maxPage {
		limit = maxPage
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.store.Thread(ctx, userID, partnerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	if err := s.store.MarkThreadRead(ctx, userID, partnerID); err != nil {
		s.log.Warn("mark thread read failed", "user_id", userID, "partner_id", partnerID, "error", err)
	}

	// The query pages newest-first; the client renders oldest-first.
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

func (s *service) Conversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	list, err := s.store.Conversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}
	for _, c := range list {
		c.LastMessage = truncate(c.LastMessage, previewLen)
	}
	return list, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
