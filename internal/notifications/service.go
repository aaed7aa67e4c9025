package notifications

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
)

const (
	defaultPage = 20
	maxPage     = 100
)

// Store is the repository surface the service needs.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Broadcaster pushes a payload to a user's live websocket connections.
type Broadcaster interface {
	Broadcast(userID uuid.UUID, channel string, payload any)
}

type Service interface {
	// Notify persists the notification and pushes it to live connections.
	// It never returns an error: the push is best effort and a failed insert
	// must not fail the caller's operation, so failures are only logged.
	Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, referenceID *uuid.UUID)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo Store
	hub  Broadcaster
	log  *slog.Logger
}

func NewService(repo Store, hub Broadcaster, log *slog.Logger) Service {
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: repo, hub: hub, log: log}
}

var _ Service = (*service)(nil)

// pushEnvelope is the frame shape clients already parse.
type pushEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type notificationData struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *service) Notify(ctx context.Context, userID uuid.UUID, typ, title, body string, referenceID *uuid.UUID) {
	n := &models.Notification{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        typ,
		Title:       title,
		Body:        body,
		ReferenceID: referenceID,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		s.log.Error("persist notification", "user_id", userID, "type", typ, "error", err)
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(userID, "notifications", pushEnvelope{
			Type: "notification",
			Data: notificationData{
				ID:    n.ID.String(),
				Type:  typ,
				Title: title,
				Body:  body,
			},
		})
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = defaultPage
	}
	if limit > maxPage {
		limit = maxPage
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, notificationID, userID)
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}
