package inapp

import (
	"context"

	"github.com/google/uuid"

	"fieldops_backend/platform/logger"
)

// Service coordinates in-app notifications.
type Service struct {
	repo *Repository
	log  *logger.Logger
}

// NewService creates the in-app notification service.
func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SendParams describes a notification to deliver to a user.
type SendParams struct {
	UserID   uuid.UUID
	Title    string
	Content  string
	VisitID  *uuid.UUID
	Category string
}

// Send persists the notification for the user.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	if p.Category == "" {
		p.Category = "info"
	}

	_, err := s.repo.Create(ctx, CreateParams{
		UserID:   p.UserID,
		Title:    p.Title,
		Content:  p.Content,
		VisitID:  p.VisitID,
		Category: p.Category,
	})
	if err != nil {
		s.log.Error("failed to persist in-app notification", "error", err, "userId", p.UserID)
		return err
	}
	return nil
}

// List returns a page of the user's notifications.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]Notification, int, error) {
	return s.repo.List(ctx, userID, limit, (page-1)*limit)
}

// CountUnread returns the user's unread notification count.
func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead flags all of the user's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
