package service

import (
	"context"
	"fmt"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"

	"go.uber.org/zap"
)

const defaultNotificationLimit = 10

// Pusher delivers a payload to the user's live connections, if any.
type Pusher interface {
	Push(userID string, v interface{})
}

type NotificationService interface {
	// Notify stores a notification and pushes it. Failures are logged only.
	Notify(ctx context.Context, userID, title, message string, typ model.NotificationType)
	List(ctx context.Context, userID string, limit int) (*dto.NotificationList, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationServiceImpl struct {
	notificationRepo repository.NotificationRepository
	pusher           Pusher
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	pusher Pusher,
	l *zap.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		pusher:           pusher,
		logger:           l,
	}
}

func (s *notificationServiceImpl) Notify(ctx context.Context, userID, title, message string, typ model.NotificationType) {
	n := &model.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("failed to store notification",
			zap.String("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
		return
	}

	if s.pusher != nil {
		s.pusher.Push(userID, n)
	}
}

func (s *notificationServiceImpl) List(ctx context.Context, userID string, limit int) (*dto.NotificationList, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultNotificationLimit
	}

	notifications, err := s.notificationRepo.ListLatest(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}

	return &dto.NotificationList{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID string) error {
	ok, err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return fmt.Errorf("notification: %w", ErrNotFound)
	}
	return nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
