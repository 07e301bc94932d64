package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"

	"gorm.io/datatypes"
)

// ClientInfo is what the server knows about the caller of a tracking request.
type ClientInfo struct {
	UserID    string
	IPAddress string
	UserAgent string
}

type AnalyticsService interface {
	Track(ctx context.Context, info ClientInfo, req *dto.TrackEventRequest) error
}

type analyticsServiceImpl struct {
	analyticsRepo repository.AnalyticsRepository
}

func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsServiceImpl{analyticsRepo: analyticsRepo}
}

func (s *analyticsServiceImpl) Track(ctx context.Context, info ClientInfo, req *dto.TrackEventRequest) error {
	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" || len(eventType) > 64 {
		return invalid("event_type is required and at most 64 characters")
	}

	event := &model.AnalyticsEvent{
		EventType: eventType,
		UserID:    nullIfBlank(info.UserID),
		IPAddress: nullIfBlank(info.IPAddress),
		UserAgent: nullIfBlank(truncate(info.UserAgent, 512)),
	}
	if len(req.EventData) > 0 {
		event.EventData = datatypes.JSON(req.EventData)
	}

	if err := s.analyticsRepo.Record(ctx, event); err != nil {
		return fmt.Errorf("record analytics event: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
