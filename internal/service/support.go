package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"
)

type SupportService interface {
	Create(ctx context.Context, userID string, req *dto.CreateTicketRequest) (*model.SupportTicket, error)
	ListMine(ctx context.Context, userID string) ([]*model.SupportTicket, error)
	List(ctx context.Context, status model.TicketStatus) ([]*model.SupportTicket, error)
	Update(ctx context.Context, ticketID string, req *dto.UpdateTicketRequest) (*model.SupportTicket, error)
}

type supportServiceImpl struct {
	ticketRepo          repository.TicketRepository
	notificationService NotificationService
}

func NewSupportService(ticketRepo repository.TicketRepository, notificationService NotificationService) SupportService {
	return &supportServiceImpl{
		ticketRepo:          ticketRepo,
		notificationService: notificationService,
	}
}

func (s *supportServiceImpl) Create(ctx context.Context, userID string, req *dto.CreateTicketRequest) (*model.SupportTicket, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return nil, invalid("subject and message are required")
	}

	priority := req.Priority
	if priority == "" {
		priority = model.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, invalid("unknown priority %q", priority)
	}

	ticket := &model.SupportTicket{
		UserID:   userID,
		Subject:  subject,
		Message:  message,
		Status:   model.TicketStatusOpen,
		Priority: priority,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return ticket, nil
}

func (s *supportServiceImpl) ListMine(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	tickets, err := s.ticketRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

func (s *supportServiceImpl) List(ctx context.Context, status model.TicketStatus) ([]*model.SupportTicket, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown ticket status %q", status)
	}
	tickets, err := s.ticketRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

func (s *supportServiceImpl) Update(ctx context.Context, ticketID string, req *dto.UpdateTicketRequest) (*model.SupportTicket, error) {
	updates := map[string]interface{}{}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, invalid("unknown ticket status %q", req.Status)
		}
		updates["status"] = req.Status
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = nullIfBlank(*req.AssignedTo)
	}
	if len(updates) == 0 {
		return nil, invalid("nothing to update")
	}

	ticket, err := s.ticketRepo.Update(ctx, ticketID, updates)
	if err != nil {
		return nil, notFound(err, "ticket")
	}

	if req.Status == model.TicketStatusResolved {
		s.notificationService.Notify(ctx, ticket.UserID,
			"Ticket resolved",
			fmt.Sprintf("Your support ticket %q has been resolved.", ticket.Subject),
			model.NotificationSuccess)
	}
	return ticket, nil
}
