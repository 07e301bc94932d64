package repository

import (
	"context"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"gorm.io/gorm"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.SupportTicket) error
	ListByUser(ctx context.Context, userID string) ([]*model.SupportTicket, error)
	List(ctx context.Context, status model.TicketStatus) ([]*model.SupportTicket, error)
	Update(ctx context.Context, ticketID string, updates map[string]interface{}) (*model.SupportTicket, error)
}

type ticketRepoImpl struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepoImpl{db: db}
}

func (r *ticketRepoImpl) Create(ctx context.Context, ticket *model.SupportTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.SupportTicket, error) {
	var tickets []*model.SupportTicket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error

	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepoImpl) List(ctx context.Context, status model.TicketStatus) ([]*model.SupportTicket, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var tickets []*model.SupportTicket
	if err := q.Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepoImpl) Update(ctx context.Context, ticketID string, updates map[string]interface{}) (*model.SupportTicket, error) {
	var ticket model.SupportTicket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates["updated_at"] = time.Now()
		result := tx.Model(&model.SupportTicket{}).
			Where("id = ?", ticketID).
			Updates(updates)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("id = ?", ticketID).First(&ticket).Error
	})
	if err != nil {
		return nil, err
	}

	return &ticket, nil
}
