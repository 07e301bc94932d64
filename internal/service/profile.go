package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"
)

type ProfileService interface {
	Ensure(ctx context.Context, userID, email string) (*model.Profile, error)
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*model.Profile, error)
	WalletTransactions(ctx context.Context, userID string) ([]*model.WalletTransaction, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	GrantAdmin(ctx context.Context, userID string) error
}

type profileServiceImpl struct {
	profileRepo repository.ProfileRepository
	roleRepo    repository.RoleRepository
	walletRepo  repository.WalletRepository
}

func NewProfileService(
	profileRepo repository.ProfileRepository,
	roleRepo repository.RoleRepository,
	walletRepo repository.WalletRepository,
) ProfileService {
	return &profileServiceImpl{
		profileRepo: profileRepo,
		roleRepo:    roleRepo,
		walletRepo:  walletRepo,
	}
}

func (s *profileServiceImpl) Ensure(ctx context.Context, userID, email string) (*model.Profile, error) {
	profile, err := s.profileRepo.GetOrCreate(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return profile, nil
}

func (s *profileServiceImpl) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return profile, nil
}

func (s *profileServiceImpl) Update(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*model.Profile, error) {
	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = nullIfBlank(*req.FullName)
	}
	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		if len(phone) > 32 {
			return nil, invalid("phone_number is too long")
		}
		updates["phone_number"] = nullIfBlank(phone)
	}
	if len(updates) == 0 {
		return s.Get(ctx, userID)
	}

	if err := s.profileRepo.Update(ctx, userID, updates); err != nil {
		return nil, notFound(err, "profile")
	}
	return s.Get(ctx, userID)
}

func (s *profileServiceImpl) WalletTransactions(ctx context.Context, userID string) ([]*model.WalletTransaction, error) {
	txns, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	return txns, nil
}

func (s *profileServiceImpl) IsAdmin(ctx context.Context, userID string) (bool, error) {
	ok, err := s.roleRepo.HasRole(ctx, userID, model.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return ok, nil
}

func (s *profileServiceImpl) GrantAdmin(ctx context.Context, userID string) error {
	if err := s.roleRepo.Grant(ctx, userID, model.RoleAdmin); err != nil {
		return fmt.Errorf("grant admin role: %w", err)
	}
	return nil
}

func nullIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
