package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"
	"github.com/King12-D/hypegrow-boost/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentService interface {
	Create(ctx context.Context, userID string, req *dto.CreatePaymentRequest) (*model.Payment, error)
	UploadProof(ctx context.Context, userID, paymentID string, r io.Reader) (*model.Payment, error)
	ListMine(ctx context.Context, userID string) ([]*model.Payment, error)
	GetMine(ctx context.Context, userID, paymentID string) (*model.Payment, error)
}

type paymentServiceImpl struct {
	db                  *gorm.DB
	orderRepo           repository.OrderRepository
	paymentRepo         repository.PaymentRepository
	profileRepo         repository.ProfileRepository
	walletRepo          repository.WalletRepository
	proofStore          storage.ProofStore
	cardClient          client.CardClient
	fulfillmentService  FulfillmentService
	notificationService NotificationService
	publisher           client.EventPublisher
	logger              *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	profileRepo repository.ProfileRepository,
	walletRepo repository.WalletRepository,
	proofStore storage.ProofStore,
	cardClient client.CardClient,
	fulfillmentService FulfillmentService,
	notificationService NotificationService,
	publisher client.EventPublisher,
	l *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:                  db,
		orderRepo:           orderRepo,
		paymentRepo:         paymentRepo,
		profileRepo:         profileRepo,
		walletRepo:          walletRepo,
		proofStore:          proofStore,
		cardClient:          cardClient,
		fulfillmentService:  fulfillmentService,
		notificationService: notificationService,
		publisher:           publisher,
		logger:              l,
	}
}

func (s *paymentServiceImpl) Create(ctx context.Context, userID string, req *dto.CreatePaymentRequest) (*model.Payment, error) {
	if !req.PaymentMethod.Valid() {
		return nil, invalid("unsupported payment method %q", req.PaymentMethod)
	}

	order, err := s.orderRepo.FindForUser(ctx, userID, req.OrderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if order.Paid() {
		return nil, fmt.Errorf("order is already paid: %w", ErrConflict)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("cannot pay for a %s order: %w", order.Status, ErrInvalidTransition)
	}

	live, err := s.paymentRepo.HasLivePayment(ctx, s.db, order.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing payments: %w", err)
	}
	if live {
		return nil, fmt.Errorf("order already has an active payment: %w", ErrConflict)
	}

	payment := &model.Payment{
		OrderID:       order.ID,
		UserID:        userID,
		Amount:        order.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        model.PaymentStatusPending,
	}
	if ref := strings.TrimSpace(req.BankReference); ref != "" {
		payment.BankReference = &ref
	}

	// the card is charged before the transaction; a failed write afterwards
	// is logged with the processor id so it can be refunded by hand
	if req.PaymentMethod == model.PaymentMethodCard {
		txID, err := s.cardClient.Charge(ctx, req.Nonce, order.Amount, order.ID)
		if err != nil {
			return nil, fmt.Errorf("charge card: %w", err)
		}
		now := time.Now()
		payment.ProcessorTransactionID = &txID
		payment.Status = model.PaymentStatusVerified
		payment.VerifiedAt = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		live, err := s.paymentRepo.HasLivePayment(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("check existing payments: %w", err)
		}
		if live {
			return fmt.Errorf("order already has an active payment: %w", ErrConflict)
		}

		if req.PaymentMethod == model.PaymentMethodWallet {
			ok, err := s.profileRepo.Debit(ctx, tx, userID, order.Amount)
			if err != nil {
				return fmt.Errorf("debit wallet: %w", err)
			}
			if !ok {
				return ErrInsufficientFunds
			}

			desc := fmt.Sprintf("%s %s order", order.Platform, order.ServiceType)
			err = s.walletRepo.Record(ctx, tx, &model.WalletTransaction{
				UserID:          userID,
				Amount:          order.Amount,
				TransactionType: model.WalletPurchase,
				Status:          "completed",
				Description:     &desc,
				OrderID:         &order.ID,
			})
			if err != nil {
				return fmt.Errorf("record wallet transaction: %w", err)
			}

			now := time.Now()
			payment.Status = model.PaymentStatusVerified
			payment.VerifiedAt = &now
		}

		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return fmt.Errorf("store payment in db: %w", err)
		}

		if payment.Status == model.PaymentStatusVerified {
			ok, err := s.orderRepo.MarkPaid(ctx, tx, order.ID)
			if err != nil {
				return fmt.Errorf("mark order paid: %w", err)
			}
			if !ok {
				return fmt.Errorf("order can no longer be paid: %w", ErrConflict)
			}
		}
		return nil
	})
	if err != nil {
		if payment.ProcessorTransactionID != nil {
			s.logger.Error("card charged but payment not stored",
				zap.String("order_id", order.ID),
				zap.String("transaction_id", *payment.ProcessorTransactionID),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("payment created",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", order.ID),
		zap.String("method", string(payment.PaymentMethod)),
		zap.String("status", string(payment.Status)))

	if payment.Status == model.PaymentStatusVerified {
		s.notificationService.Notify(ctx, userID,
			"Payment received",
			fmt.Sprintf("We received your payment of %s. Your order is now processing.", payment.Amount.StringFixed(2)),
			model.NotificationSuccess)
		publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
			Type:      model.EventPaymentVerified,
			OrderID:   order.ID,
			UserID:    userID,
			Status:    model.OrderStatusProcessing,
			PaymentID: payment.ID,
		})
		s.fulfillmentService.AfterPaid(ctx, order.ID)
	}

	return payment, nil
}

func (s *paymentServiceImpl) UploadProof(ctx context.Context, userID, paymentID string, r io.Reader) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindForUser(ctx, userID, paymentID)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	if payment.PaymentMethod != model.PaymentMethodBankTransfer {
		return nil, invalid("proof is only accepted for bank transfers")
	}
	if payment.Status != model.PaymentStatusPending && payment.Status != model.PaymentStatusRejected {
		return nil, fmt.Errorf("payment is %s: %w", payment.Status, ErrInvalidTransition)
	}
	if payment.Status == model.PaymentStatusRejected {
		// a newer payment may have replaced the rejected one
		live, err := s.paymentRepo.HasLivePayment(ctx, s.db, payment.OrderID)
		if err != nil {
			return nil, fmt.Errorf("check existing payments: %w", err)
		}
		if live {
			return nil, fmt.Errorf("order already has an active payment: %w", ErrConflict)
		}
	}

	proofURL, err := s.proofStore.Save(ctx, payment.ID, r)
	if err != nil {
		if errors.Is(err, storage.ErrProofTooLarge) || errors.Is(err, storage.ErrProofNotImage) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("save payment proof: %w", err)
	}

	ok, err := s.paymentRepo.SubmitProof(ctx, payment.ID, userID, proofURL)
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("payment changed while uploading: %w", ErrConflict)
	}

	s.logger.Info("payment proof submitted",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", payment.OrderID))

	return s.paymentRepo.FindForUser(ctx, userID, payment.ID)
}

func (s *paymentServiceImpl) ListMine(ctx context.Context, userID string) ([]*model.Payment, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *paymentServiceImpl) GetMine(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindForUser(ctx, userID, paymentID)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	return payment, nil
}
