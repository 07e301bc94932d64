package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/config"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"
	"github.com/King12-D/hypegrow-boost/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeReseller struct {
	mu          sync.Mutex
	services    []model.ResellerService
	servicesErr error
	nextOrderID int64
	addErr      error
	added       []string
	statuses    map[int64]*model.ResellerOrderStatus
	serviceHits int
}

func (f *fakeReseller) Services(context.Context) ([]model.ResellerService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serviceHits++
	if f.servicesErr != nil {
		return nil, f.servicesErr
	}
	return f.services, nil
}

func (f *fakeReseller) AddOrder(_ context.Context, serviceID int64, link string, quantity int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return 0, f.addErr
	}
	f.nextOrderID++
	f.added = append(f.added, fmt.Sprintf("%d|%s|%d", serviceID, link, quantity))
	return f.nextOrderID, nil
}

func (f *fakeReseller) OrderStatus(_ context.Context, orderID int64) (*model.ResellerOrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.statuses[orderID]
	if !ok {
		return nil, &client.ResellerError{Action: "status", Message: "Incorrect order ID"}
	}
	return st, nil
}

func (f *fakeReseller) Balance(context.Context) (*model.ResellerBalance, error) {
	return &model.ResellerBalance{Balance: "100.84", Currency: "USD"}, nil
}

func (f *fakeReseller) addedOrders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.added...)
}

type fakeCard struct {
	txID string
	err  error
}

func (f *fakeCard) Charge(context.Context, string, decimal.Decimal, string) (string, error) {
	return f.txID, f.err
}

type fakeProofStore struct {
	err error
}

func (f *fakeProofStore) Save(_ context.Context, paymentID string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "/payment-proofs/" + paymentID + ".png", nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed map[string]int
}

func (p *recordingPusher) Push(userID string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushed == nil {
		p.pushed = make(map[string]int)
	}
	p.pushed[userID]++
}

// testEnv wires every service against a fresh sqlite database.
type testEnv struct {
	db        *gorm.DB
	reseller  *fakeReseller
	card      *fakeCard
	proofs    *fakeProofStore
	publisher *recordingPublisher
	pusher    *recordingPusher

	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	profileRepo repository.ProfileRepository
	packageRepo repository.PackageRepository

	catalog       CatalogService
	discounts     DiscountService
	notifications NotificationService
	fulfillment   FulfillmentService
	orders        OrderService
	payments      PaymentService
	admin         AdminService
	profiles      ProfileService
	support       SupportService
	analytics     AnalyticsService
}

func newTestEnv(t *testing.T, autoDispatch bool) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	l := zap.NewNop()

	env := &testEnv{
		db: db,
		reseller: &fakeReseller{
			nextOrderID: 1000,
			statuses:    map[int64]*model.ResellerOrderStatus{},
			services: []model.ResellerService{
				{Service: 11, Name: "Instagram Followers [Real]", Rate: "0.90", Min: "100", Max: "10000", Category: "Instagram - Followers"},
				{Service: 12, Name: "TikTok Views", Rate: "0.01", Min: "50", Max: "100000", Category: "TikTok - Views"},
			},
		},
		card:      &fakeCard{txID: "bt-123"},
		proofs:    &fakeProofStore{},
		publisher: &recordingPublisher{},
		pusher:    &recordingPusher{},
	}

	env.orderRepo = repository.NewOrderRepository(db)
	env.paymentRepo = repository.NewPaymentRepository(db)
	env.profileRepo = repository.NewProfileRepository(db)
	env.packageRepo = repository.NewPackageRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	resellerCfg := &config.Reseller{PriceMultiplier: 1000, CatalogTTL: 10 * time.Minute}

	env.catalog = NewCatalogService(env.packageRepo, env.reseller, resellerCfg, l)
	env.discounts = NewDiscountService(db, discountRepo)
	env.notifications = NewNotificationService(repository.NewNotificationRepository(db), env.pusher, l)
	env.fulfillment = NewFulfillmentService(db, env.orderRepo, env.reseller, env.notifications, env.publisher,
		&config.Fulfillment{AutoDispatch: autoDispatch, PollBatch: 10}, l)
	env.orders = NewOrderService(db, env.orderRepo, env.packageRepo, env.catalog, env.discounts,
		env.fulfillment, env.notifications, env.publisher, resellerCfg, l)
	env.payments = NewPaymentService(db, env.orderRepo, env.paymentRepo, env.profileRepo, walletRepo,
		env.proofs, env.card, env.fulfillment, env.notifications, env.publisher, l)
	env.admin = NewAdminService(db, env.orderRepo, env.paymentRepo, env.profileRepo, walletRepo,
		env.fulfillment, env.notifications, env.publisher, l)
	env.profiles = NewProfileService(env.profileRepo, repository.NewRoleRepository(db), walletRepo)
	env.support = NewSupportService(repository.NewTicketRepository(db), env.notifications)
	env.analytics = NewAnalyticsService(repository.NewAnalyticsRepository(db))

	return env
}

func (e *testEnv) user(t *testing.T, id string) *model.Profile {
	t.Helper()
	p, err := e.profiles.Ensure(context.Background(), id, id+"@example.com")
	require.NoError(t, err)
	return p
}

func (e *testEnv) pkg(t *testing.T, price string) *model.ServicePackage {
	t.Helper()
	pkg := &model.ServicePackage{
		Platform:    "Instagram",
		ServiceType: "Followers",
		PackageName: "1K Followers",
		Quantity:    1000,
		Price:       decimal.RequireFromString(price),
	}
	require.NoError(t, e.catalog.CreatePackage(context.Background(), pkg))
	return pkg
}

func (e *testEnv) setWallet(t *testing.T, userID, amount string) {
	t.Helper()
	err := e.db.Model(&model.Profile{}).
		Where("id = ?", userID).
		Update("wallet_balance", decimal.RequireFromString(amount)).Error
	require.NoError(t, err)
}

func (e *testEnv) order(t *testing.T, id string) *model.Order {
	t.Helper()
	o, err := e.orderRepo.FindByID(context.Background(), nil, id)
	require.NoError(t, err)
	return o
}

var errBoom = errors.New("boom")
