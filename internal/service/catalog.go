package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/config"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const otherGroup = "Other"

// checked in order, the first one found in the service name wins
var serviceTypeKeywords = []string{"Followers", "Likes", "Views", "Comments", "Subscribers"}

type CatalogService interface {
	ListPackages(ctx context.Context, platform string) ([]*model.ServicePackage, error)
	CreatePackage(ctx context.Context, pkg *model.ServicePackage) error
	SetPackageActive(ctx context.Context, packageID string, active bool) error
	ResellerServices(ctx context.Context) ([]model.CatalogService, error)
	GroupedResellerServices(ctx context.Context) (model.CatalogGroups, error)
	FindResellerService(ctx context.Context, serviceID int64) (*model.CatalogService, error)
	ResellerBalance(ctx context.Context) (*model.ResellerBalance, error)
}

type catalogServiceImpl struct {
	packageRepo    repository.PackageRepository
	resellerClient client.ResellerClient
	multiplier     float64
	ttl            time.Duration
	logger         *zap.Logger
	now            func() time.Time

	mu        sync.Mutex
	cached    []model.CatalogService
	fetchedAt time.Time
}

func NewCatalogService(
	packageRepo repository.PackageRepository,
	resellerClient client.ResellerClient,
	cfg *config.Reseller,
	l *zap.Logger,
) CatalogService {
	return &catalogServiceImpl{
		packageRepo:    packageRepo,
		resellerClient: resellerClient,
		multiplier:     cfg.PriceMultiplier,
		ttl:            cfg.CatalogTTL,
		logger:         l,
		now:            time.Now,
	}
}

func (s *catalogServiceImpl) ListPackages(ctx context.Context, platform string) ([]*model.ServicePackage, error) {
	packages, err := s.packageRepo.ListActive(ctx, platform)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return packages, nil
}

func (s *catalogServiceImpl) CreatePackage(ctx context.Context, pkg *model.ServicePackage) error {
	pkg.Platform = strings.TrimSpace(pkg.Platform)
	pkg.ServiceType = strings.TrimSpace(pkg.ServiceType)
	pkg.PackageName = strings.TrimSpace(pkg.PackageName)

	switch {
	case pkg.Platform == "" || pkg.ServiceType == "" || pkg.PackageName == "":
		return invalid("platform, service_type and package_name are required")
	case pkg.Quantity <= 0:
		return invalid("quantity must be positive")
	case !pkg.Price.IsPositive():
		return invalid("price must be positive")
	}

	pkg.IsActive = true
	if err := s.packageRepo.Create(ctx, pkg); err != nil {
		return fmt.Errorf("create package: %w", err)
	}
	return nil
}

func (s *catalogServiceImpl) SetPackageActive(ctx context.Context, packageID string, active bool) error {
	if err := s.packageRepo.SetActive(ctx, packageID, active); err != nil {
		return notFound(err, "package")
	}
	return nil
}

// ResellerServices returns the reseller catalog, refetching it once the
// cached copy is older than the configured TTL.
func (s *catalogServiceImpl) ResellerServices(ctx context.Context) ([]model.CatalogService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.cached, nil
	}

	raw, err := s.resellerClient.Services(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch reseller services: %w", err)
	}

	services := make([]model.CatalogService, 0, len(raw))
	for _, svc := range raw {
		services = append(services, toCatalogService(svc, s.multiplier))
	}

	s.cached = services
	s.fetchedAt = s.now()
	s.logger.Info("reseller catalog refreshed", zap.Int("services", len(services)))

	return services, nil
}

func (s *catalogServiceImpl) GroupedResellerServices(ctx context.Context) (model.CatalogGroups, error) {
	services, err := s.ResellerServices(ctx)
	if err != nil {
		return nil, err
	}
	return GroupCatalog(services), nil
}

func (s *catalogServiceImpl) FindResellerService(ctx context.Context, serviceID int64) (*model.CatalogService, error) {
	services, err := s.ResellerServices(ctx)
	if err != nil {
		return nil, err
	}

	for i := range services {
		if services[i].ResellerServiceID == serviceID {
			svc := services[i]
			return &svc, nil
		}
	}
	return nil, fmt.Errorf("reseller service %d: %w", serviceID, ErrNotFound)
}

func (s *catalogServiceImpl) ResellerBalance(ctx context.Context) (*model.ResellerBalance, error) {
	balance, err := s.resellerClient.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch reseller balance: %w", err)
	}
	return balance, nil
}

// GroupCatalog arranges services by platform and then by service type.
func GroupCatalog(services []model.CatalogService) model.CatalogGroups {
	groups := make(model.CatalogGroups)
	for _, svc := range services {
		if groups[svc.Platform] == nil {
			groups[svc.Platform] = make(map[string][]model.CatalogService)
		}
		groups[svc.Platform][svc.ServiceType] = append(groups[svc.Platform][svc.ServiceType], svc)
	}
	return groups
}

// PlatformOf is the category text before the first " - ".
func PlatformOf(category string) string {
	platform := strings.TrimSpace(strings.SplitN(category, " - ", 2)[0])
	if platform == "" {
		return otherGroup
	}
	return platform
}

func ServiceTypeOf(name string) string {
	for _, kw := range serviceTypeKeywords {
		if strings.Contains(name, kw) {
			return kw
		}
	}
	return otherGroup
}

func toCatalogService(svc model.ResellerService, multiplier float64) model.CatalogService {
	rate, _ := strconv.ParseFloat(strings.TrimSpace(svc.Rate.String()), 64)
	maxQty := svc.Max.Int()

	return model.CatalogService{
		ID:                strconv.FormatInt(svc.Service, 10),
		Platform:          PlatformOf(svc.Category),
		ServiceType:       ServiceTypeOf(svc.Name),
		PackageName:       svc.Name,
		Quantity:          maxQty,
		Price:             int64(math.Round(rate * multiplier)),
		MinQuantity:       svc.Min.Int(),
		MaxQuantity:       maxQty,
		Description:       svc.Name,
		IsActive:          true,
		ResellerServiceID: svc.Service,
		Rate:              svc.Rate.String(),
	}
}

// ResellerPrice is what a customer pays for quantity units of a service
// whose rate is quoted per 1000 units.
func ResellerPrice(rate string, multiplier float64, quantity int) (decimal.Decimal, error) {
	r, err := decimal.NewFromString(strings.TrimSpace(rate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate %q: %w", rate, err)
	}

	return r.
		Mul(decimal.NewFromFloat(multiplier)).
		Mul(decimal.NewFromInt(int64(quantity))).
		Div(decimal.NewFromInt(1000)).
		Round(2), nil
}
