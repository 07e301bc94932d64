package service

import (
	"context"
	"testing"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformOf(t *testing.T) {
	assert.Equal(t, "Instagram", PlatformOf("Instagram - Followers [Guaranteed]"))
	assert.Equal(t, "YouTube", PlatformOf("YouTube"))
	assert.Equal(t, "Other", PlatformOf(""))
	assert.Equal(t, "Other", PlatformOf(" - Likes"))
}

func TestServiceTypeOf(t *testing.T) {
	assert.Equal(t, "Followers", ServiceTypeOf("Instagram Followers [Real]"))
	assert.Equal(t, "Likes", ServiceTypeOf("TikTok Views + Likes Boost"))
	assert.Equal(t, "Views", ServiceTypeOf("TikTok Views [Fast]"))
	assert.Equal(t, "Likes", ServiceTypeOf("Facebook Post Likes"))
	assert.Equal(t, "Other", ServiceTypeOf("Twitter Retweets"))
}

func TestResellerPrice(t *testing.T) {
	price, err := ResellerPrice("0.90", 1000, 500)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(450)), price.String())

	price, err = ResellerPrice("0.0123", 1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, "12.3", price.String())

	_, err = ResellerPrice("free", 1000, 10)
	assert.Error(t, err)
}

func TestGroupCatalog(t *testing.T) {
	services := []model.CatalogService{
		{Platform: "Instagram", ServiceType: "Followers", ResellerServiceID: 1},
		{Platform: "Instagram", ServiceType: "Likes", ResellerServiceID: 2},
		{Platform: "Instagram", ServiceType: "Followers", ResellerServiceID: 3},
		{Platform: "TikTok", ServiceType: "Views", ResellerServiceID: 4},
	}

	groups := GroupCatalog(services)

	require.Len(t, groups, 2)
	assert.Len(t, groups["Instagram"]["Followers"], 2)
	assert.Len(t, groups["Instagram"]["Likes"], 1)
	assert.Equal(t, int64(4), groups["TikTok"]["Views"][0].ResellerServiceID)
}

func TestToCatalogService(t *testing.T) {
	svc := toCatalogService(model.ResellerService{
		Service:  11,
		Name:     "Instagram Followers [Real]",
		Rate:     "0.90",
		Min:      "100",
		Max:      "10000",
		Category: "Instagram - Followers",
	}, 1000)

	assert.Equal(t, "11", svc.ID)
	assert.Equal(t, "Instagram", svc.Platform)
	assert.Equal(t, "Followers", svc.ServiceType)
	assert.Equal(t, int64(900), svc.Price)
	assert.Equal(t, 100, svc.MinQuantity)
	assert.Equal(t, 10000, svc.MaxQuantity)
	assert.Equal(t, 10000, svc.Quantity)
	assert.Equal(t, int64(11), svc.ResellerServiceID)
	assert.True(t, svc.IsActive)
}

func TestResellerServicesCache(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	catalog := env.catalog.(*catalogServiceImpl)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	catalog.now = func() time.Time { return now }

	_, err := catalog.ResellerServices(ctx)
	require.NoError(t, err)
	_, err = catalog.ResellerServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.reseller.serviceHits)

	now = now.Add(11 * time.Minute)
	services, err := catalog.ResellerServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, env.reseller.serviceHits)
	assert.Len(t, services, 2)
}

func TestResellerServicesErrorIsNotCached(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	env.reseller.servicesErr = errBoom
	_, err := env.catalog.ResellerServices(ctx)
	require.ErrorIs(t, err, errBoom)

	env.reseller.servicesErr = nil
	services, err := env.catalog.ResellerServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 2)
}

func TestFindResellerService(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	svc, err := env.catalog.FindResellerService(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "TikTok", svc.Platform)

	_, err = env.catalog.FindResellerService(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPackages(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	pkg := env.pkg(t, "2500")

	err := env.catalog.CreatePackage(ctx, &model.ServicePackage{Platform: "TikTok", PackageName: "x", Quantity: 10, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	packages, err := env.catalog.ListPackages(ctx, "Instagram")
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, pkg.ID, packages[0].ID)

	require.NoError(t, env.catalog.SetPackageActive(ctx, pkg.ID, false))
	packages, err = env.catalog.ListPackages(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, packages)

	assert.ErrorIs(t, env.catalog.SetPackageActive(ctx, "missing", true), ErrNotFound)
}
