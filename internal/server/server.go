package server

import (
	"context"
	"net/http"

	"github.com/King12-D/hypegrow-boost/internal/handler"
	appmw "github.com/King12-D/hypegrow-boost/internal/middleware"
	"github.com/King12-D/hypegrow-boost/internal/service"
	"github.com/King12-D/hypegrow-boost/internal/ws"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Services struct {
	Catalog      service.CatalogService
	Discount     service.DiscountService
	Order        service.OrderService
	Payment      service.PaymentService
	Admin        service.AdminService
	Profile      service.ProfileService
	Support      service.SupportService
	Notification service.NotificationService
	Analytics    service.AnalyticsService
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	// directory served under ProofURLPrefix
	ProofDir       string
	ProofURLPrefix string
	// request bodies above this are rejected before reaching handlers
	BodyLimit string
}

type Server struct {
	echo                *echo.Echo
	opts                Options
	services            Services
	catalogHandler      *handler.CatalogHandler
	orderHandler        *handler.OrderHandler
	paymentHandler      *handler.PaymentHandler
	discountHandler     *handler.DiscountHandler
	adminHandler        *handler.AdminHandler
	profileHandler      *handler.ProfileHandler
	supportHandler      *handler.SupportHandler
	notificationHandler *handler.NotificationHandler
	analyticsHandler    *handler.AnalyticsHandler
}

func NewServer(services Services, hub *ws.Hub, opts Options, l *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(l)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			l.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	corsCfg := middleware.DefaultCORSConfig
	if len(opts.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = opts.AllowedOrigins
	}
	e.Use(middleware.CORSWithConfig(corsCfg))

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	s := &Server{
		echo:                e,
		opts:                opts,
		services:            services,
		catalogHandler:      handler.NewCatalogHandler(services.Catalog),
		orderHandler:        handler.NewOrderHandler(services.Order),
		paymentHandler:      handler.NewPaymentHandler(services.Payment),
		discountHandler:     handler.NewDiscountHandler(services.Discount),
		adminHandler:        handler.NewAdminHandler(services.Admin),
		profileHandler:      handler.NewProfileHandler(services.Profile),
		supportHandler:      handler.NewSupportHandler(services.Support),
		notificationHandler: handler.NewNotificationHandler(services.Notification, hub),
		analyticsHandler:    handler.NewAnalyticsHandler(services.Analytics),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	if s.opts.ProofDir != "" && s.opts.ProofURLPrefix != "" {
		s.echo.Static(s.opts.ProofURLPrefix, s.opts.ProofDir)
	}

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- public --------
	api.GET("/packages", s.catalogHandler.ListPackages)
	api.GET("/reseller/services", s.catalogHandler.ResellerServices)
	api.POST("/analytics/events", s.analyticsHandler.Track, appmw.OptionalAuth(s.opts.JWTSecret))

	// -------- signed in --------
	auth := api.Group("", appmw.Auth(s.opts.JWTSecret, s.services.Profile))

	auth.GET("/profile", s.profileHandler.Get)
	auth.PUT("/profile", s.profileHandler.Update)
	auth.GET("/profile/role", s.profileHandler.Role)
	auth.GET("/profile/wallet/transactions", s.profileHandler.WalletTransactions)

	auth.POST("/discounts/validate", s.discountHandler.Validate)

	auth.POST("/orders", s.orderHandler.Create)
	auth.GET("/orders", s.orderHandler.ListMine)
	auth.GET("/orders/:id", s.orderHandler.GetMine)
	auth.POST("/orders/:id/cancel", s.orderHandler.Cancel)

	auth.POST("/payments", s.paymentHandler.Create)
	auth.GET("/payments", s.paymentHandler.ListMine)
	auth.GET("/payments/:id", s.paymentHandler.GetMine)
	auth.POST("/payments/:id/proof", s.paymentHandler.UploadProof)

	auth.POST("/tickets", s.supportHandler.Create)
	auth.GET("/tickets", s.supportHandler.ListMine)

	auth.GET("/notifications", s.notificationHandler.List)
	auth.POST("/notifications/read-all", s.notificationHandler.MarkAllRead)
	auth.POST("/notifications/:id/read", s.notificationHandler.MarkRead)
	auth.GET("/notifications/ws", s.notificationHandler.Stream)

	// -------- admin --------
	admin := auth.Group("/admin", appmw.RequireAdmin(s.services.Profile))

	admin.GET("/stats", s.adminHandler.Stats)
	admin.GET("/orders", s.adminHandler.ListOrders)
	admin.PATCH("/orders/:id/status", s.adminHandler.UpdateOrderStatus)
	admin.POST("/orders/:id/dispatch", s.adminHandler.RetryFulfillment)
	admin.POST("/orders/:id/refund", s.adminHandler.RefundOrder)
	admin.GET("/payments", s.adminHandler.ListPayments)
	admin.POST("/payments/:id/verify", s.adminHandler.VerifyPayment)

	admin.GET("/discounts", s.discountHandler.List)
	admin.POST("/discounts", s.discountHandler.Create)
	admin.PATCH("/discounts/:id", s.discountHandler.SetActive)

	admin.POST("/packages", s.catalogHandler.CreatePackage)
	admin.PATCH("/packages/:id", s.catalogHandler.SetPackageActive)
	admin.GET("/reseller/balance", s.catalogHandler.ResellerBalance)

	admin.GET("/tickets", s.supportHandler.List)
	admin.PATCH("/tickets/:id", s.supportHandler.Update)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
