package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "sitebooks/api/swagger" // swagger docs
	"sitebooks/internal/config"
	"sitebooks/internal/database"
	"sitebooks/internal/handler"
	"sitebooks/internal/logging"
	"sitebooks/internal/metrics"
	"sitebooks/internal/middleware"
	"sitebooks/internal/repository"
	"sitebooks/internal/service"
	"sitebooks/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title           Sitebooks API
// @version         1.0
// @description     Expense ledger for construction jobs: client bills and receipts, contractor bills and payments, site expenses and refunds.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the yaml config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sitebooks: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Env,
	})
	slog.SetDefault(logger)

	db, err := database.NewConnection(cfg.DB, logger)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics := metrics.New()
	wsHub := websocket.NewHub(cfg.Server.AllowedOrigins, logger)
	go wsHub.Run(ctx)

	tokens := service.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	router := newRouter(cfg, logger, db, tokens, wsHub, appMetrics)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter wires repositories, services and handlers (Repository -> Service -> Handler).
func newRouter(cfg *config.Config, logger *slog.Logger, db *gorm.DB, tokens *service.TokenManager, wsHub *websocket.Hub, appMetrics *metrics.Metrics) *gin.Engine {
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	clientRepo := repository.NewClientRepository(db)
	jobRepo := repository.NewJobRepository(db)
	contractorRepo := repository.NewContractorSupplierRepository(db)
	materialRepo := repository.NewMaterialCodeRepository(db)
	clientBillRepo := repository.NewClientBillRepository(db)
	receiptRepo := repository.NewPaymentReceiptRepository(db)
	contractorBillRepo := repository.NewContractorBillRepository(db)
	contractorPaymentRepo := repository.NewContractorPaymentRepository(db)
	deductionRepo := repository.NewDeductionRepository(db)
	expenseRepo := repository.NewSiteExpenseRepository(db)
	refundRepo := repository.NewSiteExpenseRefundRepository(db)
	enquiryRepo := repository.NewSiteExpenseEnquiryRepository(db)
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// every committed write reaches the browsers and the change counter
	notifier := service.Notifiers{wsHub, appMetrics}

	companyService := service.NewCompanyService(companyRepo, txManager, auditRepo, notifier)
	clientService := service.NewClientService(clientRepo, txManager, auditRepo, notifier)
	jobService := service.NewJobService(jobRepo, clientRepo, companyRepo, txManager, auditRepo, notifier)
	contractorService := service.NewContractorSupplierService(contractorRepo, txManager, auditRepo, notifier)
	materialService := service.NewMaterialCodeService(materialRepo, txManager, auditRepo, notifier)
	clientBillService := service.NewClientBillService(clientBillRepo, jobRepo, txManager, auditRepo, notifier)
	receiptService := service.NewPaymentReceiptService(receiptRepo, jobRepo, clientBillRepo, deductionRepo, txManager, auditRepo, notifier)
	contractorBillService := service.NewContractorBillService(contractorBillRepo, jobRepo, contractorRepo, materialRepo, txManager, auditRepo, notifier)
	contractorPaymentService := service.NewContractorPaymentService(contractorPaymentRepo, contractorBillRepo, deductionRepo, txManager, auditRepo, notifier)
	expenseService := service.NewSiteExpenseService(expenseRepo, refundRepo, jobRepo, txManager, auditRepo, notifier)
	refundService := service.NewSiteExpenseRefundService(refundRepo, expenseRepo, txManager, auditRepo, notifier)
	enquiryService := service.NewEnquiryService(enquiryRepo, jobRepo, expenseRepo, txManager, auditRepo, notifier)
	statusService := service.NewStatusService(clientBillRepo, receiptRepo, contractorBillRepo, contractorPaymentRepo)
	previewService := service.NewPreviewService(expenseRepo)
	authService := service.NewAuthService(userRepo, refreshTokenRepo, txManager, auditRepo, tokens)
	userService := service.NewUserService(userRepo, refreshTokenRepo, txManager, auditRepo)
	auditService := service.NewAuditService(auditRepo)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	opsPaths := []string{"/health", "/metrics"}
	router.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger, opsPaths...),
		middleware.Metrics(appMetrics, opsPaths...),
	)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.HeaderRequestID}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.HeaderRequestID}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler(logger, cfg.IsDevelopment()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))
	router.GET("/health", func(c *gin.Context) {
		if err := sqlPing(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, tokens, c)
	})

	auth := middleware.NewAuth(tokens, cfg.IsProduction())
	api := router.Group("/api")
	protected := api.Group("", auth.RequireAuth())

	handler.NewAuthHandler(authService, auth, tokens).RegisterRoutes(api, protected)
	handler.NewCompanyHandler(companyService).RegisterRoutes(protected)
	handler.NewClientHandler(clientService).RegisterRoutes(protected)
	handler.NewJobHandler(jobService).RegisterRoutes(protected)
	handler.NewContractorSupplierHandler(contractorService).RegisterRoutes(protected)
	handler.NewMaterialCodeHandler(materialService).RegisterRoutes(protected)
	handler.NewClientBillHandler(clientBillService).RegisterRoutes(protected)
	handler.NewPaymentReceiptHandler(receiptService).RegisterRoutes(protected)
	handler.NewContractorBillHandler(contractorBillService).RegisterRoutes(protected)
	handler.NewContractorPaymentHandler(contractorPaymentService).RegisterRoutes(protected)
	handler.NewSiteExpenseHandler(expenseService).RegisterRoutes(protected)
	handler.NewSiteExpenseRefundHandler(refundService).RegisterRoutes(protected)
	handler.NewEnquiryHandler(enquiryService).RegisterRoutes(protected)
	handler.NewStatusHandler(statusService).RegisterRoutes(protected)
	handler.NewPreviewHandler(previewService).RegisterRoutes(protected)
	handler.NewUserHandler(userService).RegisterRoutes(protected)
	handler.NewAuditHandler(auditService).RegisterRoutes(protected)

	return router
}

func sqlPing(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
