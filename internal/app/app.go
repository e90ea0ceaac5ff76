package app

import (
	"fmt"
	"net/http"

	"taxsync/internal/config"
	"taxsync/internal/database"
	"taxsync/internal/metrics"
	"taxsync/internal/repository"
	"taxsync/internal/service"
	"taxsync/internal/taxapi"
	"taxsync/internal/websocket"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires configuration, storage, the tax service client and the
// services shared by the HTTP server and the admin CLI.
type App struct {
	Config   config.Config
	Store    config.StoreSettings
	Log      *zap.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Hub      *websocket.Hub

	Client     taxapi.Client
	TaxLog     service.TaxLogService
	Scheduler  service.RetryScheduler
	Lifecycle  service.OrderTaxLifecycle
	Runner     service.RetryRunner
	Checkout   service.CheckoutService
	Activation service.ActivationService
	TaxCodes   service.TaxCodeService
	OrderSync  service.OrderSyncService
}

type options struct {
	liveFeed bool
}

type Option func(*options)

// WithLiveFeed creates the websocket hub that streams the debug log.
func WithLiveFeed() Option {
	return func(o *options) { o.liveFeed = true }
}

// New connects to the database and builds every service.
func New(cfg config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := config.LoadStoreSettings(cfg.Store.SettingsFile)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	log.Info("connected to PostgreSQL")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &App{Config: cfg, Store: store, Log: log, DB: db, Registry: reg}
	a.Client = taxapi.NewClient(newTransport(cfg.Taxify), taxapi.ClientConfig{
		Credentials: taxapi.Credentials{PartnerKey: cfg.Taxify.PartnerKey, Password: cfg.Taxify.APIKey},
		StorePrefix: cfg.Taxify.StorePrefix,
	}, log, m)

	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	taxStateRepo := repository.NewTaxStateRepository(db)
	retryRepo := repository.NewRetryRepository(db)
	optionRepo := repository.NewOptionRepository(db)
	taxLogRepo := repository.NewTaxLogRepository(db)
	txManager := repository.NewTransactionManager(db)

	var publisher service.LogPublisher
	if o.liveFeed {
		a.Hub = websocket.NewHub(log)
		publisher = a.Hub
	}
	a.TaxLog = service.NewTaxLogService(taxLogRepo, publisher, log, cfg.Taxify.DebugLog)

	resolver := service.NewAddressResolver(store, customerRepo)
	builder := service.NewLineItemBuilder(store, productRepo, cfg.Taxify.StorePrefix)
	reconciler := service.NewTaxReconciler(store)

	a.Scheduler = service.NewRetryScheduler(service.RetrySchedulerDeps{
		Retries:   retryRepo,
		Orders:    orderRepo,
		TaxStates: taxStateRepo,
		Metrics:   m,
		Logger:    log,
	})
	a.Lifecycle = service.NewOrderTaxLifecycle(service.OrderTaxLifecycleDeps{
		Client:           a.Client,
		Resolver:         resolver,
		Builder:          builder,
		Reconciler:       reconciler,
		Scheduler:        a.Scheduler,
		Orders:           orderRepo,
		TaxStates:        taxStateRepo,
		TxManager:        txManager,
		TaxLog:           a.TaxLog,
		Metrics:          m,
		Logger:           log,
		TaxExemptEnabled: cfg.Store.TaxExemptEnabled,
	})
	a.Runner = service.NewRetryRunner(a.Scheduler, a.Lifecycle, cfg.Retry.RatePerSec, m, log)
	a.Checkout = service.NewCheckoutService(a.Client, resolver, builder, reconciler, a.TaxLog, log, cfg.Store.TaxExemptEnabled)
	a.Activation = service.NewActivationService(a.Client, a.Scheduler, optionRepo, log)
	a.TaxCodes = service.NewTaxCodeService(a.Client, optionRepo, store, log)
	a.OrderSync = service.NewOrderSyncService(orderRepo, customerRepo, productRepo, txManager)

	return a, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newTransport(cfg config.TaxifyConfig) taxapi.Transport {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.Transport == config.TransportREST {
		return taxapi.NewRESTTransport(cfg.RESTEndpoint, httpClient)
	}
	return taxapi.NewSOAPTransport(cfg.SOAPEndpoint, cfg.SOAPNamespace, httpClient)
}
