package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"freightdispatch/api"
	httpin "freightdispatch/internal/adapters/in/http"
	"freightdispatch/internal/adapters/out/escalation"
	"freightdispatch/internal/adapters/out/events"
	"freightdispatch/internal/adapters/out/locks"
	"freightdispatch/internal/adapters/out/metrics"
	"freightdispatch/internal/adapters/out/notifications"
	"freightdispatch/internal/adapters/out/orders"
	"freightdispatch/internal/adapters/out/postgres"
	"freightdispatch/internal/adapters/out/postgres/chainrepo"
	"freightdispatch/internal/adapters/out/postgres/routeprofilerepo"
	"freightdispatch/internal/adapters/out/reputation"
	"freightdispatch/internal/core/application/usecases/commands"
	"freightdispatch/internal/core/application/usecases/queries"
	"freightdispatch/internal/core/ports"
	"freightdispatch/internal/jobs"
	"freightdispatch/internal/pkg/clock"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	clock      clock.Clock
	logger     *slog.Logger

	registry      *prometheus.Registry
	metrics       ports.DispatchMetrics
	locker        ports.Locker
	orders        ports.OrderSource
	reputations   ports.ReputationSource
	gateway       ports.EscalationGateway
	notifications ports.NotificationSender
	publisher     ports.EventPublisher

	submitter  *commands.SubmitEscalationCommandHandler
	dispatcher commands.EventDispatcher

	closers []func() error
}

// NewCompositionRoot connects the outbound adapters. Redis, RabbitMQ and
// Kafka are optional; without them the root falls back to a process-local
// lock and log-only notifications and events.
func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		clock:      clock.System{},
		logger:     logger,
		registry:   prometheus.NewRegistry(),
	}

	c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics, err := metrics.NewPrometheus(c.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	c.metrics = promMetrics

	if err := c.connectRedis(ctx); err != nil {
		return nil, c.closeAfter(err)
	}
	if err := c.connectNotifications(); err != nil {
		return nil, c.closeAfter(err)
	}
	c.connectEvents()

	c.orders = orders.NewHTTPOrderSource(orders.Config{
		BaseURL: cfg.OrderServiceURL,
		APIKey:  cfg.OrderServiceAPIKey,
		Timeout: cfg.OutboundTimeout,
	})
	c.gateway = escalation.NewHTTPGateway(escalation.Config{
		BaseURL: cfg.EscalationServiceURL,
		APIKey:  cfg.EscalationServiceAPIKey,
		Timeout: cfg.OutboundTimeout,
	})

	return c, nil
}

func (c *CompositionRoot) connectRedis(ctx context.Context) error {
	reputationSource := reputation.NewHTTPSource(reputation.Config{
		BaseURL: c.cfg.ReputationServiceURL,
		APIKey:  c.cfg.ReputationServiceAPIKey,
		Timeout: c.cfg.OutboundTimeout,
	})

	if c.cfg.RedisAddr == "" {
		c.logger.Warn("REDIS_ADDR not set, chain locks are local to this process and reputations are not cached")
		c.locker = locks.NewMemoryLocker()
		c.reputations = reputationSource
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.cfg.RedisAddr,
		Password: c.cfg.RedisPassword,
		DB:       c.cfg.RedisDB,
	})
	c.closers = append(c.closers, client.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("connect redis %s: %w", c.cfg.RedisAddr, err)
	}

	c.locker = locks.NewRedisLocker(client, locks.RedisLockerConfig{}, c.logger)
	c.reputations = reputation.NewCachedSource(reputationSource, client, c.cfg.ReputationCacheTTL, c.logger)
	return nil
}

func (c *CompositionRoot) connectNotifications() error {
	if c.cfg.RabbitMQURL == "" {
		c.logger.Warn("RABBITMQ_URL not set, carrier notifications are only logged")
		c.notifications = notifications.NewSender(notifications.NewLogPublisher(c.logger), c.clock)
		return nil
	}

	publisher, err := notifications.NewAMQPPublisher(c.cfg.RabbitMQURL, c.cfg.NotificationExchange)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, publisher.Close)
	c.notifications = notifications.NewSender(publisher, c.clock)
	return nil
}

func (c *CompositionRoot) connectEvents() {
	if len(c.cfg.KafkaBrokers) == 0 {
		c.publisher = events.NewLogPublisher(c.logger)
		return
	}

	publisher := events.NewKafkaPublisher(events.NewKafkaWriter(c.cfg.KafkaBrokers), c.cfg.KafkaDispatchEventsTopic)
	c.closers = append(c.closers, publisher.Close)
	c.publisher = publisher
}

func (c *CompositionRoot) closeAfter(err error) error {
	return errors.Join(err, c.Close())
}

// Close releases broker and cache connections in reverse order.
func (c *CompositionRoot) Close() error {
	var problems []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		problems = append(problems, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(problems...)
}

func (c *CompositionRoot) Registry() *prometheus.Registry { return c.registry }

func (c *CompositionRoot) chainUoWFactory() commands.ChainUoWFactory {
	return FuncChainUoWFactory(func() commands.ChainUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateSubmitEscalationCommandHandler() commands.SubmitEscalationCommandHandler {
	if c.submitter == nil {
		h := commands.NewSubmitEscalationCommandHandler(
			c.chainUoWFactory(),
			c.locker,
			c.clock,
			c.orders,
			c.gateway,
			c.metrics,
			commands.SubmitEscalationConfig{
				CallbackURL: c.cfg.EscalationCallbackURL,
				Timeout:     c.cfg.SideEffectTimeout,
				Schedule:    commands.DefaultRetrySchedule(),
			},
			c.logger,
		)
		c.submitter = &h
	}
	return *c.submitter
}

func (c *CompositionRoot) eventDispatcher() commands.EventDispatcher {
	if c.dispatcher == nil {
		c.dispatcher = commands.NewPostCommitDispatcher(
			c.notifications,
			c.orders,
			c.gateway,
			c.publisher,
			c.metrics,
			c.CreateSubmitEscalationCommandHandler(),
			commands.PostCommitDispatcherConfig{
				ResponseBaseURL: c.cfg.PublicBaseURL,
				Timeout:         c.cfg.SideEffectTimeout,
			},
			c.logger,
		)
	}
	return c.dispatcher
}

func (c *CompositionRoot) CreateGenerateChainCommandHandler() commands.GenerateChainCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewGenerateChainCommandHandler(
		f, c.locker, c.clock, c.orders, c.reputations, c.eventDispatcher(), c.cfg.SideEffectTimeout, c.logger,
	)
}

func (c *CompositionRoot) CreateStartDispatchCommandHandler() commands.StartDispatchCommandHandler {
	return commands.NewStartDispatchCommandHandler(c.chainUoWFactory(), c.locker, c.clock, c.eventDispatcher(), c.logger)
}

func (c *CompositionRoot) CreateRespondCommandHandler() commands.RespondCommandHandler {
	return commands.NewRespondCommandHandler(c.chainUoWFactory(), c.locker, c.clock, c.eventDispatcher(), c.logger)
}

func (c *CompositionRoot) CreateTimeoutAttemptCommandHandler() commands.TimeoutAttemptCommandHandler {
	return commands.NewTimeoutAttemptCommandHandler(c.chainUoWFactory(), c.locker, c.clock, c.eventDispatcher(), c.logger)
}

func (c *CompositionRoot) CreateSendReminderCommandHandler() commands.SendReminderCommandHandler {
	return commands.NewSendReminderCommandHandler(c.chainUoWFactory(), c.locker, c.clock, c.eventDispatcher(), c.logger)
}

func (c *CompositionRoot) CreateCancelChainCommandHandler() commands.CancelChainCommandHandler {
	return commands.NewCancelChainCommandHandler(c.chainUoWFactory(), c.locker, c.clock, c.eventDispatcher(), c.logger)
}

func (c *CompositionRoot) CreateHandleEscalationCallbackCommandHandler() commands.HandleEscalationCallbackCommandHandler {
	return commands.NewHandleEscalationCallbackCommandHandler(
		c.chainUoWFactory(), c.locker, c.clock, c.eventDispatcher(), c.logger,
	)
}

func (c *CompositionRoot) CreateRetryEscalationCommandHandler() commands.RetryEscalationCommandHandler {
	return commands.NewRetryEscalationCommandHandler(
		c.chainUoWFactory(), c.locker, c.clock, c.CreateSubmitEscalationCommandHandler(), c.logger,
	)
}

func (c *CompositionRoot) CreateRetryEscalationDeliveriesCommandHandler() commands.RetryEscalationDeliveriesCommandHandler {
	return commands.NewRetryEscalationDeliveriesCommandHandler(
		c.chainUoWFactory(), c.CreateSubmitEscalationCommandHandler(), c.clock, commands.DefaultRetryBatch, c.logger,
	)
}

func (c *CompositionRoot) CreateScanTimeoutsCommandHandler() commands.ScanTimeoutsCommandHandler {
	return commands.NewScanTimeoutsCommandHandler(
		c.chainUoWFactory(),
		c.CreateTimeoutAttemptCommandHandler(),
		c.CreateSendReminderCommandHandler(),
		c.clock,
		c.metrics,
		c.cfg.MonitorWorkers,
		c.logger,
	)
}

func (c *CompositionRoot) CreateReportStaleEscalationsCommandHandler() commands.ReportStaleEscalationsCommandHandler {
	var f commands.ReportUoWFactory = FuncReportUoWFactory(func() commands.ReportUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReportStaleEscalationsCommandHandler(
		f, c.clock, c.metrics, c.cfg.StaleEscalationAfter, commands.DefaultReportPeriod, c.logger,
	)
}

func (c *CompositionRoot) CreateImportRouteProfilesCommandHandler() commands.ImportRouteProfilesCommandHandler {
	return NewImportRouteProfilesCommandHandler(c.uowFactory, c.logger)
}

// NewImportRouteProfilesCommandHandler is also used by import-lanes, which
// runs without the rest of the root.
func NewImportRouteProfilesCommandHandler(
	uowFactory *postgres.GormUnitOfWorkFactory,
	logger *slog.Logger,
) commands.ImportRouteProfilesCommandHandler {
	var f commands.RouteProfileUoWFactory = FuncRouteProfileUoWFactory(func() commands.RouteProfileUoW {
		return uowFactory.Create()
	})
	return commands.NewImportRouteProfilesCommandHandler(f, logger)
}

func (c *CompositionRoot) CreateDetectRouteQueryHandler() queries.DetectRouteQueryHandler {
	return queries.NewDetectRouteQueryHandler(c.orders, routeprofilerepo.NewGormRouteProfileRepository(c.gormDB))
}

func (c *CompositionRoot) CreateGetDispatchStatusQueryHandler() queries.GetDispatchStatusQueryHandler {
	return queries.NewGetDispatchStatusQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetEscalationStatusQueryHandler() queries.GetEscalationStatusQueryHandler {
	return queries.NewGetEscalationStatusQueryHandler(chainrepo.NewGormChainRepository(c.gormDB), c.gateway)
}

func (c *CompositionRoot) CreateListRouteProfilesQueryHandler() queries.ListRouteProfilesQueryHandler {
	return queries.NewListRouteProfilesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPRouter() (*echo.Echo, error) {
	server := httpin.NewServer(httpin.Handlers{
		GenerateChain:      c.CreateGenerateChainCommandHandler(),
		StartDispatch:      c.CreateStartDispatchCommandHandler(),
		Respond:            c.CreateRespondCommandHandler(),
		CancelChain:        c.CreateCancelChainCommandHandler(),
		RetryEscalation:    c.CreateRetryEscalationCommandHandler(),
		EscalationCallback: c.CreateHandleEscalationCallbackCommandHandler(),
		DetectRoute:        c.CreateDetectRouteQueryHandler(),
		DispatchStatus:     c.CreateGetDispatchStatusQueryHandler(),
		EscalationStatus:   c.CreateGetEscalationStatusQueryHandler(),
		ListRouteProfiles:  c.CreateListRouteProfilesQueryHandler(),
	}, c.clock)

	return httpin.NewRouter(server, httpin.RouterConfig{
		OpenAPI:  api.OpenAPI,
		Gatherer: c.registry,
		Logger:   c.logger,
	})
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		jobs.NewTimeoutMonitorJob(c.CreateScanTimeoutsCommandHandler(), c.cfg.MonitorSchedule, c.logger),
		jobs.NewEscalationRetryJob(c.CreateRetryEscalationDeliveriesCommandHandler(), c.cfg.EscalationRetrySchedule, c.logger),
		jobs.NewStaleEscalationReportJob(c.CreateReportStaleEscalationsCommandHandler(), c.cfg.StaleReportSchedule, c.logger),
	)
}

type FuncChainUoWFactory func() commands.ChainUoW

func (f FuncChainUoWFactory) Create() commands.ChainUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncReportUoWFactory func() commands.ReportUoW

func (f FuncReportUoWFactory) Create() commands.ReportUoW {
	return f()
}

type FuncRouteProfileUoWFactory func() commands.RouteProfileUoW

func (f FuncRouteProfileUoWFactory) Create() commands.RouteProfileUoW {
	return f()
}
