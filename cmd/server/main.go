// Command server runs the Inkwell API: multi-tenant storefront management
// for print shops, with plan-based feature gating and usage limits.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/inkwellhq/inkwell/modules/billing"
	"github.com/inkwellhq/inkwell/modules/catalog"
	"github.com/inkwellhq/inkwell/modules/crm"
	"github.com/inkwellhq/inkwell/modules/orders"
	"github.com/inkwellhq/inkwell/modules/settings"
	"github.com/inkwellhq/inkwell/modules/signup"
	"github.com/inkwellhq/inkwell/modules/team"
	"github.com/inkwellhq/inkwell/modules/uploads"
	"github.com/inkwellhq/inkwell/pkg/config"
	"github.com/inkwellhq/inkwell/pkg/email"
	"github.com/inkwellhq/inkwell/pkg/entitlement"
	"github.com/inkwellhq/inkwell/pkg/environment"
	"github.com/inkwellhq/inkwell/pkg/httpserver"
	"github.com/inkwellhq/inkwell/pkg/logger"
	"github.com/inkwellhq/inkwell/pkg/mongo"
	"github.com/inkwellhq/inkwell/pkg/organization"
	"github.com/inkwellhq/inkwell/pkg/plan"
	"github.com/inkwellhq/inkwell/pkg/principal"
	"github.com/inkwellhq/inkwell/pkg/redis"
	"github.com/inkwellhq/inkwell/pkg/requestid"
	"github.com/inkwellhq/inkwell/pkg/scopedb"
	"github.com/inkwellhq/inkwell/pkg/storage"
	"github.com/inkwellhq/inkwell/pkg/subscription"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"inkwell"`

	// BaseDomain is the suffix tenant subdomains hang off, e.g.
	// acme.inkwell.app.
	BaseDomain string `env:"APP_BASE_DOMAIN" envDefault:"inkwell.app"`

	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"inkwell"`

	// PlanCatalogPath points at a YAML plan catalog; empty uses the
	// built-in plans.
	PlanCatalogPath string `env:"PLAN_CATALOG_PATH"`

	TrialSweepInterval time.Duration `env:"TRIAL_SWEEP_INTERVAL" envDefault:"1h"`
	TrialNoticeWindow  time.Duration `env:"TRIAL_NOTICE_WINDOW" envDefault:"72h"`

	PaddleEnabled   bool   `env:"PADDLE_ENABLED" envDefault:"false"`
	PostmarkEnabled bool   `env:"POSTMARK_ENABLED" envDefault:"false"`
	DevMailDir      string `env:"DEV_MAIL_DIR" envDefault:"./tmp/mail"`

	// StorageDriver is "s3" or "local".
	StorageDriver   string `env:"STORAGE_DRIVER" envDefault:"local"`
	LocalStorageDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./tmp/uploads"`
	LocalStorageURL string `env:"STORAGE_LOCAL_BASE_URL" envDefault:"http://localhost:8080/files"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			environment.LoggerExtractor(),
			organization.LoggerExtractor(),
			principal.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	var mongoCfg mongo.Config
	if err := config.Load(&mongoCfg); err != nil {
		return fmt.Errorf("load mongo config: %w", err)
	}
	db, err := mongo.NewWithDatabase(ctx, mongoCfg, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer db.Client().Disconnect(context.Background())

	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return fmt.Errorf("load redis config: %w", err)
	}
	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	catalogSource := plan.Builtin()
	if cfg.PlanCatalogPath != "" {
		catalogSource = plan.NewYAMLCatalog(cfg.PlanCatalogPath)
	}

	admin := scopedb.NewAdmin(db)

	orgStore := organization.NewMongoStore(admin)
	if err := orgStore.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("organization indexes: %w", err)
	}
	orgService := organization.NewService(orgStore, organization.WithServiceLogger(log))

	mailer, err := buildMailer(cfg)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	subStore := subscription.NewMongoStore(admin)
	subOpts := []subscription.Option{
		subscription.WithLogger(log),
		subscription.WithTrialNotifications(mailer, orgService),
	}
	if cfg.PaddleEnabled {
		var paddleCfg subscription.PaddleConfig
		if err := config.Load(&paddleCfg); err != nil {
			return fmt.Errorf("load paddle config: %w", err)
		}
		provider, err := subscription.NewPaddleProvider(paddleCfg)
		if err != nil {
			return fmt.Errorf("paddle provider: %w", err)
		}
		subOpts = append(subOpts, subscription.WithBillingProvider(provider))
	}
	subService, err := subscription.NewService(ctx, catalogSource, subStore, subOpts...)
	if err != nil {
		return fmt.Errorf("subscription service: %w", err)
	}

	blobs, err := buildBlobstore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("blobstore: %w", err)
	}

	entService, err := entitlement.NewService(ctx, catalogSource, subStore,
		entitlement.WithLogger(log),
		entitlement.WithCounters(entitlement.CounterRegistry{
			plan.ResourceUsers:    collectionCounter(db, team.CollectionName),
			plan.ResourceProducts: collectionCounter(db, catalog.CollectionName),
			plan.ResourceOrders:   orderCounter(db),
			plan.ResourceStorage:  uploads.StorageCounter(blobs),
		}))
	if err != nil {
		return fmt.Errorf("entitlement service: %w", err)
	}

	router := buildRouter(cfg, log, db, rdb, orgStore, orgService, subService, entService, blobs)

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("load http config: %w", err)
	}
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, router)
	})
	g.Go(func() error {
		return runTrialSweep(ctx, log, subService, cfg.TrialSweepInterval, cfg.TrialNoticeWindow)
	})
	return g.Wait()
}

func buildMailer(cfg appConfig) (email.EmailSender, error) {
	if !cfg.PostmarkEnabled {
		return email.NewDevSender(cfg.DevMailDir), nil
	}
	var emailCfg email.Config
	if err := config.Load(&emailCfg); err != nil {
		return nil, err
	}
	return email.NewPostmarkClient(emailCfg)
}

func buildBlobstore(ctx context.Context, cfg appConfig) (storage.Blobstore, error) {
	if cfg.StorageDriver == "s3" {
		var s3Cfg storage.S3Config
		if err := config.Load(&s3Cfg); err != nil {
			return nil, err
		}
		return storage.NewS3Blobstore(ctx, s3Cfg)
	}
	return storage.NewLocalBlobstore(cfg.LocalStorageDir, cfg.LocalStorageURL)
}

// collectionCounter counts an organization's documents in a tenant-scoped
// collection, for plan limit checks.
func collectionCounter(db *mongodriver.Database, collection string) entitlement.CounterFunc {
	return func(ctx context.Context, orgID uuid.UUID) (int64, error) {
		return scopedb.NewScoped(db, orgID).Collection(collection).Count(ctx, bson.M{})
	}
}

// orderCounter counts confirmed orders only; draft quotes stay free until
// converted.
func orderCounter(db *mongodriver.Database) entitlement.CounterFunc {
	return func(ctx context.Context, orgID uuid.UUID) (int64, error) {
		return scopedb.NewScoped(db, orgID).Collection(orders.CollectionName).
			Count(ctx, bson.M{"kind": orders.KindOrder})
	}
}

func buildRouter(
	cfg appConfig,
	log *slog.Logger,
	db *mongodriver.Database,
	rdb goredis.UniversalClient,
	orgStore *organization.MongoStore,
	orgService *organization.Service,
	subService *subscription.Service,
	entService *entitlement.Service,
	blobs storage.Blobstore,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestid.Middleware)
	r.Use(environment.Middleware(environment.Environment(cfg.Env)))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(context.Background(), log,
		mongo.Healthcheck(db.Client()),
		redis.Healthcheck(rdb),
	))

	// Public endpoints: self-service signup and the billing provider
	// webhook. Both live outside tenant resolution and authentication.
	billingHandler := billing.NewHandler(subService, entService, billing.WithLogger(log))
	r.Mount("/signup", signup.NewHandler(orgService, subService, signup.WithLogger(log)).Handle())
	r.Post("/webhooks/billing", billingHandler.Webhook())

	resolver := organization.NewCompositeResolver(
		organization.NewSubdomainResolver(cfg.BaseDomain),
		organization.NewHeaderResolver(""),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(organization.Middleware(resolver, orgStore,
			organization.WithCache(organization.NewRedisCache(rdb, "")),
			organization.WithRequireActive(true),
		))
		r.Use(organization.Require(nil))
		r.Use(principal.Middleware(principal.NewHeaderAuthenticator(), nil))

		r.Mount("/products", catalog.NewHandler(db, entService, catalog.WithLogger(log)).Handle())
		r.Mount("/orders", orders.NewHandler(db, entService, orders.WithLogger(log)).Handle())
		r.Mount("/crm", crm.NewHandler(db, entService, crm.WithLogger(log)).Handle())
		r.Mount("/team", team.NewHandler(db, entService, team.WithLogger(log)).Handle())
		r.Mount("/uploads", uploads.NewHandler(blobs, entService, uploads.WithLogger(log)).Handle())
		r.Mount("/billing", billingHandler.Handle())
		r.Mount("/settings", settings.NewHandler(orgService, settings.WithLogger(log)).Handle())
	})

	return r
}

// runTrialSweep periodically expires lapsed trials and sends upgrade
// reminders for trials about to end. The read-time resolver already treats
// lapsed trials as expired, so the sweep only reconciles stored status.
func runTrialSweep(ctx context.Context, log *slog.Logger, subs *subscription.Service, interval, noticeWindow time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := subs.ExpireLapsedTrials(ctx); err != nil {
				log.ErrorContext(ctx, "trial expiry sweep failed", logger.Error(err))
			}

			if err := subs.NotifyEndingTrials(ctx, noticeWindow); err != nil {
				log.ErrorContext(ctx, "trial reminder sweep failed", logger.Error(err))
			}
		}
	}
}
