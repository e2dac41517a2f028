package di

import (
	"context"
	"fmt"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-catalog/internal/audit"
	"github.com/goliatone/go-catalog/internal/batch"
	"github.com/goliatone/go-catalog/internal/docs"
	"github.com/goliatone/go-catalog/internal/locales"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/logging/console"
	"github.com/goliatone/go-catalog/internal/logging/gologger"
	"github.com/goliatone/go-catalog/internal/media"
	"github.com/goliatone/go-catalog/internal/products"
	"github.com/goliatone/go-catalog/internal/runtimeconfig"
	"github.com/goliatone/go-catalog/internal/slugs"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/internal/validation"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

// Container wires the store, the audit writer and every catalog service.
type Container struct {
	Config runtimeconfig.Config

	locales        locales.Set
	routes         *locales.Routes
	loggerProvider interfaces.LoggerProvider
	clock          func() time.Time

	bunDB         *bun.DB
	ownsDB        bool
	store         store.Store
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	activitySink  interfaces.ActivitySink

	schemas      *validation.Validator
	auditWriter  *audit.Writer
	slugRegistry *slugs.Registry

	productSvc products.Service
	docSvc     docs.Service
	mediaSvc   media.Service
	batchSvc   batch.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB backs the container with db instead of the configured driver.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithStore injects a ready store. It wins over WithBunDB and the driver.
func WithStore(st store.Store) Option {
	return func(c *Container) {
		c.store = st
	}
}

// WithCache overrides the default cache service used for product reads.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the logger provider built from config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithActivitySink mirrors audit entries to sink when the activity feed
// feature is enabled.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		c.activitySink = sink
	}
}

// WithClock overrides time.Now for every service.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewContainer validates cfg and builds the service graph.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set, err := cfg.LocaleSet()
	if err != nil {
		return nil, err
	}

	routes, err := locales.NewRoutes(cfg.Routes.BaseURL)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		locales: set,
		routes:  routes,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureStore(); err != nil {
		return nil, err
	}
	if err := c.configureServices(); err != nil {
		_ = c.Close()
		return nil, err
	}

	logging.ModuleLogger(c.loggerProvider, "catalog.di").Info("container.configured",
		"storage", c.storageName(),
		"cache", c.cacheService != nil,
		"schemas", c.schemas != nil,
		"activity_feed", c.activitySink != nil && cfg.Features.ActivityFeed,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	logCfg := c.Config.Logging
	switch logCfg.Provider {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure go-logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{TimeFunc: c.clock}
		if level, ok := console.ParseLevel(logCfg.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.TTL > 0 {
			cfg.TTL = c.Config.Cache.TTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureStore() error {
	if c.store != nil {
		return nil
	}

	if c.bunDB == nil {
		driver := runtimeconfig.NormalizeDriver(c.Config.Storage.Driver)
		if driver == runtimeconfig.DriverMemory {
			c.store = store.NewMemoryStore()
			return nil
		}
		db, err := store.Open(driver, c.Config.Storage.DSN)
		if err != nil {
			return fmt.Errorf("di: open storage: %w", err)
		}
		c.bunDB = db
		c.ownsDB = true
	}

	bunOpts := []store.BunOption{}
	if c.cacheService != nil {
		bunOpts = append(bunOpts, store.WithCache(c.cacheService, c.keySerializer))
	}
	c.store = store.NewBunStore(c.bunDB, bunOpts...)
	return nil
}

func (c *Container) configureServices() error {
	if c.Config.Features.ContentSchemas {
		schemas, err := validation.NewValidator()
		if err != nil {
			return fmt.Errorf("di: compile content schemas: %w", err)
		}
		c.schemas = schemas
	}

	auditOpts := []audit.Option{
		audit.WithClock(c.clock),
		audit.WithLogger(logging.AuditLogger(c.loggerProvider)),
	}
	if c.Config.Features.ActivityFeed && c.activitySink != nil {
		auditOpts = append(auditOpts, audit.WithSink(audit.ActivityBridge{Sink: c.activitySink}))
	}
	c.auditWriter = audit.NewWriter(auditOpts...)

	c.slugRegistry = slugs.NewRegistry(
		slugs.WithAuditWriter(c.auditWriter),
		slugs.WithLogger(logging.SlugsLogger(c.loggerProvider)),
		slugs.WithClock(c.clock),
	)

	services := c.servicesFor(c.store)
	c.productSvc = services.Products
	c.docSvc = services.Docs
	c.mediaSvc = services.Media

	batchOpts := []batch.ServiceOption{
		batch.WithClock(c.clock),
		batch.WithLogger(logging.BatchLogger(c.loggerProvider)),
		batch.WithAuditWriter(c.auditWriter),
		batch.WithLocales(c.locales),
		batch.WithTransactionalApply(c.Config.Features.TransactionalBatch),
	}
	if c.schemas != nil {
		batchOpts = append(batchOpts, batch.WithSchemaValidator(c.schemas))
	}
	c.batchSvc = batch.NewService(c.store, c.servicesFor, batchOpts...)
	return nil
}

// servicesFor builds product, doc and media services bound to st. The batch
// service calls it with the transaction store.
func (c *Container) servicesFor(st store.Store) batch.Services {
	productSvc := products.NewService(st,
		products.WithClock(c.clock),
		products.WithLogger(logging.ProductsLogger(c.loggerProvider)),
		products.WithAuditWriter(c.auditWriter),
		products.WithSlugRegistry(c.slugRegistry),
		products.WithLocales(c.locales),
		products.WithRoutes(c.routes),
		products.WithMaxPageSize(c.Config.Products.PageSizeMax),
	)

	docOpts := []docs.ServiceOption{
		docs.WithClock(c.clock),
		docs.WithLogger(logging.DocsLogger(c.loggerProvider)),
		docs.WithAuditWriter(c.auditWriter),
		docs.WithLocales(c.locales),
		docs.WithRoutes(c.routes),
		docs.WithRevisionPreconditions(c.Config.Features.RevisionPreconditions),
	}
	if c.schemas != nil {
		docOpts = append(docOpts,
			docs.WithSchemaValidator(c.schemas),
			docs.WithSchemaEnforcement(c.Config.Features.EnforceContentSchemas),
		)
	}

	mediaSvc := media.NewService(st,
		media.WithClock(c.clock),
		media.WithLogger(logging.MediaLogger(c.loggerProvider)),
		media.WithAuditWriter(c.auditWriter),
	)

	return batch.Services{
		Products: productSvc,
		Docs:     docs.NewService(st, docOpts...),
		Media:    mediaSvc,
	}
}

func (c *Container) storageName() string {
	if c.bunDB == nil {
		if _, ok := c.store.(*store.BunStore); ok {
			return "bun"
		}
		return runtimeconfig.DriverMemory
	}
	return c.bunDB.Dialect().Name().String()
}

// EnsureSchema creates the SQL schema when the container is bun backed.
func (c *Container) EnsureSchema(ctx context.Context) error {
	if c.bunDB == nil {
		return nil
	}
	return store.CreateSchema(ctx, c.bunDB)
}

// Close releases the database opened from the configured driver. A DB
// supplied through WithBunDB is left to its owner.
func (c *Container) Close() error {
	if c == nil || !c.ownsDB || c.bunDB == nil {
		return nil
	}
	c.ownsDB = false
	if err := c.bunDB.Close(); err != nil {
		return fmt.Errorf("di: close storage: %w", err)
	}
	return nil
}

// Store exposes the configured store.
func (c *Container) Store() store.Store {
	return c.store
}

// BunDB exposes the bun handle, nil for memory storage.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// Locales exposes the supported locale set.
func (c *Container) Locales() locales.Set {
	return c.locales
}

// Routes renders the public catalog URLs.
func (c *Container) Routes() *locales.Routes {
	return c.routes
}

// LoggerProvider exposes the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) AuditWriter() *audit.Writer {
	return c.auditWriter
}

func (c *Container) AuditLog() store.AuditRepository {
	return c.store.Audit()
}

func (c *Container) SchemaValidator() *validation.Validator {
	return c.schemas
}

// ProductService returns the configured product service.
func (c *Container) ProductService() products.Service {
	return c.productSvc
}

// DocsService returns the configured doc service.
func (c *Container) DocsService() docs.Service {
	return c.docSvc
}

// MediaService returns the configured media service.
func (c *Container) MediaService() media.Service {
	return c.mediaSvc
}

// BatchService returns the configured batch service.
func (c *Container) BatchService() batch.Service {
	return c.batchSvc
}
