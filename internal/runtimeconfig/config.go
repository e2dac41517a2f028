package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-catalog/internal/locales"
)

var ErrLocalesRequired = errors.New("catalog config: at least one locale is required")
var ErrDefaultLocaleUnsupported = errors.New("catalog config: default locale must be one of the configured locales")
var ErrStorageDriverUnknown = errors.New("catalog config: storage driver is invalid")
var ErrStorageDSNRequired = errors.New("catalog config: storage dsn is required for sql drivers")
var ErrCacheTTLInvalid = errors.New("catalog config: cache ttl must be zero or positive")
var ErrAuditLimitsInvalid = errors.New("catalog config: audit list limits must satisfy 1 <= default <= max")
var ErrProductPageSizeInvalid = errors.New("catalog config: product page size max must be positive")
var ErrLoggingProviderRequired = errors.New("catalog config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("catalog config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("catalog config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("catalog config: logging format is invalid")

// Storage drivers understood by the container.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config aggregates feature flags and adapter bindings for the catalog module.
type Config struct {
	DefaultLocale string
	Locales       []string
	Storage       StorageConfig
	Cache         CacheConfig
	Features      Features
	Audit         AuditConfig
	Products      ProductsConfig
	Logging       LoggingConfig
	Routes        RoutesConfig
}

// StorageConfig selects the persistence backend. A bun.DB passed to the
// container takes precedence over Driver/DSN.
type StorageConfig struct {
	Driver string
	DSN    string
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// Features toggles optional behaviour.
type Features struct {
	// ContentSchemas enables advisory JSON-schema checks for doc content.
	ContentSchemas bool
	// EnforceContentSchemas rejects drafts whose content fails its schema.
	EnforceContentSchemas bool
	// RevisionPreconditions honours ExpectedRevision on draft upserts.
	RevisionPreconditions bool
	// TransactionalBatch applies a batch inside one store transaction.
	TransactionalBatch bool
	// ActivityFeed mirrors audit entries to the configured activity sink.
	ActivityFeed bool
}

type AuditConfig struct {
	ListLimitDefault int
	ListLimitMax     int
}

type ProductsConfig struct {
	PageSizeMax int
}

// RoutesConfig roots the public URLs rendered by the route group.
type RoutesConfig struct {
	BaseURL string
}

type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns an in-memory configuration for the zh-CN/en catalog.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: locales.DefaultLocales[0],
		Locales:       append([]string(nil), locales.DefaultLocales...),
		Storage: StorageConfig{
			Driver: DriverMemory,
		},
		Cache: CacheConfig{
			Enabled: false,
			TTL:     time.Minute,
		},
		Features: Features{
			ContentSchemas:        true,
			RevisionPreconditions: true,
			TransactionalBatch:    true,
		},
		Audit: AuditConfig{
			ListLimitDefault: 50,
			ListLimitMax:     200,
		},
		Products: ProductsConfig{
			PageSizeMax: 100,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// LocaleSet builds the supported locale set from Locales and DefaultLocale.
func (cfg Config) LocaleSet() (locales.Set, error) {
	if len(cfg.Locales) == 0 {
		return locales.Set{}, ErrLocalesRequired
	}
	set, err := locales.NewSet(cfg.Locales, cfg.DefaultLocale)
	if errors.Is(err, locales.ErrDefaultNotInSet) {
		return locales.Set{}, fmt.Errorf("%w: %s", ErrDefaultLocaleUnsupported, cfg.DefaultLocale)
	}
	if err != nil {
		return locales.Set{}, fmt.Errorf("catalog config: %w", err)
	}
	return set, nil
}

func (cfg Config) Validate() error {
	if _, err := cfg.LocaleSet(); err != nil {
		return err
	}

	switch NormalizeDriver(cfg.Storage.Driver) {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}

	if cfg.Cache.TTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Audit.ListLimitDefault < 1 || cfg.Audit.ListLimitMax < cfg.Audit.ListLimitDefault {
		return ErrAuditLimitsInvalid
	}
	if cfg.Products.PageSizeMax < 1 {
		return ErrProductPageSizeInvalid
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return ErrLoggingProviderUnknown
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return ErrLoggingLevelInvalid
	}
	if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
		return ErrLoggingFormatInvalid
	}
	return nil
}

// NormalizeDriver lowercases driver names and maps aliases. Empty means memory.
func NormalizeDriver(driver string) string {
	switch value := strings.ToLower(strings.TrimSpace(driver)); value {
	case "", DriverMemory:
		return DriverMemory
	case "sqlite3", DriverSQLite:
		return DriverSQLite
	case "pg", "postgresql", DriverPostgres:
		return DriverPostgres
	default:
		return value
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
