package catalog

import "github.com/goliatone/go-catalog/internal/runtimeconfig"

var (
	ErrLocalesRequired          = runtimeconfig.ErrLocalesRequired
	ErrDefaultLocaleUnsupported = runtimeconfig.ErrDefaultLocaleUnsupported
	ErrStorageDriverUnknown     = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired       = runtimeconfig.ErrStorageDSNRequired
	ErrCacheTTLInvalid          = runtimeconfig.ErrCacheTTLInvalid
	ErrAuditLimitsInvalid       = runtimeconfig.ErrAuditLimitsInvalid
	ErrProductPageSizeInvalid   = runtimeconfig.ErrProductPageSizeInvalid
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	Features       = runtimeconfig.Features
	AuditConfig    = runtimeconfig.AuditConfig
	ProductsConfig = runtimeconfig.ProductsConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	RoutesConfig   = runtimeconfig.RoutesConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
