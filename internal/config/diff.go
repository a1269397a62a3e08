package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; anything else
// (listen address, database DSN, providers, auth) requires a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// CatalogChanged is true when the seed file path or any resolver
	// tuning parameter changed. The catalog seed should be re-imported.
	CatalogChanged bool

	// RestartRequired is true when a non-reloadable section changed.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Catalog != new.Catalog {
		d.CatalogChanged = true
	}

	if old.Server.ListenAddr != new.Server.ListenAddr ||
		!tlsEqual(old.Server.TLS, new.Server.TLS) ||
		old.Database != new.Database ||
		!providerEqual(old.Providers.STT, new.Providers.STT) ||
		!providerEqual(old.Providers.TTS, new.Providers.TTS) ||
		!providerEqual(old.Providers.STTFallback, new.Providers.STTFallback) ||
		!providerEqual(old.Providers.TTSFallback, new.Providers.TTSFallback) ||
		!authEqual(old.Auth, new.Auth) {
		d.RestartRequired = true
	}

	return d
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// providerEqual compares entries ignoring the free-form options map, which
// only provider constructors interpret.
func providerEqual(a, b ProviderEntry) bool {
	return a.Name == b.Name && a.APIKey == b.APIKey && a.BaseURL == b.BaseURL && a.Model == b.Model
}

func authEqual(a, b AuthConfig) bool {
	if a.TokenSecret != b.TokenSecret || a.TokenTTL != b.TokenTTL {
		return false
	}
	if a.Bootstrap == nil || b.Bootstrap == nil {
		return a.Bootstrap == b.Bootstrap
	}
	return *a.Bootstrap == *b.Bootstrap
}
