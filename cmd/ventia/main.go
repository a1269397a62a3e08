// Command ventia is the main entry point for the Ventia voice sales server.
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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emiliovps/ventia/internal/auth"
	"github.com/emiliovps/ventia/internal/catalog"
	"github.com/emiliovps/ventia/internal/config"
	"github.com/emiliovps/ventia/internal/health"
	"github.com/emiliovps/ventia/internal/httpapi"
	"github.com/emiliovps/ventia/internal/interpret"
	"github.com/emiliovps/ventia/internal/observe"
	"github.com/emiliovps/ventia/internal/resilience"
	"github.com/emiliovps/ventia/internal/sales"
	"github.com/emiliovps/ventia/pkg/provider/stt"
	sttmock "github.com/emiliovps/ventia/pkg/provider/stt/mock"
	"github.com/emiliovps/ventia/pkg/provider/stt/vosk"
	"github.com/emiliovps/ventia/pkg/provider/stt/whisper"
	"github.com/emiliovps/ventia/pkg/provider/tts"
	ttsmock "github.com/emiliovps/ventia/pkg/provider/tts/mock"
	"github.com/emiliovps/ventia/pkg/provider/tts/piper"
)

const defaultListenAddr = ":8080"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "ventia: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "ventia: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	slog.Info("ventia starting",
		"config", *configPath,
		"listen_addr", listenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "ventia",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Stores ────────────────────────────────────────────────────────────────
	var (
		pool         *pgxpool.Pool
		productStore catalog.Store
		saleStore    sales.Store
		userStore    auth.Store
	)
	if dsn := cfg.Database.PostgresDSN; dsn != "" {
		pool, err = pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to open database pool", "err", err)
			return 1
		}
		defer pool.Close()

		cs := catalog.NewPostgresStore(pool)
		ss := sales.NewPostgresStore(pool)
		us := auth.NewPostgresStore(pool)
		for name, migrate := range map[string]func(context.Context) error{
			"catalog": cs.Migrate,
			"sales":   ss.Migrate,
			"auth":    us.Migrate,
		} {
			if err := migrate(ctx); err != nil {
				slog.Error("migration failed", "store", name, "err", err)
				return 1
			}
		}
		productStore, saleStore, userStore = cs, ss, us
		slog.Info("using PostgreSQL stores")
	} else {
		productStore, saleStore, userStore = catalog.NewMemStore(), sales.NewMemStore(), auth.NewMemStore()
		slog.Warn("no database configured — using in-memory stores, data is lost on restart")
	}

	// ── Catalog seed ──────────────────────────────────────────────────────────
	if path := cfg.Catalog.SeedFile; path != "" {
		seed, err := catalog.LoadSeedFile(path)
		if err != nil {
			slog.Error("failed to load catalog seed", "path", path, "err", err)
			return 1
		}
		n, err := catalog.ImportSeed(ctx, productStore, seed)
		if err != nil {
			slog.Error("failed to import catalog seed", "path", path, "err", err)
			return 1
		}
		slog.Info("imported catalog seed", "path", path, "count", n)
	}

	// ── Interpretation pipeline ───────────────────────────────────────────────
	resolverOpts := []interpret.ResolverOption{}
	if d := cfg.Catalog.LookupTimeout.Std(); d > 0 {
		resolverOpts = append(resolverOpts, interpret.WithLookupTimeout(d))
	}
	if n := cfg.Catalog.LookupLimit; n > 0 {
		resolverOpts = append(resolverOpts, interpret.WithLookupLimit(n))
	}
	if n := cfg.Catalog.ListingLimit; n > 0 {
		resolverOpts = append(resolverOpts, interpret.WithListingLimit(n))
	}
	if path := cfg.Catalog.SeedFile; path != "" {
		resolverOpts = append(resolverOpts, interpret.WithDefaultCatalog(catalog.SeedCandidates(path)))
	}
	resolver := interpret.NewResolver(catalog.NewLookup(productStore), resolverOpts...)
	interpreter := interpret.New(resolver)

	saleService := sales.NewService(saleStore, productStore)

	// ── Speech providers ──────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	serverOpts := []httpapi.Option{httpapi.WithMetrics(metrics)}

	if entry := cfg.Providers.STT; entry.Name != "" {
		p, err := reg.CreateSTT(entry)
		if err != nil {
			slog.Error("failed to create stt provider", "name", entry.Name, "err", err)
			return 1
		}
		provider := p
		if fb := cfg.Providers.STTFallback; fb.Name != "" {
			standby, err := reg.CreateSTT(fb)
			if err != nil {
				slog.Error("failed to create stt fallback provider", "name", fb.Name, "err", err)
				return 1
			}
			group := resilience.NewSTTFallback(p, entry.Name, resilience.FallbackConfig{})
			group.AddFallback(fb.Name, standby)
			provider = group
			slog.Info("stt fallback enabled", "primary", entry.Name, "fallback", fb.Name)
		}
		serverOpts = append(serverOpts, httpapi.WithSTT(provider))
		slog.Info("provider created", "kind", "stt", "name", entry.Name)
	}
	if entry := cfg.Providers.TTS; entry.Name != "" {
		p, err := reg.CreateTTS(entry)
		if err != nil {
			slog.Error("failed to create tts provider", "name", entry.Name, "err", err)
			return 1
		}
		provider := p
		if fb := cfg.Providers.TTSFallback; fb.Name != "" {
			standby, err := reg.CreateTTS(fb)
			if err != nil {
				slog.Error("failed to create tts fallback provider", "name", fb.Name, "err", err)
				return 1
			}
			group := resilience.NewTTSFallback(p, entry.Name, resilience.FallbackConfig{})
			group.AddFallback(fb.Name, standby)
			provider = group
			slog.Info("tts fallback enabled", "primary", entry.Name, "fallback", fb.Name)
		}
		voice := tts.Voice{Name: entry.Model, Language: "es"}
		serverOpts = append(serverOpts, httpapi.WithTTS(provider, voice))
		slog.Info("provider created", "kind", "tts", "name", entry.Name, "voice", voice.Name)
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	if secret := cfg.Auth.TokenSecret; secret != "" {
		var tokenOpts []auth.TokenOption
		if ttl := cfg.Auth.TokenTTL.Std(); ttl > 0 {
			tokenOpts = append(tokenOpts, auth.WithTTL(ttl))
		}
		tokens, err := auth.NewTokenManager([]byte(secret), tokenOpts...)
		if err != nil {
			slog.Error("failed to create token manager", "err", err)
			return 1
		}
		authService := auth.NewService(userStore, tokens)
		if b := cfg.Auth.Bootstrap; b != nil {
			if err := bootstrapUser(ctx, authService, userStore, b); err != nil {
				slog.Error("failed to bootstrap admin user", "err", err)
				return 1
			}
		}
		serverOpts = append(serverOpts, httpapi.WithAuth(authService))
		slog.Info("authentication enabled")
	} else {
		slog.Warn("auth.token_secret not set — API is open")
	}

	// ── Health checks ─────────────────────────────────────────────────────────
	checkers := []health.Checker{health.Catalog(productStore)}
	if pool != nil {
		checkers = append(checkers, health.Database(pool))
	}
	if url := cfg.Providers.STT.BaseURL; url != "" && cfg.Providers.STT.Name == "whisper" {
		checkers = append(checkers, health.SpeechEngine("stt", url, nil))
	}
	if url := cfg.Providers.TTS.BaseURL; url != "" {
		checkers = append(checkers, health.SpeechEngine("tts", url, nil))
	}
	serverOpts = append(serverOpts, httpapi.WithHealth(health.New(checkers...)))

	// ── Config watcher ────────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.LogLevelChanged {
			logLevel.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level updated", "level", diff.NewLogLevel)
		}
		if diff.RestartRequired {
			slog.Warn("config change requires a restart to take effect")
		}
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	api := httpapi.New(interpreter, productStore, saleService, serverOpts...)

	printStartupSummary(cfg, listenAddr)

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server ready — press Ctrl+C to shut down")
		if tlsCfg := cfg.Server.TLS; tlsCfg != nil {
			errCh <- srv.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			return 1
		}
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the provider factories that ship with
// Ventia into reg. Each factory receives a config.ProviderEntry and builds
// the provider from the implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		if rate := optInt(entry.Options, "sample_rate"); rate > 0 {
			opts = append(opts, whisper.WithSampleRate(rate))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("vosk", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []vosk.Option
		if rate := optInt(entry.Options, "sample_rate"); rate > 0 {
			opts = append(opts, vosk.WithSampleRate(rate))
		}
		if kw := optStrings(entry.Options, "keywords"); len(kw) > 0 {
			opts = append(opts, vosk.WithKeywords(kw))
		}
		return vosk.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("mock", func(_ config.ProviderEntry) (stt.Provider, error) {
		return &sttmock.Provider{}, nil
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("piper", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []piper.Option
		if scale := optFloat(entry.Options, "length_scale"); scale > 0 {
			opts = append(opts, piper.WithLengthScale(scale))
		}
		if spk, ok := optIntOK(entry.Options, "speaker_id"); ok {
			opts = append(opts, piper.WithSpeaker(spk))
		}
		return piper.New(entry.BaseURL, opts...)
	})

	reg.RegisterTTS("mock", func(_ config.ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{}, nil
	})
}

// bootstrapUser creates the initial admin account unless one with that
// email already exists.
func bootstrapUser(ctx context.Context, svc *auth.Service, store auth.Store, b *config.BootstrapUser) error {
	_, err := store.GetByEmail(ctx, b.Email)
	if err == nil {
		slog.Debug("bootstrap user already exists", "email", b.Email)
		return nil
	}
	if !errors.Is(err, auth.ErrNotFound) {
		return err
	}
	if _, err := svc.CreateUser(ctx, b.Email, b.Name, b.Password, auth.RoleAdmin); err != nil {
		return err
	}
	slog.Info("bootstrap admin user created", "email", b.Email)
	return nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, listenAddr string) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          Ventia — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printSummaryRow("STT", summaryValue(cfg.Providers.STT.Name, cfg.Providers.STT.Model))
	printSummaryRow("TTS", summaryValue(cfg.Providers.TTS.Name, cfg.Providers.TTS.Model))
	if cfg.Database.PostgresDSN != "" {
		printSummaryRow("Database", "postgres")
	} else {
		printSummaryRow("Database", "in-memory")
	}
	if cfg.Catalog.SeedFile != "" {
		printSummaryRow("Catalog seed", cfg.Catalog.SeedFile)
	}
	if cfg.Auth.TokenSecret != "" {
		printSummaryRow("Auth", "enabled")
	} else {
		printSummaryRow("Auth", "(open)")
	}
	printSummaryRow("Listen addr", listenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func summaryValue(name, model string) string {
	if name == "" {
		return "(not configured)"
	}
	if model != "" {
		return name + " / " + model
	}
	return name
}

func printSummaryRow(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-15s : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optInt extracts an int from a provider Options map. YAML decodes integers
// as int; zero means absent or wrong type.
func optInt(opts map[string]any, key string) int {
	n, _ := optIntOK(opts, key)
	return n
}

func optIntOK(opts map[string]any, key string) (int, bool) {
	if opts == nil {
		return 0, false
	}
	switch v := opts[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// optFloat extracts a float from a provider Options map.
func optFloat(opts map[string]any, key string) float64 {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// optStrings extracts a string list from a provider Options map.
func optStrings(opts map[string]any, key string) []string {
	if opts == nil {
		return nil
	}
	list, ok := opts[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
