package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/profile-sourcer/internal/config"
	"github.com/jonathan/profile-sourcer/internal/db"
	"github.com/jonathan/profile-sourcer/internal/llm"
	"github.com/jonathan/profile-sourcer/internal/logger"
	"github.com/jonathan/profile-sourcer/internal/oracle"
	"github.com/jonathan/profile-sourcer/internal/pipeline"
	"github.com/jonathan/profile-sourcer/internal/query"
	"github.com/jonathan/profile-sourcer/internal/search"
	"github.com/jonathan/profile-sourcer/internal/server"
	"github.com/jonathan/profile-sourcer/internal/server/ratelimit"
	"github.com/jonathan/profile-sourcer/internal/sources"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the search, compile and history endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	if serveMigrate {
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		log.Info("database schema applied")
	}

	rdb := connectRedis(ctx, cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck
	}

	providers, err := buildProviders(ctx, cfg, rdb, log)
	if err != nil {
		return err
	}
	executor := search.NewExecutor(providers, search.ExecutorConfig{
		PageTimeout: cfg.Search.PageTimeout,
		QPS:         cfg.Search.QPS,
		Burst:       cfg.Search.Burst,
	}, log.Named("search"))

	compiler, err := query.NewDefaultCompiler()
	if err != nil {
		return fmt.Errorf("failed to load lexicon: %w", err)
	}

	deps := pipeline.Deps{
		Compiler: compiler,
		Accounts: database,
		Executor: executor,
		History:  database,
		Logger:   log.Named("pipeline"),
	}
	if cfg.Oracle.Enabled {
		client, gen, err := buildOracle(ctx, cfg.Oracle, log)
		if err != nil {
			return err
		}
		defer client.Close() //nolint:errcheck
		deps.Oracle = gen
	}

	p := pipeline.New(deps, pipeline.Config{MaxPages: cfg.Search.MaxPages})
	defer p.Wait()

	jwtConfig, err := config.NewJWTConfig(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	srv := server.New(cfg.Server, server.Deps{
		Searcher:    p,
		History:     database,
		Health:      database,
		JWT:         server.NewJWTService(jwtConfig),
		RateLimiter: ratelimit.NewLimiter(ratelimit.FromSettings(cfg.RateLimit)),
		Logger:      log.Named("http"),
	})

	return srv.Start(ctx)
}

// connectRedis returns nil when no address is set or the server is unreachable;
// searches then go straight to the provider.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, page cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// buildProviders creates one provider per destination that has an engine ID.
func buildProviders(ctx context.Context, cfg *config.Config, rdb *redis.Client, log *zap.Logger) (map[sources.Destination]search.Provider, error) {
	providers := make(map[sources.Destination]search.Provider)
	for _, dest := range sources.All() {
		cx := cfg.Search.EngineID(dest)
		if cx == "" {
			log.Warn("no search engine configured, destination disabled", zap.String("destination", string(dest)))
			continue
		}
		google, err := search.NewGoogleProvider(ctx, cfg.Search.APIKey, cx)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider for %s: %w", dest, err)
		}

		var provider search.Provider = google
		if rdb != nil {
			provider = search.NewCachedProvider(google, rdb, search.CachedProviderConfig{
				TTL:    cfg.Redis.CacheTTL,
				Prefix: "sourcer:page:" + string(dest),
			}, log.Named("cache"))
		}
		providers[dest] = provider
	}
	return providers, nil
}

func buildOracle(ctx context.Context, cfg config.OracleConfig, log *zap.Logger) (llm.Client, *oracle.Generator, error) {
	llmConfig := llm.DefaultConfig()
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierLite, cfg.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	gen, err := oracle.NewGenerator(client, oracle.Config{
		Timeout:   cfg.Timeout,
		CacheSize: cfg.CacheSize,
	}, log.Named("oracle"))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, gen, nil
}
