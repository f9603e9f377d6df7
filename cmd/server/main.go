// Command server runs the gateway pipeline in front of a small example API.
//
// Configuration is read from the environment, flags and an optional YAML
// file; see internal/config. Then explore:
//
//	GET  http://localhost:8080/api/health
//	POST http://localhost:8080/api/echo
//	GET  http://localhost:8080/api-docs/
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/bjaus/gateway"
	"github.com/bjaus/gateway/internal/config"
	"github.com/bjaus/gateway/internal/logger"
	"github.com/bjaus/gateway/ratelimit"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

//go:embed openapi.yaml
var defaultDocs []byte

func main() {
	printBuildInfo()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.New("gateway", gateway.Development, os.Stderr).Fatal().Err(err).Msg("error loading config")
	}

	log := logger.New("gateway", cfg.GatewayMode(), os.Stdout)
	log.Debug().Any("config", cfg).Msg("received config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	p, closeFn, err := newPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	log.Info().
		Str("addr", cfg.Server.Address).
		Stringer("mode", p.Mode()).
		Strs("stages", p.Stages()).
		Msg("listening")

	return p.ListenAndServe(ctx, cfg.Server.Address)
}

// newPipeline wires the configured stores, routes and docs into a pipeline.
// The returned func releases external connections.
func newPipeline(ctx context.Context, cfg *config.Config, log *logger.Logger) (*gateway.Pipeline, func(), error) {
	closeFn := func() {}

	var limiterOpts []ratelimit.Option
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			//nolint:errcheck,gosec // already failing
			rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Address, err)
		}
		closeFn = func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("closing redis")
			}
		}
		limiterOpts = append(limiterOpts, ratelimit.WithStore(ratelimit.NewRedisStore(rdb)))
	}

	limiter, err := ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window, limiterOpts...)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
	}

	document := defaultDocs
	if cfg.HTTP.DocsFile != "" {
		if document, err = os.ReadFile(cfg.HTTP.DocsFile); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("read docs: %w", err)
		}
	}
	docs, err := gateway.NewDocs(ctx, document)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	opts := []gateway.Option{
		gateway.WithMode(cfg.GatewayMode()),
		gateway.WithLogger(log.Zerolog()),
		gateway.WithBodyLimit(cfg.HTTP.BodyLimit),
		gateway.WithTrustProxy(cfg.Server.TrustProxy),
		gateway.WithRateLimiter(limiter),
		gateway.WithAPI(cfg.HTTP.APIPrefix, newRouter(cfg.GatewayMode())),
		gateway.WithDocs(cfg.HTTP.DocsPrefix, docs),
	}
	if cfg.HTTP.StaticDir != "" {
		if info, statErr := os.Stat(cfg.HTTP.StaticDir); statErr == nil && info.IsDir() {
			opts = append(opts, gateway.WithStatic(os.DirFS(cfg.HTTP.StaticDir)))
		} else {
			log.Warn().Str("dir", cfg.HTTP.StaticDir).Msg("static directory not found; static files disabled")
		}
	}

	p, err := gateway.New(opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return p, closeFn, nil
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
