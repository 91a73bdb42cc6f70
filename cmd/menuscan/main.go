// cmd/menuscan/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"menuscan/internal/common/config"
	"menuscan/internal/common/database"
	"menuscan/internal/common/logger"
	"menuscan/internal/discovery"
	"menuscan/internal/matching"
	"menuscan/internal/models"
	"menuscan/internal/ocr"
	"menuscan/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: menuscan <command> [flags]

Commands:
  resolve <dish name>      resolve a menu text to a canonical dish
  extract [flags] <image>  extract menu items from a menu photo
  metrics                  print OCR usage metrics
  health                   check provider and store connectivity

Extract flags:
  -tier <tier_1|tier_2|tier_3>  force a specific tier
  -no-cache                     skip the result cache
  -no-preprocess                skip image preprocessing
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "resolve":
		if len(os.Args) < 3 {
			usage()
		}
		runResolve(ctx, cfg, log, zapLog, os.Args[2])
	case "extract":
		runExtract(ctx, cfg, log, zapLog, os.Args[2:])
	case "metrics":
		runMetrics(ctx, cfg, log, zapLog)
	case "health":
		runHealth(ctx, cfg, log, zapLog)
	default:
		usage()
	}
}

func runResolve(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger, name string) {
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres ping failed", zap.Error(err))
	}

	engine := matching.NewEngine(
		store.NewPostgresDishStore(pg.GetDB()),
		store.NewPostgresModifierLexicon(pg.GetDB()),
		log,
	).WithThresholds(cfg.Matching.SimilarityThreshold, cfg.Matching.DecompositionThreshold)

	result, err := engine.Resolve(ctx, name)
	if err != nil {
		zapLog.Fatal("resolution failed", zap.Error(err))
	}

	output := map[string]interface{}{"result": result}

	if result.MatchType == models.MatchAIDiscoveryNeeded && cfg.Discovery.Enabled {
		client, err := discovery.NewClient(cfg.Discovery, log)
		if err != nil {
			zapLog.Fatal("discovery client init failed", zap.Error(err))
		}
		candidate, err := client.Discover(ctx, result.Input, result.Modifiers)
		if err != nil {
			log.Warn("discovery failed", map[string]interface{}{"error": err.Error()})
		} else {
			output["discovery"] = candidate
		}
	}

	printJSON(output)
}

func runExtract(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger, args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	forceTier := fs.String("tier", "", "force a specific tier")
	noCache := fs.Bool("no-cache", false, "skip the result cache")
	noPreprocess := fs.Bool("no-preprocess", false, "skip image preprocessing")
	fs.Parse(args)

	if fs.NArg() < 1 {
		usage()
	}

	image, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		zapLog.Fatal("reading image failed", zap.Error(err))
	}

	redis, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis connection failed", zap.Error(err))
	}
	defer redis.Close()

	var cache ocr.Cache
	if cfg.OCR.CacheEnabled {
		cache = redis
	}

	router, err := buildRouter(cfg, log, zapLog)
	if err != nil {
		zapLog.Fatal("router init failed", zap.Error(err))
	}

	orchestrator := ocr.NewOrchestrator(router, cache, log)
	result := orchestrator.ExtractMenu(ctx, image, ocr.ExtractOptions{
		EnablePreprocessing: cfg.OCR.Preprocessing && !*noPreprocess,
		UseCache:            !*noCache,
		ForceTier:           models.TierLevel(*forceTier),
	})

	printJSON(result)
	if !result.Success {
		os.Exit(1)
	}
}

func runMetrics(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) {
	redis, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis connection failed", zap.Error(err))
	}
	defer redis.Close()

	orchestrator := ocr.NewOrchestrator(nil, redis, log)
	metrics, err := orchestrator.Metrics(ctx)
	if err != nil {
		zapLog.Fatal("reading metrics failed", zap.Error(err))
	}
	printJSON(metrics)
}

func runHealth(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) {
	health := map[string]string{}

	if pg, err := database.NewPostgres(cfg.Database.Postgres); err == nil {
		if err := pg.Ping(ctx); err == nil {
			health["postgres"] = "ok"
		} else {
			health["postgres"] = err.Error()
		}
		pg.Close()
	} else {
		health["postgres"] = err.Error()
	}

	if redis, err := database.NewRedis(cfg.Database.Redis); err == nil {
		if err := redis.Ping(ctx); err == nil {
			health["redis"] = "ok"
		} else {
			health["redis"] = err.Error()
		}
		redis.Close()
	} else {
		health["redis"] = err.Error()
	}

	for name, provider := range buildProviders(cfg, log) {
		if provider == nil {
			health[name] = "not configured"
			continue
		}
		if provider.HealthCheck(ctx) {
			health[name] = "ok"
		} else {
			health[name] = "unreachable"
		}
	}

	printJSON(health)
}

// buildProviders constructs every configured OCR backend. A provider
// whose credentials are missing maps to nil.
func buildProviders(cfg *config.Config, log logger.Logger) map[string]ocr.Provider {
	providers := map[string]ocr.Provider{}

	if vision, err := ocr.NewVisionProvider(cfg.OCR.Providers, log); err == nil {
		providers[string(models.ProviderGPTVision)] = vision
	} else {
		providers[string(models.ProviderGPTVision)] = nil
	}
	if clova, err := ocr.NewClovaProvider(cfg.OCR.Providers, log); err == nil {
		providers[string(models.ProviderClova)] = clova
	} else {
		providers[string(models.ProviderClova)] = nil
	}
	providers[string(models.ProviderTesseract)] = ocr.NewTesseractProvider(cfg.OCR.Providers, log)

	return providers
}

// buildRouter registers each enabled tier with its configured provider
// and trigger thresholds.
func buildRouter(cfg *config.Config, log logger.Logger, zapLog *zap.Logger) (*ocr.TierRouter, error) {
	providers := buildProviders(cfg, log)
	router := ocr.NewTierRouter(log)

	for name, tier := range cfg.OCR.Tiers {
		if !tier.Enabled {
			continue
		}
		provider := providers[tier.Provider]
		if provider == nil {
			return nil, fmt.Errorf("tier %s provider %s is not configured", name, tier.Provider)
		}
		router.Register(
			models.TierLevel(name),
			provider,
			ocr.FallbackTrigger{
				ConfidenceThreshold:   tier.ConfidenceThreshold,
				MinMenuItems:          tier.MinMenuItems,
				AllowHandwriting:      tier.AllowHandwriting,
				FallbackOnPriceError:  tier.FallbackOnPriceError,
				CheckItemCountAnomaly: tier.CheckItemCountAnomaly,
			},
			time.Duration(tier.Timeout)*time.Millisecond,
		)
		zapLog.Info("tier registered",
			zap.String("tier", name),
			zap.String("provider", tier.Provider),
		)
	}
	return router, nil
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
