package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sigflow/internal/config"
	"sigflow/internal/svc"
	"sigflow/pkg/pipeline"

	// Imported for side effects: registers the market providers.
	_ "sigflow/pkg/market/binance"
	_ "sigflow/pkg/market/yahoo"
)

var configFile = flag.String("f", "etc/sigflow.yaml", "config file")

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[pipeline] starting data pipeline...")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("[pipeline] warning: failed to load config: %v", err)
		log.Printf("[pipeline] using default configuration")
		cfg = &config.Config{Env: "test", CacheDir: "data_cache", ModelDir: "ml_models"}
	}
	log.Printf("[pipeline] env=%s cache=%s", cfg.Env, cfg.CacheDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx, err := svc.NewServiceContext(cfg)
	if err != nil {
		log.Fatalf("[pipeline] failed to build service context: %v", err)
	}
	defer svcCtx.Close()

	summary, runErr := svcCtx.RunPipeline(ctx)
	if summary != nil {
		log.Printf("[pipeline] finished in %s: %d succeeded, %d failed of %d tasks",
			summary.Duration.Round(time.Millisecond), summary.Succeeded, summary.Failed, summary.Total())
		for _, e := range summary.Errors {
			log.Printf("[pipeline]   error: %s", e)
		}
	}
	if runErr != nil {
		if errors.Is(runErr, pipeline.ErrRunFailed) {
			log.Printf("[pipeline] fatal: %v", runErr)
			os.Exit(1)
		}
		log.Fatalf("[pipeline] run aborted: %v", runErr)
	}
	log.Println("[pipeline] data pipeline finished successfully")
}
