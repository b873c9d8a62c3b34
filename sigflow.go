package main

import (
	"flag"
	"fmt"
	"os"

	"sigflow/internal/cli"
	"sigflow/internal/config"
	"sigflow/internal/svc"

	// Imported for side effects: registers the market providers.
	_ "sigflow/pkg/market/binance"
	_ "sigflow/pkg/market/yahoo"
)

var (
	configFile = flag.String("f", "etc/sigflow.yaml", "the config file")
	symbol     = flag.String("symbol", "", "instrument to score, e.g. BTC-USD")
	timeframe  = flag.String("tf", "1h", "timeframe to score")
)

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(cfg)

	ctx, err := svc.NewServiceContext(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sigflow: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	if *symbol == "" {
		printCacheSummary(ctx)
		return
	}

	pred, err := ctx.Score(*symbol, *timeframe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sigflow: score %s %s: %v\n", *symbol, *timeframe, err)
		os.Exit(1)
	}

	fmt.Printf("%s %s: %s (confidence %.2f)\n", *symbol, *timeframe, pred.Signal, pred.Confidence)
	fmt.Printf("  buy %.4f / sell %.4f, latest price %.4f\n", pred.BuyProb, pred.SellProb, pred.LatestPrice)
	if pred.StopLoss != 0 {
		fmt.Printf("  stop %.4f %s, target %.4f\n", pred.StopLoss, pred.StopValue, pred.TakeProfit)
	}
}

func printCacheSummary(ctx *svc.ServiceContext) {
	sum, err := ctx.CacheSummary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sigflow: cache summary: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Cache: %d files\n", sum.TotalFiles)
	for tf, n := range sum.FilesPerTimeframe {
		fmt.Printf("  %s: %d\n", tf, n)
	}
	if !sum.LastRun.IsZero() {
		fmt.Printf("Last pipeline run: %s\n", sum.LastRun)
	}
}
