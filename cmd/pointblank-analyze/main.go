// pointblank-analyze runs one analysis cycle from the command line and
// prints the resulting report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pointblank/internal/analyst"
	"pointblank/internal/config"
	"pointblank/internal/domain"
	"pointblank/internal/format"
	"pointblank/internal/gemini"
	"pointblank/internal/quota"
	"pointblank/internal/util"
)

func main() {
	ticker := flag.String("ticker", "", "ticker symbol to analyze (required)")
	flag.Parse()
	if *ticker == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfgPath := "config/pointblank.yaml"
	explicit := false
	if p := os.Getenv("POINTBLANK_CONFIG"); p != "" {
		cfgPath = p
		explicit = true
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.Default()
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	util.SetDefault(logger)

	ctx := context.Background()
	ai, err := gemini.New(ctx, cfg.Gemini, cfg.Analysis)
	if err != nil {
		log.Fatalf("creating AI client: %v", err)
	}

	// A local run has no account, so the gate never denies.
	gate := quota.NewGate(cfg.Analysis.FreeLimit, quota.State{Subscribed: true})
	orch := analyst.NewOrchestrator(ai, gate,
		time.Duration(cfg.Analysis.TimeoutSeconds)*time.Second, cfg.Analysis.MaxAttempts)

	report, err := orch.Analyze(ctx, *ticker)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	printReport(report)
}

func printReport(r *domain.StockReport) {
	signal := format.ClassifySignal(r.Analysis.Overall.Signal)

	fmt.Printf("%s (%s)\n", r.CompanyName, r.Ticker)
	fmt.Printf("  price:   %s (%+.2f%%)\n",
		format.Currency(r.Analysis.Price.Current, r.Currency), r.Analysis.Price.ChangePct)
	fmt.Printf("  signal:  %s %s (score %s)\n",
		signal.Icon(), r.Analysis.Overall.Signal, format.Number(r.Analysis.Overall.Score))
	fmt.Printf("  RSI:     %s (%s)\n",
		format.Number(r.Analysis.RSI.Value), r.Analysis.RSI.Signal)

	if last := domain.LastPoint(r.History); last != nil {
		fmt.Printf("  volume:  %s on %s\n", format.Volume(last.Volume), format.Date(last.Date))
	}

	for _, series := range r.Forecasts {
		if len(series.Points) == 0 {
			continue
		}
		end := series.Points[len(series.Points)-1]
		fmt.Printf("  %s forecast: %s by %s\n",
			series.Model, format.Currency(end.Value, r.Currency), format.Date(end.Date))
	}

	if len(r.News) > 0 {
		fmt.Println("  news:")
		for _, a := range r.News {
			fmt.Printf("    - %s (%s)\n", a.Title, a.Source)
		}
	}
}
