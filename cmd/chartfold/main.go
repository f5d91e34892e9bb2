// Command chartfold ingests canonical clinical batches into a relational
// store. It decodes one or more batch files, loads each in its own
// transaction, and prints the per-table diff for every load.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"chartfold/internal/metrics"
	"chartfold/internal/metrics/datadog"
	"chartfold/internal/metrics/prompush"
	"chartfold/internal/records"
	"chartfold/internal/store"

	// register all backends with the storage factory.
	_ "chartfold/internal/store/all"
)

func main() {
	var (
		dsn               string
		backendFlg        string
		modeFlg           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		summary           bool
		historySource     string
		asJSON            bool
	)

	flag.StringVar(&dsn, "db", "chartfold.db", "database DSN (file path for sqlite, connection URL for postgres)")
	flag.StringVar(&backendFlg, "backend", "sqlite", "storage backend (sqlite, postgres)")
	flag.StringVar(&modeFlg, "mode", "additive", "load mode (additive, replace)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none; default $METRICS_BACKEND or none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&summary, "summary", false, "print per-table row counts and exit")
	flag.StringVar(&historySource, "history", "", "print the load history of the given source and exit")
	flag.BoolVar(&asJSON, "json", false, "print results as JSON")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	mode, err := store.ParseMode(modeFlg)
	if err != nil {
		fatalf("%v", err)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	s, err := store.Open(ctx, backendFlg, dsn)
	if err != nil {
		fatalf("open store: %v", err)
	}
	defer s.Close()
	if err := s.InitSchema(ctx); err != nil {
		fatalf("init schema: %v", err)
	}

	switch {
	case summary:
		printSummary(ctx, s, asJSON)
	case historySource != "":
		printHistory(ctx, s, records.NormalizeSource(historySource), asJSON)
	default:
		paths := flag.Args()
		if len(paths) == 0 {
			fatalf("no batch files given (or use -summary / -history)")
		}
		loadBatches(ctx, s, paths, mode, asJSON, *verbose)
	}
}

// loadBatches decodes every batch file up front, in parallel, then loads
// them one at a time. Decoding concurrently costs nothing; loading stays
// sequential because the store is single-writer and each load is one
// transaction anyway.
func loadBatches(ctx context.Context, s *store.Store, paths []string, mode store.Mode, asJSON, verbose bool) {
	batches := make([]*records.Batch, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()
			b, err := records.DecodeBatch(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			b.Normalize()
			batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fatalf("%v", err)
	}

	start := time.Now()
	for i, b := range batches {
		res, err := s.LoadSource(ctx, b, mode)
		if err != nil {
			fatalf("load %s: %v", paths[i], err)
		}
		printResult(res, asJSON)
	}
	if verbose {
		log.Printf("loaded %d batch(es) in %s", len(batches), time.Since(start).Truncate(time.Millisecond))
	}
}

func printResult(res *store.LoadResult, asJSON bool) {
	if asJSON {
		printJSON(res)
		return
	}
	if res.Skipped {
		fmt.Printf("%s: unchanged, skipped (%s)\n", res.Source, res.Fingerprint)
		return
	}
	fmt.Printf("%s: mode=%s duration=%s\n", res.Source, res.Mode, res.Duration.Truncate(time.Millisecond))
	for _, name := range sortedKeys(res.Tables) {
		ts := res.Tables[name]
		if ts.New == 0 && ts.Existing == 0 && ts.Removed == 0 && ts.Total == 0 {
			continue
		}
		fmt.Printf("  %-20s new=%-5d existing=%-5d removed=%-5d total=%d\n",
			name, ts.New, ts.Existing, ts.Removed, ts.Total)
	}
}

func printSummary(ctx context.Context, s *store.Store, asJSON bool) {
	counts, err := s.Summary(ctx)
	if err != nil {
		fatalf("summary: %v", err)
	}
	if asJSON {
		printJSON(counts)
		return
	}
	for _, name := range sortedKeys(counts) {
		fmt.Printf("%-20s %d\n", name, counts[name])
	}
}

func printHistory(ctx context.Context, s *store.Store, source string, asJSON bool) {
	entries, err := s.History(ctx, source)
	if err != nil {
		fatalf("history: %v", err)
	}
	if asJSON {
		printJSON(entries)
		return
	}
	if len(entries) == 0 {
		fmt.Printf("no loads recorded for %s\n", source)
		return
	}
	for _, e := range entries {
		total := 0
		for _, n := range e.Totals {
			total += n
		}
		fmt.Printf("%s  duration=%-8s rows=%-6d %s\n",
			e.LoadedAt.Format(time.RFC3339), e.Duration.Truncate(time.Millisecond), total, e.Fingerprint)
	}
}

// resolveMetricsBackend applies the flag → env → default order for the
// metrics backend name. An explicit flag always wins, including "none".
func resolveMetricsBackend(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("METRICS_BACKEND"); v != "" {
		return v
	}
	return "none"
}

// setupMetrics decides the metrics backend: flag → env → nop.
func setupMetrics(name, gwURL, ddAddr string, verbose bool) {
	name = resolveMetricsBackend(name)
	switch name {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("chartfold", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		if verbose {
			log.Printf("metrics: backend=pushgateway url=%s", gwURL)
		}
		metrics.SetBackend(b)

	case "datadog":
		if ddAddr == "" {
			ddAddr = os.Getenv("DOGSTATSD_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: ddAddr})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		if verbose {
			log.Printf("metrics: backend=datadog addr=%s", ddAddr)
		}
		metrics.SetBackend(b)

	case "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", name)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatalf("encode output: %v", err)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
