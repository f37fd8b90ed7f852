// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadExchangeEnv()           – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv()  – build runtime Config
//   3) wire a fresh Exchange, seed a demo instrument and users
//   4) start Prometheus /healthz + /metrics server on cfg.Port
//   5) drive the session clock through one demo trading day
//
// Flags:
//   -replay <csv>   Feed tick timestamps from a CSV (one HH:MM:SS per line)
//                   instead of the built-in demo schedule.
//
// Example:
//   go run . -replay ticks.csv
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var replayPath string
	flag.StringVar(&replayPath, "replay", "", "Path to a newline-delimited HH:MM:SS tick file")
	flag.Parse()

	loadExchangeEnv()
	cfg := loadConfigFromEnv()

	ex := NewExchangeWithSchedule(DefaultSchedule(), cfg.PriceLimitPct)
	seedDemo(ex, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if replayPath != "" {
		runReplay(ctx, ex, replayPath)
	} else {
		runDemoDay(ctx, ex, cfg)
	}

	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// seedDemo registers one instrument and a handful of users with starting
// cash, per cfg's SEED_* knobs.
func seedDemo(ex *Exchange, cfg Config) {
	if err := ex.AddInstrument(cfg.SeedInstrumentCode, cfg.SeedInstrumentName, cfg.SeedReferencePrice); err != nil {
		log.Fatalf("seed instrument: %v", err)
	}
	for i := 0; i < cfg.SeedUserCount; i++ {
		id := ex.AddUser(fmt.Sprintf("demo-user-%d", i+1), cfg.SeedUserCash)
		log.Printf("seeded user %d with %d cash", id, cfg.SeedUserCash)
	}
}

// runDemoDay advances the clock tick-by-tick through the default schedule
// from 09:15:00 to 15:00:00 at cfg.TickInterval real-time cadence, or until
// ctx is cancelled.
func runDemoDay(ctx context.Context, ex *Exchange, cfg Config) {
	start, _ := ParseTimestamp("09:15:00")
	end, _ := ParseTimestamp("15:00:00")
	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	for ts := start; ts <= end; ts++ {
		if err := ex.AdvanceTo(FormatTimestamp(ts)); err != nil {
			log.Printf("advance_to %s: %v", FormatTimestamp(ts), err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runReplay drives the clock from a file of "HH:MM:SS" lines, one tick per
// line, ignoring blank lines and "#" comments.
func runReplay(ctx context.Context, ex *Exchange, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open replay file: %v", err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line := s.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		if err := ex.AdvanceTo(line); err != nil {
			log.Printf("advance_to %s: %v", line, err)
		}
	}
	if err := s.Err(); err != nil {
		log.Printf("replay scan: %v", err)
	}
}
