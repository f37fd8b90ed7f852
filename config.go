// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// This file defines the Config struct (the knobs the demo driver uses) and a
// helper to populate it from environment variables. The .env file is read by
// loadExchangeEnv() (see env.go), so behavior can be tuned without exports.
//
// Typical flow (see main.go):
//   loadExchangeEnv()
//   cfg := loadConfigFromEnv()
package main

import "time"

// Config holds the runtime knobs for the demo driver and the ops HTTP server.
type Config struct {
	// Market
	PriceLimitPct      float64 // +/- daily band around the reference price
	SeedInstrumentCode string
	SeedInstrumentName string
	SeedReferencePrice uint64
	SeedUserCash       uint64
	SeedUserCount      int

	// Ops
	Port         int
	TickInterval time.Duration // cadence of the demo AdvanceTo loop
}

// loadConfigFromEnv reads the process env (already hydrated by
// loadExchangeEnv()) and returns a Config with sane defaults if keys are
// missing.
func loadConfigFromEnv() Config {
	return Config{
		PriceLimitPct:      getEnvFloat("PRICE_LIMIT_PCT", 0.10),
		SeedInstrumentCode: getEnv("SEED_INSTRUMENT_CODE", "600000"),
		SeedInstrumentName: getEnv("SEED_INSTRUMENT_NAME", "Demo Bancorp"),
		SeedReferencePrice: uint64(getEnvInt("SEED_REFERENCE_PRICE", 1000)),
		SeedUserCash:       uint64(getEnvInt("SEED_USER_CASH", 1000000)),
		SeedUserCount:      getEnvInt("SEED_USER_COUNT", 4),
		Port:               getEnvInt("PORT", 8080),
		TickInterval:       time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
	}
}
