// Package main prewarms the SQLite query-result cache so the first
// questions after a deploy do not pay for whole-label graph scans.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yumeleng/scholar-qa-go/internal/config"
	"github.com/yumeleng/scholar-qa-go/internal/kb"
	"github.com/yumeleng/scholar-qa-go/internal/logger"
	"github.com/yumeleng/scholar-qa-go/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).WithModule("warmup")

	cache, err := storage.New(cfg.SQLitePath(), cfg.CacheTTL)
	if err != nil {
		log.WithError(err).Error("Failed to open cache database")
		os.Exit(1)
	}
	defer func() { _ = cache.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := kb.NewClient(ctx, kb.Config{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, log, kb.WithCache(cache))
	if err != nil {
		log.WithError(err).Error("Failed to connect to graph database")
		os.Exit(1)
	}
	defer func() { _ = client.Close(ctx) }()

	start := time.Now()
	failures := 0

	if names, err := client.AllInterestNames(ctx); err != nil {
		log.WithError(err).Error("Interest name warmup failed")
		failures++
	} else {
		log.WithField("interests", len(names)).Info("Interest names cached")
	}

	if values, err := client.HIndexDistribution(ctx); err != nil {
		log.WithError(err).Error("H-index distribution warmup failed")
		failures++
	} else {
		log.WithField("experts", len(values)).Info("H-index distribution cached")
	}

	if fields, err := client.FieldDistribution(ctx, 10); err != nil {
		log.WithError(err).Error("Field distribution warmup failed")
		failures++
	} else {
		log.WithField("fields", len(fields)).Info("Field distribution cached")
	}

	if years, err := client.YearlyPublicationCounts(ctx); err != nil {
		log.WithError(err).Error("Yearly counts warmup failed")
		failures++
	} else {
		log.WithField("years", len(years)).Info("Yearly publication counts cached")
	}

	log.WithField("duration_ms", time.Since(start).Milliseconds()).
		WithField("failures", failures).
		Info("Cache warmup finished")

	if failures > 0 {
		os.Exit(1)
	}
}
