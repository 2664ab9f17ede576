// Package main verifies knowledge graph connectivity and data shape.
// Run it against a freshly loaded graph to confirm the QA service will
// have something to answer from.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yumeleng/scholar-qa-go/internal/config"
	"github.com/yumeleng/scholar-qa-go/internal/kb"
	"github.com/yumeleng/scholar-qa-go/internal/logger"
)

type verifyResult struct {
	name    string
	passed  bool
	message string
}

func main() {
	fmt.Println("Scholar QA - Knowledge Graph Verification")
	fmt.Println("=========================================")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	log := logger.NewWithWriter("error", io.Discard)
	client, err := kb.NewClient(ctx, kb.Config{
		URI:      cfg.Neo4jURI,
		User:     cfg.Neo4jUser,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", cfg.Neo4jURI, err)
		os.Exit(1)
	}
	defer func() { _ = client.Close(ctx) }()

	results := []verifyResult{
		verifyInterests(ctx, client),
		verifyHIndexes(ctx, client),
		verifyFieldDistribution(ctx, client),
		verifyPublicationYears(ctx, client),
	}

	fmt.Println("\nVerification Results:")
	fmt.Println("=====================")

	passed, failed := 0, 0
	for _, result := range results {
		status := "FAIL"
		if result.passed {
			status = "OK  "
			passed++
		} else {
			failed++
		}
		fmt.Printf("[%s] %s: %s\n", status, result.name, result.message)
	}

	fmt.Printf("\nSummary: %d passed, %d failed\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func verifyInterests(ctx context.Context, client *kb.Client) verifyResult {
	names, err := client.AllInterestNames(ctx)
	if err != nil {
		return verifyResult{"Interest labels", false, err.Error()}
	}
	return verifyResult{
		name:    "Interest labels",
		passed:  len(names) > 0,
		message: fmt.Sprintf("%d distinct interests", len(names)),
	}
}

func verifyHIndexes(ctx context.Context, client *kb.Client) verifyResult {
	values, err := client.HIndexDistribution(ctx)
	if err != nil {
		return verifyResult{"Expert h-indexes", false, err.Error()}
	}
	return verifyResult{
		name:    "Expert h-indexes",
		passed:  len(values) > 0,
		message: fmt.Sprintf("%d experts with h-index", len(values)),
	}
}

func verifyFieldDistribution(ctx context.Context, client *kb.Client) verifyResult {
	fields, err := client.FieldDistribution(ctx, 10)
	if err != nil {
		return verifyResult{"Field distribution", false, err.Error()}
	}
	msg := fmt.Sprintf("%d populated fields", len(fields))
	if len(fields) > 0 {
		msg = fmt.Sprintf("top field %q with %d experts", fields[0].Field, fields[0].Count)
	}
	return verifyResult{
		name:    "Field distribution",
		passed:  len(fields) > 0,
		message: msg,
	}
}

func verifyPublicationYears(ctx context.Context, client *kb.Client) verifyResult {
	years, err := client.YearlyPublicationCounts(ctx)
	if err != nil {
		return verifyResult{"Publication years", false, err.Error()}
	}
	return verifyResult{
		name:    "Publication years",
		passed:  len(years) > 0,
		message: fmt.Sprintf("%d distinct years", len(years)),
	}
}
