package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Neo4jURI != "bolt://localhost:7687" {
		t.Errorf("Neo4jURI = %q, want default bolt URI", cfg.Neo4jURI)
	}
	if cfg.QA.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %v, want 5m", cfg.QA.SessionTTL)
	}
	if cfg.QA.SuggestionCap != 5 {
		t.Errorf("SuggestionCap = %d, want 5", cfg.QA.SuggestionCap)
	}
	if cfg.QA.FieldPubsLimit != 10 {
		t.Errorf("FieldPubsLimit = %d, want 10", cfg.QA.FieldPubsLimit)
	}
	if cfg.QA.RecentPubsLimit != 5 {
		t.Errorf("RecentPubsLimit = %d, want 5", cfg.QA.RecentPubsLimit)
	}
	if cfg.QA.NetworkEdgeLimit != 50 {
		t.Errorf("NetworkEdgeLimit = %d, want 50", cfg.QA.NetworkEdgeLimit)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NEO4J_URI", "neo4j://graph.internal:7687")
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("SUGGESTION_CAP", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Neo4jURI != "neo4j://graph.internal:7687" {
		t.Errorf("Neo4jURI = %q, want override", cfg.Neo4jURI)
	}
	if cfg.QA.SessionTTL != 90*time.Second {
		t.Errorf("SessionTTL = %v, want 90s", cfg.QA.SessionTTL)
	}
	if cfg.QA.SuggestionCap != 3 {
		t.Errorf("SuggestionCap = %d, want 3", cfg.QA.SuggestionCap)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("SUGGESTION_CAP", "abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.QA.SessionTTL != 5*time.Minute {
		t.Errorf("invalid SESSION_TTL should fall back to 5m, got %v", cfg.QA.SessionTTL)
	}
	if cfg.QA.SuggestionCap != 5 {
		t.Errorf("invalid SUGGESTION_CAP should fall back to 5, got %d", cfg.QA.SuggestionCap)
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := &Config{
		Neo4jURI: "",
		Port:     "",
		DataDir:  "./data",
		CacheTTL: time.Hour,
		QA: QAConfig{
			SessionTTL:                5 * time.Minute,
			AnswerTimeout:             15 * time.Second,
			SuggestionCap:             5,
			FieldPubsLimit:            10,
			RecentPubsLimit:           5,
			MoreInfoLimit:             5,
			NetworkEdgeLimit:          50,
			SessionRateLimitBurst:     10,
			SessionRateLimitPerSecond: 0.5,
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail with missing URI and port")
	}
	msg := err.Error()
	if !strings.Contains(msg, "NEO4J_URI") || !strings.Contains(msg, "PORT") {
		t.Errorf("joined error should name both failures, got %q", msg)
	}
}

func TestQAConfigValidate_RejectsZeroCaps(t *testing.T) {
	qa := QAConfig{
		SessionTTL:                time.Minute,
		AnswerTimeout:             time.Second,
		SuggestionCap:             0,
		FieldPubsLimit:            10,
		RecentPubsLimit:           5,
		MoreInfoLimit:             5,
		NetworkEdgeLimit:          50,
		SessionRateLimitBurst:     10,
		SessionRateLimitPerSecond: 0.5,
	}
	if err := qa.Validate(); err == nil {
		t.Error("Validate() should reject zero SuggestionCap")
	}
}

func TestSQLitePath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/scholarqa"}
	if got := cfg.SQLitePath(); got != "/var/lib/scholarqa/cache.db" {
		t.Errorf("SQLitePath() = %q", got)
	}
}
