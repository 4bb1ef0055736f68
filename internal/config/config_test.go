package config

import "testing"

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
		AI: AIConfig{
			APIKey: "test-key",
			Budget: BudgetConfig{
				DailyTokenLimit: 1000000,
				Action:          "invalid_action",
			},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `ai.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := Config{
				HTTP: HTTPConfig{Port: 8080},
				Database: DatabaseConfig{
					Addrs: []string{"localhost:6379"},
				},
				AI: AIConfig{
					APIKey: "test-key",
					Budget: BudgetConfig{Action: action},
				},
			}

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 0},
		Database: DatabaseConfig{
			Addrs: []string{"localhost:6379"},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Addrs: []string{},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MinConfidenceRange(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Matching: MatchingConfig{MinConfidence: 1.5},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min_confidence out of range")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.AI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("unexpected embedding model %q", cfg.AI.EmbeddingModel)
	}
	if cfg.AI.EmbeddingDimensions != 1536 {
		t.Errorf("expected EmbeddingDimensions=1536, got %d", cfg.AI.EmbeddingDimensions)
	}
	if cfg.AI.TimeoutSec != 30 {
		t.Errorf("expected TimeoutSec=30, got %d", cfg.AI.TimeoutSec)
	}
	if cfg.AI.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.AI.MaxRetries)
	}
	if cfg.Matching.TopK != 50 {
		t.Errorf("expected TopK=50, got %d", cfg.Matching.TopK)
	}
	if cfg.Matching.MinConfidence != 0.6 {
		t.Errorf("expected MinConfidence=0.6, got %v", cfg.Matching.MinConfidence)
	}
	if cfg.Session.TTLHours != 24 {
		t.Errorf("expected TTLHours=24, got %d", cfg.Session.TTLHours)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 200 {
		t.Errorf("expected HNSWEFConstruct=200, got %d", cfg.Index.HNSWEFConstruct)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{ReadinessTimeout: 15},
		AI:       AIConfig{EmbeddingModel: "custom-model", TimeoutSec: 60},
		Matching: MatchingConfig{TopK: 20},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.AI.EmbeddingModel != "custom-model" {
		t.Errorf("expected custom model, got %q", cfg.AI.EmbeddingModel)
	}
	if cfg.Matching.TopK != 20 {
		t.Errorf("expected TopK=20, got %d", cfg.Matching.TopK)
	}
}
