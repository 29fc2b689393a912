package common_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/giftify/giftapi/common"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "giftapi.yaml")
	data := []byte(`
base_url: https://api.giftify.test
user_agent: giftapi-test/0.1
cache:
  default_ttl: 2m
checkout:
  processing_delay: 100ms
  fetch_attempts: 5
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := common.LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL != "https://api.giftify.test" {
		t.Errorf("unexpected base url: %s", cfg.BaseURL)
	}
	if cfg.UserAgent != "giftapi-test/0.1" {
		t.Errorf("unexpected user agent: %s", cfg.UserAgent)
	}
	if cfg.Cache.DefaultTTL.Std() != 2*time.Minute {
		t.Errorf("unexpected cache ttl: %v", cfg.Cache.DefaultTTL)
	}
	if cfg.Checkout.ProcessingDelay.Std() != 100*time.Millisecond {
		t.Errorf("unexpected processing delay: %v", cfg.Checkout.ProcessingDelay)
	}
	if cfg.Checkout.FetchAttempts != 5 {
		t.Errorf("unexpected fetch attempts: %d", cfg.Checkout.FetchAttempts)
	}

	// unspecified fields fall back to defaults
	if cfg.Checkout.BackoffBase.Std() != common.DefaultBackoffBase {
		t.Errorf("expected default backoff base, got %v", cfg.Checkout.BackoffBase)
	}
	if cfg.Checkout.BackoffCap.Std() != common.DefaultBackoffCap {
		t.Errorf("expected default backoff cap, got %v", cfg.Checkout.BackoffCap)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := common.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg common.Config
	cfg.ApplyDefaults()

	if cfg.UserAgent != common.DefaultUserAgent {
		t.Errorf("unexpected user agent: %s", cfg.UserAgent)
	}
	if cfg.Cache.DefaultTTL.Std() != common.DefaultCacheTTL {
		t.Errorf("unexpected cache ttl: %v", cfg.Cache.DefaultTTL)
	}
	if cfg.Checkout.ProcessingDelay.Std() != common.DefaultProcessingDelay {
		t.Errorf("unexpected processing delay: %v", cfg.Checkout.ProcessingDelay)
	}
	if cfg.Checkout.FetchAttempts != common.DefaultFetchAttempts {
		t.Errorf("unexpected fetch attempts: %d", cfg.Checkout.FetchAttempts)
	}
}
