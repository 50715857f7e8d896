package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	f, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(`{"listen_address": ":5901"}`)
	f.Close()

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddress != ":5901" {
		t.Fatalf("ListenAddress = %q, want :5901", cfg.ListenAddress)
	}
	if time.Duration(cfg.UpdateMinCheckInterval) != 6*time.Hour {
		t.Fatalf("UpdateMinCheckInterval = %v, want 6h default", time.Duration(cfg.UpdateMinCheckInterval))
	}
	if cfg.UpdateMaxRetryCount != 3 {
		t.Fatalf("UpdateMaxRetryCount = %d, want 3", cfg.UpdateMaxRetryCount)
	}
}

func TestDurationRoundTripsThroughJSON(t *testing.T) {
	f, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(`{"update_min_check_interval": "30m"}`)
	f.Close()

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if time.Duration(cfg.UpdateMinCheckInterval) != 30*time.Minute {
		t.Fatalf("UpdateMinCheckInterval = %v, want 30m", time.Duration(cfg.UpdateMinCheckInterval))
	}
}
