package config

import (
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "coinwise-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Feed.Provider != "stub" {
		t.Fatalf("unexpected Feed.Provider: %s", cfg.Feed.Provider)
	}
	if len(cfg.Feed.Symbols) != 1 || cfg.Feed.Symbols[0] != "KRW-BTC" {
		t.Fatalf("expected KRW-BTC symbol, got %+v", cfg.Feed.Symbols)
	}
	if cfg.Feed.ReconnectDelayMs != 250 {
		t.Fatalf("unexpected reconnect delay: %d", cfg.Feed.ReconnectDelayMs)
	}
	if cfg.Indicator.HistoryCapacity != 50 {
		t.Fatalf("unexpected history capacity: %d", cfg.Indicator.HistoryCapacity)
	}
	if cfg.Trading.BuyThreshold != -1.5 {
		t.Fatalf("unexpected buy threshold: %.2f", cfg.Trading.BuyThreshold)
	}
	if cfg.Trading.StopLossRate != -0.04 {
		t.Fatalf("unexpected stop loss rate: %.4f", cfg.Trading.StopLossRate)
	}
	if cfg.Trading.CooldownSecs != 120 {
		t.Fatalf("unexpected cooldown: %d", cfg.Trading.CooldownSecs)
	}
	if cfg.Allocation.MaxCoinsToTrade != 3 {
		t.Fatalf("unexpected max coins: %d", cfg.Allocation.MaxCoinsToTrade)
	}
	if cfg.Allocation.ReserveCashRatio != 0.25 {
		t.Fatalf("unexpected reserve ratio: %.2f", cfg.Allocation.ReserveCashRatio)
	}
	if cfg.Portfolio.BaselineCash != 1840000 {
		t.Fatalf("unexpected baseline cash: %.2f", cfg.Portfolio.BaselineCash)
	}
	if cfg.Engine.Workers != 2 {
		t.Fatalf("unexpected workers: %d", cfg.Engine.Workers)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsBadRanges(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join("testdata", "config.yaml"))
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		return cfg
	}

	cfg := base()
	cfg.Allocation.ReserveCashRatio = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for reserve ratio > 1")
	}

	cfg = base()
	cfg.Feed.Symbols = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty symbol list")
	}

	cfg = base()
	cfg.Trading.RSIOversold = 80
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for inverted rsi bounds")
	}

	cfg = base()
	cfg.Trading.BuyThreshold = 2
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for positive buy threshold")
	}

	cfg = base()
	cfg.Portfolio.BaselineCash = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero baseline cash")
	}
}
