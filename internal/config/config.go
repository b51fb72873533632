// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the market data subscription.
type Feed struct {
	Provider         string   `yaml:"provider"`
	URL              string   `yaml:"url"`
	Symbols          []string `yaml:"symbols"`
	ReconnectDelayMs int      `yaml:"reconnect_delay_ms"`
	// UntradableSymbols is a venue deny list applied at startup.
	UntradableSymbols []string `yaml:"untradable_symbols"`
}

// Indicator tunes the technical calculator lookback windows.
type Indicator struct {
	HistoryCapacity int `yaml:"history_capacity"`
	MinSamples      int `yaml:"min_samples"`
	RSIPeriod       int `yaml:"rsi_period"`
	MAShortPeriod   int `yaml:"ma_short_period"`
	MALongPeriod    int `yaml:"ma_long_period"`
	TrendLookback   int `yaml:"trend_lookback"`
}

// Trading carries every signal decision threshold. All numbers are externally
// supplied; nothing in the rule chain is hard-coded.
type Trading struct {
	BuyThreshold          float64 `yaml:"buy_threshold"`
	SellThreshold         float64 `yaml:"sell_threshold"`
	MinBuyScore           float64 `yaml:"min_buy_score"`
	WeakSellCutoff        float64 `yaml:"weak_sell_cutoff"`
	StopLossRate          float64 `yaml:"stop_loss_rate"`
	TakeProfitRate        float64 `yaml:"take_profit_rate"`
	WeakSellMaxProfitRate float64 `yaml:"weak_sell_max_profit_rate"`
	RSIOversold           float64 `yaml:"rsi_oversold"`
	RSIOverbought         float64 `yaml:"rsi_overbought"`
	WeightTechnical       float64 `yaml:"weight_technical"`
	WeightSentiment       float64 `yaml:"weight_sentiment"`
	CooldownSecs          int     `yaml:"cooldown_secs"`
	ResultCacheTTLSecs    int     `yaml:"result_cache_ttl_secs"`
	SweepIntervalSecs     int     `yaml:"sweep_interval_secs"`
}

// Allocation sizes the per-symbol position targets.
type Allocation struct {
	MaxCoinsToTrade  int     `yaml:"max_coins_to_trade"`
	ReserveCashRatio float64 `yaml:"reserve_cash_ratio"`
}

// Portfolio seeds the paper ledger and selects trade recording outputs.
type Portfolio struct {
	BaselineCash float64 `yaml:"baseline_cash"`
	MinNotional  float64 `yaml:"min_notional"`
	TradesPath   string  `yaml:"trades_path"`  // JSONL, empty disables
	JournalPath  string  `yaml:"journal_path"` // SQLite, empty disables
}

// Sentiment tunes the provider-side cache.
type Sentiment struct {
	CacheTTLSecs int `yaml:"cache_ttl_secs"`
}

// Engine bounds the tick pipeline concurrency.
type Engine struct {
	Workers    int `yaml:"workers"`
	TickBuffer int `yaml:"tick_buffer"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Feed       Feed       `yaml:"feed"`
	Indicator  Indicator  `yaml:"indicator"`
	Trading    Trading    `yaml:"trading"`
	Allocation Allocation `yaml:"allocation"`
	Portfolio  Portfolio  `yaml:"portfolio"`
	Sentiment  Sentiment  `yaml:"sentiment"`
	Engine     Engine     `yaml:"engine"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate range-checks the configuration at the boundary so bad settings are
// rejected before the engine starts.
func (c *Config) Validate() error {
	if c.Allocation.ReserveCashRatio < 0 || c.Allocation.ReserveCashRatio > 1 {
		return fmt.Errorf("allocation.reserve_cash_ratio must be in [0,1], got %.4f", c.Allocation.ReserveCashRatio)
	}
	if c.Allocation.MaxCoinsToTrade < 1 {
		return fmt.Errorf("allocation.max_coins_to_trade must be >= 1, got %d", c.Allocation.MaxCoinsToTrade)
	}
	if c.Portfolio.BaselineCash <= 0 {
		return fmt.Errorf("portfolio.baseline_cash must be positive, got %.2f", c.Portfolio.BaselineCash)
	}
	if c.Portfolio.MinNotional < 0 {
		return fmt.Errorf("portfolio.min_notional must be >= 0, got %.2f", c.Portfolio.MinNotional)
	}
	if c.Trading.BuyThreshold > 0 {
		return fmt.Errorf("trading.buy_threshold expects a dip (<= 0), got %.2f", c.Trading.BuyThreshold)
	}
	if c.Trading.SellThreshold < 0 {
		return fmt.Errorf("trading.sell_threshold expects a rally (>= 0), got %.2f", c.Trading.SellThreshold)
	}
	if c.Trading.StopLossRate > 0 {
		return fmt.Errorf("trading.stop_loss_rate must be <= 0, got %.4f", c.Trading.StopLossRate)
	}
	if c.Trading.TakeProfitRate < 0 {
		return fmt.Errorf("trading.take_profit_rate must be >= 0, got %.4f", c.Trading.TakeProfitRate)
	}
	if c.Trading.RSIOversold < 0 || c.Trading.RSIOverbought > 100 ||
		c.Trading.RSIOversold >= c.Trading.RSIOverbought {
		return fmt.Errorf("trading rsi bounds invalid: oversold=%.1f overbought=%.1f",
			c.Trading.RSIOversold, c.Trading.RSIOverbought)
	}
	if c.Trading.WeightTechnical < 0 || c.Trading.WeightSentiment < 0 ||
		c.Trading.WeightTechnical+c.Trading.WeightSentiment <= 0 {
		return fmt.Errorf("trading weights invalid: technical=%.2f sentiment=%.2f",
			c.Trading.WeightTechnical, c.Trading.WeightSentiment)
	}
	if c.Trading.CooldownSecs < 0 {
		return fmt.Errorf("trading.cooldown_secs must be >= 0, got %d", c.Trading.CooldownSecs)
	}
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("feed.symbols must list at least one symbol")
	}
	return nil
}
