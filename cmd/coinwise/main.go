package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"coinwise-go/internal/config"
	"coinwise-go/internal/engine"
	"coinwise-go/internal/exchange"
	"coinwise-go/internal/history"
	"coinwise-go/internal/indicator"
	"coinwise-go/internal/journal"
	"coinwise-go/internal/metrics"
	"coinwise-go/internal/monitor"
	"coinwise-go/internal/portfolio"
	"coinwise-go/internal/sentiment"
	"coinwise-go/internal/strategy"
	"coinwise-go/internal/util"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	_ = godotenv.Load() // best-effort

	configPath := os.Getenv("COINWISE_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	log := util.NewLogger(os.Getenv("COINWISE_LOG_LEVEL"))

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	meta := exchange.NewStaticMetadata(cfg.Feed.UntradableSymbols)
	symbols := exchange.FilterTradable(meta, cfg.Feed.Symbols)
	if len(symbols) == 0 {
		log.Fatal().Msg("no tradable symbols configured")
	}

	feedOpts := []exchange.Option{}
	if cfg.Feed.ReconnectDelayMs > 0 {
		feedOpts = append(feedOpts, exchange.WithReconnectDelay(time.Duration(cfg.Feed.ReconnectDelayMs)*time.Millisecond))
	}
	if cfg.Feed.URL != "" {
		feedOpts = append(feedOpts, exchange.WithUpbitURL(cfg.Feed.URL))
	}
	feed := exchange.NewConnector(cfg.Feed.Provider, symbols, log, feedOpts...)

	recorder, closeRecorder, err := buildRecorder(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open trade recorder")
	}
	defer closeRecorder()

	account := portfolio.NewAccount(cfg.Portfolio.BaselineCash, cfg.Portfolio.MinNotional, recorder, log)

	provider := sentiment.NewCached(
		sentiment.NewStatic(nil),
		time.Duration(cfg.Sentiment.CacheTTLSecs)*time.Second,
		sentiment.SystemClock(),
		log,
	)

	generator := strategy.NewGenerator(strategy.Config{
		BuyThreshold:          cfg.Trading.BuyThreshold,
		SellThreshold:         cfg.Trading.SellThreshold,
		MinBuyScore:           cfg.Trading.MinBuyScore,
		WeakSellCutoff:        cfg.Trading.WeakSellCutoff,
		StopLossRate:          cfg.Trading.StopLossRate,
		TakeProfitRate:        cfg.Trading.TakeProfitRate,
		WeakSellMaxProfitRate: cfg.Trading.WeakSellMaxProfitRate,
		RSIOversold:           cfg.Trading.RSIOversold,
		RSIOverbought:         cfg.Trading.RSIOverbought,
		WeightTechnical:       cfg.Trading.WeightTechnical,
		WeightSentiment:       cfg.Trading.WeightSentiment,
		Cooldown:              time.Duration(cfg.Trading.CooldownSecs) * time.Second,
		ResultTTL:             time.Duration(cfg.Trading.ResultCacheTTLSecs) * time.Second,
	}, nil, log)

	eng := engine.New(engine.Config{
		Symbols:          symbols,
		MaxCoinsToTrade:  cfg.Allocation.MaxCoinsToTrade,
		ReserveCashRatio: cfg.Allocation.ReserveCashRatio,
		Workers:          cfg.Engine.Workers,
		TickBuffer:       cfg.Engine.TickBuffer,
		SweepInterval:    time.Duration(cfg.Trading.SweepIntervalSecs) * time.Second,
	}, engine.Deps{
		Feed: feed,
		History: history.NewStore(cfg.Indicator.HistoryCapacity),
		Calculator: indicator.NewCalculator(indicator.Config{
			MinSamples:    cfg.Indicator.MinSamples,
			RSIPeriod:     cfg.Indicator.RSIPeriod,
			MAShortPeriod: cfg.Indicator.MAShortPeriod,
			MALongPeriod:  cfg.Indicator.MALongPeriod,
			TrendLookback: cfg.Indicator.TrendLookback,
		}),
		Sentiment: provider,
		Generator: generator,
		Account:   account,
		Sink:      monitor.NewLogSink(log, 200),
		Log:       log,
	})

	if err := eng.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start engine")
	}
	log.Info().Strs("symbols", symbols).Str("provider", cfg.Feed.Provider).Msg("paper engine started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	eng.Stop()

	summary := account.Summary()
	log.Info().
		Float64("cash", summary.Cash).
		Float64("total_value", summary.TotalValue).
		Float64("total_return", summary.Performance.TotalReturn).
		Float64("win_rate", summary.Performance.WinRate).
		Int("trades", len(summary.Trades)).
		Msg("final portfolio")
}

// buildRecorder selects the configured trade sink: SQLite journal, JSONL
// file, or none.
func buildRecorder(cfg *config.Config, log zerolog.Logger) (portfolio.TradeRecorder, func(), error) {
	switch {
	case cfg.Portfolio.JournalPath != "":
		j, err := journal.NewSQLite(cfg.Portfolio.JournalPath, log)
		if err != nil {
			return nil, nil, err
		}
		return j, func() { _ = j.Close() }, nil
	case cfg.Portfolio.TradesPath != "":
		r, err := portfolio.NewJSONLRecorder(cfg.Portfolio.TradesPath)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
