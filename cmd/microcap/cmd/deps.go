package cmd

import (
	"context"
	"fmt"

	"microcap_trading/internal/ai"
	"microcap_trading/internal/config"
	"microcap_trading/internal/cycle"
	"microcap_trading/internal/decision"
	"microcap_trading/internal/market"
	"microcap_trading/internal/market/alpaca"
	"microcap_trading/internal/market/sim"
	"microcap_trading/internal/market/yahoo"
	"microcap_trading/internal/storage"
	"microcap_trading/internal/telegram"
)

type runOptions struct {
	decisionsFile string
	paper         bool
}

// buildRunner wires the cycle runner from config. The returned close func
// releases the gateway.
func buildRunner(ctx context.Context, cfg *config.Config, opts runOptions) (*cycle.Runner, *telegram.Notifier, func(), error) {
	gw, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { gw.Close() }

	var alpacaProvider *alpaca.Provider
	getAlpaca := func() *alpaca.Provider {
		if alpacaProvider == nil {
			alpacaProvider = alpaca.NewProvider(cfg.OrderPollAttempts)
		}
		return alpacaProvider
	}

	var prices market.PriceProvider
	switch cfg.PriceSource {
	case "yahoo":
		prices = yahoo.NewProvider()
	default:
		prices = getAlpaca()
	}

	var broker market.Broker
	if opts.paper || cfg.Broker == "paper" {
		broker = sim.NewBroker(prices)
	} else {
		broker = getAlpaca()
	}

	var source cycle.Source
	if opts.decisionsFile != "" {
		source = decision.FileSource{Path: opts.decisionsFile}
	} else {
		client, err := ai.NewClient(ctx, cfg)
		if err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("no decision source (use --decisions or set GEMINI_API_KEY): %w", err)
		}
		source = client
	}

	notifier := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)

	return &cycle.Runner{
		Gateway:  gw,
		Source:   source,
		Broker:   broker,
		Prices:   prices,
		Notifier: notifier,
		Config:   cfg,
	}, notifier, closeFn, nil
}
