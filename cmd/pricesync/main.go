package main

import (
	"context"
	"net/http"
	"time"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"tradejournal/src/database"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

// pricesync fetches recent daily closes for every symbol with an open trade
// and stores them as snapshots. Meant to run from cron.
func main() {
	config := GetConfig()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	ctx := context.Background()
	prices := repository.NewPriceRepository()

	symbols, err := prices.OpenSymbols(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to list open trade symbols")
	}
	symbols = mergeSymbols(symbols, config.Symbols)

	if len(symbols) == 0 {
		logger.Info("No symbols to sync")
		return
	}

	exchange := newBinanceInstance()

	for _, symbol := range symbols {
		if err := syncSymbol(ctx, prices, exchange, symbol, config); err != nil {
			logger.WithField("symbol", symbol).
				WithError(err).Error("Failed to sync symbol, continuing")
		}
	}
}

func newBinanceInstance() *binance.Binance {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return binance.NewWithConfig(apiConfig)
}

func syncSymbol(
	ctx context.Context,
	prices *repository.PriceRepository,
	exchange goex.API,
	symbol string,
	config *Config,
) error {

	pair := goex.NewCurrencyPair(
		goex.Currency{Symbol: symbol},
		goex.Currency{Symbol: config.Quote},
	)

	klines, err := exchange.GetKlineRecords(pair, goex.KLINE_PERIOD_1DAY, config.Days)
	if err != nil {
		return err
	}

	for i := range klines {
		kline := klines[i]

		day := time.Unix(kline.Timestamp, 0).UTC().Truncate(24 * time.Hour)

		snapshot := &model.PriceSnapshot{
			Symbol: symbol,
			Date:   day,
			Close:  decimal.NewFromFloat(kline.Close),
		}

		if err := prices.Upsert(ctx, snapshot); err != nil {
			return err
		}

		logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"date":   day.Format("2006-01-02"),
			"close":  snapshot.Close,
		}).Info("Price snapshot stored")
	}

	return nil
}

func mergeSymbols(open, extra []string) []string {
	seen := make(map[string]bool, len(open)+len(extra))
	merged := make([]string, 0, len(open)+len(extra))

	for _, list := range [][]string{open, extra} {
		for _, symbol := range list {
			if symbol == "" || seen[symbol] {
				continue
			}
			seen[symbol] = true
			merged = append(merged, symbol)
		}
	}

	return merged
}
