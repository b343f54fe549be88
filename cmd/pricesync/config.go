package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Extra symbols to fetch on top of those with open trades.
	Symbols []string `envconfig:"PRICE_SYNC_SYMBOLS" default:""`
	Quote   string   `envconfig:"PRICE_SYNC_QUOTE" default:"USDT"`
	Days    int      `envconfig:"PRICE_SYNC_DAYS" default:"7"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
