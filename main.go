package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradejournal/src/auth"
	"tradejournal/src/cache"
	"tradejournal/src/checklist"
	"tradejournal/src/database"
	"tradejournal/src/events"
	"tradejournal/src/health"
	"tradejournal/src/server"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logger.SetFormatter(&logger.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := events.NewHub()

	healthConfig := health.GetConfig()
	checker := health.NewChecker(healthConfig)
	go checker.Run(ctx, healthConfig.PollInterval)

	deps := server.Dependencies{
		Hub:       hub,
		Checker:   checker,
		Summaries: cache.NewFromConfig(cache.GetConfig()),
		Tracker:   checklist.NewTracker(),
		TokenTTL:  auth.GetConfig().TokenTTL,
		StartedAt: time.Now(),
	}

	server.StartServer(server.GetConfig().Port, server.NewRouter(deps))
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
