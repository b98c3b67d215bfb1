package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"

	"github.com/hokireceh/mozi-wallet-faucet/pkg/config"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/logger"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/metrics"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/notify"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/retry"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/runner"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/scheduler"
	httpfiber "github.com/hokireceh/mozi-wallet-faucet/pkg/server/http"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/validation"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/version"
	"github.com/hokireceh/mozi-wallet-faucet/pkg/wallet"
)

var (
	cfgPath     = flag.String("config", "config.yaml", "path to the config file")
	showVersion = flag.Bool("version", false, "print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		versionInfo := version.GetVersion()
		versionJSON, _ := json.Marshal(versionInfo)
		fmt.Println(string(versionJSON))
		return
	}

	file, err := os.Open(*cfgPath)
	if err != nil {
		panic(fmt.Errorf("failed to open config file: %v", err))
	}
	defer file.Close()

	cfg, err := config.ReadConfigWithError(file)
	if err != nil {
		panic(fmt.Errorf("failed to read config: %v", err))
	}

	// init logger
	level, err := zapcore.ParseLevel(cfg.Global.LogLevel)
	if err != nil {
		panic(fmt.Errorf("failed to parse log level: %v", err))
	}
	err = logger.InitLogger(logger.WithLevel(level), logger.WithEncodeTime("timestamp", zapcore.ISO8601TimeEncoder))
	if err != nil {
		panic(fmt.Errorf("failed to init logger: %v", err))
	}
	if zl, ok := logger.GetLogger().(*logger.ZapLogger); ok {
		logger.NewSLoggerFromZap(zl.Logger, level)
	}

	// Validate configuration before any network operations. A broken
	// configuration must abort before the first account is touched.
	configValidator := validation.NewConfigValidator()
	if err := configValidator.ValidateConfig(cfg); err != nil {
		logger.Fatalf("Configuration validation failed: %v", err)
	}
	logger.Infof("Configuration validated successfully")

	timeout := time.Duration(cfg.API.Timeout) * time.Second
	client := wallet.NewClient(cfg.API.BaseURL, timeout)
	notifier := notify.NewNotifier(cfg.Webhook.URL, timeout)
	if !notifier.Enabled() {
		logger.Infof("webhook alerting disabled (no https webhook url configured)")
	}

	retryOpts := retry.Options{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Delay:       time.Duration(cfg.Retry.Delay) * time.Second,
	}
	if cfg.Retry.OnUnauthorized == config.UnauthorizedSkip {
		retryOpts.OnUnauthorized = retry.Skip
	}

	var matcher wallet.Matcher
	if cfg.Sweep.MatchBy == "native" {
		matcher = wallet.MatchNative()
	} else {
		matcher = wallet.MatchBySymbol(cfg.Sweep.TokenSymbol)
	}

	accountRunner := runner.NewRunner(client, notifier, runner.Options{
		Receiver:    cfg.Sweep.Receiver,
		ChainID:     cfg.Sweep.ChainID,
		GasReserve:  decimal.RequireFromString(cfg.Sweep.GasReserve),
		SettleDelay: time.Duration(cfg.Sweep.SettleDelay) * time.Second,
		Retry:       retryOpts,
		Matcher:     matcher,
		TokenSymbol: cfg.Sweep.TokenSymbol,
	})

	promRegistry := prometheus.NewRegistry()
	pipelineMetrics := metrics.New()
	if err := pipelineMetrics.Register(promRegistry); err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	sched := scheduler.New(accountRunner, cfg.Accounts, cfg.Batch, pipelineMetrics)

	server := httpfiber.NewServer(cfg,
		httpfiber.WithRegistry(promRegistry),
		httpfiber.WithScheduler(sched))
	go func() {
		if err := server.Run(); err != nil {
			logger.Errorf("failed to run server: %v", err)
		}
	}()

	if !cfg.Batch.Continuous {
		// Single pass: process every account once and exit cleanly.
		if err := sched.Start(); err != nil {
			logger.Fatalf("Failed to run batch: %v", err)
		}
		server.Stop()
		logger.Infof("all accounts processed, exiting")
		os.Exit(0)
	}

	if err := sched.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	signalChain := make(chan os.Signal, 1)
	signal.Notify(signalChain, os.Interrupt)
	<-signalChain

	// Graceful shutdown
	logger.Infof("Shutting down...")
	sched.Stop()
	server.Stop()
	logger.Infof("Shutdown complete")
}
