package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bshumway9/stock-split-checker/internal/checker/config"
	"github.com/bshumway9/stock-split-checker/internal/checker/repository"
	"github.com/bshumway9/stock-split-checker/internal/checker/service"
	"github.com/bshumway9/stock-split-checker/internal/checker/store"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
	"github.com/bshumway9/stock-split-checker/pkg/notify"

	"google.golang.org/genai"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one reverse-split check and exits",
	Run:   runOnce,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs the checker on a cron schedule",
	Run:   runSchedule,
}

func runOnce(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	checker, appLogger := buildChecker(ctx, cfg)
	defer func() { _ = appLogger.Sync() }()

	if err := checker.Execute(ctx); err != nil {
		appLogger.Fatal("Check failed", zap.Error(err))
	}
}

func runSchedule(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	checker, appLogger := buildChecker(ctx, cfg)
	defer func() { _ = appLogger.Sync() }()

	lastRunStore := store.NewLastRunStore(cfg.Ledger.LastRunPath)
	scheduler := service.NewSchedulerService(appLogger, checker, lastRunStore, cfg.Scheduler.CronSpec, nil)

	// Stop the scheduler on interrupt.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Shutting down checker...")
		cancel()
	}()

	if err := scheduler.Start(ctx); err != nil {
		appLogger.Fatal("Scheduler failed", zap.Error(err))
	}
}

func buildChecker(ctx context.Context, cfg *config.Config) (*service.CheckerService, *logger.Logger) {
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger.Info("Starting reverse split checker", zap.String("name", cfg.App.Name))

	sources := []repository.SplitSource{
		repository.NewHedgeFollowRepository(cfg, appLogger),
		repository.NewYahooFinanceRepository(cfg, appLogger),
		repository.NewStockTitanRepository(cfg, appLogger),
	}

	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
	}
	resolver, err := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI repository", zap.Error(err))
	}

	prices := repository.NewPriceRepository(cfg, appLogger)

	notifier := buildNotifier(cfg, appLogger)

	ledgerStore := store.NewLedgerStore(cfg.Ledger.DBPath, appLogger)
	lastRunStore := store.NewLastRunStore(cfg.Ledger.LastRunPath)

	checker := service.NewCheckerService(cfg, appLogger, sources, resolver, prices, ledgerStore, lastRunStore, notifier, nil)
	return checker, appLogger
}

// buildNotifier assembles the configured channels in fallback order: chat
// first, then email, then SMS.
func buildNotifier(cfg *config.Config, appLogger *logger.Logger) *notify.Notifier {
	var channels []notify.Channel

	if cfg.Notify.Telegram.BotToken != "" {
		ch, err := notify.NewTelegramChannel(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		if err != nil {
			appLogger.Error("Failed to initialize Telegram channel", zap.Error(err))
		} else {
			channels = append(channels, ch)
		}
	}
	if cfg.Notify.Discord.WebhookURL != "" {
		channels = append(channels, notify.NewDiscordChannel(cfg.Notify.Discord.WebhookURL, cfg.Notify.Discord.Username))
	}
	if cfg.Notify.Email.Host != "" && cfg.Notify.Email.Recipient != "" {
		channels = append(channels, notify.NewEmailChannel(
			cfg.Notify.Email.Host, cfg.Notify.Email.Port,
			cfg.Notify.Email.Sender, cfg.Notify.Email.Password,
			cfg.Notify.Email.Recipient))
	}
	if cfg.Notify.SMS.PhoneNumber != "" {
		ch, err := notify.NewSMSChannel(
			cfg.Notify.Email.Host, cfg.Notify.Email.Port,
			cfg.Notify.Email.Sender, cfg.Notify.Email.Password,
			cfg.Notify.SMS.PhoneNumber, cfg.Notify.SMS.Carrier)
		if err != nil {
			appLogger.Error("Failed to initialize SMS channel", zap.Error(err))
		} else {
			channels = append(channels, ch)
		}
	}

	return notify.NewNotifier(appLogger, channels...)
}

func main() {
	rootCmd := &cobra.Command{Use: "checker"}

	runCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	scheduleCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing checker CLI: %s\n", err)
		os.Exit(1)
	}
}
