package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/skalibog/alphascan/internal/analysis/aggregator"
	"github.com/skalibog/alphascan/internal/config"
	"github.com/skalibog/alphascan/internal/exchange"
	"github.com/skalibog/alphascan/internal/notify"
	"github.com/skalibog/alphascan/internal/scanner"
	"github.com/skalibog/alphascan/internal/server"
	"github.com/skalibog/alphascan/internal/storage"
	"github.com/skalibog/alphascan/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Обработка флагов командной строки
	configPath := flag.String("config", "", "путь к файлу конфигурации (необязательно)")
	flag.Parse()

	if *configPath != "" {
		if _, err := os.Stat(*configPath); os.IsNotExist(err) {
			logger.Fatal("Файл конфигурации не найден", zap.String("path", *configPath))
		}
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		logger.Fatal("Ошибка инициализации логгера", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем хранилище телеметрии
	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
	}
	defer store.Close()

	// Инициализируем клиент биржи
	client, err := exchange.NewBinanceClient(cfg.Binance)
	if err != nil {
		logger.Fatal("Ошибка инициализации клиента биржи", zap.Error(err))
	}

	analyzer := aggregator.NewAnalyzer(cfg.Analysis, cfg.Symbol, client, store)

	email := notify.NewEmailNotifier(cfg.Email)
	if !email.Enabled() {
		logger.Info("Почтовые уведомления отключены: не заданы SMTP-учетные данные или получатель")
	}
	dispatcher := notify.NewDispatcher(notify.NewBackendNotifier(cfg.Backend.URL), email)

	scan := scanner.New(cfg.Scanner, cfg.Symbol, cfg.Binance.Limit, client, analyzer, dispatcher)
	srv := server.New(cfg.Server.Port)

	logger.Info("AlphaScanner запущен",
		zap.String("symbol", cfg.Symbol),
		zap.Strings("timeframes", cfg.Scanner.Timeframes),
		zap.String("scalping_timeframe", cfg.Analysis.Scalping.Timeframe),
		zap.String("backend", cfg.Backend.URL),
		zap.Int("port", cfg.Server.Port))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scan.Run(gctx)
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Завершение с ошибкой", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Завершение работы")
}
