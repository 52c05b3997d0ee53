package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/blockverse/internal/api"
	"github.com/annel0/blockverse/internal/auth"
	"github.com/annel0/blockverse/internal/cache"
	"github.com/annel0/blockverse/internal/config"
	"github.com/annel0/blockverse/internal/eventbus"
	"github.com/annel0/blockverse/internal/game"
	"github.com/annel0/blockverse/internal/interaction"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/observability"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	"github.com/annel0/blockverse/internal/world/item"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	var (
		configPath   = flag.String("config", "", "путь к YAML конфигурации (по умолчанию GAME_CONFIG)")
		hashPassword = flag.String("hash-password", "", "вывести bcrypt-хеш пароля для admin.password_hash и выйти")
	)
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("❌ Ошибка хеширования пароля: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logOpts := logging.DefaultOptions()
	logOpts.Dir = cfg.Logging.Dir
	logOpts.ConsoleLevel = logging.ParseLevel(cfg.Logging.Level)
	logOpts.FileLevel = logging.ParseLevel(cfg.Logging.FileLevel)
	logging.Configure(logOpts)
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(cfg *config.Config) error {
	logging.Info("🎮 Запуск blockverse: тик %s, admin API :%d", cfg.Server.TickInterval(), cfg.Server.GetAdminPort())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdownTracing, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			logging.Warn("Трассировка отключена: %v", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(shutdownCtx); err != nil {
					logging.Warn("Ошибка остановки трассировки: %v", err)
				}
			}()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// === АССЕТЫ ===
	blocks, err := block.LoadBlocks(cfg.World.BlocksFile)
	if err != nil {
		return fmt.Errorf("загрузка блоков: %w", err)
	}
	items, err := item.LoadItems(cfg.World.ItemsFile)
	if err != nil {
		return fmt.Errorf("загрузка предметов: %w", err)
	}
	logging.Info("📦 Загружено блоков: %d", blocks.Len())

	// === ХРАНИЛИЩЕ И МИР ===
	store, err := storage.NewWorldStorage(cfg.World.DataPath)
	if err != nil {
		return fmt.Errorf("открытие хранилища: %w", err)
	}
	defer store.Close()

	var chunks world.ChunkStore = store
	if cfg.World.Cache.Enabled() {
		chunkCache, err := cache.NewChunkCache(cfg.World.Cache, store)
		if err != nil {
			logging.Warn("Кеш чанков отключен: %v", err)
		} else {
			defer chunkCache.Close()
			chunks = chunkCache
		}
	}

	w := world.New(blocks,
		world.WithStore(chunks),
		world.WithGenerator(world.NewGenerator(cfg.World.Generator, blocks)),
	)

	// === ШИНА СОБЫТИЙ ===
	bus, err := newBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return fmt.Errorf("подписка логгера событий: %w", err)
	}
	go eventbus.NewMetricsExporter(bus, registry).Run(ctx, 5*time.Second)

	// === ИГРОВОЙ ЦИКЛ ===
	opts := game.DefaultOptions()
	opts.TickInterval = cfg.Server.TickInterval()
	opts.Autosave = cfg.World.Autosave
	opts.LoadRadius = cfg.World.LoadRadius
	opts.Hand = interaction.HandConfig{
		Reach: cfg.Hand.Reach,
		Breaking: interaction.BreakingConfig{
			BurstWindow: cfg.Hand.BurstWindow,
			Timeout:     cfg.Hand.BreakTimeout,
		},
	}
	g := game.New(w, items, bus, observability.NewHandMetrics(registry), opts)

	// === ADMIN API ===
	authenticator, err := auth.NewAuthenticator(cfg.Admin.Secret, cfg.Admin.Username, cfg.Admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("настройка аутентификации: %w", err)
	}
	if cfg.Admin.PasswordHash == "" {
		token, err := authenticator.GenerateToken(cfg.Admin.Username)
		if err != nil {
			return fmt.Errorf("выдача токена: %w", err)
		}
		logging.Warn("🔐 admin.password_hash не задан, вход по паролю отключен. Токен разработчика: %s", token)
	}

	server := api.NewRestServer(api.Config{
		Addr:     fmt.Sprintf(":%d", cfg.Server.GetAdminPort()),
		Game:     g,
		Auth:     authenticator,
		Registry: registry,
	})
	apiErr := make(chan error, 1)
	go func() { apiErr <- server.Start() }()

	gameErr := make(chan error, 1)
	go func() { gameErr <- g.Run(ctx) }()

	logging.Info("✅ Все сервисы запущены")

	// === GRACEFUL SHUTDOWN ===
	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал, завершение работы...")
	case err := <-apiErr:
		if err != nil {
			runErr = fmt.Errorf("admin API: %w", err)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки admin API: %v", err)
	}

	// Run сохраняет мир перед возвратом
	if err := <-gameErr; err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func newBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("📨 Шина событий в памяти")
		return eventbus.NewMemoryBus(1024), nil
	}

	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("подключение к NATS %s: %w", cfg.URL, err)
	}
	logging.Info("📨 Шина событий JetStream %s, поток %s", cfg.URL, cfg.Stream)
	return bus, nil
}
