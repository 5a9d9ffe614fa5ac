package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"parkbot/internal/channel"
	"parkbot/internal/config"
	"parkbot/internal/database"
	"parkbot/internal/domain"
	"parkbot/internal/events"
	"parkbot/internal/graph"
	"parkbot/internal/logging"
	"parkbot/internal/metrics"
	"parkbot/internal/orchestrator"
	"parkbot/internal/registry"
	"parkbot/internal/repository"
	"parkbot/internal/retrieval"
	"parkbot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Error().Err(err).Msg("database initialization failed")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	retriever, err := initRetriever(cfg, redisClient, &logger)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()
	subscribeRequestEvents(eventBus, &logger)

	approvalChannel, err := initChannel(ctx, cfg, db, &logger)
	if err != nil {
		return err
	}
	defer func() { _ = approvalChannel.Close() }()

	reg := registry.New(db, approvalChannel, eventBus, &logger)

	m := metrics.NewMetrics()
	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(cfg, m, &logger)
	}

	decisionWorker := worker.NewDecisionWorker(reg, time.Duration(cfg.Worker.IntervalSeconds)*time.Second, 3, m, &logger)
	go decisionWorker.Start(ctx)

	wf := graph.New(retriever, reg, db, eventBus, graph.Config{
		ApprovalWait: time.Duration(cfg.Approval.WaitSeconds) * time.Second,
		PollInterval: time.Duration(cfg.Approval.PollIntervalMillis) * time.Millisecond,
	}, &logger)

	orch := orchestrator.New(wf, m, &logger)

	logger.Info().
		Bool("telegram", cfg.Telegram.Enabled).
		Bool("auto_approve", cfg.Approval.AutoApprove).
		Msg("parkbot started")

	return chatLoop(ctx, orch, os.Stdin, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("could not create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("could not create export directory")
		return err
	}
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable; answers will not be cached")
		_ = client.Close()
		return nil
	}
	return client
}

func initRetriever(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (*retrieval.Retriever, error) {
	var store *retrieval.DocumentStore
	if cfg.Retrieval.DocsPath != "" {
		loaded, err := retrieval.FromFile(cfg.Retrieval.DocsPath)
		if err != nil {
			logger.Error().Err(err).Str("path", cfg.Retrieval.DocsPath).Msg("could not load docs file")
			return nil, err
		}
		store = loaded
	} else {
		store = retrieval.NewDocumentStore(retrieval.DefaultDocuments())
	}

	ttl := time.Duration(cfg.Retrieval.CacheTTLMinutes) * time.Minute
	return retrieval.NewRetriever(store, redisClient, ttl, cfg.Retrieval.TopK, logger), nil
}

func initChannel(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) (domain.ApprovalChannel, error) {
	if !cfg.Telegram.Enabled {
		delay := time.Duration(cfg.Approval.SimulatedDelayMillis) * time.Millisecond
		logger.Info().Dur("delay", delay).Bool("auto_approve", cfg.Approval.AutoApprove).Msg("using simulated approval channel")
		return channel.NewSimulatedChannel(cfg.Approval.AutoApprove, delay), nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("could not create Telegram bot API")
		return nil, err
	}
	botAPI.Debug = cfg.Telegram.Debug

	tg := channel.NewTelegramChannel(botAPI, cfg.Telegram.AdminChatID, db, logger)
	go tg.Listen(ctx)

	logger.Info().Int64("admin_chat_id", cfg.Telegram.AdminChatID).Msg("using Telegram approval channel")
	return tg, nil
}

func startMetricsServer(cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) {
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		logger.Error().Err(err).Msg("metrics registration failed")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
	go func() {
		logger.Info().Str("addr", addr).Msg("metrics server listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func subscribeRequestEvents(bus *events.EventBus, logger *zerolog.Logger) {
	decisionHandler := func(ev *events.Event) error {
		var payload events.RequestEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("request_id", payload.RequestID).
			Str("status", payload.Status).
			Msg("request event")
		return nil
	}

	bus.Subscribe(events.EventRequestApproved, decisionHandler)
	bus.Subscribe(events.EventRequestRejected, decisionHandler)
	bus.Subscribe(events.EventNotificationFailure, decisionHandler)
}

// chatLoop reads messages from input and feeds them through the workflow
// until "exit" or ctx cancellation. The derived cancel releases the
// reader goroutine on every return path; without it a line read after
// shutdown would block the send forever.
func chatLoop(ctx context.Context, orch *orchestrator.Orchestrator, input io.Reader, logger *zerolog.Logger) error {
	fmt.Println("🚗 Parking assistant ready. Type 'help' for commands, 'exit' to quit.")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("> ")

		select {
		case <-ctx.Done():
			fmt.Println()
			logger.Info().Msg("shutting down")
			return nil
		case line, ok := <-lines:
			if !ok {
				logger.Info().Msg("input closed, shutting down")
				return nil
			}

			text := strings.TrimSpace(line)
			switch strings.ToLower(text) {
			case "":
				continue
			case "exit", "quit":
				logger.Info().Msg("shutting down")
				return nil
			case "help":
				printHelp()
			case "summary":
				printSummary(orch)
			default:
				result := orch.Process(ctx, text, "console")
				fmt.Println(result.FinalResponse)
				fmt.Println()
			}
		}
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  info questions   — e.g. 'what are the parking rates?'")
	fmt.Println("  reserve          — e.g. 'reserve John Smith ABC123 from 5 march to 12 march 2026'")
	fmt.Println("  status REQ-...   — check a reservation request")
	fmt.Println("  summary          — show session history")
	fmt.Println("  exit             — quit")
}

func printSummary(orch *orchestrator.Orchestrator) {
	entries := orch.ListHistory()
	if len(entries) == 0 {
		fmt.Println("No requests processed yet.")
		return
	}

	fmt.Printf("Processed %d request(s):\n", len(entries))
	for _, entry := range entries {
		status := entry.Result.ApprovalStatus
		if status == "" {
			status = "-"
		}
		fmt.Printf("  %s  [%s]  %s  approval=%s\n",
			entry.WorkflowID, entry.Result.RequestType, truncate(entry.Message, 40), status)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
