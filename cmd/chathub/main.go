package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chathub/domain"
	"chathub/domain/event"
	"chathub/internal"
	"chathub/moderation"
	"chathub/observability"
	"chathub/projection"
	"chathub/repositories"
	"chathub/runtime"
	"chathub/runtime/workers"
	"chathub/search"
	"chathub/services"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	seedHandle = "demo"
	seedSecret = "password123"
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chathub terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the engine lifecycle, and centralizes error reporting.
// The pattern keeps 'defer' statements (like database cleanup) running on every exit path and
// decouples initialization from the process entry point.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	delays := runtime.Delays{
		Sent:      config.SentDelay,
		Delivered: config.DeliveredDelay,
		Read:      config.ReadDelay,
	}
	if !delays.Valid() {
		return exitConfig, fmt.Errorf("delivery delays must be strictly increasing: %+v", delays)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB, in-memory: the session engine keeps no state across restarts)
	options := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Moderation dictionaries
	censored, err := runtime.LoadCensoredWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("censored words loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, charReplacement)
	if err != nil {
		return exitRuntime, err
	}
	logger.Info("Moderation ready", "words", len(censored.Words), "languages", censored.Languages)

	// 4. Engine assembly
	eventChan := make(chan event.DomainEvent, config.BufferSize)
	monitoring := observability.NewMonitoringManager()
	registry := runtime.NewRegistry()
	timeline := projection.NewTimeline()
	index := search.NewIndex(blugeWriter, logger)

	messageRepository := repositories.NewMessageRepository(db, logger)
	userRepository := repositories.NewUserRepository(db)

	scheduler := runtime.NewStatusScheduler(messageRepository, delays, eventChan, logger).
		WithMonitoring(monitoring)

	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)
	if err := authService.SeedAccount(seedHandle, seedSecret); err != nil {
		return exitRuntime, fmt.Errorf("seed account failed: %w", err)
	}

	rooms := domain.NewRoomList()
	chatService := services.NewChatService(logger, rooms, messageRepository, scheduler, timeline, eventChan).
		WithModerator(&moderator).
		WithMonitoring(monitoring).
		WithIndex(index).
		WithRegistry(registry).
		WithSearchLimit(config.SearchLimit)

	seedContent(chatService)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervision
	fanout := workers.NewEventFanout(logger, eventChan, registry, config.SinkTimeout).
		Add(timeline, search.NewIndexSink(index, logger))
	sup := workers.NewSupervisor(logger, config.RestartInterval).
		Add(fanout,
			workers.NewDeliveryWorker(scheduler, config.TickInterval, logger),
			workers.NewTelemetryWorker(logger, monitoring, config.TelemetryInterval))

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		logger.Info("Starting engine workers...")
		sup.Run(ctx)
	}()

	// 7. Interactive session
	repl := newREPL(logger, authService, chatService, monitoring, registry, stop)
	repl.Run(ctx)

	// 8. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	stop()
	<-engineDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

// seedContent recreates the rooms and the back-and-forth a fresh
// session opens with.
func seedContent(chat *services.ChatService) {
	general := chat.CreateRoom("General")
	random := chat.CreateRoom("Random")
	tech := chat.CreateRoom("Tech Talk")

	chat.SetMemberCount(general, 12)
	chat.SetMemberCount(random, 8)
	chat.SetMemberCount(tech, 15)

	ctx := context.Background()
	_, _ = chat.SendText(ctx, "Alice", general, "Hey everyone! How's it going?")
	_, _ = chat.SendText(ctx, "Bob", general, "Pretty good! Just finished a big project")
	_, _ = chat.SendVoice(ctx, "Alice", general, 3*time.Second)
}
