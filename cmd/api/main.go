package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"

	"github.com/ArowuTest/raffle-backend/api/routes"
	"github.com/ArowuTest/raffle-backend/internal/config"
	"github.com/ArowuTest/raffle-backend/internal/handlers"
	"github.com/ArowuTest/raffle-backend/internal/ledger"
	"github.com/ArowuTest/raffle-backend/internal/locker"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/raffle-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/raffle-backend/internal/services"
	"github.com/ArowuTest/raffle-backend/pkg/jwt"
	"github.com/ArowuTest/raffle-backend/pkg/mongodb"
	"github.com/ArowuTest/raffle-backend/pkg/notifier"
	"github.com/ArowuTest/raffle-backend/pkg/vrf"
)

// stores bundles the repositories of one backend
type stores struct {
	tx        repositories.Transactor
	lotteries repositories.LotteryRepository
	entries   repositories.EntryRepository
	accounts  repositories.AccountRepository
	assets    repositories.AssetRepository
	users     repositories.UserRepository
	close     func(context.Context) error
}

func main() {
	// A missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open record store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			slog.Error("Error closing record store", "error", err)
		}
	}()

	lk, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		slog.Error("Failed to set up sale locker", "error", err)
		os.Exit(1)
	}
	defer closeLocker()

	oracle := vrf.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.MockAPI).
		WithMockFulfillment(cfg.Oracle.MockSeed, cfg.Oracle.MockFulfillDelay)
	if cfg.Oracle.MockAPI {
		slog.Warn("Using mock randomness oracle")
	}

	var events notifier.Notifier = notifier.LogNotifier{}
	if cfg.PubNub.PublishKey != "" {
		events = notifier.NewPubNubNotifier(cfg.PubNub.PublishKey, cfg.PubNub.SubscribeKey, cfg.PubNub.SecretKey)
	}

	tokens := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	l := ledger.New(st.tx, st.accounts, st.assets)
	clock := services.Clock(time.Now)

	escrowService := services.NewEscrowService(st.tx, st.lotteries, l)
	randomnessService := services.NewRandomnessService(oracle)
	lotteryService := services.NewLotteryService(st.tx, st.lotteries, st.entries, escrowService, randomnessService, events, clock)
	ticketService := services.NewTicketService(st.tx, st.lotteries, st.entries, l, lk, events, clock)
	authService := services.NewAuthService(st.users, tokens)

	currency := handlers.Currency{Code: cfg.Currency.Code, Decimals: cfg.Currency.Decimals}
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:    handlers.NewAuthHandler(authService),
		LotteryHandler: handlers.NewLotteryHandler(lotteryService, ticketService, currency),
		LedgerHandler:  handlers.NewLedgerHandler(l, authService, lotteryService, currency),
	}
	if cfg.Ledger.EnableFaucet {
		slog.Warn("Ledger faucet enabled; anyone can mint funds and assets")
	}

	router := routes.SetupRouter(cfg, handlerDeps, tokens)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Server starting", "port", cfg.Server.Port, "store", cfg.Store.Backend)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Backend == config.StoreMemory {
		slog.Warn("Using in-memory record store; state is lost on restart")
		store := memory.NewStore()
		return &stores{
			tx:        store,
			lotteries: memory.NewLotteryRepository(store),
			entries:   memory.NewEntryRepository(store),
			accounts:  memory.NewAccountRepository(store),
			assets:    memory.NewAssetRepository(store),
			users:     memory.NewUserRepository(store),
			close:     func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &stores{
		tx:        mongorepo.NewTransactor(db),
		lotteries: mongorepo.NewLotteryRepository(db),
		entries:   mongorepo.NewEntryRepository(db),
		accounts:  mongorepo.NewAccountRepository(db),
		assets:    mongorepo.NewAssetRepository(db),
		users:     mongorepo.NewUserRepository(db),
		close:     client.Disconnect,
	}, nil
}

func newLocker(ctx context.Context, cfg *config.Config) (locker.Locker, func(), error) {
	if cfg.Redis.URL == "" {
		return locker.NewLocalLocker(), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return locker.NewRedisLocker(client, cfg.Redis.LockTTL), func() { _ = client.Close() }, nil
}
