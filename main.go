package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/chetan-code/concentraction/internal/auth"
	"github.com/chetan-code/concentraction/internal/config"
	"github.com/chetan-code/concentraction/internal/handler"
	"github.com/chetan-code/concentraction/internal/repository"
	"github.com/chetan-code/concentraction/internal/resolver"
)

func setupSlog() {
	//Json handler that writes to standard out
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug, //log debug and above
		AddSource: true,            //adds file name and line number
	})

	//Intialise new logger and set it as default for the server
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("environment_var_load_failure", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initDB(ctx context.Context, cfg config.Config) *sql.DB {
	db, err := sql.Open("pgx", cfg.DBURL)
	if err != nil {
		slog.Error("database_intialization_failed", "error", err)
		os.Exit(1)
	}

	//check if connection is alive
	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	err = db.PingContext(pingCtx)
	if err != nil {
		slog.Error("database_connection_ping_failed", "error", err)
		os.Exit(1)
	}

	slog.Info("database_intialisation_success")

	return db
}

// openStore returns the configured account store and its release func.
func openStore(ctx context.Context, cfg config.Config) (repository.AccountStore, func()) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db := initDB(ctx, cfg)
		repo, err := repository.NewAccountRepo(db)
		if err != nil {
			slog.Error("repository_creation_failed", "error", err)
			os.Exit(1)
		}
		return repo, func() { db.Close() }

	case config.DriverMemory:
		slog.Warn("memory_store_selected", "detail", "accounts are lost on restart")
		return repository.NewMemoryStore(), func() {}

	default:
		store, err := repository.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.ConnectTimeout)
		if err != nil {
			slog.Error("mongo_connection_failed", "error", err)
			os.Exit(1)
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				slog.Error("mongo_disconnect_failed", "error", err)
			}
		}
	}
}

func startServer(ctx context.Context, addr string, h http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server_shutdown_failed", "error", err)
		}
	}()

	slog.Info("server_start_success", "addr", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server_start_failed", "error", err)
	}
}

func main() {

	//structure logging
	setupSlog()

	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, release := openStore(ctx, cfg)
	defer release()

	//athentication
	tokens := auth.NewTokenCodec([]byte(cfg.AccessTokenSecret), cfg.AccessTokenTTL)
	gate := auth.NewGate(tokens, store)

	set := resolver.New(store, auth.NewHasher(cfg.BcryptCost), tokens)

	//routing + middleware
	router := handler.NewRouter(gate, set)

	startServer(ctx, cfg.Addr(), router)
}
