package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"ballotgate/internal/audit"
	electionCache "ballotgate/internal/election/cache"
	electionHandler "ballotgate/internal/election/handler"
	electionService "ballotgate/internal/election/service"
	identityHandler "ballotgate/internal/identity/handler"
	"ballotgate/internal/identity/password"
	identityService "ballotgate/internal/identity/service"
	"ballotgate/internal/jwttoken"
	"ballotgate/internal/platform/config"
	"ballotgate/internal/platform/httpserver"
	"ballotgate/internal/platform/logger"
	"ballotgate/internal/platform/metrics"
	"ballotgate/internal/platform/redis"
	"ballotgate/internal/storage"
	httptransport "ballotgate/internal/transport/http"
)

const tokenIssuer = "ballotgate"

// main wires dependencies and owns the process lifecycle. Business logic lives
// in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	tokens, err := jwttoken.NewService(cfg.JWTSigningKey, tokenIssuer, cfg.TokenTTL)
	if err != nil {
		// No signing key means issued tokens could never be trusted; refuse
		// to start rather than limp along.
		log.Error("fatal: token service", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	router := httptransport.NewRouter(log, m)

	var (
		identities storage.IdentityStore
		candidates storage.CandidateStore
		ledger     storage.VoteLedger
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("fatal: postgres pool", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
		if err := storage.CreateSchema(ctx, pool); err != nil {
			log.Error("fatal: postgres schema", "error", err.Error())
			os.Exit(1)
		}
		identities = storage.NewPostgresIdentityStore(pool)
		candidates = storage.NewPostgresCandidateStore(pool)
		ledger = storage.NewPostgresLedger(pool)

		// The audit trail writes on its own pool so it cannot starve the
		// vote transactions.
		auditDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("fatal: audit db", "error", err.Error())
			os.Exit(1)
		}
		defer auditDB.Close()
		pgAudit := audit.NewPostgresStore(auditDB)
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			log.Error("fatal: audit schema", "error", err.Error())
			os.Exit(1)
		}
		auditStore = pgAudit
		log.Info("using postgres storage")
	} else {
		memIdentities := storage.NewMemoryIdentityStore()
		memCandidates := storage.NewMemoryCandidateStore()
		identities = memIdentities
		candidates = memCandidates
		ledger = storage.NewMemoryLedger(memIdentities, memCandidates)
		auditStore = audit.NewMemoryStore()
		log.Info("using in-memory storage; data is lost on restart")
	}

	var auditSink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("fatal: kafka sink", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
		log.Info("audit events published to kafka", "topic", cfg.Kafka.Topic)
	}

	auditSvc := audit.NewService(256, log)
	auditWorker := audit.NewWorker(auditStore, auditSink, auditSvc.Inbox(), log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = auditWorker.Run(ctx)
	}()

	var tallyCache electionService.TallyCache
	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("fatal: redis", "error", err.Error())
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		tallyCache = electionCache.NewTallyCache(rdb, cfg.Redis.TallyTTL)
		router.AddHealthCheck("redis", rdb)
		log.Info("tally cache enabled", "ttl", cfg.Redis.TallyTTL.String())
	}

	hasher := password.NewHasher(cfg.BcryptCost)
	validator := jwttoken.NewMiddlewareAdapter(tokens)

	idSvc := identityService.NewService(identities, hasher, tokens, auditSvc, m, log)
	elSvc := electionService.NewService(candidates, ledger, idSvc, tallyCache, auditSvc, m, log)

	handler := router.Build(
		identityHandler.New(idSvc, validator, log),
		electionHandler.New(elSvc, validator, log),
	)
	srv := httpserver.New(cfg.Addr, handler)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}

	// The worker stops on context cancellation; give it a moment to exit.
	select {
	case <-workerDone:
	case <-time.After(2 * time.Second):
		log.Warn("audit worker did not stop in time")
	}
}
