// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/votacao-campus/internal/app/httpapi"
	"github.com/marcelojr/votacao-campus/internal/app/voting"
	"github.com/marcelojr/votacao-campus/internal/app/worker"
	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/antifraude"
	"github.com/marcelojr/votacao-campus/internal/platform/clock"
	"github.com/marcelojr/votacao-campus/internal/platform/config"
	"github.com/marcelojr/votacao-campus/internal/platform/health"
	"github.com/marcelojr/votacao-campus/internal/platform/ids"
	"github.com/marcelojr/votacao-campus/internal/platform/keylock"
	"github.com/marcelojr/votacao-campus/internal/platform/logger"
	"github.com/marcelojr/votacao-campus/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/votacao-campus/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/votacao-campus/internal/platform/storage/redis"
	s3storage "github.com/marcelojr/votacao-campus/internal/platform/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	// Mantemos a conexão compartilhada em todo o ciclo para reaproveitar pool e checar readiness.
	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		// Rodamos migrations automáticas apenas se habilitado para evitar surpresas em produção.
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	// Redis guarda fila, contadores de recusa, rate limit e, opcionalmente, os locks de admissão.
	redisClient, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	sessions := postgresstorage.NewSessionRepository(db)
	directory := postgresstorage.NewDirectoryRepository(db)
	students := postgresstorage.NewStudentRepository(db)
	votes := postgresstorage.NewVoteRepository(db)
	attempts := postgresstorage.NewAttemptRepository(db)
	contador := redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix)
	clockSystem := clock.NewSystemClock()
	checker := health.NewChecker(sqlDB, redisClient)

	var attemptLog domain.AttemptLogger = worker.NewAttemptProcessor(attempts, contador, clockSystem)
	if cfg.AsyncAttemptLog {
		attemptLog = redisstorage.NewFila(redisClient, cfg.FilaKey)
	}

	// Lock em memória só serve para uma réplica; com várias, o lock precisa viver no Redis.
	var locker domain.KeyLocker = keylock.New()
	if cfg.LockBackend == config.LockRedis {
		locker = redisstorage.NewKeyLock(redisClient, cfg.LockKeyPrefix, cfg.LockTTL)
	}

	var antifraudeSvc domain.Antifraude = antifraude.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		antifraudeSvc = antifraude.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	var publisher domain.SnapshotPublisher
	if cfg.SnapshotsEnabled() {
		s3Publisher, err := s3storage.NewSnapshotPublisher(ctx, s3storage.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PathStyle:       cfg.S3PathStyle,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logger.Fatal("falha ao configurar publicacao no s3", "err", err)
		}
		publisher = s3Publisher
		checker.Add("s3", s3Publisher.Ping)
	}

	servico := voting.NewService(voting.Dependencies{
		Sessions:   sessions,
		Directory:  directory,
		Voters:     students,
		Votes:      votes,
		Attempts:   attempts,
		AttemptLog: attemptLog,
		Contador:   contador,
		Locker:     locker,
		Antifraude: antifraudeSvc,
		Publisher:  publisher,
		Clock:      clockSystem,
		IDs:        ids.NewGenerator(),
		Logger:     logger.L(),
	})

	mux := http.NewServeMux()

	// HTTP expõe API, health check e métricas que o Prometheus coleta.
	httpapi.New(servico, logger.L()).Register(mux)
	mux.HandleFunc("GET /healthz", checker.LiveHandler())
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("erro ao encerrar servidor", "err", err)
		}
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "lock", cfg.LockBackend, "fila_tentativas", cfg.AsyncAttemptLog)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}
