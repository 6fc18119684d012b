// Worker assíncrono que consome tentativas recusadas da fila, persiste no Postgres e mantém contadores e métricas.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/votacao-campus/internal/app/worker"
	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/clock"
	"github.com/marcelojr/votacao-campus/internal/platform/config"
	"github.com/marcelojr/votacao-campus/internal/platform/health"
	"github.com/marcelojr/votacao-campus/internal/platform/logger"
	"github.com/marcelojr/votacao-campus/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/votacao-campus/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/votacao-campus/internal/platform/storage/redis"
)

const (
	retryDelay         = time.Second
	queueDepthInterval = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	// Worker usa a mesma conexão GORM da API para compartilhar migrations e modelos.
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
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	// Redis é obrigatório aqui porque fila e contador vivem sobre a mesma instância.
	redisClient, err := redisstorage.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	contador := redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix)
	fila := redisstorage.NewFila(redisClient, cfg.FilaKey)
	checker := health.NewChecker(sqlDB, redisClient)

	if cfg.WorkerMetricsAddress != "" {
		go func() {
			// Metrics expõe observabilidade enquanto a goroutine principal consome a fila.
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthz", checker.LiveHandler())
			mux.HandleFunc("/readyz", checker.ReadyHandler())
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := http.ListenAndServe(cfg.WorkerMetricsAddress, mux); err != nil {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
	}

	go worker.WatchQueueDepth(ctx, fila, queueDepthInterval)

	processor := worker.NewAttemptProcessor(postgresstorage.NewAttemptRepository(db), contador, clock.NewSystemClock())

	logger.Info("worker iniciado, aguardando tentativas recusadas")
	for {
		err = fila.ConsumirTentativas(ctx, func(ctx context.Context, attempt domain.RejectedAttempt) error {
			// Erro devolvido faz a fila recolocar a mensagem; nada se perde se o Postgres cair.
			if err := processor.Process(ctx, attempt); err != nil {
				logger.Error("erro ao processar tentativa", "tentativa", attempt.ID, "err", err)
				return err
			}
			return nil
		})
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			break
		}
		logger.Warn("consumo interrompido, tentando de novo", "err", err, "espera", retryDelay)
		select {
		case <-ctx.Done():
		case <-time.After(retryDelay):
		}
	}

	logger.Info("worker finalizado")
}
