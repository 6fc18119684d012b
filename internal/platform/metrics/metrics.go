// Pacote metrics registra os coletores Prometheus da API e do worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	voteCastTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_vote_cast_total",
		Help: "Total de tentativas de voto por resultado (accepted, motivo de recusa ou error)",
	}, []string{"outcome"})

	voteCommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campus_vote_commit_duration_seconds",
		Help:    "Tempo da transacao que grava o voto e incrementa os contadores",
		Buckets: prometheus.DefBuckets,
	})

	attemptsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_attempts_processed_total",
		Help: "Total de tentativas recusadas persistidas pelo worker",
	}, []string{"reason"})

	attemptProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campus_attempt_processing_duration_seconds",
		Help:    "Tempo para persistir uma tentativa recusada",
		Buckets: prometheus.DefBuckets,
	})

	attemptQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_attempt_queue_depth",
		Help: "Tentativas recusadas aguardando o worker na fila Redis",
	})
)

func ObserveVoteCast(outcome string) {
	voteCastTotal.WithLabelValues(outcome).Inc()
}

func ObserveCommitDuration(seconds float64) {
	voteCommitDuration.Observe(seconds)
}

func IncAttemptProcessed(reason string) {
	attemptsProcessedTotal.WithLabelValues(reason).Inc()
}

func ObserveAttemptDuration(seconds float64) {
	attemptProcessingDuration.Observe(seconds)
}

func SetAttemptQueueDepth(n int64) {
	attemptQueueDepth.Set(float64(n))
}
