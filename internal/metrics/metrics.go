// Package metrics provides Prometheus metrics for the ECIES codec,
// member/wallet derivation, and the ballot engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "ecies_lib"
)

// Metrics contains all Prometheus metrics for this module.
type Metrics struct {
	// Encrypt/decrypt metrics
	EncryptOpsTotal *prometheus.CounterVec
	DecryptOpsTotal *prometheus.CounterVec
	DecryptFailures *prometheus.CounterVec
	EncryptLatency  *prometheus.HistogramVec
	DecryptLatency  *prometheus.HistogramVec
	BytesEncrypted  prometheus.Counter
	BytesDecrypted  prometheus.Counter

	// Streaming metrics
	StreamsActive       prometheus.Gauge
	StreamsOpened       prometheus.Counter
	StreamsClosed       prometheus.Counter
	StreamChunksSent    prometheus.Counter
	StreamChunksRecv    prometheus.Counter
	StreamChunkErrors   *prometheus.CounterVec
	StreamCancellations prometheus.Counter

	// Key derivation metrics
	KeygenOpsTotal *prometheus.CounterVec
	KeygenLatency  *prometheus.HistogramVec
	PrimeAttempts  prometheus.Histogram
	WalletsDerived prometheus.Counter

	// Vote/poll metrics
	PollsCreated     prometheus.Counter
	PollsClosed      prometheus.Counter
	VotesCast        *prometheus.CounterVec
	VotesRejected    *prometheus.CounterVec
	ReceiptsIssued   prometheus.Counter
	TalliesComputed  *prometheus.CounterVec
	TallyLatency     *prometheus.HistogramVec
	TallyRounds      prometheus.Histogram
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the default metrics instance.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates a new Metrics instance with all metrics registered
// against the default Prometheus registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance with a custom registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		EncryptOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encrypt_ops_total",
			Help:      "Total encrypt operations by mode",
		}, []string{"mode"}),
		DecryptOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decrypt_ops_total",
			Help:      "Total decrypt operations by mode",
		}, []string{"mode"}),
		DecryptFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decrypt_failures_total",
			Help:      "Total decrypt failures by mode",
		}, []string{"mode"}),
		EncryptLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "encrypt_latency_seconds",
			Help:      "Histogram of encrypt operation latency by mode",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"mode"}),
		DecryptLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decrypt_latency_seconds",
			Help:      "Histogram of decrypt operation latency by mode",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"mode"}),
		BytesEncrypted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_encrypted_total",
			Help:      "Total plaintext bytes encrypted",
		}),
		BytesDecrypted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_decrypted_total",
			Help:      "Total plaintext bytes produced by decryption",
		}),

		StreamsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "streams_active",
			Help:      "Number of currently active ECIES streams",
		}),
		StreamsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_opened_total",
			Help:      "Total number of streams opened",
		}),
		StreamsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_closed_total",
			Help:      "Total number of streams closed",
		}),
		StreamChunksSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_sent_total",
			Help:      "Total chunks encrypted and emitted on a stream",
		}),
		StreamChunksRecv: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_received_total",
			Help:      "Total chunks decrypted from a stream",
		}),
		StreamChunkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunk_errors_total",
			Help:      "Total per-chunk stream errors by type",
		}, []string{"error_type"}),
		StreamCancellations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_cancellations_total",
			Help:      "Total streams cancelled via context before completion",
		}),

		KeygenOpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keygen_ops_total",
			Help:      "Total key derivation operations by kind",
		}, []string{"kind"}),
		KeygenLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "keygen_latency_seconds",
			Help:      "Histogram of key derivation latency by kind",
			Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
		PrimeAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "paillier_prime_candidate_attempts",
			Help:      "Histogram of candidates tried per Paillier prime search",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
		WalletsDerived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallets_derived_total",
			Help:      "Total BIP32 wallet derivations performed",
		}),

		PollsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_created_total",
			Help:      "Total polls created",
		}),
		PollsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_closed_total",
			Help:      "Total polls closed",
		}),
		VotesCast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Total votes accepted by voting method",
		}, []string{"method"}),
		VotesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_rejected_total",
			Help:      "Total votes rejected by reason code",
		}, []string{"code"}),
		ReceiptsIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_issued_total",
			Help:      "Total signed vote receipts issued",
		}),
		TalliesComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tallies_computed_total",
			Help:      "Total tallies computed by voting method",
		}, []string{"method"}),
		TallyLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tally_latency_seconds",
			Help:      "Histogram of tally computation latency by voting method",
			Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		TallyRounds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tally_rounds",
			Help:      "Histogram of round counts for MultiRound tallies",
			Buckets:   []float64{1, 2, 3, 4, 5, 10, 20},
		}),
	}

	return m
}

// RecordEncrypt records a completed encrypt operation.
func (m *Metrics) RecordEncrypt(mode string, latencySeconds float64, plaintextBytes int) {
	m.EncryptOpsTotal.WithLabelValues(mode).Inc()
	m.EncryptLatency.WithLabelValues(mode).Observe(latencySeconds)
	m.BytesEncrypted.Add(float64(plaintextBytes))
}

// RecordDecrypt records a completed decrypt operation.
func (m *Metrics) RecordDecrypt(mode string, latencySeconds float64, plaintextBytes int) {
	m.DecryptOpsTotal.WithLabelValues(mode).Inc()
	m.DecryptLatency.WithLabelValues(mode).Observe(latencySeconds)
	m.BytesDecrypted.Add(float64(plaintextBytes))
}

// RecordDecryptFailure records a decrypt failure for mode, without
// revealing its cause (spec §7's opaque-failure requirement applies to
// callers of this metric too: only the mode, never the error, is a label).
func (m *Metrics) RecordDecryptFailure(mode string) {
	m.DecryptFailures.WithLabelValues(mode).Inc()
}

// RecordStreamOpen records a stream being opened.
func (m *Metrics) RecordStreamOpen() {
	m.StreamsActive.Inc()
	m.StreamsOpened.Inc()
}

// RecordStreamClose records a stream being closed.
func (m *Metrics) RecordStreamClose() {
	m.StreamsActive.Dec()
	m.StreamsClosed.Inc()
}

// RecordStreamChunkSent records one chunk emitted by an encrypt stream.
func (m *Metrics) RecordStreamChunkSent() {
	m.StreamChunksSent.Inc()
}

// RecordStreamChunkReceived records one chunk consumed by a decrypt stream.
func (m *Metrics) RecordStreamChunkReceived() {
	m.StreamChunksRecv.Inc()
}

// RecordStreamChunkError records a per-chunk stream error by type.
func (m *Metrics) RecordStreamChunkError(errorType string) {
	m.StreamChunkErrors.WithLabelValues(errorType).Inc()
}

// RecordStreamCancellation records a stream cancelled via context.
func (m *Metrics) RecordStreamCancellation() {
	m.StreamCancellations.Inc()
}

// RecordKeygen records a completed key derivation operation (kind is
// e.g. "ecies_keypair", "paillier_keypair", "hd_wallet").
func (m *Metrics) RecordKeygen(kind string, latencySeconds float64) {
	m.KeygenOpsTotal.WithLabelValues(kind).Inc()
	m.KeygenLatency.WithLabelValues(kind).Observe(latencySeconds)
}

// RecordPrimeAttempts records how many DRBG candidates a Paillier prime
// search consumed before finding a prime.
func (m *Metrics) RecordPrimeAttempts(attempts int) {
	m.PrimeAttempts.Observe(float64(attempts))
}

// RecordWalletDerived records a BIP32 wallet derivation.
func (m *Metrics) RecordWalletDerived() {
	m.WalletsDerived.Inc()
}

// RecordPollCreated records a poll being created.
func (m *Metrics) RecordPollCreated() {
	m.PollsCreated.Inc()
}

// RecordPollClosed records a poll being closed.
func (m *Metrics) RecordPollClosed() {
	m.PollsClosed.Inc()
}

// RecordVoteCast records an accepted vote by method.
func (m *Metrics) RecordVoteCast(method string) {
	m.VotesCast.WithLabelValues(method).Inc()
}

// RecordVoteRejected records a rejected vote by error code.
func (m *Metrics) RecordVoteRejected(code string) {
	m.VotesRejected.WithLabelValues(code).Inc()
}

// RecordReceiptIssued records a signed vote receipt being issued.
func (m *Metrics) RecordReceiptIssued() {
	m.ReceiptsIssued.Inc()
}

// RecordTally records a completed tally computation.
func (m *Metrics) RecordTally(method string, latencySeconds float64, rounds int) {
	m.TalliesComputed.WithLabelValues(method).Inc()
	m.TallyLatency.WithLabelValues(method).Observe(latencySeconds)
	if rounds > 0 {
		m.TallyRounds.Observe(float64(rounds))
	}
}
