package retrieval

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors for retrieval latency and cache
// effectiveness. Register adds them to a registry the caller supplies; the
// engine never reaches for prometheus.DefaultRegisterer itself, matching
// the core's rule of owning no process-wide state. No code in this module
// creates, registers or updates them.
type Metrics struct {
	RetrievalLatency *prometheus.HistogramVec
	RouterLatency    prometheus.Histogram
	VectorCacheHits  prometheus.Counter
	VectorCacheMiss  prometheus.Counter
	IngestChunks     prometheus.Counter
	ExternalFailures *prometheus.CounterVec
}

// NewMetrics constructs the collector set unregistered; callers pass it to
// a prometheus.Registerer via Register.
func NewMetrics() *Metrics {
	return &Metrics{
		RetrievalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brain_retrieval_duration_seconds",
			Help:    "Latency of HybridRetriever.Search by match stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		RouterLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brain_router_classify_duration_seconds",
			Help:    "Latency of Classify.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 10),
		}),
		VectorCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brain_vector_cache_hits_total",
			Help: "Vector index lookups served without an external round trip.",
		}),
		VectorCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brain_vector_cache_misses_total",
			Help: "Vector index lookups that required an external round trip.",
		}),
		IngestChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brain_ingest_chunks_total",
			Help: "Chunks committed by KnowledgeBrain.Ingest.",
		}),
		ExternalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brain_external_failures_total",
			Help: "ExternalFailure occurrences by collaborator (vector, embedder, web_search).",
		}, []string{"collaborator"}),
	}
}

// Register adds every collector to reg. Safe to call once per process.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.RetrievalLatency,
		m.RouterLatency,
		m.VectorCacheHits,
		m.VectorCacheMiss,
		m.IngestChunks,
		m.ExternalFailures,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
