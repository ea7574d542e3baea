package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Timeline read outcomes.
const (
	OutcomeHit             = "hit"
	OutcomePartialFallback = "partial_fallback"
	OutcomeRebuild         = "rebuild"
	OutcomeFallback        = "fallback"
	OutcomeStoreError      = "store_error"
)

var (
	TimelineReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeline",
		Name:      "reads_total",
		Help:      "Timeline reads by outcome of the cache path.",
	}, []string{"outcome"})

	TimelineRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeline",
		Name:      "rebuilds_total",
		Help:      "Bulk rebuilds of uninitialized timeline keys by kind.",
	}, []string{"kind"})

	GhostIDs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "timeline",
		Name:      "ghost_ids_total",
		Help:      "Cached post ids that no longer resolve in the cold store.",
	})

	FanoutPushes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "timeline",
		Name:      "fanout_pushes_total",
		Help:      "Post ids pushed onto timeline keys by the fanout worker.",
	})

	FanoutLag = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "timeline",
		Name:      "fanout_lag_seconds",
		Help:      "Time from outbox insert to the end of its fanout.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	RelationCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timeline",
		Name:      "relation_cache_lookups_total",
		Help:      "Social graph cache lookups by result.",
	}, []string{"result"})
)
