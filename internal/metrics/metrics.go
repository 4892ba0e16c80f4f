// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "topups"

// ─── Ingestion ──────────────────────────────────────────────────────────────

// ScansTotal counts ingestion passes by result (ok, error, skipped).
var ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ingest",
	Name:      "scans_total",
	Help:      "Total mailbox scans by result.",
}, []string{"result"})

// ScanDuration observes how long each scan took.
var ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "ingest",
	Name:      "scan_duration_seconds",
	Help:      "Duration of mailbox scans.",
	Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
})

// MessagesTotal counts processed emails by outcome.
var MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ingest",
	Name:      "messages_total",
	Help:      "Total processed emails by outcome.",
}, []string{"outcome"})

// AIAssists counts model extraction calls by result (ok, error).
var AIAssists = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ingest",
	Name:      "ai_assists_total",
	Help:      "Total AI extraction calls by result.",
}, []string{"result"})

// ─── Review ─────────────────────────────────────────────────────────────────

// DecisionsTotal counts admin decisions by status.
var DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "review",
	Name:      "decisions_total",
	Help:      "Total approve and reject decisions.",
}, []string{"status"})

// CreditsTotal counts wallet credits issued.
var CreditsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "review",
	Name:      "credits_total",
	Help:      "Total wallet credits issued.",
})

// TopUpsCreated counts new queue entries by source and risk level.
var TopUpsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "review",
	Name:      "topups_created_total",
	Help:      "Total top-ups entering the queue.",
}, []string{"source", "risk_level"})

// ─── Board sync ─────────────────────────────────────────────────────────────

// SyncAttempts counts board sync jobs by result (ok, error, dropped, skipped).
var SyncAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "sync",
	Name:      "jobs_total",
	Help:      "Total board sync jobs by result.",
}, []string{"result"})

// SyncQueueDepth is the number of jobs waiting for the sync worker.
var SyncQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "sync",
	Name:      "queue_depth",
	Help:      "Current number of queued board sync jobs.",
})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequestDuration observes admin API latency.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "Admin API request duration.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
