package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mediainsight"

var (
    upstreamReqs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "upstream_requests_total",
            Help:      "Total generative-language requests by operation, model and result",
        },
        []string{"operation", "model", "result"},
    )

    upstreamLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: namespace,
            Name:      "upstream_request_duration_seconds",
            Help:      "Duration of generative-language requests by operation and model",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"operation", "model"},
    )

    classifiedErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "classified_errors_total",
            Help:      "Upstream failures by classified kind",
        },
        []string{"kind"},
    )

    cooldownEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "cooldown_events_total",
            Help:      "Quota cooldown events by model and action (opened, rejected, saturated)",
        },
        []string{"model", "action"},
    )

    mediaBytes = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: namespace,
            Name:      "media_bytes",
            Help:      "Size of media sent upstream by kind",
            Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 8),
        },
        []string{"kind"},
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(upstreamReqs, upstreamLatency, classifiedErrors, cooldownEvents, mediaBytes)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveUpstream(operation, model, result string, dur time.Duration) {
    upstreamReqs.WithLabelValues(operation, model, result).Inc()
    upstreamLatency.WithLabelValues(operation, model).Observe(dur.Seconds())
}

func IncClassified(kind string) { classifiedErrors.WithLabelValues(kind).Inc() }

func CooldownOpened(model string)   { cooldownEvents.WithLabelValues(model, "opened").Inc() }
func CooldownRejected(model string) { cooldownEvents.WithLabelValues(model, "rejected").Inc() }
func Saturated(model string)        { cooldownEvents.WithLabelValues(model, "saturated").Inc() }

func ObserveMedia(kind string, size int) { mediaBytes.WithLabelValues(kind).Observe(float64(size)) }
