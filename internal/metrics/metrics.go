package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	engagementsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "engagement_service",
			Name:      "engagements_started_total",
			Help:      "Total number of engagement records created",
		},
	)

	heartbeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagement_service",
			Name:      "heartbeats_total",
			Help:      "Total number of heartbeat updates",
		},
		[]string{"outcome"}, // applied, expired
	)

	guestTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagement_service",
			Name:      "guest_toggles_total",
			Help:      "Total number of guest list toggles",
		},
		[]string{"kind", "status"},
	)

	migrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "engagement_service",
			Name:      "migrations_total",
			Help:      "Total number of guest to account migrations",
		},
	)

	migratedItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "engagement_service",
			Name:      "migrated_items_total",
			Help:      "Total number of guest items copied into durable lists",
		},
	)

	remindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagement_service",
			Name:      "reminders_total",
			Help:      "Total number of reminder outcomes per dispatch run",
		},
		[]string{"outcome"}, // sent, ineligible, failed
	)

	dispatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "engagement_service",
			Name:      "dispatch_runs_total",
			Help:      "Total number of dispatch runs",
		},
		[]string{"outcome"}, // completed, skipped, error
	)

	archivedRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "engagement_service",
			Name:      "archived_records_total",
			Help:      "Total number of engagement records moved to durable storage",
		},
	)
)

func RecordEngagementStarted() {
	engagementsStarted.Inc()
}

func RecordHeartbeat(applied bool) {
	outcome := "applied"
	if !applied {
		outcome = "expired"
	}
	heartbeatsTotal.WithLabelValues(outcome).Inc()
}

func RecordGuestToggle(kind, status string) {
	guestTogglesTotal.WithLabelValues(kind, status).Inc()
}

func RecordMigration(items int) {
	migrationsTotal.Inc()
	migratedItemsTotal.Add(float64(items))
}

func RecordReminders(sent, ineligible, failed int) {
	remindersTotal.WithLabelValues("sent").Add(float64(sent))
	remindersTotal.WithLabelValues("ineligible").Add(float64(ineligible))
	remindersTotal.WithLabelValues("failed").Add(float64(failed))
}

func RecordDispatchRun(outcome string) {
	dispatchRunsTotal.WithLabelValues(outcome).Inc()
}

func RecordArchived(n int) {
	archivedRecordsTotal.Add(float64(n))
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
