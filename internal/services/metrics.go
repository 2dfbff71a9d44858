// Package services – engine metrics.
//
// Prometheus collectors for engine outcomes. Label sets are kept small and
// enumerable (trigger name, collection name, notification kind) so
// cardinality stays bounded. All collectors are safe for concurrent use.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// matchesFound counts positive match decisions by trigger direction.
	matchesFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_matches_found_total",
			Help: "Total number of reservation/request matches found.",
		},
		[]string{"trigger"}, // "reservation" | "request"
	)

	// notificationsSent counts notifier dispatches by payload kind.
	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_notifications_sent_total",
			Help: "Total number of notifications handed to the notifier.",
		},
		[]string{"kind"}, // "match" | "hot" | "picked" | "not_picked"
	)

	// recordsArchived counts records moved to history by collection.
	recordsArchived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_records_archived_total",
			Help: "Total number of records moved to a history collection.",
		},
		[]string{"collection"}, // "reservations" | "notification_requests"
	)

	// hotnessRecomputes counts bucket hotness recalculations.
	hotnessRecomputes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_hotness_recomputes_total",
			Help: "Total number of bucket hotness recomputations.",
		},
	)

	// statsRecordsAggregated counts archived reservations folded into the
	// daily statistics.
	statsRecordsAggregated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_stats_records_aggregated_total",
			Help: "Total number of archived reservations aggregated into statistics.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		matchesFound,
		notificationsSent,
		recordsArchived,
		hotnessRecomputes,
		statsRecordsAggregated,
	)
}
