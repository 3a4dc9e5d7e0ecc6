package models

import "time"

// SystemMetrics is an in-process summary of the Prometheus counters for the admin summary endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SpeakerSearches          uint64    `json:"speaker_searches"`
	StatusTransitions        uint64    `json:"status_transitions"`
	StatusOverrides          uint64    `json:"status_overrides"`
	EventsPublished          uint64    `json:"events_published"`
	EventsFailed             uint64    `json:"events_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
