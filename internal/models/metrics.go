package models

import "time"

// MetricsSnapshot summarises process counters for the metrics JSON endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	ImportsSucceeded         uint64    `json:"imports_succeeded"`
	ImportsFailed            uint64    `json:"imports_failed"`
	RowsParsed               uint64    `json:"rows_parsed"`
	StudentsAffected         uint64    `json:"students_affected"`
	StoreFailures            uint64    `json:"store_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
