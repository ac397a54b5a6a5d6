package aggregates

import "time"

// Query filters history records for the metrics aggregator. All fields
// are optional.
type Query struct {
	TypeID string
	From   *time.Time
	To     *time.Time
}

type TypeMetrics struct {
	Total           int
	Completed       int
	Cancelled       int
	Breached        int
	Active          int
	ComplianceRate  float64
	AverageDuration time.Duration
}

// Snapshot is the aggregate compliance view computed on demand from
// persisted history. It is derived, never stored.
type Snapshot struct {
	Total           int
	Completed       int
	Cancelled       int
	Breached        int
	Active          int
	ComplianceRate  float64
	AverageDuration time.Duration
	ByType          map[string]TypeMetrics
}
