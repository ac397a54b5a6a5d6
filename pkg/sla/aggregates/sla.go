package aggregates

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusBreached  Status = "breached"
)

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityBreach   Severity = "breach"
)

// Instance is one tracked deadline clock for a correlation id and SLA
// type. Instances live in the registry while active and are removed on
// any terminal transition.
type Instance struct {
	CorrelationID string
	TypeID        string
	StartedAt     time.Time
	Status        Status
	WarningFired  bool
	CriticalFired bool
	Attributes    map[string]string
}

// Record is the persisted projection of an instance across its full
// life. It outlives the in-memory instance and is only read back by the
// metrics aggregator and the startup reconciliation.
type Record struct {
	CorrelationID string
	TypeID        string
	StartedAt     time.Time
	EndedAt       *time.Time
	Duration      *time.Duration
	Status        Status
	SLAMet        *bool
	WarningFired  bool
	CriticalFired bool
	Attributes    map[string]string
	Notes         *string
	CreatedAt     time.Time
}

// Notification describes one escalation event handed to the notifier.
type Notification struct {
	Severity      Severity
	CorrelationID string
	TypeID        string
	Elapsed       time.Duration
	Threshold     time.Duration
}
